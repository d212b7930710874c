package repodata

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ralt/distroclean/internal/models"
	"github.com/ulikunitz/xz"
)

// primary.xml structures (common metadata namespace)

type primaryPackage struct {
	Name     string          `xml:"name"`
	Arch     string          `xml:"arch"`
	Version  primaryVersion  `xml:"version"`
	Location primaryLocation `xml:"location"`
	Format   primaryFormat   `xml:"format"`
}

type primaryVersion struct {
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}

type primaryLocation struct {
	Href string `xml:"href,attr"`
}

type primaryFormat struct {
	SourceRPM string `xml:"http://linux.duke.edu/metadata/rpm sourcerpm"`
}

// ParsePrimary streams package records out of a primary.xml document
func ParsePrimary(r io.Reader) ([]models.PackageRecord, error) {
	var records []models.PackageRecord
	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot parse primary.xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "package" {
			continue
		}
		var pkg primaryPackage
		if err := decoder.DecodeElement(&pkg, &start); err != nil {
			return nil, fmt.Errorf("cannot parse primary.xml package element: %w", err)
		}
		epoch := 0
		if pkg.Version.Epoch != "" {
			// absent or unparsable epoch compares as zero
			epoch, _ = strconv.Atoi(pkg.Version.Epoch)
		}
		records = append(records, models.PackageRecord{
			Name:      pkg.Name,
			Epoch:     epoch,
			Version:   pkg.Version.Ver,
			Release:   pkg.Version.Rel,
			Arch:      pkg.Arch,
			SourceRPM: pkg.Format.SourceRPM,
			Location:  pkg.Location.Href,
		})
	}
	return records, nil
}

// openMetadata opens a metadata file, transparently decompressing
// gz, xz and zst variants.
func openMetadata(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &metadataReader{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case strings.HasSuffix(path, ".xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &metadataReader{Reader: xzr, closers: []io.Closer{f}}, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &metadataReader{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), f}}, nil
	default:
		return f, nil
	}
}

type metadataReader struct {
	io.Reader
	closers []io.Closer
}

func (m *metadataReader) Close() error {
	var firstErr error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
