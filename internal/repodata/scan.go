package repodata

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ralt/distroclean/internal/models"
	"github.com/sassoftware/go-rpmutils"
	"github.com/sirupsen/logrus"
)

// RPM packages start with 0xED 0xAB 0xEE 0xDB
var rpmMagic = []byte{0xED, 0xAB, 0xEE, 0xDB}

// ScanExtractor builds package records by walking a repository and
// reading RPM headers directly, for repositories whose repodata
// index should be bypassed.
type ScanExtractor struct{}

// Extract implements Extractor
func (ScanExtractor) Extract(repoPath string) ([]models.PackageRecord, error) {
	var records []models.PackageRecord
	err := filepath.Walk(repoPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ok, err := isRPM(path)
		if err != nil {
			logrus.Warnf("cannot inspect %s: %v", path, err)
			return nil
		}
		if !ok {
			return nil
		}
		rec, err := readHeader(path)
		if err != nil {
			logrus.Warnf("failed to read RPM header of %s: %v", path, err)
			return nil
		}
		rel, err := filepath.Rel(repoPath, path)
		if err != nil {
			return err
		}
		rec.Location = filepath.ToSlash(rel)
		records = append(records, *rec)
		return nil
	})
	if err != nil {
		return nil, &models.CleanError{Type: models.ErrRepoUnavailable, Repo: repoPath, Err: err}
	}
	logrus.Debugf("scanned %d packages in %s", len(records), repoPath)
	return records, nil
}

// isRPM checks the file extension and magic bytes
func isRPM(path string) (bool, error) {
	if filepath.Ext(path) != ".rpm" {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, len(rpmMagic))
	if _, err := f.Read(header); err != nil {
		return false, err
	}
	return bytes.Equal(header, rpmMagic), nil
}

// readHeader extracts a package record from an RPM file header
func readHeader(path string) (*models.PackageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rpm, err := rpmutils.ReadRpm(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read RPM: %w", err)
	}

	rec := &models.PackageRecord{
		Name:      getStringTag(rpm, rpmutils.NAME),
		Epoch:     int(getIntTag(rpm, rpmutils.EPOCH)),
		Version:   getStringTag(rpm, rpmutils.VERSION),
		Release:   getStringTag(rpm, rpmutils.RELEASE),
		Arch:      getStringTag(rpm, rpmutils.ARCH),
		SourceRPM: getStringTag(rpm, rpmutils.SOURCERPM),
	}
	if rec.Name == "" || rec.Version == "" || rec.Release == "" {
		return nil, fmt.Errorf("incomplete RPM header")
	}
	return rec, nil
}

// getStringTag safely gets a string tag from RPM
func getStringTag(rpm *rpmutils.Rpm, tag int) string {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return ""
	}

	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	default:
		return fmt.Sprintf("%v", v)
	}

	return ""
}

// getIntTag safely gets an integer tag from RPM
func getIntTag(rpm *rpmutils.Rpm, tag int) int64 {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return 0
	}
	switch v := val.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case []int32:
		if len(v) > 0 {
			return int64(v[0])
		}
	}
	return 0
}
