// Package repodata reads and rebuilds Yum repository metadata. It
// supplies the package lists the index is built from, either by
// parsing repodata/primary.xml or by scanning RPM headers directly,
// and wraps the external createrepo_c tool for regeneration.
package repodata

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// repomd.xml structures (repo metadata namespace)

type repomd struct {
	XMLName xml.Name     `xml:"repomd"`
	Data    []repomdData `xml:"data"`
}

type repomdData struct {
	Type     string         `xml:"type,attr"`
	Location repomdLocation `xml:"location"`
}

type repomdLocation struct {
	Href string `xml:"href,attr"`
}

// RecordPath returns the file path of the repomd record of the given
// type ("primary", "group", ...) or "" when the repository metadata
// has no such record.
func RecordPath(repoPath, recordType string) (string, error) {
	repomdPath := filepath.Join(repoPath, "repodata", "repomd.xml")
	data, err := os.ReadFile(repomdPath)
	if err != nil {
		return "", err
	}
	var md repomd
	if err := xml.Unmarshal(data, &md); err != nil {
		return "", fmt.Errorf("cannot parse %s: %w", repomdPath, err)
	}
	for _, rec := range md.Data {
		if rec.Type == recordType {
			return filepath.Join(repoPath, filepath.FromSlash(rec.Location.Href)), nil
		}
	}
	return "", nil
}

// GroupFilePath returns the comps (group definitions) file of a
// repository, or "" when it has none.
func GroupFilePath(repoPath string) string {
	path, err := RecordPath(repoPath, "group")
	if err != nil {
		return ""
	}
	return path
}
