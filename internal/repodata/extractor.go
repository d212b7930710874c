package repodata

import (
	"fmt"

	"github.com/ralt/distroclean/internal/models"
	"github.com/sirupsen/logrus"
)

// Extractor produces the package list of one repository
type Extractor interface {
	Extract(repoPath string) ([]models.PackageRecord, error)
}

// RepomdExtractor reads package records from the repository's
// repodata/primary.xml index.
type RepomdExtractor struct{}

// Extract implements Extractor. A missing or corrupt index makes the
// repository unusable for cross-channel comparisons, so the error is
// fatal to the distribution run.
func (RepomdExtractor) Extract(repoPath string) ([]models.PackageRecord, error) {
	primaryPath, err := RecordPath(repoPath, "primary")
	if err != nil {
		return nil, &models.CleanError{Type: models.ErrRepoUnavailable, Repo: repoPath, Err: err}
	}
	if primaryPath == "" {
		return nil, &models.CleanError{
			Type: models.ErrRepoUnavailable,
			Repo: repoPath,
			Err:  fmt.Errorf("no primary record in repomd.xml"),
		}
	}

	f, err := openMetadata(primaryPath)
	if err != nil {
		return nil, &models.CleanError{Type: models.ErrRepoUnavailable, Repo: repoPath, Err: err}
	}
	defer f.Close()

	records, err := ParsePrimary(f)
	if err != nil {
		return nil, &models.CleanError{Type: models.ErrRepoUnavailable, Repo: repoPath, Err: err}
	}
	logrus.Debugf("extracted %d packages from %s", len(records), primaryPath)
	return records, nil
}
