// Package executor applies removal decisions: it moves the removed
// package files into a backup tree, tracks per-repository counts and
// triggers metadata regeneration for every repository that lost
// packages.
package executor

import (
	"context"
	"errors"
	"path/filepath"
	"sort"

	"github.com/ralt/distroclean/internal/models"
	"github.com/ralt/distroclean/internal/repodata"
	"github.com/ralt/distroclean/internal/utils"
	"github.com/sirupsen/logrus"
)

// FileMover moves a package file into a backup directory
type FileMover interface {
	Move(src, dstDir string) error
}

// OSMover moves files on the local filesystem
type OSMover struct{}

// Move implements FileMover
func (OSMover) Move(src, dstDir string) error {
	return utils.MoveFile(src, dstDir)
}

// Executor applies removal decisions for one distribution run
type Executor struct {
	distroName    string
	distroVersion string
	backupRoot    string
	mover         FileMover
	regen         repodata.Regenerator

	// removed package count per repository id
	stats map[int64]int
}

// New creates an executor for one distribution
func New(distroName, distroVersion, backupRoot string, mover FileMover, regen repodata.Regenerator) *Executor {
	return &Executor{
		distroName:    distroName,
		distroVersion: distroVersion,
		backupRoot:    backupRoot,
		mover:         mover,
		regen:         regen,
		stats:         make(map[int64]int),
	}
}

// Apply carries out removal decisions. A failed move is logged as a
// warning and leaves the package in place; it is not counted as
// removed so the repository report stays accurate.
func (e *Executor) Apply(removals []models.Removal, repos map[int64]*models.Repository) {
	for _, rm := range removals {
		repo := repos[rm.Package.RepoID]
		if repo == nil {
			logrus.Warnf("removal of %s references an unknown repository %d", rm.Package.Location, rm.Package.RepoID)
			continue
		}
		backupDir := filepath.Join(e.backupRoot, e.distroName, e.distroVersion, repo.Name, repo.Arch)
		src := filepath.Join(repo.Path, filepath.FromSlash(rm.Package.Location))
		logrus.Infof("deleting %s package from %s %s %s.%s (%s)",
			rm.Package.Location, e.distroName, e.distroVersion, repo.Name, repo.Arch, rm.Reason)
		if err := e.mover.Move(src, backupDir); err != nil {
			logrus.Warnf("cannot move %s to %s: %v", src, backupDir, err)
			continue
		}
		e.stats[repo.ID]++
	}
}

// Stats returns the per-repository removed package counts
func (e *Executor) Stats() map[int64]int {
	return e.stats
}

// RegenerateAll rebuilds the metadata of every repository with
// removed packages. A failure for one repository does not stop the
// others; all failures are joined into the returned error.
func (e *Executor) RegenerateAll(ctx context.Context, repos map[int64]*models.Repository) error {
	ids := make([]int64, 0, len(e.stats))
	for id, count := range e.stats {
		if count > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	for _, id := range ids {
		repo := repos[id]
		logrus.Infof("updating the %s-%s %s.%s repository metadata",
			e.distroName, e.distroVersion, repo.Name, repo.Arch)
		groupFile := repodata.GroupFilePath(repo.Path)
		if err := e.regen.Regenerate(ctx, repo.Path, groupFile); err != nil {
			logrus.Errorf("metadata regeneration failed for %s: %v", repo.Path, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
