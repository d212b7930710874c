// Package cleaner drives a full cleanup run: it indexes every
// configured repository of a distribution, prunes each architecture
// through the retention engine and executor, refreshes metadata for
// touched repositories and prints a report.
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/ralt/distroclean/internal/config"
	"github.com/ralt/distroclean/internal/engine"
	"github.com/ralt/distroclean/internal/executor"
	"github.com/ralt/distroclean/internal/index"
	"github.com/ralt/distroclean/internal/models"
	"github.com/ralt/distroclean/internal/repodata"
	"github.com/ralt/distroclean/internal/utils"
	"github.com/sirupsen/logrus"
)

// Cleaner cleans the repositories of one distribution version
type Cleaner struct {
	distro    config.Distro
	backupDir string
	extractor repodata.Extractor
	regen     repodata.Regenerator
	mover     executor.FileMover
	exclude   *regexp.Regexp
}

// New prepares a cleaner for one distribution
func New(distro config.Distro, backupDir string, ext repodata.Extractor, regen repodata.Regenerator, mover executor.FileMover) (*Cleaner, error) {
	var exclude *regexp.Regexp
	if distro.Exclude != "" {
		re, err := regexp.Compile(distro.Exclude)
		if err != nil {
			return nil, &models.CleanError{
				Type: models.ErrConfig,
				Err:  fmt.Errorf("invalid exclude pattern for %s: %w", distro.Name, err),
			}
		}
		exclude = re
	}
	return &Cleaner{
		distro:    distro,
		backupDir: backupDir,
		extractor: ext,
		regen:     regen,
		mover:     mover,
		exclude:   exclude,
	}, nil
}

// Run executes the cleanup. Any indexing failure aborts the whole
// distribution: an incomplete view would corrupt the cross-channel
// comparisons.
func (c *Cleaner) Run(ctx context.Context) error {
	ix, err := index.New()
	if err != nil {
		return err
	}
	defer ix.Close()

	if err := c.indexRepositories(ix); err != nil {
		return err
	}

	repos, err := ix.Repositories()
	if err != nil {
		return err
	}
	archs, err := ix.Architectures()
	if err != nil {
		return err
	}

	exec := executor.New(c.distro.Name, string(c.distro.Version), c.backupDir, c.mover, c.regen)
	opts := engine.Options{
		KeepStable: c.distro.KeepVersions.StableCount(),
		KeepBeta:   c.distro.KeepVersions.BetaCount(),
	}

	for _, arch := range archs {
		logrus.Infof("cleaning up %s.%s %s repositories", c.distro.Name, c.distro.Version, arch)
		packages, err := ix.PackagesByArch(arch)
		if err != nil {
			return err
		}
		removals := engine.Plan(repos, packages, opts)
		exec.Apply(removals, repos)
	}

	regenErr := exec.RegenerateAll(ctx, repos)
	c.report(exec.Stats(), repos)
	return regenErr
}

func (c *Cleaner) indexRepositories(ix *index.Index) error {
	for _, repo := range c.distro.Repositories {
		channel, err := models.ChannelFromString(repo.Channel)
		if err != nil {
			return &models.CleanError{Type: models.ErrConfig, Err: err}
		}
		// deterministic repository ids regardless of map order
		archs := make([]string, 0, len(repo.Path))
		for arch := range repo.Path {
			archs = append(archs, arch)
		}
		sort.Strings(archs)
		for _, arch := range archs {
			path := utils.NormalizePath(repo.Path[arch])
			if _, err := os.Stat(path); err != nil {
				return &models.CleanError{
					Type: models.ErrRepoUnavailable,
					Repo: path,
					Err:  fmt.Errorf("repository does not exist: %w", err),
				}
			}
			id, err := ix.AddRepository(models.RepositoryDesc{
				Name:     repo.Name,
				Arch:     arch,
				Path:     path,
				Channel:  channel,
				Readonly: repo.Readonly,
			})
			if err != nil {
				return err
			}
			records, err := c.extractor.Extract(path)
			if err != nil {
				return err
			}
			skipped, err := ix.AddPackages(id, records, c.exclude)
			if err != nil {
				return err
			}
			logrus.Debugf("indexed %d packages for %s.%s", len(records)-skipped, repo.Name, arch)
		}
	}
	return nil
}

func (c *Cleaner) report(stats map[int64]int, repos map[int64]*models.Repository) {
	logrus.Info("cleanup report:")
	ids := make([]int64, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		repo := repos[id]
		logrus.Infof("%s-%s %s.%s: %d packages deleted",
			c.distro.Name, c.distro.Version, repo.Name, repo.Arch, stats[id])
	}
}

// Filters narrow which configured distributions are processed
type Filters struct {
	Name    string
	Version string
}

func (f Filters) match(d config.Distro) bool {
	if f.Name != "" && d.Name != f.Name {
		return false
	}
	if f.Version != "" && string(d.Version) != f.Version {
		return false
	}
	return true
}

// RunAll cleans every configured distribution matching the filters.
// A failed distribution does not stop the others but makes the run
// fail as a whole.
func RunAll(ctx context.Context, distros []config.Distro, filters Filters, backupDir string, ext repodata.Extractor) error {
	var errs []error
	for _, distro := range distros {
		if !filters.match(distro) {
			continue
		}
		c, err := New(distro, backupDir, ext, repodata.Createrepo{}, executor.OSMover{})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := c.Run(ctx); err != nil {
			logrus.Errorf("cleanup of %s-%s failed: %v", distro.Name, distro.Version, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
