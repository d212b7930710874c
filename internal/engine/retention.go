// Package engine computes which package builds to remove. It is a
// pure function of the indexed repositories and packages: the same
// input always yields the same decisions.
//
// For one architecture, packages are grouped by the source RPM they
// were built from and sub-grouped by exact epoch/version/release.
// Version groups older than the newest stable build expire; beyond
// that, each channel keeps a configured number of recent versions.
package engine

import (
	"sort"

	"github.com/ralt/distroclean/internal/models"
	"github.com/ralt/distroclean/internal/rpmver"
	"github.com/sirupsen/logrus"
)

// Options control how many versions are retained per channel
type Options struct {
	KeepStable int
	KeepBeta   int
}

// versionGroup is every package of one source group sharing an
// identical EVR. Packages may come from different repositories when
// a build is mirrored across channels.
type versionGroup struct {
	evr      rpmver.EVR
	packages []*models.Package
	// rep anchors version comparisons: the package built directly
	// from the source RPM when present, otherwise the first package
	// by insertion order.
	rep *models.Package
}

// Plan computes removal decisions for the packages of one
// architecture. The packages slice must be ordered by source RPM
// name (the index guarantees this); repos must contain every
// repository referenced by a package.
func Plan(repos map[int64]*models.Repository, packages []*models.Package, opts Options) []models.Removal {
	var srpmOrder []string
	groups := make(map[string][]*models.Package)
	for _, pkg := range packages {
		if _, ok := groups[pkg.SrpmName]; !ok {
			srpmOrder = append(srpmOrder, pkg.SrpmName)
		}
		groups[pkg.SrpmName] = append(groups[pkg.SrpmName], pkg)
	}

	var removals []models.Removal
	for _, srpmName := range srpmOrder {
		removals = append(removals, planSourceGroup(srpmName, groups[srpmName], repos, opts)...)
	}
	return removals
}

func planSourceGroup(srpmName string, packages []*models.Package, repos map[int64]*models.Repository, opts Options) []models.Removal {
	versions := groupVersions(srpmName, packages, repos)
	// a single version has nothing previous to prune
	if len(versions) < 2 {
		return nil
	}

	// newest first; distinct EVRs make ties impossible
	sort.SliceStable(versions, func(i, j int) bool {
		return rpmver.CompareEVR(versions[i].evr, versions[j].evr) > 0
	})

	// the newest EVR among groups containing at least one stable
	// package; without a stable build nothing can be judged obsolete
	var latestStable *rpmver.EVR
	for _, vg := range versions {
		if !containsStable(vg, repos) {
			continue
		}
		if latestStable == nil || rpmver.CompareEVR(vg.evr, *latestStable) > 0 {
			evr := vg.evr
			latestStable = &evr
		}
	}
	if latestStable == nil {
		return nil
	}

	var removals []models.Removal

	// expire non-stable versions older than the newest stable build
	remaining := versions[:0]
	for _, vg := range versions {
		if !repIsStable(vg, repos) && rpmver.CompareEVR(vg.evr, *latestStable) < 0 {
			removals = append(removals, removeGroup(vg, models.ReasonExpiredByStable, repos)...)
			continue
		}
		remaining = append(remaining, vg)
	}

	// per-channel retention on whatever survived, still newest first
	var stable, beta []*versionGroup
	for _, vg := range remaining {
		if repIsStable(vg, repos) {
			stable = append(stable, vg)
		} else {
			beta = append(beta, vg)
		}
	}
	for _, vg := range trim(stable, opts.KeepStable) {
		removals = append(removals, removeGroup(vg, models.ReasonOutdated, repos)...)
	}
	for _, vg := range trim(beta, opts.KeepBeta) {
		removals = append(removals, removeGroup(vg, models.ReasonOutdated, repos)...)
	}
	return removals
}

// groupVersions sub-groups packages by exact EVR, preserving
// insertion order, and picks each group's representative.
func groupVersions(srpmName string, packages []*models.Package, repos map[int64]*models.Repository) []*versionGroup {
	var versions []*versionGroup
	byEVR := make(map[rpmver.EVR]*versionGroup)
	for _, pkg := range packages {
		evr := pkg.EVR()
		vg := byEVR[evr]
		if vg == nil {
			vg = &versionGroup{evr: evr}
			byEVR[evr] = vg
			versions = append(versions, vg)
		}
		vg.packages = append(vg.packages, pkg)
	}
	for _, vg := range versions {
		vg.rep = vg.packages[0]
		matched := false
		for _, pkg := range vg.packages {
			if pkg.Name == srpmName {
				vg.rep = pkg
				matched = true
				break
			}
		}
		if !matched && straddlesChannels(vg, repos) {
			// the representative decides which channel owns this
			// version; flag the fallback so real occurrences of
			// mirrored builds without a main package are visible
			logrus.Debugf("version group %s of %s spans channels without a main package, using %s",
				vg.evr, srpmName, vg.rep.Name)
		}
	}
	return versions
}

func trim(versions []*versionGroup, keep int) []*versionGroup {
	if keep < 0 {
		keep = 0
	}
	if keep >= len(versions) {
		return nil
	}
	return versions[keep:]
}

func removeGroup(vg *versionGroup, reason models.RemovalReason, repos map[int64]*models.Repository) []models.Removal {
	var removals []models.Removal
	for _, pkg := range vg.packages {
		repo := repos[pkg.RepoID]
		if repo == nil || repo.Readonly || pkg.Excluded {
			continue
		}
		removals = append(removals, models.Removal{Package: pkg, Reason: reason})
	}
	return removals
}

func repIsStable(vg *versionGroup, repos map[int64]*models.Repository) bool {
	repo := repos[vg.rep.RepoID]
	return repo != nil && repo.Channel == models.ChannelStable
}

func containsStable(vg *versionGroup, repos map[int64]*models.Repository) bool {
	for _, pkg := range vg.packages {
		if repo := repos[pkg.RepoID]; repo != nil && repo.Channel == models.ChannelStable {
			return true
		}
	}
	return false
}

func straddlesChannels(vg *versionGroup, repos map[int64]*models.Repository) bool {
	var seenStable, seenOther bool
	for _, pkg := range vg.packages {
		if repo := repos[pkg.RepoID]; repo != nil && repo.Channel == models.ChannelStable {
			seenStable = true
		} else {
			seenOther = true
		}
	}
	return seenStable && seenOther
}
