package engine

import (
	"testing"

	"github.com/ralt/distroclean/internal/models"
)

// testIndex builds repositories and packages the way the package
// index hands them to the engine: ordered by source RPM name, then
// insertion order.
type testIndex struct {
	repos  map[int64]*models.Repository
	pkgs   []*models.Package
	nextID int64
}

func newTestIndex() *testIndex {
	return &testIndex{repos: make(map[int64]*models.Repository)}
}

func (ti *testIndex) addRepo(name string, channel models.Channel, readonly bool) int64 {
	id := int64(len(ti.repos) + 1)
	ti.repos[id] = &models.Repository{
		ID:       id,
		Name:     name,
		Arch:     "x86_64",
		Path:     "/repos/" + name,
		Channel:  channel,
		Readonly: readonly,
	}
	return id
}

func (ti *testIndex) addPkg(repoID int64, name, srpmName string, epoch int, version, release string) *models.Package {
	ti.nextID++
	pkg := &models.Package{
		ID:        ti.nextID,
		RepoID:    repoID,
		Name:      name,
		Epoch:     epoch,
		Version:   version,
		Release:   release,
		Arch:      "x86_64",
		SourceRPM: srpmName + "-" + version + "-" + release + ".src.rpm",
		SrpmName:  srpmName,
		Location:  name + "-" + version + "-" + release + ".x86_64.rpm",
	}
	ti.pkgs = append(ti.pkgs, pkg)
	return pkg
}

func removalsByLocation(removals []models.Removal) map[string]models.RemovalReason {
	out := make(map[string]models.RemovalReason)
	for _, rm := range removals {
		out[rm.Package.Location] = rm.Reason
	}
	return out
}

func TestStableRetentionTrimsOldest(t *testing.T) {
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	ti.addPkg(stable, "foo", "foo", 0, "3.0", "1")
	ti.addPkg(stable, "foo", "foo", 0, "2.0", "1")
	ti.addPkg(stable, "foo", "foo", 0, "1.0", "1")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 2, KeepBeta: 3})

	if len(removals) != 1 {
		t.Fatalf("expected 1 removal, got %d", len(removals))
	}
	rm := removals[0]
	if rm.Package.Version != "1.0" {
		t.Errorf("expected version 1.0 removed, got %s", rm.Package.Version)
	}
	if rm.Reason != models.ReasonOutdated {
		t.Errorf("expected reason Outdated, got %s", rm.Reason)
	}
}

func TestBetaExpiredByStable(t *testing.T) {
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	beta := ti.addRepo("os-beta", models.ChannelBeta, false)
	ti.addPkg(stable, "foo", "foo", 0, "5.0", "1")
	old := ti.addPkg(beta, "foo", "foo", 0, "4.0", "1")

	// keepBeta is irrelevant: the beta build is older than stable
	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 3, KeepBeta: 3})

	if len(removals) != 1 {
		t.Fatalf("expected 1 removal, got %d", len(removals))
	}
	if removals[0].Package != old {
		t.Errorf("expected %s removed, got %s", old.Location, removals[0].Package.Location)
	}
	if removals[0].Reason != models.ReasonExpiredByStable {
		t.Errorf("expected reason ExpiredByStable, got %s", removals[0].Reason)
	}
}

func TestBetaNewerThanStableSurvives(t *testing.T) {
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	beta := ti.addRepo("os-beta", models.ChannelBeta, false)
	ti.addPkg(stable, "foo", "foo", 0, "5.0", "1")
	ti.addPkg(beta, "foo", "foo", 0, "6.0", "1")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 3, KeepBeta: 3})

	if len(removals) != 0 {
		t.Fatalf("expected no removals, got %d", len(removals))
	}
}

func TestEndToEndBetaRetention(t *testing.T) {
	// one stable repo at EVR 10, one beta repo at 13, 12 and 11 and
	// keepBeta=1: the beta builds are all newer than stable so none
	// expires, but only 13 survives the retention cut
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	beta := ti.addRepo("os-beta", models.ChannelBeta, false)
	ti.addPkg(stable, "foo", "foo", 0, "10", "1")
	ti.addPkg(beta, "foo", "foo", 0, "13", "1")
	ti.addPkg(beta, "foo", "foo", 0, "12", "1")
	ti.addPkg(beta, "foo", "foo", 0, "11", "1")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 3, KeepBeta: 1})

	byLoc := removalsByLocation(removals)
	if len(byLoc) != 2 {
		t.Fatalf("expected 2 removals, got %v", byLoc)
	}
	for _, version := range []string{"12", "11"} {
		loc := "foo-" + version + "-1.x86_64.rpm"
		reason, ok := byLoc[loc]
		if !ok {
			t.Errorf("expected %s to be removed", loc)
			continue
		}
		if reason != models.ReasonOutdated {
			t.Errorf("expected %s removed as Outdated, got %s", loc, reason)
		}
	}
}

func TestSingleVersionNeverPruned(t *testing.T) {
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	ti.addPkg(stable, "foo", "foo", 0, "1.0", "1")
	ti.addPkg(stable, "foo-libs", "foo", 0, "1.0", "1")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 0, KeepBeta: 0})

	if len(removals) != 0 {
		t.Fatalf("one version group must never be pruned, got %d removals", len(removals))
	}
}

func TestBetaOnlyGroupUntouched(t *testing.T) {
	// without a stable build there is no obsolescence baseline
	ti := newTestIndex()
	beta := ti.addRepo("os-beta", models.ChannelBeta, false)
	ti.addPkg(beta, "foo", "foo", 0, "3.0", "1")
	ti.addPkg(beta, "foo", "foo", 0, "2.0", "1")
	ti.addPkg(beta, "foo", "foo", 0, "1.0", "1")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 1, KeepBeta: 1})

	if len(removals) != 0 {
		t.Fatalf("expected no removals without a stable version, got %d", len(removals))
	}
}

func TestReadonlyNeverRemoved(t *testing.T) {
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	frozen := ti.addRepo("os-archive", models.ChannelBeta, true)
	ti.addPkg(stable, "foo", "foo", 0, "3.0", "1")
	ti.addPkg(frozen, "foo", "foo", 0, "1.0", "1")
	ti.addPkg(frozen, "foo", "foo", 0, "0.5", "1")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 1, KeepBeta: 1})

	for _, rm := range removals {
		if ti.repos[rm.Package.RepoID].Readonly {
			t.Errorf("removal targets readonly repository: %s", rm.Package.Location)
		}
	}
}

func TestExcludedNeverRemoved(t *testing.T) {
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	ti.addPkg(stable, "foo", "foo", 0, "3.0", "1")
	old := ti.addPkg(stable, "foo", "foo", 0, "1.0", "1")
	old.Excluded = true
	sibling := ti.addPkg(stable, "foo-libs", "foo", 0, "1.0", "1")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 1, KeepBeta: 1})

	for _, rm := range removals {
		if rm.Package.Excluded {
			t.Errorf("removal targets excluded package: %s", rm.Package.Location)
		}
	}
	// the non-excluded sibling of the same version group still goes
	found := false
	for _, rm := range removals {
		if rm.Package == sibling {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s to be removed", sibling.Location)
	}
}

func TestEpochDominatesOrdering(t *testing.T) {
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	kept := ti.addPkg(stable, "foo", "foo", 1, "1.0", "1")
	dropped := ti.addPkg(stable, "foo", "foo", 0, "9.9", "9")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 1, KeepBeta: 1})

	if len(removals) != 1 {
		t.Fatalf("expected 1 removal, got %d", len(removals))
	}
	if removals[0].Package != dropped {
		t.Errorf("expected %s removed, kept %s", dropped.Location, kept.Location)
	}
}

func TestRepresentativeAnchorsVersionGroup(t *testing.T) {
	// sub-packages come first by insertion but the package named
	// after the source RPM decides which channel owns the group
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	beta := ti.addRepo("os-beta", models.ChannelBeta, false)
	ti.addPkg(beta, "foo-libs", "foo", 0, "2.0", "1")
	ti.addPkg(stable, "foo", "foo", 0, "2.0", "1")
	expired := ti.addPkg(beta, "foo", "foo", 0, "1.0", "1")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 3, KeepBeta: 3})

	// 2.0's representative is the stable "foo": the group is stable,
	// so the 1.0 beta build is obsolete
	if len(removals) != 1 {
		t.Fatalf("expected 1 removal, got %d", len(removals))
	}
	if removals[0].Package != expired || removals[0].Reason != models.ReasonExpiredByStable {
		t.Errorf("expected %s expired by stable, got %s (%s)",
			expired.Location, removals[0].Package.Location, removals[0].Reason)
	}
}

func TestStraddlingGroupNotExpiredByItself(t *testing.T) {
	// a build mirrored into stable and beta is the latest stable
	// itself; it must not expire its own beta copy
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	beta := ti.addRepo("os-beta", models.ChannelBeta, false)
	ti.addPkg(stable, "foo", "foo", 0, "2.0", "1")
	ti.addPkg(beta, "foo", "foo", 0, "2.0", "1")
	ti.addPkg(stable, "foo", "foo", 0, "1.0", "1")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 1, KeepBeta: 3})

	byLoc := removalsByLocation(removals)
	if _, ok := byLoc["foo-2.0-1.x86_64.rpm"]; ok {
		t.Errorf("the latest stable version group must not be removed: %v", byLoc)
	}
	if reason, ok := byLoc["foo-1.0-1.x86_64.rpm"]; !ok || reason != models.ReasonOutdated {
		t.Errorf("expected foo-1.0 removed as Outdated, got %v", byLoc)
	}
}

func TestIndependentSourceGroups(t *testing.T) {
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	ti.addPkg(stable, "foo", "foo", 0, "2.0", "1")
	ti.addPkg(stable, "foo", "foo", 0, "1.0", "1")
	ti.addPkg(stable, "bar", "bar", 0, "1.0", "1")

	removals := Plan(ti.repos, ti.pkgs, Options{KeepStable: 1, KeepBeta: 1})

	if len(removals) != 1 {
		t.Fatalf("expected 1 removal, got %d", len(removals))
	}
	if removals[0].Package.SrpmName != "foo" {
		t.Errorf("bar has a single version and must not be touched, got %s", removals[0].Package.Location)
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	ti := newTestIndex()
	stable := ti.addRepo("os", models.ChannelStable, false)
	beta := ti.addRepo("os-beta", models.ChannelBeta, false)
	for _, version := range []string{"5", "4", "3", "2", "1"} {
		ti.addPkg(stable, "foo", "foo", 0, version, "1")
		ti.addPkg(beta, "foo", "foo", 0, version, "2")
	}

	first := Plan(ti.repos, ti.pkgs, Options{KeepStable: 2, KeepBeta: 2})
	for run := 0; run < 5; run++ {
		again := Plan(ti.repos, ti.pkgs, Options{KeepStable: 2, KeepBeta: 2})
		if len(again) != len(first) {
			t.Fatalf("run %d produced %d removals, first produced %d", run, len(again), len(first))
		}
		for i := range first {
			if first[i].Package != again[i].Package || first[i].Reason != again[i].Reason {
				t.Fatalf("run %d diverged at removal %d", run, i)
			}
		}
	}
}
