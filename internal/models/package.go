package models

import "github.com/ralt/distroclean/internal/rpmver"

// PackageRecord is one package entry extracted from repository
// metadata, before it is indexed.
type PackageRecord struct {
	Name      string
	Epoch     int
	Version   string
	Release   string
	Arch      string
	SourceRPM string
	Location  string
}

// Package is an indexed package build
type Package struct {
	ID       int64
	RepoID   int64
	Name     string
	Epoch    int
	Version  string
	Release  string
	Arch     string
	// SourceRPM is the filename of the source RPM this package was
	// built from; SrpmName is its parsed package name. Packages
	// sharing a SrpmName were built from the same source artifact.
	SourceRPM string
	SrpmName  string
	// Location is the package file path relative to the repository root
	Location string
	// Excluded packages stay indexed for reporting but are never removed
	Excluded bool
}

// EVR returns the epoch/version/release identity of the package
func (p *Package) EVR() rpmver.EVR {
	return rpmver.EVR{Epoch: p.Epoch, Version: p.Version, Release: p.Release}
}

// RemovalReason explains why a package is being removed
type RemovalReason int

const (
	ReasonExpiredByStable RemovalReason = iota
	ReasonOutdated
)

// String returns the human-readable reason text
func (r RemovalReason) String() string {
	switch r {
	case ReasonExpiredByStable:
		return "obsoleted by stable"
	case ReasonOutdated:
		return "outdated"
	default:
		return "unknown"
	}
}

// Removal is a decision to remove one package
type Removal struct {
	Package *Package
	Reason  RemovalReason
}
