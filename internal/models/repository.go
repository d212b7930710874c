package models

import "fmt"

// Channel is the trust tier of a repository
type Channel int

const (
	ChannelStable Channel = iota
	ChannelBeta
)

// String returns the string representation of Channel
func (c Channel) String() string {
	switch c {
	case ChannelStable:
		return "stable"
	case ChannelBeta:
		return "beta"
	default:
		return "unknown"
	}
}

// ChannelFromString parses a channel name from configuration
func ChannelFromString(s string) (Channel, error) {
	switch s {
	case "stable":
		return ChannelStable, nil
	case "beta":
		return ChannelBeta, nil
	}
	return 0, fmt.Errorf("unsupported channel %q", s)
}

// RepositoryDesc describes a single repository directory before indexing
type RepositoryDesc struct {
	Name     string
	Arch     string
	Path     string
	Channel  Channel
	Readonly bool
}

// Repository is an indexed repository. Repositories are created once
// per cleanup run and never mutated afterwards.
type Repository struct {
	ID       int64
	Name     string
	Arch     string
	Path     string
	Channel  Channel
	Readonly bool
}
