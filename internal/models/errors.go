package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrConfig ErrorType = iota
	ErrRepoUnavailable
	ErrInvalidMetadata
	ErrRegeneration
	ErrFileOp
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrConfig:
		return "Config"
	case ErrRepoUnavailable:
		return "RepoUnavailable"
	case ErrInvalidMetadata:
		return "InvalidMetadata"
	case ErrRegeneration:
		return "Regeneration"
	case ErrFileOp:
		return "FileOp"
	default:
		return "Unknown"
	}
}

// CleanError represents an error during repository cleaning
type CleanError struct {
	Type ErrorType
	Repo string
	Err  error
}

// Error implements the error interface
func (e *CleanError) Error() string {
	if e.Repo != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Repo, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *CleanError) Unwrap() error {
	return e.Err
}
