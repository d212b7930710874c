// Package rpmver implements RPM version ordering. Epochs compare as
// integers, version and release strings compare segment by segment:
// digit runs compare numerically, alphabetic runs compare bytewise,
// digits beat letters, "~" sorts before everything including the end
// of the string and "^" sorts after the end of the string but before
// any other character.
package rpmver

import (
	"fmt"
	"strings"
)

// EVR is an epoch/version/release triple
type EVR struct {
	Epoch   int
	Version string
	Release string
}

// String formats the EVR the way rpm tools display it, omitting a
// zero epoch.
func (e EVR) String() string {
	if e.Epoch != 0 {
		return fmt.Sprintf("%d:%s-%s", e.Epoch, e.Version, e.Release)
	}
	return fmt.Sprintf("%s-%s", e.Version, e.Release)
}

// CompareEVR compares two EVR triples. The epoch dominates: when
// epochs differ the version and release are not inspected.
func CompareEVR(a, b EVR) int {
	if a.Epoch != b.Epoch {
		if a.Epoch < b.Epoch {
			return -1
		}
		return 1
	}
	if rc := Compare(a.Version, b.Version); rc != 0 {
		return rc
	}
	return Compare(a.Release, b.Release)
}

// Compare compares two version or release strings, returning -1, 0
// or 1 when a is older than, equal to or newer than b.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for i < len(a) && !isAlnum(a[i]) && a[i] != '~' && a[i] != '^' {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) && b[j] != '~' && b[j] != '^' {
			j++
		}

		// tilde sorts before everything, even the end of the string
		tildeA := i < len(a) && a[i] == '~'
		tildeB := j < len(b) && b[j] == '~'
		if tildeA || tildeB {
			if !tildeA {
				return 1
			}
			if !tildeB {
				return -1
			}
			i++
			j++
			continue
		}

		// caret sorts after the end of the string but before any
		// other character
		caretA := i < len(a) && a[i] == '^'
		caretB := j < len(b) && b[j] == '^'
		if caretA || caretB {
			if i == len(a) {
				return -1
			}
			if j == len(b) {
				return 1
			}
			if !caretA {
				return 1
			}
			if !caretB {
				return -1
			}
			i++
			j++
			continue
		}

		if i == len(a) || j == len(b) {
			break
		}

		si, sj := i, j
		if isDigit(a[i]) {
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			// a numeric segment is always newer than an alphabetic one
			if j == sj {
				return 1
			}
			segA := strings.TrimLeft(a[si:i], "0")
			segB := strings.TrimLeft(b[sj:j], "0")
			if len(segA) != len(segB) {
				if len(segA) < len(segB) {
					return -1
				}
				return 1
			}
			if rc := strings.Compare(segA, segB); rc != 0 {
				return rc
			}
		} else {
			for i < len(a) && isAlpha(a[i]) {
				i++
			}
			for j < len(b) && isAlpha(b[j]) {
				j++
			}
			if j == sj {
				return -1
			}
			if rc := strings.Compare(a[si:i], b[sj:j]); rc != 0 {
				return rc
			}
		}
	}
	if i == len(a) && j == len(b) {
		return 0
	}
	// the string with leftover segments is newer
	if i < len(a) {
		return 1
	}
	return -1
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isDigit(c) || isAlpha(c)
}
