package rpmver

import "strings"

// SplitSourceRPM splits a source RPM filename such as
// "bash-4.2.46-34.el7.src.rpm" into its name, version and release
// parts. The trailing ".rpm" and arch components are stripped first,
// then the version and release are taken from the last two
// "-"-separated fields. An error means the filename is malformed and
// the package it came from cannot be grouped by source artifact.
func SplitSourceRPM(filename string) (name, version, release string, err error) {
	s := strings.TrimSuffix(filename, ".rpm")
	dot := strings.LastIndexByte(s, '.')
	if dot <= 0 {
		return "", "", "", &malformedError{filename}
	}
	s = s[:dot]
	relSep := strings.LastIndexByte(s, '-')
	if relSep <= 0 {
		return "", "", "", &malformedError{filename}
	}
	verSep := strings.LastIndexByte(s[:relSep], '-')
	if verSep <= 0 {
		return "", "", "", &malformedError{filename}
	}
	name = s[:verSep]
	version = s[verSep+1 : relSep]
	release = s[relSep+1:]
	if version == "" || release == "" {
		return "", "", "", &malformedError{filename}
	}
	return name, version, release, nil
}

type malformedError struct {
	filename string
}

func (e *malformedError) Error() string {
	return "malformed source RPM filename \"" + e.filename + "\""
}
