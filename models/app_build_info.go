// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "strings"

const buildInfoUnknown = "N/A"

// AppBuildInfo is the link-time metadata of a binary (-ldflags -X). Unset
// values read as "N/A".
type AppBuildInfo struct {
	version string
	date    string
	commit  string
}

// NewAppBuildInfo trims the injected values and substitutes "N/A" for empty ones.
func NewAppBuildInfo(version, date, commit string) AppBuildInfo {
	return AppBuildInfo{
		version: orUnknown(version),
		date:    orUnknown(date),
		commit:  orUnknown(commit),
	}
}

func (a AppBuildInfo) BuildVersion() string { return orUnknown(a.version) }
func (a AppBuildInfo) BuildDate() string    { return orUnknown(a.date) }
func (a AppBuildInfo) BuildCommit() string  { return orUnknown(a.commit) }

// Known reports whether a version was injected at build time.
func (a AppBuildInfo) Known() bool {
	return a.BuildVersion() != buildInfoUnknown
}

// String renders the banner printed by the binaries on start.
func (a AppBuildInfo) String() string {
	return "Build version: " + a.BuildVersion() + "\n" +
		"Build date: " + a.BuildDate() + "\n" +
		"Build commit: " + a.BuildCommit() + "\n"
}

func orUnknown(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return buildInfoUnknown
	}
	return v
}
