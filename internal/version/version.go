// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package version holds the build version, set at link time with
// -ldflags "-X github.com/staranto/locspoof/internal/version.Version=...".
package version

// Version is the locspoof release.
var Version = "dev"
