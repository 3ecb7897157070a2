// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/staranto/locspoof/internal/cacheutil"
	"github.com/staranto/locspoof/internal/command"
	"github.com/staranto/locspoof/internal/config"
	mylog "github.com/staranto/locspoof/internal/log"
	"github.com/staranto/locspoof/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	setupEnv()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	_, ok, err := cacheutil.EnsureBaseDir()
	if err != nil && ok {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}
	if ok && err == nil {
		autoPurge(time.Now())
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// setupEnv loads an optional .env from the working directory before logging
// and config, so LOCSPOOF_LOG and LOCSPOOF_CFG can come from it.
func setupEnv() {
	envErr := godotenv.Load()

	mylog.InitLogger()
	if envErr == nil {
		log.Debug("loaded .env")
	}
	reloadConfig()
}

// reloadConfig reads the config file again now that the environment is
// complete. A missing file keeps whatever was loaded before.
func reloadConfig() {
	if _, err := config.Load(); err != nil && !errors.Is(err, config.ErrNotFound) {
		log.WithError(err).Warn("config not loaded")
	}
}

// autoPurge removes stale cache files and flag images when cache.clean is set.
func autoPurge(at time.Time) {
	s, err := config.ResolveSettings()
	if err != nil || s.CleanHours <= 0 {
		return
	}
	if n, err := command.PurgeCache(s, s.CleanHours, at); err != nil {
		log.WithError(err).Warn("cache purge failed")
	} else if n > 0 {
		log.Debugf("purged %d cache files", n)
	}
}

// mangleArguments expands an @set argument into the arguments stored under
// <command>.<set> in the config file. Without an @set, <command>.defaults is
// used. The expansion is inserted where the @set appeared, or directly after
// the command, so explicit arguments that follow still win.
func mangleArguments(args []string) []string {
	if len(args) < 2 || strings.HasPrefix(args[1], "-") {
		return args
	}

	// Leave help requests alone.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return args
		}
	}

	// We know the first two args are going to be the executable and command.
	out := make([]string, 2, len(args)+4) //nolint:mnd
	copy(out, args[:2])

	rest := make([]string, 0, len(args)-2)
	idx := 0
	set := "defaults"
	found := false
	for _, a := range args[2:] {
		if !found && strings.HasPrefix(a, "@") && len(a) > 1 {
			set = a[1:]
			idx = len(rest)
			found = true
			continue
		}
		rest = append(rest, a)
	}

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	var parts []string
	for _, arg := range setArgs {
		parts = append(parts, strings.Fields(arg)...)
	}
	if found && len(setArgs) == 0 {
		log.Warnf("no argument set %q for %s", set, args[1])
	}

	out = append(out, rest[:idx]...)
	out = append(out, parts...)
	out = append(out, rest[idx:]...)

	log.Debugf("set=%s, args=%v", set, out)
	return out
}
