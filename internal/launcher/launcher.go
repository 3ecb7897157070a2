// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package launcher hands URLs to the platform's default handler.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/apex/log"
	"github.com/pkg/browser"

	"github.com/staranto/locspoof/internal/country"
)

// ErrBadURL is returned for URLs that are not absolute http(s) URLs.
var ErrBadURL = errors.New("not an http(s) url")

// OpenFunc hands a URL to the platform handler.
type OpenFunc func(url string) error

// Opener opens URLs with the platform URL handler.
type Opener struct {
	Open OpenFunc
}

// New returns an Opener backed by the platform handler. The handler's own
// output is discarded so it cannot draw over the terminal.
func New() *Opener {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return &Opener{Open: browser.OpenURL}
}

// OpenURL validates u and hands it to the handler.
func (o *Opener) OpenURL(ctx context.Context, u string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parsed, err := url.Parse(u)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %q", ErrBadURL, u)
	}

	open := o.Open
	if open == nil {
		open = browser.OpenURL
	}

	log.Debugf("opening %s", u)
	if err := open(u); err != nil {
		return fmt.Errorf("failed to open %s: %w", u, err)
	}
	return nil
}

// OpenMap opens the map search for c.
func (o *Opener) OpenMap(ctx context.Context, c country.Country) error {
	return o.OpenURL(ctx, c.MapURL())
}
