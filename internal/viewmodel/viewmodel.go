// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/staranto/locspoof/internal/country"
	"github.com/staranto/locspoof/internal/debounce"
	"github.com/staranto/locspoof/internal/flagcache"
)

// ErrNotFound is returned by Lookup when no country in the current list
// matches.
var ErrNotFound = errors.New("country not found")

// Fetcher supplies the raw country triples.
type Fetcher interface {
	Fetch(ctx context.Context) ([]country.Entry, error)
}

// ImageCache materializes flag images and resolves codes to local
// references.
type ImageCache interface {
	EnsureFolder() (string, error)
	EnsureAll(ctx context.Context, entries []country.Entry) []flagcache.Result
	Resolve(code string) string
}

// EventKind tells subscribers which part of the state changed.
type EventKind int

const (
	ListChanged EventKind = iota
	LoadingChanged
	ErrorChanged
)

func (k EventKind) String() string {
	switch k {
	case ListChanged:
		return "list"
	case LoadingChanged:
		return "loading"
	case ErrorChanged:
		return "error"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a snapshot of the view-model state taken when something changed.
type Event struct {
	Kind      EventKind
	Countries []country.Country
	Loading   bool
	Err       string
	Query     string
}

// ViewModel holds the observable country list.
type ViewModel struct {
	fetcher   Fetcher
	images    ImageCache
	debouncer *debounce.Debouncer

	// refreshMu serializes Refresh calls.
	refreshMu sync.Mutex

	mu        sync.Mutex
	countries []country.Country
	loading   bool
	errMsg    string
	query     string

	subsMu sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// New returns a ViewModel whose searches are debounced by delay.
func New(f Fetcher, images ImageCache, delay time.Duration) *ViewModel {
	return &ViewModel{
		fetcher:   f,
		images:    images,
		debouncer: debounce.New(delay),
		subs:      make(map[int]func(Event)),
	}
}

// Subscribe registers fn for state changes. fn is called synchronously from
// whichever goroutine made the change, never while internal locks are held.
// The returned func removes the subscription.
func (vm *ViewModel) Subscribe(fn func(Event)) (unsubscribe func()) {
	vm.subsMu.Lock()
	defer vm.subsMu.Unlock()

	id := vm.nextID
	vm.nextID++
	vm.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			vm.subsMu.Lock()
			defer vm.subsMu.Unlock()
			delete(vm.subs, id)
		})
	}
}

// Refresh fetches the country list, makes sure every flag is cached, and
// replaces the list with the result sorted by name. Failures are recorded in
// the error message and returned; the previous list is kept on failure. The
// loading flag is always cleared on return.
func (vm *ViewModel) Refresh(ctx context.Context) (err error) {
	vm.refreshMu.Lock()
	defer vm.refreshMu.Unlock()

	vm.setLoading(true)
	vm.setError("")
	defer vm.setLoading(false)

	defer func() {
		if err != nil {
			log.WithError(err).Error("failed to load countries")
			vm.setError(err.Error())
		}
	}()

	if _, err := vm.images.EnsureFolder(); err != nil {
		return fmt.Errorf("failed to prepare flag folder: %w", err)
	}

	entries, err := vm.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch countries: %w", err)
	}

	failed := 0
	for _, r := range vm.images.EnsureAll(ctx, entries) {
		if r.Err != nil {
			failed++
			log.WithError(r.Err).WithField("code", r.Code).Warn("flag unavailable, using placeholder")
		}
	}
	if failed > 0 {
		log.Warnf("%d of %d flags could not be cached", failed, len(entries))
	}

	countries := make([]country.Country, 0, len(entries))
	for _, e := range entries {
		countries = append(countries, country.Country{
			Name:      e.Name,
			Code:      e.Code,
			FlagImage: vm.images.Resolve(e.Code),
		})
	}
	country.SortByName(countries)

	vm.mu.Lock()
	vm.countries = countries
	vm.query = ""
	vm.mu.Unlock()
	vm.notify(ListChanged)

	log.WithField("countries", len(countries)).Info("all countries processed")
	return nil
}

// Search filters the current list by text once typing has paused for the
// debounce delay. Only the last call in a burst takes effect.
func (vm *ViewModel) Search(text string) {
	vm.debouncer.Trigger(func() {
		vm.SearchNow(text)
	})
}

// SearchNow filters the current list by text immediately. Matching is a
// case-insensitive substring test on the name; blank text matches all. The
// list is rebuilt from the matching subset, so items filtered out earlier do
// not come back until the next Refresh.
func (vm *ViewModel) SearchNow(text string) []country.Country {
	vm.mu.Lock()
	filtered := make([]country.Country, 0, len(vm.countries))
	for _, c := range vm.countries {
		if country.MatchName(c, text) {
			filtered = append(filtered, c)
		}
	}
	vm.countries = filtered
	vm.query = text
	out := append([]country.Country(nil), filtered...)
	vm.mu.Unlock()

	vm.notify(ListChanged)
	return out
}

// CancelSearch drops a pending debounced search.
func (vm *ViewModel) CancelSearch() bool {
	return vm.debouncer.Stop()
}

// Countries returns a copy of the current list.
func (vm *ViewModel) Countries() []country.Country {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return append([]country.Country(nil), vm.countries...)
}

// Loading reports whether a refresh is in progress.
func (vm *ViewModel) Loading() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.loading
}

// Error returns the message of the last failed refresh, or "".
func (vm *ViewModel) Error() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.errMsg
}

// Query returns the text of the last applied search.
func (vm *ViewModel) Query() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.query
}

// Lookup finds a country in the current list by code or name.
func (vm *ViewModel) Lookup(key string) (country.Country, error) {
	c, ok := country.Find(vm.Countries(), key)
	if !ok {
		return country.Country{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return c, nil
}

// Close cancels any pending search and drops all subscribers.
func (vm *ViewModel) Close() {
	vm.debouncer.Stop()
	vm.subsMu.Lock()
	defer vm.subsMu.Unlock()
	vm.subs = make(map[int]func(Event))
}

func (vm *ViewModel) setLoading(v bool) {
	vm.mu.Lock()
	changed := vm.loading != v
	vm.loading = v
	vm.mu.Unlock()
	if changed {
		vm.notify(LoadingChanged)
	}
}

func (vm *ViewModel) setError(msg string) {
	vm.mu.Lock()
	changed := vm.errMsg != msg
	vm.errMsg = msg
	vm.mu.Unlock()
	if changed {
		vm.notify(ErrorChanged)
	}
}

func (vm *ViewModel) notify(kind EventKind) {
	vm.mu.Lock()
	ev := Event{
		Kind:      kind,
		Countries: append([]country.Country(nil), vm.countries...),
		Loading:   vm.loading,
		Err:       vm.errMsg,
		Query:     vm.query,
	}
	vm.mu.Unlock()

	vm.subsMu.Lock()
	ids := make([]int, 0, len(vm.subs))
	for id := range vm.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, vm.subs[id])
	}
	vm.subsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
