/*
Copyright 2026 The ip2asn Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ipasn

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// refreshFlightKey is the sole key used with fetchGroup: every caller
// asking for a refresh, whether the scheduler's tick or a forced update,
// coalesces onto the one in-flight fetch+parse+swap cycle. This is the
// Go-native replacement for a bare mutex around the fetcher: it gets the
// same "only one refresh runs at a time" guarantee plus shared results for
// anyone who asked for a refresh while one was already underway.
const refreshFlightKey = "refresh"

// AsnInfo is the result of a Lookup. Announced reflects whether a
// covering record was found; when it is false every other field beyond
// IP is left at its zero value.
type AsnInfo struct {
	IP          string
	Announced   bool
	FirstIP     string
	LastIP      string
	ASNumber    uint32
	CountryCode string
	Description string
}

// DbStats reports the size and freshness of the currently installed
// Store.
type DbStats struct {
	RecordCount int
	LastUpdate  *time.Time
}

// Engine is the database façade: a hot-swappable Store behind
// a RWMutex, a Fetcher whose refreshes are coalesced and serialized by a
// singleflight.Group, and a RWMutex-guarded last-update timestamp. Engine
// is safe for concurrent use from any number of goroutines.
type Engine struct {
	storeMu sync.RWMutex
	store   *Store

	fetcher    *Fetcher
	fetchGroup singleflight.Group

	lastUpdateMu sync.RWMutex
	lastUpdate   *time.Time

	scheduler *scheduler
}

// New constructs an Engine with an empty Store and no last-update time.
// It performs no I/O; call Load to populate it.
func New(url, cacheDir string) (*Engine, error) {
	fetcher, err := NewFetcher(url, cacheDir)
	if err != nil {
		return nil, err
	}

	return newEngine(fetcher), nil
}

// NewWithOptions constructs an Engine from a host-bound Options value
// (see options.go), wiring HTTPTimeout through to the Fetcher's client.
func NewWithOptions(opts *Options) (*Engine, error) {
	fetcher, err := NewFetcherWithTimeout(opts.URL, opts.CacheDir, opts.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	return newEngine(fetcher), nil
}

func newEngine(fetcher *Fetcher) *Engine {
	e := &Engine{
		store:   emptyStore,
		fetcher: fetcher,
	}
	e.scheduler = newScheduler(e)

	return e
}

// Load runs one fetch, parse, swap cycle. It reports whether a new Store
// was actually installed, so ForceUpdate can truthfully say when nothing
// changed.
func (e *Engine) Load(ctx context.Context) (bool, error) {
	ctx, span := startSpan(ctx, "ipasn.Engine.Load")
	defer span.End()

	result, err, _ := e.fetchGroup.Do(refreshFlightKey, func() (any, error) {
		return e.doLoad(ctx)
	})
	if err != nil {
		return false, err
	}

	return result.(bool), nil
}

// doLoad performs the actual fetch/parse/swap; it must only ever be
// invoked from inside fetchGroup.Do so concurrent callers share one
// attempt.
func (e *Engine) doLoad(ctx context.Context) (bool, error) {
	logger := log.FromContext(ctx).WithName("ipasn.engine")

	data, unchanged, fetchErr := e.fetcher.Fetch(ctx)

	switch {
	case fetchErr == nil && unchanged:
		// The origin confirmed nothing changed. With a Store already
		// installed there is nothing to do: re-parsing the cache would
		// only swap in an identical replacement and bump last_update
		// without any new data behind it. An empty Store means this
		// process hasn't loaded yet, so the cached body is still news.
		if !e.currentStore().IsEmpty() {
			logger.Info("snapshot unchanged, keeping current database")

			return false, nil
		}

		logger.Info("snapshot unchanged, loading from cache")

		cached, err := e.fetcher.LoadFromCache()
		if err != nil {
			return false, err
		}

		data = cached
	case fetchErr != nil:
		logger.Info("fetch failed, falling back to cache", "error", fetchErr)

		cached, err := e.fetcher.LoadFromCache()
		if err != nil {
			return false, errors.Join(fetchErr, err)
		}

		data = cached
	}

	if err := e.install(ctx, data); err != nil {
		return false, err
	}

	return true, nil
}

// refresh is the scheduler's tick cycle. Unlike Load it never falls back
// to the on-disk cache: a tick that cannot produce fresher bytes leaves
// the previous Store in place and reports the error for the loop to log.
// It shares Load's singleflight key so a tick racing a forced update
// coalesces onto the same cycle.
func (e *Engine) refresh(ctx context.Context) (bool, error) {
	ctx, span := startSpan(ctx, "ipasn.Engine.Refresh")
	defer span.End()

	result, err, _ := e.fetchGroup.Do(refreshFlightKey, func() (any, error) {
		return e.doRefresh(ctx)
	})
	if err != nil {
		return false, err
	}

	return result.(bool), nil
}

func (e *Engine) doRefresh(ctx context.Context) (bool, error) {
	data, unchanged, err := e.fetcher.Fetch(ctx)
	if err != nil {
		return false, err
	}

	if unchanged {
		return false, nil
	}

	if err := e.install(ctx, data); err != nil {
		return false, err
	}

	return true, nil
}

// install parses data and swaps the resulting Store in, holding the write
// lock only across the pointer swap (the parse runs outside it), then
// stamps last_update.
func (e *Engine) install(ctx context.Context, data []byte) error {
	logger := log.FromContext(ctx).WithName("ipasn.engine")

	db, stats, err := Parse(ctx, data)
	if err != nil {
		return err
	}

	newStore := newStore(db)

	e.storeMu.Lock()
	e.store = newStore
	e.storeMu.Unlock()

	now := time.Now()

	e.lastUpdateMu.Lock()
	e.lastUpdate = &now
	e.lastUpdateMu.Unlock()

	logger.Info("database loaded", "records", stats.Records)

	return nil
}

// currentStore grabs the installed Store pointer under a short RLock.
// The Store itself is immutable, so once the pointer is out the caller
// can read it for as long as it likes while a swap proceeds underneath.
func (e *Engine) currentStore() *Store {
	e.storeMu.RLock()
	defer e.storeMu.RUnlock()

	return e.store
}

// Lookup parses ip and answers whether some record covers it. Lookup
// never blocks on I/O: it takes a short RLock to grab the Store pointer
// and searches an immutable table.
func (e *Engine) Lookup(ip string) (AsnInfo, error) {
	addr, err := ParseAddr(ip)
	if err != nil {
		return AsnInfo{}, InvalidIPError(ip)
	}

	record, found := e.currentStore().Lookup(addr)
	if !found {
		return AsnInfo{IP: ip}, nil
	}

	return AsnInfo{
		IP:          ip,
		Announced:   true,
		FirstIP:     record.FirstIP.String(),
		LastIP:      record.LastIP.String(),
		ASNumber:    record.Number,
		CountryCode: *record.Country,
		Description: *record.Description,
	}, nil
}

// Stats reports the current record count and last successful refresh
// time.
func (e *Engine) Stats() DbStats {
	count := e.currentStore().Len()

	e.lastUpdateMu.RLock()
	defer e.lastUpdateMu.RUnlock()

	return DbStats{RecordCount: count, LastUpdate: e.lastUpdate}
}

// StartAutoUpdate starts the background refresh scheduler at the given
// interval. It returns an error if the scheduler is already running or if
// interval is not strictly positive.
func (e *Engine) StartAutoUpdate(interval time.Duration) error {
	return e.scheduler.start(interval)
}

// StopAutoUpdate cancels the background refresh scheduler. It returns an
// error if the scheduler is not running.
func (e *Engine) StopAutoUpdate() error {
	return e.scheduler.stop()
}

// ForceUpdate performs a single synchronous Load cycle, independent of
// whether the scheduler is running, and truthfully reports whether a new
// Store was installed.
func (e *Engine) ForceUpdate(ctx context.Context) (bool, error) {
	return e.Load(ctx)
}
