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
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ip2asn/engine/pkg/ipasnlog"
)

const (
	cacheFileName    = "ip2asn-combined.tsv.gz"
	metadataFileName = "metadata.json"

	// Version is the engine's identity in its own User-Agent header,
	// sent as "iptoasn-server/<Version>".
	Version = "0.1.0"

	fetchTimeout = 60 * time.Second
)

// Fetcher acquires raw snapshot bytes from a file:// or http(s):// source,
// revalidating against the remote origin's ETag/Last-Modified when
// possible, and keeps a local cache of the last successful download.
//
// A Fetcher is not safe for concurrent use by itself: Engine serializes
// calls to it with a singleflight.Group so only one fetch is ever
// in-flight.
type Fetcher struct {
	url          string
	cachePath    string
	metadataPath string
	client       *http.Client

	etag         *string
	lastModified *string
}

// NewFetcher constructs a Fetcher rooted at cacheDir, creating the
// directory if necessary and loading any previously persisted
// revalidation metadata. The default 60s overall timeout applies.
func NewFetcher(url, cacheDir string) (*Fetcher, error) {
	return NewFetcherWithTimeout(url, cacheDir, fetchTimeout)
}

// NewFetcherWithTimeout is NewFetcher with an overridable overall request
// timeout, so an embedding host's Options.HTTPTimeout can reach the
// underlying http.Client.
func NewFetcherWithTimeout(url, cacheDir string, timeout time.Duration) (*Fetcher, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, IOError("create", cacheDir, err)
	}

	meta := loadCacheMetadata(filepath.Join(cacheDir, metadataFileName))

	return &Fetcher{
		url:          url,
		cachePath:    filepath.Join(cacheDir, cacheFileName),
		metadataPath: filepath.Join(cacheDir, metadataFileName),
		client: &http.Client{
			Timeout: timeout,
			// The response body being fetched *is* a gzip file; disabling
			// transport compression stops net/http from adding its own
			// Accept-Encoding and transparently inflating that body out
			// from under us.
			Transport: &http.Transport{
				DisableCompression: true,
			},
		},
		etag:         meta.ETag,
		lastModified: meta.LastModified,
	}, nil
}

// Fetch dispatches by URL scheme and returns the snapshot bytes, or
// unchanged=true if the origin confirmed nothing has changed since the
// last successful fetch.
func (f *Fetcher) Fetch(ctx context.Context) (data []byte, unchanged bool, err error) {
	ctx, span := startSpan(ctx, "ipasn.Fetcher.Fetch")
	defer span.End()

	switch {
	case strings.HasPrefix(f.url, "file://"):
		return f.fetchFile()
	case strings.HasPrefix(f.url, "http://"), strings.HasPrefix(f.url, "https://"):
		return f.fetchRemote(ctx)
	default:
		return nil, false, NetworkError("fetch", f.url, ErrHTTPRequest)
	}
}

// fetchFile reads the local file referenced by a file:// URL.
func (f *Fetcher) fetchFile() ([]byte, bool, error) {
	path := strings.TrimPrefix(f.url, "file://")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, IOError("read", path, err)
	}

	return data, false, nil
}

// fetchRemote issues a conditional GET against the configured URL.
func (f *Fetcher) fetchRemote(ctx context.Context) ([]byte, bool, error) {
	logger := log.FromContext(ctx).WithName("ipasn.fetcher")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, false, NetworkError("build request for", f.url, err)
	}

	req.Header.Set("User-Agent", "iptoasn-server/"+Version)

	if f.etag != nil {
		req.Header.Set("If-None-Match", *f.etag)
	}

	if f.lastModified != nil {
		req.Header.Set("If-Modified-Since", *f.lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, NetworkError("fetch", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		fields := ipasnlog.FetchFields(f.url).StatusCode(resp.StatusCode)
		logger.Info("database unchanged", fields.KeysAndValues()...)

		return nil, true, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, NetworkError("fetch", f.url, FailedTo("unexpected status "+resp.Status, nil))
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		f.etag = &etag
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		f.lastModified = &lastModified
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, HTTPParseError("response body", err)
	}

	if err := os.WriteFile(f.cachePath, body, 0o644); err != nil {
		return nil, false, IOError("write", f.cachePath, err)
	}

	if err := saveCacheMetadata(f.metadataPath, cacheMetadata{ETag: f.etag, LastModified: f.lastModified}); err != nil {
		return nil, false, err
	}

	fields := ipasnlog.FetchFields(f.url).Size(int64(len(body)))
	logger.Info("database downloaded", fields.KeysAndValues()...)

	return body, false, nil
}

// LoadFromCache returns the last successfully cached body, or
// ErrDatabaseNotLoaded if no cache file exists yet. This is the fallback
// Engine.Load uses when a fetch is unchanged or fails.
func (f *Fetcher) LoadFromCache() ([]byte, error) {
	data, err := os.ReadFile(f.cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDatabaseNotLoaded
		}

		return nil, IOError("read", f.cachePath, err)
	}

	return data, nil
}
