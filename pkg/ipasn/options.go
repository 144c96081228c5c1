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
	"time"

	"github.com/spf13/pflag"
)

// Options bundles the construction parameters an embedding host binds to
// its own CLI: a plain struct plus an AddFlags method rather than this
// package reaching into os.Args itself. CLI wiring and flag parsing stay
// the host's job.
type Options struct {
	// URL is the snapshot source: a file:// or http(s):// URL.
	URL string

	// CacheDir is where the last successful snapshot and its
	// revalidation metadata are persisted.
	CacheDir string

	// RefreshInterval is how often the background scheduler re-fetches
	// the snapshot. NewWithOptions does not read it and never starts the
	// scheduler: the host decides whether to pass it to StartAutoUpdate.
	RefreshInterval time.Duration

	// HTTPTimeout bounds a single fetch attempt against a remote origin.
	HTTPTimeout time.Duration
}

const (
	defaultCacheDir        = "/var/cache/ip2asn"
	defaultRefreshInterval = time.Hour
	defaultHTTPTimeout     = fetchTimeout
)

// NewOptions returns an Options populated with the defaults this engine
// uses when a host doesn't override them via flags.
func NewOptions() *Options {
	return &Options{
		CacheDir:        defaultCacheDir,
		RefreshInterval: defaultRefreshInterval,
		HTTPTimeout:     defaultHTTPTimeout,
	}
}

// AddFlags binds Options onto flags, so a host CLI can expose
// --ip2asn-url etc. without this package depending on any particular
// flag-parsing entrypoint.
func (o *Options) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.URL, "ip2asn-url", o.URL, "Source URL for the IP-to-ASN snapshot (file:// or http(s)://).")
	flags.StringVar(&o.CacheDir, "ip2asn-cache-dir", o.CacheDir, "Directory holding the cached snapshot and its revalidation metadata.")
	flags.DurationVar(&o.RefreshInterval, "ip2asn-refresh-interval", o.RefreshInterval, "How often to re-fetch and hot-swap the snapshot.")
	flags.DurationVar(&o.HTTPTimeout, "ip2asn-http-timeout", o.HTTPTimeout, "Timeout for a single snapshot fetch attempt.")
}
