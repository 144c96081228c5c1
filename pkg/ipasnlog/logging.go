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

// Package ipasnlog provides a structured-field builder for this engine's
// log lines, consumed through the logr sink the embedding host installs
// (sigs.k8s.io/controller-runtime/pkg/log), never a logging backend this
// package picks for itself.
package ipasnlog

import "time"

// Fields accumulates structured key/value pairs for one log line. The
// chained builder methods mirror the shape the rest of this module's
// dependency pack uses for its own log fields; the logr sink this
// package actually writes through wants an alternating []any rather than
// a map, so KeysAndValues is the adapter between the two.
type Fields map[string]any

// NewFields returns an empty Fields builder.
func NewFields() Fields {
	return Fields{}
}

// Component records which engine subsystem emitted the line.
func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

// Operation records the operation in progress ("fetch", "parse", "lookup", ...).
func (f Fields) Operation(op string) Fields {
	f["operation"] = op
	return f
}

// Resource records the kind and, if non-empty, the name of the resource
// an operation acted on.
func (f Fields) Resource(kind, name string) Fields {
	f["resource_type"] = kind

	if name != "" {
		f["resource_name"] = name
	}

	return f
}

// Duration records an elapsed time in milliseconds.
func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

// Error records err's message, if non-nil.
func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}

	return f
}

// URL records a request URL.
func (f Fields) URL(url string) Fields {
	f["url"] = url
	return f
}

// StatusCode records an HTTP response status code.
func (f Fields) StatusCode(code int) Fields {
	f["status_code"] = code
	return f
}

// Count records an item count.
func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

// Size records a byte size.
func (f Fields) Size(bytes int64) Fields {
	f["size_bytes"] = bytes
	return f
}

// Custom attaches an arbitrary key/value pair not covered by a named
// builder method.
func (f Fields) Custom(key string, value any) Fields {
	f[key] = value
	return f
}

// KeysAndValues flattens f into the alternating key/value slice logr's
// Logger.Info/Error variadic parameters expect.
func (f Fields) KeysAndValues() []any {
	kv := make([]any, 0, len(f)*2)

	for k, v := range f {
		kv = append(kv, k, v)
	}

	return kv
}

// FetchFields builds the standard field set for a Fetcher.Fetch log line.
func FetchFields(url string) Fields {
	return NewFields().Component("fetcher").Operation("fetch").URL(url)
}

// ParseFields builds the standard field set for a Parse log line.
func ParseFields(records, errors int) Fields {
	return NewFields().Component("parser").Operation("parse").Count(records).Custom("errors", errors)
}

// RefreshFields builds the standard field set for a scheduler tick log line.
func RefreshFields(updated bool) Fields {
	return NewFields().Component("scheduler").Operation("refresh").Custom("updated", updated)
}
