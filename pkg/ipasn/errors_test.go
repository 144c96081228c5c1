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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkErrorClassification(t *testing.T) {
	t.Parallel()

	err := NetworkError("fetch", "http://example.com", errors.New("dial tcp: refused"))
	assert.ErrorIs(t, err, ErrHTTPRequest)
	assert.Contains(t, err.Error(), "http://example.com")
}

func TestParseErrorClassification(t *testing.T) {
	t.Parallel()

	err := ParseError("snapshot body", "gzip", errors.New("unexpected EOF"))
	assert.ErrorIs(t, err, ErrDatabaseParse)
}

func TestInvalidIPErrorClassification(t *testing.T) {
	t.Parallel()

	err := InvalidIPError("not-an-ip")
	assert.ErrorIs(t, err, ErrInvalidIP)
	assert.Contains(t, err.Error(), "not-an-ip")
}

func TestIOErrorClassification(t *testing.T) {
	t.Parallel()

	err := IOError("write", "/var/cache/ip2asn/snapshot.tsv.gz", errors.New("disk full"))
	assert.ErrorIs(t, err, ErrIO)
	assert.Contains(t, err.Error(), "/var/cache/ip2asn/snapshot.tsv.gz")
	assert.Contains(t, err.Error(), "disk full")
}

func TestHTTPParseErrorClassification(t *testing.T) {
	t.Parallel()

	err := HTTPParseError("response body", errors.New("unexpected EOF"))
	assert.ErrorIs(t, err, ErrHTTPParse)
	assert.Contains(t, err.Error(), "unexpected EOF")
}

func TestFailedToUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := FailedTo("write cache", cause)

	assert.Contains(t, err.Error(), "write cache")
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, errors.Is(err, cause))
}

func TestOperationErrorNoCause(t *testing.T) {
	t.Parallel()

	err := &OperationError{Operation: "fetch", Component: "fetcher", Resource: "snapshot"}
	assert.Equal(t, "failed to fetch, component: fetcher, resource: snapshot", err.Error())
	assert.Nil(t, err.Unwrap())
}
