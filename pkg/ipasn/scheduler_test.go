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
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerStartRejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()

	e := newFileEngine(t, "1.0.0.0\t1.0.0.255\t1\tUS\tA\n")

	err := e.StartAutoUpdate(0)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	err = e.StartAutoUpdate(-time.Second)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestSchedulerStartTwiceErrors(t *testing.T) {
	t.Parallel()

	e := newFileEngine(t, "1.0.0.0\t1.0.0.255\t1\tUS\tA\n")

	require.NoError(t, e.StartAutoUpdate(time.Hour))
	defer func() { _ = e.StopAutoUpdate() }()

	err := e.StartAutoUpdate(time.Hour)
	assert.ErrorIs(t, err, ErrSchedulerRunning)
}

func TestSchedulerStopWithoutStartErrors(t *testing.T) {
	t.Parallel()

	e := newFileEngine(t, "1.0.0.0\t1.0.0.255\t1\tUS\tA\n")

	err := e.StopAutoUpdate()
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestSchedulerStartStopLifecycle(t *testing.T) {
	t.Parallel()

	e := newFileEngine(t, "1.0.0.0\t1.0.0.255\t1\tUS\tA\n")

	require.NoError(t, e.StartAutoUpdate(time.Hour))
	require.NoError(t, e.StopAutoUpdate())

	// Able to start again once stopped.
	require.NoError(t, e.StartAutoUpdate(time.Hour))
	require.NoError(t, e.StopAutoUpdate())
}

func TestSchedulerTicksAndRefreshes(t *testing.T) {
	t.Parallel()

	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(gzipTSV(t, "1.0.0.0\t1.0.0.255\t1\tUS\tA\n"))
	}))
	defer server.Close()

	e, err := New(server.URL, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, e.StartAutoUpdate(20*time.Millisecond))
	defer func() { _ = e.StopAutoUpdate() }()

	require.Eventually(t, func() bool {
		return requestCount.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerTickKeepsStoreOnFetchError(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool

	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)

		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(gzipTSV(t, "1.0.0.0\t1.0.0.255\t1\tUS\tA\n"))
	}))
	defer server.Close()

	e, err := New(server.URL, t.TempDir())
	require.NoError(t, err)

	_, err = e.Load(context.Background())
	require.NoError(t, err)

	statsBefore := e.Stats()
	require.NotNil(t, statsBefore.LastUpdate)

	fail.Store(true)
	requestsBefore := requestCount.Load()

	require.NoError(t, e.StartAutoUpdate(20*time.Millisecond))
	defer func() { _ = e.StopAutoUpdate() }()

	require.Eventually(t, func() bool {
		return requestCount.Load() >= requestsBefore+2
	}, time.Second, 5*time.Millisecond)

	// Failed ticks leave the previous database and its freshness stamp
	// alone instead of silently re-serving the disk cache as new.
	info, err := e.Lookup("1.0.0.5")
	require.NoError(t, err)
	assert.True(t, info.Announced)

	statsAfter := e.Stats()
	require.NotNil(t, statsAfter.LastUpdate)
	assert.Equal(t, *statsBefore.LastUpdate, *statsAfter.LastUpdate)
}

func TestSchedulerForceUpdateIndependentOfRunningState(t *testing.T) {
	t.Parallel()

	e := newFileEngine(t, "1.0.0.0\t1.0.0.255\t1\tUS\tA\n")

	updated, err := e.ForceUpdate(context.Background())
	require.NoError(t, err)
	assert.True(t, updated)
}

func TestSchedulerForceUpdateReportsUnchangedTruthfully(t *testing.T) {
	t.Parallel()

	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requestCount.Add(1)
		if n == 1 {
			w.Header().Set("ETag", `"v1"`)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(gzipTSV(t, "1.0.0.0\t1.0.0.255\t1\tUS\tA\n"))

			return
		}

		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	e, err := New(server.URL, t.TempDir())
	require.NoError(t, err)

	updated, err := e.ForceUpdate(context.Background())
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = e.ForceUpdate(context.Background())
	require.NoError(t, err)
	assert.False(t, updated)
}
