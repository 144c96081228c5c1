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

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ip2asn/engine/pkg/ipasnlog"
)

// ErrSchedulerRunning is returned by start when a refresh loop is already
// running.
var ErrSchedulerRunning = errors.New("refresh scheduler already running")

// ErrSchedulerNotRunning is returned by stop when no refresh loop is
// running.
var ErrSchedulerNotRunning = errors.New("refresh scheduler not running")

// ErrInvalidInterval is returned by start when interval is not strictly
// positive.
var ErrInvalidInterval = errors.New("refresh interval must be positive")

// scheduler drives periodic refresh of an Engine's Store: a select over
// ctx.Done() and ticker.C, with a short mutex guarding only the
// IDLE/RUNNING transition itself. Each tick runs Engine.refresh, which shares
// Engine.Load's singleflight key, so a tick racing a forced update
// coalesces onto one cycle. Unlike a forced update, a tick never falls
// back to the on-disk cache: the previous Store stays in place on any
// failure and the loop just keeps going.
type scheduler struct {
	engine *Engine

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// newScheduler constructs a scheduler bound to engine. It starts IDLE.
func newScheduler(engine *Engine) *scheduler {
	return &scheduler{engine: engine}
}

// start transitions IDLE -> RUNNING, spawning one background refresh
// goroutine that ticks every interval. It returns ErrSchedulerRunning if
// already RUNNING and ErrInvalidInterval if interval <= 0.
func (s *scheduler) start(interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrSchedulerRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, interval, s.done)

	return nil
}

// stop transitions RUNNING -> IDLE, cancelling the background refresh
// goroutine and waiting for its current tick (if any) to observe
// cancellation. It returns ErrSchedulerNotRunning if already IDLE.
func (s *scheduler) stop() error {
	s.mu.Lock()

	if s.cancel == nil {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}

	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil

	s.mu.Unlock()

	cancel()
	<-done

	return nil
}

// run is the background refresh loop. A failed tick never terminates it:
// the failure is logged and the loop keeps going until stop cancels the
// context.
func (s *scheduler) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	logger := log.FromContext(ctx).WithName("ipasn.scheduler")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updated, err := s.engine.refresh(ctx)
			if err != nil {
				logger.Error(err, "scheduled refresh failed, keeping previous database")
				continue
			}

			fields := ipasnlog.RefreshFields(updated)

			if updated {
				logger.Info("scheduled refresh installed a new database", fields.KeysAndValues()...)
			} else {
				logger.Info("scheduled refresh found the database unchanged", fields.KeysAndValues()...)
			}
		}
	}
}
