// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resilience wraps external calls made by stage workers with a
// per-stage-kind circuit breaker, so a wedged Docker daemon or Kubernetes
// API server fails queued items fast instead of hanging every one of them
// in turn.
package resilience

import (
	"time"

	"github.com/sony/gobreaker"
)

// Config mirrors the root config's circuitBreaker section.
type Config struct {
	FailureRatio   float64
	WindowSize     uint32
	OpenTimeoutSec float64
}

// DefaultConfig trips once at least 10 calls have been counted and at
// least half of them failed, and stays open for 30s before allowing a
// trial call through. Counts accumulate from the moment the breaker last
// closed; they are not a sliding window over the most recent calls.
var DefaultConfig = Config{
	FailureRatio:   0.5,
	WindowSize:     10,
	OpenTimeoutSec: 30,
}

// Breaker guards one stage kind's external calls.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New builds a Breaker named after its stage kind. No state-change hook is
// installed, so breaker state transitions are not logged.
func New(stageName string, cfg Config) *Breaker {
	settings := gobreaker.Settings{
		Name:    stageName,
		Timeout: time.Duration(cfg.OpenTimeoutSec * float64(time.Second)),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.WindowSize) {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do runs fn through the breaker. A rejection because the breaker is open
// is returned as a plain error, classified the same as any other
// external-system failure by the stage boundary that called Do.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}
