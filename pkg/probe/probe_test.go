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

package probe

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPollSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	fn := func(ctx context.Context) (bool, error) {
		attempts++
		if attempts < 3 {
			return false, errors.New("not ready yet")
		}
		return true, nil
	}

	elapsed, err := Poll(context.Background(), fn, time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if elapsed <= 0 {
		t.Errorf("elapsed = %v, want > 0", elapsed)
	}
}

func TestPollTimesOut(t *testing.T) {
	fn := func(ctx context.Context) (bool, error) {
		return false, nil
	}

	_, err := Poll(context.Background(), fn, time.Millisecond, 20*time.Millisecond)
	if err == nil {
		t.Fatal("Poll() expected a timeout error, got nil")
	}
}

func TestPollTreatsProbeErrorsAsNonSuccess(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context) (bool, error) {
		calls++
		return false, errors.New("connection refused")
	}

	_, err := Poll(context.Background(), fn, time.Millisecond, 10*time.Millisecond)
	if err == nil {
		t.Fatal("Poll() expected a timeout error, got nil")
	}
	if calls == 0 {
		t.Error("probe function was never called")
	}
}
