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

// Package probe implements the shared polling helper used by the TestImage
// and TestKubernetes stages, and the HTTP liveness check they poll with.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const minInterval = time.Millisecond

// Func is a single probe attempt. A non-nil error is treated as a
// transient failure, not a fatal one: Poll keeps retrying until the probe
// succeeds or the timeout elapses.
type Func func(ctx context.Context) (ok bool, err error)

// Poll invokes fn repeatedly, spaced by interval, until fn reports success
// or timeout elapses. Elapsed time is measured from the first attempt.
// Both interval and timeout are floored at 1ms. A network error from fn is
// treated as non-success and causes another attempt rather than aborting
// the poll early.
func Poll(ctx context.Context, fn Func, interval, timeout time.Duration) (time.Duration, error) {
	if interval < minInterval {
		interval = minInterval
	}
	if timeout < minInterval {
		timeout = minInterval
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var start time.Time
	first := true
	for {
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("probe timed out after %s", timeout)
		case <-ticker.C:
		}

		if first {
			start = time.Now()
			first = false
		}

		ok, _ := fn(ctx)
		if ok {
			return time.Since(start), nil
		}
	}
}

// HTTPProbe builds a probe Func that POSTs a JSON payload of
// {argName: ["This is probe text."]} for every name in argNames to url and
// reports success on a 200 response.
func HTTPProbe(client *http.Client, url string, argNames []string) Func {
	payload := make(map[string][]string, len(argNames))
	for _, name := range argNames {
		payload[name] = []string{"This is probe text."}
	}
	body, err := json.Marshal(payload)

	return func(ctx context.Context) (bool, error) {
		if err != nil {
			return false, err
		}
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if reqErr != nil {
			return false, reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := client.Do(req)
		if doErr != nil {
			return false, doErr
		}
		defer resp.Body.Close()

		return resp.StatusCode == http.StatusOK, nil
	}
}
