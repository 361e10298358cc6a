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

// Package stage defines the uniform contract every deployment action
// implements, and the long-lived worker that runs one stage kind.
package stage

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
)

// Stage is the internal act(item) -> item hook every deployment action
// implements. Act mutates item.ExtendedInfo on success; a returned error
// is caught at the worker boundary, never by the caller directly. Act may
// also return LogRecords of its own (e.g. a "not found, nothing to
// delete" INFO record) in addition to whatever the boundary emits.
type Stage interface {
	Name() string
	Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error)
}

// Output is what a Worker hands back to the engine for one item.
type Output struct {
	Item *deployitem.Item
	Logs []deployitem.LogRecord
}

// Worker runs one Stage, consuming its input queue strictly in FIFO order
// and performing its side effect. The input queue's buffering, not the
// worker, is what gives the engine a place to queue ahead; the worker
// itself processes exactly one item at a time.
type Worker struct {
	stage Stage
	In    chan *deployitem.Item
	Out   chan Output
}

// NewWorker builds a Worker for stage with the given queue depth.
func NewWorker(s Stage, queueDepth int) *Worker {
	return &Worker{
		stage: s,
		In:    make(chan *deployitem.Item, queueDepth),
		Out:   make(chan Output, queueDepth),
	}
}

// Name returns the stage identifier this worker serves.
func (w *Worker) Name() string {
	return w.stage.Name()
}

// Run consumes w.In until it is closed or ctx is done, sending exactly one
// Output per item received. It never panics out: a panicking Act is
// treated the same as a returned error (an "unknown internal fault").
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-w.In:
			if !ok {
				return
			}
			out := w.act(ctx, item)
			select {
			case w.Out <- out:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) act(ctx context.Context, item *deployitem.Item) (out Output) {
	defer func() {
		if r := recover(); r != nil {
			item.Finished = true
			out = Output{
				Item: item,
				Logs: []deployitem.LogRecord{{
					ModelName: item.ModelName,
					Level:     deployitem.LevelError,
					Message:   fmt.Sprintf("stage %s panicked: %v", w.stage.Name(), r),
					Extended:  string(debug.Stack()),
				}},
			}
		}
	}()

	logs, err := w.stage.Act(ctx, item)
	if err != nil {
		item.Finished = true
		logs = append(logs, deployitem.LogRecord{
			ModelName: item.ModelName,
			Level:     deployitem.LevelError,
			Message:   fmt.Sprintf("stage %s failed: %v", w.stage.Name(), err),
			Extended:  fmt.Sprintf("%+v", err),
		})
		return Output{Item: item, Logs: logs}
	}

	logs = append(logs, deployitem.LogRecord{
		ModelName: item.ModelName,
		Level:     deployitem.LevelInfo,
		Message:   fmt.Sprintf("stage %s finished", w.stage.Name()),
		Extended:  item.ExtendedInfo,
	})
	item.ExtendedInfo = ""
	return Output{Item: item, Logs: logs}
}
