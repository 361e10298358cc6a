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

package stage

import (
	"context"
	"errors"
	"testing"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
)

type fakeStage struct {
	name   string
	err    error
	panics bool
}

func (f *fakeStage) Name() string { return f.name }

func (f *fakeStage) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	item.ExtendedInfo = "ok"
	return nil, nil
}

func TestWorkerMarksItemFinishedOnError(t *testing.T) {
	w := NewWorker(&fakeStage{name: "Fake", err: errors.New("boom")}, 1)
	ctx := context.Background()
	go w.Run(ctx)

	item := &deployitem.Item{ModelName: "m1"}
	w.In <- item
	out := <-w.Out

	if !out.Item.Finished {
		t.Error("Finished = false, want true on stage error")
	}
	if len(out.Logs) != 1 || out.Logs[0].Level != deployitem.LevelError {
		t.Errorf("Logs = %+v, want exactly one ERROR record", out.Logs)
	}
}

func TestWorkerRecoversFromPanic(t *testing.T) {
	w := NewWorker(&fakeStage{name: "Fake", panics: true}, 1)
	ctx := context.Background()
	go w.Run(ctx)

	item := &deployitem.Item{ModelName: "m1"}
	w.In <- item
	out := <-w.Out

	if !out.Item.Finished {
		t.Error("Finished = false, want true after a panicking Act")
	}
	if len(out.Logs) != 1 || out.Logs[0].Level != deployitem.LevelError {
		t.Errorf("Logs = %+v, want exactly one ERROR record", out.Logs)
	}
}

func TestWorkerEmitsInfoLogAndClearsExtendedInfoOnSuccess(t *testing.T) {
	w := NewWorker(&fakeStage{name: "Fake"}, 1)
	ctx := context.Background()
	go w.Run(ctx)

	item := &deployitem.Item{ModelName: "m1"}
	w.In <- item
	out := <-w.Out

	if out.Item.Finished {
		t.Error("Finished = true, want false on success (engine retires via empty pipeline)")
	}
	if out.Item.ExtendedInfo != "" {
		t.Errorf("ExtendedInfo = %q, want cleared after hand-off", out.Item.ExtendedInfo)
	}
	if len(out.Logs) != 1 || out.Logs[0].Level != deployitem.LevelInfo || out.Logs[0].Extended != "ok" {
		t.Errorf("Logs = %+v, want exactly one INFO record carrying the stage's ExtendedInfo", out.Logs)
	}
}
