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

// Package deployer implements the concurrent router that drives every
// model in a batch through its assigned pipeline: one worker per stage
// kind, a single coordinating goroutine that multiplexes their outputs.
package deployer

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/logfabric"
	"github.com/deeppavlov/cluster-deployer/pkg/stage"
)

// idlePollInterval bounds how long the dispatch loop sleeps when every
// stage output queue came up empty on a round, so it never busy-spins.
const idlePollInterval = 5 * time.Millisecond

// Engine routes DeploymentItems between stage workers and retires them
// once their pipeline is exhausted or they finish early on error. It owns
// every item and every queue; stages own only their own external clients.
type Engine struct {
	workers map[string]*stage.Worker
	order   []string
	fabric  *logfabric.Fabric
	tempDir string
}

// New builds an Engine from a named set of stage workers (keyed by stage
// identifier, e.g. from pipeline.BuildImage) and the logging fabric it
// routes LogRecords to. tempDir is removed on Shutdown.
func New(workers map[string]*stage.Worker, fabric *logfabric.Fabric, tempDir string) *Engine {
	order := make([]string, 0, len(workers))
	for name := range workers {
		order = append(order, name)
	}
	sort.Strings(order)

	return &Engine{workers: workers, order: order, fabric: fabric, tempDir: tempDir}
}

// Deploy primes every item into the first stage of its pipeline, runs all
// stage workers concurrently, and blocks until every item has retired. It
// never returns an error because of a single item's failure — per-item
// failures are only ever recorded as LogRecords.
func (e *Engine) Deploy(ctx context.Context, items []*deployitem.Item) error {
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(workerCtx)
	for _, name := range e.order {
		w := e.workers[name]
		g.Go(func() error {
			w.Run(gctx)
			return nil
		})
	}

	outstanding := make(map[string]bool, len(items))
	for _, it := range items {
		outstanding[it.ModelName] = true
	}

	for _, it := range items {
		e.fabric.TaskStarted(it.PipelineName, []string{it.ModelName}, it.Remaining)
		e.route(it, outstanding)
	}

	for len(outstanding) > 0 {
		select {
		case <-ctx.Done():
			cancel()
			_ = g.Wait()
			return ctx.Err()
		default:
		}

		progressed := false
		for _, name := range e.order {
			w := e.workers[name]
			select {
			case out := <-w.Out:
				progressed = true
				for _, rec := range out.Logs {
					e.fabric.Record(rec)
				}
				e.route(out.Item, outstanding)
			default:
			}
		}

		if !progressed {
			time.Sleep(idlePollInterval)
		}
	}

	cancel()
	if err := g.Wait(); err != nil {
		return fmt.Errorf("deployer: stage worker group: %w", err)
	}
	return nil
}

// route implements the engine's routing algorithm for a single received
// item: retire it if finished or its pipeline is exhausted, otherwise hand
// it to the input queue of its next stage.
func (e *Engine) route(it *deployitem.Item, outstanding map[string]bool) {
	if it.Finished {
		delete(outstanding, it.ModelName)
		return
	}
	if len(it.Remaining) == 0 {
		delete(outstanding, it.ModelName)
		e.fabric.Record(deployitem.LogRecord{
			ModelName: it.ModelName,
			Level:     deployitem.LevelInfo,
			Message:   "DEPLOYMENT FINISHED",
		})
		return
	}

	name := it.PopStage()
	w, ok := e.workers[name]
	if !ok {
		it.Finished = true
		delete(outstanding, it.ModelName)
		e.fabric.Record(deployitem.LogRecord{
			ModelName: it.ModelName,
			Level:     deployitem.LevelError,
			Message:   fmt.Sprintf("no worker registered for stage %q", name),
		})
		return
	}
	w.In <- it
}

// Shutdown closes the logging fabric and removes the engine's scratch
// directory. It is safe to call after Deploy returns; removing the scratch
// directory is a no-op if tempDir is empty.
func (e *Engine) Shutdown() error {
	closeErr := e.fabric.Close()

	if e.tempDir == "" {
		return closeErr
	}
	if e.tempDir == "/" {
		return fmt.Errorf("deployer: refusing to remove filesystem root as temp dir")
	}
	if err := os.RemoveAll(e.tempDir); err != nil {
		if closeErr != nil {
			return fmt.Errorf("deployer: cleaning temp dir: %w (also failed to close log fabric: %v)", err, closeErr)
		}
		return fmt.Errorf("deployer: cleaning temp dir: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("deployer: closing log fabric: %w", closeErr)
	}
	return nil
}
