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

package deployer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/logfabric"
	"github.com/deeppavlov/cluster-deployer/pkg/stage"
)

type recordingStage struct {
	name      string
	failOn    string
	visitedMu chan string
}

func (s *recordingStage) Name() string { return s.name }

func (s *recordingStage) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	s.visitedMu <- item.ModelName + ":" + s.name
	if item.ModelName == s.failOn {
		return nil, errors.New("injected failure")
	}
	return nil, nil
}

func newFabric(t *testing.T) *logfabric.Fabric {
	t.Helper()
	f, err := logfabric.New(filepath.Join(t.TempDir(), "logs"))
	if err != nil {
		t.Fatalf("logfabric.New() error = %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestDeployRoutesIndependentPipelines(t *testing.T) {
	visited := make(chan string, 64)
	workers := map[string]*stage.Worker{
		"MakeFiles":  stage.NewWorker(&recordingStage{name: "MakeFiles", visitedMu: visited}, 8),
		"BuildImage": stage.NewWorker(&recordingStage{name: "BuildImage", visitedMu: visited}, 8),
		"TestImage":  stage.NewWorker(&recordingStage{name: "TestImage", visitedMu: visited}, 8),
		"Finish":     stage.NewWorker(&recordingStage{name: "Finish", visitedMu: visited}, 8),
	}

	e := New(workers, newFabric(t), "")

	items := []*deployitem.Item{
		{ModelName: "a", Remaining: []string{"MakeFiles", "BuildImage", "Finish"}},
		{ModelName: "b", Remaining: []string{"MakeFiles", "BuildImage", "TestImage", "Finish"}},
	}

	if err := e.Deploy(context.Background(), items); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	close(visited)
	seen := map[string]bool{}
	for v := range visited {
		seen[v] = true
	}

	for _, want := range []string{"a:MakeFiles", "a:BuildImage", "b:MakeFiles", "b:BuildImage", "b:TestImage"} {
		if !seen[want] {
			t.Errorf("expected visit %q, got visits %v", want, seen)
		}
	}
	if seen["a:TestImage"] {
		t.Error("model a visited TestImage, but its pipeline never includes it")
	}
}

func TestDeployIsolatesStageFailure(t *testing.T) {
	visited := make(chan string, 64)
	workers := map[string]*stage.Worker{
		"MakeFiles":  stage.NewWorker(&recordingStage{name: "MakeFiles", visitedMu: visited}, 8),
		"BuildImage": stage.NewWorker(&recordingStage{name: "BuildImage", failOn: "a", visitedMu: visited}, 8),
		"Finish":     stage.NewWorker(&recordingStage{name: "Finish", visitedMu: visited}, 8),
	}

	e := New(workers, newFabric(t), "")

	items := []*deployitem.Item{
		{ModelName: "a", Remaining: []string{"MakeFiles", "BuildImage", "Finish"}},
		{ModelName: "b", Remaining: []string{"MakeFiles", "BuildImage", "Finish"}},
	}

	if err := e.Deploy(context.Background(), items); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}

	close(visited)
	seen := map[string]bool{}
	for v := range visited {
		seen[v] = true
	}

	if seen["a:Finish"] {
		t.Error("model a should have retired at BuildImage's failure, not reached Finish")
	}
	if !seen["b:Finish"] {
		t.Error("model b should have completed its pipeline unaffected by a's failure")
	}
}
