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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/modelconfig"
	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
)

// renameEntry maps one of the template's canonical file names to the
// destination name the descriptor picks for it. Optional entries (e.g.
// kuber_lb.yaml for a model with no LoadBalancer) are skipped when absent
// from the template, not treated as an error.
type renameEntry struct {
	canonical   string
	destination func(d *modelconfig.ModelDescriptor) string
}

// MakeFiles materializes a model's build directory and Kubernetes
// manifests from its template. Any previous contents at those destinations
// are deleted first and the files are then written one by one; the
// replacement is not atomic, so a failure part-way leaves a partly
// written destination.
type MakeFiles struct {
	TemplateDir string
	ModelsDir   string
	KubeDir     string
}

func (s *MakeFiles) Name() string { return pipeline.MakeFiles }

func (s *MakeFiles) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	d := item.Descriptor

	buildDest := filepath.Join(s.ModelsDir, d.FullName)
	if err := safeDeletePath(buildDest); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(buildDest, 0o755); err != nil {
		return nil, fmt.Errorf("makefiles: creating build dir: %w", err)
	}

	kubeDest := filepath.Join(s.KubeDir, d.FullName)
	if err := safeDeletePath(kubeDest); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(kubeDest, 0o755); err != nil {
		return nil, fmt.Errorf("makefiles: creating kube dir: %w", err)
	}

	renames := []renameEntry{
		{canonical: "run_model.sh", destination: func(d *modelconfig.ModelDescriptor) string { return filepath.Join(buildDest, "run_model.sh") }},
		{canonical: "dockerignore", destination: func(d *modelconfig.ModelDescriptor) string { return filepath.Join(buildDest, ".dockerignore") }},
		{canonical: "kuber_dp.yaml", destination: func(d *modelconfig.ModelDescriptor) string { return filepath.Join(kubeDest, filepath.Base(d.KubeDeploymentFile)) }},
		{canonical: "kuber_lb.yaml", destination: func(d *modelconfig.ModelDescriptor) string { return filepath.Join(kubeDest, filepath.Base(d.KubeServiceFile)) }},
	}

	moved := 0
	for _, r := range renames {
		src := filepath.Join(s.TemplateDir, r.canonical)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("makefiles: reading template file %s: %w", r.canonical, err)
		}
		if err := os.WriteFile(r.destination(d), data, 0o644); err != nil {
			return nil, fmt.Errorf("makefiles: writing %s: %w", r.canonical, err)
		}
		moved++
	}

	if d.SerializeConfig {
		encoded, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("makefiles: serializing descriptor: %w", err)
		}
		if err := os.WriteFile(filepath.Join(buildDest, "deployment_config.json"), encoded, 0o644); err != nil {
			return nil, fmt.Errorf("makefiles: writing deployment_config.json: %w", err)
		}
	}

	item.ExtendedInfo = fmt.Sprintf("materialized %d file(s) for %s", moved, d.FullName)
	return nil, nil
}

// safeDeletePath removes path if and only if its resolved form is not the
// filesystem root.
func safeDeletePath(path string) error {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("safe delete: resolving %s: %w", path, err)
	}
	if resolved == string(filepath.Separator) {
		return fmt.Errorf("safe delete: root path deletion attempt for %s", path)
	}
	if _, err := os.Stat(resolved); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(resolved)
}
