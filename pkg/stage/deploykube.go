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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/kubeutil"
	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
	"github.com/deeppavlov/cluster-deployer/pkg/resilience"
)

// DeployKubernetes loads a descriptor's Deployment and Service manifests
// from KubeConfigsDir and creates whichever of the two are present.
// Missing manifests are skipped silently, not treated as an error.
type DeployKubernetes struct {
	Kube    *kubeutil.Client
	Breaker *resilience.Breaker
}

func (s *DeployKubernetes) Name() string { return pipeline.DeployKubernetes }

func (s *DeployKubernetes) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	d := item.Descriptor
	var created []string

	if path := manifestPath(d.KubeConfigsDir, d.FullName, d.KubeDeploymentFile); path != "" {
		dp, err := kubeutil.LoadDeployment(path)
		if err != nil {
			return nil, err
		}
		if err := s.Breaker.Do(func() error { return s.Kube.CreateDeployment(ctx, dp) }); err != nil {
			return nil, err
		}
		created = append(created, "deployment/"+dp.Name)
	}

	if path := manifestPath(d.KubeConfigsDir, d.FullName, d.KubeServiceFile); path != "" {
		svc, err := kubeutil.LoadService(path)
		if err != nil {
			return nil, err
		}
		if err := s.Breaker.Do(func() error { return s.Kube.CreateService(ctx, svc) }); err != nil {
			return nil, err
		}
		created = append(created, "service/"+svc.Name)
	}

	item.ExtendedInfo = fmt.Sprintf("created %s", strings.Join(created, ", "))
	return nil, nil
}

// manifestPath resolves a manifest under <kubeConfigsDir>/<fullName>,
// returning "" if name is empty or the file does not exist — the "missing
// manifest ⇒ skip silently" rule.
func manifestPath(kubeConfigsDir, fullName, name string) string {
	if name == "" {
		return ""
	}
	path := filepath.Join(kubeConfigsDir, fullName, filepath.Base(name))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
