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
	"strings"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/kubeutil"
	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
	"github.com/deeppavlov/cluster-deployer/pkg/resilience"
)

// DeleteKubernetes mirrors DeployKubernetes but deletes the named
// Deployment and Service with background propagation. Objects that do not
// exist are recorded in ExtendedInfo, not treated as errors.
type DeleteKubernetes struct {
	Kube    *kubeutil.Client
	Breaker *resilience.Breaker
}

func (s *DeleteKubernetes) Name() string { return pipeline.DeleteKubernetes }

func (s *DeleteKubernetes) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	d := item.Descriptor
	var results []string

	if d.KubeDeploymentName != "" {
		var found bool
		err := s.Breaker.Do(func() error {
			var callErr error
			found, callErr = s.Kube.DeleteDeployment(ctx, d.KubeNamespace, d.KubeDeploymentName)
			return callErr
		})
		if err != nil {
			return nil, err
		}
		results = append(results, describeDeleteResult("deployment", d.KubeDeploymentName, found))
	}

	if d.KubeServiceName != "" {
		var found bool
		err := s.Breaker.Do(func() error {
			var callErr error
			found, callErr = s.Kube.DeleteService(ctx, d.KubeNamespace, d.KubeServiceName)
			return callErr
		})
		if err != nil {
			return nil, err
		}
		results = append(results, describeDeleteResult("service", d.KubeServiceName, found))
	}

	item.ExtendedInfo = strings.Join(results, ", ")
	return nil, nil
}

func describeDeleteResult(kind, name string, found bool) string {
	if found {
		return fmt.Sprintf("deleted %s/%s", kind, name)
	}
	return fmt.Sprintf("%s/%s did not exist", kind, name)
}
