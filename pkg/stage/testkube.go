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
	"net/http"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
	"github.com/deeppavlov/cluster-deployer/pkg/probe"
)

// TestKubernetes probes a descriptor's DeploymentProbeURL the same way
// TestImage probes ImageProbeURL, but never launches or stops a container
// — the service under test is already running in the cluster.
type TestKubernetes struct {
	HTTPClient *http.Client
}

func (s *TestKubernetes) Name() string { return pipeline.TestKubernetes }

func (s *TestKubernetes) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	d := item.Descriptor

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	fn := probe.HTTPProbe(client, d.DeploymentProbeURL, d.ModelArgs)
	elapsed, err := probe.Poll(ctx, fn, pollInterval, secondsToDuration(d.DeploymentProbeTimeoutSec))
	if err != nil {
		return nil, fmt.Errorf("testkubernetes: probing %s: %w", d.DeploymentProbeURL, err)
	}

	item.ExtendedInfo = fmt.Sprintf("deployment ready after %s", elapsed)
	return nil, nil
}
