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
	"time"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/dockerutil"
	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
	"github.com/deeppavlov/cluster-deployer/pkg/probe"
	"github.com/deeppavlov/cluster-deployer/pkg/resilience"
)

const pollInterval = 500 * time.Millisecond

// TestImage runs a detached, auto-removed container from a descriptor's
// ImageTag and probes it until it responds or its ImageProbeTimeoutSec
// elapses. The container is stopped whether the probe succeeds or not.
type TestImage struct {
	Docker     *dockerutil.Client
	Breaker    *resilience.Breaker
	HTTPClient *http.Client
	HostLogDir string
}

func (s *TestImage) Name() string { return pipeline.TestImage }

func (s *TestImage) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	d := item.Descriptor

	var containerID string
	err := s.Breaker.Do(func() error {
		var runErr error
		containerID, runErr = s.Docker.RunContainer(ctx, dockerutil.RunOptions{
			ImageTag:      d.ImageTag,
			ContainerPort: d.ContainerPort,
			HostLogDir:    s.HostLogDir,
			GPURuntime:    d.RuntimeRequirements.Runtime,
			GPUDevice:     d.RuntimeRequirements.DeviceIndex,
		})
		return runErr
	})
	if err != nil {
		return nil, err
	}
	defer s.Docker.StopContainer(ctx, containerID)

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	fn := probe.HTTPProbe(client, d.ImageProbeURL, d.ModelArgs)
	elapsed, err := probe.Poll(ctx, fn, pollInterval, secondsToDuration(d.ImageProbeTimeoutSec))
	if err != nil {
		return nil, fmt.Errorf("testimage: probing %s: %w", d.ImageProbeURL, err)
	}

	item.ExtendedInfo = fmt.Sprintf("image ready after %s", elapsed)
	return nil, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
