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

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/dockerutil"
	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
	"github.com/deeppavlov/cluster-deployer/pkg/resilience"
)

// BuildImage invokes the local image builder on a descriptor's
// BuildContextPath, tagging the result ImageTag with BuildArgs passed
// verbatim.
type BuildImage struct {
	Docker  *dockerutil.Client
	Breaker *resilience.Breaker
}

func (s *BuildImage) Name() string { return pipeline.BuildImage }

func (s *BuildImage) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	d := item.Descriptor
	err := s.Breaker.Do(func() error {
		return s.Docker.BuildImage(ctx, d.BuildContextPath, d.ImageTag, d.BuildArgs)
	})
	if err != nil {
		return nil, err
	}

	item.ExtendedInfo = fmt.Sprintf("built image %s from %s", d.ImageTag, d.BuildContextPath)
	return nil, nil
}
