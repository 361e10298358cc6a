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

// DeleteImage removes the local image identified by a descriptor's
// ImageTag. A missing image is not an error.
type DeleteImage struct {
	Docker  *dockerutil.Client
	Breaker *resilience.Breaker
}

func (s *DeleteImage) Name() string { return pipeline.DeleteImage }

func (s *DeleteImage) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	var found bool
	err := s.Breaker.Do(func() error {
		var callErr error
		found, callErr = s.Docker.RemoveImage(ctx, item.Descriptor.ImageTag)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	if !found {
		item.ExtendedInfo = fmt.Sprintf("image %s did not exist, nothing to delete", item.Descriptor.ImageTag)
		return nil, nil
	}
	item.ExtendedInfo = fmt.Sprintf("deleted image %s", item.Descriptor.ImageTag)
	return nil, nil
}
