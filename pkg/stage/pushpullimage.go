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

	dockerregistry "github.com/docker/docker/api/types/registry"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/dockerutil"
	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
	"github.com/deeppavlov/cluster-deployer/pkg/resilience"
)

// PushImage streams a push of a descriptor's ImageTag to the configured
// registry and summarizes the response stream into ExtendedInfo.
type PushImage struct {
	Docker  *dockerutil.Client
	Breaker *resilience.Breaker
	Auth    dockerregistry.AuthConfig
}

func (s *PushImage) Name() string { return pipeline.PushImage }

func (s *PushImage) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	var summary string
	err := s.Breaker.Do(func() error {
		var pushErr error
		summary, pushErr = s.Docker.PushImage(ctx, item.Descriptor.ImageTag, s.Auth)
		return pushErr
	})
	if err != nil {
		return nil, err
	}
	item.ExtendedInfo = summary
	return nil, nil
}

// PullImage streams a pull of a descriptor's ImageTag from the configured
// registry and summarizes the response stream into ExtendedInfo.
type PullImage struct {
	Docker  *dockerutil.Client
	Breaker *resilience.Breaker
	Auth    dockerregistry.AuthConfig
}

func (s *PullImage) Name() string { return pipeline.PullImage }

func (s *PullImage) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	var summary string
	err := s.Breaker.Do(func() error {
		var pullErr error
		summary, pullErr = s.Docker.PullImage(ctx, item.Descriptor.ImageTag, s.Auth)
		return pullErr
	})
	if err != nil {
		return nil, err
	}
	item.ExtendedInfo = summary
	return nil, nil
}

// PushToDockerHub logs in, retags the local image under the configured
// Docker Hub registry, pushes it, and removes the temporary local tag.
type PushToDockerHub struct {
	Docker   *dockerutil.Client
	Breaker  *resilience.Breaker
	Auth     dockerregistry.AuthConfig
	Registry string
	Notifier interface{ Notify(message string) }
}

func (s *PushToDockerHub) Name() string { return pipeline.PushToDockerHub }

func (s *PushToDockerHub) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	if err := s.Breaker.Do(func() error { return s.Docker.Login(ctx, s.Auth) }); err != nil {
		if s.Notifier != nil {
			s.Notifier.Notify(fmt.Sprintf("Docker Hub login failed for %s: %v", item.Descriptor.FullName, err))
		}
		return nil, fmt.Errorf("pushtodockerhub: login: %w", err)
	}

	hubTag := fmt.Sprintf("%s/%s", s.Registry, item.Descriptor.ModelName)

	if err := s.Breaker.Do(func() error { return s.Docker.TagImage(ctx, item.Descriptor.ImageTag, hubTag) }); err != nil {
		return nil, fmt.Errorf("pushtodockerhub: tag: %w", err)
	}

	var summary string
	err := s.Breaker.Do(func() error {
		var pushErr error
		summary, pushErr = s.Docker.PushImage(ctx, hubTag, s.Auth)
		return pushErr
	})
	if err != nil {
		return nil, fmt.Errorf("pushtodockerhub: push: %w", err)
	}

	if err := s.Breaker.Do(func() error {
		_, removeErr := s.Docker.RemoveImage(ctx, hubTag)
		return removeErr
	}); err != nil {
		return nil, fmt.Errorf("pushtodockerhub: untag: %w", err)
	}

	item.ExtendedInfo = summary
	return nil, nil
}
