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

package cmd

import (
	"fmt"

	dockerregistry "github.com/docker/docker/api/types/registry"

	"github.com/deeppavlov/cluster-deployer/pkg/deployer"
	"github.com/deeppavlov/cluster-deployer/pkg/dockerutil"
	"github.com/deeppavlov/cluster-deployer/pkg/kubeutil"
	"github.com/deeppavlov/cluster-deployer/pkg/logfabric"
	"github.com/deeppavlov/cluster-deployer/pkg/modelconfig"
	"github.com/deeppavlov/cluster-deployer/pkg/notify"
	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
	"github.com/deeppavlov/cluster-deployer/pkg/resilience"
	"github.com/deeppavlov/cluster-deployer/pkg/stage"
)

func loadBatch() (*modelconfig.Batch, error) {
	return modelconfig.LoadBatch(configDir, overrideFile)
}

// buildEngine wires every stage worker against the batch's root config and
// returns a ready-to-run Engine. dockerHubPassword is only needed when the
// batch includes a PushToDockerHub stage.
func buildEngine(batch *modelconfig.Batch, dockerHubUser, dockerHubPassword string, queueDepth int) (*deployer.Engine, error) {
	dockerClient, err := dockerutil.New(batch.Root.DockerDaemonURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to Docker daemon: %w", err)
	}

	kubeClient, err := kubeutil.New("")
	if err != nil {
		return nil, fmt.Errorf("connecting to Kubernetes: %w", err)
	}

	fabric, err := logfabric.New(batch.Root.Paths.LogDir)
	if err != nil {
		return nil, fmt.Errorf("setting up log fabric: %w", err)
	}

	notifier := notify.New(batch.Root.Notification.SlackWebhookURL)

	breakerCfg := resilience.Config{
		FailureRatio:   batch.Root.CircuitBreaker.FailureRatio,
		WindowSize:     uint32(batch.Root.CircuitBreaker.WindowSize),
		OpenTimeoutSec: batch.Root.CircuitBreaker.OpenTimeoutSec,
	}
	if breakerCfg.WindowSize == 0 {
		breakerCfg = resilience.DefaultConfig
	}

	auth := dockerregistry.AuthConfig{Username: dockerHubUser, Password: dockerHubPassword}

	workers := map[string]*stage.Worker{
		pipeline.MakeFiles: stage.NewWorker(&stage.MakeFiles{
			TemplateDir: batch.Root.Paths.ModelsDir,
			ModelsDir:   batch.Root.Paths.ModelsDir,
			KubeDir:     batch.Root.Paths.KubeConfigsDir,
		}, queueDepth),
		pipeline.DeleteImage: stage.NewWorker(&stage.DeleteImage{
			Docker:  dockerClient,
			Breaker: resilience.New(pipeline.DeleteImage, breakerCfg),
		}, queueDepth),
		pipeline.BuildImage: stage.NewWorker(&stage.BuildImage{
			Docker:  dockerClient,
			Breaker: resilience.New(pipeline.BuildImage, breakerCfg),
		}, queueDepth),
		pipeline.TestImage: stage.NewWorker(&stage.TestImage{
			Docker:     dockerClient,
			Breaker:    resilience.New(pipeline.TestImage, breakerCfg),
			HostLogDir: batch.Root.Paths.LogDir,
		}, queueDepth),
		pipeline.PushImage: stage.NewWorker(&stage.PushImage{
			Docker:  dockerClient,
			Breaker: resilience.New(pipeline.PushImage, breakerCfg),
		}, queueDepth),
		pipeline.PullImage: stage.NewWorker(&stage.PullImage{
			Docker:  dockerClient,
			Breaker: resilience.New(pipeline.PullImage, breakerCfg),
		}, queueDepth),
		pipeline.PushToDockerHub: stage.NewWorker(&stage.PushToDockerHub{
			Docker:   dockerClient,
			Breaker:  resilience.New(pipeline.PushToDockerHub, breakerCfg),
			Auth:     auth,
			Registry: batch.Root.DockerHubRegistry,
			Notifier: notifier,
		}, queueDepth),
		pipeline.DeployKubernetes: stage.NewWorker(&stage.DeployKubernetes{
			Kube:    kubeClient,
			Breaker: resilience.New(pipeline.DeployKubernetes, breakerCfg),
		}, queueDepth),
		pipeline.DeleteKubernetes: stage.NewWorker(&stage.DeleteKubernetes{
			Kube:    kubeClient,
			Breaker: resilience.New(pipeline.DeleteKubernetes, breakerCfg),
		}, queueDepth),
		pipeline.TestKubernetes: stage.NewWorker(&stage.TestKubernetes{}, queueDepth),
		pipeline.Finish:         stage.NewWorker(&stage.Finish{}, queueDepth),
	}

	return deployer.New(workers, fabric, batch.Root.Paths.TempDir), nil
}
