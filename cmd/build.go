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
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/modelconfig"
	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
)

var (
	buildModel         string
	buildGroup         string
	buildPipeline      string
	buildDockerHubUser string
	buildDockerHubPass string

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Run a deployment pipeline against one model or one group.",
		RunE:  runBuildCmd,
	}
)

func init() {
	buildCmd.Flags().StringVar(&buildModel, "model", "", "full model name with prefix, e.g. stand_ner_ru")
	buildCmd.Flags().StringVar(&buildGroup, "group", "", "model group name from model_groups.yaml")
	buildCmd.Flags().StringVar(&buildPipeline, "pipeline", "", "pipeline name overriding each model's default")
	buildCmd.Flags().StringVar(&buildDockerHubUser, "dockerhub-user", "", "Docker Hub username, needed only when the pipeline includes push_to_docker_hub")
	buildCmd.Flags().StringVar(&buildDockerHubPass, "dockerhub-pass", "", "Docker Hub password, needed only when the pipeline includes push_to_docker_hub")
}

func runBuildCmd(cmd *cobra.Command, args []string) error {
	if buildModel == "" && buildGroup == "" {
		return fmt.Errorf("at least one of --model or --group must be given")
	}

	batch, err := loadBatch()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	names, err := selectedModelNames(batch, buildModel, buildGroup)
	if err != nil {
		return err
	}

	items := make([]*deployitem.Item, 0, len(names))
	var queuedStages []string
	for _, name := range names {
		descriptor, ok := batch.Models[name]
		if !ok {
			return fmt.Errorf("unknown model %q", name)
		}

		pipelineName := buildPipeline
		if pipelineName == "" {
			pipelineName = descriptor.PipelineName
		}
		stages, err := pipeline.Resolve(pipelineName)
		if err != nil {
			return fmt.Errorf("model %q: %w", name, err)
		}
		queuedStages = stages

		items = append(items, &deployitem.Item{
			ModelName:    name,
			Descriptor:   descriptor,
			PipelineName: pipelineName,
			Remaining:    stages,
		})
	}

	engine, err := buildEngine(batch, buildDockerHubUser, buildDockerHubPass, len(items)+1)
	if err != nil {
		return fmt.Errorf("wiring deployer: %w", err)
	}
	defer func() {
		if err := engine.Shutdown(); err != nil {
			log.Printf("cleanup: %v", err)
		}
	}()

	log.Printf("starting batch of %d model(s)", len(items))
	if err := engine.Deploy(cmd.Context(), items); err != nil {
		return fmt.Errorf("running deployment batch: %w", err)
	}

	fmt.Fprintf(os.Stdout, "batch complete: %d model(s) processed through %v\n", len(items), queuedStages)
	return nil
}

// selectedModelNames resolves --model/--group into the set of full model
// names to build, validating that --group (if given) names a known group.
func selectedModelNames(batch *modelconfig.Batch, model, group string) ([]string, error) {
	var names []string
	if model != "" {
		names = append(names, model)
	}
	if group != "" {
		members, ok := batch.Groups[group]
		if !ok {
			return nil, fmt.Errorf("unknown model group %q", group)
		}
		names = append(names, members...)
	}
	return names, nil
}
