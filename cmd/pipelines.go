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

	"github.com/spf13/cobra"

	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
)

var pipelinesCmd = &cobra.Command{
	Use:   "pipelines",
	Short: "List the static catalog of named pipelines and their stages.",
	RunE:  runPipelinesCmd,
}

func runPipelinesCmd(cmd *cobra.Command, args []string) error {
	for _, name := range pipeline.Names() {
		stages, err := pipeline.Resolve(name)
		if err != nil {
			return fmt.Errorf("resolving pipeline %q: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", name, stages)
	}
	return nil
}
