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
	"sort"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the full model names known to the loaded configuration.",
	RunE:  runModelsCmd,
}

func runModelsCmd(cmd *cobra.Command, args []string) error {
	batch, err := loadBatch()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	names := make([]string, 0, len(batch.Models))
	for name := range batch.Models {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, batch.Models[name].PipelineName)
	}
	return nil
}
