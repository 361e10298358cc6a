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
	"strings"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List model groups and their members.",
	RunE:  runGroupsCmd,
}

func runGroupsCmd(cmd *cobra.Command, args []string) error {
	batch, err := loadBatch()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	names := make([]string, 0, len(batch.Groups))
	for name := range batch.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, strings.Join(batch.Groups[name], ", "))
	}
	return nil
}
