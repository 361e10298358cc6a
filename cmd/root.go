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
	"log"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version = "(unknown)"

	configDir    string
	overrideFile string

	rootCmd = &cobra.Command{
		Use:   "cluster-deployer",
		Short: "Builds and deploys machine-learning model services onto a Kubernetes cluster.",
	}
)

// Execute adds all child commands to the root command and runs it. This is
// called by main.main(); it only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		version = bi.Main.Version
	} else {
		log.Printf("Failed to read build info to get version.")
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config", "directory holding config.yaml, model_groups.yaml, templates.yaml and models/")
	rootCmd.PersistentFlags().StringVar(&overrideFile, "override-file", "", "optional override document layered on top of per-model descriptors")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(pipelinesCmd)
}
