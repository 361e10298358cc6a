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

// Package pipeline holds the static, named catalog of stage orderings a
// model can be assigned to.
package pipeline

import (
	"fmt"
	"sort"
)

// Stage identifiers. These are the only values that may appear in a
// pipeline or be used as a stage worker's name.
const (
	MakeFiles        = "MakeFiles"
	DeleteImage      = "DeleteImage"
	BuildImage       = "BuildImage"
	TestImage        = "TestImage"
	PushImage        = "PushImage"
	PullImage        = "PullImage"
	PushToDockerHub  = "PushToDockerHub"
	DeployKubernetes = "DeployKubernetes"
	DeleteKubernetes = "DeleteKubernetes"
	TestKubernetes   = "TestKubernetes"
	Finish           = "Finish"
)

// allStages is the closed set of stage identifiers a pipeline may
// reference.
var allStages = map[string]bool{
	MakeFiles:        true,
	DeleteImage:      true,
	BuildImage:       true,
	TestImage:        true,
	PushImage:        true,
	PullImage:        true,
	PushToDockerHub:  true,
	DeployKubernetes: true,
	DeleteKubernetes: true,
	TestKubernetes:   true,
	Finish:           true,
}

// presets is the static catalog, grounded on preset_pipelines.
var presets = map[string][]string{
	"all":                              {MakeFiles, DeleteImage, BuildImage, TestImage, PushImage, DeleteKubernetes, DeployKubernetes, TestKubernetes, PushToDockerHub},
	"all_up_kuber":                     {MakeFiles, DeleteImage, BuildImage, TestImage, PushImage, DeleteKubernetes, DeployKubernetes, TestKubernetes},
	"all_up_kuber_no_tests":            {MakeFiles, DeleteImage, BuildImage, PushImage, DeleteKubernetes, DeployKubernetes},
	"all_up_docker":                    {MakeFiles, DeleteImage, BuildImage, TestImage},
	"all_up_docker_no_tests":           {MakeFiles, DeleteImage, BuildImage},
	"all_from_docker":                  {DeleteImage, BuildImage, TestImage, PushImage, DeleteKubernetes, DeployKubernetes, TestKubernetes, PushToDockerHub},
	"from_docker_up_kuber":             {DeleteImage, BuildImage, TestImage, PushImage, DeleteKubernetes, DeployKubernetes, TestKubernetes},
	"make_files":                       {MakeFiles},
	"build_docker":                     {DeleteImage, BuildImage, TestImage},
	"build_docker_no_tests":            {DeleteImage, BuildImage},
	"make_files_and_docker_no_tests":   {MakeFiles, DeleteImage, BuildImage},
	"delete_docker":                    {DeleteImage},
	"test_docker":                      {TestImage},
	"create_kuber":                     {DeleteKubernetes, DeployKubernetes, TestKubernetes},
	"create_kuber_no_tests":            {DeleteKubernetes, DeployKubernetes},
	"make_files_and_kuber_no_tests":    {MakeFiles, DeleteKubernetes, DeployKubernetes},
	"delete_kuber":                     {DeleteKubernetes},
	"test_kuber":                       {TestKubernetes},
	"push_to_registry":                 {PushImage},
	"pull_from_registry":               {PullImage},
	"push_to_docker_hub":               {PushToDockerHub},
}

// Resolve looks up a pipeline by name and returns its stage list with
// Finish appended as the terminal stage if the preset didn't already end
// with one.
func Resolve(name string) ([]string, error) {
	stages, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown pipeline %q", name)
	}

	out := make([]string, len(stages), len(stages)+1)
	copy(out, stages)
	if len(out) == 0 || out[len(out)-1] != Finish {
		out = append(out, Finish)
	}
	return out, nil
}

// Names returns the known pipeline names sorted by name, for the
// `pipelines` CLI verb.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateStageSet reports an error if any stage identifier in stages is
// not part of the implemented stage set.
func ValidateStageSet(stages []string) error {
	for _, s := range stages {
		if !allStages[s] {
			return fmt.Errorf("unknown stage identifier %q", s)
		}
	}
	return nil
}
