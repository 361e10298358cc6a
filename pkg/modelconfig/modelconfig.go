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

// Package modelconfig holds the per-model deployment descriptor and the
// loader that builds one from a directory of root, template, per-model and
// override documents.
package modelconfig

// ModelDescriptor is the fully-resolved, immutable configuration for a
// single deployable model. Every field here is either read verbatim by a
// stage or has already had its placeholders expanded by the loader.
type ModelDescriptor struct {
	FullName   string
	ModelName  string
	DashedName string
	ImageTag   string

	BuildContextPath string
	ContainerPort    int

	RuntimeRequirements RuntimeRequirements

	KubeNamespace      string
	KubeDeploymentName string
	KubeDeploymentFile string
	KubeServiceName    string
	KubeServiceFile    string
	KubeConfigsDir     string

	ImageProbeURL             string
	ImageProbeTimeoutSec      float64
	DeploymentProbeURL        string
	DeploymentProbeTimeoutSec float64

	ModelArgs []string
	BuildArgs map[string]string

	PipelineName string

	// SerializeConfig, when true, asks MakeFiles to dump the resolved
	// descriptor as deployment_config.json next to the build context.
	SerializeConfig bool
}

// RuntimeRequirements describes the container runtime a model needs at
// TestImage time (e.g. a GPU runtime and device index).
type RuntimeRequirements struct {
	Runtime     string
	DeviceIndex string
}
