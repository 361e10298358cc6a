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

package modelconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"sigs.k8s.io/yaml"
)

// RootConfig is the root document of a config directory: paths, registries,
// probe defaults, and the ambient resilience/notification sections.
type RootConfig struct {
	Paths struct {
		ModelsDir      string `json:"modelsDir"`
		TempDir        string `json:"tempDir"`
		KubeConfigsDir string `json:"kubeConfigsDir"`
		LogDir         string `json:"logDir"`
	} `json:"paths"`

	DockerDaemonURL   string `json:"dockerDaemonURL"`
	DockerRegistry    string `json:"dockerRegistry"`
	DockerHubRegistry string `json:"dockerHubRegistry"`

	Notification struct {
		SlackWebhookURL string `json:"slackWebhookURL"`
	} `json:"notification"`

	CircuitBreaker struct {
		FailureRatio   float64 `json:"failureRatio"`
		WindowSize     int     `json:"windowSize"`
		OpenTimeoutSec float64 `json:"openTimeoutSec"`
	} `json:"circuitBreaker"`
}

// Batch is everything the deployer needs to run a build: the root config,
// the model-group index, and every resolved ModelDescriptor keyed by full
// name.
type Batch struct {
	Root   RootConfig
	Groups map[string][]string
	Models map[string]*ModelDescriptor
}

var fullNamePattern = regexp.MustCompile(`^(.+?)_(.+)$`)

// LoadBatch mirrors make_config_from_files: it reads config.yaml,
// model_groups.yaml, templates.yaml and every file under models/ from
// configDir, optionally layers an override document on top, resolves each
// model against its template and the "_root" template's defaults, expands
// placeholders to a fixed point, and returns the fully-typed batch.
func LoadBatch(configDir, overridePath string) (*Batch, error) {
	root, err := readRootConfig(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		return nil, err
	}

	groups, err := readStringListMap(filepath.Join(configDir, "model_groups.yaml"))
	if err != nil {
		return nil, err
	}

	templates, err := readNestedMap(filepath.Join(configDir, "templates.yaml"))
	if err != nil {
		return nil, err
	}
	rootTemplate, ok := templates["_root"]
	if !ok {
		return nil, fmt.Errorf("templates.yaml: missing required \"_root\" template")
	}

	rawModels, err := readModelDescriptorDocs(filepath.Join(configDir, "models"))
	if err != nil {
		return nil, err
	}

	overrides := map[string]map[string]any{}
	if overridePath != "" {
		overrides, err = readNestedMap(overridePath)
		if err != nil {
			return nil, err
		}
	}

	models := make(map[string]*ModelDescriptor, len(rawModels))
	for fullName, modelParams := range rawModels {
		descriptor, err := resolveModel(fullName, modelParams, rootTemplate, templates, overrides)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", fullName, err)
		}
		if _, exists := models[descriptor.FullName]; exists {
			return nil, fmt.Errorf("duplicate model name %q", descriptor.FullName)
		}
		models[descriptor.FullName] = descriptor
	}

	return &Batch{Root: root, Groups: groups, Models: models}, nil
}

func resolveModel(fullName string, modelParams, rootTemplate map[string]any, templates map[string]map[string]any, overrides map[string]map[string]any) (*ModelDescriptor, error) {
	match := fullNamePattern.FindStringSubmatch(fullName)
	if match == nil {
		return nil, fmt.Errorf("full model name %q must be in <prefix>_<name> format", fullName)
	}

	merged := map[string]any{}
	for k, v := range rootTemplate {
		merged[k] = v
	}

	templateName, _ := modelParams["TEMPLATE"].(string)
	if templateName != "" {
		modelTemplate, ok := templates[templateName]
		if !ok {
			return nil, fmt.Errorf("unknown template %q", templateName)
		}
		for k, v := range modelTemplate {
			merged[k] = v
		}
	}

	for k, v := range modelParams {
		merged[k] = v
	}
	for k, v := range overrides[fullName] {
		merged[k] = v
	}

	merged["FULL_MODEL_NAME"] = fullName
	merged["PREFIX"] = match[1]
	merged["MODEL_NAME"] = match[2]

	expanded, err := fillDictPlaceholdersRecursive(merged)
	if err != nil {
		return nil, err
	}

	return descriptorFromResolvedFields(expanded)
}

func descriptorFromResolvedFields(fields map[string]any) (*ModelDescriptor, error) {
	required := func(key string) (string, error) {
		v, ok := fields[key].(string)
		if !ok || v == "" {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return v, nil
	}

	fullName, err := required("FULL_MODEL_NAME")
	if err != nil {
		return nil, err
	}
	imageTag, err := required("IMAGE_TAG")
	if err != nil {
		return nil, err
	}
	buildContextPath, err := required("BUILD_CONTEXT_PATH")
	if err != nil {
		return nil, err
	}

	modelName, err := required("MODEL_NAME")
	if err != nil {
		return nil, err
	}

	d := &ModelDescriptor{
		FullName:           fullName,
		ModelName:          modelName,
		DashedName:         dashify(fullName),
		ImageTag:           imageTag,
		BuildContextPath:   buildContextPath,
		KubeNamespace:      defaultString(stringField(fields, "KUBE_NAMESPACE"), "default"),
		KubeDeploymentName: stringField(fields, "KUBE_DEPLOYMENT_NAME"),
		KubeDeploymentFile: stringField(fields, "KUBE_DEPLOYMENT_FILE"),
		KubeServiceName:    stringField(fields, "KUBE_SERVICE_NAME"),
		KubeServiceFile:    stringField(fields, "KUBE_SERVICE_FILE"),
		KubeConfigsDir:     stringField(fields, "KUBE_CONFIGS_DIR"),
		ImageProbeURL:      stringField(fields, "IMAGE_PROBE_URL"),
		DeploymentProbeURL: stringField(fields, "DEPLOYMENT_PROBE_URL"),
		PipelineName:       stringField(fields, "PIPELINE"),
		RuntimeRequirements: RuntimeRequirements{
			Runtime:     stringField(fields, "GPU_RUNTIME"),
			DeviceIndex: stringField(fields, "GPU_DEVICE_INDEX"),
		},
		SerializeConfig: boolField(fields, "SERIALIZE_CONFIG"),
	}

	d.ContainerPort = intField(fields, "CONTAINER_PORT")
	d.ImageProbeTimeoutSec = floatField(fields, "IMAGE_PROBE_TIMEOUT_SEC")
	d.DeploymentProbeTimeoutSec = floatField(fields, "DEPLOYMENT_PROBE_TIMEOUT_SEC")
	d.ModelArgs = stringListField(fields, "MODEL_ARGS")
	d.BuildArgs = buildArgsFromFields(d, fields)

	return d, nil
}

func dashify(fullName string) string {
	out := make([]byte, len(fullName))
	for i := 0; i < len(fullName); i++ {
		if fullName[i] == '_' {
			out[i] = '-'
		} else {
			out[i] = fullName[i]
		}
	}
	return string(out)
}

func buildArgsFromFields(d *ModelDescriptor, fields map[string]any) map[string]string {
	args := map[string]string{
		"FULL_MODEL_NAME": d.FullName,
	}
	for _, key := range []string{"BASE_IMAGE", "COMMIT", "CONFIG", "RUN_CMD"} {
		if v := stringField(fields, key); v != "" {
			args[key] = v
		}
	}
	if len(d.ModelArgs) > 0 {
		if encoded, err := marshalStringList(d.ModelArgs); err == nil {
			args["MODEL_ARGS"] = encoded
		}
	}
	for k, v := range fields {
		if s, ok := v.(string); ok {
			if _, already := args[k]; !already && isBuildArgKey(k) {
				args[k] = s
			}
		}
	}
	return args
}

func isBuildArgKey(key string) bool {
	return len(key) > len("BUILD_ARG_") && key[:len("BUILD_ARG_")] == "BUILD_ARG_"
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func boolField(fields map[string]any, key string) bool {
	if v, ok := fields[key].(bool); ok {
		return v
	}
	return false
}

func intField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func floatField(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func stringListField(fields map[string]any, key string) []string {
	raw, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func readRootConfig(path string) (RootConfig, error) {
	var cfg RootConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading root config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing root config: %w", err)
	}
	return cfg, nil
}

func readStringListMap(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model groups: %w", err)
	}
	var groups map[string][]string
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parsing model groups: %w", err)
	}
	return groups, nil
}

func readNestedMap(path string) (map[string]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var m map[string]map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// readModelDescriptorDocs merges every file in modelsDir the way
// make_config_from_files iterates model_configs_path: each file is a
// mapping of full model name to its raw parameter document, and the
// resulting maps from all files are merged together.
func readModelDescriptorDocs(modelsDir string) (map[string]map[string]any, error) {
	entries, err := os.ReadDir(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("reading models directory: %w", err)
	}

	merged := map[string]map[string]any{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(modelsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading model descriptor file %s: %w", path, err)
		}
		var doc map[string]map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing model descriptor file %s: %w", path, err)
		}
		for fullName, params := range doc {
			if _, exists := merged[fullName]; exists {
				return nil, fmt.Errorf("duplicate model name %q across descriptor files", fullName)
			}
			merged[fullName] = params
		}
	}
	return merged, nil
}
