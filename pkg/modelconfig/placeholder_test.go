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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFillDictPlaceholdersRecursive(t *testing.T) {
	in := map[string]any{
		"DOCKER_REGISTRY": "reg.example.com",
		"PREFIX":          "stand",
		"MODEL_NAME":      "ner_ru",
		"KUBER_IMAGE_TAG": "{{DOCKER_REGISTRY}}/{{PREFIX}}/{{MODEL_NAME}}",
	}

	got, err := fillDictPlaceholdersRecursive(in)
	if err != nil {
		t.Fatalf("fillDictPlaceholdersRecursive() error = %v", err)
	}

	want := "reg.example.com/stand/ner_ru"
	if diff := cmp.Diff(want, got["KUBER_IMAGE_TAG"]); diff != "" {
		t.Errorf("KUBER_IMAGE_TAG mismatch (-want +got):\n%s", diff)
	}
}

func TestFillDictPlaceholdersRecursiveChained(t *testing.T) {
	// NAME itself resolves from another placeholder before FULL_TAG's
	// reference to it is complete, exercising the fixed-point recursion.
	in := map[string]any{
		"NAME":     "{{BASE}}-suffix",
		"BASE":     "stand",
		"FULL_TAG": "{{NAME}}:latest",
	}

	got, err := fillDictPlaceholdersRecursive(in)
	if err != nil {
		t.Fatalf("fillDictPlaceholdersRecursive() error = %v", err)
	}

	if diff := cmp.Diff("stand-suffix:latest", got["FULL_TAG"]); diff != "" {
		t.Errorf("FULL_TAG mismatch (-want +got):\n%s", diff)
	}
}

func TestFillDictPlaceholdersRecursiveUnresolved(t *testing.T) {
	in := map[string]any{
		"FULL_TAG": "{{MISSING}}",
	}

	if _, err := fillDictPlaceholdersRecursive(in); err == nil {
		t.Fatal("fillDictPlaceholdersRecursive() expected an error for an unresolved placeholder, got nil")
	}
}

func TestFillPlaceholdersFromDictJSONEncodesLists(t *testing.T) {
	values := map[string]any{
		"MODEL_ARGS": []any{"x", "y"},
	}

	got, err := fillPlaceholdersFromDict("{{MODEL_ARGS}}", values)
	if err != nil {
		t.Fatalf("fillPlaceholdersFromDict() error = %v", err)
	}

	if diff := cmp.Diff(`["x","y"]`, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
