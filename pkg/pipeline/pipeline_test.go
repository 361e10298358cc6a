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

package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveAppendsFinish(t *testing.T) {
	got, err := Resolve("delete_kuber")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{DeleteKubernetes, Finish}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve(\"delete_kuber\") mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveUnknownPipeline(t *testing.T) {
	if _, err := Resolve("does_not_exist"); err == nil {
		t.Fatal("Resolve() expected an error for an unknown pipeline, got nil")
	}
}

func TestAllPresetStagesAreImplemented(t *testing.T) {
	for name := range presets {
		stages, err := Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", name, err)
		}
		if err := ValidateStageSet(stages); err != nil {
			t.Errorf("preset %q references an unimplemented stage: %v", name, err)
		}
	}
}
