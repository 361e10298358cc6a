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

package stage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeDeletePathRefusesRoot(t *testing.T) {
	if err := safeDeletePath("/"); err == nil {
		t.Fatal("safeDeletePath(\"/\") expected an error, got nil")
	}
}

func TestSafeDeletePathRemovesNonRoot(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "victim")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := safeDeletePath(target); err != nil {
		t.Fatalf("safeDeletePath() error = %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed, stat err = %v", target, err)
	}
}

func TestSafeDeletePathMissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	if err := safeDeletePath(filepath.Join(dir, "does-not-exist")); err != nil {
		t.Errorf("safeDeletePath() on a missing path error = %v, want nil", err)
	}
}
