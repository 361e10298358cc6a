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

// Package deployitem defines the unit of work the deployer engine routes
// between stage workers, and the log records stages emit along the way.
package deployitem

import "github.com/deeppavlov/cluster-deployer/pkg/modelconfig"

// Level is the severity of a LogRecord.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// LogRecord is produced by a stage or by the engine and consumed only by the
// logging fabric. It is always attributed to exactly one model.
type LogRecord struct {
	ModelName string
	Level     Level
	Message   string
	Extended  string
}

// Item is the record routed through the engine. The engine owns Remaining;
// the stage currently holding the item owns ExtendedInfo and may set
// Finished to retire the item (the Finish stage on success, the worker
// boundary on error).
type Item struct {
	ModelName    string
	Descriptor   *modelconfig.ModelDescriptor
	PipelineName string
	Remaining    []string
	Finished     bool
	ExtendedInfo string
}

// PopStage removes and returns the next stage identifier from the item's
// remaining pipeline. Callers must ensure Remaining is non-empty first.
func (it *Item) PopStage() string {
	s := it.Remaining[0]
	it.Remaining = it.Remaining[1:]
	return s
}
