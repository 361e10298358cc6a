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
	"context"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"github.com/deeppavlov/cluster-deployer/pkg/pipeline"
)

// Finish is always the terminal stage of every pipeline; it exists so the
// engine's routing algorithm has a uniform way to retire an item that
// completed its pipeline successfully.
type Finish struct{}

func (s *Finish) Name() string { return pipeline.Finish }

func (s *Finish) Act(ctx context.Context, item *deployitem.Item) ([]deployitem.LogRecord, error) {
	item.Finished = true
	return nil, nil
}
