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
	"encoding/json"
	"fmt"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z_]+)\}\}`)

// fillPlaceholdersFromDict substitutes every {{NAME}} occurrence in in with
// values[NAME]. List and map values are JSON-encoded; everything else is
// rendered with its natural string form.
func fillPlaceholdersFromDict(in string, values map[string]any) (string, error) {
	var lookupErr error
	out := placeholderPattern.ReplaceAllStringFunc(in, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := values[name]
		if !ok {
			lookupErr = fmt.Errorf("unresolved placeholder %q", name)
			return match
		}
		return stringifyPlaceholderValue(value)
	})
	if lookupErr != nil {
		return "", lookupErr
	}
	return out, nil
}

// marshalStringList JSON-encodes a string list the way BuildImage's
// MODEL_ARGS build argument is encoded (see fill_placeholders_from_dict's
// treatment of list-typed values).
func marshalStringList(values []string) (string, error) {
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func stringifyPlaceholderValue(value any) string {
	switch value.(type) {
	case []any, map[string]any:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// fillDictPlaceholdersRecursive expands every string value of in against in
// itself, repeating until no value still contains a {{...}} pattern
// (detected by searching the post-substitution output, not by counting
// passes), mirroring fill_dict_placeholders_recursive's fixed-point
// convergence.
func fillDictPlaceholdersRecursive(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	completed := true

	for key, value := range in {
		str, ok := value.(string)
		if !ok {
			out[key] = value
			continue
		}
		expanded, err := fillPlaceholdersFromDict(str, in)
		if err != nil {
			return nil, err
		}
		out[key] = expanded
		if placeholderPattern.MatchString(expanded) {
			completed = false
		}
	}

	if completed {
		return out, nil
	}
	return fillDictPlaceholdersRecursive(out)
}
