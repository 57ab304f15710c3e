/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package domain

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// IDPrefix is the TypeID prefix of generated element ids.
const IDPrefix = "el"

// NewID returns a fresh, sortable element id such as el_01h455vb4pex5vsknk084sn02q.
func NewID() string {
	return typeid.MustGenerate(IDPrefix).String()
}

// ValidateID checks that id is a generated element id. Documents from
// other tools may carry free-form ids; those stay valid element ids and
// only fail this check.
func ValidateID(id string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != IDPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", IDPrefix, parsed.Prefix(), id)
	}
	return nil
}
