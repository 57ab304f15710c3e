/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"fmt"
	"log/slog"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed schema/document.schema.json
var documentSchema []byte

// Schema returns the JSON schema documents are validated against.
func Schema() []byte { return append([]byte(nil), documentSchema...) }

// Validate checks raw document JSON against the schema and returns one
// message per violation. The error is set only when validation itself
// could not run, e.g. for malformed JSON.
func Validate(data []byte) ([]string, error) {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(documentSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("schema validate: %w", err)
	}
	if res.Valid() {
		return nil, nil
	}
	out := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		out = append(out, e.String())
	}
	return out, nil
}

func validateWarnings(data []byte, l *slog.Logger) []string {
	msgs, err := Validate(data)
	if err != nil {
		l.Warn("schema validation skipped", slog.Any("err", err))
		return nil
	}
	for _, m := range msgs {
		l.Warn("schema violation", slog.String("detail", m))
	}
	return msgs
}
