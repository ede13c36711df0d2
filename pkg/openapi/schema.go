/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package openapi embeds the OpenAPI description of the search service's
// REST interface, and validates payloads against its schemas.
package openapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	// ErrSchemaNotFound is returned when a named schema does not exist.
	ErrSchemaNotFound = errors.New("schema not found")

	//go:embed server.spec.yaml
	spec []byte

	//nolint:gochecknoglobals
	loadOnce sync.Once
	//nolint:gochecknoglobals
	loaded *openapi3.T
	//nolint:gochecknoglobals
	loadErr error
)

// Spec returns the raw specification.
func Spec() []byte {
	return spec
}

// Load parses and validates the specification.  The result is cached.
func Load() (*openapi3.T, error) {
	loadOnce.Do(func() {
		loader := openapi3.NewLoader()

		doc, err := loader.LoadFromData(spec)
		if err != nil {
			loadErr = fmt.Errorf("loading specification: %w", err)
			return
		}

		if err := doc.Validate(context.Background()); err != nil {
			loadErr = fmt.Errorf("validating specification: %w", err)
			return
		}

		loaded = doc
	})

	return loaded, loadErr
}

// ValidateJSON checks a JSON document against the named component schema.
func ValidateJSON(schema string, data []byte) error {
	doc, err := Load()
	if err != nil {
		return err
	}

	ref, ok := doc.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		return fmt.Errorf("%w: %s", ErrSchemaNotFound, schema)
	}

	var value any

	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decoding %s: %w", schema, err)
	}

	if err := ref.Value.VisitJSON(value); err != nil {
		return fmt.Errorf("%s: %w", schema, err)
	}

	return nil
}
