/*
Copyright 2024-2025 the Unikorn Authors.
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

package search

import (
	"fmt"

	"github.com/oapi-codegen/runtime"

	"github.com/unikorn-cloud/search/pkg/errors"
)

// pathParam styles a single path segment, percent-encoding reserved and
// non-ASCII characters so e.g. "a/b?c" stays one segment.
func pathParam(name string, value any) (string, error) {
	p, err := runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}

	return p, nil
}

// invalidPath reports a path that could not be built as a validation error.
func invalidPath(field string, err error) error {
	if errors.IsValidation(err) {
		return err
	}

	return errors.NewValidationError(field, err.Error())
}

// Endpoints contains all API endpoint patterns.
type Endpoints struct{}

// NewEndpoints creates a new Endpoints instance.
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

// Account level endpoints.
func (e *Endpoints) ListIndexes() string {
	return "/indexes"
}

func (e *Endpoints) Index(indexName string) (string, error) {
	if indexName == "" {
		return "", errors.NewValidationError("index name", "must not be empty")
	}

	p, err := pathParam("indexName", indexName)
	if err != nil {
		return "", err
	}

	return "/indexes/" + p, nil
}

func (e *Endpoints) Operation(indexName string) (string, error) {
	return e.indexSubresource(indexName, "operation")
}

// Object level endpoints.
func (e *Endpoints) Object(indexName, objectID string) (string, error) {
	base, err := e.Index(indexName)
	if err != nil {
		return "", err
	}

	id, err := pathParam("objectID", objectID)
	if err != nil {
		return "", err
	}

	return base + "/" + id, nil
}

func (e *Endpoints) Batch(indexName string) (string, error) {
	return e.indexSubresource(indexName, "batch")
}

func (e *Endpoints) Clear(indexName string) (string, error) {
	return e.indexSubresource(indexName, "clear")
}

func (e *Endpoints) Query(indexName string) (string, error) {
	return e.indexSubresource(indexName, "query")
}

// Task endpoints.
func (e *Endpoints) Task(indexName string, taskID TaskID) (string, error) {
	base, err := e.Index(indexName)
	if err != nil {
		return "", err
	}

	id, err := pathParam("taskID", int64(taskID))
	if err != nil {
		return "", err
	}

	return base + "/task/" + id, nil
}

func (e *Endpoints) indexSubresource(indexName, resource string) (string, error) {
	base, err := e.Index(indexName)
	if err != nil {
		return "", err
	}

	return base + "/" + resource, nil
}
