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

package api

import (
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/unikorn-cloud/search/pkg/search"
)

func generateRandomName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

func GenerateTestID() string {
	return generateRandomName("test")
}

// RecordBuilder builds records for testing.
type RecordBuilder struct {
	record search.Record
}

// NewRecord creates a record builder with a default city.
func NewRecord() *RecordBuilder {
	return &RecordBuilder{
		record: search.Record{
			"city":    "San Francisco",
			"country": "US",
		},
	}
}

// WithObjectID sets the object ID, otherwise the service assigns one.
func (b *RecordBuilder) WithObjectID(objectID string) *RecordBuilder {
	b.record[search.ObjectIDAttribute] = objectID

	return b
}

// WithCity sets the city.
func (b *RecordBuilder) WithCity(city, country string) *RecordBuilder {
	b.record["city"] = city
	b.record["country"] = country

	return b
}

// WithAttribute sets an arbitrary attribute.
func (b *RecordBuilder) WithAttribute(name string, value any) *RecordBuilder {
	b.record[name] = value

	return b
}

// Build returns a copy of the record so the builder may be reused.
func (b *RecordBuilder) Build() search.Record {
	return maps.Clone(b.record)
}
