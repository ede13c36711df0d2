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

package fake

import (
	"maps"
	"slices"
	"strings"
	"time"
)

type record = map[string]any

// index is the published state of an index.
type index struct {
	objects   map[string]record
	createdAt time.Time
	updatedAt time.Time
}

func newIndex(now time.Time) *index {
	return &index{
		objects:   map[string]record{},
		createdAt: now,
		updatedAt: now,
	}
}

func (i *index) clone(now time.Time) *index {
	out := newIndex(now)

	for id, object := range i.objects {
		out.objects[id] = maps.Clone(object)
	}

	return out
}

// sortedIDs gives searches a stable order.
func (i *index) sortedIDs() []string {
	return slices.Sorted(maps.Keys(i.objects))
}

// task is a queued mutation that is applied when published.
type task struct {
	polls     int
	published bool
	apply     func(now time.Time)
}

type taskKey struct {
	index string
	id    int64
}

// matches implements a case insensitive substring match over string
// attribute values, the empty query matches everything.
func matches(object record, query string) bool {
	if query == "" {
		return true
	}

	query = strings.ToLower(query)

	for _, value := range object {
		if s, ok := value.(string); ok && strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}

	return false
}

// filtered implements conjunctions of "attribute:value" terms.
func filtered(object record, filters string) bool {
	if filters == "" {
		return true
	}

	for _, term := range strings.Split(filters, " AND ") {
		attribute, value, ok := strings.Cut(strings.TrimSpace(term), ":")
		if !ok {
			return false
		}

		s, ok := object[attribute].(string)
		if !ok || s != strings.Trim(value, `"`) {
			return false
		}
	}

	return true
}

func retrieve(object record, attributes []string) record {
	if len(attributes) == 0 {
		return maps.Clone(object)
	}

	out := record{
		"objectID": object["objectID"],
	}

	for _, attribute := range attributes {
		if value, ok := object[attribute]; ok {
			out[attribute] = value
		}
	}

	return out
}
