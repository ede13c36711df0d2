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

package search

import (
	"net/url"
	"strconv"
	"strings"
)

// Record is a single JSON document stored in an index.
type Record map[string]any

// ObjectIDAttribute is the attribute that uniquely identifies a record
// within an index.
const ObjectIDAttribute = "objectID"

// ObjectID returns the record's identifier, or the empty string if it has
// none yet.
func (r Record) ObjectID() string {
	id, _ := r[ObjectIDAttribute].(string)

	return id
}

// Query describes a search.  The zero value matches every record.
type Query struct {
	// Query is the full text to search for.
	Query string
	// Page is the zero indexed page of results to return.
	Page *int
	// HitsPerPage limits the number of hits per page.
	HitsPerPage *int
	// AttributesToRetrieve limits the attributes returned for each hit.
	AttributesToRetrieve []string
	// Filters is a conjunction of "attribute:value" terms joined by AND.
	Filters string
}

// Encode returns the URL encoded form the service expects in the
// "params" attribute of a query request.
func (q *Query) Encode() string {
	if q == nil {
		return ""
	}

	values := url.Values{}

	if q.Query != "" {
		values.Set("query", q.Query)
	}

	if q.Page != nil {
		values.Set("page", strconv.Itoa(*q.Page))
	}

	if q.HitsPerPage != nil {
		values.Set("hitsPerPage", strconv.Itoa(*q.HitsPerPage))
	}

	if len(q.AttributesToRetrieve) > 0 {
		values.Set("attributesToRetrieve", strings.Join(q.AttributesToRetrieve, ","))
	}

	if q.Filters != "" {
		values.Set("filters", q.Filters)
	}

	return values.Encode()
}

// queryRequest is the body of a search request.
type queryRequest struct {
	Params string `json:"params"`
}

// SearchResult is a page of search results.
type SearchResult struct {
	// NbHits is the total number of matches across all pages.
	NbHits int `json:"nbHits"`
	// Page is the zero indexed page returned.
	Page int `json:"page"`
	// NbPages is the total number of pages.
	NbPages int `json:"nbPages"`
	// HitsPerPage is the page size used.
	HitsPerPage int `json:"hitsPerPage"`
	// Hits are the matching records for this page.
	Hits []Record `json:"hits"`
	// Query is the full text query as understood by the service.
	Query string `json:"query"`
	// Params echoes the encoded query parameters.
	Params string `json:"params"`
}
