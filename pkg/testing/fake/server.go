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

// Package fake provides an in-memory stand in for the search service, for
// use in tests.  Mutations are queued as tasks and only applied once a
// client has polled the task status a configurable number of times, so
// clients that read their own writes without waiting will notice.
package fake

import (
	"encoding/json"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unikorn-cloud/search/pkg/constants"
	"github.com/unikorn-cloud/search/pkg/openapi"
	"github.com/unikorn-cloud/search/pkg/transport"
)

const (
	// listPageSize is the number of indexes per page of a listing.
	listPageSize = 100

	// defaultHitsPerPage is used when a query does not specify a page size.
	defaultHitsPerPage = 20
)

// Server is a fake search service.
type Server struct {
	lock sync.Mutex

	credentials  transport.Credentials
	publishAfter int
	now          func() time.Time

	indexes      map[string]*index
	tasks        map[taskKey]*task
	nextTaskID   int64
	nextObjectID int64
	statusPolls  int

	server *httptest.Server
}

// Option customizes a server.
type Option func(*Server)

// WithPublishAfter sets how many times a task's status is reported as not
// published before it is published.
func WithPublishAfter(polls int) Option {
	return func(s *Server) {
		s.publishAfter = polls
	}
}

// WithCredentials sets the credentials the server accepts.
func WithCredentials(credentials transport.Credentials) Option {
	return func(s *Server) {
		s.credentials = credentials
	}
}

// New starts a new server, close it when done.
func New(options ...Option) *Server {
	s := &Server{
		credentials: transport.Credentials{
			ApplicationID: "fake-application",
			APIKey:        "fake-key",
		},
		publishAfter: 1,
		now:          time.Now,
		indexes:      map[string]*index{},
		tasks:        map[taskKey]*task{},
	}

	for _, option := range options {
		option(s)
	}

	s.server = httptest.NewServer(s.Handler())

	return s
}

// URL is the base URL of the server.
func (s *Server) URL() string {
	return s.server.URL
}

// Credentials returns credentials the server accepts.
func (s *Server) Credentials() transport.Credentials {
	return s.credentials
}

// Close shuts down the server.
func (s *Server) Close() {
	s.server.Close()
}

// StatusPolls returns the number of task status requests served.
func (s *Server) StatusPolls() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.statusPolls
}

// Pending returns the number of unpublished tasks.
func (s *Server) Pending() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	pending := 0

	for _, t := range s.tasks {
		if !t.published {
			pending++
		}
	}

	return pending
}

// PublishAll publishes every pending task in the order they were issued.
func (s *Server) PublishAll() {
	s.lock.Lock()
	defer s.lock.Unlock()

	keys := slices.SortedFunc(maps.Keys(s.tasks), func(a, b taskKey) int {
		return int(a.id - b.id)
	})

	for _, key := range keys {
		s.publish(s.tasks[key])
	}
}

// Handler returns the HTTP handler implementing the service.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(s.authenticate)

	router.Get("/indexes", s.listIndexes)
	router.Post("/indexes/{indexName}", s.addObject)
	router.Delete("/indexes/{indexName}", s.deleteIndex)
	router.Post("/indexes/{indexName}/operation", s.operation)
	router.Post("/indexes/{indexName}/batch", s.batch)
	router.Post("/indexes/{indexName}/clear", s.clear)
	router.Post("/indexes/{indexName}/query", s.query)
	router.Get("/indexes/{indexName}/task/{taskID}", s.taskStatus)
	router.Get("/indexes/{indexName}/{objectID}", s.getObject)
	router.Put("/indexes/{indexName}/{objectID}", s.saveObject)
	router.Delete("/indexes/{indexName}/{objectID}", s.deleteObject)

	return router
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"message": message,
		"status":  status,
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(constants.ApplicationIDHeader) != s.credentials.ApplicationID || r.Header.Get(constants.APIKeyHeader) != s.credentials.APIKey {
			writeError(w, http.StatusForbidden, "Invalid Application-ID or API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// param returns a decoded path parameter.  Routing is done on the escaped
// path when there is one, so escaped slashes stay within a segment.
func param(r *http.Request, name string) (string, bool) {
	value := chi.URLParam(r, name)

	if r.URL.RawPath == "" {
		return value, value != ""
	}

	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", false
	}

	return decoded, decoded != ""
}

// readBody reads a request body and validates it against a schema.
func readBody(w http.ResponseWriter, r *http.Request, schema string, out any) bool {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}

	if err := openapi.ValidateJSON(schema, data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}

	return true
}

func (s *Server) indexName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, ok := param(r, "indexName")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid index name")
	}

	return name, ok
}

// enqueue registers a mutation on an index, and returns its task ID.
// Callers must hold the lock.
func (s *Server) enqueue(name string, apply func(now time.Time)) int64 {
	s.nextTaskID++

	s.tasks[taskKey{index: name, id: s.nextTaskID}] = &task{
		apply: apply,
	}

	return s.nextTaskID
}

// publish applies a task's mutation exactly once.  Callers must hold the lock.
func (s *Server) publish(t *task) {
	if t.published {
		return
	}

	t.published = true
	t.apply(s.now())
}

// pendingFor reports whether an index has unpublished tasks.  Callers must
// hold the lock.
func (s *Server) pendingFor(name string) bool {
	for key, t := range s.tasks {
		if key.index == name && !t.published {
			return true
		}
	}

	return false
}

// upsert returns a mutation that writes objects, creating the index if
// required.
func (s *Server) upsert(name string, objects ...record) func(time.Time) {
	return func(now time.Time) {
		idx, ok := s.indexes[name]
		if !ok {
			idx = newIndex(now)
			s.indexes[name] = idx
		}

		for _, object := range objects {
			id, _ := object["objectID"].(string)
			idx.objects[id] = object
		}

		idx.updatedAt = now
	}
}

func (s *Server) newObjectID(object record) string {
	if id, ok := object["objectID"].(string); ok && id != "" {
		return id
	}

	s.nextObjectID++

	id := strconv.FormatInt(s.nextObjectID, 10)
	object["objectID"] = id

	return id
}

func (s *Server) listIndexes(w http.ResponseWriter, r *http.Request) {
	page := 0

	if value := r.URL.Query().Get("page"); value != "" {
		p, err := strconv.Atoi(value)
		if err != nil || p < 0 {
			writeError(w, http.StatusBadRequest, "Invalid page")
			return
		}

		page = p
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	names := slices.Sorted(maps.Keys(s.indexes))

	nbPages := max((len(names)+listPageSize-1)/listPageSize, 1)

	items := []map[string]any{}

	start := page * listPageSize

	for _, name := range names[min(start, len(names)):min(start+listPageSize, len(names))] {
		idx := s.indexes[name]

		items = append(items, map[string]any{
			"name":           name,
			"entries":        len(idx.objects),
			"dataSize":       0,
			"createdAt":      idx.createdAt,
			"updatedAt":      idx.updatedAt,
			"lastBuildTimeS": 0,
			"pendingTask":    s.pendingFor(name),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":   items,
		"nbPages": nbPages,
	})
}

func (s *Server) addObject(w http.ResponseWriter, r *http.Request) {
	name, ok := s.indexName(w, r)
	if !ok {
		return
	}

	var object record

	if !readBody(w, r, "record", &object) {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	id := s.newObjectID(object)
	taskID := s.enqueue(name, s.upsert(name, object))

	writeJSON(w, http.StatusCreated, map[string]any{
		"objectID":  id,
		"taskID":    taskID,
		"createdAt": s.now(),
	})
}

func (s *Server) saveObject(w http.ResponseWriter, r *http.Request) {
	name, ok := s.indexName(w, r)
	if !ok {
		return
	}

	id, ok := param(r, "objectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid objectID")
		return
	}

	var object record

	if !readBody(w, r, "record", &object) {
		return
	}

	object["objectID"] = id

	s.lock.Lock()
	defer s.lock.Unlock()

	taskID := s.enqueue(name, s.upsert(name, object))

	writeJSON(w, http.StatusOK, map[string]any{
		"objectID":  id,
		"taskID":    taskID,
		"updatedAt": s.now(),
	})
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) {
	name, ok := s.indexName(w, r)
	if !ok {
		return
	}

	var request struct {
		Requests []struct {
			Body record `json:"body"`
		} `json:"requests"`
	}

	if !readBody(w, r, "batchRequest", &request) {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	ids := make([]string, len(request.Requests))
	objects := make([]record, len(request.Requests))

	for i := range request.Requests {
		objects[i] = request.Requests[i].Body
		ids[i] = s.newObjectID(objects[i])
	}

	taskID := s.enqueue(name, s.upsert(name, objects...))

	writeJSON(w, http.StatusOK, map[string]any{
		"objectIDs": ids,
		"taskID":    taskID,
	})
}

func (s *Server) getObject(w http.ResponseWriter, r *http.Request) {
	name, ok := s.indexName(w, r)
	if !ok {
		return
	}

	id, ok := param(r, "objectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid objectID")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	idx, ok := s.indexes[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Index does not exist")
		return
	}

	object, ok := idx.objects[id]
	if !ok {
		writeError(w, http.StatusNotFound, "ObjectID does not exist")
		return
	}

	writeJSON(w, http.StatusOK, object)
}

func (s *Server) deleteObject(w http.ResponseWriter, r *http.Request) {
	name, ok := s.indexName(w, r)
	if !ok {
		return
	}

	id, ok := param(r, "objectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid objectID")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.indexes[name]; !ok && !s.pendingFor(name) {
		writeError(w, http.StatusNotFound, "Index does not exist")
		return
	}

	taskID := s.enqueue(name, func(now time.Time) {
		if idx, ok := s.indexes[name]; ok {
			delete(idx.objects, id)
			idx.updatedAt = now
		}
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"taskID":    taskID,
		"deletedAt": s.now(),
	})
}

func (s *Server) deleteIndex(w http.ResponseWriter, r *http.Request) {
	name, ok := s.indexName(w, r)
	if !ok {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.indexes[name]; !ok && !s.pendingFor(name) {
		writeError(w, http.StatusNotFound, "Index does not exist")
		return
	}

	taskID := s.enqueue(name, func(time.Time) {
		delete(s.indexes, name)
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"taskID":    taskID,
		"deletedAt": s.now(),
	})
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	name, ok := s.indexName(w, r)
	if !ok {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.indexes[name]; !ok && !s.pendingFor(name) {
		writeError(w, http.StatusNotFound, "Index does not exist")
		return
	}

	taskID := s.enqueue(name, func(now time.Time) {
		if idx, ok := s.indexes[name]; ok {
			idx.objects = map[string]record{}
			idx.updatedAt = now
		}
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"taskID":    taskID,
		"updatedAt": s.now(),
	})
}

func (s *Server) operation(w http.ResponseWriter, r *http.Request) {
	name, ok := s.indexName(w, r)
	if !ok {
		return
	}

	var request struct {
		Operation   string `json:"operation"`
		Destination string `json:"destination"`
	}

	if !readBody(w, r, "indexOperation", &request) {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.indexes[name]; !ok {
		writeError(w, http.StatusNotFound, "Index does not exist")
		return
	}

	taskID := s.enqueue(name, func(now time.Time) {
		src, ok := s.indexes[name]
		if !ok {
			return
		}

		if request.Operation == "move" {
			src.updatedAt = now
			s.indexes[request.Destination] = src

			delete(s.indexes, name)

			return
		}

		s.indexes[request.Destination] = src.clone(now)
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"taskID":    taskID,
		"updatedAt": s.now(),
	})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	name, ok := s.indexName(w, r)
	if !ok {
		return
	}

	var request struct {
		Params string `json:"params"`
	}

	if !readBody(w, r, "queryRequest", &request) {
		return
	}

	params, err := url.ParseQuery(request.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid params")
		return
	}

	page, _ := strconv.Atoi(params.Get("page"))
	hitsPerPage := defaultHitsPerPage

	if value := params.Get("hitsPerPage"); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			hitsPerPage = n
		}
	}

	var attributes []string

	if value := params.Get("attributesToRetrieve"); value != "" {
		attributes = strings.Split(value, ",")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	idx, ok := s.indexes[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Index does not exist")
		return
	}

	var matched []record

	for _, id := range idx.sortedIDs() {
		object := idx.objects[id]

		if matches(object, params.Get("query")) && filtered(object, params.Get("filters")) {
			matched = append(matched, object)
		}
	}

	hits := []record{}

	start := page * hitsPerPage

	for _, object := range matched[min(start, len(matched)):min(start+hitsPerPage, len(matched))] {
		hits = append(hits, retrieve(object, attributes))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"nbHits":      len(matched),
		"page":        page,
		"nbPages":     (len(matched) + hitsPerPage - 1) / hitsPerPage,
		"hitsPerPage": hitsPerPage,
		"hits":        hits,
		"query":       params.Get("query"),
		"params":      request.Params,
	})
}

func (s *Server) taskStatus(w http.ResponseWriter, r *http.Request) {
	name, ok := s.indexName(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid taskID")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.statusPolls++

	t, ok := s.tasks[taskKey{index: name, id: id}]
	if !ok {
		writeError(w, http.StatusNotFound, "Task does not exist")
		return
	}

	if !t.published {
		t.polls++

		if t.polls > s.publishAfter {
			s.publish(t)
		}
	}

	status := "notPublished"
	if t.published {
		status = "published"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
	})
}
