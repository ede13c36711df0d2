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
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/unikorn-cloud/search/pkg/errors"
)

// Index is a handle on a named collection of records.  Handles are cheap,
// and many may refer to the same index.
type Index struct {
	client *Client
	name   string
}

// Name returns the index name.
func (i *Index) Name() string {
	return i.name
}

type objectResponse struct {
	ObjectID string `json:"objectID"`
	TaskID   TaskID `json:"taskID"`
}

type batchOperation struct {
	Action string `json:"action"`
	Body   Record `json:"body"`
}

type batchRequest struct {
	Requests []batchOperation `json:"requests"`
}

type batchResponse struct {
	ObjectIDs []string `json:"objectIDs"`
	TaskID    TaskID   `json:"taskID"`
}

type taskStatusResponse struct {
	Status TaskStatus `json:"status"`
}

func (i *Index) path() (string, error) {
	path, err := i.client.endpoints.Index(i.name)
	if err != nil {
		return "", invalidPath("index name", err)
	}

	return path, nil
}

func (i *Index) objectPath(objectID string) (string, error) {
	if objectID == "" {
		return "", errors.NewValidationError(ObjectIDAttribute, "must not be empty")
	}

	path, err := i.client.endpoints.Object(i.name, objectID)
	if err != nil {
		return "", invalidPath(ObjectIDAttribute, err)
	}

	return path, nil
}

func (i *Index) task(id TaskID) Task {
	return Task{index: i, ID: id}
}

// do performs a request and decodes the response.
func (i *Index) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := i.client.transport.Do(ctx, method, path, body)
	if err != nil {
		return err
	}

	return decodeResponse(resp, out)
}

// AddObject adds a record, the service assigns an object ID if the record
// does not have one.
func (i *Index) AddObject(ctx context.Context, record Record) (*ObjectTask, error) {
	if record == nil {
		return nil, errors.NewValidationError("record", "must not be nil")
	}

	path, err := i.path()
	if err != nil {
		return nil, err
	}

	result := &objectResponse{}

	if err := i.do(ctx, http.MethodPost, path, record, result); err != nil {
		return nil, fmt.Errorf("adding object to index %q: %w", i.name, err)
	}

	return &ObjectTask{Task: i.task(result.TaskID), ObjectID: result.ObjectID}, nil
}

// SaveObject creates or replaces the record identified by its object ID.
func (i *Index) SaveObject(ctx context.Context, record Record) (*ObjectTask, error) {
	if record == nil {
		return nil, errors.NewValidationError("record", "must not be nil")
	}

	path, err := i.objectPath(record.ObjectID())
	if err != nil {
		return nil, err
	}

	result := &objectResponse{}

	if err := i.do(ctx, http.MethodPut, path, record, result); err != nil {
		return nil, fmt.Errorf("saving object %q to index %q: %w", record.ObjectID(), i.name, err)
	}

	return &ObjectTask{Task: i.task(result.TaskID), ObjectID: result.ObjectID}, nil
}

// AddObjects adds records in a single batch, which is published as one task.
func (i *Index) AddObjects(ctx context.Context, records []Record) (*BatchTask, error) {
	if len(records) == 0 {
		return nil, errors.NewValidationError("records", "must not be empty")
	}

	request := &batchRequest{
		Requests: make([]batchOperation, len(records)),
	}

	for n, record := range records {
		if record == nil {
			return nil, errors.NewValidationError(fmt.Sprintf("records[%d]", n), "must not be nil")
		}

		request.Requests[n] = batchOperation{
			Action: "addObject",
			Body:   record,
		}
	}

	path, err := i.client.endpoints.Batch(i.name)
	if err != nil {
		return nil, invalidPath("index name", err)
	}

	result := &batchResponse{}

	if err := i.do(ctx, http.MethodPost, path, request, result); err != nil {
		return nil, fmt.Errorf("adding %d objects to index %q: %w", len(records), i.name, err)
	}

	return &BatchTask{Task: i.task(result.TaskID), ObjectIDs: result.ObjectIDs}, nil
}

// GetObject returns the record with the given object ID.
func (i *Index) GetObject(ctx context.Context, objectID string) (Record, error) {
	path, err := i.objectPath(objectID)
	if err != nil {
		return nil, err
	}

	var record Record

	if err := i.do(ctx, http.MethodGet, path, nil, &record); err != nil {
		return nil, fmt.Errorf("getting object %q from index %q: %w", objectID, i.name, err)
	}

	return record, nil
}

// DeleteObject deletes the record with the given object ID.
func (i *Index) DeleteObject(ctx context.Context, objectID string) (*Task, error) {
	path, err := i.objectPath(objectID)
	if err != nil {
		return nil, err
	}

	result := &taskResponse{}

	if err := i.do(ctx, http.MethodDelete, path, nil, result); err != nil {
		return nil, fmt.Errorf("deleting object %q from index %q: %w", objectID, i.name, err)
	}

	task := i.task(result.TaskID)

	return &task, nil
}

// Clear deletes every record, but keeps the index and its settings.
func (i *Index) Clear(ctx context.Context) (*Task, error) {
	path, err := i.client.endpoints.Clear(i.name)
	if err != nil {
		return nil, invalidPath("index name", err)
	}

	result := &taskResponse{}

	if err := i.do(ctx, http.MethodPost, path, nil, result); err != nil {
		return nil, fmt.Errorf("clearing index %q: %w", i.name, err)
	}

	task := i.task(result.TaskID)

	return &task, nil
}

// Search runs a query.  Only the effects of published tasks are visible.
func (i *Index) Search(ctx context.Context, query *Query) (*SearchResult, error) {
	path, err := i.client.endpoints.Query(i.name)
	if err != nil {
		return nil, invalidPath("index name", err)
	}

	request := &queryRequest{
		Params: query.Encode(),
	}

	result := &SearchResult{}

	if err := i.do(ctx, http.MethodPost, path, request, result); err != nil {
		return nil, fmt.Errorf("searching index %q: %w", i.name, err)
	}

	return result, nil
}

// TaskStatus returns the current status of a task without waiting.
func (i *Index) TaskStatus(ctx context.Context, id TaskID) (TaskStatus, error) {
	if id == NoTask {
		return TaskPublished, nil
	}

	path, err := i.client.endpoints.Task(i.name, id)
	if err != nil {
		return "", invalidPath("task ID", err)
	}

	result := &taskStatusResponse{}

	if err := i.do(ctx, http.MethodGet, path, nil, result); err != nil {
		return "", fmt.Errorf("getting status of task %d on index %q: %w", id, i.name, err)
	}

	return result.Status, nil
}

// WaitTask blocks until the task is published, see Poller.Wait.
func (i *Index) WaitTask(ctx context.Context, id TaskID) error {
	return i.client.poller.Wait(ctx, i, id)
}

// WaitTasks waits for each task independently, as publication order is not
// guaranteed.  The first error cancels the remaining waits.
func (i *Index) WaitTasks(ctx context.Context, ids ...TaskID) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, id := range ids {
		group.Go(func() error {
			return i.WaitTask(groupCtx, id)
		})
	}

	return group.Wait()
}
