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
	"net/url"
	"strconv"
	"time"

	"github.com/unikorn-cloud/search/pkg/errors"
	"github.com/unikorn-cloud/search/pkg/transport"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// IndexInfo describes an index visible to the client's credentials.
type IndexInfo struct {
	Name           string    `json:"name"`
	Entries        int64     `json:"entries"`
	DataSize       int64     `json:"dataSize"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	LastBuildTimeS int64     `json:"lastBuildTimeS"`
	PendingTask    bool      `json:"pendingTask"`
}

type listIndexesResponse struct {
	Items   []IndexInfo `json:"items"`
	NbPages int         `json:"nbPages"`
}

// Operation is an index level copy or move.
type Operation string

const (
	OperationMove Operation = "move"
	OperationCopy Operation = "copy"
)

type operationRequest struct {
	Operation   Operation `json:"operation"`
	Destination string    `json:"destination"`
}

// Client provides access to account level operations, and is a factory for
// index handles.  It holds no mutable state and may be shared between
// goroutines.
type Client struct {
	// transport performs the actual requests.
	transport transport.Interface

	// endpoints builds request paths.
	endpoints *Endpoints

	// poller waits for tasks.
	poller *Poller
}

// New returns a client that talks HTTP to the service.
func New(credentials transport.Credentials, options *Options) (*Client, error) {
	if options == nil {
		options = &Options{}
	}

	t, err := transport.New(credentials, &options.Transport)
	if err != nil {
		return nil, err
	}

	return NewWithTransport(t, options), nil
}

// NewWithTransport returns a client using the provided transport.
func NewWithTransport(t transport.Interface, options *Options) *Client {
	return &Client{
		transport: t,
		endpoints: NewEndpoints(),
		poller:    NewPoller(options),
	}
}

// Index returns a handle for the named index.  No request is made, and the
// index need not exist.
func (c *Client) Index(name string) *Index {
	return &Index{
		client: c,
		name:   name,
	}
}

func (c *Client) listIndexesPage(ctx context.Context, page int) (*listIndexesResponse, error) {
	path := c.endpoints.ListIndexes()

	if page > 0 {
		path += "?" + url.Values{"page": []string{strconv.Itoa(page)}}.Encode()
	}

	resp, err := c.transport.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	result := &listIndexesResponse{}

	if err := decodeResponse(resp, result); err != nil {
		return nil, err
	}

	return result, nil
}

// ListIndexes returns every index visible to the client, following
// pagination.  The order is unspecified.
func (c *Client) ListIndexes(ctx context.Context) ([]IndexInfo, error) {
	var indexes []IndexInfo

	for page := 0; ; page++ {
		result, err := c.listIndexesPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("listing indexes: %w", err)
		}

		indexes = append(indexes, result.Items...)

		if page+1 >= result.NbPages {
			break
		}
	}

	return indexes, nil
}

// IndexExists reports whether the named index is visible to the client.
func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	indexes, err := c.ListIndexes(ctx)
	if err != nil {
		return false, err
	}

	for i := range indexes {
		if indexes[i].Name == name {
			return true, nil
		}
	}

	return false, nil
}

// DeleteIndex deletes the named index.  Deleting an index that does not
// exist succeeds, and the returned task is already complete.
func (c *Client) DeleteIndex(ctx context.Context, name string) (*Task, error) {
	index := c.Index(name)

	path, err := c.endpoints.Index(name)
	if err != nil {
		return nil, invalidPath("index name", err)
	}

	resp, err := c.transport.Do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, fmt.Errorf("deleting index %q: %w", name, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		log.FromContext(ctx).V(1).Info("index already absent", "index", name)

		return &Task{index: index, ID: NoTask}, nil
	}

	result := &taskResponse{}

	if err := decodeResponse(resp, result); err != nil {
		return nil, fmt.Errorf("deleting index %q: %w", name, err)
	}

	return &Task{index: index, ID: result.TaskID}, nil
}

// MoveIndex renames src to dst, replacing any existing dst.  The task is
// issued by, and must be waited for on, the source index.
func (c *Client) MoveIndex(ctx context.Context, src, dst string) (*Task, error) {
	return c.operation(ctx, OperationMove, src, dst)
}

// CopyIndex copies src to dst, replacing any existing dst.  The task is
// issued by, and must be waited for on, the source index.
func (c *Client) CopyIndex(ctx context.Context, src, dst string) (*Task, error) {
	return c.operation(ctx, OperationCopy, src, dst)
}

func (c *Client) operation(ctx context.Context, operation Operation, src, dst string) (*Task, error) {
	if src == "" {
		return nil, errors.NewValidationError("source index", "must not be empty")
	}

	if dst == "" {
		return nil, errors.NewValidationError("destination index", "must not be empty")
	}

	if src == dst {
		return nil, errors.NewValidationError("destination index", "must differ from the source")
	}

	path, err := c.endpoints.Operation(src)
	if err != nil {
		return nil, invalidPath("index name", err)
	}

	request := &operationRequest{
		Operation:   operation,
		Destination: dst,
	}

	resp, err := c.transport.Do(ctx, http.MethodPost, path, request)
	if err != nil {
		return nil, fmt.Errorf("%s index %q to %q: %w", operation, src, dst, err)
	}

	result := &taskResponse{}

	if err := decodeResponse(resp, result); err != nil {
		return nil, fmt.Errorf("%s index %q to %q: %w", operation, src, dst, err)
	}

	return &Task{index: c.Index(src), ID: result.TaskID}, nil
}
