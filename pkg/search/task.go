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
	goerrors "errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/unikorn-cloud/search/pkg/errors"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// TaskID identifies an asynchronous mutation.  It is only meaningful in
// combination with the index that issued it.
type TaskID int64

// NoTask is returned when there was nothing to do, waiting on it completes
// immediately.
const NoTask TaskID = 0

// TaskStatus is the publication state of a task.
type TaskStatus string

const (
	// TaskNotPublished means the mutation is not yet visible to reads.
	TaskNotPublished TaskStatus = "notPublished"

	// TaskPublished is terminal, the mutation is visible to reads.
	TaskPublished TaskStatus = "published"
)

// Task is a pending mutation on an index.
type Task struct {
	index *Index

	// ID is the task identifier assigned by the service.
	ID TaskID
}

// Index returns the index that issued the task.
func (t *Task) Index() *Index {
	return t.index
}

// Wait blocks until the task is published.
func (t *Task) Wait(ctx context.Context) error {
	return t.index.WaitTask(ctx, t.ID)
}

// ObjectTask is returned by mutations of a single object.
type ObjectTask struct {
	Task

	// ObjectID is the identifier of the object, server assigned if the
	// object did not carry one.
	ObjectID string
}

// BatchTask is returned by batch mutations.
type BatchTask struct {
	Task

	// ObjectIDs are the identifiers of each object, in request order.
	ObjectIDs []string
}

var errNotPublished = goerrors.New("task not published")

// Poller waits for tasks to be published.
type Poller struct {
	interval    time.Duration
	maxInterval time.Duration
	timeout     time.Duration
}

// NewPoller returns a poller configured from the options.
func NewPoller(options *Options) *Poller {
	return &Poller{
		interval:    options.pollInterval(),
		maxInterval: options.pollMaxInterval(),
		timeout:     options.pollTimeout(),
	}
}

func (p *Poller) backoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.interval
	b.MaxInterval = p.maxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	// The deadline is enforced by the context.
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

// Wait polls the status of a task until it is published.  A failed status
// request is returned as is, only unpublished tasks are polled again.  If the
// poll timeout or the context deadline expires first a TimeoutError is
// returned.
func (p *Poller) Wait(ctx context.Context, index *Index, id TaskID) error {
	if id == NoTask {
		return nil
	}

	log := log.FromContext(ctx).WithValues("index", index.Name(), "taskID", id)

	start := time.Now()

	pollCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	attempts := 0

	operation := func() error {
		attempts++

		status, err := index.TaskStatus(pollCtx, id)
		if err != nil {
			return backoff.Permanent(err)
		}

		switch status {
		case TaskPublished:
			return nil
		case TaskNotPublished:
			return errNotPublished
		}

		return backoff.Permanent(&errors.ServiceError{
			Message: fmt.Sprintf("task %d on index %q reported status %q", id, index.Name(), status),
		})
	}

	notify := func(_ error, delay time.Duration) {
		log.V(1).Info("task not published", "attempt", attempts, "delay", delay)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(p.backoff(), pollCtx), notify)
	if err == nil {
		log.V(1).Info("task published", "attempts", attempts, "duration", time.Since(start))

		return nil
	}

	// Expiry of either our deadline, or the caller's, is a timeout, explicit
	// cancellation is not.
	if goerrors.Is(pollCtx.Err(), context.DeadlineExceeded) {
		return &errors.TimeoutError{
			Index:   index.Name(),
			TaskID:  int64(id),
			Elapsed: time.Since(start),
			Err:     pollCtx.Err(),
		}
	}

	if goerrors.Is(err, context.Canceled) {
		return fmt.Errorf("waiting for task %d on index %q: %w", id, index.Name(), err)
	}

	return err
}
