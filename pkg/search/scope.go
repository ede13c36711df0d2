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

	"github.com/google/uuid"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
)

// ScopedIndex is a uniquely named index owned by one caller for the
// duration of a scope.  It is not safe for concurrent use.
type ScopedIndex struct {
	*Index

	// owned are all indexes deleted on release, including any created by
	// moving or copying the scoped index.
	owned sets.Set[string]
}

// AcquireIndex returns a scoped index whose name is the prefix followed by a
// random suffix, so concurrent callers never share an index.
func (c *Client) AcquireIndex(prefix string) *ScopedIndex {
	index := c.Index(fmt.Sprintf("%s-%s", prefix, uuid.NewString()))

	return &ScopedIndex{
		Index: index,
		owned: sets.New(index.Name()),
	}
}

// Derive returns the name of a further index owned by the scope, e.g. the
// destination of a move, which is released along with the scoped index.
func (s *ScopedIndex) Derive(suffix string) string {
	name := s.Name() + "-" + suffix

	s.owned.Insert(name)

	return name
}

// Release deletes every index owned by the scope and waits for the deletions
// to be published.  All deletions are attempted, and any failures returned
// as an aggregate.
func (s *ScopedIndex) Release(ctx context.Context) error {
	var errs []error

	for _, name := range sets.List(s.owned) {
		task, err := s.client.DeleteIndex(ctx, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := task.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("waiting for deletion of index %q: %w", name, err))
		}
	}

	return utilerrors.NewAggregate(errs)
}

// WithScopedIndex acquires a scoped index, calls the function, then releases
// the index however the function exits.
func (c *Client) WithScopedIndex(ctx context.Context, prefix string, f func(*ScopedIndex) error) (err error) {
	index := c.AcquireIndex(prefix)

	defer func() {
		if releaseErr := index.Release(ctx); releaseErr != nil {
			err = utilerrors.NewAggregate([]error{err, releaseErr})
		}
	}()

	return f(index)
}
