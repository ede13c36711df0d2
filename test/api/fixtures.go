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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package api

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/search/pkg/search"
)

// CreateIndexWithCleanup acquires a uniquely named index, and schedules its
// deletion, along with any index derived from it, when the spec completes.
func CreateIndexWithCleanup(client *search.Client, config *TestConfig, name string) *search.ScopedIndex {
	index := client.AcquireIndex(config.IndexPrefix + "-" + name)

	GinkgoWriter.Printf("Using index %s\n", index.Name())

	DeferCleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.TestTimeout)
		defer cancel()

		if err := index.Release(ctx); err != nil {
			GinkgoWriter.Printf("Warning: Failed to delete index %s: %v\n", index.Name(), err)
		}
	})

	return index
}

// AddObjectAndWait adds a record and waits for it to be searchable,
// returning the object ID.
func AddObjectAndWait(ctx context.Context, index *search.ScopedIndex, record search.Record) string {
	task, err := index.AddObject(ctx, record)
	Expect(err).NotTo(HaveOccurred())
	Expect(task.ObjectID).NotTo(BeEmpty())

	Expect(task.Wait(ctx)).To(Succeed())

	return task.ObjectID
}

// CreatePopulatedIndexFixture creates an index holding the given records.
func CreatePopulatedIndexFixture(client *search.Client, ctx context.Context, config *TestConfig, name string, records ...search.Record) *search.ScopedIndex {
	index := CreateIndexWithCleanup(client, config, name)

	task, err := index.AddObjects(ctx, records)
	Expect(err).NotTo(HaveOccurred())
	Expect(task.ObjectIDs).To(HaveLen(len(records)))

	Expect(task.Wait(ctx)).To(Succeed())

	return index
}

// WaitForIndexPresence waits until the index listing agrees with the
// expected presence.  Listings are eventually consistent with published
// tasks on some deployments.
func WaitForIndexPresence(client *search.Client, ctx context.Context, config *TestConfig, name string, present bool) {
	Eventually(func() (bool, error) {
		return client.IndexExists(ctx, name)
	}).WithTimeout(config.TestTimeout).WithPolling(time.Second).Should(Equal(present), "index %s presence", name)
}

// VerifySingleHit verifies an index holds exactly the given record.
func VerifySingleHit(ctx context.Context, index *search.Index, objectID, city string) {
	result, err := index.Search(ctx, &search.Query{})
	Expect(err).NotTo(HaveOccurred())
	Expect(result.NbHits).To(Equal(1))
	Expect(result.Hits).To(HaveLen(1))
	Expect(result.Hits[0].ObjectID()).To(Equal(objectID))
	Expect(result.Hits[0]).To(HaveKeyWithValue("city", city))
}
