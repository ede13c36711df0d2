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

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/search/pkg/errors"
	"github.com/unikorn-cloud/search/pkg/search"
	"github.com/unikorn-cloud/search/test/api"

	"k8s.io/utils/ptr"
)

var _ = Describe("Object Operations", func() {
	var index *search.ScopedIndex

	BeforeEach(func() {
		index = api.CreatePopulatedIndexFixture(client, ctx, config, "objects",
			api.NewRecord().WithObjectID("paris").WithCity("Paris", "FR").Build(),
			api.NewRecord().WithObjectID("lyon").WithCity("Lyon", "FR").Build(),
			api.NewRecord().WithObjectID("berlin").WithCity("Berlin", "DE").Build(),
		)
	})

	Context("When searching", func() {
		It("should return every record for an empty query", func() {
			result, err := index.Search(ctx, &search.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(Equal(3))
		})

		It("should paginate", func() {
			result, err := index.Search(ctx, &search.Query{Page: ptr.To(1), HitsPerPage: ptr.To(2)})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbPages).To(Equal(2))
			Expect(result.Hits).To(HaveLen(1))
		})

		It("should find records by text", func() {
			result, err := index.Search(ctx, &search.Query{Query: "berlin"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hits).To(ContainElement(HaveKeyWithValue(search.ObjectIDAttribute, "berlin")))
		})
	})

	Context("When saving an existing object", func() {
		It("should replace it", func() {
			task, err := index.SaveObject(ctx, api.NewRecord().WithObjectID("paris").WithAttribute("population", 2100000).Build())
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Wait(ctx)).To(Succeed())

			record, err := index.GetObject(ctx, "paris")
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(HaveKeyWithValue("population", BeNumerically("==", 2100000)))
		})
	})

	Context("When deleting an object", func() {
		It("should no longer be retrievable", func() {
			task, err := index.DeleteObject(ctx, "lyon")
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Wait(ctx)).To(Succeed())

			_, err = index.GetObject(ctx, "lyon")
			Expect(errors.IsNotFound(err)).To(BeTrue())
		})
	})

	Context("When clearing the index", func() {
		It("should keep the index but remove every record", func() {
			task, err := index.Clear(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Wait(ctx)).To(Succeed())

			result, err := index.Search(ctx, &search.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(BeZero())
		})
	})

	Context("When issuing several mutations", func() {
		It("should wait for all of them", func() {
			first, err := index.AddObject(ctx, api.NewRecord().WithCity("Madrid", "ES").Build())
			Expect(err).NotTo(HaveOccurred())

			second, err := index.AddObject(ctx, api.NewRecord().WithCity("Lisbon", "PT").Build())
			Expect(err).NotTo(HaveOccurred())

			Expect(index.WaitTasks(ctx, second.ID, first.ID)).To(Succeed())

			result, err := index.Search(ctx, &search.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(Equal(5))
		})
	})
})
