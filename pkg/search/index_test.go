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

package search_test

import (
	"context"
	goerrors "errors"
	"math"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/search/pkg/errors"
	"github.com/unikorn-cloud/search/pkg/search"
	"github.com/unikorn-cloud/search/pkg/testing/fake"
	"github.com/unikorn-cloud/search/pkg/transport"

	"k8s.io/utils/ptr"
)

const (
	unicodeObjectID = "a/go/?à"
)

func fakeClient(server *fake.Server, credentials transport.Credentials, pollTimeout time.Duration) *search.Client {
	client, err := search.New(credentials, &search.Options{
		Transport: transport.Options{
			BaseURL:        server.URL(),
			RequestTimeout: 5 * time.Second,
		},
		PollInterval:    time.Millisecond,
		PollMaxInterval: 5 * time.Millisecond,
		PollTimeout:     pollTimeout,
	})
	Expect(err).NotTo(HaveOccurred())

	return client
}

func sanFrancisco() search.Record {
	return search.Record{
		"objectID": unicodeObjectID,
		"city":     "San Francisco",
		"country":  "US",
	}
}

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		server *fake.Server
		client *search.Client
	)

	BeforeEach(func() {
		ctx = context.Background()

		server = fake.New(fake.WithPublishAfter(2))
		DeferCleanup(server.Close)

		client = fakeClient(server, server.Credentials(), 5*time.Second)
	})

	// acquire returns a scoped index released when the spec ends, cleanups
	// run in reverse so this happens before the server is closed.
	acquire := func(prefix string) *search.ScopedIndex {
		index := client.AcquireIndex(prefix)

		DeferCleanup(func() {
			Expect(index.Release(context.Background())).To(Succeed())
		})

		return index
	}

	addAndWait := func(index *search.ScopedIndex, record search.Record) string {
		task, err := index.AddObject(ctx, record)
		Expect(err).NotTo(HaveOccurred())
		Expect(task.Wait(ctx)).To(Succeed())

		return task.ObjectID
	}

	Describe("deleting indexes", func() {
		It("succeeds when the index does not exist", func() {
			index := acquire("missing")

			task, err := client.DeleteIndex(ctx, index.Name())
			Expect(err).NotTo(HaveOccurred())
			Expect(task.ID).To(Equal(search.NoTask))
			Expect(task.Wait(ctx)).To(Succeed())
		})

		It("rejects an empty name without a request", func() {
			task, err := client.DeleteIndex(ctx, "")
			Expect(task).To(BeNil())
			Expect(errors.IsValidation(err)).To(BeTrue())

			_, err = client.Index("").AddObject(ctx, sanFrancisco())
			Expect(errors.IsValidation(err)).To(BeTrue())
			Expect(server.Pending()).To(BeZero())
		})

		It("removes an existing index once published", func() {
			index := acquire("delete")
			addAndWait(index, sanFrancisco())

			task, err := client.DeleteIndex(ctx, index.Name())
			Expect(err).NotTo(HaveOccurred())
			Expect(task.ID).NotTo(Equal(search.NoTask))
			Expect(task.Wait(ctx)).To(Succeed())

			Expect(client.IndexExists(ctx, index.Name())).To(BeFalse())
		})
	})

	Describe("adding objects", func() {
		It("is only visible once the task is published", func() {
			index := acquire("visibility")

			task, err := index.AddObject(ctx, sanFrancisco())
			Expect(err).NotTo(HaveOccurred())
			Expect(task.ObjectID).To(Equal(unicodeObjectID))

			Expect(client.IndexExists(ctx, index.Name())).To(BeFalse())

			_, err = index.Search(ctx, &search.Query{})
			Expect(errors.IsNotFound(err)).To(BeTrue())

			Expect(task.Wait(ctx)).To(Succeed())

			indexes, err := client.ListIndexes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(indexes).To(ContainElement(And(
				HaveField("Name", index.Name()),
				HaveField("Entries", int64(1)),
				HaveField("PendingTask", false),
			)))
		})

		It("assigns an object ID when the record has none", func() {
			index := acquire("assigned")

			id := addAndWait(index, search.Record{"city": "Paris"})
			Expect(id).NotTo(BeEmpty())

			record, err := index.GetObject(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ObjectID()).To(Equal(id))
			Expect(record).To(HaveKeyWithValue("city", "Paris"))
		})

		It("replaces a saved object", func() {
			index := acquire("save")

			for _, population := range []float64{2100000, 2200000} {
				task, err := index.SaveObject(ctx, search.Record{"objectID": "paris", "population": population})
				Expect(err).NotTo(HaveOccurred())
				Expect(task.Wait(ctx)).To(Succeed())
			}

			record, err := index.GetObject(ctx, "paris")
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(HaveKeyWithValue("population", float64(2200000)))
		})

		It("rejects records the schema does not allow", func() {
			index := acquire("invalid")

			_, err := index.AddObject(ctx, search.Record{"objectID": ""})
			Expect(errors.IsService(err)).To(BeTrue())

			var serviceErr *errors.ServiceError

			Expect(goerrors.As(err, &serviceErr)).To(BeTrue())
			Expect(serviceErr.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("index operations", func() {
		It("moves an index", func() {
			index := acquire("move")
			addAndWait(index, sanFrancisco())

			destination := index.Derive("moved")

			task, err := client.MoveIndex(ctx, index.Name(), destination)
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Index().Name()).To(Equal(index.Name()))
			Expect(task.Wait(ctx)).To(Succeed())

			Expect(client.IndexExists(ctx, index.Name())).To(BeFalse())

			result, err := client.Index(destination).Search(ctx, &search.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(Equal(1))
			Expect(result.Hits[0].ObjectID()).To(Equal(unicodeObjectID))
			Expect(result.Hits[0]).To(HaveKeyWithValue("city", "San Francisco"))
		})

		It("copies an index", func() {
			index := acquire("copy")
			addAndWait(index, sanFrancisco())

			destination := index.Derive("copied")

			task, err := client.CopyIndex(ctx, index.Name(), destination)
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Wait(ctx)).To(Succeed())

			for _, name := range []string{index.Name(), destination} {
				result, err := client.Index(name).Search(ctx, &search.Query{})
				Expect(err).NotTo(HaveOccurred())
				Expect(result.NbHits).To(Equal(1))
				Expect(result.Hits[0]).To(HaveKeyWithValue("city", "San Francisco"))
			}

			// The copy is independent of its source.
			addAndWait(index, search.Record{"city": "Paris"})

			result, err := client.Index(destination).Search(ctx, &search.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(Equal(1))
		})

		It("fails to move an index that does not exist", func() {
			index := acquire("absent")

			_, err := client.MoveIndex(ctx, index.Name(), index.Derive("moved"))
			Expect(errors.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("waiting for tasks", func() {
		It("polls until the task is published", func() {
			index := acquire("poll")

			task, err := index.AddObject(ctx, sanFrancisco())
			Expect(err).NotTo(HaveOccurred())

			before := server.StatusPolls()

			Expect(task.Wait(ctx)).To(Succeed())

			// Published on the poll after the second.
			Expect(server.StatusPolls() - before).To(Equal(3))
			Expect(server.Pending()).To(BeZero())

			// Waiting again is answered immediately.
			Expect(task.Wait(ctx)).To(Succeed())
			Expect(server.StatusPolls() - before).To(Equal(4))
		})

		It("times out when a task is never published", func() {
			slow := fake.New(fake.WithPublishAfter(math.MaxInt))
			DeferCleanup(slow.Close)

			slowClient := fakeClient(slow, slow.Credentials(), 30*time.Millisecond)

			task, err := slowClient.Index("never").AddObject(ctx, sanFrancisco())
			Expect(err).NotTo(HaveOccurred())

			err = task.Wait(ctx)
			Expect(errors.IsTimeout(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(`on index "never" not published`))
			Expect(slow.Pending()).To(Equal(1))
		})

		It("waits for several tasks", func() {
			index := acquire("batch")

			batch, err := index.AddObjects(ctx, []search.Record{
				{"city": "Paris", "country": "FR"},
				{"city": "Lyon", "country": "FR"},
				{"city": "Berlin", "country": "DE"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(batch.ObjectIDs).To(HaveLen(3))

			single, err := index.AddObject(ctx, sanFrancisco())
			Expect(err).NotTo(HaveOccurred())

			Expect(index.WaitTasks(ctx, single.ID, batch.ID)).To(Succeed())

			result, err := index.Search(ctx, &search.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(Equal(4))
		})
	})

	Describe("searching", func() {
		var index *search.ScopedIndex

		BeforeEach(func() {
			index = acquire("search")

			batch, err := index.AddObjects(ctx, []search.Record{
				{"objectID": "1", "city": "Paris", "country": "FR"},
				{"objectID": "2", "city": "Lyon", "country": "FR"},
				{"objectID": "3", "city": "Berlin", "country": "DE"},
				{"objectID": "4", "city": "San Francisco", "country": "US"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Wait(ctx)).To(Succeed())
		})

		It("matches full text case insensitively", func() {
			result, err := index.Search(ctx, &search.Query{Query: "paris"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(Equal(1))
			Expect(result.Query).To(Equal("paris"))
			Expect(result.Hits[0].ObjectID()).To(Equal("1"))
		})

		It("applies filters", func() {
			result, err := index.Search(ctx, &search.Query{Filters: "country:FR"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(Equal(2))
		})

		It("paginates", func() {
			result, err := index.Search(ctx, &search.Query{Page: ptr.To(1), HitsPerPage: ptr.To(3)})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(Equal(4))
			Expect(result.NbPages).To(Equal(2))
			Expect(result.Page).To(Equal(1))
			Expect(result.Hits).To(HaveLen(1))
		})

		It("limits retrieved attributes", func() {
			result, err := index.Search(ctx, &search.Query{Query: "berlin", AttributesToRetrieve: []string{"city"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Hits).To(ConsistOf(Equal(search.Record{"objectID": "3", "city": "Berlin"})))
		})

		It("deletes objects", func() {
			task, err := index.DeleteObject(ctx, "3")
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Wait(ctx)).To(Succeed())

			_, err = index.GetObject(ctx, "3")
			Expect(errors.IsNotFound(err)).To(BeTrue())
		})

		It("clears the index but keeps it", func() {
			task, err := index.Clear(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Wait(ctx)).To(Succeed())

			result, err := index.Search(ctx, &search.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(BeZero())
			Expect(client.IndexExists(ctx, index.Name())).To(BeTrue())
		})
	})

	DescribeTable("index and object names are escaped",
		func(prefix string) {
			index := acquire(prefix)
			Expect(index.Name()).To(HavePrefix(prefix))

			Expect(addAndWait(index, sanFrancisco())).To(Equal(unicodeObjectID))

			result, err := index.Search(ctx, &search.Query{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.NbHits).To(Equal(1))

			record, err := index.GetObject(ctx, unicodeObjectID)
			Expect(err).NotTo(HaveOccurred())
			Expect(record).To(HaveKeyWithValue("city", "San Francisco"))

			Expect(client.IndexExists(ctx, index.Name())).To(BeTrue())

			task, err := client.DeleteIndex(ctx, index.Name())
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Wait(ctx)).To(Succeed())

			Expect(client.IndexExists(ctx, index.Name())).To(BeFalse())
		},
		Entry("reserved and accented", "algol?à-go"),
		Entry("slash", "algolia/go"),
		Entry("percent", "50%"),
		Entry("hash and space", "# tag"),
		Entry("non latin", "検索"),
	)

	Describe("scoped indexes", func() {
		It("releases the index and everything derived from it", func() {
			index := client.AcquireIndex("scoped")
			addAndWait(index, sanFrancisco())

			destination := index.Derive("copy")

			task, err := client.CopyIndex(ctx, index.Name(), destination)
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Wait(ctx)).To(Succeed())

			Expect(index.Release(ctx)).To(Succeed())

			indexes, err := client.ListIndexes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(indexes).To(BeEmpty())
		})

		It("releases the index when the scope fails", func() {
			failure := goerrors.New("boom")

			var name string

			err := client.WithScopedIndex(ctx, "failing", func(index *search.ScopedIndex) error {
				name = index.Name()
				addAndWait(index, sanFrancisco())

				return failure
			})
			Expect(err).To(MatchError(failure))

			Expect(client.IndexExists(ctx, name)).To(BeFalse())
		})

		It("gives every scope a unique name", func() {
			Expect(client.AcquireIndex("unique").Name()).NotTo(Equal(client.AcquireIndex("unique").Name()))
		})
	})

	It("rejects bad credentials", func() {
		badClient := fakeClient(server, transport.Credentials{ApplicationID: "fake-application", APIKey: "wrong"}, time.Second)

		_, err := badClient.ListIndexes(ctx)

		var serviceErr *errors.ServiceError

		Expect(goerrors.As(err, &serviceErr)).To(BeTrue())
		Expect(serviceErr.StatusCode).To(Equal(http.StatusForbidden))
	})
})
