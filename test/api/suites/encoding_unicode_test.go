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

	"github.com/unikorn-cloud/search/test/api"
)

var _ = Describe("Encoding and Unicode", func() {
	DescribeTable("index and object names containing reserved characters",
		func(name, objectID string) {
			index := api.CreateIndexWithCleanup(client, config, name)

			Expect(api.AddObjectAndWait(ctx, index, api.NewRecord().WithObjectID(objectID).Build())).To(Equal(objectID))

			api.WaitForIndexPresence(client, ctx, config, index.Name(), true)
			api.VerifySingleHit(ctx, index.Index, objectID, "San Francisco")

			record, err := index.GetObject(ctx, objectID)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ObjectID()).To(Equal(objectID))

			task, err := client.DeleteIndex(ctx, index.Name())
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Wait(ctx)).To(Succeed())

			api.WaitForIndexPresence(client, ctx, config, index.Name(), false)
		},
		Entry("should round trip accented and query characters", "algol?à-go", "a/go/?à"),
		Entry("should round trip spaces and hashes", "space # name", "object #1"),
		Entry("should round trip non latin scripts", "検索", "記録"),
	)
})
