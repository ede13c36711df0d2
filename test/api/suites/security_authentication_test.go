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
	goerrors "errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/search/pkg/errors"
	"github.com/unikorn-cloud/search/pkg/search"
	"github.com/unikorn-cloud/search/pkg/transport"
)

var _ = Describe("Security and Authentication", func() {
	Context("When making requests with invalid credentials", func() {
		It("should reject requests with an unknown API key", func() {
			badClient, err := search.New(transport.Credentials{
				ApplicationID: config.ApplicationID,
				APIKey:        "invalid-" + config.APIKey,
			}, &search.Options{
				Transport: transport.Options{
					BaseURL:        config.BaseURL,
					RequestTimeout: config.RequestTimeout,
				},
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = badClient.ListIndexes(ctx)

			var serviceErr *errors.ServiceError

			Expect(err).To(MatchError(ContainSubstring("listing indexes")))
			Expect(goerrors.As(err, &serviceErr)).To(BeTrue())
			Expect(serviceErr.StatusCode).To(BeElementOf(http.StatusUnauthorized, http.StatusForbidden))
		})
	})

	Context("When constructing a client", func() {
		It("should reject missing credentials before any request", func() {
			_, err := search.New(transport.Credentials{}, &search.Options{
				Transport: transport.Options{
					BaseURL: config.BaseURL,
				},
			})
			Expect(errors.IsValidation(err)).To(BeTrue())
		})
	})
})
