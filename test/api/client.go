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

package api

import (
	"github.com/onsi/ginkgo/v2"

	"github.com/unikorn-cloud/search/pkg/search"
	"github.com/unikorn-cloud/search/pkg/transport"

	"go.uber.org/zap/zapcore"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// requestLogLevel enables the client's V(1) request logging.
const requestLogLevel = zapcore.Level(-1)

// NewClient creates a search client for the configured service.  Request
// logging goes to the Ginkgo writer so it is only shown for failed specs.
func NewClient(config *TestConfig) (*search.Client, error) {
	if config.LogRequests {
		log.SetLogger(zap.New(zap.WriteTo(ginkgo.GinkgoWriter), zap.UseDevMode(true), zap.Level(requestLogLevel)))
	}

	return search.New(config.Credentials(), &search.Options{
		Transport: transport.Options{
			BaseURL:        config.BaseURL,
			RequestTimeout: config.RequestTimeout,
		},
		PollTimeout: config.PollTimeout,
	})
}

// Credentials returns the configured credentials.
func (c *TestConfig) Credentials() transport.Credentials {
	return transport.Credentials{
		ApplicationID: c.ApplicationID,
		APIKey:        c.APIKey,
	}
}
