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

package transport

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/unikorn-cloud/search/pkg/constants"
	"github.com/unikorn-cloud/search/pkg/errors"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Credentials authenticate every request made to the service.
type Credentials struct {
	ApplicationID string
	APIKey        string
}

// Validate checks both halves of the credentials are present.
func (c Credentials) Validate() error {
	if c.ApplicationID == "" {
		return errors.NewValidationError("application ID", "must not be empty")
	}

	if c.APIKey == "" {
		return errors.NewValidationError("API key", "must not be empty")
	}

	return nil
}

// Options configure the HTTP transport.
type Options struct {
	// BaseURL is the service root e.g. https://search.example.com/1.
	BaseURL string
	// RequestTimeout bounds a single HTTP exchange.
	RequestTimeout time.Duration
	// RateLimit is the maximum requests per second, zero disables limiting.
	RateLimit float64
	// RateBurst is the number of requests allowed to exceed the rate limit.
	RateBurst int
}

// AddFlags registers transport options with a flag set.
func (o *Options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.BaseURL, "base-url", "", "Search service base URL.")
	f.DurationVar(&o.RequestTimeout, "request-timeout", 30*time.Second, "Timeout for a single HTTP request.")
	f.Float64Var(&o.RateLimit, "rate-limit", 0, "Maximum requests per second, 0 is unlimited.")
	f.IntVar(&o.RateBurst, "rate-burst", 1, "Requests allowed to burst above the rate limit.")
}

// Transport is the HTTP implementation of Interface.
type Transport struct {
	baseURL     string
	client      *http.Client
	credentials Credentials
	limiter     *rate.Limiter
}

// Ensure the interface is implemented.
var _ Interface = &Transport{}

// New returns a transport for the given credentials.
func New(credentials Credentials, options *Options) (*Transport, error) {
	if err := credentials.Validate(); err != nil {
		return nil, err
	}

	if options.BaseURL == "" {
		return nil, errors.NewValidationError("base URL", "must not be empty")
	}

	t := &Transport{
		baseURL: strings.TrimSuffix(options.BaseURL, "/"),
		client: &http.Client{
			Timeout: options.RequestTimeout,
		},
		credentials: credentials,
	}

	if options.RateLimit > 0 {
		burst := max(options.RateBurst, 1)

		t.limiter = rate.NewLimiter(rate.Limit(options.RateLimit), burst)
	}

	return t, nil
}

// generateTraceID creates a new W3C trace ID.
func generateTraceID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// generateSpanID creates a new W3C span ID.
func generateSpanID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// createTraceParent creates a W3C traceparent header value, so a failed
// request can be found in the service's logs.
func createTraceParent() string {
	return fmt.Sprintf("00-%s-%s-01", generateTraceID(), generateSpanID())
}

// Do implements Interface.
func (t *Transport) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	log := log.FromContext(ctx).WithValues("method", method, "path", path)

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.NewValidationError("request body", err.Error())
		}

		reader = bytes.NewReader(data)
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, &errors.TransportError{Method: method, Path: path, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, &errors.TransportError{Method: method, Path: path, Err: err}
	}

	traceParent := createTraceParent()

	req.Header.Set("Traceparent", traceParent)
	req.Header.Set("User-Agent", constants.VersionString())
	req.Header.Set("Accept", "application/json")
	req.Header.Set(constants.ApplicationIDHeader, t.credentials.ApplicationID)
	req.Header.Set(constants.APIKeyHeader, t.credentials.APIKey)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		log.Error(err, "http request failed", "duration", duration, "traceparent", traceParent)

		return nil, &errors.TransportError{Method: method, Path: path, Err: err}
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error(err, "reading response body", "status", resp.StatusCode, "traceparent", traceParent)

		return nil, &errors.TransportError{Method: method, Path: path, Err: fmt.Errorf("reading response body: %w", err)}
	}

	log.V(1).Info("request complete", "status", resp.StatusCode, "duration", duration, "traceparent", traceParent)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}
