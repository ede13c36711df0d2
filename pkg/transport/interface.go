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

//go:generate mockgen -source=interface.go -destination=mock/interface.go -package=mock
package transport

import (
	"context"
)

// Response is a raw service response.  Status codes are not interpreted
// by the transport, that is left to the caller.
type Response struct {
	StatusCode int
	Body       []byte
}

// Interface is the request/response contract consumed by the search client.
type Interface interface {
	// Do issues a request.  The path is relative to the service base URL and
	// must already be escaped.  If body is not nil it is encoded as JSON.
	Do(ctx context.Context, method, path string, body any) (*Response, error)
}
