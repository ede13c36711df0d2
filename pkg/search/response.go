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
	"encoding/json"
	"fmt"

	"github.com/unikorn-cloud/search/pkg/errors"
	"github.com/unikorn-cloud/search/pkg/transport"
)

// errorResponse is the error payload returned with any non-2xx status.
type errorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// taskResponse is the common subset of every mutation response.
type taskResponse struct {
	TaskID TaskID `json:"taskID"`
}

func successful(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// extractError turns a non-2xx response into a ServiceError, using the
// service's message when the body carries one.
func extractError(resp *transport.Response) error {
	var payload errorResponse

	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &payload); err != nil {
			payload.Message = string(resp.Body)
		}
	}

	return errors.NewServiceError(resp.StatusCode, payload.Message)
}

// decodeResponse checks the status and decodes a successful body into out.
func decodeResponse(resp *transport.Response, out any) error {
	if !successful(resp.StatusCode) {
		return extractError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return errors.NewServiceError(resp.StatusCode, fmt.Sprintf("malformed response: %v", err))
	}

	return nil
}
