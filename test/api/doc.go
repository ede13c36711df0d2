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

// Package api provides integration test utilities that drive the search
// client against a live service.
//
// # Configuration
//
// Credentials and the service URL are read from the environment, or from
// test/.env when present:
//
//	SEARCH_BASE_URL=https://search.example.com/1
//	SEARCH_APPLICATION_ID=...
//	SEARCH_API_KEY=...
//
// Suites are skipped when these are missing, or SKIP_INTEGRATION is set.
//
// # Isolation
//
// Every spec works on indexes named after a configurable prefix and a random
// suffix, and deletes them on completion, so runs may share an account.  An
// interrupted run may leave indexes behind; they can be found by prefix with
// the unikorn-search command.
package api
