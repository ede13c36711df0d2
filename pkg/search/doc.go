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

// Package search is a client for a hosted search service.
//
// # Asynchronous Mutations
//
// The service applies every mutation (adding objects, clearing, moving,
// copying and deleting indexes) asynchronously.  A mutating call returns as
// soon as the service has accepted the request, and yields a Task.  The
// mutation is only guaranteed to be visible to searches once the task has
// been published, so callers that depend on the effect must wait for it:
//
//	task, err := index.AddObject(ctx, record)
//	if err != nil {
//		return err
//	}
//
//	if err := task.Wait(ctx); err != nil {
//		return err
//	}
//
// Waiting polls the task status with a capped exponential backoff until it
// is published, the service reports an error, or the poll timeout (or the
// context's deadline) expires.
//
// Tasks are not published in the order they were issued, so each one must
// be waited for independently, see Index.WaitTasks.
//
// # Deleting Indexes
//
// Deleting an index that does not exist is not an error, the returned task
// is already complete.
package search
