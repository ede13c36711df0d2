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

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/unikorn-cloud/search/pkg/errors"
	"github.com/unikorn-cloud/search/pkg/search"

	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Usage describes the commands understood by Run.
const Usage = `commands:
  list                          list indexes
  add <index> <json>            add a JSON object to an index
  delete <index>                delete an index, missing indexes are ignored
  move <source> <destination>   move an index
  copy <source> <destination>   copy an index
  status <index> <task>         show the status of a task
  wait <index> <task>...        wait for tasks to be published
  search <index> [query]        search an index`

// Runner executes commands against a client.
type Runner struct {
	client *search.Client
	out    io.Writer
	wait   bool
}

// New returns a runner that writes results to out.  When wait is set,
// mutating commands only return once their task is published.
func New(client *search.Client, out io.Writer, wait bool) *Runner {
	return &Runner{
		client: client,
		out:    out,
		wait:   wait,
	}
}

func usageError(reason string) error {
	return errors.NewValidationError("command", reason+"\n"+Usage)
}

func arguments(args []string, minimum, maximum int) error {
	if len(args) < minimum || (maximum >= 0 && len(args) > maximum) {
		return usageError(fmt.Sprintf("unexpected arguments %q", args))
	}

	return nil
}

func parseTaskIDs(args []string) ([]search.TaskID, error) {
	ids := make([]search.TaskID, len(args))

	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id < 0 {
			return nil, errors.NewValidationError("task ID", fmt.Sprintf("%q is not a task ID", arg))
		}

		ids[i] = search.TaskID(id)
	}

	return ids, nil
}

// Run executes a single command.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("no command given")
	}

	command, args := args[0], args[1:]

	log.FromContext(ctx).V(1).Info("running command", "command", command, "args", args)

	switch command {
	case "list":
		if err := arguments(args, 0, 0); err != nil {
			return err
		}

		return r.list(ctx)
	case "add":
		if err := arguments(args, 2, 2); err != nil {
			return err
		}

		return r.add(ctx, args[0], args[1])
	case "delete":
		if err := arguments(args, 1, 1); err != nil {
			return err
		}

		return r.delete(ctx, args[0])
	case "move", "copy":
		if err := arguments(args, 2, 2); err != nil {
			return err
		}

		return r.operation(ctx, search.Operation(command), args[0], args[1])
	case "status":
		if err := arguments(args, 2, 2); err != nil {
			return err
		}

		return r.status(ctx, args[0], args[1])
	case "wait":
		if err := arguments(args, 2, -1); err != nil {
			return err
		}

		ids, err := parseTaskIDs(args[1:])
		if err != nil {
			return err
		}

		return r.client.Index(args[0]).WaitTasks(ctx, ids...)
	case "search":
		if err := arguments(args, 1, 2); err != nil {
			return err
		}

		query := &search.Query{}

		if len(args) == 2 {
			query.Query = args[1]
		}

		return r.search(ctx, args[0], query)
	}

	return usageError(fmt.Sprintf("unknown command %q", command))
}

// finish optionally waits for a task, then reports it.
func (r *Runner) finish(ctx context.Context, task *search.Task, message string) error {
	if r.wait {
		if err := task.Wait(ctx); err != nil {
			return err
		}

		_, err := fmt.Fprintln(r.out, message)

		return err
	}

	_, err := fmt.Fprintf(r.out, "%s (task %d)\n", message, task.ID)

	return err
}

func (r *Runner) list(ctx context.Context) error {
	indexes, err := r.client.ListIndexes(ctx)
	if err != nil {
		return err
	}

	byName := make(map[string]search.IndexInfo, len(indexes))

	for _, index := range indexes {
		byName[index.Name] = index
	}

	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tENTRIES\tPENDING\tUPDATED")

	for _, name := range sets.List(sets.KeySet(byName)) {
		index := byName[name]

		fmt.Fprintf(w, "%s\t%d\t%t\t%s\n", index.Name, index.Entries, index.PendingTask, index.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
	}

	return w.Flush()
}

func (r *Runner) add(ctx context.Context, name, data string) error {
	var record search.Record

	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return errors.NewValidationError("record", err.Error())
	}

	task, err := r.client.Index(name).AddObject(ctx, record)
	if err != nil {
		return err
	}

	return r.finish(ctx, &task.Task, fmt.Sprintf("added object %q to index %q", task.ObjectID, name))
}

func (r *Runner) delete(ctx context.Context, name string) error {
	task, err := r.client.DeleteIndex(ctx, name)
	if err != nil {
		return err
	}

	if task.ID == search.NoTask {
		_, err := fmt.Fprintf(r.out, "index %q does not exist\n", name)

		return err
	}

	return r.finish(ctx, task, fmt.Sprintf("deleted index %q", name))
}

func (r *Runner) operation(ctx context.Context, operation search.Operation, src, dst string) error {
	var (
		task *search.Task
		err  error
	)

	switch operation {
	case search.OperationMove:
		task, err = r.client.MoveIndex(ctx, src, dst)
	case search.OperationCopy:
		task, err = r.client.CopyIndex(ctx, src, dst)
	}

	if err != nil {
		return err
	}

	return r.finish(ctx, task, fmt.Sprintf("%s index %q to %q", operation, src, dst))
}

func (r *Runner) status(ctx context.Context, name, taskID string) error {
	ids, err := parseTaskIDs([]string{taskID})
	if err != nil {
		return err
	}

	status, err := r.client.Index(name).TaskStatus(ctx, ids[0])
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(r.out, status)

	return err
}

func (r *Runner) search(ctx context.Context, name string, query *search.Query) error {
	result, err := r.client.Index(name).Search(ctx, query)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(result)
}
