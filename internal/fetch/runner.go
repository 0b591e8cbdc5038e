package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/fulmenhq/navkit/internal/content"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/sync/errgroup"
)

// Outcome classifies one resource after a run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Task is one resource that needs an icon.
type Task struct {
	File     string
	Resource content.Resource
}

// TaskResult is the outcome for one task.
type TaskResult struct {
	Task
	Outcome  Outcome
	Icon     string
	Attempts int
	Err      error
}

// Options for a fetch run.
type Options struct {
	Dir     string
	Prefix  string
	Workers int
	DryRun  bool
}

// Result aggregates a fetch run.
type Result struct {
	Files   int
	Tasks   []Task
	Results []TaskResult
	// Written lists each document written back, once per write.
	Written []string
	Failed  map[string]error
}

// Count returns how many results have outcome o.
func (r *Result) Count(o Outcome) int {
	n := 0
	for _, tr := range r.Results {
		if tr.Outcome == o {
			n++
		}
	}
	return n
}

// Candidates lists the resources in doc without a local icon.
func Candidates(doc []byte, prefix string) []content.Resource {
	var out []content.Resource
	for _, r := range content.Resources(doc) {
		if !HasLocalIcon(r.Icon, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// Discover reads every *.json document directly inside dir and returns the
// candidate tasks in file then document order. Unreadable documents are
// recorded in failed.
func Discover(dir, prefix string) (tasks []Task, files int, failed map[string]error, err error) {
	paths, err := content.ListJSON(dir)
	if err != nil {
		return nil, 0, nil, err
	}
	failed = make(map[string]error)
	for _, path := range paths {
		doc, err := content.ReadValid(path)
		if err != nil {
			failed[path] = err
			logger.Error("Skipping unreadable document", logger.String("file", path), logger.Err(err))
			continue
		}
		for _, r := range Candidates(doc, prefix) {
			tasks = append(tasks, Task{File: path, Resource: r})
		}
	}
	return tasks, len(paths), failed, nil
}

// Runner resolves tasks and writes results back.
type Runner struct {
	client *Client
	locks  *fileLocks

	mu      sync.Mutex
	written []string
	failed  map[string]error
}

// NewRunner creates a runner around client.
func NewRunner(client *Client) *Runner {
	return &Runner{client: client, locks: newFileLocks()}
}

// Run discovers candidates under opts.Dir and resolves them. With one
// worker calls are made strictly one at a time; otherwise up to
// opts.Workers calls run concurrently. Each document is written once,
// after every call for it has finished.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	tasks, files, failed, err := Discover(opts.Dir, opts.Prefix)
	if err != nil {
		return nil, err
	}
	res := &Result{Files: files, Tasks: tasks, Failed: failed}
	logger.Info("Found icon candidates",
		logger.Int("files", files),
		logger.Int("candidates", len(tasks)))
	if opts.DryRun || len(tasks) == 0 {
		return res, nil
	}

	r.written = nil
	r.failed = failed
	if opts.Workers <= 1 {
		res.Results = r.Sequential(ctx, tasks)
	} else {
		res.Results = r.Concurrent(ctx, tasks, opts.Workers)
	}
	res.Written = append([]string(nil), r.written...)
	return res, nil
}

// Sequential resolves tasks one at a time, writing each document back when
// its last task completes.
func (r *Runner) Sequential(ctx context.Context, tasks []Task) []TaskResult {
	results := make([]TaskResult, len(tasks))
	pending := pendingByFile(tasks)
	for i, t := range tasks {
		results[i] = r.resolve(ctx, t)
		r.done(pending[t.File], t.File, results)
	}
	return results
}

// Concurrent resolves tasks on up to workers goroutines.
func (r *Runner) Concurrent(ctx context.Context, tasks []Task, workers int) []TaskResult {
	results := make([]TaskResult, len(tasks))
	pending := pendingByFile(tasks)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			results[i] = r.resolve(ctx, t)
			r.done(pending[t.File], t.File, results)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// fileTasks tracks the tasks of one document still in flight.
type fileTasks struct {
	remaining atomic.Int64
	indexes   []int
}

func pendingByFile(tasks []Task) map[string]*fileTasks {
	pending := make(map[string]*fileTasks)
	for i, t := range tasks {
		ft, ok := pending[t.File]
		if !ok {
			ft = &fileTasks{}
			pending[t.File] = ft
		}
		ft.indexes = append(ft.indexes, i)
		ft.remaining.Add(1)
	}
	return pending
}

// done marks one task of path finished; the last one triggers the write.
func (r *Runner) done(ft *fileTasks, path string, results []TaskResult) {
	if ft.remaining.Add(-1) != 0 {
		return
	}
	updates := make([]TaskResult, 0, len(ft.indexes))
	for _, i := range ft.indexes {
		if results[i].Outcome == OutcomeSuccess {
			updates = append(updates, results[i])
		}
	}
	r.writeBack(path, updates)
}

func (r *Runner) resolve(ctx context.Context, t Task) TaskResult {
	tr := TaskResult{Task: t}
	src := t.Resource.SourceURL()
	if src == "" {
		tr.Outcome = OutcomeSkipped
		tr.Err = ErrNoURL
		logger.Debug("Skipping resource without url", logger.String("name", t.Resource.Name))
		return tr
	}

	icon, attempts, err := r.client.Resolve(ctx, src)
	tr.Attempts = attempts
	switch {
	case err != nil:
		tr.Outcome = OutcomeFailed
		tr.Err = err
		logger.Warn("Icon resolve failed",
			logger.String("name", t.Resource.Name),
			logger.String("url", src),
			logger.Int("attempts", attempts),
			logger.Err(err))
	case icon == "":
		tr.Outcome = OutcomeFailed
		tr.Err = errors.New("endpoint returned no local icon")
		logger.Warn("No local icon for resource", logger.String("name", t.Resource.Name), logger.String("url", src))
	default:
		tr.Outcome = OutcomeSuccess
		tr.Icon = icon
		logger.Info("Resolved icon", logger.String("name", t.Resource.Name), logger.String("icon", icon))
	}
	return tr
}

// writeBack applies every successful update for path in one write. The
// document is re-read under the file's lock.
func (r *Runner) writeBack(path string, updates []TaskResult) {
	if len(updates) == 0 {
		return
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].Resource.Path < updates[j].Resource.Path })

	unlock := r.locks.lock(path)
	defer unlock()

	err := func() error {
		doc, err := content.ReadValid(path)
		if err != nil {
			return err
		}
		for _, u := range updates {
			if name := gjson.GetBytes(doc, u.Resource.Path+".name").String(); name != u.Resource.Name {
				return fmt.Errorf("resource at %s changed from %q to %q", u.Resource.Path, u.Resource.Name, name)
			}
			if doc, err = sjson.SetBytes(doc, u.Resource.IconPath(), u.Icon); err != nil {
				return fmt.Errorf("set %s: %w", u.Resource.IconPath(), err)
			}
		}
		return content.Write(path, doc)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failed[path] = err
		logger.Error("Failed to write icons back", logger.String("file", path), logger.Err(err))
		return
	}
	r.written = append(r.written, path)
	logger.Info("Wrote icons back", logger.String("file", path), logger.Int("icons", len(updates)))
}
