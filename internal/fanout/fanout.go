// Package fanout runs a batch of keyed tasks concurrently and collects
// every per-key result before reporting. A failed task never cancels its
// siblings; callers decide how many successes they need.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNoInput is returned when a batch contains zero tasks.
	ErrNoInput = errors.New("fanout: no tasks")
	// ErrNoSuccess is returned when every task in a batch failed.
	ErrNoSuccess = errors.New("fanout: all tasks failed")
)

// Task is one unit of keyed work. Keys must be unique within a batch.
type Task[T any] struct {
	Key string
	Run func(ctx context.Context) (T, error)
}

// Failure records a task that returned an error.
type Failure struct {
	Key string
	Err error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Key, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Outcome holds the joined results of a batch. Successes is keyed by
// task key; Failures is sorted by key for stable reporting.
type Outcome[T any] struct {
	Successes map[string]T
	Failures  []Failure
}

// Err summarizes the batch. It returns nil when at least one task
// succeeded, and ErrNoSuccess (with the first failure attached) when
// none did.
func (o Outcome[T]) Err() error {
	if len(o.Successes) > 0 {
		return nil
	}
	if len(o.Failures) == 0 {
		return ErrNoInput
	}
	return fmt.Errorf("%w: %v", ErrNoSuccess, o.Failures[0])
}

// Run executes every task with at most limit running concurrently.
// A limit below one is treated as unbounded. Run always waits for all
// tasks; ctx cancellation surfaces as per-task failures rather than a
// partial outcome.
func Run[T any](ctx context.Context, tasks []Task[T], limit int) (Outcome[T], error) {
	if len(tasks) == 0 {
		return Outcome[T]{}, ErrNoInput
	}

	var sem chan struct{}
	if limit > 0 {
		sem = make(chan struct{}, limit)
	}

	type keyed struct {
		key   string
		value T
		err   error
	}
	results := make(chan keyed, len(tasks))

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task Task[T]) {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					results <- keyed{key: task.Key, err: ctx.Err()}
					return
				}
			}
			value, err := runTask(ctx, task)
			results <- keyed{key: task.Key, value: value, err: err}
		}(task)
	}
	wg.Wait()
	close(results)

	outcome := Outcome[T]{Successes: make(map[string]T, len(tasks))}
	for res := range results {
		if res.err != nil {
			outcome.Failures = append(outcome.Failures, Failure{Key: res.key, Err: res.err})
			continue
		}
		outcome.Successes[res.key] = res.value
	}
	sort.Slice(outcome.Failures, func(i, j int) bool {
		return outcome.Failures[i].Key < outcome.Failures[j].Key
	})
	return outcome, nil
}

func runTask[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return value, err
	}
	return task.Run(ctx)
}
