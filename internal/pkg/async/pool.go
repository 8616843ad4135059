// Package async provides a small worker pool for joining independent
// tasks, typically read-only database queries issued side by side.
package async

import (
	"context"
	"sync"
)

// Task is a named unit of work.
type Task struct {
	Name    string
	Execute func() (interface{}, error)
}

// Result carries a task's outcome, keyed by its name.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool runs tasks on a fixed number of workers and joins all results
// before returning (join semantics, not first-to-finish).
type Pool struct {
	workerCount int
	tasks       chan Task
	results     chan Result
}

// NewPool creates a pool with the given worker count.
func NewPool(workerCount int) *Pool {
	return &Pool{
		workerCount: workerCount,
		tasks:       make(chan Task),
		results:     make(chan Result),
	}
}

func (p *Pool) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			data, err := task.Execute()
			p.results <- Result{
				Name: task.Name,
				Data: data,
				Err:  err,
			}
		case <-ctx.Done():
			return
		}
	}
}

// Execute runs all tasks and returns their results keyed by name. On
// context cancellation it returns whatever results were already collected.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	var wg sync.WaitGroup
	results := make(map[string]Result)

	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go p.worker(ctx, &wg)
	}

	go func() {
		for _, task := range tasks {
			select {
			case p.tasks <- task:
			case <-ctx.Done():
				return
			}
		}
		close(p.tasks)
	}()

	for i := 0; i < len(tasks); i++ {
		select {
		case result := <-p.results:
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}

	wg.Wait()
	close(p.results)

	return results
}

// FirstError returns the first error found in results, if any. Callers
// that need all-or-nothing joins check this before consuming data.
func FirstError(results map[string]Result) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
