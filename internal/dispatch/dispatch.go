// Package dispatch fans work out over a batch of items and collects one
// outcome per item.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/foldwork/foldwork/internal/cmn/logger"
	"github.com/foldwork/foldwork/internal/cmn/logger/tag"
	"github.com/foldwork/foldwork/internal/core"
)

// ErrPanic is wrapped by the outcome of a work function that panicked.
var ErrPanic = errors.New("work function panicked")

// WorkFunc processes the item at index i.
type WorkFunc[T any] func(ctx context.Context, i int, item T) core.Outcome

// Run calls work once for every item, all items concurrently, and waits for
// all of them. The result has the same length as items and result[i]
// belongs to items[i]. A failing or panicking item does not affect the
// others.
func Run[T any](ctx context.Context, items []T, work WorkFunc[T]) core.DispatchResult {
	results := make(core.DispatchResult, len(items))
	if len(items) == 0 {
		return results
	}

	start := time.Now()
	logger.Debug(ctx, "Dispatching items", tag.Count(len(items)))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = safeCall(ctx, i, item, work)
		}()
	}
	wg.Wait()

	logger.Debug(ctx, "Dispatch finished",
		tag.Count(len(items)),
		tag.Failed(results.FailedCount()),
		tag.Duration(time.Since(start)),
	)

	return results
}

func safeCall[T any](ctx context.Context, i int, item T, work WorkFunc[T]) (outcome core.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Work function panicked",
				tag.Index(i),
				tag.Error(r),
				tag.String("stack", string(debug.Stack())),
			)
			outcome = core.Failed("", fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()
	return work(ctx, i, item)
}
