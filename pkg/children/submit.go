package children

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/types"
)

// maxInFlight bounds concurrent submissions within one category's
// batch to a fixed fan-out.
const maxInFlight = 10

// Submitter is the abstract destination a child artifact is handed
// to. A conflict (the artifact already exists) is reported through
// the normal error return using apierror.KindConflict; SubmitBatch
// treats that case as success rather than a submission failure.
type Submitter interface {
	Submit(ctx context.Context, req types.SampleRequest) error
}

// SubmitBatch submits every request in reqs with at most maxInFlight
// concurrent calls into submitter. The first non-conflict error
// cancels the remaining in-flight and queued submissions and is
// returned; conflicts are logged by the caller's Submitter and do not
// affect the batch outcome.
func SubmitBatch(ctx context.Context, submitter Submitter, reqs []types.SampleRequest) error {
	sem := semaphore.NewWeighted(maxInFlight)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		firstErr error
	)

	for _, req := range reqs {
		if err := sem.Acquire(ctx, 1); err != nil {
			break // context already canceled by an earlier failure
		}
		wg.Add(1)
		go func(req types.SampleRequest) {
			defer wg.Done()
			defer sem.Release(1)

			err := submitter.Submit(ctx, req)
			if err == nil || apierror.Is(err, apierror.KindConflict) {
				return
			}

			mu.Lock()
			if firstErr == nil {
				firstErr = err
				cancel()
			}
			mu.Unlock()
		}(req)
	}

	wg.Wait()
	return firstErr
}
