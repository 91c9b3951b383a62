package advisor

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"feverscan/internal/llm"
)

// retryPolicy is the calling discipline around one generative operation.  It
// is applied identically to diagnosis and follow-up calls.
//
//   - quota errors back off exponentially (base * 2^attempt) plus up to one
//     second of jitter;
//   - timeouts back off linearly (base * (attempt+1));
//   - any other error aborts immediately;
//   - the final attempt never sleeps, its failure is returned to the caller
//     so the fallback text can be used instead.
type retryPolicy struct {
	attempts  int
	baseDelay time.Duration
	sleep     func(time.Duration)
	jitter    func() float64 // in [0,1)
}

func defaultRetryPolicy(attempts int, baseDelay time.Duration) retryPolicy {
	if attempts < 1 {
		attempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return retryPolicy{
		attempts:  attempts,
		baseDelay: baseDelay,
		sleep:     time.Sleep,
		jitter:    rand.Float64,
	}
}

// do runs op under the policy and returns the last error once the budget is
// exhausted or a non-retryable error occurs.
func (p retryPolicy) do(ctx context.Context, op func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < p.attempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		last := attempt == p.attempts-1
		switch {
		case errors.Is(err, llm.ErrQuotaExceeded):
			if last {
				return "", lastErr
			}
			backoff := p.baseDelay<<uint(attempt) + time.Duration(p.jitter()*float64(time.Second))
			p.sleep(backoff)
		case errors.Is(err, llm.ErrTimeout):
			if last {
				return "", lastErr
			}
			p.sleep(p.baseDelay * time.Duration(attempt+1))
		default:
			// Unknown failures are not retried.
			return "", lastErr
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
	}
	return "", lastErr
}
