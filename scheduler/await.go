package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xraph/conductor/job"
	"github.com/xraph/conductor/stream"
)

// Await activates h and returns its last output value once it terminates.
// A job that ends without output yields stream.ErrEmpty.
func Await(ctx context.Context, h job.Handle) (json.RawMessage, error) {
	return stream.Last(ctx, h.Output())
}

// AwaitAs is Await followed by decoding the value into T.
func AwaitAs[T any](ctx context.Context, h job.Handle) (T, error) {
	var v T
	raw, err := Await(ctx, h)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode output of job %q: %w", h.Name(), err)
	}
	return v, nil
}
