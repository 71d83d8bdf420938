package strategy

import (
	"context"
	"encoding/json"

	"github.com/xraph/conductor/job"
)

// wrapped is a Handler that keeps the description of inner and runs run.
type wrapped struct {
	inner job.Handler
	run   job.RunFunc
}

func (w *wrapped) Description() job.Description { return w.inner.Description() }

func (w *wrapped) Run(ctx context.Context, argument json.RawMessage, hc *job.HandlerContext) error {
	return w.run(ctx, argument, hc)
}

func wrap(inner job.Handler, run job.RunFunc) job.Handler {
	return &wrapped{inner: inner, run: run}
}
