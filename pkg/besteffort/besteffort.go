// Package besteffort runs side effects whose failure must never reach the
// caller of the primary operation.
package besteffort

import (
	"context"
	"fmt"

	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
)

// Result reports the outcome of a side effect. Err is informational only.
type Result struct {
	Op  string
	Err error
}

// OK reports whether the side effect succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Run executes fn, logging and swallowing any error or panic.
func Run(ctx context.Context, logg *logger.Logger, op string, fields map[string]any, fn func(ctx context.Context) error) (res Result) {
	res.Op = op
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%s panicked: %v", op, r)
			report(ctx, logg, op, fields, res.Err)
		}
	}()
	if fn == nil {
		return res
	}
	if err := fn(ctx); err != nil {
		res.Err = err
		report(ctx, logg, op, fields, err)
	}
	return res
}

// Failures counts the results that carry an error.
func Failures(results ...Result) int {
	count := 0
	for _, r := range results {
		if !r.OK() {
			count++
		}
	}
	return count
}

func report(ctx context.Context, logg *logger.Logger, op string, fields map[string]any, err error) {
	if logg == nil {
		return
	}
	logCtx := logg.WithField(ctx, "op", op)
	if len(fields) > 0 {
		logCtx = logg.WithFields(logCtx, fields)
	}
	logg.Error(logCtx, "best-effort side effect failed", err)
}
