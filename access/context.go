package access

import (
	"context"
	"errors"
)

type contextKey string

const resultKey contextKey = "REPORTGATE_ACCESS_RESULT"

// WithResult attaches a derived access result to a request context.
func WithResult(ctx context.Context, result Result) context.Context {
	return context.WithValue(ctx, resultKey, result)
}

// ResultFrom reads the access result the guard attached to the context.
func ResultFrom(ctx context.Context) (Result, error) {
	v, ok := ctx.Value(resultKey).(Result)
	if !ok {
		return Result{}, errors.New("no access result in context")
	}
	return v, nil
}
