package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// CaptureError reports err to Sentry tagged with the request id, if any.
func CaptureError(ctx context.Context, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		if reqID := RequestIDFromContext(ctx); reqID != "" {
			scope.SetTag("request_id", reqID)
		}
		sentry.CaptureException(err)
	})
}
