package auth

import (
	"context"
	"net/http"
	"strings"

	"movie-favorites/internal/apperr"
	"movie-favorites/internal/httpx"
	"movie-favorites/internal/observability"
)

type subjectKey struct{}

func WithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subjectID)
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey{}).(string)
	return subject, ok && subject != ""
}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Gate rejects requests without a valid token and attaches the verified
// subject to the request context. The Authorization header may hold the raw
// token or "Bearer <token>".
func Gate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r.Header.Get("Authorization"))
			if token == "" {
				httpx.WriteError(w, r, apperr.Unauthenticated("missing authorization token"))
				return
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				observability.FromContext(r.Context()).Debug("token_rejected", "error", err.Error())
				httpx.WriteError(w, r, err)
				return
			}

			ctx := WithSubject(r.Context(), subject)
			logger := observability.FromContext(ctx).With("user_id", subject)
			next.ServeHTTP(w, r.WithContext(observability.WithLogger(ctx, logger)))
		})
	}
}

func extractToken(header string) string {
	header = strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}
