package middleware

import (
	"context"

	"github.com/prizeloop/backend/pkg/router"
	"github.com/prizeloop/backend/pkg/xcontext"
)

// Identity reads the user id the upstream gateway attached to the request.
// Authentication happens before the request reaches this service.
func Identity() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		req := xcontext.HTTPRequest(ctx)
		if req == nil {
			return ctx, nil
		}

		if userID := req.Header.Get("X-User-Id"); userID != "" {
			ctx = xcontext.WithRequestUserID(ctx, userID)
		}

		return ctx, nil
	}
}
