package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs one line per RPC with the procedure, the caller,
// the duration and, on failure, the Connect code. Internal errors are logged
// at Error level, everything else the client caused at Warn.
//
// Install it inside RequireAuth so the user ID is known, and outside the
// error mapping so the code is final.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", GetUserID(ctx), // empty for public procedures
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch code := connect.CodeOf(err); {
			case err == nil:
				slog.Info("RPC ok", attrs...)
			case code == connect.CodeInternal || code == connect.CodeUnknown:
				slog.Error("RPC error", append(attrs, "code", code, "error", err)...)
			default:
				slog.Warn("RPC error", append(attrs, "code", code, "error", err)...)
			}
			return resp, err
		}
	}
}
