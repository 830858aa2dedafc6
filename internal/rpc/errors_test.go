package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/expense-tracker/internal/errs"
)

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"not found", errs.NotFound("group g1"), connect.CodeNotFound},
		{"forbidden", errs.Forbidden("not a member"), connect.CodePermissionDenied},
		{"validation", errs.Validation("amount must be positive"), connect.CodeInvalidArgument},
		{"conflict", errs.Conflict("email taken"), connect.CodeAlreadyExists},
		{"unauthorized", fmt.Errorf("login: %w", errs.ErrUnauthorized), connect.CodeUnauthenticated},
		{"deadline", context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{"storage", &errs.StorageError{Op: "save", Err: errors.New("disk full")}, connect.CodeInternal},
		{"unknown", errors.New("boom"), connect.CodeInternal},
		{"already mapped", connect.NewError(connect.CodeUnavailable, errors.New("down")), connect.CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := connect.CodeOf(toConnectError(tt.err))
			if got != tt.want {
				t.Errorf("code = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInternalErrorsHideDetail(t *testing.T) {
	err := toConnectError(&errs.StorageError{Op: "save", Collection: "splits", Err: errors.New("/var/data.json: disk full")})
	if strings.Contains(err.Error(), "disk full") {
		t.Errorf("internal error leaked detail: %v", err)
	}
}
