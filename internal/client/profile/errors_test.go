package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/agroprofile/internal/client/api"
)

func TestIsFallbackEligible(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil},
		{name: "transport", err: transportErr(), want: true},
		{name: "500", err: statusErr(http.StatusInternalServerError, ""), want: true},
		{name: "503", err: statusErr(http.StatusServiceUnavailable, ""), want: true},
		{name: "400", err: statusErr(http.StatusBadRequest, "bad")},
		{name: "401", err: statusErr(http.StatusUnauthorized, "invalid token")},
		{name: "404", err: statusErr(http.StatusNotFound, "user not found")},
		{name: "409", err: statusErr(http.StatusConflict, "exists")},
		{name: "429", err: statusErr(http.StatusTooManyRequests, "")},
		{name: "canceled", err: fmt.Errorf("%w: %w", api.ErrCanceled, context.Canceled)},
		{name: "plain context canceled", err: context.Canceled},
		// отмена побеждает, даже если ошибка помечена как сетевая
		{name: "canceled transport", err: fmt.Errorf("%w: %w", api.ErrTransport, context.Canceled)},
		{name: "unrelated", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFallbackEligible(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err      error
		name     string
		contains string
	}{
		{name: "nil", err: nil, contains: ""},
		{name: "local validation", err: invalid(errors.New("age must be a whole number")), contains: "Invalid input: age must be a whole number"},
		{name: "server validation", err: statusErr(http.StatusBadRequest, "fullName is required"), contains: "Invalid input: fullName is required"},
		{name: "conflict", err: statusErr(http.StatusConflict, ""), contains: "already registered"},
		{name: "wrong password", err: fmt.Errorf("%w: %w", ErrInvalidCredentials, statusErr(http.StatusUnauthorized, "")), contains: "Incorrect password"},
		{name: "unknown phone", err: fmt.Errorf("%w: %w", ErrUnknownAccount, statusErr(http.StatusNotFound, "")), contains: "No account"},
		{name: "stale session", err: statusErr(http.StatusUnauthorized, "invalid token"), contains: "log in again"},
		{name: "deleted account", err: statusErr(http.StatusNotFound, "user not found"), contains: "no longer exists"},
		{name: "rate limited", err: statusErr(http.StatusTooManyRequests, ""), contains: "Too many attempts"},
		{name: "server fault", err: statusErr(http.StatusInternalServerError, "sql: database is locked"), contains: "try again later"},
		{name: "transport", err: transportErr(), contains: "Cannot reach the server"},
		{name: "canceled", err: fmt.Errorf("%w: %w", api.ErrCanceled, context.Canceled), contains: "cancelled"},
		{name: "no session", err: ErrNoSession, contains: "not logged in"},
		{name: "local only", err: ErrLocalOnlySession, contains: "pending sync"},
		{name: "local store", err: fmt.Errorf("%w: disk full", ErrLocalStore), contains: "this device"},
		{name: "deleted but cache kept", err: fmt.Errorf("%w: %w", ErrAccountDeletedCacheKept, fmt.Errorf("%w: disk full", ErrLocalStore)), contains: "deleted on the server"},
		{name: "unknown", err: errors.New("boom"), contains: "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := UserMessage(tt.err)
			assert.Contains(t, msg, tt.contains)
		})
	}
}

func TestUserMessage_HidesServerDetails(t *testing.T) {
	msg := UserMessage(statusErr(http.StatusInternalServerError, "sql: database is locked"))
	assert.NotContains(t, msg, "sql")
	assert.NotContains(t, msg, "500")
}
