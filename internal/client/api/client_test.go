package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/agroprofile/pkg/api"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// TestNewClient проверяет создание нового клиента
func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)

	client = NewClient("http://localhost:8080", WithTimeout(time.Second))
	assert.Equal(t, time.Second, client.httpClient.Timeout)

	hc := &http.Client{}
	client = NewClient("http://localhost:8080", WithHTTPClient(hc))
	assert.Same(t, hc, client.httpClient)
}

// TestClient_Register проверяет успешную регистрацию
func TestClient_Register(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req api.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+94000", req.PhoneNumber)
		assert.Equal(t, "p1", req.Password)
		assert.Equal(t, []string{"Rice"}, req.SelectedCrops)

		writeJSON(t, w, http.StatusCreated, api.AuthResponse{
			Success: true,
			Token:   "token-a",
			User:    api.User{ID: 7, FullName: req.FullName, PhoneNumber: req.PhoneNumber, SelectedCrops: req.SelectedCrops},
		})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Register(context.Background(), api.RegisterRequest{
		FullName:      "Test Farmer",
		PhoneNumber:   "+94000",
		Password:      "p1",
		SelectedCrops: []string{"Rice"},
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "token-a", resp.Token)
	assert.Equal(t, int64(7), resp.User.ID)
}

func TestClient_AuthorizedCalls(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/auth/profile", r.URL.Path)
		seen = append(seen, r.Method)

		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, api.ProfileResponse{Success: true, User: api.User{ID: 1, FullName: "A"}})
		case http.MethodPut:
			var req api.UpdateProfileRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.NotNil(t, req.FullName)
			writeJSON(t, w, http.StatusOK, api.ProfileResponse{Success: true, User: api.User{ID: 1, FullName: *req.FullName}})
		case http.MethodDelete:
			writeJSON(t, w, http.StatusOK, api.MessageResponse{Success: true, Message: "Account deleted successfully"})
		}
	}))
	defer server.Close()

	ctx := context.Background()
	client := NewClient(server.URL)

	profile, err := client.GetProfile(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "A", profile.User.FullName)

	name := "B"
	updated, err := client.UpdateProfile(ctx, "tok", api.UpdateProfileRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.User.FullName)

	deleted, err := client.DeleteAccount(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Account deleted successfully", deleted.Message)

	assert.Equal(t, []string{http.MethodGet, http.MethodPut, http.MethodDelete}, seen)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		wantKind error
		name     string
		message  string
		status   int
	}{
		{name: "bad request", status: http.StatusBadRequest, message: "fullName is required", wantKind: ErrInvalidInput},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, wantKind: ErrInvalidInput},
		{name: "unauthorized", status: http.StatusUnauthorized, message: "invalid password", wantKind: ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, wantKind: ErrUnauthorized},
		{name: "not found", status: http.StatusNotFound, message: "user not found", wantKind: ErrNotFound},
		{name: "conflict", status: http.StatusConflict, message: "phone number already registered", wantKind: ErrConflict},
		{name: "rate limited", status: http.StatusTooManyRequests, wantKind: ErrRateLimited},
		{name: "internal", status: http.StatusInternalServerError, message: "internal server error", wantKind: ErrServerFault},
		{name: "bad gateway", status: http.StatusBadGateway, wantKind: ErrServerFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, tt.status, api.ErrorResponse{
					Success: false,
					Error:   http.StatusText(tt.status),
					Message: tt.message,
				})
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Login(context.Background(), api.LoginRequest{PhoneNumber: "+94000", Password: "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.message, statusErr.Message)

			assert.NotErrorIs(t, err, ErrTransport)
			assert.NotErrorIs(t, err, ErrCanceled)
		})
	}
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetProfile(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrServerFault)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Empty(t, statusErr.Message)
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>captive portal</html>"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetProfile(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrServerFault)
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).Register(context.Background(), api.RegisterRequest{FullName: "A", PhoneNumber: "+94000", Password: "p1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrCanceled)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestClient_TimeoutIsTransport(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := NewClient(server.URL, WithTimeout(50*time.Millisecond)).GetProfile(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrTransport)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = NewClient(server.URL).GetProfile(ctx, "tok")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_Canceled(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := NewClient(server.URL).UpdateProfile(ctx, "tok", api.UpdateProfileRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		writeJSON(t, w, http.StatusOK, api.HealthResponse{Status: "ok", Version: "1.0.0"})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
}

func TestStatusError_Error(t *testing.T) {
	assert.Equal(t, "server responded 404: user not found", NewStatusError(404, "user not found").Error())
	assert.Equal(t, "server responded 502", NewStatusError(502, "").Error())
}
