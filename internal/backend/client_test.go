package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foxzi/statboard/internal/credential"
	"github.com/foxzi/statboard/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *credential.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := credential.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(srv.URL+"/", 0, store, logger), store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestSignIn_NoAuthorizationWithoutToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/signin" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization header should be omitted, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}

		var req models.SignInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Email != "a@b.com" || req.Password != "x" {
			t.Errorf("unexpected body %+v", req)
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"access_token": "tok",
			"user":         map[string]string{"id": "1", "email": "a@b.com"},
		})
	})

	resp, err := client.SignIn(context.Background(), "a@b.com", "x")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if resp.AccessToken != "tok" || resp.User.ID != "1" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestProfile_AttachesBearer(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want Bearer secret", got)
		}
		writeJSON(w, http.StatusOK, models.Identity{
			ID: "1", Email: "a@b.com", Role: models.RoleAdmin, Status: models.StatusApproved,
		})
	})
	store.Save("secret")

	id, err := client.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if !id.IsAdmin() {
		t.Errorf("expected admin identity, got %+v", id)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantMsg    string
		wantStatus int
	}{
		{
			name:       "structured auth error",
			status:     401,
			body:       `{"message":"Invalid credentials","statusCode":401}`,
			wantKind:   KindAuth,
			wantMsg:    "Invalid credentials",
			wantStatus: 401,
		},
		{
			name:       "validation list",
			status:     400,
			body:       `{"message":["email must be an email","password is too short"],"statusCode":400}`,
			wantKind:   KindValidation,
			wantMsg:    "email must be an email; password is too short",
			wantStatus: 400,
		},
		{
			name:       "missing status code uses observed",
			status:     409,
			body:       `{"message":"User already exists"}`,
			wantKind:   KindValidation,
			wantMsg:    "User already exists",
			wantStatus: 409,
		},
		{
			name:       "server error",
			status:     500,
			body:       `{"message":"boom","statusCode":500}`,
			wantKind:   KindServer,
			wantMsg:    "boom",
			wantStatus: 500,
		},
		{
			name:       "unparsable body",
			status:     502,
			body:       `<html>Bad Gateway</html>`,
			wantKind:   KindTransport,
			wantMsg:    "Network error occurred",
			wantStatus: 502,
		},
		{
			name:       "json without message",
			status:     404,
			body:       `{"error":"nope"}`,
			wantKind:   KindTransport,
			wantMsg:    "Network error occurred",
			wantStatus: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.Statistics(context.Background())
			e, ok := AsError(err)
			if !ok {
				t.Fatalf("expected *Error, got %T %v", err, err)
			}
			if e.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", e.Kind, tt.wantKind)
			}
			if e.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", e.Message, tt.wantMsg)
			}
			if e.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", e.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, 0, nil, nil)
	_, err := client.Profile(context.Background())

	e, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Kind != KindTransport || e.StatusCode != 0 || e.Message != networkErrorMessage {
		t.Errorf("unexpected error %+v", e)
	}
}

func TestProfile_RejectsMalformedIdentity(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"id": "1", "email": "a@b.com", "role": "root", "status": "approved"})
	})

	_, err := client.Profile(context.Background())
	e, ok := AsError(err)
	if !ok || e.Kind != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSignIn_RejectsMissingToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": "1"}})
	})

	if _, err := client.SignIn(context.Background(), "a@b.com", "x"); err == nil {
		t.Fatal("expected error for reply without access_token")
	}
}

func TestApproveAndReject(t *testing.T) {
	var calls []string
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})
	store.Save("admin-token")

	if err := client.ApproveUser(context.Background(), "u 1"); err != nil {
		t.Fatalf("ApproveUser failed: %v", err)
	}
	if err := client.RejectUser(context.Background(), "u2"); err != nil {
		t.Fatalf("RejectUser failed: %v", err)
	}
	if err := client.ApproveUser(context.Background(), ""); err != ErrEmptyID {
		t.Errorf("ApproveUser(\"\") = %v, want ErrEmptyID", err)
	}

	want := []string{"PATCH /users/u%201/approve", "PATCH /users/u2/reject"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestPendingUsersAndStatistics(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/pending":
			writeJSON(w, http.StatusOK, []models.Identity{
				{ID: "2", Email: "p@b.com", Role: models.RoleUser, Status: models.StatusPending},
			})
		case "/statistics":
			io.WriteString(w, `null`)
		default:
			http.NotFound(w, r)
		}
	})

	users, err := client.PendingUsers(context.Background())
	if err != nil {
		t.Fatalf("PendingUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Email != "p@b.com" {
		t.Errorf("unexpected users %+v", users)
	}

	rows, err := client.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil rows, got %#v", rows)
	}
}

func TestHelpers(t *testing.T) {
	authErr := &Error{Kind: KindAuth, Message: "Unauthorized", StatusCode: 401}
	if !IsAuth(authErr) || IsValidation(authErr) {
		t.Error("classification helpers disagree with Kind")
	}
	if got := MessageOr(authErr, "fallback"); got != "Unauthorized" {
		t.Errorf("MessageOr = %q", got)
	}
	if got := MessageOr(io.EOF, "fallback"); got != "fallback" {
		t.Errorf("MessageOr on foreign error = %q", got)
	}
}
