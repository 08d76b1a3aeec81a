package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeAuth implements Authenticator with a fixed user id.
type fakeAuth struct {
	userID string
}

func (f fakeAuth) CurrentUserID(ctx context.Context) string { return f.userID }

func TestSessionAuth(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		userID       string
		expectedCode int
		expectedUser string
	}{
		{
			name:         "register is open",
			path:         "/api/register",
			userID:       "",
			expectedCode: http.StatusOK,
			expectedUser: "",
		},
		{
			name:         "login is open",
			path:         "/api/login",
			userID:       "",
			expectedCode: http.StatusOK,
			expectedUser: "",
		},
		{
			name:         "no session rejected",
			path:         "/api/decks",
			userID:       "",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "active session passes with user in context",
			path:         "/api/decks",
			userID:       "user-1",
			expectedCode: http.StatusOK,
			expectedUser: "user-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = GetUserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", tt.path, nil)
			SessionAuth(fakeAuth{userID: tt.userID})(next).ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Errorf("status = %d; want %d", rec.Code, tt.expectedCode)
			}
			if rec.Code == http.StatusOK && gotUser != tt.expectedUser {
				t.Errorf("context user = %q; want %q", gotUser, tt.expectedUser)
			}
		})
	}
}

func TestGetUserIDFromContext_Empty(t *testing.T) {
	if got := GetUserIDFromContext(context.Background()); got != "" {
		t.Errorf("got %q; want empty", got)
	}
}
