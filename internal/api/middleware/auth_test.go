package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-для-кошелька"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// signToken подписывает HS256-токен с указанным секретом и сроком жизни.
func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   "owner",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Ошибка подписи токена: %v", err)
	}
	return token
}

// callProtected выполняет запрос через auth middleware и возвращает
// статус ответа и subject, увиденный конечным обработчиком.
func callProtected(t *testing.T, authHeader string) (int, string) {
	t.Helper()

	auth := NewTokenAuth(testSecret, testLogger())

	var gotSubject string
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec.Code, gotSubject
}

func TestTokenAuthValid(t *testing.T) {
	token := signToken(t, testSecret, time.Now().Add(time.Hour))

	status, subject := callProtected(t, "Bearer "+token)
	if status != http.StatusOK {
		t.Fatalf("Валидный токен: хотели 200, получили %d", status)
	}
	if subject != "owner" {
		t.Errorf("Subject из контекста: хотели %q, получили %q", "owner", subject)
	}
}

func TestTokenAuthRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"нет заголовка", ""},
		{"не Bearer", "Basic abc"},
		{"пустой токен", "Bearer "},
		{"мусор вместо токена", "Bearer not-a-jwt"},
		{"чужой секрет", "Bearer " + signToken(t, "другой-секрет", time.Now().Add(time.Hour))},
		{"просроченный токен", "Bearer " + signToken(t, testSecret, time.Now().Add(-time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := callProtected(t, tt.header)
			if status != http.StatusUnauthorized {
				t.Errorf("Хотели 401, получили %d", status)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/tickets", "/api/v1/tickets"},
		{"/api/v1/tickets/1756400000000", "/api/v1/tickets/{id}"},
		{"/api/v1/tickets/1756400000000/pdf", "/api/v1/tickets/{id}/pdf"},
		{"/health/live", "/health/live"},
		{"/metrics", "/metrics"},
		{"/unknown", "/unknown"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q): хотели %q, получили %q", tt.path, tt.want, got)
		}
	}
}
