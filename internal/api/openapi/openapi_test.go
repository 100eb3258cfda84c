package openapi

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// passthrough фиксирует, дошёл ли запрос до следующего обработчика.
func passthrough(reached *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*reached = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestValidatorLoadsContract(t *testing.T) {
	if _, err := Validator(testLogger()); err != nil {
		t.Fatalf("Встроенный контракт должен загружаться без ошибок: %v", err)
	}
}

func TestValidatorPassesKnownRoute(t *testing.T) {
	validator, err := Validator(testLogger())
	if err != nil {
		t.Fatalf("Ошибка создания валидатора: %v", err)
	}

	reached := false
	handler := validator(passthrough(&reached))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Error("Корректный запрос должен дойти до обработчика")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Хотели 200, получили %d", rec.Code)
	}
}

func TestValidatorPassesUnknownRouteThrough(t *testing.T) {
	validator, err := Validator(testLogger())
	if err != nil {
		t.Fatalf("Ошибка создания валидатора: %v", err)
	}

	reached := false
	handler := validator(passthrough(&reached))

	// Неизвестный маршрут пропускается дальше: 404 — забота роутера
	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Error("Неизвестный маршрут должен передаваться следующему обработчику")
	}
}
