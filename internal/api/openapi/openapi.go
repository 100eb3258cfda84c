// Пакет openapi — встроенный OpenAPI-контракт и runtime-валидация
// запросов против него. Контракт — источник истины для формы API;
// middleware отклоняет запросы, не соответствующие описанным
// параметрам, до попадания в handlers.
package openapi

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"

	apierrors "github.com/bigkaa/ticketwallet/internal/api/errors"
)

//go:embed openapi.yaml
var contract []byte

// Validator загружает встроенный контракт и возвращает middleware,
// валидирующий параметры запросов. Тело multipart-запроса создания
// билета проверяется в handler (размер, обязательность полей);
// здесь ExcludeRequestBody, чтобы не вычитывать файл дважды.
// Неизвестные маршруты пропускаются дальше — 404 вернёт роутер.
func Validator(logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(contract)
	if err != nil {
		return nil, fmt.Errorf("загрузка OpenAPI контракта: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("валидация OpenAPI контракта: %w", err)
	}

	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("создание OpenAPI роутера: %w", err)
	}

	log := logger.With(slog.String("component", "openapi"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					ExcludeRequestBody: true,
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				log.Debug("Запрос отклонён OpenAPI-валидацией",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				apierrors.ValidationError(w, "Запрос не соответствует контракту API")
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
