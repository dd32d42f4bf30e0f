package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/transport"
	"github.com/frahmantamala/gym-management/pkg/logger"
)

// OpenAPIValidator checks requests against the published API document
// before they reach a handler. Requests for undocumented routes pass through.
type OpenAPIValidator struct {
	router routers.Router
	base   *transport.BaseHandler
}

func NewOpenAPIValidator(ctx context.Context, doc []byte, lg *slog.Logger) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	loaded, err := loader.LoadFromData(doc)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := loaded.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	router, err := gorillamux.NewRouter(loaded)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &OpenAPIValidator{router: router, base: transport.NewBaseHandler(lg)}, nil
}

func (v *OpenAPIValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			logger.From(r.Context()).DebugContext(r.Context(), "request failed schema validation",
				"path", r.URL.Path, "error", err)
			v.base.HandleError(w, r, requestValidationError(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestValidationError(err error) *internal.AppError {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		field := strings.Join(schemaErr.JSONPointer(), ".")
		if field == "" {
			field = "body"
		}
		return internal.NewValidationFieldError(field, schemaErr.Reason, internal.ErrCodeValidationFailed)
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return internal.NewValidationFieldError(reqErr.Parameter.Name, reqErr.Parameter.Name+" is invalid", internal.ErrCodeValidationFailed)
		}
		if reqErr.RequestBody != nil {
			return internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed)
		}
	}
	return internal.NewValidationError("invalid request", internal.ErrCodeValidationFailed)
}
