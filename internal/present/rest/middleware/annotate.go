package middleware

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("rest")

const (
	DocumentIDKey = "document_id"
	UserIDKey     = "user_id"
)

// Annotate copies the document and user path parameters onto the request
// span and the echo context so handlers and logs see the same identifiers.
func Annotate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		span := trace.SpanFromContext(ctx)
		if !span.SpanContext().IsValid() {
			var s trace.Span
			ctx, s = tracer.Start(ctx, "Rest.Middleware.Annotate")
			defer s.End()
			span = s
			c.SetRequest(c.Request().WithContext(ctx))
		}

		for _, key := range []string{DocumentIDKey, UserIDKey} {
			value := c.Param(key)
			if value == "" {
				value = c.QueryParam(key)
			}
			if value == "" {
				continue
			}
			span.SetAttributes(attribute.String(key, value))
			c.Set(key, value)
		}

		return next(c)
	}
}
