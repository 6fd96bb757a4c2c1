package services

import (
	"strings"

	apperrors "chowvest/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("chowvest/internal/services")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// outcome labels a metric by error code, e.g. "insufficient_funds".
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if appErr, ok := apperrors.As(err); ok {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}
