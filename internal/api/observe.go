package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "todolist/api"
	requestEventName = "todolist.request"
)

// requestObservation records one handled request as a log entry and a span.
type requestObservation struct {
	logger     *log.Logger
	route      string
	start      time.Time
	span       trace.Span
	results    int
	status     string
	errorStage string
}

// observe starts a span for route and attaches it to the request context.
func observe(c echo.Context, logger *log.Logger, route string) (*requestObservation, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(c.Request().Context(), route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("http.route", route)),
	)
	c.SetRequest(c.Request().WithContext(ctx))
	return &requestObservation{
		logger:  logger,
		route:   route,
		start:   time.Now(),
		span:    span,
		results: -1,
	}, ctx
}

func (o *requestObservation) SetResults(n int) {
	if n < 0 {
		n = 0
	}
	o.results = n
}

// SetStatus records the service outcome name.
func (o *requestObservation) SetStatus(status string) {
	o.status = status
}

func (o *requestObservation) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	o.errorStage = stage
}

// End closes the span and writes the log entry.
func (o *requestObservation) End(c echo.Context, err error) {
	if o == nil {
		return
	}
	status := c.Response().Status
	elapsed := time.Since(o.start)

	attrs := []attribute.KeyValue{attribute.Int("http.status_code", status)}
	fields := log.Fields{
		"route":    o.route,
		"status":   status,
		"total_ms": durationToMillis(elapsed),
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		fields["request_id"] = id
	}
	if o.results >= 0 {
		fields["results"] = o.results
		attrs = append(attrs, attribute.Int("todolist.results", o.results))
	}
	if o.status != "" {
		fields["outcome"] = o.status
		attrs = append(attrs, attribute.String("todolist.outcome", o.status))
	}
	if o.errorStage != "" {
		fields["error_stage"] = o.errorStage
		attrs = append(attrs, attribute.String("error.stage", o.errorStage))
		o.span.SetStatus(codes.Error, o.errorStage)
	}
	if err != nil {
		fields["error"] = err.Error()
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.SetAttributes(attrs...)
	o.span.End()

	if o.logger != nil {
		o.logger.WithFields(fields).Info(requestEventName)
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
