package telemetry

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentResty opens a span per outgoing request carrying the
// method, url and response status.
func InstrumentResty(client *resty.Client, tracerName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		span := trace.SpanFromContext(res.Request.Context())
		defer span.End()

		span.SetAttributes(
			attribute.String("http.url", res.Request.URL),
			attribute.Int("http.status_code", res.StatusCode()),
		)
		if res.StatusCode() >= 500 {
			span.SetStatus(codes.Error, res.Status())
		}
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		span := trace.SpanFromContext(req.Context())
		defer span.End()

		span.SetAttributes(attribute.String("http.url", req.URL))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	})
}
