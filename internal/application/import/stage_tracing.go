package importapp

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// stageSpans keeps one child span of the request span open per pipeline stage
type stageSpans struct {
	root    trace.Span
	parent  context.Context
	current context.Context
	span    trace.Span
}

// start ends the open stage span and starts one for state
func (st *stageSpans) start(state ImportState) context.Context {
	st.finish(nil)
	st.current, st.span = telemetry.StartSpan(st.parent, "product_import."+string(state),
		telemetry.WithAttribute("import.stage", string(state)),
	)
	return st.current
}

// finish ends the open stage span, marking it failed when err is set
func (st *stageSpans) finish(err error) {
	if st.span == nil {
		return
	}
	telemetry.RecordError(st.span, err)
	st.span.End()
	st.span = nil
}

func attributeSourceURL(v string) attribute.KeyValue { return attribute.String("import.source_url", v) }
func attributeProductID(v string) attribute.KeyValue { return attribute.String("import.product_id", v) }
func attributeOutcome(v string) attribute.KeyValue   { return attribute.String("import.outcome", v) }
func attributeErrorCode(v string) attribute.KeyValue { return attribute.String("import.error_code", v) }

// causeCode returns the domain error code beneath an import error, if any
func causeCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
