package viz

import (
	"context"

	opentracing "github.com/opentracing/opentracing-go"
	"golang.org/x/text/language"
)

// Context carries the request context through parsing, splitting, provider
// calls and engine execution: the standard context for cancellation, a
// tracer for stage spans and the locale user-visible messages are rendered
// in.
type Context struct {
	context.Context
	tracer opentracing.Tracer
	locale language.Tag
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithTracer sets the tracer spans are started from.
func WithTracer(t opentracing.Tracer) ContextOption {
	return func(ctx *Context) {
		ctx.tracer = t
	}
}

// WithLocale sets the locale for user-visible messages and text collation
// defaults.
func WithLocale(tag language.Tag) ContextOption {
	return func(ctx *Context) {
		ctx.locale = tag
	}
}

// NewContext wraps a standard context. Without options the context uses a
// noop tracer and the English locale.
func NewContext(ctx context.Context, opts ...ContextOption) *Context {
	c := &Context{
		Context: ctx,
		tracer:  opentracing.NoopTracer{},
		locale:  language.English,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewEmptyContext returns a default context, mostly for tests.
func NewEmptyContext() *Context {
	return NewContext(context.TODO())
}

// Locale returns the locale of the request.
func (ctx *Context) Locale() language.Tag {
	return ctx.locale
}

// Span creates a new tracing span and a context carrying it. If the current
// context already holds a span, the new one is its child.
func (ctx *Context) Span(opName string, opts ...opentracing.StartSpanOption) (opentracing.Span, *Context) {
	if parent := opentracing.SpanFromContext(ctx.Context); parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}
	span := ctx.tracer.StartSpan(opName, opts...)
	return span, &Context{
		Context: opentracing.ContextWithSpan(ctx.Context, span),
		tracer:  ctx.tracer,
		locale:  ctx.locale,
	}
}
