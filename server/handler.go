package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	uuid "github.com/satori/go.uuid"

	datasource "github.com/chartdata/go-datasource"
	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/render"
)

// Handler serves the datasource protocol for one data provider.
type Handler struct {
	engine   *datasource.Engine
	provider datasource.DataProvider
	timeout  time.Duration
	tracer   opentracing.Tracer
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithTimeout bounds request execution. Exceeding it produces a timeout
// error response.
func WithTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) { h.timeout = d }
}

// WithTracer sets the tracer request spans are started from.
func WithTracer(t opentracing.Tracer) HandlerOption {
	return func(h *Handler) { h.tracer = t }
}

// NewHandler returns a handler executing queries against provider.
func NewHandler(provider datasource.DataProvider, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:   datasource.New(),
		provider: provider,
		tracer:   opentracing.NoopTracer{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP handles one datasource request. Failures render as protocol
// error responses with HTTP 200; only an unparseable envelope produces a
// transport-level 400. Panics become internal_error responses.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logrus.WithField("request", uuid.NewV4().String())

	req, perr := ParseRequest(r)
	if perr != nil {
		log.WithField("error", perr.Error()).Warn("malformed request envelope")
		h.write(w, http.StatusBadRequest, &Request{Out: OutJSONP, Locale: requestLocale(r)},
			&render.Response{Errors: []*viz.Error{perr}, Locale: requestLocale(r)})
		return
	}

	resp := h.execute(r.Context(), req)
	h.write(w, http.StatusOK, req, resp)

	log.WithFields(logrus.Fields{
		"reqId":    req.ReqID,
		"out":      req.Out.String(),
		"status":   resp.Status().String(),
		"duration": time.Since(start),
	}).Info("request served")
}

// execute runs the query and assembles the response, converting panics and
// deadline hits into protocol errors.
func (h *Handler) execute(ctx context.Context, req *Request) (resp *render.Response) {
	resp = &render.Response{ReqID: req.ReqID, Locale: req.Locale}
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("panic during query execution: %v", r)
			resp.Table = nil
			resp.Errors = []*viz.Error{viz.NewErrorf(viz.ReasonInternalError, "%v", r)}
		}
	}()

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	vctx := viz.NewContext(ctx, viz.WithLocale(req.Locale), viz.WithTracer(h.tracer))

	table, err := h.engine.Execute(vctx, req.Query, h.provider)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			resp.Errors = []*viz.Error{viz.NewError(viz.ReasonTimeout, "")}
			return resp
		}
		resp.Errors = []*viz.Error{viz.AsError(err)}
		return resp
	}

	sig, err := render.Signature(table)
	if err != nil {
		resp.Errors = []*viz.Error{viz.AsError(err)}
		return resp
	}
	if req.Sig != "" && req.Sig == sig {
		resp.Errors = []*viz.Error{viz.NewError(viz.ReasonNotModified, "")}
		return resp
	}
	resp.Table = table
	resp.Sig = sig
	return resp
}

// write renders the response in the requested output format.
func (h *Handler) write(w http.ResponseWriter, code int, req *Request, resp *render.Response) {
	var (
		body []byte
		err  error
	)
	switch req.Out {
	case OutJSON:
		body, err = render.JSON(resp)
	case OutJSONP:
		body, err = render.JSONP(resp, req.ResponseHandler)
	case OutCSV:
		body, err = render.CSV(resp)
	case OutTSVExcel:
		body, err = render.TSVExcel(resp)
	default:
		body, err = render.HTML(resp)
	}
	if err != nil {
		logrus.WithError(err).Error("response rendering failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", req.Out.contentType())
	if req.OutFileName != "" {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", req.OutFileName))
	}
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		logrus.WithError(err).Warn("response write failed")
	}
}
