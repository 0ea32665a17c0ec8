package server

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/chartdata/go-datasource/viz"
)

// SameOriginHeader marks a request as same-origin. The client XHR layer
// sets it; browsers cannot attach it cross-origin, which makes it a
// lightweight XSRF guard.
const SameOriginHeader = "X-DataSource-Auth"

// OutputType selects the wire format of the response.
type OutputType byte

const (
	OutJSON OutputType = iota
	OutJSONP
	OutCSV
	OutTSVExcel
	OutHTML
)

func (o OutputType) String() string {
	switch o {
	case OutJSONP:
		return "jsonp"
	case OutCSV:
		return "csv"
	case OutTSVExcel:
		return "tsv-excel"
	case OutHTML:
		return "html"
	}
	return "json"
}

// parseOutputType resolves the tqx out value; empty means json.
func parseOutputType(s string) (OutputType, bool) {
	switch s {
	case "", "json":
		return OutJSON, true
	case "jsonp":
		return OutJSONP, true
	case "csv":
		return OutCSV, true
	case "tsv-excel":
		return OutTSVExcel, true
	case "html":
		return OutHTML, true
	}
	return OutJSON, false
}

// extension returns the file extension enforced on download names.
func (o OutputType) extension() string {
	switch o {
	case OutCSV:
		return ".csv"
	case OutTSVExcel:
		return ".tsv"
	}
	return ""
}

// Request is the parsed envelope of one datasource request: the query
// string, the tqx options and the negotiated locale.
type Request struct {
	Query           string
	ReqID           string
	Sig             string
	Out             OutputType
	ResponseHandler string
	OutFileName     string
	Locale          language.Tag
	SameOrigin      bool
}

// ParseRequest reads the envelope from an HTTP request: tq carries the
// query, tqx the options, hl the locale with Accept-Language as fallback.
// Unknown tqx keys are ignored; duplicate keys keep the last value.
func ParseRequest(r *http.Request) (*Request, *viz.Error) {
	req := &Request{
		Query:           r.FormValue("tq"),
		ResponseHandler: "",
		SameOrigin:      r.Header.Get(SameOriginHeader) != "",
		Locale:          requestLocale(r),
	}

	for _, pair := range strings.Split(r.FormValue("tqx"), ";") {
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, ":")
		if !found {
			return nil, viz.NewErrorf(viz.ReasonInvalidRequest, "malformed tqx part %q", pair)
		}
		switch key {
		case "reqId":
			req.ReqID = value
		case "sig":
			req.Sig = value
		case "out":
			out, ok := parseOutputType(value)
			if !ok {
				return nil, viz.NewErrorf(viz.ReasonInvalidRequest, "unknown output type %q", value)
			}
			req.Out = out
		case "responseHandler":
			req.ResponseHandler = value
		case "outFileName":
			req.OutFileName = value
		}
	}

	// Cross-origin json responses go out as jsonp: a script tag can load
	// them, a cross-site XHR cannot read them.
	if req.Out == OutJSON && !req.SameOrigin {
		req.Out = OutJSONP
	}
	if req.OutFileName != "" {
		if ext := req.Out.extension(); ext != "" && !strings.HasSuffix(req.OutFileName, ext) {
			req.OutFileName += ext
		}
	}
	return req, nil
}

func requestLocale(r *http.Request) language.Tag {
	if hl := r.FormValue("hl"); hl != "" {
		if tag, err := language.Parse(hl); err == nil {
			return tag
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return tags[0]
		}
	}
	return language.English
}

// contentType returns the Content-Type header value for the output.
func (o OutputType) contentType() string {
	switch o {
	case OutJSON:
		return "application/json; charset=utf-8"
	case OutJSONP:
		return "text/javascript; charset=utf-8"
	case OutCSV:
		return "text/csv; charset=utf-8"
	case OutTSVExcel:
		return "text/tab-separated-values; charset=utf-16le"
	default:
		return "text/html; charset=utf-8"
	}
}
