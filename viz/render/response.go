// Package render serializes result tables and failure statuses into the
// wire formats of the datasource protocol: the JSON envelope and its
// JSONP wrapping, CSV, tab-separated values for spreadsheet import and a
// plain HTML table.
package render

import (
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"github.com/chartdata/go-datasource/viz"
)

// Version is the protocol version carried in every JSON envelope.
const Version = "0.6"

// DefaultHandler is the JSONP callback used when the request names none.
const DefaultHandler = "google.visualization.Query.setResponse"

// Status is the overall outcome of a request.
type Status byte

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	}
	return "ok"
}

// Response is a rendered request outcome: either a result table, possibly
// carrying warnings, or a list of errors. The locale selects the language
// of user-facing messages.
type Response struct {
	ReqID  string
	Sig    string
	Table  *viz.Table
	Errors []*viz.Error
	Locale language.Tag
}

// Status derives the envelope status: any error wins, then any table
// warning, then ok.
func (r *Response) Status() Status {
	if len(r.Errors) > 0 {
		return StatusError
	}
	if r.Table != nil && len(r.Table.Warnings()) > 0 {
		return StatusWarning
	}
	return StatusOK
}

// statusMessage is one error or warning entry of the envelope.
type statusMessage struct {
	reason   string
	message  string
	detailed string
}

// errorMessage renders one error. A user_not_authenticated error whose
// detailed message is a bare URL is rewritten into an HTML link labeled
// with the localized sign-in text, so clients can present it directly.
func errorMessage(e *viz.Error, loc language.Tag) statusMessage {
	detailed := e.Detailed
	if e.Reason == viz.ReasonUserNotAuthenticated && isURL(detailed) {
		detailed = `<a target="_blank" href="` + detailed + `">` +
			viz.Message(loc, viz.MsgSignIn) + `</a>`
	}
	return statusMessage{
		reason:   e.Reason.String(),
		message:  e.Reason.Message(loc),
		detailed: detailed,
	}
}

func warningMessage(w viz.Warning, loc language.Tag) statusMessage {
	return statusMessage{
		reason:   w.Reason.String(),
		message:  w.Reason.Message(loc),
		detailed: w.Message,
	}
}

func (r *Response) errorMessages() []statusMessage {
	out := make([]statusMessage, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = errorMessage(e, r.Locale)
	}
	return out
}

func (r *Response) warningMessages() []statusMessage {
	if r.Table == nil {
		return nil
	}
	warnings := r.Table.Warnings()
	out := make([]statusMessage, len(warnings))
	for i, w := range warnings {
		out[i] = warningMessage(w, r.Locale)
	}
	return out
}

func isURL(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
