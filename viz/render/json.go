package render

import (
	"encoding/json"
	"fmt"

	"github.com/chartdata/go-datasource/viz"
)

type jsonMessage struct {
	Reason   string `json:"reason"`
	Message  string `json:"message,omitempty"`
	Detailed string `json:"detailed_message,omitempty"`
}

type jsonColumn struct {
	ID      string            `json:"id"`
	Label   string            `json:"label"`
	Type    string            `json:"type"`
	Pattern string            `json:"pattern"`
	P       map[string]string `json:"p,omitempty"`
}

type jsonCell struct {
	V interface{}       `json:"v"`
	F string            `json:"f,omitempty"`
	P map[string]string `json:"p,omitempty"`
}

type jsonRow struct {
	C []jsonCell        `json:"c"`
	P map[string]string `json:"p,omitempty"`
}

type jsonTable struct {
	Cols []jsonColumn      `json:"cols"`
	Rows []jsonRow         `json:"rows"`
	P    map[string]string `json:"p,omitempty"`
}

type jsonEnvelope struct {
	Version  string        `json:"version"`
	ReqID    string        `json:"reqId,omitempty"`
	Status   string        `json:"status"`
	Sig      string        `json:"sig,omitempty"`
	Warnings []jsonMessage `json:"warnings,omitempty"`
	Errors   []jsonMessage `json:"errors,omitempty"`
	Table    *jsonTable    `json:"table,omitempty"`
}

// JSON renders the response as the protocol JSON envelope.
func JSON(r *Response) ([]byte, error) {
	return json.Marshal(envelope(r))
}

// JSONP renders the JSON envelope wrapped in a call to handler.
func JSONP(r *Response, handler string) ([]byte, error) {
	if handler == "" {
		handler = DefaultHandler
	}
	body, err := JSON(r)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(handler)+len(body)+3)
	out = append(out, handler...)
	out = append(out, '(')
	out = append(out, body...)
	out = append(out, ')', ';')
	return out, nil
}

func envelope(r *Response) *jsonEnvelope {
	env := &jsonEnvelope{
		Version: Version,
		ReqID:   r.ReqID,
		Status:  r.Status().String(),
	}
	if env.Status == "error" {
		env.Errors = jsonMessages(r.errorMessages())
		return env
	}
	env.Sig = r.Sig
	env.Warnings = jsonMessages(r.warningMessages())
	if r.Table != nil {
		env.Table = tableJSON(r.Table)
	}
	return env
}

func jsonMessages(msgs []statusMessage) []jsonMessage {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]jsonMessage, len(msgs))
	for i, m := range msgs {
		out[i] = jsonMessage{Reason: m.reason, Message: m.message, Detailed: m.detailed}
	}
	return out
}

func tableJSON(t *viz.Table) *jsonTable {
	out := &jsonTable{
		Cols: make([]jsonColumn, t.NumColumns()),
		Rows: make([]jsonRow, t.NumRows()),
		P:    t.Properties(),
	}
	for i, col := range t.Columns() {
		out.Cols[i] = jsonColumn{
			ID:      col.ID,
			Label:   col.Label,
			Type:    col.Type.String(),
			Pattern: col.Pattern,
			P:       col.Properties,
		}
	}
	for i, row := range t.Rows() {
		cells := make([]jsonCell, len(row.Cells))
		for j := range row.Cells {
			cell := &row.Cells[j]
			cells[j] = jsonCell{V: cellValue(cell.Value), F: cell.Formatted, P: cell.Properties}
		}
		out.Rows[i] = jsonRow{C: cells, P: row.Properties}
	}
	return out
}

// cellValue maps a value to its JSON form. Dates and datetimes render as
// "Date(...)" strings with a zero-based month; times of day render as
// [hour, minute, second] with milliseconds appended when nonzero.
func cellValue(v viz.Value) interface{} {
	if v.IsNull() {
		return nil
	}
	switch v.Type() {
	case viz.TypeText:
		return v.Text()
	case viz.TypeNumber:
		return v.Number()
	case viz.TypeBoolean:
		return v.Bool()
	case viz.TypeDate:
		t := v.Time()
		return fmt.Sprintf("Date(%d,%d,%d)", t.Year(), int(t.Month())-1, t.Day())
	case viz.TypeDateTime:
		t := v.Time()
		if ms := t.Nanosecond() / 1e6; ms != 0 {
			return fmt.Sprintf("Date(%d,%d,%d,%d,%d,%d,%d)",
				t.Year(), int(t.Month())-1, t.Day(), t.Hour(), t.Minute(), t.Second(), ms)
		}
		return fmt.Sprintf("Date(%d,%d,%d,%d,%d,%d)",
			t.Year(), int(t.Month())-1, t.Day(), t.Hour(), t.Minute(), t.Second())
	default:
		hour, min, sec, millis := v.Clock()
		if millis != 0 {
			return []int{hour, min, sec, millis}
		}
		return []int{hour, min, sec}
	}
}
