package render

import (
	"bytes"
	"html/template"
)

var htmlPage = template.Must(template.New("page").Parse(`<html>
<head>
<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
<title>Data</title>
</head>
<body>
{{- range .Errors}}
<h3>{{.Message}}</h3>
<p>{{.Detailed}}</p>
{{- end}}
{{- if .Header}}
<table border="1" cellpadding="2" cellspacing="0">
<tr>{{range .Header}}<td><b>{{.}}</b></td>{{end}}</tr>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))

type htmlData struct {
	Errors []htmlError
	Header []string
	Rows   [][]string
}

type htmlError struct {
	Message  string
	Detailed string
}

// HTML renders the response as a minimal HTML page holding the table of
// labels and display strings, or the error messages.
func HTML(r *Response) ([]byte, error) {
	data := htmlData{}
	for _, m := range r.errorMessages() {
		data.Errors = append(data.Errors, htmlError{Message: m.message, Detailed: m.detailed})
	}
	if r.Status() != StatusError && r.Table != nil {
		t := r.Table
		data.Header = make([]string, t.NumColumns())
		for i, col := range t.Columns() {
			data.Header[i] = columnHeader(&col)
		}
		data.Rows = make([][]string, t.NumRows())
		for i := range t.Rows() {
			cells := make([]string, t.NumColumns())
			for j := range cells {
				cells[j] = displayString(t.Cell(i, j), t.Column(j).Type)
			}
			data.Rows[i] = cells
		}
	}
	var buf bytes.Buffer
	if err := htmlPage.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
