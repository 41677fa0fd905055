package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/maksymlunov/Strangers-2025/internal/domain"
)

// Renderer turns a compiled document into bytes for the HTTP layer. It
// returns the body and its content type.
type Renderer interface {
	Render(doc Document) ([]byte, string, error)
}

// HTMLRenderer renders the report as a standalone HTML page. Model output
// and patient text pass through template escaping, so the page stays inert
// no matter what the model produced.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"fmtTime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04")
		},
		"roleLabel": func(r domain.Role) string {
			if r == domain.RoleUser {
				return "User"
			}
			return "Assistant"
		},
	}).Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

func (r *HTMLRenderer) Render(doc Document) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return nil, "", fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), "text/html; charset=utf-8", nil
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; margin: 40px auto; max-width: 760px; color: #1a1a1a; }
  h1 { text-align: center; margin-bottom: 4px; }
  h2 { border-bottom: 1px solid #ccc; padding-bottom: 4px; margin-top: 28px; }
  h3 { margin-bottom: 4px; }
  table { border-collapse: collapse; width: 100%; margin: 8px 0 16px; }
  th { background: #4f81bd; color: #fff; }
  th, td { border: 1px solid #999; padding: 6px 8px; font-size: 13px; text-align: left; }
  .subtitle, .meta { color: #777; font-size: 12px; }
  .subtitle { text-align: center; }
  .placeholder { color: #555; font-style: italic; }
  .advice { font-style: italic; }
  .disclaimer { color: #777; font-size: 11px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="subtitle">Automatically generated summary from the health-monitoring application.</p>
<p class="meta">Generated at {{fmtTime .GeneratedAt}} UTC</p>

<h2>Overall Summary</h2>
<p>{{.Summary}}</p>

<h2>Symptom History</h2>
{{if .Symptoms.Placeholder}}<p class="placeholder">{{.Symptoms.Placeholder}}</p>{{end}}
{{range .Symptoms.Entries}}<p><strong>{{fmtTime .ReportedAt}}</strong> - {{.BodyPart}}</p>
<p>{{.Message}}</p>
{{if .Advice}}<p class="advice">App advice at that time: {{.Advice}}</p>
{{end}}{{end}}

<h2>Sensor Data (Recent Records)</h2>
{{if .Telemetry.Placeholder}}<p class="placeholder">{{.Telemetry.Placeholder}}</p>{{end}}
{{range .Telemetry.Tables}}<h3>{{.Device}}</h3>
{{if .Placeholder}}<p class="placeholder">{{.Placeholder}}</p>
{{else}}<table>
<tr><th>Time</th><th>Data Summary</th></tr>
{{range .Rows}}<tr><td>{{fmtTime .RecordedAt}}</td><td>{{.Readings}}</td></tr>
{{end}}</table>
{{end}}{{end}}

<h2>Chat Summary (Recent Messages)</h2>
{{if .Chat.Placeholder}}<p class="placeholder">{{.Chat.Placeholder}}</p>{{end}}
{{range .Chat.Messages}}<p><strong>{{roleLabel .Role}}</strong> <span class="meta">({{fmtTime .SentAt}})</span></p>
<p>{{.Message}}</p>
{{end}}

<h2>Disclaimers</h2>
{{range .Disclaimers}}<p class="disclaimer">{{.}}</p>
{{end}}
<p class="meta">Report ID: {{.ID}}</p>
</body>
</html>
`
