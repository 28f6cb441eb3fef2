package report

import (
	"html/template"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

// htmlView wraps the state with render-time extras.
type htmlView struct {
	State       *domain.ScanState
	GeneratedAt string
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>GitRecon Report</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 1000px; margin: 0 auto; padding: 20px; }
h1, h2, h3 { color: #333; }
.container { border: 1px solid #ddd; border-radius: 5px; padding: 15px; margin-bottom: 20px; }
.profile { display: flex; align-items: center; gap: 20px; }
.avatar { width: 100px; height: 100px; border-radius: 50%; }
.info-grid { display: grid; grid-template-columns: repeat(2, 1fr); gap: 10px; margin-top: 20px; }
.info-item { padding: 8px; border-bottom: 1px solid #eee; }
.label { font-weight: bold; color: #555; }
pre { background-color: #f5f5f5; padding: 10px; border-radius: 3px; overflow-x: auto; }
.email-item, .key-item { background-color: #f9f9f9; padding: 10px; margin-bottom: 8px; border-radius: 3px; }
.detail { font-size: 0.9em; color: #666; margin-top: 5px; }
.warn { color: #a66a00; }
.footer { margin-top: 30px; text-align: center; font-size: 0.8em; color: #777; }
</style>
</head>
<body>
<h1>GitRecon Report</h1>

<div class="container">
  <div class="profile">
    {{- with .State.Profile }}
    {{- if .AvatarURL }}
    <img src="{{ .AvatarURL }}" alt="{{ .Login }} avatar" class="avatar">
    {{- end }}
    <div>
      <h2>{{ .Login }}</h2>
      <p>{{ if .Bio }}{{ .Bio }}{{ else }}{{ .Description }}{{ end }}</p>
    </div>
    {{- end }}
  </div>
  {{- with .State.Profile }}
  <div class="info-grid">
    <div class="info-item"><span class="label">Name:</span> {{ .Name }}</div>
    <div class="info-item"><span class="label">ID:</span> {{ .ID }}</div>
    <div class="info-item"><span class="label">Location:</span> {{ .Location }}</div>
    <div class="info-item"><span class="label">Email:</span> {{ .Email }}</div>
    <div class="info-item"><span class="label">Company/Organization:</span> {{ if .Company }}{{ .Company }}{{ else }}{{ .Organization }}{{ end }}</div>
    <div class="info-item"><span class="label">Blog/Website:</span> {{ if .Blog }}{{ .Blog }}{{ else }}{{ .WebURL }}{{ end }}</div>
    <div class="info-item"><span class="label">Twitter:</span> {{ .Twitter }}</div>
    <div class="info-item"><span class="label">Created:</span> {{ .CreatedAt }}</div>
  </div>
  {{- end }}
</div>

{{- if .State.Organizations }}
<div class="container">
  <h3>Organizations ({{ len .State.Organizations }})</h3>
  <div class="info-grid">
    {{- range .State.Organizations }}
    <div class="info-item">{{ . }}</div>
    {{- end }}
  </div>
</div>
{{- end }}

{{- if .State.Members }}
<div class="container">
  <h3>Members ({{ len .State.Members }})</h3>
  <div class="info-grid">
    {{- range .State.Members }}
    <div class="info-item">{{ .Login }}</div>
    {{- end }}
  </div>
</div>
{{- end }}

{{- if .State.Keys }}
<div class="container">
  <h3>Public Keys ({{ len .State.Keys }})</h3>
  {{- range .State.Keys }}
  <div class="key-item">
    {{- if .Title }}<div><span class="label">Title:</span> {{ .Title }}</div>{{ end }}
    {{- if .CreatedAt }}<div><span class="label">Created:</span> {{ .CreatedAt }}</div>{{ end }}
    {{- if .ExpiresAt }}<div><span class="label">Expires:</span> {{ .ExpiresAt }}</div>{{ end }}
    <div><span class="label">Key:</span></div>
    <pre>{{ .Key }}</pre>
  </div>
  {{- end }}
</div>
{{- end }}

{{- if .State.LeakedEmails }}
<div class="container">
  <h3>Leaked Emails ({{ len .State.LeakedEmails }})</h3>
  {{- range .State.EmailDetails }}
  <div class="email-item">
    <div>{{ .Email }}</div>
    <div class="detail">Associated names: {{ range $i, $n := .Names }}{{ if $i }}, {{ end }}{{ $n }}{{ end }}</div>
    {{- if .Sources }}
    <div class="detail">Found in: {{ range $i, $s := .Sources }}{{ if $i }}, {{ end }}{{ $s }}{{ end }}</div>
    {{- end }}
  </div>
  {{- end }}
</div>
{{- end }}

<div class="container">
  <div class="info-item"><span class="label">Progress:</span> {{ .State.Progress }}</div>
  {{- if .State.Interrupted }}
  <div class="info-item warn">Scan was interrupted; results are partial.</div>
  {{- end }}
</div>

<div class="footer">
  <p>Generated with GitRecon on {{ .GeneratedAt }}</p>
</div>
</body>
</html>
`))
