package handlers

import (
	"html/template"

	"cyberguard/services"
)

var funcs = template.FuncMap{
	"lines":    services.SplitLines,
	"filesize": services.FormatFileSize,
	"mul100":   func(v float64) float64 { return v * 100 },
	// recommendations carry server-side inline markup
	"markup": func(s string) template.HTML { return template.HTML(services.SafeMarkup(s)) },
}

const baseCSS = `
*{box-sizing:border-box;margin:0;padding:0}
body{background:#0a0e1a;color:#e2e8f0;font-family:'Segoe UI',system-ui,sans-serif;padding:24px}
.wrap{max-width:880px;margin:0 auto}
header{display:flex;justify-content:space-between;align-items:center;margin-bottom:20px}
.status{font-size:13px;color:#94a3b8}
.card{background:#111827;border:1px solid #1f2937;border-radius:14px;padding:22px;margin-bottom:18px}
textarea{width:100%;min-height:120px;background:#0f172a;color:#e2e8f0;border:1px solid #334155;border-radius:8px;padding:10px}
button{background:#3b82f6;color:#fff;border:0;border-radius:8px;padding:8px 16px;cursor:pointer;margin-top:8px}
button[disabled]{opacity:.5;cursor:not-allowed}
.toast{padding:10px 14px;border-radius:8px;margin-bottom:10px}
.toast.error{background:#7f1d1d}.toast.warning{background:#78350f}.toast.info,.toast.success{background:#1e3a8a}
.meter{height:10px;background:#1e293b;border-radius:5px;overflow:hidden;margin:8px 0}
.meter div{height:100%}
.risk-low div,.risk-low .badge-risk{background:#22c55e}.risk-moderate div,.risk-moderate .badge-risk{background:#eab308}
.risk-high div,.risk-high .badge-risk{background:#ef4444}.risk-unknown div,.risk-unknown .badge-risk{background:#64748b}
.badge-risk{display:inline-block;padding:3px 10px;border-radius:6px;color:#0a0e1a;font-weight:600}
.section h3{font-size:13px;text-transform:uppercase;letter-spacing:.08em;color:#64748b;margin:14px 0 8px}
.field{display:flex;gap:10px;padding:4px 0;border-bottom:1px solid #1f2937}
.field .k{min-width:180px;color:#94a3b8}
.verdict-fake{color:#ef4444}.verdict-legitimate{color:#22c55e}.verdict-moderate{color:#eab308}.verdict-unknown{color:#94a3b8}
a{color:#3b82f6}
table{width:100%;border-collapse:collapse}td,th{text-align:left;padding:6px;border-bottom:1px solid #1f2937}
`

// viewTmpl renders one result panel; shared by the index and share pages.
const viewTmpl = `{{define "view"}}
<div class="card {{.Risk.StyleClass}}">
  <span class="badge-risk">{{.Risk.DisplayLabel}}</span>
  <div class="meter"><div style="width:{{printf "%.1f" .Risk.Percent}}%"></div></div>
  {{range .Scores}}<div class="field"><span class="k">{{.Key}}</span><span class="{{.Badge}}">{{.Value}}</span></div>{{end}}
</div>
<div class="card" id="analysis-content">
  {{range .Sections}}<div class="section">
    <h3>{{.Title}}</h3>
    {{range .Fields}}<div class="field"><span class="k">{{.Key}}</span>
      <span class="badge {{.Badge}}">{{if .Multiline}}{{range $i, $l := lines .Value}}{{if $i}}<br>{{end}}{{$l}}{{end}}{{else}}{{.Value}}{{end}}</span>
    </div>{{end}}
  </div>{{end}}
</div>
<div class="card">
  <h3>Recommendations</h3>
  <ul id="recommendations-list">{{range .Recommendations}}<li>{{markup .}}</li>{{end}}</ul>
</div>
{{end}}`

var indexTmpl = template.Must(template.New("index").Funcs(funcs).Parse(viewTmpl + `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>CyberGuard</title><style>` + baseCSS + `</style></head>
<body><div class="wrap">
<header><h1>🛡 CyberGuard</h1><span class="status" id="api-status">{{.StatusLabel}}</span></header>
{{range .Notices}}<div class="toast {{.Level}}">{{.Message}}</div>{{end}}
<div class="card">
  <form method="post" action="/analyze/text" enctype="multipart/form-data">
    <textarea name="text" placeholder="Paste a news article or claim (at least 10 characters)"></textarea>
    <button type="submit"{{if .Busy.text}} disabled{{end}}>Analyze Text</button>
  </form>
</div>
<div class="card">
  <form method="post" action="/analyze/image" enctype="multipart/form-data">
    <input type="file" name="file" accept="image/*"> <small>max {{filesize .MaxImage}}</small><br>
    <button type="submit"{{if .Busy.image}} disabled{{end}}>Analyze for Deepfakes</button>
  </form>
</div>
<div class="card">
  <form method="post" action="/analyze/video" enctype="multipart/form-data">
    <input type="file" name="file" accept="video/*"> <small>max {{filesize .MaxVideo}}</small><br>
    <button type="submit"{{if .Busy.video}} disabled{{end}}>Analyze Video</button>
  </form>
</div>
{{with .View}}
<div id="results">
{{template "view" .}}
<div class="card">
  <a href="/export">Export JSON</a>
  {{if $.ShareEnabled}}<form method="post" action="/share" style="display:inline"><button type="submit">Share</button></form>{{end}}
</div>
</div>
{{end}}
<p><a href="/history">History</a></p>
</div></body></html>`))

var shareTmpl = template.Must(template.New("share").Funcs(funcs).Parse(viewTmpl + `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Shared analysis</title><style>` + baseCSS + `</style></head>
<body><div class="wrap">
<header><h1>🛡 Shared {{.View.Kind}} analysis</h1><span class="status">expires {{.ExpiresAt.Format "2006-01-02"}}</span></header>
{{template "view" .View}}
<p><a href="/">Check your own content →</a></p>
</div></body></html>`))

var historyTmpl = template.Must(template.New("history").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>History</title><style>` + baseCSS + `</style></head>
<body><div class="wrap">
<header><h1>History</h1><a href="/">← Back</a></header>
{{range .Notices}}<div class="toast {{.Level}}">{{.Message}}</div>{{end}}
<div class="card">
  <form method="get" action="/history">
    <select name="analysis_type">
      <option value="">all</option>
      {{range .Kinds}}<option value="{{.}}"{{if eq (print .) $.Filter.AnalysisType}} selected{{end}}>{{.}}</option>{{end}}
    </select>
    <label><input type="checkbox" name="favorites_only" value="true"{{if .Filter.FavoritesOnly}} checked{{end}}> favorites</label>
    <button type="submit">Filter</button>
  </form>
  {{with .Stats}}<p class="status">{{.TotalSearches}} searches · {{.RecentActivity}} this week ·
    low {{.RiskDistribution.Low}} / medium {{.RiskDistribution.Medium}} / high {{.RiskDistribution.High}}</p>{{end}}
</div>
<div class="card">
<table>
<tr><th></th><th>Type</th><th>Content</th><th>Risk</th><th>Verdict</th><th>When</th><th></th></tr>
{{range .Entries}}<tr>
  <td>{{if .IsFavorite}}★{{end}}</td>
  <td>{{.AnalysisType}}</td>
  <td><a href="/history/{{.ID}}">{{.ContentPreview}}</a>{{if .FileSize}} <small>{{filesize .FileSize}}</small>{{end}}</td>
  <td>{{printf "%.1f" (mul100 .RiskScore)}}%</td>
  <td>{{.Verdict}}</td>
  <td>{{.Timestamp}}</td>
  <td>
    <form method="post" action="/history/{{.ID}}/favorite" style="display:inline"><button>☆</button></form>
    <form method="post" action="/history/{{.ID}}/delete" style="display:inline"><button>✕</button></form>
  </td>
</tr>{{else}}<tr><td colspan="7">No history yet</td></tr>{{end}}
</table>
<form method="post" action="/history/clear">
  <input type="number" name="older_than_days" min="0" placeholder="older than days">
  <button type="submit">Clear history</button>
</form>
</div>
</div></body></html>`))
