package format

import (
	"html/template"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/storylint/storylint/internal/issue"
)

// HTML renders an aggregate as a self-contained page: no external assets, so
// the report can be attached to CI artifacts or mailed around.
type HTML struct {
	w       io.Writer
	root    string
	version string

	Now func() time.Time
}

func NewHTML(w io.Writer, root, version string) *HTML {
	return &HTML{w: w, root: root, version: version, Now: time.Now}
}

type htmlFileGroup struct {
	File   string
	Issues []issue.Issue
}

type htmlPage struct {
	Version     string
	GeneratedAt string
	Valid       bool
	Errors      int
	Warnings    int
	Info        int
	FileCount   int
	Elapsed     string
	Groups      []htmlFileGroup
}

func (h *HTML) Render(agg *issue.Aggregate, fileCount int, elapsed time.Duration) error {
	byFile := make(map[string][]issue.Issue)
	for _, is := range agg.All() {
		key := is.File
		if key != "" && h.root != "" {
			if rel, err := filepath.Rel(h.root, key); err == nil && !filepath.IsAbs(rel) {
				key = rel
			}
		}
		is.File = key
		byFile[key] = append(byFile[key], is)
	}
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	page := htmlPage{
		Version:     h.version,
		GeneratedAt: h.Now().UTC().Format(time.RFC3339),
		Valid:       agg.Valid,
		Errors:      len(agg.Errors),
		Warnings:    len(agg.Warnings),
		Info:        len(agg.Info),
		FileCount:   fileCount,
		Elapsed:     elapsed.Round(time.Millisecond).String(),
	}
	for _, f := range files {
		name := f
		if name == "" {
			name = "(project)"
		}
		page.Groups = append(page.Groups, htmlFileGroup{File: name, Issues: byFile[f]})
	}
	return htmlTmpl.Execute(h.w, page)
}

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>storylint report</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 60rem; color: #222; }
h1 { font-size: 1.4rem; }
.summary { padding: .6rem 1rem; border-radius: 6px; margin-bottom: 1.5rem; }
.summary.valid { background: #e6f4ea; }
.summary.invalid { background: #fdecea; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
th, td { text-align: left; padding: .35rem .6rem; border-bottom: 1px solid #eee; font-size: .9rem; }
caption { text-align: left; font-weight: 600; padding: .4rem 0; }
.sev-error { color: #c5221f; font-weight: 600; }
.sev-warning { color: #b06000; font-weight: 600; }
.sev-info { color: #1967d2; }
.meta { color: #666; font-size: .8rem; }
</style>
</head>
<body>
<h1>storylint report</h1>
<div class="summary {{if .Valid}}valid{{else}}invalid{{end}}">
{{if .Valid}}&#10003; valid{{else}}&#10007; invalid{{end}} &mdash;
{{.Errors}} error(s), {{.Warnings}} warning(s), {{.Info}} info in {{.FileCount}} file(s) ({{.Elapsed}})
</div>
{{range .Groups}}
<table>
<caption>{{.File}}</caption>
<tr><th>Location</th><th>Severity</th><th>Code</th><th>Message</th></tr>
{{range .Issues}}
<tr>
<td>{{if .Line}}{{.Line}}:{{.Column}}{{end}}</td>
<td class="sev-{{.Severity}}">{{.Severity}}</td>
<td>{{.Code}}</td>
<td>{{.Message}}{{if .Suggestion}}<br><span class="meta">hint: {{.Suggestion}}</span>{{end}}</td>
</tr>
{{end}}
</table>
{{end}}
<p class="meta">generated {{.GeneratedAt}} by storylint {{.Version}}</p>
</body>
</html>
`))
