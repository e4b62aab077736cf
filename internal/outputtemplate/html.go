package outputtemplate

import (
	"html/template"
	"strings"

	"github.com/snarg/chalkline/internal/results"
)

// catColors assigns each known category a Semantic UI color class, taken
// directly from http()'s colors table.
var catColors = map[string]string{
	"A": "orange", "B": "teal", "C": "green", "D": "yellow", "W": "pink", "X": "black",
}

type htmlHeader struct {
	Label string
	Class template.HTMLAttr
}

type htmlRow struct {
	Cells []htmlCell
}

type htmlCell struct {
	Value template.HTML
	Class template.HTMLAttr
}

type htmlCategory struct {
	Name    string
	Color   string
	Headers []htmlHeader
	Rows    []htmlRow
}

type htmlPage struct {
	RaceName   string
	RaceDate   string
	RaceID     string
	Categories []htmlCategory
}

const pageTemplate = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>Race Results</title>
  <link rel="stylesheet" type="text/css"
    href="http://oss.maxcdn.com/semantic-ui/2.1.8/semantic.min.css">
</head>
<body>
<div class="main ui container">
<h2 class="ui dividing header">Results</h2>
<h3 class="ui header">{{.RaceDate}} {{.RaceID}}: {{.RaceName}}</h3>
{{range .Categories}}
<h4 class="ui horizontal divider header">Cat {{.Name}}</h4>
<table class="ui {{.Color}} striped table">
<thead><tr>{{range .Headers}}<th{{.Class}}>{{.Label}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .Cells}}<td{{.Class}}>{{.Value}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{end}}
</div>
</body>
</html>
`

// RenderHTML renders one Semantic UI table per category, color-coded,
// following http()'s layout exactly: a header row built from each field
// descriptor's name/class, and a data row per placed finisher with every
// space replaced by a non-breaking space for column alignment.
//
// Unlike http(), which writes directly to stdout via print, this returns
// the rendered document so callers choose where it goes (an HTTP
// response, a file, etc).
func RenderHTML(doc *TemplateDoc, rr *results.RaceResult) (string, error) {
	tmpl, err := template.New("results").Parse(pageTemplate)
	if err != nil {
		return "", err
	}

	headers := make([]htmlHeader, len(doc.Fields))
	for i, f := range doc.Fields {
		headers[i] = htmlHeader{Label: f.Name, Class: classAttr(f.Class)}
	}

	page := htmlPage{
		RaceDate: rr.Config.Date,
		RaceID:   rr.Config.ID,
		RaceName: rr.Config.Name,
	}
	for _, cr := range rr.Categories {
		catLetter := strings.TrimPrefix(cr.Name, "CAT ")
		cat := htmlCategory{
			Name:    catLetter,
			Color:   catColors[catLetter],
			Headers: headers,
		}
		for _, r := range cr.Finishers {
			fields := r.FieldValues()
			row := htmlRow{Cells: make([]htmlCell, len(doc.Fields))}
			for i, f := range doc.Fields {
				row.Cells[i] = htmlCell{
					Value: nbspEscape(fields[f.Value]),
					Class: classAttr(f.Class),
				}
			}
			cat.Rows = append(cat.Rows, row)
		}
		page.Categories = append(page.Categories, cat)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, page); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// nbspEscape HTML-escapes a cell value and then replaces spaces with
// non-breaking spaces, matching http()'s `f.replace(' ', '&nbsp')`
// alignment trick. Escaping happens first so the replacement can never
// introduce markup from untrusted rider names.
func nbspEscape(v string) template.HTML {
	escaped := template.HTMLEscapeString(v)
	return template.HTML(strings.ReplaceAll(escaped, " ", "&nbsp;"))
}

// classAttr renders an optional class attribute, or nothing when class
// is empty (T['fields'] entries need not declare one).
func classAttr(class string) template.HTMLAttr {
	if class == "" {
		return ""
	}
	return template.HTMLAttr(` class="` + template.HTMLEscapeString(class) + `"`)
}
