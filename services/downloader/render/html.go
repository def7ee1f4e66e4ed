package render

import (
	"html/template"
	"os"
	"path/filepath"

	"learndl/lib/scrapers/mslearn/catalog"
	"learndl/lib/textutil"
)

const documentHtml = `<!DOCTYPE html>
<html lang="{{.Locale}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Segoe UI", system-ui, sans-serif; max-width: 52rem; margin: 0 auto; padding: 2rem; line-height: 1.6; }
img { max-width: 100%; height: auto; }
pre { background: #f4f4f4; padding: 1rem; overflow-x: auto; }
code { font-family: "Cascadia Code", monospace; }
section.unit { margin-bottom: 3rem; }
hr { margin: 2rem 0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Summary}}<p>{{.Summary}}</p>{{end}}
{{if .Url}}<p><a href="{{.Url}}">{{.Url}}</a></p>{{end}}
{{range .Modules}}<section class="module">
<h2>{{.Title}}</h2>
{{if .Summary}}<p>{{.Summary}}</p>{{end}}
{{range .Units}}<section class="unit">
<h3>{{.Title}}</h3>
{{.Body}}
</section>
{{end}}</section>
{{end}}</body>
</html>
`

var documentTemplate = template.Must(template.New("document").Parse(documentHtml))

type documentData struct {
	Locale  string
	Title   string
	Summary string
	Url     string
	Modules []moduleData
}

type moduleData struct {
	Title   string
	Summary string
	Units   []unitData
}

type unitData struct {
	Title string
	Body  template.HTML
}

// WriteHtml writes one standalone html document for the item into
// outputDir and returns the written path. Unit markup is trusted: it
// comes out of our own extraction pipeline, not user input.
func WriteHtml(item catalog.Entity, modules []ModuleContent, outputDir string) (string, error) {
	data := documentData{
		Locale:  item.Locale,
		Title:   item.Title,
		Summary: item.Summary,
		Url:     item.Url,
	}
	if data.Locale == "" {
		data.Locale = "en-us"
	}
	for _, mc := range modules {
		md := moduleData{Title: mc.Module.Title, Summary: mc.Module.Summary}
		for _, unit := range mc.Units {
			md.Units = append(md.Units, unitData{
				Title: unit.Unit.Title,
				Body:  template.HTML(unit.Html),
			})
		}
		data.Modules = append(data.Modules, md)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, DocumentName(item)+".html")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := documentTemplate.Execute(file, data); err != nil {
		return "", err
	}
	return path, nil
}

// DocumentName derives the output file stem from the item's title,
// falling back to its uid.
func DocumentName(item catalog.Entity) string {
	if name := textutil.Slugify(item.Title); name != "" {
		return name
	}
	return item.Uid
}
