package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.UTC().Format("02 January 2006")
	},
}

// Templates parses every page and partial into one set. Pages are named
// by file, e.g. "user-show.html".
func Templates() (*template.Template, error) {
	return template.New("warbler").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// Static serves css and images under /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
