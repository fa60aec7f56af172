package admin

import (
	"embed"
	"html/template"
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ziadkadry99/folio/internal/content"
)

//go:embed templates/*.html
var templateFS embed.FS

var titleCaser = cases.Title(language.English)

var pages = template.Must(template.New("admin").Funcs(template.FuncMap{
	"title": func(c content.Category) string {
		return titleCaser.String(string(c))
	},
	"processing": func() string { return MsgProcessing },
	"empty":      func() string { return MsgEmpty },
}).ParseFS(templateFS, "templates/*.html"))

type confirmData struct {
	Category content.Category
	ID       string
	Label    string
	Message  string
}

type pageData struct {
	Title      string
	Email      string
	Categories []content.Category
	Active     content.Category
	Rows       []Row
	ListError  string
	Form       *Form
	Notice     string
	Error      string
	Confirm    *confirmData
}

func renderPage(w io.Writer, name string, data pageData) error {
	return pages.ExecuteTemplate(w, name, data)
}
