package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"

	"filebox-backend/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"index", "signup", "login", "dashboard"}

type views struct {
	pages map[string]*template.Template
}

func newViews() *views {
	v := &views{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		v.pages[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return v
}

// pageData is the common view model; page-specific fields stay zero elsewhere
type pageData struct {
	Title           string
	Username        string
	Role            string
	IsAdmin         bool
	AllowRoleChoice bool
	Files           []fileView
}

type fileView struct {
	Label       string
	Size        int64
	DownloadURL string
	DeleteURL   string
}

func newFileViews(entries []models.FileEntry, admin bool) []fileView {
	files := make([]fileView, 0, len(entries))
	for _, e := range entries {
		label := e.Name
		if admin {
			label = e.Path()
		}
		escaped := url.PathEscape(e.Owner) + "/" + url.PathEscape(e.Name)
		files = append(files, fileView{
			Label:       label,
			Size:        e.Size,
			DownloadURL: "/uploads/" + escaped,
			DeleteURL:   "/delete/" + escaped,
		})
	}
	return files
}

// execute renders a full page into memory so a template error never leaves a
// half-written response.
func (v *views) execute(name string, data pageData) (*bytes.Buffer, error) {
	tmpl, ok := v.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown view %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return &buf, nil
}
