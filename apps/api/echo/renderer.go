package echoapi

import (
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studiousvault/core"
	"github.com/trezcool/studiousvault/core/user"
)

const templatesDir = "templates"

var errTemplateNotFound = errors.New("template not found")

type (
	// templateRenderer renders the pages under templatesDir, each wrapped in _base.gohtml.
	templateRenderer struct {
		templates map[string]*template.Template // {name: *Template}
	}

	// page is the data every template receives.
	page struct {
		Title   string
		User    *user.User
		Notices []core.Notice
		Data    interface{}
	}
)

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
}

func newPage(title string, data interface{}) *page {
	return &page{Title: title, Data: data}
}

func newTemplateRenderer(fsys fs.FS, strict bool) (*templateRenderer, error) {
	fps, err := fs.Glob(fsys, path.Join(templatesDir, "*.gohtml"))
	if err != nil {
		return nil, err
	}

	r := &templateRenderer{templates: make(map[string]*template.Template, len(fps))}
	base := path.Join(templatesDir, "_base.gohtml")
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := template.New(fname).Funcs(templateFuncs).ParseFS(fsys, base, fp)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", fname)
		}
		if strict {
			tmpl = tmpl.Option("missingkey=error")
		}
		r.templates[strings.TrimSuffix(fname, ".gohtml")] = tmpl
	}
	return r, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Wrap(errTemplateNotFound, name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

type errorData struct {
	Code    int
	Status  string
	Message interface{}
}

// renderError renders the error page of view requests.
func renderError(ctx echo.Context, code int, message interface{}) error {
	p := newPage(http.StatusText(code), errorData{Code: code, Status: http.StatusText(code), Message: message})
	if usr, err := getContextUser(ctx); err == nil {
		p.User = &usr
	}
	return ctx.Render(code, "error", p)
}
