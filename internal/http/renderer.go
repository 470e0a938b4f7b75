package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

// TemplateRenderer renders HTML pages inside the shared layout.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // required; holds layout.tmpl and pages/*.tmpl
	Logger     *slog.Logger // optional
}

// NewTemplateRenderer parses the layout and page templates from cfg.TemplateFS.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := &TemplateRenderer{logger: logger}
	t, err := template.New("root").Funcs(renderer.funcs()).ParseFS(cfg.TemplateFS, "*.tmpl", "pages/*.tmpl")
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, err
	}
	renderer.t = t
	return renderer, nil
}

// Render writes the full page for data with the given status code. The page
// is rendered into a buffer first so a template error never leaves a
// half-written response.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, data PageData) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("page", data.CurrentPage),
			slog.Any("error", err),
		)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("page", data.CurrentPage),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

func (r *TemplateRenderer) funcs() template.FuncMap {
	return template.FuncMap{
		"renderSection": func(page string, data any) (template.HTML, error) {
			if r.t == nil {
				return "", errors.New("template not initialized")
			}
			var buf bytes.Buffer
			if err := r.t.ExecuteTemplate(&buf, ContentTemplateFor(page), data); err != nil {
				return "", err
			}
			// #nosec G203 - rendered by our own html/template set; values were escaped during execution.
			return template.HTML(buf.String()), nil
		},
		"humanize": humanizeColumn,
	}
}

// humanizeColumn turns a backend field name such as "employee_number" into "Employee Number".
func humanizeColumn(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
