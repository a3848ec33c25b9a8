package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/product-dashboard/internal/dashboard/table"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{
	"login.html",
	"products.html",
	"product_form.html",
	"confirm.html",
	"analytics.html",
	"not_found.html",
	"error.html",
}

// renderer keeps one template set per page, each parsed together with the
// shared layout so every page can define its own "content".
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer(loc *time.Location) *renderer {
	funcs := template.FuncMap{
		"initials":       table.Initials,
		"orDash":         table.OrDash,
		"formatDate":     func(iso string) string { return table.FormatDate(iso, loc) },
		"money":          func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"statusLabel":    func(s string) string { return table.OrDash(statusTitle(s)) },
		"avatarName":     avatarName,
		"avatarInitials": avatarInitials,
		"dict":           dict,
	}

	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		r.pages[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return r
}

// Render satisfies echo.Renderer.
func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// dict builds a map from alternating keys and values for sub-templates.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[k] = pairs[i+1]
	}
	return m, nil
}

// avatarName is the part of email before "@".
func avatarName(email string) string {
	name, _, _ := strings.Cut(email, "@")
	if name == "" {
		return "Operator"
	}
	return name
}

// avatarInitials takes the first letter of each ".", "-" or "_" separated
// part of the email's local part.
func avatarInitials(email string) string {
	local, _, _ := strings.Cut(email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '-' || r == '_' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(string([]rune(p)[0])))
	}
	if b.Len() == 0 {
		return "OP"
	}
	return b.String()
}
