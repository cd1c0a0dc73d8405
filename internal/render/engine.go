// Package render turns CV documents into standalone HTML pages.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"cv-builder/internal/model"
)

//go:embed templates/*.html styles/*.css
var assets embed.FS

// StyleSheet is the optional stylesheet inlined into custom templates.
const StyleSheet = "style.css"

var templateName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Engine renders documents with either a custom template file found in its
// directory or one of the built-in styles.
type Engine struct {
	// base is never executed so that custom templates can clone it.
	base    *template.Template
	builtin *template.Template
	styles  map[string]template.CSS
	dir     string
	log     *slog.Logger
}

// NewEngine parses the built-in templates. dir may be empty, in which case
// only built-in styles are available.
func NewEngine(dir string, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	base, err := template.New("cv").Option("missingkey=zero").ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse built-in templates: %w", err)
	}

	common, err := assets.ReadFile("styles/base.css")
	if err != nil {
		return nil, err
	}
	styles := make(map[string]template.CSS, len(model.Templates))
	for _, name := range model.Templates {
		b, err := assets.ReadFile("styles/" + name + ".css")
		if err != nil {
			return nil, fmt.Errorf("load %s styles: %w", name, err)
		}
		styles[name] = template.CSS(string(common) + "\n" + string(b))
	}
	builtin, err := base.Clone()
	if err != nil {
		return nil, err
	}
	return &Engine{base: base, builtin: builtin, styles: styles, dir: dir, log: log}, nil
}

// Resolve picks the template name a render will use: the explicit name, then
// the document's own choice, then the default style.
func Resolve(doc *model.Document, name string) string {
	name = strings.TrimSpace(name)
	if name == "" && doc != nil {
		name = strings.TrimSpace(doc.Template)
	}
	if name == "" {
		name = model.DefaultTemplate
	}
	return name
}

// Render produces the HTML page for doc. A custom template named name wins;
// otherwise the matching built-in style is used, and unknown names fall back
// to the default style. doc is not modified.
func (e *Engine) Render(doc *model.Document, name string) (string, error) {
	name = Resolve(doc, name)
	view := BuildView(doc)

	if html, ok := e.renderCustom(name, view); ok {
		return html, nil
	}

	style := strings.ToLower(name)
	if !model.IsTemplate(style) {
		style = model.DefaultTemplate
	}
	view.Template = style
	view.Styles = e.styles[style]

	var buf bytes.Buffer
	if err := e.builtin.ExecuteTemplate(&buf, "page", view); err != nil {
		return "", fmt.Errorf("render %s: %w", style, err)
	}
	return buf.String(), nil
}

func (e *Engine) renderCustom(name string, view View) (string, bool) {
	if e.dir == "" || !templateName.MatchString(name) {
		return "", false
	}
	src, err := os.ReadFile(filepath.Join(e.dir, name+".html"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.log.Warn("custom template unreadable, using built-in", "template", name, "error", err)
		}
		return "", false
	}

	base, err := e.base.Clone()
	if err != nil {
		e.log.Warn("clone base templates", "error", err)
		return "", false
	}
	tmpl, err := base.New(name).Parse(string(src))
	if err != nil {
		e.log.Warn("custom template invalid, using built-in", "template", name, "error", err)
		return "", false
	}

	view.Template = name
	if css, err := os.ReadFile(filepath.Join(e.dir, StyleSheet)); err == nil {
		view.Styles = template.CSS(css)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		e.log.Warn("custom template failed, using built-in", "template", name, "error", err)
		return "", false
	}
	return buf.String(), true
}

// Available lists the built-in styles followed by custom template names.
func (e *Engine) Available() []string {
	names := append([]string(nil), model.Templates...)
	if e.dir == "" {
		return names
	}
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.log.Warn("list custom templates", "dir", e.dir, "error", err)
		}
		return names
	}

	var custom []string
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".html" {
			continue
		}
		n := strings.TrimSuffix(ent.Name(), ".html")
		if templateName.MatchString(n) && !model.IsTemplate(n) {
			custom = append(custom, n)
		}
	}
	sort.Strings(custom)
	return append(names, custom...)
}
