package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed prompts
var builtin embed.FS

const (
	templateExt = ".md"
	builtinRoot = "prompts"
)

// source is one place templates are read from. label is what a
// NotFoundError reports for it.
type source struct {
	label string
	fsys  fs.FS
}

func dirSource(dir string) source {
	return source{label: dir, fsys: os.DirFS(dir)}
}

// Loader renders step templates. Sources are searched in order and the
// templates compiled into the binary always come last.
type Loader struct {
	sources  []source
	funcs    template.FuncMap
	compiled map[string]*template.Template
}

// NewLoader searches <projectDir>/.agdt/prompts before the built-in
// templates.
func NewLoader(projectDir string) *Loader {
	return &Loader{
		sources:  []source{dirSource(filepath.Join(projectDir, ".agdt", "prompts"))},
		funcs:    templateFuncs(),
		compiled: map[string]*template.Template{},
	}
}

// AddSearchDir puts dir ahead of every existing source.
func (l *Loader) AddSearchDir(dir string) {
	l.sources = slices.Insert(l.sources, 0, dirSource(dir))
	clear(l.compiled)
}

// AddFunc makes fn callable from templates as name.
func (l *Loader) AddFunc(name string, fn any) {
	l.funcs[name] = fn
	clear(l.compiled)
}

// TemplateName is the name of the template for a workflow step.
func TemplateName(workflow, step string) string {
	return path.Join(workflow, step)
}

// Render renders the template for a workflow step against vars.
func (l *Loader) Render(workflow, step string, vars map[string]string) (string, error) {
	name := TemplateName(workflow, step)
	tmpl, err := l.compile(name)
	if err != nil {
		return "", err
	}
	if vars == nil {
		vars = map[string]string{}
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return out.String(), nil
}

// Load returns a template's raw text.
func (l *Loader) Load(name string) (string, error) {
	return l.read(name)
}

// Exists reports whether any source has the template.
func (l *Loader) Exists(name string) bool {
	_, err := l.read(name)
	return err == nil
}

// List returns the name of every template any source provides, sorted.
func (l *Loader) List() ([]string, error) {
	found := map[string]struct{}{}
	walk := func(fsys fs.FS) error {
		return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == "." {
					return fs.SkipDir
				}
				return err
			}
			if !d.IsDir() && strings.HasSuffix(p, templateExt) {
				found[strings.TrimSuffix(p, templateExt)] = struct{}{}
			}
			return nil
		})
	}

	for _, src := range l.sources {
		if err := walk(src.fsys); err != nil {
			return nil, fmt.Errorf("list prompts in %s: %w", src.label, err)
		}
	}
	embedded, err := fs.Sub(builtin, builtinRoot)
	if err != nil {
		return nil, err
	}
	if err := walk(embedded); err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(found)), nil
}

func (l *Loader) read(name string) (string, error) {
	file := name + templateExt
	missing := &NotFoundError{Name: name}

	for _, src := range l.sources {
		if data, err := fs.ReadFile(src.fsys, file); err == nil {
			return string(data), nil
		}
		missing.Searched = append(missing.Searched, filepath.Join(src.label, filepath.FromSlash(file)))
	}

	embedded := path.Join(builtinRoot, file)
	if data, err := builtin.ReadFile(embedded); err == nil {
		return string(data), nil
	}
	missing.Searched = append(missing.Searched, "embedded:"+embedded)
	return "", missing
}

func (l *Loader) compile(name string) (*template.Template, error) {
	if tmpl := l.compiled[name]; tmpl != nil {
		return tmpl, nil
	}

	text, err := l.read(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Funcs(l.funcs).Parse(l.expandShorthand(text))
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	l.compiled[name] = tmpl
	return tmpl, nil
}

// shorthand matches an action holding a single bare identifier.
var shorthand = regexp.MustCompile(`\{\{(-?\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*-?)\}\}`)

var actionWords = []string{
	"if", "else", "end", "range", "with", "define", "template", "block",
	"break", "continue", "nil", "true", "false",
}

// expandShorthand turns {{issue_key}} into {{index . "issue_key"}}.
// Keywords and names in the function map are left as written.
func (l *Loader) expandShorthand(text string) string {
	return shorthand.ReplaceAllStringFunc(text, func(action string) string {
		m := shorthand.FindStringSubmatch(action)
		name := m[2]
		if _, fn := l.funcs[name]; fn || slices.Contains(actionWords, name) {
			return action
		}
		return "{{" + m[1] + "index . " + strconv.Quote(name) + m[3] + "}}"
	})
}

func templateFuncs() template.FuncMap {
	title := cases.Title(language.English)
	return template.FuncMap{
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"title":    title.String,
		"trim":     strings.TrimSpace,
		"join":     strings.Join,
		"split":    strings.Split,
		"contains": strings.Contains,
		"replace":  strings.ReplaceAll,
		"quote":    strconv.Quote,
		"indent": func(n int, s string) string {
			pad := strings.Repeat(" ", n)
			lines := strings.Split(s, "\n")
			for i, line := range lines {
				if line != "" {
					lines[i] = pad + line
				}
			}
			return strings.Join(lines, "\n")
		},
		// default returns fallback when value is nil or "".
		"default": func(fallback, value any) any {
			if value == nil || value == "" {
				return fallback
			}
			return value
		},
	}
}
