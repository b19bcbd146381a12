package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"
)

// Renderer executes text templates into artifact content. It carries the
// helper functions templates may use and holds no mutable state.
type Renderer struct {
	funcs template.FuncMap
}

// NewRenderer creates a renderer with the standard helper functions.
func NewRenderer() *Renderer {
	return &Renderer{funcs: helperFuncs()}
}

// RenderFile renders the template at path with the given context.
func (r *Renderer) RenderFile(path string, data map[string]interface{}) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return r.RenderString(filepath.Base(path), string(raw), data)
}

// RenderString renders inline template text with the given context.
func (r *Renderer) RenderString(name, text string, data map[string]interface{}) (string, error) {
	tmpl, err := template.New(name).Funcs(r.funcs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return sb.String(), nil
}

// helperFuncs returns the functions exposed to templates. All helpers are
// pure so rendering stays deterministic.
func helperFuncs() template.FuncMap {
	return template.FuncMap{
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"trim":      strings.TrimSpace,
		"replace":   strings.ReplaceAll,
		"join":      strings.Join,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"snake":     toSnake,
		"camel":     toCamel,
		"pascal":    toPascal,
	}
}

// toSnake converts CamelCase or camelCase to snake_case.
func toSnake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// toPascal converts snake_case or kebab-case to PascalCase.
func toPascal(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	var sb strings.Builder
	for _, part := range parts {
		runes := []rune(part)
		if len(runes) == 0 {
			continue
		}
		sb.WriteRune(unicode.ToUpper(runes[0]))
		sb.WriteString(string(runes[1:]))
	}
	return sb.String()
}

// toCamel converts snake_case or kebab-case to camelCase.
func toCamel(s string) string {
	pascal := toPascal(s)
	if pascal == "" {
		return ""
	}
	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
