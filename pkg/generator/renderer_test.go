package generator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderer_RenderString(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name     string
		template string
		data     map[string]interface{}
		want     string
	}{
		{
			name:     "plain substitution",
			template: "package {{.pkg}}",
			data:     map[string]interface{}{"pkg": "repo"},
			want:     "package repo",
		},
		{
			name:     "lower helper",
			template: "{{lower .name}}",
			data:     map[string]interface{}{"name": "UserRepository"},
			want:     "userrepository",
		},
		{
			name:     "snake helper",
			template: "{{snake .name}}",
			data:     map[string]interface{}{"name": "UserRepository"},
			want:     "user_repository",
		},
		{
			name:     "pascal helper",
			template: "{{pascal .name}}",
			data:     map[string]interface{}{"name": "user_repository"},
			want:     "UserRepository",
		},
		{
			name:     "camel helper",
			template: "{{camel .name}}",
			data:     map[string]interface{}{"name": "user-repository"},
			want:     "userRepository",
		},
		{
			name:     "join helper",
			template: `{{join .parts ", "}}`,
			data:     map[string]interface{}{"parts": []string{"a", "b"}},
			want:     "a, b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RenderString(tt.name, tt.template, tt.data)
			if err != nil {
				t.Fatalf("RenderString() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderer_RenderString_ParseError(t *testing.T) {
	r := NewRenderer()
	_, err := r.RenderString("bad", "{{.unclosed", nil)
	if err == nil {
		t.Fatal("expected parse error for malformed template")
	}
	if !strings.Contains(err.Error(), "failed to parse template") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestRenderer_RenderFile(t *testing.T) {
	r := NewRenderer()
	dir := t.TempDir()
	path := filepath.Join(dir, "entity.go.tmpl")
	if err := os.WriteFile(path, []byte("type {{pascal .entity}} struct{}\n"), 0o644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	got, err := r.RenderFile(path, map[string]interface{}{"entity": "order_line"})
	if err != nil {
		t.Fatalf("RenderFile() error: %v", err)
	}
	if got != "type OrderLine struct{}\n" {
		t.Errorf("RenderFile() = %q", got)
	}
}

func TestRenderer_RenderFile_Missing(t *testing.T) {
	r := NewRenderer()
	if _, err := r.RenderFile(filepath.Join(t.TempDir(), "nope.tmpl"), nil); err == nil {
		t.Fatal("expected error for missing template file")
	}
}
