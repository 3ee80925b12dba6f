package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sync"
	"text/template"
)

//go:embed generate_*.txt
var promptFS embed.FS

var languages = []string{"en", "pt"}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

// GenerateData holds template data for the generation prompt.
type GenerateData struct {
	Name       string
	Type       string
	Discipline string
	Syllabus   string
	Easy       int
	Medium     int
	Hard       int
	Total      int
}

// Load parses the embedded prompt templates. Safe to call more than once.
func Load() error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template)
		for _, lang := range languages {
			name := "generate_" + lang + ".txt"
			content, err := promptFS.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(name).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[lang] = tmpl
		}
	})
	return loadErr
}

// BuildGeneratePrompt renders the generation prompt for the given language.
// Unknown languages fall back to English.
func BuildGeneratePrompt(lang string, data GenerateData) (string, error) {
	if templates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := templates[lang]
	if !ok {
		tmpl = templates["en"]
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
