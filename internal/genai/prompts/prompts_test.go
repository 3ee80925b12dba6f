package prompts

import (
	"strings"
	"testing"
)

func testData() GenerateData {
	return GenerateData{
		Name:       "Prova 1",
		Type:       "Disciplina",
		Discipline: "Redes de Computadores",
		Syllabus:   "Modelo OSI; TCP/IP; roteamento.",
		Easy:       3,
		Medium:     4,
		Hard:       3,
		Total:      10,
	}
}

func TestBuildGeneratePrompt(t *testing.T) {
	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, lang := range []string{"en", "pt"} {
		t.Run(lang, func(t *testing.T) {
			prompt, err := BuildGeneratePrompt(lang, testData())
			if err != nil {
				t.Fatalf("BuildGeneratePrompt: %v", err)
			}
			for _, want := range []string{
				"Redes de Computadores",
				"Modelo OSI; TCP/IP; roteamento.",
				"correct_index",
				"bloom_level",
			} {
				if !strings.Contains(prompt, want) {
					t.Errorf("%s prompt missing %q", lang, want)
				}
			}
			// The distribution counts must be spelled out for the model.
			for _, count := range []string{"3", "4", "10"} {
				if !strings.Contains(prompt, count) {
					t.Errorf("%s prompt missing count %q", lang, count)
				}
			}
		})
	}
}

func TestBuildGeneratePromptFallsBackToEnglish(t *testing.T) {
	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	enPrompt, err := BuildGeneratePrompt("en", testData())
	if err != nil {
		t.Fatalf("BuildGeneratePrompt(en): %v", err)
	}
	dePrompt, err := BuildGeneratePrompt("de", testData())
	if err != nil {
		t.Fatalf("BuildGeneratePrompt(de): %v", err)
	}
	if dePrompt != enPrompt {
		t.Error("unknown language did not fall back to English")
	}
}
