package i18n

import (
	"context"
	"strings"
	"testing"
)

func TestInitAndTranslate(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	en := WithLocalizer(context.Background(), NewLocalizer("en"))
	pt := WithLocalizer(context.Background(), NewLocalizer("pt"))

	if got := T(en, "LoginError"); got != "Invalid username or password." {
		t.Errorf("unexpected English translation: %q", got)
	}
	if got := T(pt, "LoginError"); got != "Usuário ou senha inválidos." {
		t.Errorf("unexpected Portuguese translation: %q", got)
	}
}

func TestTranslateWithTemplateData(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx := WithLocalizer(context.Background(), NewLocalizer("pt"))
	got := Td(ctx, "GenerationFailed", map[string]any{"Reason": "timeout"})
	if !strings.Contains(got, "timeout") {
		t.Errorf("template data not rendered: %q", got)
	}
}

func TestMissingTranslationFallsBackToID(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx := WithLocalizer(context.Background(), NewLocalizer("en"))
	if got := T(ctx, "NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("expected message ID fallback, got %q", got)
	}
}

func TestAllKeysPresentInBothLocales(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	keys := []string{
		"AppTitle", "LoginError", "GenerationFailed", "GenerationBusy",
		"GenerationInvalid", "SaveUnauthenticated", "SaveEmptyQuestions",
		"SaveFailed", "SaveSuccess", "LoadExamsFailed", "ExamNotFound",
		"SessionNotFound", "SessionSubmitted", "ExamFinished",
	}
	for _, lang := range []string{"en", "pt"} {
		ctx := WithLocalizer(context.Background(), NewLocalizer(lang))
		for _, key := range keys {
			data := map[string]any{"Reason": "x"}
			if got := Td(ctx, key, data); got == key {
				t.Errorf("locale %s missing key %s", lang, key)
			}
		}
	}
}
