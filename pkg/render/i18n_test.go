package render_test

import (
	"testing"

	"github.com/goliatone/go-customizer/pkg/render"
)

func TestCatalogTranslate(t *testing.T) {
	catalog := render.Catalog{
		"de": {
			"param.width.label": "Breite",
			"group.Size":        "Abmessungen",
		},
	}

	msg, err := catalog.Translate("de", "param.width.label")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if msg != "Breite" {
		t.Fatalf("Translate() = %q, want Breite", msg)
	}

	if _, err := catalog.Translate("de", "param.height.label"); err == nil {
		t.Fatal("Translate() resolved an unknown key")
	}
	if _, err := catalog.Translate("fr", "param.width.label"); err == nil {
		t.Fatal("Translate() resolved an unknown locale")
	}
}

func TestLocalizeFallsBackWithoutTranslator(t *testing.T) {
	opts := render.RenderOptions{Locale: "de"}
	if got := opts.Localize(render.LabelKey("width"), "Width"); got != "Width" {
		t.Fatalf("Localize() = %q, want the fallback", got)
	}
}

func TestLocalizeResolvesConfiguredKeys(t *testing.T) {
	opts := render.RenderOptions{
		Locale: "de",
		Translator: render.Catalog{
			"de": {"group.Size": "Abmessungen"},
		},
	}

	if got := opts.Localize(render.GroupKey("Size"), "Size"); got != "Abmessungen" {
		t.Fatalf("Localize() = %q, want Abmessungen", got)
	}
	// Unknown keys keep the source-derived text.
	if got := opts.Localize(render.LabelKey("width"), "Width"); got != "Width" {
		t.Fatalf("Localize() = %q, want the fallback", got)
	}
}

func TestTranslatorFunc(t *testing.T) {
	translator := render.TranslatorFunc(func(locale, key string) (string, error) {
		return locale + ":" + key, nil
	})

	msg, err := translator.Translate("en", "group.Size")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if msg != "en:group.Size" {
		t.Fatalf("Translate() = %q", msg)
	}
}
