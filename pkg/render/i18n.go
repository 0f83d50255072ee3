package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTranslator is reported to OnMissing handlers when localization
// is requested without a translator configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves a message key for a locale. Implementations return an
// error or an empty string for unknown keys; callers fall back to the
// source-derived label.
type Translator interface {
	Translate(locale, key string) (string, error)
}

// TranslatorFunc adapts a plain function to the Translator interface.
type TranslatorFunc func(locale, key string) (string, error)

func (f TranslatorFunc) Translate(locale, key string) (string, error) {
	return f(locale, key)
}

// Catalog is a static locale -> key -> message table. It satisfies
// Translator and is the simplest way to localize a customizer form.
type Catalog map[string]map[string]string

func (c Catalog) Translate(locale, key string) (string, error) {
	messages, ok := c[locale]
	if !ok {
		return "", fmt.Errorf("render: no messages for locale %q", locale)
	}
	msg, ok := messages[key]
	if !ok {
		return "", fmt.Errorf("render: no message for key %q in locale %q", key, locale)
	}
	return msg, nil
}

// Message keys follow the parameter and group names recovered from the model
// source, so catalogues can be written against the schema without extra
// annotations.

// LabelKey names the message key for a parameter's label.
func LabelKey(parameter string) string {
	return "param." + parameter + ".label"
}

// DescriptionKey names the message key for a parameter's description.
func DescriptionKey(parameter string) string {
	return "param." + parameter + ".description"
}

// OptionKey names the message key for one enumeration option of a parameter.
func OptionKey(parameter, value string) string {
	return "param." + parameter + ".option." + value
}

// GroupKey names the message key for a group heading.
func GroupKey(group string) string {
	return "group." + group
}

// Localize resolves key through opts' translator, falling back to the given
// source-derived text when no translation is available. Localization is
// best-effort: a missing translator or key never fails a render.
func (o RenderOptions) Localize(key, fallback string) string {
	if o.Translator == nil {
		return fallback
	}
	msg, err := o.Translator.Translate(o.Locale, key)
	if err != nil || strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
