package shadowdiff

import (
	"embed"

	"github.com/kaptinlin/go-i18n"
)

//go:embed locales/*.json
var localesFS embed.FS

// newBundle returns an initialized internationalization bundle with the
// embedded diff/warning message locales.
func newBundle() (*i18n.I18n, error) {
	bundle := i18n.NewBundle(
		i18n.WithDefaultLocale("en"),
		i18n.WithLocales("en", "zh-Hans"),
	)

	if err := bundle.LoadFS(localesFS, "locales/*.json"); err != nil {
		return nil, err
	}
	return bundle, nil
}

// Translator renders diff and warning messages in a single locale. Every
// DiffEntry/WarningEntry message produced by the engine goes through a
// Translator rather than ad-hoc fmt.Sprintf, so the same mismatch renders
// consistently in whichever locale the caller picked.
type Translator struct {
	localizer *i18n.Localizer
}

// NewTranslator builds a Translator for the given locale ("en" or
// "zh-Hans"). Unknown locales fall back to the bundle's default locale.
func NewTranslator(locale string) (*Translator, error) {
	bundle, err := newBundle()
	if err != nil {
		return nil, err
	}
	return &Translator{localizer: bundle.NewLocalizer(locale)}, nil
}

// message renders the template registered under code with params substituted
// for its {placeholder} tokens.
func (t *Translator) message(code string, params map[string]any) string {
	if t == nil || t.localizer == nil {
		return code
	}
	return t.localizer.Get(code, i18n.Vars(params))
}
