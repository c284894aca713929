package printer

import (
	"strings"

	"github.com/funnyzak/reqreplay/pkg/i18n"
)

// ResolveLocale maps a configured locale onto one the translator ships.
// Matching ignores case and "_" versus "-", then falls back to the base
// language. ok is false when the translator default had to be used.
func ResolveLocale(translator *i18n.Translator, locale string) (resolved string, ok bool) {
	if translator == nil {
		return locale, false
	}
	wanted := strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if wanted == "" {
		return translator.DefaultLocale(), true
	}

	supported := translator.Supported()
	for _, candidate := range supported {
		if strings.EqualFold(candidate, wanted) {
			return candidate, true
		}
	}
	base, _, _ := strings.Cut(wanted, "-")
	for _, candidate := range supported {
		candidateBase, _, _ := strings.Cut(candidate, "-")
		if strings.EqualFold(candidateBase, base) {
			return candidate, true
		}
	}
	return translator.DefaultLocale(), false
}
