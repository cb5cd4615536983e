package checker

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/khanhnv2901/securitytxt/internal/domain/securitytxt"
)

// LanguageNames maps each Preferred-Languages tag of doc to its English
// name. Tags that cannot be parsed or named are left out.
func LanguageNames(doc *securitytxt.SecurityTxt) map[string]string {
	if doc == nil || doc.PreferredLanguages() == nil {
		return nil
	}
	names := map[string]string{}
	namer := display.English.Tags()
	for _, code := range doc.PreferredLanguages().Languages() {
		tag, err := language.Parse(code)
		if err != nil {
			continue
		}
		if name := namer.Name(tag); name != "" {
			names[code] = name
		}
	}
	return names
}
