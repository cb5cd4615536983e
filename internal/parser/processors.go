package parser

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/khanhnv2901/securitytxt/internal/domain/securitytxt"
	"github.com/khanhnv2901/securitytxt/internal/domain/violation"
)

// documentLevel stores invalid values so every problem can be reported.
const documentLevel = securitytxt.Lenient

// FieldProcessor is one step applied to a field value.
type FieldProcessor interface {
	Process(value string, doc *securitytxt.SecurityTxt) violation.Outcome
}

// ProcessorFunc adapts a function to FieldProcessor.
type ProcessorFunc func(value string, doc *securitytxt.SecurityTxt) violation.Outcome

func (f ProcessorFunc) Process(value string, doc *securitytxt.SecurityTxt) violation.Outcome {
	return f(value, doc)
}

// processorTable maps each field to its ordered steps. A step returning an
// error ends the chain for that line.
func processorTable(now func() time.Time) map[securitytxt.Field][]FieldProcessor {
	table := map[securitytxt.Field][]FieldProcessor{
		securitytxt.FieldExpires: {
			ProcessorFunc(expiresCheckMultiple),
			expiresSet{now: now},
		},
		securitytxt.FieldPreferredLanguages: {
			ProcessorFunc(preferredLanguagesCheckMultiple),
			ProcessorFunc(preferredLanguagesSet),
		},
	}
	for _, f := range securitytxt.Fields() {
		if f.IsURI() {
			table[f] = []FieldProcessor{uriAdd{field: f}}
		}
	}
	return table
}

type uriAdd struct {
	field securitytxt.Field
}

func (p uriAdd) Process(value string, doc *securitytxt.SecurityTxt) violation.Outcome {
	return doc.Apply(securitytxt.NewURIField(p.field, value), documentLevel)
}

func expiresCheckMultiple(_ string, doc *securitytxt.SecurityTxt) violation.Outcome {
	if doc.Expires() != nil {
		return violation.Fail(violation.MultipleExpires())
	}
	return violation.OK()
}

var (
	rfc3339Layouts = []string{time.RFC3339, time.RFC3339Nano}
	rfc2822Layouts = []string{
		time.RFC1123Z,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"2 Jan 2006 15:04:05 -0700",
		time.RFC1123,
	}
	looseLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
		time.RFC850,
		time.ANSIC,
		time.UnixDate,
		"January 2, 2006",
		"2 January 2006",
	}
)

func parseWith(layouts []string, value string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type expiresSet struct {
	now func() time.Time
}

func (p expiresSet) Process(value string, doc *securitytxt.SecurityTxt) violation.Outcome {
	now := p.now()
	t, ok := parseWith(rfc3339Layouts, value)
	if !ok {
		if old, ok := parseWith(rfc2822Layouts, value); ok {
			return violation.Fail(violation.ExpiresOldFormat(old))
		}
		if loose, ok := parseWith(looseLayouts, value); ok {
			return violation.Fail(violation.ExpiresWrongFormat(&loose, now))
		}
		return violation.Fail(violation.ExpiresWrongFormat(nil, now))
	}
	return doc.Apply(securitytxt.NewExpires(t, now), documentLevel)
}

func preferredLanguagesCheckMultiple(_ string, doc *securitytxt.SecurityTxt) violation.Outcome {
	if doc.PreferredLanguages() != nil {
		return violation.Fail(violation.MultiplePreferredLanguages())
	}
	return violation.OK()
}

var languageSeparator = regexp.MustCompile(`\s*([,.;:])\s*`)

func preferredLanguagesSet(value string, doc *securitytxt.SecurityTxt) violation.Outcome {
	var languages []string
	if strings.TrimSpace(value) != "" {
		languages = languageSeparator.Split(value, -1)
	}

	var wrong []violation.Separator
	index := map[string]int{}
	for _, m := range languageSeparator.FindAllStringSubmatchIndex(value, -1) {
		sep := value[m[2]:m[3]]
		if sep == "," {
			continue
		}
		pos := utf8.RuneCountInString(value[:m[2]]) + 1
		if i, ok := index[sep]; ok {
			wrong[i].Positions = append(wrong[i].Positions, pos)
			continue
		}
		index[sep] = len(wrong)
		wrong = append(wrong, violation.Separator{Separator: sep, Positions: []int{pos}})
	}
	if len(wrong) > 0 {
		return violation.Fail(violation.PreferredLanguagesSeparatorNotComma(wrong, languages))
	}
	return doc.Apply(securitytxt.NewPreferredLanguages(languages), documentLevel)
}
