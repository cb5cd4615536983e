package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/khanhnv2901/securitytxt/internal/checker"
	"github.com/khanhnv2901/securitytxt/internal/fetcher"
)

// consolePrinter writes level-prefixed lines for a human reader.
type consolePrinter struct {
	w io.Writer
}

func (p consolePrinter) info(format string, args ...any) {
	p.print(colorInfo("[Info]"), fmt.Sprintf(format, args...))
}

func (p consolePrinter) error(format string, args ...any) {
	p.print(colorError("[Error]"), fmt.Sprintf(format, args...))
}

func (p consolePrinter) warning(format string, args ...any) {
	p.print(colorWarn("[Warning]"), fmt.Sprintf(format, args...))
}

// print prefixes every line of a multi-line message with level.
func (p consolePrinter) print(level, message string) {
	message = strings.ReplaceAll(message, "\n", "\n"+level+" ")
	fmt.Fprintf(p.w, "%s %s\n", level, message)
}

// diagnostics prints errors, then warnings, with line numbers and fixes.
func (p consolePrinter) diagnostics(r checker.CheckResult) {
	for _, d := range r.Diagnostics() {
		msg := d.Violation.String()
		if d.Source == checker.SourceLine {
			msg = fmt.Sprintf("on line %s: %s", colorBold(d.Line), msg)
		}
		if d.Warning {
			p.warning("%s", msg)
		} else {
			p.error("%s", msg)
		}
	}
}

// events prints expiry and signature details.
func (p consolePrinter) events() checker.Events {
	return checker.Events{
		OnHost: func(host string) {
			p.info("Parsing security.txt for %s", colorBold(host))
		},
		OnExpired: func(daysAgo int, expires time.Time) {
			p.error("%s (%s)", colorError(fmt.Sprintf("The file has expired %d %s ago", daysAgo, days(daysAgo))), expires.Format(time.RFC3339))
		},
		OnExpiresSoon: func(inDays int, expires time.Time) {
			p.error("%s (%s)", colorError(fmt.Sprintf("The file will expire very soon in %d %s", inDays, days(inDays))), expires.Format(time.RFC3339))
		},
		OnExpires: func(inDays int, expires time.Time) {
			p.info("%s (%s)", colorSuccess(fmt.Sprintf("The file will expire in %d %s", inDays, days(inDays))), expires.Format(time.RFC3339))
		},
		OnValidSignature: func(fingerprint string, signed time.Time) {
			p.info("%s, key %s, signed on %s", colorSuccess("Signature valid"), fingerprint, signed.Format(time.RFC3339))
		},
	}
}

// observer prints each URL the fetcher touches.
func (p consolePrinter) observer() fetcher.Observer {
	return fetcher.ObserverFuncs{
		URL: func(url string) {
			p.info("Loading security.txt from %s", colorBold(url))
		},
		Redirect: func(from, to string) {
			p.info("Redirected from %s to %s", from, to)
		},
		URLNotFound: func(url string, code int) {
			p.info("Not found at %s (HTTP %d)", url, code)
		},
	}
}

// languages prints Preferred-Languages with their English names.
func (p consolePrinter) languages(r checker.CheckResult) {
	names := checker.LanguageNames(r.SecurityTxt)
	if len(names) == 0 {
		return
	}
	langs := r.SecurityTxt.PreferredLanguages().Languages()
	parts := make([]string, 0, len(langs))
	for _, code := range langs {
		if name, ok := names[code]; ok {
			parts = append(parts, fmt.Sprintf("%s (%s)", code, name))
		} else {
			parts = append(parts, code)
		}
	}
	p.info("Preferred languages: %s", strings.Join(parts, ", "))
}

// verdict prints the closing line.
func (p consolePrinter) verdict(r checker.CheckResult) {
	if r.Valid {
		p.info("%s", colorSuccess("The file is valid"))
		return
	}
	p.error("%s", colorError("Please update the file!"))
}

// summary prints one line per host of a batch.
func (p consolePrinter) summary(results []checker.CheckResult) {
	for _, r := range results {
		detail := r.Error
		if detail == "" {
			errs, warns := 0, 0
			for _, d := range r.Diagnostics() {
				if d.Warning {
					warns++
				} else {
					errs++
				}
			}
			detail = fmt.Sprintf("%d errors, %d warnings", errs, warns)
			if r.ExpiryDays != nil && r.IsExpired != nil && *r.IsExpired {
				detail += ", expired"
			} else if r.ExpiresSoon {
				detail += ", expires soon"
			}
		}
		fmt.Fprintf(p.w, "%-40s %-8s %s\n", r.Target, formatStatusWithColor(r.Status), detail)
	}
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	statuses := []string{checker.StatusValid, checker.StatusInvalid, checker.StatusError}
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, fmt.Sprintf("%d %s", counts[s], s))
	}
	fmt.Fprintf(p.w, "Summary: %s (out of %d hosts)\n", strings.Join(parts, ", "), len(results))
}

func days(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
