package grid

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// monthAbbrev holds short month names for the languages we label in.
// Anything else falls back to English.
var monthAbbrev = map[string][12]string{
	"de": {"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
	"es": {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
	"fr": {"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
	"nl": {"jan", "feb", "mrt", "apr", "mei", "jun", "jul", "aug", "sep", "okt", "nov", "dec"},
	"sv": {"jan.", "feb.", "mars", "apr.", "maj", "juni", "juli", "aug.", "sep.", "okt.", "nov.", "dec."},
}

// DateLabel formats t as a short month and two-digit day for the locale.
func DateLabel(t time.Time, locale string) string {
	base := baseLanguage(locale)
	names, ok := monthAbbrev[base]
	if !ok {
		return t.Format("Jan 02")
	}
	month := names[t.Month()-1]
	if base == "de" {
		return fmt.Sprintf("%02d. %s", t.Day(), month)
	}
	return fmt.Sprintf("%02d %s", t.Day(), month)
}

func baseLanguage(locale string) string {
	if locale == "" {
		return "en"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}

// HourHeaders returns the 24 column headers for a time format, "12" for
// AM/PM labels and anything else for two digit hours.
func HourHeaders(timeFormat string) []string {
	headers := make([]string, HoursPerDay)
	for h := range headers {
		if timeFormat != "12" {
			headers[h] = fmt.Sprintf("%02d", h)
			continue
		}
		suffix := "AM"
		if h >= 12 {
			suffix = "PM"
		}
		hh := h % 12
		if hh == 0 {
			hh = 12
		}
		headers[h] = fmt.Sprintf("%d %s", hh, suffix)
	}
	return headers
}
