// Package format turns canonical bill fields into display text.
package format

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/garyjia/billed/internal/domain/entity"
)

// ErrInvalidDate is returned for dates that are neither YYYY-MM-DD nor RFC3339
var ErrInvalidDate = errors.New("invalid date")

var supported = []language.Tag{language.French, language.English}

var matcher = language.NewMatcher(supported)

var shortMonths = map[language.Tag][12]string{
	language.French:  {"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
	language.English: {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

var statusLabels = map[language.Tag]map[string]string{
	language.French: {
		entity.StatusPending:  "En attente",
		entity.StatusAccepted: "Accepté",
		entity.StatusRefused:  "Refusé",
	},
	language.English: {
		entity.StatusPending:  "Pending",
		entity.StatusAccepted: "Accepted",
		entity.StatusRefused:  "Refused",
	},
}

// Formatter formats dates and statuses for one locale. The zero value is not usable.
type Formatter struct {
	tag   language.Tag
	title cases.Caser
}

// New returns a formatter for the closest supported locale; French when nothing matches
func New(locale string) *Formatter {
	tag := language.French
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			_, idx, conf := matcher.Match(parsed)
			if conf != language.No {
				tag = supported[idx]
			}
		}
	}
	return &Formatter{tag: tag, title: cases.Title(tag)}
}

// Locale returns the locale the formatter settled on
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// ParseDate reads a canonical bill date
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// Date renders "2004-04-04" as "4 Avr. 04": unpadded day, capitalised three
// letter month followed by a dot, two digit year.
func (f *Formatter) Date(raw string) (string, error) {
	t, err := ParseDate(raw)
	if err != nil {
		return "", err
	}
	month := []rune(shortMonths[f.tag][t.Month()-1])
	if len(month) > 3 {
		month = month[:3]
	}
	label := strings.TrimSuffix(f.title.String(string(month)), ".")
	return fmt.Sprintf("%d %s. %02d", t.Day(), label, t.Year()%100), nil
}

// Status returns the localized label of a canonical status. Unknown values come back unchanged.
func (f *Formatter) Status(raw string) string {
	if label, ok := statusLabels[f.tag][raw]; ok {
		return label
	}
	return raw
}
