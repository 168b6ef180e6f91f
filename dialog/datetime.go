package dialog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/NextMind-AI/marlie/catalog"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	ErrUnparsedDate = errors.New("dialog: date not understood")
	ErrPastDate     = errors.New("dialog: date is in the past")
	ErrUnparsedTime = errors.New("dialog: time not understood")
)

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	dayOfPattern     = regexp.MustCompile(`\bdia (\d{1,2})\b`)

	clockPattern    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	hourMarkPattern = regexp.MustCompile(`\b(\d{1,2})\s*h(?:oras?|rs?)?\s*(\d{2})?\b`)
	bareHourPattern = regexp.MustCompile(`^(?:as )?(\d{1,2})(?: (?:da )?(?:manha|tarde|noite))?$`)
)

var weekdays = map[string]time.Weekday{
	"domingo": time.Sunday,
	"segunda": time.Monday,
	"terca":   time.Tuesday,
	"quarta":  time.Wednesday,
	"quinta":  time.Thursday,
	"sexta":   time.Friday,
	"sabado":  time.Saturday,
}

// LoadLocation returns the business timezone, falling back to UTC-3 when
// the zone database is unavailable.
func LoadLocation(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone("BRT", -3*60*60)
}

// ParseDate finds a date expression in Portuguese free text and returns it
// as YYYY-MM-DD. Relative words resolve against now; a day/month without a
// year rolls over to next year once it has passed.
func ParseDate(text string, now time.Time) (string, error) {
	folded := catalog.Fold(text)
	today := truncateDay(now)

	var day time.Time
	switch {
	case folded == "":
		return "", ErrUnparsedDate
	case strings.Contains(folded, "depois de amanha"):
		day = today.AddDate(0, 0, 2)
	case strings.Contains(folded, "amanha"):
		day = today.AddDate(0, 0, 1)
	case strings.Contains(folded, "hoje"):
		day = today
	default:
		d, ok := parseExplicitDate(folded, today)
		if !ok {
			return "", ErrUnparsedDate
		}
		day = d
	}

	if day.Before(today) {
		return day.Format(dateLayout), ErrPastDate
	}
	return day.Format(dateLayout), nil
}

func parseExplicitDate(folded string, today time.Time) (time.Time, bool) {
	if m := isoDatePattern.FindStringSubmatch(folded); m != nil {
		return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), today.Location())
	}

	if m := slashDatePattern.FindStringSubmatch(folded); m != nil {
		year := today.Year()
		explicitYear := m[3] != ""
		if explicitYear {
			year = atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		d, ok := buildDate(year, atoi(m[2]), atoi(m[1]), today.Location())
		if ok && !explicitYear && d.Before(today) {
			return buildDate(year+1, atoi(m[2]), atoi(m[1]), today.Location())
		}
		return d, ok
	}

	if m := dayOfPattern.FindStringSubmatch(folded); m != nil {
		d, ok := buildDate(today.Year(), int(today.Month()), atoi(m[1]), today.Location())
		if ok && d.Before(today) {
			next := today.AddDate(0, 1, 0)
			return buildDate(next.Year(), int(next.Month()), atoi(m[1]), today.Location())
		}
		return d, ok
	}

	for _, token := range strings.Fields(folded) {
		token = strings.TrimSuffix(token, "-feira")
		if wd, ok := weekdays[token]; ok {
			ahead := (int(wd) - int(today.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return today.AddDate(0, 0, ahead), true
		}
	}

	return time.Time{}, false
}

// ParseTime finds a time of day in free text and returns it as HH:MM.
func ParseTime(text string) (string, error) {
	folded := catalog.Fold(text)

	var hour, minute int
	switch {
	case strings.Contains(folded, "meio dia") || strings.Contains(folded, "meio-dia"):
		hour = 12
	default:
		if m := clockPattern.FindStringSubmatch(folded); m != nil {
			hour, minute = atoi(m[1]), atoi(m[2])
		} else if m := hourMarkPattern.FindStringSubmatch(folded); m != nil {
			hour = atoi(m[1])
			if m[2] != "" {
				minute = atoi(m[2])
			}
		} else if m := bareHourPattern.FindStringSubmatch(folded); m != nil {
			hour = atoi(m[1])
		} else {
			return "", ErrUnparsedTime
		}
		if hour < 12 && (strings.Contains(folded, "da tarde") || strings.Contains(folded, "da noite")) {
			hour += 12
		}
	}

	if hour > 23 || minute > 59 {
		return "", ErrUnparsedTime
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// CombineDateTime joins a YYYY-MM-DD date and HH:MM time in loc.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("dialog: combine %q %q: %w", date, clock, err)
	}
	return t, nil
}

func buildDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
