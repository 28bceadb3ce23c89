package appointments

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNeedsClarification means the text did not contain a usable date and time. Callers
// answer with a clarification prompt instead of failing the request.
var ErrNeedsClarification = errors.New("appointments: date and time required")

var (
	datePattern = regexp.MustCompile(`(\d{1,2})[/\-.](\d{1,2})(?:[/\-.](\d{2,4}))?`)
	timePattern = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)?`)
)

// Request is a parsed appointment ask. DateTime is a naive local value in the location of
// the reference time handed to Parse.
type Request struct {
	DateTime time.Time
	DateText string
	TimeText string
}

// Parse extracts a D/M[/Y] date and an H[:MM][am|pm] time from text. A missing year
// means the year of now; two-digit years are read as 20YY. The time is searched for in
// the text that remains once the date is cut out, so the day is never mistaken for the hour.
func Parse(text string, now time.Time) (Request, error) {
	loc := now.Location()

	dateLoc := datePattern.FindStringSubmatchIndex(text)
	if dateLoc == nil {
		return Request{}, ErrNeedsClarification
	}
	dateText := text[dateLoc[0]:dateLoc[1]]
	day, _ := strconv.Atoi(text[dateLoc[2]:dateLoc[3]])
	month, _ := strconv.Atoi(text[dateLoc[4]:dateLoc[5]])
	year := now.Year()
	if dateLoc[6] >= 0 {
		yearText := text[dateLoc[6]:dateLoc[7]]
		if len(yearText) == 2 {
			yearText = "20" + yearText
		}
		year, _ = strconv.Atoi(yearText)
	}

	rest := text[:dateLoc[0]] + " " + text[dateLoc[1]:]
	timeMatch := timePattern.FindStringSubmatch(rest)
	if timeMatch == nil {
		return Request{}, ErrNeedsClarification
	}
	hour, minute, err := clockFromMatch(timeMatch)
	if err != nil {
		return Request{}, ErrNeedsClarification
	}

	if month < 1 || month > 12 || day < 1 {
		return Request{}, ErrNeedsClarification
	}
	at := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if at.Day() != day || int(at.Month()) != month || at.Year() != year {
		return Request{}, ErrNeedsClarification
	}

	return Request{
		DateTime: at,
		DateText: dateText,
		TimeText: strings.TrimSpace(timeMatch[0]),
	}, nil
}

func clockFromMatch(m []string) (int, int, error) {
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, err
	}
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("appointments: minute %d out of range", minute)
	}
	switch strings.ToLower(m[3]) {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("appointments: hour %d out of range", hour)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("appointments: hour %d out of range", hour)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, fmt.Errorf("appointments: hour %d out of range", hour)
		}
	}
	return hour, minute, nil
}

// FormatDate renders t like "March 15th, 2026".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %s, %d", t.Month(), ordinal(t.Day()), t.Year())
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
