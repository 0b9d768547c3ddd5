package pricing

import (
	"strings"
	"time"

	"github.com/stayforge/hotel-backend/internal/models"
)

// Month is a calendar month name used in rule conditions. Names are fixed
// lowercase English, independent of any locale.
type Month string

const (
	January   Month = "january"
	February  Month = "february"
	March     Month = "march"
	April     Month = "april"
	May       Month = "may"
	June      Month = "june"
	July      Month = "july"
	August    Month = "august"
	September Month = "september"
	October   Month = "october"
	November  Month = "november"
	December  Month = "december"
)

// Weekday is a day-of-week name used in rule conditions
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var months = map[time.Month]Month{
	time.January:   January,
	time.February:  February,
	time.March:     March,
	time.April:     April,
	time.May:       May,
	time.June:      June,
	time.July:      July,
	time.August:    August,
	time.September: September,
	time.October:   October,
	time.November:  November,
	time.December:  December,
}

var weekdays = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// MonthOf returns the condition month for a date
func MonthOf(date time.Time) Month {
	return months[date.Month()]
}

// WeekdayOf returns the condition weekday for a date
func WeekdayOf(date time.Time) Weekday {
	return weekdays[date.Weekday()]
}

// ParseConditionValues parses a stored condition_value list. Values are
// separated by commas, semicolons or whitespace and may carry wrapping
// quotes or brackets; everything is normalized to lowercase.
func ParseConditionValues(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t', '\n':
			return true
		}
		return false
	})

	values := make([]string, 0, len(fields))
	for _, f := range fields {
		v := strings.Trim(f, `"'[](){}.`)
		if v == "" {
			continue
		}
		values = append(values, strings.ToLower(v))
	}
	return values
}

// ConditionMatches reports whether a rule condition applies to a date.
// A missing or unrecognized condition type always matches.
func ConditionMatches(conditionType models.ConditionType, conditionValue string, date time.Time) bool {
	switch conditionType {
	case models.ConditionMonth:
		return containsValue(conditionValue, string(MonthOf(date)))
	case models.ConditionDayOfWeek:
		return containsValue(conditionValue, string(WeekdayOf(date)))
	default:
		return true
	}
}

func containsValue(raw, want string) bool {
	for _, v := range ParseConditionValues(raw) {
		if v == want {
			return true
		}
	}
	return false
}
