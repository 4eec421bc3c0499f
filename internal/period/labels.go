package period

import (
	"fmt"
	"time"
)

var arabicDays = map[time.Weekday]string{
	time.Monday:    "الاثنين",
	time.Tuesday:   "الثلاثاء",
	time.Wednesday: "الأربعاء",
	time.Thursday:  "الخميس",
	time.Friday:    "الجمعة",
	time.Saturday:  "السبت",
	time.Sunday:    "الأحد",
}

var arabicMonths = map[time.Month]string{
	time.January:   "يناير",
	time.February:  "فبراير",
	time.March:     "مارس",
	time.April:     "أبريل",
	time.May:       "مايو",
	time.June:      "يونيو",
	time.July:      "يوليو",
	time.August:    "أغسطس",
	time.September: "سبتمبر",
	time.October:   "أكتوبر",
	time.November:  "نوفمبر",
	time.December:  "ديسمبر",
}

// ArabicDay returns the Arabic name of the weekday.
func ArabicDay(d time.Weekday) string {
	return arabicDays[d]
}

// ArabicMonthDay formats a date as "<month> <day>", e.g. "يناير 16".
func ArabicMonthDay(t time.Time) string {
	return fmt.Sprintf("%s %d", arabicMonths[t.Month()], t.Day())
}

// WeekLabel formats the week-start header, e.g. "أسبوع 2026-01-12".
func WeekLabel(k Key) string {
	return "أسبوع " + k.String()
}

// ShortDate formats a date as "12-Jan".
func ShortDate(t time.Time) string {
	return t.Format("02-Jan")
}
