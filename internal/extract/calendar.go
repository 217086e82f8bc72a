package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"visaocr/pkg/models"
)

var (
	reMonthHeaderName = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\b`)
	reYear            = regexp.MustCompile(`(19|20)\d{2}`)
)

// ParseCalendar reads a calendar widget from raw OCR text: each "Month YYYY" header
// opens a month, and day numbers (1-31) below it are collected as selectable dates,
// deduplicated and sorted. Day numbers before the first header are ignored.
//
// It works on the raw text rather than CleanLines output because single-digit days
// are exactly the lines CleanLines drops.
func ParseCalendar(raw string) []models.CalendarMonth {
	var months []models.CalendarMonth
	current := -1
	seen := map[int]bool{}

	for _, line := range reLineBreak.Split(raw, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if reMonthHeaderName.MatchString(line) && reYear.MatchString(line) {
			months = append(months, models.CalendarMonth{Month: line, SelectableDates: []int{}})
			current = len(months) - 1
			seen = map[int]bool{}
			continue
		}
		if current < 0 || !reDigits.MatchString(line) {
			continue
		}
		day, err := strconv.Atoi(line)
		if err != nil || day < 1 || day > 31 || seen[day] {
			continue
		}
		seen[day] = true
		months[current].SelectableDates = append(months[current].SelectableDates, day)
	}

	for i := range months {
		sort.Ints(months[i].SelectableDates)
	}
	return months
}
