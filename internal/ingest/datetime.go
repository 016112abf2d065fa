package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

func stripQuotes(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\'' {
			return -1
		}
		return r
	}, s)
}

// splitColumns splits a header or data line into columns. Both comma and
// semicolon are accepted separators; surrounding quotes are stripped first.
// Empty columns are preserved so channel indexes stay aligned.
func splitColumns(line string) []string {
	clean := strings.ReplaceAll(stripQuotes(line), ";", ",")
	return strings.Split(clean, ",")
}

// ParseDateTime normalizes a vendor date token (D-M-Y or D/M/Y, two-digit
// years meaning 2000+Y) and an optional time token (H:M[:S]) into canonical
// YYYY-MM-DD and HH:MM:SS strings. Missing time parts default to 00.
// ok is false when the date token is absent, does not split into exactly
// three components, or has non-numeric components. Month and day ranges are
// deliberately not validated: "15-13-24" yields "2024-13-15" because the
// loggers occasionally emit such rows and downstream keys treat dates as
// opaque strings.
func ParseDateTime(dateTok, timeTok string) (date, clock string, ok bool) {
	cleanDate := strings.TrimSpace(stripQuotes(dateTok))
	if cleanDate == "" {
		return "", "", false
	}

	parts := strings.Split(strings.ReplaceAll(cleanDate, "/", "-"), "-")
	if len(parts) != 3 {
		return "", "", false
	}

	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return "", "", false
	}
	if year < 100 {
		year += 2000
	}

	hour, minute, second := 0, 0, 0
	cleanTime := strings.TrimSpace(stripQuotes(timeTok))
	if strings.Contains(cleanTime, ":") {
		fields := strings.Split(cleanTime, ":")
		hour = timePart(fields, 0)
		minute = timePart(fields, 1)
		second = timePart(fields, 2)
	}

	date = fmt.Sprintf("%d-%02d-%02d", year, month, day)
	clock = fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
	return date, clock, true
}

func timePart(fields []string, i int) int {
	if i >= len(fields) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(fields[i]))
	if err != nil {
		return 0
	}
	return n
}
