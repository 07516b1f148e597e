package audit

import "time"

// formatTimestamp renders t as "YYYY-MM-DDTHH:MM:SS.mmmZ" using an explicit
// Gregorian calendar routine rather than the standard library's own
// formatting, so the output is deterministic and independent of the host's
// locale or time zone database: it only ever depends on Unix time.
func formatTimestamp(t time.Time) string {
	unixNano := t.UnixNano()
	secs := unixNano / int64(time.Second)
	millis := (unixNano / int64(time.Millisecond)) % 1000
	if millis < 0 {
		millis += 1000
	}

	daysSinceEpoch := secs / 86400
	timeOfDay := secs % 86400
	if timeOfDay < 0 {
		timeOfDay += 86400
		daysSinceEpoch--
	}

	hours := timeOfDay / 3600
	minutes := (timeOfDay % 3600) / 60
	seconds := timeOfDay % 60

	year, month, day := daysToYMD(daysSinceEpoch)

	return formatDateTime(year, month, day, int(hours), int(minutes), int(seconds), int(millis))
}

// daysToYMD converts days since the Unix epoch (1970-01-01) to a calendar
// year/month/day, handling leap years via the div-4/except-div-100/
// except-div-400 rule.
func daysToYMD(days int64) (year, month, day int) {
	year = 1970
	for {
		daysInYear := int64(365)
		if isLeapYear(year) {
			daysInYear = 366
		}
		if days < daysInYear {
			break
		}
		days -= daysInYear
		year++
	}

	daysInMonths := [12]int64{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if isLeapYear(year) {
		daysInMonths[1] = 29
	}

	month = 1
	for _, daysInMonth := range daysInMonths {
		if days < daysInMonth {
			break
		}
		days -= daysInMonth
		month++
	}

	day = int(days) + 1
	return year, month, day
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func formatDateTime(year, month, day, hour, minute, second, millis int) string {
	buf := make([]byte, 0, 24)
	buf = appendPadded(buf, year, 4)
	buf = append(buf, '-')
	buf = appendPadded(buf, month, 2)
	buf = append(buf, '-')
	buf = appendPadded(buf, day, 2)
	buf = append(buf, 'T')
	buf = appendPadded(buf, hour, 2)
	buf = append(buf, ':')
	buf = appendPadded(buf, minute, 2)
	buf = append(buf, ':')
	buf = appendPadded(buf, second, 2)
	buf = append(buf, '.')
	buf = appendPadded(buf, millis, 3)
	buf = append(buf, 'Z')
	return string(buf)
}

func appendPadded(buf []byte, v, width int) []byte {
	digits := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return append(buf, digits...)
}
