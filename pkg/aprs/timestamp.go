package aprs

import (
	"strconv"
	"time"
)

// parseTimestamp resolves the three APRS timestamp forms against a UTC
// "now" hint: DDHHMM with a z/ suffix, HHMMSS with an h suffix, and the
// 8-digit MMDDHHMM used by positionless weather. Packets carry no year,
// so day-of-month (or month) values ahead of the hint roll the month
// (or year) back. Anything unparseable yields nil.
func parseTimestamp(ts string, now time.Time) *time.Time {
	switch {
	case len(ts) == 7 && (ts[6] == 'z' || ts[6] == '/'):
		return parseDayHourMinute(ts[:6], now)
	case len(ts) == 7 && ts[6] == 'h':
		return parseHourMinuteSecond(ts[:6], now)
	case len(ts) == 8 && allDigits(ts):
		return parseMonthDayHourMinute(ts, now)
	default:
		return nil
	}
}

func parseDayHourMinute(s string, now time.Time) *time.Time {
	if !allDigits(s) {
		return nil
	}
	day := atoi2(s[0:2])
	hour := atoi2(s[2:4])
	min := atoi2(s[4:6])
	if hour > 23 || min > 59 {
		return nil
	}

	year, month := now.Year(), now.Month()
	if day > now.Day()+1 {
		month--
		if month == 0 {
			month = time.December
			year--
		}
	}
	return strictDate(year, month, day, hour, min, 0)
}

func parseHourMinuteSecond(s string, now time.Time) *time.Time {
	if !allDigits(s) {
		return nil
	}
	hour := atoi2(s[0:2])
	min := atoi2(s[2:4])
	sec := atoi2(s[4:6])
	if hour > 23 || min > 59 || sec > 59 {
		return nil
	}
	return strictDate(now.Year(), now.Month(), now.Day(), hour, min, sec)
}

func parseMonthDayHourMinute(s string, now time.Time) *time.Time {
	month := atoi2(s[0:2])
	day := atoi2(s[2:4])
	hour := atoi2(s[4:6])
	min := atoi2(s[6:8])
	if month < 1 || month > 12 || hour > 23 || min > 59 {
		return nil
	}

	year := now.Year()
	if month > int(now.Month())+1 {
		year--
	}
	return strictDate(year, time.Month(month), day, hour, min, 0)
}

// strictDate builds a UTC time and rejects inputs time.Date would
// normalise away, like day 31 in a 30-day month.
func strictDate(year int, month time.Month, day, hour, min, sec int) *time.Time {
	if day < 1 || day > 31 {
		return nil
	}
	t := time.Date(year, month, day, hour, min, sec, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return nil
	}
	return &t
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func atoi2(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
