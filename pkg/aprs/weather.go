package aprs

import (
	"fmt"
	"strconv"
	"strings"
)

// WeatherReport carries the numeric fields of an APRS weather packet in
// their wire units: wind mph, temperature Fahrenheit, rain hundredths of
// an inch, pressure tenths of a millibar. Absent fields stay nil.
type WeatherReport struct {
	WindDirection *int
	WindSpeed     *int
	WindGust      *int
	Temperature   *int
	Rain1h        *int
	Rain24h       *int
	RainMidnight  *int
	Humidity      *int
	Pressure      *int
}

const windFallbackPattern = `([0-9]{3})/([0-9]{3})`

// ParseWeatherReport scans s for the fixed-width prefixed runs of the
// APRS weather format. Wind direction/speed missing as c/s runs are
// retried against the bare DDD/SSS form.
func ParseWeatherReport(s string) WeatherReport {
	w := WeatherReport{
		WindDirection: scanWeatherField(s, 'c', 3),
		WindSpeed:     scanWeatherField(s, 's', 3),
		WindGust:      scanWeatherField(s, 'g', 3),
		Temperature:   scanWeatherField(s, 't', 3),
		Rain1h:        scanWeatherField(s, 'r', 3),
		Rain24h:       scanWeatherField(s, 'p', 3),
		RainMidnight:  scanWeatherField(s, 'P', 3),
		Humidity:      scanWeatherField(s, 'h', 2),
		Pressure:      scanWeatherField(s, 'b', 5),
	}

	if w.WindDirection == nil && w.WindSpeed == nil {
		if m := patterns.get(windFallbackPattern).FindStringSubmatch(s); m != nil {
			dir, _ := strconv.Atoi(m[1])
			speed, _ := strconv.Atoi(m[2])
			w.WindDirection, w.WindSpeed = &dir, &speed
		}
	}
	return w
}

// scanWeatherField finds the first "<key>NNN" run. Stations report absent
// sensors as dots ("t..."), which fail the integer cast and stay nil.
func scanWeatherField(s string, key byte, width int) *int {
	pattern := fmt.Sprintf(`%c([0-9.]{%d})`, key, width)
	m := patterns.get(pattern).FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

// HasReadings reports whether the wind-speed or temperature sensor
// produced a value, the cue that a position comment embeds weather.
func (w WeatherReport) HasReadings() bool {
	return w.WindSpeed != nil || w.Temperature != nil
}

// Encode renders the report in canonical field order. It is the exact
// inverse of ParseWeatherReport for in-range values.
func (w WeatherReport) Encode() string {
	var b strings.Builder
	writeWeatherField(&b, 'c', w.WindDirection, 3)
	writeWeatherField(&b, 's', w.WindSpeed, 3)
	writeWeatherField(&b, 'g', w.WindGust, 3)
	writeWeatherField(&b, 't', w.Temperature, 3)
	writeWeatherField(&b, 'r', w.Rain1h, 3)
	writeWeatherField(&b, 'p', w.Rain24h, 3)
	writeWeatherField(&b, 'P', w.RainMidnight, 3)
	writeWeatherField(&b, 'h', w.Humidity, 2)
	writeWeatherField(&b, 'b', w.Pressure, 5)
	return b.String()
}

func writeWeatherField(b *strings.Builder, key byte, v *int, width int) {
	if v == nil {
		return
	}
	b.WriteByte(key)
	fmt.Fprintf(b, "%0*d", width, *v)
}
