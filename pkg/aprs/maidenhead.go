package aprs

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidLocator is wrapped by Maidenhead validation failures.
var ErrInvalidLocator = errors.New("aprs: invalid maidenhead locator")

const locatorPattern = `^[A-R]{2}[0-9]{2}(?:[A-X]{2}(?:[0-9]{2})?)?$`

// Locator is a Maidenhead grid square of 4, 6, or 8 characters,
// stored uppercase.
type Locator string

// ParseLocator validates a grid locator case-insensitively.
func ParseLocator(s string) (Locator, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !patterns.get(locatorPattern).MatchString(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocator, s)
	}
	return Locator(v), nil
}

// Cell sizes in degrees. A field is 20x10, a square 2x1, a subsquare
// divides a square by 24, and the extended square divides that by 10.
const (
	fieldLonDeg = 20.0
	fieldLatDeg = 10.0
	sqLonDeg    = 2.0
	sqLatDeg    = 1.0
	subLonDeg   = sqLonDeg / 24
	subLatDeg   = sqLatDeg / 24
	extLonDeg   = subLonDeg / 10
	extLatDeg   = subLatDeg / 10
)

// Center returns the coordinate at the middle of the grid cell.
func (l Locator) Center() Coordinate {
	g := string(l)
	lon := float64(g[0]-'A')*fieldLonDeg - 180
	lat := float64(g[1]-'A')*fieldLatDeg - 90
	lon += float64(g[2]-'0') * sqLonDeg
	lat += float64(g[3]-'0') * sqLatDeg

	switch len(g) {
	case 4:
		lon += sqLonDeg / 2
		lat += sqLatDeg / 2
	case 6:
		lon += float64(g[4]-'A')*subLonDeg + subLonDeg/2
		lat += float64(g[5]-'A')*subLatDeg + subLatDeg/2
	case 8:
		lon += float64(g[4]-'A') * subLonDeg
		lat += float64(g[5]-'A') * subLatDeg
		lon += float64(g[6]-'0')*extLonDeg + extLonDeg/2
		lat += float64(g[7]-'0')*extLatDeg + extLatDeg/2
	}

	return Coordinate{Latitude: lat, Longitude: lon}
}

// LocatorForCoordinate inverts Center for precision 4, 6, or 8 characters:
// the locator whose cell contains c.
func LocatorForCoordinate(c Coordinate, precision int) (Locator, error) {
	if precision != 4 && precision != 6 && precision != 8 {
		return "", fmt.Errorf("%w: precision %d not one of 4, 6, 8", ErrInvalidLocator, precision)
	}
	if _, err := NewCoordinate(c.Latitude, c.Longitude); err != nil {
		return "", err
	}

	// Work in whole extended-square cells so cell-center inputs cannot
	// straddle a boundary through float error.
	loni := int(math.Floor((c.Longitude + 180) / extLonDeg))
	lati := int(math.Floor((c.Latitude + 90) / extLatDeg))
	if loni >= 360*120 {
		loni = 360*120 - 1
	}
	if lati >= 180*240 {
		lati = 180*240 - 1
	}

	lonCellsPerField := 2400 // 20 deg / extLonDeg
	latCellsPerField := 2400 // 10 deg / extLatDeg

	var b strings.Builder
	b.WriteByte(byte('A' + loni/lonCellsPerField))
	b.WriteByte(byte('A' + lati/latCellsPerField))
	b.WriteByte(byte('0' + (loni%lonCellsPerField)/240))
	b.WriteByte(byte('0' + (lati%latCellsPerField)/240))
	if precision >= 6 {
		b.WriteByte(byte('A' + (loni%240)/10))
		b.WriteByte(byte('A' + (lati%240)/10))
	}
	if precision == 8 {
		b.WriteByte(byte('0' + loni%10))
		b.WriteByte(byte('0' + lati%10))
	}
	return Locator(b.String()), nil
}
