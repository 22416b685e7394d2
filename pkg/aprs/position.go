package aprs

import (
	"errors"
	"strconv"
)

const (
	positionPattern    = `^([0-9 .NS]{8})(.)([0-9 .EW]{9})(.)(.*)$`
	courseSpeedPattern = `^([0-9]{3})/([0-9]{3})`
)

var errBadPosition = errors.New("aprs: malformed position field")

// position is the decoded body of an uncompressed position report.
type position struct {
	coord       Coordinate
	symbolTable string
	symbolCode  string
	comment     string
}

// parsePosition decodes the "DDMM.hhN/DDDMM.hhW$" body that follows the
// type byte (and any timestamp). Latitude and longitude round to six
// decimal places.
func parsePosition(body string) (*position, error) {
	m := patterns.get(positionPattern).FindStringSubmatch(body)
	if m == nil {
		return nil, errBadPosition
	}

	lat, err := parseLatitude(m[1])
	if err != nil {
		return nil, err
	}
	lon, err := parseLongitude(m[3])
	if err != nil {
		return nil, err
	}
	coord, err := NewCoordinate(roundCoord(lat), roundCoord(lon))
	if err != nil {
		return nil, err
	}

	return &position{
		coord:       coord,
		symbolTable: m[2],
		symbolCode:  m[4],
		comment:     m[5],
	}, nil
}

// parseLatitude decodes "DDMM.hhN" (8 chars).
func parseLatitude(raw string) (float64, error) {
	if len(raw) != 8 {
		return 0, errBadPosition
	}
	deg, err := strconv.Atoi(raw[0:2])
	if err != nil {
		return 0, errBadPosition
	}
	min, err := strconv.ParseFloat(raw[2:7], 64)
	if err != nil {
		return 0, errBadPosition
	}

	lat := float64(deg) + min/60
	switch raw[7] {
	case 'N':
		return lat, nil
	case 'S':
		return -lat, nil
	default:
		return 0, errBadPosition
	}
}

// parseLongitude decodes "DDDMM.hhW" (9 chars).
func parseLongitude(raw string) (float64, error) {
	if len(raw) != 9 {
		return 0, errBadPosition
	}
	deg, err := strconv.Atoi(raw[0:3])
	if err != nil {
		return 0, errBadPosition
	}
	min, err := strconv.ParseFloat(raw[3:8], 64)
	if err != nil {
		return 0, errBadPosition
	}

	lon := float64(deg) + min/60
	switch raw[8] {
	case 'E':
		return lon, nil
	case 'W':
		return -lon, nil
	default:
		return 0, errBadPosition
	}
}

// parseCourseSpeed reads the CSE/SPD extension from the head of a
// position comment: three digits of course, a slash, three of speed.
func parseCourseSpeed(comment string) (course int, speed float64, ok bool) {
	m := patterns.get(courseSpeedPattern).FindStringSubmatch(comment)
	if m == nil {
		return 0, 0, false
	}
	course, _ = strconv.Atoi(m[1])
	spd, _ := strconv.Atoi(m[2])
	return course, float64(spd), true
}
