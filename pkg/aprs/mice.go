package aprs

import (
	"errors"
	"strconv"
)

var errBadMicE = errors.New("aprs: malformed mic-e field")

// micE is the result of decoding a Mic-E packet, which splits the
// position between the destination address and the information field.
type micE struct {
	coord       Coordinate
	speed       float64
	course      int
	symbolTable string
	symbolCode  string
	comment     string
}

// parseMicE decodes the 6-character destination address (latitude digits,
// N/S, longitude offset, E/W) and the 8 information-field bytes that
// follow the type byte (longitude, speed, course, symbol). Any decode
// failure returns an error; the caller leaves the packet undecoded.
func parseMicE(destination, info string) (*micE, error) {
	if len(destination) != 6 {
		return nil, errBadMicE
	}
	if len(info) < 8 {
		return nil, errBadMicE
	}

	lat, err := micELatitude(destination)
	if err != nil {
		return nil, err
	}

	// Longitude bytes carry a +28 offset on the wire.
	deg := float64(info[0]) - 28
	if destination[4] >= 'P' && destination[4] <= 'Z' {
		deg += 100
	}
	if deg >= 180 && deg <= 189 {
		deg -= 80
	} else if deg >= 190 && deg <= 199 {
		deg -= 190
	}
	min := float64(info[1]) - 28
	if min >= 60 {
		min -= 60
	}
	hun := float64(info[2]) - 28

	lon := deg + (min+hun/100)/60
	if destination[5] >= 'P' && destination[5] <= 'Z' {
		lon = -lon
	}

	coord, err := NewCoordinate(lat, lon)
	if err != nil {
		return nil, err
	}

	sp := int(info[3]) - 28
	shared := int(info[4]) - 28
	dc := int(info[5]) - 28
	speed := float64(sp*10 + shared/10)
	course := (shared%10)*100 + dc

	return &micE{
		coord:       coord,
		speed:       speed,
		course:      course,
		symbolTable: string(info[7]),
		symbolCode:  string(info[6]),
		comment:     info[8:],
	}, nil
}

// micELatitude maps the destination characters to latitude digits
// (0-9 direct, A-J and P-Y shifted, K/L/Z space) and applies the N/S
// selector at index 3: a plain digit or L means South.
func micELatitude(destination string) (float64, error) {
	digits := make([]byte, 6)
	for i := 0; i < 6; i++ {
		c := destination[i]
		switch {
		case c >= '0' && c <= '9':
			digits[i] = c
		case c >= 'A' && c <= 'J':
			digits[i] = c - 'A' + '0'
		case c >= 'P' && c <= 'Y':
			digits[i] = c - 'P' + '0'
		case c == 'K' || c == 'L' || c == 'Z':
			digits[i] = ' '
		default:
			return 0, errBadMicE
		}
	}

	deg, err := strconv.Atoi(string(digits[0:2]))
	if err != nil {
		return 0, errBadMicE
	}
	min, err := strconv.ParseFloat(string(digits[2:4])+"."+string(digits[4:6]), 64)
	if err != nil {
		return 0, errBadMicE
	}

	lat := float64(deg) + min/60
	if s := destination[3]; (s >= '0' && s <= '9') || s == 'L' {
		lat = -lat
	}
	return lat, nil
}
