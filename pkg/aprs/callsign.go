package aprs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCallsign is wrapped by every callsign validation failure.
var ErrInvalidCallsign = errors.New("aprs: invalid callsign")

const callsignPattern = `^([A-Z0-9]{2,6})(?:-([0-9]{1,2}))?$`

// Callsign is an amateur-radio station identifier in BASE or BASE-SSID
// form. The zero value is not valid; build one with ParseCallsign.
type Callsign struct {
	// Value is the full uppercase identifier, e.g. "N0CALL-9".
	Value string
	// Base is Value without the SSID suffix.
	Base string
	// SSID distinguishes stations run by one operator, 0 when absent.
	SSID int
}

// ParseCallsign validates and normalises a callsign. Input is trimmed and
// uppercased; the result's Value is a fixed point of ParseCallsign.
func ParseCallsign(s string) (Callsign, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if len(v) < 3 || len(v) > 15 {
		return Callsign{}, fmt.Errorf("%w: %q must be 3-15 characters", ErrInvalidCallsign, s)
	}

	m := patterns.get(callsignPattern).FindStringSubmatch(v)
	if m == nil {
		return Callsign{}, fmt.Errorf("%w: %q", ErrInvalidCallsign, s)
	}

	cs := Callsign{Value: v, Base: m[1]}
	if m[2] != "" {
		ssid, _ := strconv.Atoi(m[2])
		if ssid > 15 {
			return Callsign{}, fmt.Errorf("%w: SSID %q out of range 0-15", ErrInvalidCallsign, m[2])
		}
		cs.SSID = ssid
	}
	return cs, nil
}

// Equal reports whether two callsigns carry the same full value.
func (c Callsign) Equal(other Callsign) bool {
	return c.Value == other.Value
}

func (c Callsign) String() string {
	return c.Value
}
