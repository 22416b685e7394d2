package aprs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBadFrame is wrapped by every frame-level parse failure. Failures
// inside an otherwise well-framed payload never surface as errors; they
// leave the packet's type at Unknown instead.
var ErrBadFrame = errors.New("aprs: malformed frame")

const framePattern = `^([^>]+)>([^:]+):(.*)$`

// Parse decodes one TNC2 line using the current wall clock as the
// timestamp hint.
func Parse(line string) (*Packet, error) {
	return ParseWithTime(line, time.Now().UTC())
}

// ParseWithTime decodes one TNC2 line of the form
// SENDER>DEST[,path...]:payload. The now hint anchors the year, month,
// and day that APRS timestamps do not carry.
func ParseWithTime(line string, now time.Time) (*Packet, error) {
	raw := strings.TrimRight(line, "\r\n")

	m := patterns.get(framePattern).FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: no SENDER>DEST:payload structure", ErrBadFrame)
	}

	sender, err := ParseCallsign(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: sender %q", ErrBadFrame, m[1])
	}

	p := &Packet{
		Sender: sender,
		Path:   m[2],
		Type:   TypeUnknown,
		Raw:    raw,
	}

	destRaw, _, _ := strings.Cut(m[2], ",")
	if dest, err := ParseCallsign(destRaw); err == nil {
		p.Destination = &dest
	}

	payload := m[3]
	if payload == "" {
		return p, nil
	}

	switch payload[0] {
	case '!', '=':
		p.decodePosition(payload[1:], now, false)
	case '/', '@':
		p.decodePosition(payload[1:], now, true)
	case ':':
		p.Type = TypeMessage
		p.Comment = payload[1:]
	case '>':
		p.Type = TypeStatus
		p.Comment = payload[1:]
	case '[':
		p.decodeGridBeacon(payload[1:])
	case '_':
		p.decodePositionlessWeather(payload[1:], now)
	case '`', '\'', 0x1c, 0x1d:
		p.decodeMicE(destRaw, payload[1:])
	case ';':
		p.Type = TypeObject
		p.Comment = payload[1:]
	case ')':
		p.Type = TypeItem
		p.Comment = payload[1:]
	default:
		if strings.HasPrefix(payload, "T#") {
			p.Type = TypeTelemetry
			p.Comment = payload[1:]
			break
		}
		p.Comment = payload
	}

	return p, nil
}

// decodePosition handles the !, =, / and @ identifiers. With timestamped
// set, a 7-character timestamp precedes the position body and an
// unparseable one leaves the packet Unknown.
func (p *Packet) decodePosition(body string, now time.Time, timestamped bool) {
	if timestamped {
		if len(body) < 7 {
			return
		}
		ts := parseTimestamp(body[:7], now)
		if ts == nil {
			return
		}
		p.SentTime = ts
		body = body[7:]
	}

	pos, err := parsePosition(body)
	if err != nil {
		return
	}

	p.Position = &pos.coord
	p.SymbolTable = pos.symbolTable
	p.SymbolCode = pos.symbolCode
	p.Comment = pos.comment
	if timestamped {
		p.Type = TypePositionWithTimestamp
	} else {
		p.Type = TypePositionNoTimestamp
	}

	if course, speed, ok := parseCourseSpeed(pos.comment); ok {
		p.Course = &course
		p.Speed = &speed
	}

	// Weather stations beacon as position reports: symbol "_" marks one
	// outright, and g0/t0 runs in the comment are the gust/temperature
	// fields of an embedded report.
	if pos.symbolCode == "_" || strings.Contains(pos.comment, "g0") || strings.Contains(pos.comment, "t0") {
		if wx := ParseWeatherReport(pos.comment); wx.HasReadings() {
			p.Weather = &wx
			p.Type = TypeWeather
		}
	}
}

// decodeGridBeacon handles "[GRID]comment" Maidenhead beacons.
func (p *Packet) decodeGridBeacon(body string) {
	grid, comment, ok := strings.Cut(body, "]")
	if !ok {
		return
	}

	loc, err := ParseLocator(grid)
	if err != nil {
		return
	}

	center := loc.Center()
	p.Position = &center
	p.Comment = comment
	p.Type = TypePositionNoTimestamp
}

// decodePositionlessWeather handles the "_" identifier: an 8-digit
// MMDDHHMM timestamp followed by weather fields.
func (p *Packet) decodePositionlessWeather(body string, now time.Time) {
	if len(body) < 8 || !allDigits(body[:8]) {
		return
	}

	p.SentTime = parseTimestamp(body[:8], now)
	wx := ParseWeatherReport(body[8:])
	p.Weather = &wx
	p.Type = TypeWeather
}

// decodeMicE handles the Mic-E identifiers. The raw destination field is
// required because Mic-E hides latitude in its six characters; decode
// failures leave the packet Unknown with no position.
func (p *Packet) decodeMicE(destRaw, body string) {
	base, _, _ := strings.Cut(destRaw, "-")
	me, err := parseMicE(base, body)
	if err != nil {
		return
	}

	p.Position = &me.coord
	p.Speed = &me.speed
	p.Course = &me.course
	p.SymbolTable = me.symbolTable
	p.SymbolCode = me.symbolCode
	p.Comment = me.comment
	p.Type = TypeMicE
}
