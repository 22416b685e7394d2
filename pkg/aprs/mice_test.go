package aprs

import (
	"math"
	"testing"
)

// infoBytes builds a Mic-E information field (after the type byte) from
// raw values plus the +28 wire offset, with symbol code and table.
func infoBytes(deg, min, hun, sp, shared, dc int, code, table byte) string {
	return string([]byte{
		byte(deg + 28), byte(min + 28), byte(hun + 28),
		byte(sp + 28), byte(shared + 28), byte(dc + 28),
		code, table,
	})
}

func TestParseMicEPositions(t *testing.T) {
	tests := []struct {
		name    string
		dest    string
		info    string
		wantLat float64
		wantLon float64
	}{
		{
			name:    "south east digits",
			dest:    "111111",
			info:    infoBytes(10, 20, 50, 0, 0, 0, '-', '/'),
			wantLat: -(11 + 11.11/60),
			wantLon: 10 + 20.50/60,
		},
		{
			name: "north west letters",
			// P-Y map to digits; index 3 >= P means North, index 4 and 5
			// in P-Z add the +100 offset and flip to West.
			dest:    "QQQQQQ",
			info:    infoBytes(12, 30, 0, 0, 0, 0, '>', '/'),
			wantLat: 11 + 11.11/60,
			wantLon: -(112 + 30.0/60),
		},
		{
			name: "A to J digit row",
			// B,C map through the A-J row; R at index 4 adds 100 degrees
			// and S at index 5 flips west.
			dest:    "BC1QRS",
			info:    infoBytes(5, 10, 25, 0, 0, 0, 'k', '/'),
			wantLat: 12 + (11.0+23.0/100)/60,
			wantLon: -(105 + (10+25.0/100.0)/60),
		},
		{
			name:    "degree range 180 to 189 corrects by 80",
			dest:    "111111",
			info:    infoBytes(185, 0, 0, 0, 0, 0, '-', '/'),
			wantLat: -(11 + 11.11/60),
			wantLon: 105,
		},
		{
			name:    "degree range 190 to 199 corrects by 190",
			dest:    "111111",
			info:    infoBytes(192, 30, 0, 0, 0, 0, '-', '/'),
			wantLat: -(11 + 11.11/60),
			wantLon: 2 + 30.0/60,
		},
		{
			name:    "minutes sixty and above wrap",
			dest:    "111111",
			info:    infoBytes(10, 65, 0, 0, 0, 0, '-', '/'),
			wantLat: -(11 + 11.11/60),
			wantLon: 10 + 5.0/60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			me, err := parseMicE(tt.dest, tt.info)
			if err != nil {
				t.Fatalf("parseMicE error: %v", err)
			}
			if math.Abs(me.coord.Latitude-tt.wantLat) > 1e-6 {
				t.Errorf("Latitude = %v, expected %v", me.coord.Latitude, tt.wantLat)
			}
			if math.Abs(me.coord.Longitude-tt.wantLon) > 1e-6 {
				t.Errorf("Longitude = %v, expected %v", me.coord.Longitude, tt.wantLon)
			}
		})
	}
}

func TestParseMicESpeedCourse(t *testing.T) {
	tests := []struct {
		name       string
		sp, shared int
		dc         int
		wantSpeed  float64
		wantCourse int
	}{
		{name: "stationary", sp: 0, shared: 0, dc: 0, wantSpeed: 0, wantCourse: 0},
		{name: "speed tens plus shared units", sp: 8, shared: 54, dc: 30, wantSpeed: 85, wantCourse: 430},
		{name: "course hundreds from shared remainder", sp: 2, shared: 23, dc: 15, wantSpeed: 22, wantCourse: 315},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := infoBytes(10, 20, 50, tt.sp, tt.shared, tt.dc, '>', '/')
			me, err := parseMicE("111111", info)
			if err != nil {
				t.Fatalf("parseMicE error: %v", err)
			}
			if me.speed != tt.wantSpeed {
				t.Errorf("speed = %v, expected %v", me.speed, tt.wantSpeed)
			}
			if me.course != tt.wantCourse {
				t.Errorf("course = %d, expected %d", me.course, tt.wantCourse)
			}
		})
	}
}

func TestParseMicESymbol(t *testing.T) {
	me, err := parseMicE("111111", infoBytes(10, 20, 50, 0, 0, 0, 'j', '/')+"Kenwood TM-D700")
	if err != nil {
		t.Fatalf("parseMicE error: %v", err)
	}
	if me.symbolCode != "j" || me.symbolTable != "/" {
		t.Errorf("symbol = %q %q, expected j /", me.symbolCode, me.symbolTable)
	}
	if me.comment != "Kenwood TM-D700" {
		t.Errorf("comment = %q", me.comment)
	}
}

func TestParseMicERejects(t *testing.T) {
	valid := infoBytes(10, 20, 50, 0, 0, 0, '-', '/')

	tests := []struct {
		name string
		dest string
		info string
	}{
		{name: "destination too short", dest: "11111", info: valid},
		{name: "destination too long", dest: "1111111", info: valid},
		{name: "destination with invalid character", dest: "11*111", info: valid},
		{name: "info field too short", dest: "111111", info: valid[:7]},
		{name: "latitude digits with ambiguity space", dest: "11K111", info: valid},
		{name: "longitude out of range", dest: "111111", info: infoBytes(210, 0, 0, 0, 0, 0, '-', '/')},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseMicE(tt.dest, tt.info); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}
