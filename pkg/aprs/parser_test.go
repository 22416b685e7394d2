package aprs

import (
	"errors"
	"math"
	"testing"
	"time"
)

// parseHint pins the clock so timestamp resolution is deterministic.
var parseHint = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func mustParse(t *testing.T, line string) *Packet {
	t.Helper()
	p, err := ParseWithTime(line, parseHint)
	if err != nil {
		t.Fatalf("ParseWithTime(%q) error: %v", line, err)
	}
	return p
}

func TestParseUncompressedPosition(t *testing.T) {
	p := mustParse(t, "N0CALL>APRS,WIDE1-1:!4903.50N/07201.75W-Test Packet")

	if p.Sender.Value != "N0CALL" {
		t.Errorf("Sender = %q, expected N0CALL", p.Sender.Value)
	}
	if p.Type != TypePositionNoTimestamp {
		t.Errorf("Type = %q, expected %q", p.Type, TypePositionNoTimestamp)
	}
	if p.Position == nil {
		t.Fatal("Position is nil")
	}
	if math.Abs(p.Position.Latitude-49.058333) > 1e-6 {
		t.Errorf("Latitude = %v, expected 49.058333", p.Position.Latitude)
	}
	if math.Abs(p.Position.Longitude-(-72.029167)) > 1e-6 {
		t.Errorf("Longitude = %v, expected -72.029167", p.Position.Longitude)
	}
	if p.SymbolTable != "/" || p.SymbolCode != "-" {
		t.Errorf("Symbol = %q %q, expected / -", p.SymbolTable, p.SymbolCode)
	}
	if p.Comment != "Test Packet" {
		t.Errorf("Comment = %q, expected 'Test Packet'", p.Comment)
	}
	if p.Path != "APRS,WIDE1-1" {
		t.Errorf("Path = %q, expected APRS,WIDE1-1", p.Path)
	}
	if p.Raw != "N0CALL>APRS,WIDE1-1:!4903.50N/07201.75W-Test Packet" {
		t.Errorf("Raw = %q does not equal input", p.Raw)
	}
}

func TestParseTimestampedPosition(t *testing.T) {
	p := mustParse(t, "N0CALL>APRS:/092345z4903.50N/07201.75W-Test")

	if p.Type != TypePositionWithTimestamp {
		t.Fatalf("Type = %q, expected %q", p.Type, TypePositionWithTimestamp)
	}
	if p.SentTime == nil {
		t.Fatal("SentTime is nil")
	}
	st := *p.SentTime
	if st.Day() != 9 || st.Hour() != 23 || st.Minute() != 45 {
		t.Errorf("SentTime = %v, expected day 9 23:45 UTC", st)
	}
	if st.Month() != parseHint.Month() || st.Year() != parseHint.Year() {
		t.Errorf("SentTime = %v, expected hint month/year", st)
	}
}

func TestParseMicE(t *testing.T) {
	// Destination 111111: every digit 1, index 3 selects South, index 5
	// East. Info bytes carry the +28 wire offset.
	payload := "`" + string([]byte{28 + 10, 28 + 20, 28 + 50, 28, 28, 28}) + "-/"
	p := mustParse(t, "N0CALL>111111:"+payload)

	if p.Type != TypeMicE {
		t.Fatalf("Type = %q, expected %q", p.Type, TypeMicE)
	}
	if p.Position == nil {
		t.Fatal("Position is nil")
	}
	wantLat := -(11 + 11.11/60)
	wantLon := 10 + 20.50/60
	if math.Abs(p.Position.Latitude-wantLat) > 1e-6 {
		t.Errorf("Latitude = %v, expected %v", p.Position.Latitude, wantLat)
	}
	if math.Abs(p.Position.Longitude-wantLon) > 1e-6 {
		t.Errorf("Longitude = %v, expected %v", p.Position.Longitude, wantLon)
	}
	if p.SymbolTable != "/" || p.SymbolCode != "-" {
		t.Errorf("Symbol = %q %q, expected / -", p.SymbolTable, p.SymbolCode)
	}
	if p.Speed == nil || *p.Speed != 0 {
		t.Errorf("Speed = %v, expected 0", p.Speed)
	}
	if p.Course == nil || *p.Course != 0 {
		t.Errorf("Course = %v, expected 0", p.Course)
	}
}

func TestParsePositionlessWeather(t *testing.T) {
	p := mustParse(t, "N0CALL>APRS:_01151230c090s010g015t072r001p010P020h50b10135")

	if p.Type != TypeWeather {
		t.Fatalf("Type = %q, expected %q", p.Type, TypeWeather)
	}
	if p.Weather == nil {
		t.Fatal("Weather is nil")
	}
	checks := []struct {
		name string
		got  *int
		want int
	}{
		{"WindDirection", p.Weather.WindDirection, 90},
		{"WindSpeed", p.Weather.WindSpeed, 10},
		{"WindGust", p.Weather.WindGust, 15},
		{"Temperature", p.Weather.Temperature, 72},
		{"Rain1h", p.Weather.Rain1h, 1},
		{"Rain24h", p.Weather.Rain24h, 10},
		{"RainMidnight", p.Weather.RainMidnight, 20},
		{"Humidity", p.Weather.Humidity, 50},
		{"Pressure", p.Weather.Pressure, 10135},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("%s is nil, expected %d", c.name, c.want)
		} else if *c.got != c.want {
			t.Errorf("%s = %d, expected %d", c.name, *c.got, c.want)
		}
	}
	if p.SentTime == nil {
		t.Fatal("SentTime is nil")
	} else if p.SentTime.Month() != time.January || p.SentTime.Day() != 15 ||
		p.SentTime.Hour() != 12 || p.SentTime.Minute() != 30 {
		t.Errorf("SentTime = %v, expected Jan 15 12:30", *p.SentTime)
	}
}

func TestParseDispatch(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantType    PacketType
		wantComment string
	}{
		{
			name:        "message",
			line:        "N0CALL>APRS::N1CALL   :hello{001",
			wantType:    TypeMessage,
			wantComment: "N1CALL   :hello{001",
		},
		{
			name:        "status",
			line:        "N0CALL>APRS:>Net Control Center",
			wantType:    TypeStatus,
			wantComment: "Net Control Center",
		},
		{
			name:        "object identification only",
			line:        "N0CALL>APRS:;LEADER   *092345z4903.50N/07201.75W>",
			wantType:    TypeObject,
			wantComment: "LEADER   *092345z4903.50N/07201.75W>",
		},
		{
			name:        "item identification only",
			line:        "N0CALL>APRS:)AID#2!4903.50N/07201.75W!",
			wantType:    TypeItem,
			wantComment: "AID#2!4903.50N/07201.75W!",
		},
		{
			name:        "telemetry identification only",
			line:        "N0CALL>APRS:T#005,199,000,255,073,123,01101001",
			wantType:    TypeTelemetry,
			wantComment: "#005,199,000,255,073,123,01101001",
		},
		{
			name:        "unrecognised identifier",
			line:        "N0CALL>APRS:?APRSP",
			wantType:    TypeUnknown,
			wantComment: "?APRSP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse(t, tt.line)
			if p.Type != tt.wantType {
				t.Errorf("Type = %q, expected %q", p.Type, tt.wantType)
			}
			if p.Comment != tt.wantComment {
				t.Errorf("Comment = %q, expected %q", p.Comment, tt.wantComment)
			}
		})
	}
}

func TestParseGridBeacon(t *testing.T) {
	p := mustParse(t, "N0CALL>APRS:[JN58]op Mike")

	if p.Type != TypePositionNoTimestamp {
		t.Fatalf("Type = %q, expected %q", p.Type, TypePositionNoTimestamp)
	}
	if p.Position == nil {
		t.Fatal("Position is nil")
	}
	// JN58 center: lon 11, lat 48.5.
	if math.Abs(p.Position.Longitude-11) > 1e-9 || math.Abs(p.Position.Latitude-48.5) > 1e-9 {
		t.Errorf("Position = %+v, expected (48.5, 11)", *p.Position)
	}
	if p.Comment != "op Mike" {
		t.Errorf("Comment = %q, expected 'op Mike'", p.Comment)
	}
}

func TestParseDowngradesToUnknown(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"position with bad hemisphere", "N0CALL>APRS:!4903.50X/07201.75W-"},
		{"position too short", "N0CALL>APRS:!4903.50N"},
		{"timestamped position with bad timestamp", "N0CALL>APRS:/9z23x5z4903.50N/07201.75W-"},
		{"mic-e with short info field", "N0CALL>111111:`abc"},
		{"mic-e with invalid destination", "N0CALL>1111:`" + string([]byte{38, 48, 78, 28, 28, 28}) + "-/"},
		{"grid beacon without closing bracket", "N0CALL>APRS:[JN58 op"},
		{"grid beacon with bad locator", "N0CALL>APRS:[ZZ99]op"},
		{"positionless weather with short timestamp", "N0CALL>APRS:_0115c090"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustParse(t, tt.line)
			if p.Type != TypeUnknown {
				t.Errorf("Type = %q, expected %q", p.Type, TypeUnknown)
			}
			if p.Position != nil {
				t.Errorf("Position = %+v, expected nil", *p.Position)
			}
			if p.Raw != tt.line {
				t.Errorf("Raw = %q does not equal input", p.Raw)
			}
		})
	}
}

func TestParseFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty line", ""},
		{"no destination separator", "N0CALL"},
		{"no payload separator", "N0CALL>APRS,WIDE1-1"},
		{"empty sender", ">APRS:!4903.50N/07201.75W-"},
		{"sender not a callsign", "n!>APRS:test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWithTime(tt.line, parseHint)
			if !errors.Is(err, ErrBadFrame) {
				t.Errorf("error = %v, expected ErrBadFrame", err)
			}
		})
	}
}

func TestParseCourseSpeedExtension(t *testing.T) {
	p := mustParse(t, "N0CALL>APRS:!4903.50N/07201.75W>088/036 on my way")

	if p.Course == nil || *p.Course != 88 {
		t.Errorf("Course = %v, expected 88", p.Course)
	}
	if p.Speed == nil || *p.Speed != 36 {
		t.Errorf("Speed = %v, expected 36", p.Speed)
	}
}

func TestParseWeatherOverlay(t *testing.T) {
	// Symbol "_" plus c/s/g/t runs in the comment makes this a weather
	// report even though it framed as a plain position.
	p := mustParse(t, "N0CALL>APRS:!4903.50N/07201.75W_220/004g005t077r001p002P003h50b09900")

	if p.Type != TypeWeather {
		t.Fatalf("Type = %q, expected %q", p.Type, TypeWeather)
	}
	if p.Weather == nil {
		t.Fatal("Weather is nil")
	}
	if p.Weather.Temperature == nil || *p.Weather.Temperature != 77 {
		t.Errorf("Temperature = %v, expected 77", p.Weather.Temperature)
	}
	if p.Weather.WindDirection == nil || *p.Weather.WindDirection != 220 {
		t.Errorf("WindDirection = %v, expected 220", p.Weather.WindDirection)
	}
	if p.Weather.WindSpeed == nil || *p.Weather.WindSpeed != 4 {
		t.Errorf("WindSpeed = %v, expected 4", p.Weather.WindSpeed)
	}
	if p.Position == nil {
		t.Error("Position is nil, expected coordinates alongside weather")
	}
}

func TestParseDestination(t *testing.T) {
	p := mustParse(t, "N0CALL-9>APDR16,TCPIP*,qAC,T2TEST:>status")

	if p.Sender.Value != "N0CALL-9" || p.Sender.Base != "N0CALL" || p.Sender.SSID != 9 {
		t.Errorf("Sender = %+v, expected N0CALL-9", p.Sender)
	}
	if p.Destination == nil || p.Destination.Value != "APDR16" {
		t.Errorf("Destination = %v, expected APDR16", p.Destination)
	}
	if p.Path != "APDR16,TCPIP*,qAC,T2TEST" {
		t.Errorf("Path = %q", p.Path)
	}
}

func TestParseStripsLineTerminator(t *testing.T) {
	p := mustParse(t, "N0CALL>APRS:>QRT\r\n")
	if p.Raw != "N0CALL>APRS:>QRT" {
		t.Errorf("Raw = %q, expected terminator stripped", p.Raw)
	}
}
