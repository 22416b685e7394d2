// Package aprs decodes the TNC2 text framing carried by APRS-IS: frame
// splitting, callsign and position value objects, uncompressed and Mic-E
// position reports, weather fields, Maidenhead locators, timestamps, and
// the APRS-IS login passcode.
package aprs

import "time"

// PacketType classifies a decoded packet by its payload identifier.
type PacketType string

const (
	TypePositionNoTimestamp   PacketType = "PositionWithoutTimestamp"
	TypePositionWithTimestamp PacketType = "PositionWithTimestamp"
	TypeMessage               PacketType = "Message"
	TypeTelemetry             PacketType = "Telemetry"
	TypeStatus                PacketType = "Status"
	TypeObject                PacketType = "Object"
	TypeItem                  PacketType = "Item"
	TypeWeather               PacketType = "Weather"
	TypeMicE                  PacketType = "MicE"
	TypeUnknown               PacketType = "Unknown"
)

// packetTypes enumerates every valid PacketType name.
var packetTypes = map[PacketType]bool{
	TypePositionNoTimestamp:   true,
	TypePositionWithTimestamp: true,
	TypeMessage:               true,
	TypeTelemetry:             true,
	TypeStatus:                true,
	TypeObject:                true,
	TypeItem:                  true,
	TypeWeather:               true,
	TypeMicE:                  true,
	TypeUnknown:               true,
}

// ValidPacketType reports whether s names a packet type.
func ValidPacketType(s string) bool {
	return packetTypes[PacketType(s)]
}

// Packet is a decoded APRS frame. Fields the payload did not carry stay
// nil (pointers) or empty (strings). Raw always holds the frame as it
// arrived, minus the line terminator.
type Packet struct {
	Sender      Callsign
	Destination *Callsign
	Path        string
	Type        PacketType
	Position    *Coordinate
	Speed       *float64
	Course      *int
	Weather     *WeatherReport
	SentTime    *time.Time
	Comment     string
	SymbolTable string
	SymbolCode  string
	Raw         string
}
