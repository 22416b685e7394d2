package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/aprswatch/aprswatch/pkg/aprs"
)

// Limits applied when a packet record is constructed. Oversized fields
// are truncated rather than rejected so that a noisy digipeater path or
// an oversized frame never costs us the packet.
const (
	maxPathLen = 100
	maxRawLen  = 1024
)

// GPS-glitch bounds. Values outside these ranges are dropped to null
// during construction.
const (
	maxSpeedKnots = 3500
	maxCourseDeg  = 360
)

// Packet is the persisted form of a decoded APRS frame. The embedded
// value objects (sender, destination, position, weather) are flattened
// into columns so the row is directly indexable.
type Packet struct {
	ID             int64           `gorm:"column:id;primaryKey"`
	SenderCallsign string          `gorm:"column:sender_callsign"`
	SenderBase     string          `gorm:"column:sender_base"`
	SenderSSID     int             `gorm:"column:sender_ssid"`
	DestCallsign   *string         `gorm:"column:dest_callsign"`
	DestBase       *string         `gorm:"column:dest_base"`
	DestSSID       *int            `gorm:"column:dest_ssid"`
	Path           string          `gorm:"column:path"`
	Type           aprs.PacketType `gorm:"column:type"`
	Latitude       *float64        `gorm:"column:latitude"`
	Longitude      *float64        `gorm:"column:longitude"`
	Speed          *float64        `gorm:"column:speed"`
	Course         *int            `gorm:"column:course"`
	WxWindDir      *int            `gorm:"column:wx_wind_dir"`
	WxWindSpeed    *int            `gorm:"column:wx_wind_speed"`
	WxWindGust     *int            `gorm:"column:wx_wind_gust"`
	WxTemperature  *int            `gorm:"column:wx_temperature"`
	WxRain1h       *int            `gorm:"column:wx_rain_1h"`
	WxRain24h      *int            `gorm:"column:wx_rain_24h"`
	WxRainMidnight *int            `gorm:"column:wx_rain_midnight"`
	WxHumidity     *int            `gorm:"column:wx_humidity"`
	WxPressure     *int            `gorm:"column:wx_pressure"`
	SentTime       *time.Time      `gorm:"column:sent_time"`
	ReceivedAt     time.Time       `gorm:"column:received_at"`
	RawContent     string          `gorm:"column:raw_content"`
	Comment        string          `gorm:"column:comment"`
	SymbolTable    string          `gorm:"column:symbol_table"`
	SymbolCode     string          `gorm:"column:symbol_code"`
}

// TableName implements the GORM Tabler interface for the Packet struct
func (Packet) TableName() string {
	return "packets"
}

// NewPacket flattens a decoded frame into a storable record. receivedAt
// is stamped in UTC, paths and raw content are truncated to their
// column limits, and speed/course readings outside plausible bounds
// are dropped to null.
func NewPacket(parsed *aprs.Packet, receivedAt time.Time) *Packet {
	p := &Packet{
		SenderCallsign: parsed.Sender.Value,
		SenderBase:     parsed.Sender.Base,
		SenderSSID:     parsed.Sender.SSID,
		Path:           truncate(parsed.Path, maxPathLen),
		Type:           parsed.Type,
		SentTime:       parsed.SentTime,
		ReceivedAt:     receivedAt.UTC(),
		RawContent:     truncate(parsed.Raw, maxRawLen),
		Comment:        parsed.Comment,
		SymbolTable:    parsed.SymbolTable,
		SymbolCode:     parsed.SymbolCode,
	}

	if parsed.Destination != nil {
		p.DestCallsign = &parsed.Destination.Value
		p.DestBase = &parsed.Destination.Base
		p.DestSSID = &parsed.Destination.SSID
	}

	if parsed.Position != nil {
		p.Latitude = &parsed.Position.Latitude
		p.Longitude = &parsed.Position.Longitude
	}

	if parsed.Speed != nil && *parsed.Speed >= 0 && *parsed.Speed <= maxSpeedKnots {
		p.Speed = parsed.Speed
	}
	if parsed.Course != nil && *parsed.Course >= 0 && *parsed.Course <= maxCourseDeg {
		p.Course = parsed.Course
	}

	if wx := parsed.Weather; wx != nil {
		p.WxWindDir = wx.WindDirection
		p.WxWindSpeed = wx.WindSpeed
		p.WxWindGust = wx.WindGust
		p.WxTemperature = wx.Temperature
		p.WxRain1h = wx.Rain1h
		p.WxRain24h = wx.Rain24h
		p.WxRainMidnight = wx.RainMidnight
		p.WxHumidity = wx.Humidity
		p.WxPressure = wx.Pressure
	}

	return p
}

// Fingerprint returns the dedup key for this packet: the first 64 bits
// of SHA-256 over the sender value and raw content, rendered as hex.
// Two receptions of the same frame from the same sender always collide.
func (p *Packet) Fingerprint() string {
	sum := sha256.Sum256([]byte(p.SenderCallsign + ":" + p.RawContent))
	return hex.EncodeToString(sum[:8])
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
