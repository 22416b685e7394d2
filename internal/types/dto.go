package types

import "time"

// PacketDTO is the public wire shape of a packet, shared by the REST
// API and the realtime hub.
type PacketDTO struct {
	ID          int64        `json:"id"`
	Sender      string       `json:"sender"`
	Destination string       `json:"destination,omitempty"`
	Path        string       `json:"path"`
	Type        string       `json:"type"`
	Position    *PositionDTO `json:"position,omitempty"`
	Speed       *float64     `json:"speed,omitempty"`
	Course      *int         `json:"course,omitempty"`
	Weather     *WeatherDTO  `json:"weather,omitempty"`
	SentTime    *time.Time   `json:"sentTime,omitempty"`
	ReceivedAt  time.Time    `json:"receivedAt"`
	RawContent  string       `json:"rawContent"`
	Comment     string       `json:"comment,omitempty"`
	SymbolTable string       `json:"symbolTable,omitempty"`
	SymbolCode  string       `json:"symbolCode,omitempty"`
}

type PositionDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type WeatherDTO struct {
	WindDirection *int `json:"windDirection,omitempty"`
	WindSpeed     *int `json:"windSpeed,omitempty"`
	WindGust      *int `json:"windGust,omitempty"`
	Temperature   *int `json:"temperature,omitempty"`
	Rain1h        *int `json:"rain1h,omitempty"`
	Rain24h       *int `json:"rain24h,omitempty"`
	RainMidnight  *int `json:"rainMidnight,omitempty"`
	Humidity      *int `json:"humidity,omitempty"`
	Pressure      *int `json:"pressure,omitempty"`
}

// DTO projects the stored row back into the public shape. Optional
// groups (position, weather) are emitted only when at least one of
// their columns is populated.
func (p *Packet) DTO() PacketDTO {
	dto := PacketDTO{
		ID:          p.ID,
		Sender:      p.SenderCallsign,
		Path:        p.Path,
		Type:        string(p.Type),
		Speed:       p.Speed,
		Course:      p.Course,
		SentTime:    p.SentTime,
		ReceivedAt:  p.ReceivedAt,
		RawContent:  p.RawContent,
		Comment:     p.Comment,
		SymbolTable: p.SymbolTable,
		SymbolCode:  p.SymbolCode,
	}

	if p.DestCallsign != nil {
		dto.Destination = *p.DestCallsign
	}

	if p.Latitude != nil && p.Longitude != nil {
		dto.Position = &PositionDTO{Latitude: *p.Latitude, Longitude: *p.Longitude}
	}

	if p.hasWeather() {
		dto.Weather = &WeatherDTO{
			WindDirection: p.WxWindDir,
			WindSpeed:     p.WxWindSpeed,
			WindGust:      p.WxWindGust,
			Temperature:   p.WxTemperature,
			Rain1h:        p.WxRain1h,
			Rain24h:       p.WxRain24h,
			RainMidnight:  p.WxRainMidnight,
			Humidity:      p.WxHumidity,
			Pressure:      p.WxPressure,
		}
	}

	return dto
}

func (p *Packet) hasWeather() bool {
	return p.WxWindDir != nil || p.WxWindSpeed != nil || p.WxWindGust != nil ||
		p.WxTemperature != nil || p.WxRain1h != nil || p.WxRain24h != nil ||
		p.WxRainMidnight != nil || p.WxHumidity != nil || p.WxPressure != nil
}
