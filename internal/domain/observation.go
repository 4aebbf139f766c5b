package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// FieldValue is a card field exactly as the observer entered it. Forms and
// station firmware send the same field as a JSON string, a JSON number or null,
// so all three decode into the textual form.
type FieldValue string

// UnmarshalJSON accepts strings, numbers and null.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FieldValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = FieldValue(n.String())
	return nil
}

// String returns the trimmed text.
func (v FieldValue) String() string {
	return strings.TrimSpace(string(v))
}

// Float parses the value, returning 0 for empty or non-numeric input.
func (v FieldValue) Float() float64 {
	s := v.String()
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Code returns the value as a pass-through code digit, "0" when empty.
func (v FieldValue) Code() string {
	if s := v.String(); s != "" {
		return s
	}
	return "0"
}

// MeteorologicalReading is the first card: instrument readings and weather codes.
type MeteorologicalReading struct {
	StationNumber        string     `json:"station_number"`
	HorizontalVisibility FieldValue `json:"horizontal_visibility"`
	DryBulbTemperature   FieldValue `json:"dry_bulb_temperature"`  // tenths of °C as read
	WetBulbTemperature   FieldValue `json:"wet_bulb_temperature"`  // tenths of °C as read
	MinMaxTemperature    FieldValue `json:"min_max_temperature"`   // °C
	DewPointTemperature  FieldValue `json:"dew_point_temperature"` // °C
	RelativeHumidity     FieldValue `json:"relative_humidity"`
	StationLevelPressure FieldValue `json:"station_level_pressure"` // hPa
	SeaLevelPressure     FieldValue `json:"sea_level_pressure"`     // hPa
	PressureChange24h    FieldValue `json:"pressure_change_24h"`    // signed hPa
	PresentWeather       FieldValue `json:"present_weather"`
	PastWeather1         FieldValue `json:"past_weather_1"`
	PastWeather2         FieldValue `json:"past_weather_2"`
	ObservedAt           time.Time  `json:"observed_at"`
}

// CloudLayer is one significant cloud layer.
type CloudLayer struct {
	Form   FieldValue `json:"form"`
	Amount FieldValue `json:"amount"`
	Height FieldValue `json:"height"`
}

// WeatherObservation is the second card: cloud, wind and rainfall.
type WeatherObservation struct {
	StationNumber        string        `json:"station_number"`
	TotalCloudAmount     FieldValue    `json:"total_cloud_amount"`
	WindDirection        FieldValue    `json:"wind_direction"` // degrees
	WindSpeed            FieldValue    `json:"wind_speed"`     // knots
	LowCloudAmount       FieldValue    `json:"low_cloud_amount"`
	LowCloudForm         FieldValue    `json:"low_cloud_form"`
	LowCloudHeight       FieldValue    `json:"low_cloud_height"`
	LowCloudDirection    FieldValue    `json:"low_cloud_direction"`
	MediumCloudForm      FieldValue    `json:"medium_cloud_form"`
	MediumCloudDirection FieldValue    `json:"medium_cloud_direction"`
	HighCloudForm        FieldValue    `json:"high_cloud_form"`
	HighCloudDirection   FieldValue    `json:"high_cloud_direction"`
	CloudLayers          [3]CloudLayer `json:"significant_cloud_layers"`
	Rainfall24h          FieldValue    `json:"rainfall_24h"` // mm
	ObserverInitial      string        `json:"observer_initial"`
	ObservedAt           time.Time     `json:"observed_at"`
}

// ObservingTime truncates t to the start of its 3-hour synoptic slot in UTC.
func ObservingTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC().Truncate(3 * time.Hour)
}

// ObservingHour formats the GG group for t: the slot's hour, two digits.
func ObservingHour(t time.Time) string {
	return pad(ObservingTime(t).Hour(), 2)
}

// LatestObservedAt returns the later of the two readings' timestamps.
// Nil readings are ignored.
func LatestObservedAt(met *MeteorologicalReading, obs *WeatherObservation) time.Time {
	var t time.Time
	if met != nil {
		t = met.ObservedAt
	}
	if obs != nil && obs.ObservedAt.After(t) {
		t = obs.ObservedAt
	}
	return t
}
