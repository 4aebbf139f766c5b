package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// CardKind names which of the two observation cards a message carries.
type CardKind string

const (
	CardMeteorological CardKind = "meteorological"
	CardWeather        CardKind = "weather"
)

// ObservationCard is the ingestion envelope shared by every transport. Exactly
// one of Meteorological or Weather is set, matching Kind.
type ObservationCard struct {
	Kind           CardKind               `json:"kind"`
	StationNumber  string                 `json:"station_number"`
	ObservedAt     time.Time              `json:"observed_at"`
	Meteorological *MeteorologicalReading `json:"meteorological,omitempty"`
	Weather        *WeatherObservation    `json:"weather,omitempty"`
}

// ObservingTime returns the synoptic slot the card belongs to.
func (c ObservationCard) ObservingTime() time.Time {
	return ObservingTime(c.ObservedAt)
}

// cardEnvelope accepts a station number sent as a JSON number.
type cardEnvelope struct {
	Kind           CardKind               `json:"kind"`
	StationNumber  FieldValue             `json:"station_number"`
	ObservedAt     time.Time              `json:"observed_at"`
	Meteorological *MeteorologicalReading `json:"meteorological"`
	Weather        *WeatherObservation    `json:"weather"`
}

// ParseObservationCard decodes and validates a card. The station number is
// normalized to five digits and copied into the body. When the envelope has
// no observed_at, the body's timestamp is used, then the transport timestamp.
func ParseObservationCard(raw RawEvent) (ObservationCard, error) {
	var env cardEnvelope
	if err := json.Unmarshal(raw.Value, &env); err != nil {
		return ObservationCard{}, fmt.Errorf("%w: %w", ErrInvalidCard, err)
	}

	station, err := NormalizeStationNumber(env.StationNumber.String())
	if err != nil {
		return ObservationCard{}, fmt.Errorf("%w: %w", ErrInvalidCard, err)
	}

	card := ObservationCard{
		Kind:          env.Kind,
		StationNumber: station,
		ObservedAt:    env.ObservedAt,
	}

	var bodyObservedAt time.Time
	switch env.Kind {
	case CardMeteorological:
		if env.Meteorological == nil {
			return ObservationCard{}, fmt.Errorf("%w: kind %q without meteorological body", ErrInvalidCard, env.Kind)
		}
		card.Meteorological = env.Meteorological
		bodyObservedAt = env.Meteorological.ObservedAt
	case CardWeather:
		if env.Weather == nil {
			return ObservationCard{}, fmt.Errorf("%w: kind %q without weather body", ErrInvalidCard, env.Kind)
		}
		card.Weather = env.Weather
		bodyObservedAt = env.Weather.ObservedAt
	default:
		return ObservationCard{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidCard, env.Kind)
	}

	if card.ObservedAt.IsZero() {
		card.ObservedAt = bodyObservedAt
	}
	if card.ObservedAt.IsZero() {
		card.ObservedAt = raw.Timestamp
	}
	if card.ObservedAt.IsZero() {
		return ObservationCard{}, fmt.Errorf("%w: missing observed_at", ErrInvalidCard)
	}
	card.ObservedAt = card.ObservedAt.UTC()

	if card.Meteorological != nil {
		card.Meteorological.StationNumber = station
		card.Meteorological.ObservedAt = card.ObservedAt
	}
	if card.Weather != nil {
		card.Weather.StationNumber = station
		card.Weather.ObservedAt = card.ObservedAt
	}
	return card, nil
}

// NormalizeStationNumber left-pads a 1–5 digit station number to five digits.
func NormalizeStationNumber(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 5 {
		return "", fmt.Errorf("%w: %q", ErrInvalidStation, s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidStation, s)
		}
	}
	return strings.Repeat("0", 5-len(s)) + s, nil
}

// CardPair groups the cards of one station and observing time.
type CardPair struct {
	StationNumber  string
	ObservingTime  time.Time
	Meteorological *MeteorologicalReading
	Weather        *WeatherObservation
}

// Complete reports whether both cards are present.
func (p CardPair) Complete() bool {
	return p.Meteorological != nil && p.Weather != nil
}

// PairCards groups cards by station and observing time, keeping the latest
// card of each kind. Pairs are ordered by station, then observing time.
func PairCards(cards []ObservationCard) []CardPair {
	type slotKey struct {
		station string
		ot      time.Time
	}
	index := make(map[slotKey]int)
	var pairs []CardPair

	for _, c := range cards {
		k := slotKey{c.StationNumber, c.ObservingTime()}
		i, ok := index[k]
		if !ok {
			i = len(pairs)
			index[k] = i
			pairs = append(pairs, CardPair{StationNumber: k.station, ObservingTime: k.ot})
		}
		p := &pairs[i]
		switch {
		case c.Meteorological != nil:
			if p.Meteorological == nil || !c.ObservedAt.Before(p.Meteorological.ObservedAt) {
				p.Meteorological = c.Meteorological
			}
		case c.Weather != nil:
			if p.Weather == nil || !c.ObservedAt.Before(p.Weather.ObservedAt) {
				p.Weather = c.Weather
			}
		}
	}

	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].StationNumber != pairs[b].StationNumber {
			return pairs[a].StationNumber < pairs[b].StationNumber
		}
		return pairs[a].ObservingTime.Before(pairs[b].ObservingTime)
	})
	return pairs
}
