package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrObservationNotFound means one of the two cards for a station's
	// observing time is missing, so no report can be produced.
	ErrObservationNotFound = errors.New("data not found")

	// ErrStationNotFound means the station number has never reported.
	ErrStationNotFound = errors.New("station not found")

	// ErrInvalidCard wraps every card parsing and validation failure.
	ErrInvalidCard = errors.New("invalid observation card")

	// ErrInvalidStation is returned for station numbers that are not 1–5 digits.
	ErrInvalidStation = errors.New("invalid station number")
)

// RawEvent represents an unprocessed message from any transport.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Station is a reporting station known to the card store.
type Station struct {
	Number      string    `json:"station_number"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}
