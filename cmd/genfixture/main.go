// Command genfixture reads a JSON array of observation card envelopes and
// writes the synoptic reports they encode. It runs the same domain encoder as
// the service, so fixtures always match real pipeline output.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -cards internal/pipeline/testdata/cards.json \
//	  -out data/fixtures/synop_reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// receivedAt stands in for the transport timestamp of cards without observed_at.
var receivedAt = time.Date(2024, time.April, 26, 9, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cardsPath := flag.String("cards", "", "path to a JSON array of observation card envelopes")
	out := flag.String("out", "", "output path for the encoded reports")
	flag.Parse()

	if *cardsPath == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("-cards and -out are required")
	}

	domain.SetClock(clockwork.NewFakeClockAt(receivedAt))
	defer domain.SetClock(nil)

	cards, err := loadCards(*cardsPath)
	if err != nil {
		return err
	}

	var reports []domain.SynopticReport
	skipped := 0
	for _, pair := range domain.PairCards(cards) {
		if !pair.Complete() {
			skipped++
			continue
		}
		report, err := domain.BuildSynopticReport(pair.Meteorological, pair.Weather, pair.StationNumber, time.Time{})
		if err != nil {
			return fmt.Errorf("encode %s at %s: %w", pair.StationNumber, pair.ObservingTime.Format(time.RFC3339), err)
		}
		if err := domain.ValidateReport(report); err != nil {
			return fmt.Errorf("report %s: %w", report.Key(), err)
		}
		reports = append(reports, report)
	}

	if err := writeJSON(*out, reports); err != nil {
		return err
	}
	fmt.Printf("wrote %d reports to %s (%d incomplete pairs skipped)\n", len(reports), *out, skipped)
	return nil
}

// loadCards parses every envelope in the file. Any invalid card aborts the run.
func loadCards(path string) ([]domain.ObservationCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cards := make([]domain.ObservationCard, 0, len(raws))
	for i, raw := range raws {
		card, err := domain.ParseObservationCard(domain.RawEvent{Value: raw, Offset: int64(i), Timestamp: domain.Now()})
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
