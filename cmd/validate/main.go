// Command validate checks a synoptic report file against the cards it was
// encoded from: every card parses, every report is well formed, and
// re-encoding each complete pair reproduces the stored report.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -cards internal/pipeline/testdata/cards.json \
//	  -reports data/fixtures/synop_reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/synop-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// receivedAt matches genfixture so fallback timestamps line up.
var receivedAt = time.Date(2024, time.April, 26, 9, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cardsPath := flag.String("cards", "", "path to a JSON array of observation card envelopes")
	reportsPath := flag.String("reports", "", "path to a JSON array of synoptic reports")
	flag.Parse()

	if *cardsPath == "" || *reportsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*cardsPath, *reportsPath))
}

func run(cardsPath, reportsPath string) int {
	domain.SetClock(clockwork.NewFakeClockAt(receivedAt))
	defer domain.SetClock(nil)

	fmt.Println("=== Synoptic Report Validation ===")
	fmt.Println()

	rawCards, err := loadJSON[json.RawMessage](cardsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cards: %v\n", err)
		return 1
	}
	reports, err := loadJSON[domain.SynopticReport](reportsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load reports: %v\n", err)
		return 1
	}

	cards, cardPhase := validateCards(rawCards)
	phases := []*phase{
		cardPhase,
		validateReports(reports),
		validateReencoding(cards, reports),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-36s %s\n", p.name, status)
	}
	fmt.Printf("\nRecords: %d cards, %d reports\n", len(rawCards), len(reports))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: every card envelope parses ──

func validateCards(raws []json.RawMessage) ([]domain.ObservationCard, *phase) {
	p := &phase{name: "Phase 1: Card parsing"}
	cards := make([]domain.ObservationCard, 0, len(raws))
	for i, raw := range raws {
		card, err := domain.ParseObservationCard(domain.RawEvent{Value: raw, Offset: int64(i), Timestamp: domain.Now()})
		if err != nil {
			p.errorf("card %d: %v", i, err)
			continue
		}
		cards = append(cards, card)
	}
	return cards, p
}

// ── Phase 2: every report is well formed ──

func validateReports(reports []domain.SynopticReport) *phase {
	p := &phase{name: "Phase 2: Report integrity"}
	seen := make(map[string]bool, len(reports))
	for i, r := range reports {
		if err := domain.ValidateReport(r); err != nil {
			p.errorf("report %d (%s): %v", i, r.Key(), err)
		}
		if seen[r.Key()] {
			p.errorf("report %d: duplicate key %s", i, r.Key())
		}
		seen[r.Key()] = true
		if g := r.Group("7wwW1W2"); len(g) == 5 {
			want := domain.WeatherRemarkText(domain.FieldValue(g[1:3]))
			if want != "" && r.WeatherRemark != "" && r.WeatherRemark != want {
				p.errorf("report %s: remark %q does not match ww %s", r.Key(), r.WeatherRemark, g[1:3])
			}
		}
	}
	return p
}

// ── Phase 3: re-encoding complete pairs reproduces the reports ──

func validateReencoding(cards []domain.ObservationCard, reports []domain.SynopticReport) *phase {
	p := &phase{name: "Phase 3: Re-encoding parity"}

	byKey := make(map[string]domain.SynopticReport, len(reports))
	for _, r := range reports {
		byKey[r.Key()] = r
	}

	expected := 0
	for _, pair := range domain.PairCards(cards) {
		if !pair.Complete() {
			continue
		}
		expected++
		want, err := domain.BuildSynopticReport(pair.Meteorological, pair.Weather, pair.StationNumber, time.Time{})
		if err != nil {
			p.errorf("encode %s at %s: %v", pair.StationNumber, pair.ObservingTime.Format(time.RFC3339), err)
			continue
		}
		got, ok := byKey[want.Key()]
		if !ok {
			p.errorf("missing report %s", want.Key())
			continue
		}
		if !slices.Equal(got.Measurements, want.Measurements) {
			for i, g := range domain.Groups {
				if i < len(got.Measurements) && got.Measurements[i] != want.Measurements[i] {
					p.errorf("report %s group %s: got %q, want %q", want.Key(), g.Mnemonic, got.Measurements[i], want.Measurements[i])
				}
			}
			if len(got.Measurements) != len(want.Measurements) {
				p.errorf("report %s: %d groups, want %d", want.Key(), len(got.Measurements), len(want.Measurements))
			}
		}
		if got.WeatherRemark != want.WeatherRemark {
			p.errorf("report %s remark: got %q, want %q", want.Key(), got.WeatherRemark, want.WeatherRemark)
		}
	}
	if expected != len(reports) {
		p.errorf("%d complete pairs, %d reports", expected, len(reports))
	}
	return p
}
