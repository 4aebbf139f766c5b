package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/synop-etl/internal/domain"
)

const upsertStationSQL = `
INSERT INTO stations (station_number, first_seen_at, last_seen_at)
VALUES (?, ?, ?)
ON CONFLICT (station_number) DO UPDATE SET
  first_seen_at = min(stations.first_seen_at, excluded.first_seen_at),
  last_seen_at  = max(stations.last_seen_at, excluded.last_seen_at)`

// upsertCardSQL keeps the card with the latest observed_at in each slot.
const upsertCardSQL = `
INSERT INTO %s (station_number, observing_time, observed_at, received_at, body)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (station_number, observing_time) DO UPDATE SET
  observed_at = excluded.observed_at,
  received_at = excluded.received_at,
  body        = excluded.body
WHERE excluded.observed_at >= %s.observed_at`

const selectCardSQL = `SELECT body FROM %s WHERE station_number = ? AND observing_time = ?`

const selectStationSQL = `
SELECT station_number, first_seen_at, last_seen_at FROM stations WHERE station_number = ?`

const selectStationsWithCardsSQL = `
SELECT station_number FROM meteorological_readings WHERE observing_time = ?
UNION
SELECT station_number FROM weather_observations WHERE observing_time = ?
ORDER BY station_number`

var (
	reportHeaderColumns = []string{
		"station_number", "observing_time", "data_type", "year", "month", "day", "weather_remark", "generated_at",
	}
	upsertReportSQL = buildUpsertReportSQL()
	selectReportSQL = "SELECT " + strings.Join(reportColumns(), ", ") +
		" FROM synop_reports WHERE station_number = ? AND observing_time = ?"
)

func reportColumns() []string {
	cols := append([]string(nil), reportHeaderColumns...)
	for _, g := range domain.Groups {
		cols = append(cols, g.Column)
	}
	return cols
}

func buildUpsertReportSQL() string {
	cols := reportColumns()
	updates := make([]string, 0, len(cols))
	for _, c := range cols[2:] {
		updates = append(updates, c+" = excluded."+c)
	}
	return "INSERT INTO synop_reports (" + strings.Join(cols, ", ") + ")" +
		" VALUES (" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")" +
		" ON CONFLICT (station_number, observing_time) DO UPDATE SET " + strings.Join(updates, ", ")
}

// Store holds observation cards and encoded reports.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// SaveCard records the station and upserts the card into its observing-time slot.
func (s *Store) SaveCard(ctx context.Context, card domain.ObservationCard) error {
	var (
		table string
		body  any
	)
	switch card.Kind {
	case domain.CardMeteorological:
		table, body = "meteorological_readings", card.Meteorological
	case domain.CardWeather:
		table, body = "weather_observations", card.Weather
	default:
		return fmt.Errorf("save card: %w: unknown kind %q", domain.ErrInvalidCard, card.Kind)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("save card: marshal body: %w", err)
	}

	observedAt := formatTime(card.ObservedAt)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save card: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, upsertStationSQL, card.StationNumber, observedAt, observedAt); err != nil {
		return fmt.Errorf("save card: upsert station %s: %w", card.StationNumber, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(upsertCardSQL, table, table),
		card.StationNumber,
		formatTime(card.ObservingTime()),
		observedAt,
		formatTime(domain.Now()),
		string(data),
	); err != nil {
		return fmt.Errorf("save card: upsert %s: %w", table, err)
	}
	return tx.Commit()
}

// LatestReadings returns the two cards stored for the station and observing
// time. A card that has not arrived is returned as nil.
func (s *Store) LatestReadings(ctx context.Context, station string, observingTime time.Time) (*domain.MeteorologicalReading, *domain.WeatherObservation, error) {
	var met domain.MeteorologicalReading
	foundMet, err := s.loadCard(ctx, "meteorological_readings", station, observingTime, &met)
	if err != nil {
		return nil, nil, err
	}

	var obs domain.WeatherObservation
	foundObs, err := s.loadCard(ctx, "weather_observations", station, observingTime, &obs)
	if err != nil {
		return nil, nil, err
	}

	var metPtr *domain.MeteorologicalReading
	if foundMet {
		metPtr = &met
	}
	var obsPtr *domain.WeatherObservation
	if foundObs {
		obsPtr = &obs
	}
	return metPtr, obsPtr, nil
}

func (s *Store) loadCard(ctx context.Context, table, station string, observingTime time.Time, dst any) (bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(selectCardSQL, table), station, formatTime(observingTime)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s for station %s: %w", table, station, err)
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return false, fmt.Errorf("decode %s for station %s: %w", table, station, err)
	}
	return true, nil
}

// LookupStation returns domain.ErrStationNotFound for stations that never sent a card.
func (s *Store) LookupStation(ctx context.Context, station string) (domain.Station, error) {
	var st domain.Station
	var first, last string
	err := s.db.QueryRowContext(ctx, selectStationSQL, station).Scan(&st.Number, &first, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Station{}, fmt.Errorf("station %s: %w", station, domain.ErrStationNotFound)
	}
	if err != nil {
		return domain.Station{}, fmt.Errorf("lookup station %s: %w", station, err)
	}
	if st.FirstSeenAt, err = parseTime(first); err != nil {
		return domain.Station{}, err
	}
	if st.LastSeenAt, err = parseTime(last); err != nil {
		return domain.Station{}, err
	}
	return st, nil
}

// StationsWithCards lists stations holding at least one card for the observing time.
func (s *Store) StationsWithCards(ctx context.Context, observingTime time.Time) ([]string, error) {
	ot := formatTime(observingTime)
	rows, err := s.db.QueryContext(ctx, selectStationsWithCardsSQL, ot, ot)
	if err != nil {
		return nil, fmt.Errorf("stations with cards: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("close stations rows", "error", err)
		}
	}()

	var out []string
	for rows.Next() {
		var station string
		if err := rows.Scan(&station); err != nil {
			return nil, err
		}
		out = append(out, station)
	}
	return out, rows.Err()
}

// LoadBatch upserts the reports as flat rows, one column per group, in a
// single transaction.
func (s *Store) LoadBatch(ctx context.Context, reports []domain.SynopticReport) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save reports: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertReportSQL)
	if err != nil {
		return fmt.Errorf("save reports: prepare: %w", err)
	}
	defer stmt.Close()

	generatedAt := formatTime(domain.Now())
	for _, r := range reports {
		if len(r.Measurements) != domain.MeasurementCount {
			return fmt.Errorf("save report %s: %d measurements, want %d", r.Key(), len(r.Measurements), domain.MeasurementCount)
		}
		args := []any{
			r.StationNumber, formatTime(r.ObservingTime), r.DataType, r.Year, r.Month, r.Day, r.WeatherRemark, generatedAt,
		}
		for _, m := range r.Measurements {
			args = append(args, m)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("save report %s: %w", r.Key(), err)
		}
	}
	return tx.Commit()
}

// Report returns the stored report, or domain.ErrObservationNotFound.
func (s *Store) Report(ctx context.Context, station string, observingTime time.Time) (domain.SynopticReport, error) {
	var (
		r           domain.SynopticReport
		ot          string
		generatedAt string
	)
	r.Measurements = make([]string, domain.MeasurementCount)
	dest := []any{&r.StationNumber, &ot, &r.DataType, &r.Year, &r.Month, &r.Day, &r.WeatherRemark, &generatedAt}
	for i := range r.Measurements {
		dest = append(dest, &r.Measurements[i])
	}

	err := s.db.QueryRowContext(ctx, selectReportSQL, station, formatTime(observingTime)).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SynopticReport{}, fmt.Errorf("report %s: %w", station, domain.ErrObservationNotFound)
	}
	if err != nil {
		return domain.SynopticReport{}, fmt.Errorf("load report %s: %w", station, err)
	}
	if r.ObservingTime, err = parseTime(ot); err != nil {
		return domain.SynopticReport{}, err
	}
	return r, nil
}
