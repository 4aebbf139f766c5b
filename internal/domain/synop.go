package domain

import (
	"errors"
	"fmt"
	"time"
)

// DataTypeSynop is the fixed data type of every report.
const DataTypeSynop = "SY"

// GroupSpec describes one measurement slot of a report.
type GroupSpec struct {
	Mnemonic string // WMO-style group name shown in the display table
	Column   string // flat storage column
	Width    int    // exact character width
}

// Groups lists the 21 measurements in report order.
var Groups = [...]GroupSpec{
	{Mnemonic: "C1", Column: "c1", Width: 1},
	{Mnemonic: "Iliii", Column: "iliii", Width: 5},
	{Mnemonic: "iRiXhvv", Column: "irixhvv", Width: 5},
	{Mnemonic: "Nddff", Column: "nddff", Width: 5},
	{Mnemonic: "1SnTTT", Column: "s1nttt", Width: 5},
	{Mnemonic: "2SnTdTdTd", Column: "s2ntdtdtd", Width: 5},
	{Mnemonic: "3PPPP/4PPPP", Column: "p3pppp4pppp", Width: 11},
	{Mnemonic: "6RRRtR", Column: "r6rrrtr", Width: 5},
	{Mnemonic: "7wwW1W2", Column: "w7www1w2", Width: 5},
	{Mnemonic: "8NhClCmCh", Column: "n8nhclcmch", Width: 5},
	{Mnemonic: "2SnTnTnTn/InInInIn", Column: "s2ntntntn", Width: 5},
	{Mnemonic: "8SwTbTbTb", Column: "s8swtbtbtb", Width: 5},
	{Mnemonic: "56DlDmDh", Column: "d56dldmdh", Width: 5},
	{Mnemonic: "57CDaEc", Column: "d57cdaec", Width: 5},
	{Mnemonic: "C2", Column: "c2", Width: 1},
	{Mnemonic: "GG", Column: "gg", Width: 2},
	{Mnemonic: "58/59P24P24P24", Column: "p5859p24", Width: 5},
	{Mnemonic: "(6RRRtR)/7R24R24R24", Column: "r6rrrtr7r24", Width: 12},
	{Mnemonic: "8N5Ch5h5", Column: "n8n5ch5h5", Width: 17},
	{Mnemonic: "90dqqqt", Column: "d90dqqqt", Width: 5},
	{Mnemonic: "91fqfqfq", Column: "f91fqfqfq", Width: 5},
}

// MeasurementCount is the number of groups in a report.
const MeasurementCount = len(Groups)

// SynopticReport is one station's encoded SYNOP for one observing time. It is
// rebuilt from the cards on every request and never updated in place.
type SynopticReport struct {
	DataType      string    `json:"dataType"`
	StationNumber string    `json:"stationNo"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Day           int       `json:"day"`
	WeatherRemark string    `json:"weatherRemark"`
	Measurements  []string  `json:"measurements"`
	ObservingTime time.Time `json:"observingTime"`
}

// Key identifies the report by station and observing time, e.g. "96749-2024042606".
func (r SynopticReport) Key() string {
	return r.StationNumber + "-" + r.ObservingTime.UTC().Format("2006010215")
}

// Group returns the measurement for a mnemonic, or "" if unknown.
func (r SynopticReport) Group(mnemonic string) string {
	for i, g := range Groups {
		if g.Mnemonic == mnemonic && i < len(r.Measurements) {
			return r.Measurements[i]
		}
	}
	return ""
}

// String renders the report on one line, groups separated by spaces.
func (r SynopticReport) String() string {
	s := fmt.Sprintf("%s %s %04d-%02d-%02d", r.DataType, r.StationNumber, r.Year, r.Month, r.Day)
	for _, m := range r.Measurements {
		s += " " + m
	}
	return s
}

// BuildSynopticReport encodes one station's pair of cards. Both readings are
// required; when either is nil it returns ErrObservationNotFound and no
// measurements. A zero observedAt falls back to the later reading timestamp.
func BuildSynopticReport(met *MeteorologicalReading, obs *WeatherObservation, stationNumber string, observedAt time.Time) (SynopticReport, error) {
	if met == nil || obs == nil {
		return SynopticReport{}, fmt.Errorf("station %s: %w", stationNumber, ErrObservationNotFound)
	}
	if observedAt.IsZero() {
		observedAt = LatestObservedAt(met, obs)
	}
	observedAt = observedAt.UTC()

	precipitation := groupPrecipitation(obs.Rainfall24h)

	measurements := []string{
		"1",
		groupStation(stationNumber),
		groupCloudBaseVisibility(obs.LowCloudHeight, met.HorizontalVisibility),
		groupWind(obs.TotalCloudAmount, obs.WindDirection, obs.WindSpeed),
		groupAirTemperature(met.DryBulbTemperature),
		groupDewPoint(met.DewPointTemperature),
		groupPressure(met.StationLevelPressure, met.SeaLevelPressure),
		precipitation,
		groupWeather(met.PresentWeather, met.PastWeather1, met.PastWeather2),
		groupCloudCover(obs.LowCloudAmount, obs.LowCloudForm, obs.MediumCloudForm, obs.HighCloudForm),
		groupMinTemperature(met.MinMaxTemperature),
		groupWetBulb(met.WetBulbTemperature),
		groupCloudDirection(obs.LowCloudDirection, obs.MediumCloudDirection, obs.HighCloudDirection),
		groupPressureCharacter(met.PressureChange24h),
		"2",
		ObservingHour(observedAt),
		groupPressureChange(met.PressureChange24h),
		groupPrecipitation24h(precipitation, obs.Rainfall24h),
		groupSignificantClouds(obs.CloudLayers),
		groupDewPointDepression(met.DryBulbTemperature, met.DewPointTemperature),
		groupHumidity(met.RelativeHumidity),
	}

	return SynopticReport{
		DataType:      DataTypeSynop,
		StationNumber: groupStation(stationNumber),
		Year:          observedAt.Year(),
		Month:         int(observedAt.Month()),
		Day:           observedAt.Day(),
		WeatherRemark: WeatherRemarkText(met.PresentWeather),
		Measurements:  measurements,
		ObservingTime: ObservingTime(observedAt),
	}, nil
}

// ValidateReport checks the header and the width of every measurement.
func ValidateReport(r SynopticReport) error {
	var errs []error
	if r.DataType != DataTypeSynop {
		errs = append(errs, fmt.Errorf("data type %q, want %q", r.DataType, DataTypeSynop))
	}
	if len(r.StationNumber) != 5 {
		errs = append(errs, fmt.Errorf("station number %q is not 5 digits", r.StationNumber))
	}
	if len(r.Measurements) != MeasurementCount {
		errs = append(errs, fmt.Errorf("%d measurements, want %d", len(r.Measurements), MeasurementCount))
		return errors.Join(errs...)
	}
	for i, g := range Groups {
		if got := len(r.Measurements[i]); got != g.Width {
			errs = append(errs, fmt.Errorf("group %s = %q: width %d, want %d", g.Mnemonic, r.Measurements[i], got, g.Width))
		}
	}
	return errors.Join(errs...)
}
