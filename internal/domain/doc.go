// Package domain encodes surface station observations into SYNOP reports.
//
// # Data Source
//
// Observers at a station fill in two cards for every synoptic hour: the
// meteorological card (thermometers, barometer, humidity, present and past
// weather) and the weather observation card (cloud, wind, rainfall). Cards reach
// the service over Kafka, MQTT or HTTP as the flat JSON produced by the entry
// forms, so every numeric field arrives as the text the observer typed.
//
// # Card Conventions
//
// Temperatures:
//
//	Dry-bulb and wet-bulb are read in tenths of a degree: "255" = 25.5 °C.
//	Dew point and the min/max thermometer are entered in degrees: "20.0".
//
// Pressure:
//
//	Station and sea-level pressure are hPa with one decimal: "1008.5".
//	The 24-hour change is signed hPa: "-1.2".
//
// Wind:
//
//	Direction in degrees (0–360), speed in knots.
//
// Missing values:
//
//	Empty, null or non-numeric fields count as zero. A single bad field never
//	aborts a report; see [FieldValue].
//
// # Observing Time
//
// Cards are paired by station number and observing time. The observing time is
// the UTC timestamp truncated to the 3-hour synoptic slot (00, 03, ... 21). The
// GG group carries that slot's hour. See [ObservingTime].
//
// # Report Layout
//
// A report is the fixed "SY" header (station, date, remark) followed by 21
// groups in the order listed by [Groups]. Groups 0–13 form the main section
// opened by C1 = "1"; groups 14–20 form the supplementary section opened by
// C2 = "2". Most groups are five characters wide. The pressure pair, the
// embedded 24-hour rainfall group and the significant cloud layers are wider
// composites kept as single measurements because the entry forms display them
// that way.
//
// Some groups deliberately follow the station network's established layout
// rather than FM-12: the min-temperature group uses a "10"/"20" sign prefix and
// the dew-point depression group carries no sign. Downstream consumers rely on
// these values.
//
// Each of the three significant cloud sub-groups of 8N5Ch5h5 keeps its own "8"
// indicator, so the measurement reads "8NCh/8NCh/8NCh" (three five-character
// sub-groups).
package domain
