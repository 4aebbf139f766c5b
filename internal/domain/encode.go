package domain

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// pad zero-left-pads the magnitude of n to exactly width digits. The sign is
// dropped and, when n has more digits than width, the rightmost digits are kept.
func pad(n, width int) string {
	if n < 0 {
		n = -n
	}
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s[len(s)-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}

// padValue rounds a card field to an integer and pads it.
func padValue(v FieldValue, width int) string {
	return pad(round(v.Float()), width)
}

// round rounds half away from zero.
func round(f float64) int {
	return int(math.Round(f))
}

// tenths converts degrees to whole tenths of a degree, unsigned.
func tenths(f float64) int {
	return round(math.Abs(f * 10))
}

// signedTempCode encodes a temperature in degrees as sign digit ("0" for
// t >= 0, "1" below zero) followed by three digits of tenths of a degree.
// Readings taken in tenths must be divided by ten before calling.
func signedTempCode(t float64) string {
	sign := "0"
	if t < 0 {
		sign = "1"
	}
	return sign + pad(tenths(t), 3)
}

// pressureDigits drops the decimal point from a pressure reading and keeps one
// decimal digit, e.g. "1008.5" -> "0085", "995.0" -> "9950". The string is cut,
// never rounded.
func pressureDigits(v FieldValue) string {
	s := v.String()
	if !isDecimal(s) {
		s = "0"
	}
	whole, frac, _ := strings.Cut(s, ".")
	whole = strings.TrimLeft(whole, "+-")
	decimal := "0"
	if frac != "" {
		decimal = frac[:1]
	}
	digits := whole + decimal
	if len(digits) > 4 {
		return digits[len(digits)-4:]
	}
	return strings.Repeat("0", 4-len(digits)) + digits
}

// isDecimal reports whether s is a plain decimal number: an optional sign,
// digits, and an optional fraction. Exponents, hex floats, NaN and Inf are not.
func isDecimal(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "+"), "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return false
	}
	return allDigits(whole) && allDigits(frac)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// firstDigit returns the leading digit of v, or 0.
func firstDigit(v FieldValue) int {
	s := v.String()
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0
	}
	return int(s[0] - '0')
}

func groupStation(stationNumber string) string {
	return padValue(FieldValue(stationNumber), 5)
}

// groupCloudBaseVisibility builds iRiXhvv: fixed "32", low cloud height as
// entered, visibility class.
func groupCloudBaseVisibility(lowCloudHeight, visibility FieldValue) string {
	return "32" + lowCloudHeight.Code() + pad(firstDigit(visibility)*10, 2)
}

// windDirectionCode maps degrees to tens of degrees. Calm is 00, and so is
// any direction below 5 degrees; 355 and above is 36.
func windDirectionCode(degrees float64, speed int) int {
	if speed == 0 {
		return 0
	}
	if degrees >= 355 {
		return 36
	}
	code := int(math.Floor((degrees + 5) / 10))
	if code < 0 {
		return 0
	}
	return code
}

// maxWindSpeed is the highest speed the two ff digits can carry with the
// +50 direction overflow.
const maxWindSpeed = 199

// groupWind builds Nddff. Speeds of 100 kt or more add 50 to the direction
// code and report the speed less 100. Speeds above 199 kt are clamped to 199.
func groupWind(totalCloud, direction, speed FieldValue) string {
	ff := min(max(round(speed.Float()), 0), maxWindSpeed)
	dd := windDirectionCode(direction.Float(), ff)
	if ff >= 100 {
		dd += 50
		ff -= 100
	}
	return padValue(totalCloud, 1) + pad(dd, 2) + pad(ff, 2)
}

func groupAirTemperature(dryBulbAsRead FieldValue) string {
	return "1" + signedTempCode(dryBulbAsRead.Float()/10)
}

func groupDewPoint(dewPoint FieldValue) string {
	return "2" + signedTempCode(dewPoint.Float())
}

func groupPressure(stationLevel, seaLevel FieldValue) string {
	return "3" + pressureDigits(stationLevel) + "/4" + pressureDigits(seaLevel)
}

func groupPrecipitation(rainfall FieldValue) string {
	return "6" + padValue(rainfall, 4)
}

func groupWeather(present, past1, past2 FieldValue) string {
	return "7" + padValue(present, 2) + padValue(past1, 1) + padValue(past2, 1)
}

func groupCloudCover(lowAmount, lowForm, mediumForm, highForm FieldValue) string {
	return "8" + lowAmount.Code() + lowForm.Code() + mediumForm.Code() + highForm.Code()
}

// groupMinTemperature uses the station network's "10"/"20" sign prefix in
// place of the FM-12 sign digit.
func groupMinTemperature(minTemperature FieldValue) string {
	t := minTemperature.Float()
	prefix := "10"
	if t < 0 {
		prefix = "20"
	}
	return prefix + pad(tenths(t), 3)
}

func groupWetBulb(wetBulbAsRead FieldValue) string {
	return "8" + signedTempCode(wetBulbAsRead.Float()/10)
}

func groupCloudDirection(low, medium, high FieldValue) string {
	return "56" + low.Code() + medium.Code() + high.Code()
}

// groupPressureCharacter builds 57CDaEc from the first character of the
// 24-hour change as entered. A Unicode minus becomes "-"; any other non-ASCII
// character becomes "0".
func groupPressureCharacter(change FieldValue) string {
	r, _ := utf8.DecodeRuneInString(change.Code())
	switch {
	case r == '\u2212':
		r = '-'
	case r >= utf8.RuneSelf:
		r = '0'
	}
	return "57" + string(r) + "00"
}

func groupPressureChange(change FieldValue) string {
	c := change.Float()
	indicator := "58"
	if c < 0 {
		indicator = "59"
	}
	return indicator + pad(tenths(c), 3)
}

// groupPrecipitation24h embeds the already formatted 6RRRtR group.
func groupPrecipitation24h(precipitation string, rainfall FieldValue) string {
	return "(" + precipitation + ")/7" + padValue(rainfall, 3)
}

func groupSignificantClouds(layers [3]CloudLayer) string {
	parts := make([]string, len(layers))
	for i, l := range layers {
		parts[i] = "8" + padValue(l.Amount, 1) + padValue(l.Form, 1) + pad(tenths(l.Height.Float()), 2)
	}
	return strings.Join(parts, "/")
}

// groupDewPointDepression carries no sign; a dew point above the dry bulb
// encodes as zero depression.
func groupDewPointDepression(dryBulbAsRead, dewPoint FieldValue) string {
	depression := round((dryBulbAsRead.Float()/10 - dewPoint.Float()) * 10)
	if depression < 0 {
		depression = 0
	}
	return "90" + pad(depression, 3)
}

func groupHumidity(relativeHumidity FieldValue) string {
	return "91" + padValue(relativeHumidity, 3)
}
