package domain

// WeatherRemark is the display form of a present-weather (ww) code.
type WeatherRemark struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
}

// LookupWeatherRemark returns the remark for a present-weather code. The code
// is normalized to two digits, so "1" and "01" are the same entry; an empty
// code reads as "00", like the 7wwW1W2 group.
func LookupWeatherRemark(code FieldValue) (WeatherRemark, bool) {
	n := round(code.Float())
	if n < 0 || n > 99 {
		return WeatherRemark{}, false
	}
	r, ok := weatherRemarks[pad(n, 2)]
	return r, ok
}

// WeatherRemarkText formats the remark as "<symbol> <description>", or "" for
// codes outside the table.
func WeatherRemarkText(code FieldValue) string {
	r, ok := LookupWeatherRemark(code)
	if !ok {
		return ""
	}
	return r.Symbol + " " + r.Description
}

// weatherRemarks is WMO code table 4677 with METAR-style symbols.
var weatherRemarks = map[string]WeatherRemark{
	"00": {"CLR", "Cloud development not observed or not observable"},
	"01": {"CLR", "Clouds generally dissolving or becoming less developed"},
	"02": {"CLR", "State of sky on the whole unchanged"},
	"03": {"CU", "Clouds generally forming or developing"},
	"04": {"FU", "Visibility reduced by smoke"},
	"05": {"HZ", "Haze"},
	"06": {"DU", "Widespread dust in suspension in the air, not raised by wind"},
	"07": {"BLDU", "Dust or sand raised by wind at or near the station"},
	"08": {"PO", "Well developed dust or sand whirls"},
	"09": {"VCSS", "Duststorm or sandstorm within sight or at the station during the preceding hour"},
	"10": {"BR", "Mist"},
	"11": {"MIFG", "Patches of shallow fog"},
	"12": {"MIFG", "More or less continuous shallow fog"},
	"13": {"LTG", "Lightning visible, no thunder heard"},
	"14": {"VCSH", "Precipitation within sight, not reaching the ground"},
	"15": {"VCSH", "Precipitation within sight, reaching the ground, distant from the station"},
	"16": {"VCSH", "Precipitation within sight, reaching the ground, near but not at the station"},
	"17": {"TS", "Thunderstorm, but no precipitation at the time of observation"},
	"18": {"SQ", "Squalls"},
	"19": {"FC", "Funnel cloud(s)"},
	"20": {"REDZ", "Drizzle or snow grains during the preceding hour"},
	"21": {"RERA", "Rain during the preceding hour"},
	"22": {"RESN", "Snow during the preceding hour"},
	"23": {"RERASN", "Rain and snow or ice pellets during the preceding hour"},
	"24": {"REFZRA", "Freezing drizzle or freezing rain during the preceding hour"},
	"25": {"RESHRA", "Shower(s) of rain during the preceding hour"},
	"26": {"RESHSN", "Shower(s) of snow, or of rain and snow, during the preceding hour"},
	"27": {"RESHGR", "Shower(s) of hail, or of rain and hail, during the preceding hour"},
	"28": {"REFG", "Fog or ice fog during the preceding hour"},
	"29": {"RETS", "Thunderstorm during the preceding hour"},
	"30": {"SS", "Slight or moderate duststorm or sandstorm, decreased during the preceding hour"},
	"31": {"SS", "Slight or moderate duststorm or sandstorm, no appreciable change"},
	"32": {"SS", "Slight or moderate duststorm or sandstorm, begun or increased"},
	"33": {"+SS", "Severe duststorm or sandstorm, decreased during the preceding hour"},
	"34": {"+SS", "Severe duststorm or sandstorm, no appreciable change"},
	"35": {"+SS", "Severe duststorm or sandstorm, begun or increased"},
	"36": {"DRSN", "Slight or moderate drifting snow, generally low"},
	"37": {"+DRSN", "Heavy drifting snow, generally low"},
	"38": {"BLSN", "Slight or moderate blowing snow, generally high"},
	"39": {"+BLSN", "Heavy blowing snow, generally high"},
	"40": {"VCFG", "Fog or ice fog at a distance"},
	"41": {"BCFG", "Fog or ice fog in patches"},
	"42": {"FG", "Fog, sky visible, has become thinner during the preceding hour"},
	"43": {"FG", "Fog, sky invisible, has become thinner during the preceding hour"},
	"44": {"FG", "Fog, sky visible, no appreciable change"},
	"45": {"FG", "Fog, sky invisible, no appreciable change"},
	"46": {"FG", "Fog, sky visible, has begun or become thicker"},
	"47": {"FG", "Fog, sky invisible, has begun or become thicker"},
	"48": {"FZFG", "Fog depositing rime, sky visible"},
	"49": {"FZFG", "Fog depositing rime, sky invisible"},
	"50": {"-DZ", "Drizzle, intermittent, slight"},
	"51": {"-DZ", "Drizzle, continuous, slight"},
	"52": {"DZ", "Drizzle, intermittent, moderate"},
	"53": {"DZ", "Drizzle, continuous, moderate"},
	"54": {"+DZ", "Drizzle, intermittent, heavy"},
	"55": {"+DZ", "Drizzle, continuous, heavy"},
	"56": {"-FZDZ", "Freezing drizzle, slight"},
	"57": {"FZDZ", "Freezing drizzle, moderate or heavy"},
	"58": {"-DZRA", "Drizzle and rain, slight"},
	"59": {"DZRA", "Drizzle and rain, moderate or heavy"},
	"60": {"-RA", "Rain, intermittent, slight"},
	"61": {"-RA", "Rain, continuous, slight"},
	"62": {"RA", "Rain, intermittent, moderate"},
	"63": {"RA", "Rain, continuous, moderate"},
	"64": {"+RA", "Rain, intermittent, heavy"},
	"65": {"+RA", "Rain, continuous, heavy"},
	"66": {"-FZRA", "Freezing rain, slight"},
	"67": {"FZRA", "Freezing rain, moderate or heavy"},
	"68": {"-RASN", "Rain or drizzle and snow, slight"},
	"69": {"RASN", "Rain or drizzle and snow, moderate or heavy"},
	"70": {"-SN", "Snowfall, intermittent, slight"},
	"71": {"-SN", "Snowfall, continuous, slight"},
	"72": {"SN", "Snowfall, intermittent, moderate"},
	"73": {"SN", "Snowfall, continuous, moderate"},
	"74": {"+SN", "Snowfall, intermittent, heavy"},
	"75": {"+SN", "Snowfall, continuous, heavy"},
	"76": {"IC", "Diamond dust"},
	"77": {"SG", "Snow grains"},
	"78": {"SN", "Isolated star-like snow crystals"},
	"79": {"PL", "Ice pellets"},
	"80": {"-SHRA", "Rain shower(s), slight"},
	"81": {"SHRA", "Rain shower(s), moderate or heavy"},
	"82": {"+SHRA", "Rain shower(s), violent"},
	"83": {"-SHRASN", "Shower(s) of rain and snow mixed, slight"},
	"84": {"SHRASN", "Shower(s) of rain and snow mixed, moderate or heavy"},
	"85": {"-SHSN", "Snow shower(s), slight"},
	"86": {"SHSN", "Snow shower(s), moderate or heavy"},
	"87": {"-SHGS", "Shower(s) of snow pellets or small hail, slight"},
	"88": {"SHGS", "Shower(s) of snow pellets or small hail, moderate or heavy"},
	"89": {"-SHGR", "Shower(s) of hail without thunder, slight"},
	"90": {"SHGR", "Shower(s) of hail without thunder, moderate or heavy"},
	"91": {"-RA", "Slight rain, thunderstorm during the preceding hour"},
	"92": {"RA", "Moderate or heavy rain, thunderstorm during the preceding hour"},
	"93": {"-SN", "Slight snow, rain and snow mixed, or hail, thunderstorm during the preceding hour"},
	"94": {"SN", "Moderate or heavy snow, rain and snow mixed, or hail, thunderstorm during the preceding hour"},
	"95": {"TSRA", "Thunderstorm, slight or moderate, with rain and/or snow"},
	"96": {"TSGR", "Thunderstorm, slight or moderate, with hail"},
	"97": {"+TSRA", "Thunderstorm, heavy, with rain and/or snow"},
	"98": {"TSSA", "Thunderstorm with duststorm or sandstorm"},
	"99": {"+TSGR", "Thunderstorm, heavy, with hail"},
}
