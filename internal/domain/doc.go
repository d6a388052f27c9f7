// Package domain models Great Lakes chlorophyll and buoy telemetry data.
//
// # Data Sources
//
// Chlorophyll concentrations come from the NOAA GLERL ERDDAP griddap server,
// which publishes VIIRS monthly-average chlorophyll grids per lake at
// https://apps.glerl.noaa.gov/erddap/griddap/. Each lake has its own dataset,
// named by a two-letter lake code: LS (Superior), LM (Michigan), LH (Huron),
// LE (Erie), LO (Ontario).
//
// Buoy telemetry comes from the NDBC realtime2 text feeds at
// https://www.ndbc.noaa.gov/data/realtime2/<station>.txt.
//
// # ERDDAP Griddap CSV Conventions
//
// A monthly-average query is pinned to the 15th of the month at 12:00 UTC:
//
//	Chlorophyll[(2020-05-15T12:00:00Z):1:(2020-05-15T12:00:00Z)]
//	           [(41.26):1:(43.01)][(-83.65):1:(-78.44)]
//
// The response is CSV with a header row, a units row, then one row per grid
// cell:
//
//	time,latitude,longitude,Chlorophyll
//	UTC,degrees_north,degrees_east,mg m-3
//	2020-05-15T12:00:00Z,41.7,-83.3,2.5
//
// Header order is not stable across products, so columns are resolved by
// name, case-insensitively. Cells over land or under cloud are masked with the
// literal "NaN"; those rows carry no measurement and are dropped, as are
// empty and unparseable cells.
//
// # NDBC Realtime2 Conventions
//
// Whitespace-separated columns, two '#'-prefixed header lines (names, then
// units), newest observation first:
//
//	#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS PTDY  TIDE
//	#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT   hPa  degC  degC  degC  nmi  hPa    ft
//	2024 06 01 12 50 220  5.0  6.0   0.4     4   3.4 230 1015.2  18.1  17.4  12.0   MM   MM    MM
//
// "MM" is the missing-value sentinel. Temperatures are reported in Celsius
// and converted to Fahrenheit for display.
//
// # Artifacts
//
// One JSON array of samples per (region, month) at <root>/<region>/<YYYY-MM>.json.
// Presence of the file means a prior fetch found at least one valid sample.
// Artifacts are never rewritten.
package domain
