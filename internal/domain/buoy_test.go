package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ndbcFeed = `#YY  MM DD hh mm WDIR WSPD GST  WVHT   DPD   APD MWD   PRES  ATMP  WTMP  DEWP  VIS PTDY  TIDE
#yr  mo dy hr mn degT m/s  m/s     m   sec   sec degT   hPa  degC  degC  degC  nmi  hPa    ft
2024 06 01 12 50 220  5.0  6.0   0.4     4   3.4 230 1015.2  18.1  20.0  12.0   MM   MM    MM
2024 06 01 12 40 210  4.0  5.0    MM    MM    MM  MM 1015.3  18.0  19.5  12.0   MM   MM    MM
`

func TestParseNDBCRealtime_NewestRow(t *testing.T) {
	r, err := ParseNDBCRealtime("45005", ndbcFeed)
	require.NoError(t, err)

	assert.Equal(t, "45005", r.Station)
	assert.Equal(t, time.Date(2024, time.June, 1, 12, 50, 0, 0, time.UTC), r.Time)
	require.NotNil(t, r.WaterTemp)
	assert.InDelta(t, 68.0, *r.WaterTemp, 0.0001)
	require.NotNil(t, r.WindSpeed)
	assert.InDelta(t, 5.0, *r.WindSpeed, 0.0001)
	require.NotNil(t, r.WaveHeight)
	assert.InDelta(t, 0.4, *r.WaveHeight, 0.0001)
	require.NotNil(t, r.AirTemp)
	assert.InDelta(t, 64.58, *r.AirTemp, 0.0001)
	require.NotNil(t, r.Pressure)
	assert.InDelta(t, 1015.2, *r.Pressure, 0.0001)
}

func TestParseNDBCRealtime_MissingValues(t *testing.T) {
	feed := "#YY  MM DD hh mm WSPD WVHT WTMP\n2024 06 01 12 50 MM MM MM\n"

	r, err := ParseNDBCRealtime("45132", feed)
	require.NoError(t, err)
	assert.Nil(t, r.WaterTemp)
	assert.Nil(t, r.WindSpeed)
	assert.Nil(t, r.WaveHeight)
	assert.Nil(t, r.Pressure, "absent column")
}

func TestParseNDBCRealtime_Errors(t *testing.T) {
	_, err := ParseNDBCRealtime("x", "")
	assert.Error(t, err)

	_, err = ParseNDBCRealtime("x", "#YY  MM DD hh mm WTMP\n#yr  mo dy hr mn degC\n")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = ParseNDBCRealtime("x", "#YY  MM DD hh mm WTMP\nAAAA 06 01 12 50 20.0\n")
	assert.Error(t, err)
}
