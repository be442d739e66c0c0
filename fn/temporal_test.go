package fn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberql/value"
)

func TestExtractFieldsFromTimestamp(t *testing.T) {
	ts := value.TimestampVal(value.NewTimestamp(time.Date(2024, time.March, 15, 13, 45, 30, 0, time.UTC)))

	year, err := extractFn(func(tm time.Time) int64 { return int64(tm.Year()) })([]value.Value{ts})
	require.NoError(t, err)
	n, _ := year.Int128Of().Int64()
	assert.Equal(t, int64(2024), n)

	hour, err := extractFn(func(tm time.Time) int64 { return int64(tm.Hour()) })([]value.Value{ts})
	require.NoError(t, err)
	n, _ = hour.Int128Of().Int64()
	assert.Equal(t, int64(13), n)
}

func TestAsTimeRejectsNonTemporal(t *testing.T) {
	_, err := asTime(value.Text("not a date"))
	require.Error(t, err)
}

func TestParseIntervalMonth(t *testing.T) {
	v, err := ParseInterval("3", value.IntervalMonth)
	require.NoError(t, err)
	iv := v.IntervalOf()
	assert.Equal(t, value.IntervalMonth, iv.Unit)
	assert.Equal(t, int64(3), iv.Count)
}

func TestParseIntervalRejectsMalformed(t *testing.T) {
	_, err := ParseInterval("abc", value.IntervalMonth)
	require.Error(t, err)
}

func TestParseIntervalSign(t *testing.T) {
	v, err := parseIntervalCount("-5")
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v)
}
