package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "00:00:00", want: Midnight},
		{in: "01:30:00", want: ClockTime{Hour: 1, Minute: 30}},
		{in: "1:02:03", want: ClockTime{Hour: 1, Minute: 2, Second: 3}},
		{in: "23:59:59", want: ClockTime{Hour: 23, Minute: 59, Second: 59}},
		{in: "24:00:00", wantErr: true},
		{in: "12:60:00", wantErr: true},
		{in: "1:2:3", wantErr: true},
		{in: "90", wantErr: true},
		{in: "01:30:00.999", wantErr: true},
		{in: "01:30:00,5", wantErr: true},
		{in: "01:30:00 ", wantErr: true},
		{in: "NA", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddTimes(t *testing.T) {
	days, sum := AddTimes(MustParseClockTime("10:00:00"), MustParseClockTime("02:30:15"))
	assert.Equal(t, 0, days)
	assert.Equal(t, "12:30:15", sum.String())

	days, sum = AddTimes(MustParseClockTime("23:00:00"), MustParseClockTime("01:30:00"))
	assert.Equal(t, 1, days)
	assert.Equal(t, "00:30:00", sum.String())

	days, sum = AddTimes(MustParseClockTime("23:59:59"), MustParseClockTime("23:59:59"))
	assert.Equal(t, 1, days)
	assert.Equal(t, "23:59:58", sum.String())

	days, sum = AddTimes(MustParseClockTime("12:00:00"), MustParseClockTime("12:00:00"))
	assert.Equal(t, 1, days)
	assert.Equal(t, Midnight, sum)
}

func TestSumDurations(t *testing.T) {
	durations := []ClockTime{
		MustParseClockTime("01:30:00"),
		MustParseClockTime("23:00:00"),
		MustParseClockTime("01:00:00"),
	}

	got := SumDurations(durations)
	assert.Equal(t, Span{Days: 1, Clock: ClockTime{Hour: 1, Minute: 30}}, got)
	assert.Equal(t, "1 day and 01:30:00", got.String())
}

func TestSumDurations_Empty(t *testing.T) {
	got := SumDurations(nil)
	assert.True(t, got.IsZero())
	assert.Equal(t, "00:00:00", got.String())
}

func TestSpanMerge(t *testing.T) {
	a := Span{Days: 1, Clock: MustParseClockTime("20:00:00")}
	b := Span{Days: 2, Clock: MustParseClockTime("05:00:01")}

	got := a.Merge(b)
	assert.Equal(t, 4, got.Days)
	assert.Equal(t, "01:00:01", got.Clock.String())
	assert.Equal(t, "4 days and 01:00:01", got.String())
}

func TestVideoStatus(t *testing.T) {
	v := &Video{Link: "https://example.com/v"}
	assert.Equal(t, StatusPending, v.Status())

	v.IsDownloaded = true
	assert.Equal(t, StatusDownloaded, v.Status())
}
