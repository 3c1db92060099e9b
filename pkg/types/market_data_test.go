package types

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanBars_DropsInvalid(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := []Bar{
		{Timestamp: now, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Timestamp: now.Add(24 * time.Hour), Open: math.NaN(), High: 11, Low: 9, Close: 10},
		{Timestamp: now.Add(48 * time.Hour), Open: 0, High: 11, Low: 9, Close: 10},
		{Timestamp: now.Add(72 * time.Hour), Open: 10, High: math.Inf(1), Low: 9, Close: 10},
		{Timestamp: now.Add(96 * time.Hour), Open: 10, High: 11, Low: 9, Close: -1},
		{Timestamp: now.Add(120 * time.Hour), Open: 10, High: 12, Low: 9, Close: 11},
	}

	clean, dropped := CleanBars(bars)

	assert.Len(t, clean, 2)
	assert.Equal(t, 4, dropped)
	assert.Equal(t, 11.0, clean[1].Close)
	assert.Len(t, bars, 6, "input must not be modified")
}

func TestOptFloat_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   OptFloat
		want string
	}{
		{"absent", None(), "null"},
		{"finite", Some(1.5), "1.5"},
		{"positive infinity", Some(math.Inf(1)), `"Infinity"`},
		{"negative infinity", Some(math.Inf(-1)), `"-Infinity"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var back OptFloat
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.in.Valid, back.Valid)
		})
	}
}

func TestOptFloat_Or(t *testing.T) {
	assert.Equal(t, 2.0, Some(2).Or(0))
	assert.Equal(t, 7.0, None().Or(7))
	assert.Equal(t, 7.0, Some(math.Inf(1)).Or(7))
	assert.True(t, Some(math.Inf(1)).IsInf(1))
	assert.False(t, None().IsInf(1))
}
