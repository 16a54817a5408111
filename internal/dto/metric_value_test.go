package dto

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricValueMarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		value MetricValue
		want  string
	}{
		{
			name:  "Finite value serializes as a number",
			value: Finite(1.5),
			want:  "1.5",
		},
		{
			name:  "Zero serializes as a number",
			value: Finite(0),
			want:  "0",
		},
		{
			name:  "Negative value serializes as a number",
			value: Finite(-0.25),
			want:  "-0.25",
		},
		{
			name:  "Sentinel serializes as the Infinity string",
			value: PositiveInfinity(),
			want:  `"Infinity"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMetricValueUnmarshalJSON(t *testing.T) {
	t.Run("Number round trips", func(t *testing.T) {
		var m MetricValue
		require.NoError(t, json.Unmarshal([]byte("3.25"), &m))
		assert.False(t, m.IsInfinite())
		assert.Equal(t, 3.25, m.Float64())
	})
	t.Run("Infinity string round trips", func(t *testing.T) {
		var m MetricValue
		require.NoError(t, json.Unmarshal([]byte(`"Infinity"`), &m))
		assert.True(t, m.IsInfinite())
		assert.True(t, math.IsInf(m.Float64(), 1))
	})
	t.Run("Other strings are rejected", func(t *testing.T) {
		var m MetricValue
		assert.Error(t, json.Unmarshal([]byte(`"NaN"`), &m))
	})
}

func TestMetricValueString(t *testing.T) {
	assert.Equal(t, "1.5", Finite(1.5).String())
	assert.Equal(t, "Infinity", PositiveInfinity().String())
}

func TestMetricValueFloat64(t *testing.T) {
	assert.Equal(t, 2.0, Finite(2).Float64())
	assert.True(t, math.IsInf(PositiveInfinity().Float64(), 1))
}
