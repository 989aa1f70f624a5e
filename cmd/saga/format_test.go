package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetaFlag(t *testing.T) {
	t.Run("empty is nil", func(t *testing.T) {
		meta, err := parseMetaFlag("")
		require.NoError(t, err)
		assert.Nil(t, meta)
	})

	t.Run("valid JSON object", func(t *testing.T) {
		meta, err := parseMetaFlag(`{"mood": "tense", "chapter": 3}`)
		require.NoError(t, err)
		assert.Equal(t, "tense", meta["mood"])
		assert.Equal(t, float64(3), meta["chapter"])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := parseMetaFlag(`{mood: tense}`)
		require.Error(t, err)
	})

	t.Run("non-object JSON", func(t *testing.T) {
		_, err := parseMetaFlag(`["a", "b"]`)
		require.Error(t, err)
	})
}

func TestFormatInterval(t *testing.T) {
	start := int64(10)
	end := int64(42)

	tests := []struct {
		name     string
		startsAt *int64
		endsAt   *int64
		want     string
	}{
		{name: "unbounded", want: "always"},
		{name: "bounded", startsAt: &start, endsAt: &end, want: "[10, 42)"},
		{name: "open end", startsAt: &start, want: "[10, ..)"},
		{name: "open start", endsAt: &end, want: "[.., 42)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatInterval(tt.startsAt, tt.endsAt))
		})
	}
}
