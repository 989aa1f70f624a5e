package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestRelationship_ActiveAt(t *testing.T) {
	tests := []struct {
		name     string
		rel      Relationship
		at       int64
		expected bool
	}{
		{
			name:     "inside bounded interval",
			rel:      Relationship{StartsAt: ptr(int64(10)), EndsAt: ptr(int64(20))},
			at:       15,
			expected: true,
		},
		{
			name:     "active at exact start",
			rel:      Relationship{StartsAt: ptr(int64(10)), EndsAt: ptr(int64(20))},
			at:       10,
			expected: true,
		},
		{
			name:     "active just before end",
			rel:      Relationship{StartsAt: ptr(int64(10)), EndsAt: ptr(int64(20))},
			at:       19,
			expected: true,
		},
		{
			name:     "not active at exclusive end",
			rel:      Relationship{StartsAt: ptr(int64(10)), EndsAt: ptr(int64(20))},
			at:       20,
			expected: false,
		},
		{
			name:     "not active before start",
			rel:      Relationship{StartsAt: ptr(int64(10)), EndsAt: ptr(int64(20))},
			at:       9,
			expected: false,
		},
		{
			name:     "open start is active from the beginning",
			rel:      Relationship{EndsAt: ptr(int64(20))},
			at:       -1000,
			expected: true,
		},
		{
			name:     "open end remains active indefinitely",
			rel:      Relationship{StartsAt: ptr(int64(10))},
			at:       1 << 40,
			expected: true,
		},
		{
			name:     "fully unbounded is always active",
			rel:      Relationship{},
			at:       0,
			expected: true,
		},
		{
			name:     "malformed interval is never active",
			rel:      Relationship{StartsAt: ptr(int64(30)), EndsAt: ptr(int64(10))},
			at:       20,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rel.ActiveAt(tt.at))
		})
	}
}

func TestRelationship_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		rel      Relationship
		from, to int64
		expected bool
	}{
		{
			name:     "open-ended start inside window",
			rel:      Relationship{StartsAt: ptr(int64(12))},
			from:     5,
			to:       15,
			expected: true,
		},
		{
			name:     "ends before window starts",
			rel:      Relationship{StartsAt: ptr(int64(0)), EndsAt: ptr(int64(4))},
			from:     5,
			to:       15,
			expected: false,
		},
		{
			name:     "ends exactly at window start",
			rel:      Relationship{StartsAt: ptr(int64(0)), EndsAt: ptr(int64(5))},
			from:     5,
			to:       15,
			expected: false,
		},
		{
			name:     "starts exactly at window end",
			rel:      Relationship{StartsAt: ptr(int64(15))},
			from:     5,
			to:       15,
			expected: false,
		},
		{
			name:     "fully unbounded overlaps everything",
			rel:      Relationship{},
			from:     5,
			to:       15,
			expected: true,
		},
		{
			name:     "interval containing the window",
			rel:      Relationship{StartsAt: ptr(int64(0)), EndsAt: ptr(int64(100))},
			from:     5,
			to:       15,
			expected: true,
		},
		{
			name:     "malformed interval overlaps nothing",
			rel:      Relationship{StartsAt: ptr(int64(50)), EndsAt: ptr(int64(10))},
			from:     0,
			to:       100,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rel.Overlaps(tt.from, tt.to))
		})
	}
}

func TestRelationship_OtherSide(t *testing.T) {
	rel := Relationship{SourceID: "a", TargetID: "b"}
	assert.Equal(t, "b", rel.OtherSide("a"))
	assert.Equal(t, "a", rel.OtherSide("b"))

	selfLoop := Relationship{SourceID: "a", TargetID: "a"}
	assert.Equal(t, "a", selfLoop.OtherSide("a"))
}

func TestRelationship_Connects(t *testing.T) {
	rel := Relationship{SourceID: "a", TargetID: "b"}
	assert.True(t, rel.Connects("a", "b"))
	assert.True(t, rel.Connects("b", "a"))
	assert.False(t, rel.Connects("a", "c"))
}
