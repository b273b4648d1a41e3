package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"rentnexus/internal/fault"
)

func day(d int) time.Time {
	return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestIntervalValidate(t *testing.T) {
	tests := []struct {
		name     string
		interval Interval
		wantErr  bool
	}{
		{"valid range", Interval{Start: day(0), End: day(5)}, false},
		{"single day", Interval{Start: day(3), End: day(3)}, false},
		{"inverted", Interval{Start: day(5), End: day(0)}, true},
		{"zero start", Interval{End: day(5)}, true},
		{"zero end", Interval{Start: day(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.interval.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, fault.IsKind(err, fault.KindInvalidInput))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint before", Interval{day(0), day(2)}, Interval{day(3), day(5)}, false},
		{"disjoint after", Interval{day(6), day(8)}, Interval{day(3), day(5)}, false},
		{"shared boundary start", Interval{day(0), day(3)}, Interval{day(3), day(5)}, true},
		{"shared boundary end", Interval{day(5), day(8)}, Interval{day(3), day(5)}, true},
		{"contained", Interval{day(3), day(4)}, Interval{day(2), day(6)}, true},
		{"containing", Interval{day(1), day(9)}, Interval{day(3), day(5)}, true},
		{"identical", Interval{day(3), day(5)}, Interval{day(3), day(5)}, true},
		{"partial overlap", Interval{day(2), day(4)}, Interval{day(3), day(6)}, true},
		{"single day inside", Interval{day(4), day(4)}, Interval{day(3), day(5)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

// Overlap must agree with the brute-force definition: some calendar day
// belongs to both closed intervals.
func TestIntervalOverlapsMatchesBruteForce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		aStart := rapid.IntRange(0, 60).Draw(t, "aStart")
		aLen := rapid.IntRange(0, 30).Draw(t, "aLen")
		bStart := rapid.IntRange(0, 60).Draw(t, "bStart")
		bLen := rapid.IntRange(0, 30).Draw(t, "bLen")

		a := Interval{Start: day(aStart), End: day(aStart + aLen)}
		b := Interval{Start: day(bStart), End: day(bStart + bLen)}

		shared := false
		for d := aStart; d <= aStart+aLen; d++ {
			if d >= bStart && d <= bStart+bLen {
				shared = true
				break
			}
		}

		if got := a.Overlaps(b); got != shared {
			t.Fatalf("Overlaps(%v, %v) = %v, brute force says %v", a, b, got, shared)
		}
		if a.Overlaps(b) != b.Overlaps(a) {
			t.Fatalf("Overlaps is not symmetric for %v and %v", a, b)
		}
	})
}

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted} {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	for _, raw := range []string{"", "pending", "ARCHIVED", "Approved"} {
		_, err := ParseStatus(raw)
		require.Error(t, err, "ParseStatus(%q)", raw)
		assert.True(t, fault.IsKind(err, fault.KindInvalidInput))
	}
}

func TestStatusClassification(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())

	assert.False(t, StatusPending.Blocking())
	assert.True(t, StatusApproved.Blocking())
	assert.False(t, StatusRejected.Blocking())
	assert.False(t, StatusCancelled.Blocking())
	assert.True(t, StatusCompleted.Blocking())
}
