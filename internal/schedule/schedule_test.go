package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-07-15 is a Monday.
var monday = time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)

func TestParseVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		kind    Kind
		weekday time.Weekday
		days    []int
	}{
		{name: "everyday", raw: "everyday", kind: KindEveryday},
		{name: "everyday mixed case padded", raw: "  EveryDay \t", kind: KindEveryday},
		{name: "weekly", raw: "every Monday", kind: KindWeekly, weekday: time.Monday},
		{name: "weekly upper", raw: "EVERY FRIDAY", kind: KindWeekly, weekday: time.Friday},
		{name: "weekly sunday", raw: "every sunday", kind: KindWeekly, weekday: time.Sunday},
		{name: "monthly", raw: "days:1,15,30", kind: KindMonthly, days: []int{1, 15, 30}},
		{name: "monthly spaced", raw: "DAYS: 1 , 15 ", kind: KindMonthly, days: []int{1, 15}},
		{name: "monthly out of range kept", raw: "days:0,32,-1", kind: KindMonthly, days: []int{0, 32, -1}},
		{name: "unknown weekday", raw: "every lundi", kind: KindInert},
		{name: "abbreviated weekday", raw: "every mon", kind: KindInert},
		{name: "bare every", raw: "every", kind: KindInert},
		{name: "empty", raw: "", kind: KindInert},
		{name: "cron-like", raw: "0 9 * * 1", kind: KindInert},
		{name: "weekly without space", raw: "everymonday", kind: KindInert},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.raw, got.Source)
			if tt.kind == KindWeekly {
				assert.Equal(t, tt.weekday, got.Weekday)
			}
			if tt.kind == KindMonthly {
				assert.Equal(t, tt.days, got.Days)
			}
		})
	}
}

func TestParseMalformedDays(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"days:1,x", "days:", "days:1,,2", "days:1-5", "days:1.5"} {
		_, err := Parse(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrMalformed), "%q: %v", raw, err)

		var me *MalformedError
		require.True(t, errors.As(err, &me), raw)
		assert.Equal(t, raw, me.Expr)

		ok, ferr := Fires(raw, monday)
		assert.False(t, ok)
		assert.Error(t, ferr)
	}
}

func TestMalformedErrorMessage(t *testing.T) {
	t.Parallel()
	_, err := Parse("days:3,abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"abc"`)
	assert.Contains(t, err.Error(), "days:3,abc")
}

func TestEverydayFiresAlways(t *testing.T) {
	t.Parallel()
	for i := 0; i < 366; i++ {
		ok, err := Fires("everyday", monday.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestWeeklyFiresOnlyOnThatDay(t *testing.T) {
	t.Parallel()
	for i := 0; i < 21; i++ {
		d := monday.AddDate(0, 0, i)
		ok, err := Fires("every Monday", d)
		require.NoError(t, err)
		assert.Equal(t, d.Weekday() == time.Monday, ok, "date %s", d.Format(time.DateOnly))
	}
}

func TestMonthlyMembership(t *testing.T) {
	t.Parallel()
	exp, err := Parse("days:1,15,30")
	require.NoError(t, err)
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 366; i++ {
		d := start.AddDate(0, 0, i)
		want := d.Day() == 1 || d.Day() == 15 || d.Day() == 30
		assert.Equal(t, want, exp.Matches(d), "date %s", d.Format(time.DateOnly))
	}
	assert.False(t, exp.Matches(time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)))
}

func TestInertNeverFires(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"weekly", "every someday", "sometimes", ""} {
		for i := 0; i < 7; i++ {
			ok, err := Fires(raw, monday.AddDate(0, 0, i))
			require.NoError(t, err)
			assert.False(t, ok, raw)
		}
	}
}

func TestParseIdempotent(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"everyday", "every Tuesday", "days:5, 10", "nonsense"} {
		a, err := Parse(raw)
		require.NoError(t, err)
		b, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, a, b)

		// canonical form parses back to the same rule
		c, err := Parse(a.String())
		require.NoError(t, err)
		assert.Equal(t, a.Kind, c.Kind)
		assert.Equal(t, a.Weekday, c.Weekday)
		assert.Equal(t, a.Days, c.Days)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "everyday", KindEveryday.String())
	assert.Equal(t, "weekly", KindWeekly.String())
	assert.Equal(t, "monthly", KindMonthly.String())
	assert.Equal(t, "inert", KindInert.String())
}
