package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseFrequency(t *testing.T) {
	cases := map[string]Frequency{
		"":   {Every: 1, Unit: Daily},
		"d":  {Every: 1, Unit: Daily},
		"3D": {Every: 3, Unit: Daily},
		"B":  {Every: 1, Unit: Business},
		"2W": {Every: 2, Unit: Weekly},
		"MS": {Every: 1, Unit: MonthStart},
		"M":  {Every: 1, Unit: MonthEnd},
	}
	for in, want := range cases {
		got, err := ParseFrequency(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, bad := range []string{"0D", "X", "D2", "-1D"} {
		_, err := ParseFrequency(bad)
		require.Error(t, err, bad)
	}
}

func TestDates(t *testing.T) {
	t.Run("daily inclusive", func(t *testing.T) {
		got := Dates(d("2020-01-30"), d("2020-02-02"), Frequency{Every: 1, Unit: Daily})
		require.Equal(t, "", cmp.Diff([]time.Time{d("2020-01-30"), d("2020-01-31"), d("2020-02-01"), d("2020-02-02")}, got))
	})

	t.Run("business days skip weekend", func(t *testing.T) {
		// 2020-01-03 is a Friday.
		got := Dates(d("2020-01-03"), d("2020-01-07"), Frequency{Every: 1, Unit: Business})
		require.Equal(t, "", cmp.Diff([]time.Time{d("2020-01-03"), d("2020-01-06"), d("2020-01-07")}, got))
	})

	t.Run("weekly", func(t *testing.T) {
		got := Dates(d("2020-01-01"), d("2020-01-20"), Frequency{Every: 1, Unit: Weekly})
		require.Equal(t, "", cmp.Diff([]time.Time{d("2020-01-01"), d("2020-01-08"), d("2020-01-15")}, got))
	})

	t.Run("month start", func(t *testing.T) {
		got := Dates(d("2020-01-15"), d("2020-04-01"), Frequency{Every: 1, Unit: MonthStart})
		require.Equal(t, "", cmp.Diff([]time.Time{d("2020-02-01"), d("2020-03-01"), d("2020-04-01")}, got))
	})

	t.Run("month end", func(t *testing.T) {
		got := Dates(d("2020-01-31"), d("2020-04-15"), Frequency{Every: 1, Unit: MonthEnd})
		require.Equal(t, "", cmp.Diff([]time.Time{d("2020-01-31"), d("2020-02-29"), d("2020-03-31")}, got))
	})

	t.Run("end before start", func(t *testing.T) {
		require.Empty(t, Dates(d("2020-02-01"), d("2020-01-01"), Frequency{Every: 1, Unit: Daily}))
	})
}
