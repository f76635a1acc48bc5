package core

import (
	"math"
	"testing"
)

func TestMonthlyEquivalentTable(t *testing.T) {
	cases := []struct {
		freq  Frequency
		cents int64
		want  int64
	}{
		{Daily, 1000, 30000},
		{Weekly, 10000, 43300}, // 100 * 4.33 = 433
		{BiWeekly, 10000, 21700},
		{Monthly, 12345, 12345},
		{Quarterly, 30000, 10000},
		{SemiAnnually, 60000, 10000},
		{Annually, 120000, 10000},
		{OneTime, 99999, 0},
	}
	for _, tc := range cases {
		got := MonthlyEquivalent(Money{Cents: tc.cents}, tc.freq)
		if int64(math.Round(got)) != tc.want {
			t.Errorf("%s: expected %d cents, got %f", tc.freq, tc.want, got)
		}
	}
}

func TestMonthlyEquivalentLinearity(t *testing.T) {
	// Holds exactly for the fractional multipliers too (quarterly,
	// semi-annually, annually), not just the integer ones.
	for freq := range periodsPerMonth {
		a := MonthlyEquivalent(Money{Cents: 700}, freq)
		b := MonthlyEquivalent(Money{Cents: 1400}, freq)
		if b != 2*a {
			t.Errorf("%s: doubling the amount should double the result (%f vs %f)",
				freq, a, b)
		}
	}
}

func TestMonthlyEquivalentUnknownFrequency(t *testing.T) {
	got := MonthlyEquivalent(Money{Cents: 5000}, Frequency("fortnightly"))
	if got != 0 {
		t.Fatalf("unknown frequency should contribute zero, got %f", got)
	}
}

func TestParseFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want Frequency
		ok   bool
	}{
		{"weekly", Weekly, true},
		{"Bi-Weekly", BiWeekly, true},
		{"biweekly", BiWeekly, true},
		{"yearly", Annually, true},
		{"annually", Annually, true},
		{" monthly ", Monthly, true},
		{"one-time", OneTime, true},
		{"once", OneTime, true},
		{"hourly", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseFrequency(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Errorf("%q: expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Errorf("%q: expected error", tc.in)
		}
	}
}

func TestIncomeFrequencySubset(t *testing.T) {
	inc := Income{Source: "Salary", Amount: Money{Cents: 100000}, Frequency: Daily}
	if err := inc.Validate(); err == nil {
		t.Fatal("daily should not be a valid income frequency")
	}
	inc.Frequency = BiWeekly
	if err := inc.Validate(); err != nil {
		t.Fatalf("bi-weekly income should validate: %v", err)
	}
}
