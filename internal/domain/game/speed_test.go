package game_test

import (
	"testing"
	"time"

	"horizon-tapper/internal/domain/game"
)

const day = 86400

func TestDaysSinceStart(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		unix int64
		want int64
	}{
		{name: "epoch", unix: game.SpeedEpoch, want: 0},
		{name: "almostOneDay", unix: game.SpeedEpoch + day - 1, want: 0},
		{name: "oneDay", unix: game.SpeedEpoch + day, want: 1},
		{name: "twentyDays", unix: game.SpeedEpoch + 20*day + 5, want: 20},
		{name: "beforeEpochFloors", unix: game.SpeedEpoch - 1, want: -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := game.DaysSinceStart(time.Unix(tc.unix, 0)); got != tc.want {
				t.Fatalf("DaysSinceStart() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSpeedBonus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		referrals int
		days      int64
		want      int
	}{
		{name: "noReferrals", referrals: 0, days: 100, want: 0},
		{name: "oneReferralAnyDay", referrals: 1, days: -5, want: 10},
		{name: "threeReferralsTooEarly", referrals: 3, days: 1, want: 10},
		{name: "threeReferralsDayTwo", referrals: 3, days: 2, want: 25},
		{name: "fourReferrals", referrals: 4, days: 4, want: 50},
		{name: "fiveReferrals", referrals: 5, days: 6, want: 100},
		{name: "tenReferrals", referrals: 10, days: 8, want: 115},
		{name: "manyReferralsEarlyDays", referrals: 500, days: 9, want: 115},
		{name: "twentyFive", referrals: 25, days: 10, want: 125},
		{name: "fifty", referrals: 50, days: 12, want: 150},
		{name: "hundred", referrals: 100, days: 14, want: 175},
		{name: "twoHundred", referrals: 200, days: 16, want: 200},
		{name: "threeHundred", referrals: 300, days: 18, want: 250},
		{name: "manyDaysFewReferrals", referrals: 4, days: 100, want: 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := game.SpeedBonus(tc.referrals, tc.days); got != tc.want {
				t.Fatalf("SpeedBonus(%d, %d) = %d, want %d", tc.referrals, tc.days, got, tc.want)
			}
		})
	}
}

func TestSpeedCalc(t *testing.T) {
	t.Parallel()

	now := time.Unix(game.SpeedEpoch+20*day, 0)

	cases := []struct {
		name       string
		referrals  int
		sinceBoost time.Duration
		want       int
	}{
		{name: "tenReferralsBoosted", referrals: 10, sinceBoost: 10 * time.Minute, want: 6806},
		{name: "tenReferralsIdle", referrals: 10, sinceBoost: 2 * time.Hour, want: 3403},
		{name: "halfRoundsToEven", referrals: 4, sinceBoost: time.Hour, want: 2374},
		{name: "halfRoundsToEvenUp", referrals: 50, sinceBoost: time.Hour, want: 3958},
		{name: "noReferralsBase", referrals: 0, sinceBoost: time.Hour, want: 1583},
		{name: "noReferralsBoosted", referrals: 0, sinceBoost: 0, want: 3166},
		{name: "topTier", referrals: 300, sinceBoost: time.Hour, want: 5540},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := game.SpeedCalc(tc.referrals, tc.sinceBoost, now); got != tc.want {
				t.Fatalf("SpeedCalc() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSpeedCalcBoostedIsDouble(t *testing.T) {
	t.Parallel()

	now := time.Unix(game.SpeedEpoch+30*day, 0)
	for _, refs := range []int{0, 1, 3, 4, 5, 10, 25, 50, 100, 200, 300} {
		idle := game.SpeedCalc(refs, game.BoostCooldown, now)
		boosted := game.SpeedCalc(refs, game.BoostCooldown-time.Second, now)
		if boosted != 2*idle {
			t.Fatalf("referrals=%d: boosted %d, want 2*%d", refs, boosted, idle)
		}
	}
}
