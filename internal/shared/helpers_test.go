package shared_test

import (
	"reflect"
	"testing"

	"horizon-tapper/internal/shared"
)

type fixedRand int

func (r fixedRand) IntN(n int) int { return min(int(r), n-1) }

func TestUnique(t *testing.T) {
	t.Parallel()

	got := shared.Unique([]string{"b", "a", "b", "c", "a"})
	if !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Fatalf("Unique() = %v", got)
	}
}

func TestGetAt(t *testing.T) {
	t.Parallel()

	s := []int{10, 20}
	if v, ok := shared.GetAt(s, 1); !ok || v != 20 {
		t.Fatalf("GetAt(1) = %d, %v", v, ok)
	}
	if v, ok := shared.GetAt(s, 2); ok || v != 0 {
		t.Fatalf("GetAt(2) = %d, %v; want zero, false", v, ok)
	}
	if _, ok := shared.GetAt(s, -1); ok {
		t.Fatal("GetAt(-1) ok = true")
	}
}

func TestRandomFrom(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		r        fixedRand
		min, max int
		want     int
	}{
		{name: "lowerBound", r: 0, min: 30, max: 60, want: 30},
		{name: "upperInclusive", r: 100, min: 30, max: 60, want: 60},
		{name: "degenerate", r: 5, min: 7, max: 7, want: 7},
		{name: "inverted", r: 5, min: 9, max: 3, want: 9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := shared.RandomFrom(tc.r, tc.min, tc.max); got != tc.want {
				t.Fatalf("RandomFrom(%d, %d) = %d, want %d", tc.min, tc.max, got, tc.want)
			}
		})
	}
}
