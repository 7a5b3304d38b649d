package query

import (
	"testing"
	"time"
)

func TestParseRangeComparators(t *testing.T) {
	r, err := ParseRange(">10", TypeInteger, castNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, ok := r.(Greater)
	if !ok || g.V.Int != 10 {
		t.Errorf("expected Greater(10), got %#v", r)
	}

	r, _ = ParseRange("<=5", TypeInteger, castNow)
	if le, ok := r.(LessEq); !ok || le.V.Int != 5 {
		t.Errorf("expected LessEq(5), got %#v", r)
	}

	r, _ = ParseRange("!=3", TypeInteger, castNow)
	if ne, ok := r.(NotEq); !ok || ne.V.Int != 3 {
		t.Errorf("expected NotEq(3), got %#v", r)
	}
}

func TestParseRangeInclusiveSorted(t *testing.T) {
	r, err := ParseRange("10..1", TypeInteger, castNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, ok := r.(Between)
	if !ok {
		t.Fatalf("expected Between, got %#v", r)
	}
	if b.Lo.Int != 1 || b.Hi.Int != 10 || b.ExclusiveHi {
		t.Errorf("expected sorted inclusive [1,10], got %#v", b)
	}
}

func TestParseRangeExclusive(t *testing.T) {
	r, err := ParseRange("1...10", TypeInteger, castNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := r.(Between)
	if b.Lo.Int != 1 || b.Hi.Int != 10 || !b.ExclusiveHi {
		t.Errorf("expected half-open [1,10), got %#v", b)
	}
}

func TestParseRangeOpenEnded(t *testing.T) {
	r, _ := ParseRange("..10", TypeInteger, castNow)
	if le, ok := r.(LessEq); !ok || le.V.Int != 10 {
		t.Errorf("expected LessEq(10), got %#v", r)
	}
	r, _ = ParseRange("10..", TypeInteger, castNow)
	if ge, ok := r.(GreaterEq); !ok || ge.V.Int != 10 {
		t.Errorf("expected GreaterEq(10), got %#v", r)
	}
}

func TestParseRangeList(t *testing.T) {
	r, err := ParseRange("1,2,3", TypeInteger, castNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in, ok := r.(In)
	if !ok || len(in.Values) != 3 {
		t.Fatalf("expected In of 3, got %#v", r)
	}
	if in.Values[2].Int != 3 {
		t.Errorf("expected third value 3, got %d", in.Values[2].Int)
	}
}

func TestParseRangeAnyNone(t *testing.T) {
	if r, _ := ParseRange("any", TypeInteger, castNow); r != (Any{}) {
		t.Errorf("expected Any, got %#v", r)
	}
	if r, _ := ParseRange("none", TypeInteger, castNow); r != (None{}) {
		t.Errorf("expected None, got %#v", r)
	}
}

func TestParseRangeBareInteger(t *testing.T) {
	r, _ := ParseRange("7", TypeInteger, castNow)
	if eq, ok := r.(Eq); !ok || eq.V.Int != 7 {
		t.Errorf("expected Eq(7), got %#v", r)
	}
}

func TestParseRangeBareFloatTolerance(t *testing.T) {
	r, err := ParseRange("10", TypeFloat, castNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, ok := r.(Between)
	if !ok {
		t.Fatalf("expected tolerance Between, got %#v", r)
	}
	if b.Lo.Float != 9.5 || b.Hi.Float != 10.5 {
		t.Errorf("expected [9.5,10.5], got [%v,%v]", b.Lo.Float, b.Hi.Float)
	}
}

func TestParseRangeBareFilesize(t *testing.T) {
	// Unit-suffixed sizes are approximate and get a band.
	r, _ := ParseRange("1m", TypeFilesize, castNow)
	b, ok := r.(Between)
	if !ok {
		t.Fatalf("expected Between for suffixed size, got %#v", r)
	}
	if b.Lo.Int != 1048576*95/100 || b.Hi.Int != 1048576*105/100 {
		t.Errorf("unexpected band [%d,%d]", b.Lo.Int, b.Hi.Int)
	}

	// A bare byte count is exact.
	r, _ = ParseRange("1000", TypeFilesize, castNow)
	if eq, ok := r.(Eq); !ok || eq.V.Int != 1000 {
		t.Errorf("expected Eq(1000), got %#v", r)
	}
}

func TestParseRangeBareDateIsDayBand(t *testing.T) {
	r, err := ParseRange("2024-01-02", TypeDate, castNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, ok := r.(Between)
	if !ok || !b.ExclusiveHi {
		t.Fatalf("expected half-open day band, got %#v", r)
	}
	if b.Hi.Time.Sub(b.Lo.Time) != 24*time.Hour {
		t.Errorf("expected a 24h band, got %v", b.Hi.Time.Sub(b.Lo.Time))
	}
}

func TestParseRangeAgeInverts(t *testing.T) {
	// "newer than 2 days" means created after now-2d.
	r, err := ParseRange("<2d", TypeAge, castNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, ok := r.(Greater)
	if !ok {
		t.Fatalf("expected inverted Greater, got %#v", r)
	}
	if !g.V.Time.Equal(castNow.Add(-48 * time.Hour)) {
		t.Errorf("unexpected pivot %v", g.V.Time)
	}

	r, _ = ParseRange(">=1w", TypeAge, castNow)
	if _, ok := r.(LessEq); !ok {
		t.Errorf("expected inverted LessEq, got %#v", r)
	}
}

func TestParseRangeEnumList(t *testing.T) {
	r, err := ParseRange("s,q", TypeEnum, castNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in, ok := r.(In)
	if !ok || len(in.Values) != 2 {
		t.Fatalf("expected In of 2, got %#v", r)
	}
	if in.Values[0].Str != "s" || in.Values[1].Str != "q" {
		t.Errorf("unexpected values %#v", in.Values)
	}
}

func TestParseRangeEnumSingle(t *testing.T) {
	r, _ := ParseRange("s", TypeEnum, castNow)
	in, ok := r.(In)
	if !ok || len(in.Values) != 1 || in.Values[0].Str != "s" {
		t.Errorf("expected single-member In, got %#v", r)
	}
}

func TestParseRangeEmpty(t *testing.T) {
	if _, err := ParseRange("", TypeInteger, castNow); err == nil {
		t.Errorf("expected error for empty value")
	}
}

func TestParseRangeBadEndpoint(t *testing.T) {
	if _, err := ParseRange("1..x", TypeInteger, castNow); err == nil {
		t.Errorf("expected error for bad endpoint")
	}
}
