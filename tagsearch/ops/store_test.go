package ops

import "testing"

func TestLikePatternWildcard(t *testing.T) {
	if got := likePattern("tou*"); got != "tou%" {
		t.Errorf("likePattern = %q, want tou%%", got)
	}
	if got := likePattern("*girl*"); got != "%girl%" {
		t.Errorf("likePattern = %q, want %%girl%%", got)
	}
}

func TestLikePatternEscapesMetacharacters(t *testing.T) {
	if got := likePattern(`100%_a\b*`); got != `100\%\_a\\b%` {
		t.Errorf("likePattern = %q", got)
	}
}

func TestLikePatternPlain(t *testing.T) {
	if got := likePattern("touhou"); got != "touhou" {
		t.Errorf("likePattern = %q, want touhou", got)
	}
}

func TestItoa(t *testing.T) {
	if got := itoa(100); got != "100" {
		t.Errorf("itoa(100) = %q", got)
	}
	if got := itoa(0); got != "0" {
		t.Errorf("itoa(0) = %q", got)
	}
	if got := itoa(-5); got != "0" {
		t.Errorf("itoa(-5) = %q", got)
	}
}
