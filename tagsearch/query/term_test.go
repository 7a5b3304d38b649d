package query

import (
	"testing"
)

func TestSerializeRoundTrip(t *testing.T) {
	input := `touhou -rating:e score:>10 source:"a b"`
	first := Serialize(Scan(input))
	second := Serialize(Scan(first))
	if first != second {
		t.Errorf("serialization is not a fixed point: %q vs %q", first, second)
	}
}

func TestSerializePrefixes(t *testing.T) {
	terms := []Term{
		TagTerm{Name: "a", Negated: true},
		TagTerm{Name: "b", Optional: true},
		MetatagTerm{Name: "score", Value: ">5", Negated: true},
	}
	got := Serialize(terms)
	if got != "-a ~b -score:>5" {
		t.Errorf("unexpected serialization %q", got)
	}
}

func TestSerializeQuotesWhenNeeded(t *testing.T) {
	mt := MetatagTerm{Name: "source", Value: "a b"}
	if got := mt.String(); got != `source:"a b"` {
		t.Errorf("expected re-quoting, got %q", got)
	}
	mt = MetatagTerm{Name: "source", Value: `say "hi"`, Quoted: true}
	if got := mt.String(); got != `source:"say \"hi\""` {
		t.Errorf("expected escaped quotes, got %q", got)
	}
	mt = MetatagTerm{Name: "source", Value: "plain"}
	if got := mt.String(); got != "source:plain" {
		t.Errorf("expected bare value, got %q", got)
	}
}

func TestSerializeQuotedStaysQuoted(t *testing.T) {
	terms := Scan(`source:"pixiv"`)
	if got := Serialize(terms); got != `source:"pixiv"` {
		t.Errorf("expected quoting preserved, got %q", got)
	}
}
