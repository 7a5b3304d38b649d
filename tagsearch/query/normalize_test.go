package query

import (
	"context"
	"testing"
)

type mapAliases map[string]string

func (m mapAliases) ResolveTagAliases(_ context.Context, names []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, n := range names {
		if to, ok := m[n]; ok {
			out[n] = to
		}
	}
	return out, nil
}

var normAll = NormalizeOptions{ApplyImplicit: true, ApplySort: true}

func TestNormalizeAliases(t *testing.T) {
	aliases := mapAliases{"ugly_man": "ossan"}
	terms, err := Normalize(context.Background(), Scan("ugly_man -other"), UserContext{}, aliases, normAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := Serialize(terms)
	if got != "-other ossan" {
		t.Errorf("expected aliased sorted form, got %q", got)
	}
}

func TestNormalizeWildcardSkipsAliases(t *testing.T) {
	aliases := mapAliases{"ugly*": "nope"}
	terms, _ := Normalize(context.Background(), Scan("ugly*"), UserContext{}, aliases, normAll)
	if tag := terms[0].(TagTerm); tag.Name != "ugly*" {
		t.Errorf("wildcard must not be aliased, got %q", tag.Name)
	}
}

func TestNormalizeSafeMode(t *testing.T) {
	uctx := UserContext{SafeMode: true}
	terms, _ := Normalize(context.Background(), Scan("touhou"), uctx, nil, normAll)
	got := Serialize(terms)
	if got != "rating:s touhou" {
		t.Errorf("expected implicit rating:s, got %q", got)
	}
}

func TestNormalizeHideDeleted(t *testing.T) {
	uctx := UserContext{HideDeleted: true}
	terms, _ := Normalize(context.Background(), Scan("touhou"), uctx, nil, normAll)
	got := Serialize(terms)
	if got != "-status:deleted touhou" {
		t.Errorf("expected implicit -status:deleted, got %q", got)
	}
}

func TestNormalizeStatusIntentSuppressesHideDeleted(t *testing.T) {
	uctx := UserContext{HideDeleted: true}
	terms, _ := Normalize(context.Background(), Scan("status:deleted"), uctx, nil, normAll)
	got := Serialize(terms)
	if got != "status:deleted" {
		t.Errorf("explicit status must win, got %q", got)
	}
}

func TestNormalizeSortAndDedupe(t *testing.T) {
	terms, _ := Normalize(context.Background(), Scan("b a b -c a"), UserContext{}, nil, normAll)
	got := Serialize(terms)
	if got != "-c a b" {
		t.Errorf("expected sorted deduped form, got %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	uctx := UserContext{SafeMode: true, HideDeleted: true}
	once, err := Normalize(context.Background(), Scan("b a"), uctx, nil, normAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := Normalize(context.Background(), once, uctx, nil, normAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Serialize(once) != Serialize(twice) {
		t.Errorf("normalize is not idempotent: %q vs %q", Serialize(once), Serialize(twice))
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := Scan("b a")
	inCopy := Serialize(in)
	if _, err := Normalize(context.Background(), in, UserContext{}, nil, normAll); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Serialize(in) != inCopy {
		t.Errorf("input slice was mutated: %q", Serialize(in))
	}
}
