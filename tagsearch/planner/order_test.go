package planner

import (
	"testing"
)

func TestCompileOrderDefault(t *testing.T) {
	spec := CompileOrder("")
	if !spec.DefaultID || spec.IDAsc {
		t.Fatalf("expected default id desc, got %#v", spec)
	}
	if len(spec.Keys) != 1 || spec.Keys[0].SQL() != "p.id DESC" {
		t.Errorf("unexpected keys %#v", spec.Keys)
	}
}

func TestCompileOrderNamed(t *testing.T) {
	spec := CompileOrder("score")
	if len(spec.Keys) != 2 {
		t.Fatalf("expected key plus id tie-break, got %#v", spec.Keys)
	}
	if spec.Keys[0].SQL() != "p.score DESC" || spec.Keys[1].SQL() != "p.id DESC" {
		t.Errorf("unexpected keys %#v", spec.Keys)
	}
}

func TestCompileOrderSuffixes(t *testing.T) {
	spec := CompileOrder("score_asc")
	if spec.Keys[0].SQL() != "p.score ASC" {
		t.Errorf("expected ascending score, got %s", spec.Keys[0].SQL())
	}
	spec = CompileOrder("id_asc")
	if !spec.DefaultID || !spec.IDAsc {
		t.Errorf("expected ascending id sort, got %#v", spec)
	}
}

func TestCompileOrderMetricsJoin(t *testing.T) {
	spec := CompileOrder("tagcount")
	if !spec.RequiresMetrics {
		t.Errorf("expected metrics join requirement, got %#v", spec)
	}
	spec = CompileOrder("duration")
	if !spec.RequiresMedia {
		t.Errorf("expected media join requirement, got %#v", spec)
	}
}

func TestCompileOrderSpecials(t *testing.T) {
	if spec := CompileOrder("random"); !spec.Random {
		t.Errorf("expected random, got %#v", spec)
	}
	if spec := CompileOrder("none"); !spec.Unordered {
		t.Errorf("expected unordered, got %#v", spec)
	}
	if spec := CompileOrder("curated"); !spec.Curated {
		t.Errorf("expected curated, got %#v", spec)
	}
	if spec := CompileOrder("custom"); !spec.Custom {
		t.Errorf("expected custom, got %#v", spec)
	}
	spec := CompileOrder("rank")
	if !spec.Rank || len(spec.Keys) != 2 {
		t.Errorf("expected rank with tie-break, got %#v", spec)
	}
}

func TestCompileOrderRatioGuardsZeroHeight(t *testing.T) {
	want := "(p.image_width * 1.0 / NULLIF(p.image_height, 0)) DESC"
	if spec := CompileOrder("ratio"); spec.Keys[0].SQL() != want {
		t.Errorf("unexpected ratio key %q", spec.Keys[0].SQL())
	}
	if spec := CompileOrder("landscape"); spec.Keys[0].SQL() != want {
		t.Errorf("unexpected landscape key %q", spec.Keys[0].SQL())
	}
	if spec := CompileOrder("portrait"); spec.Keys[0].SQL() != "(p.image_width * 1.0 / NULLIF(p.image_height, 0)) ASC" {
		t.Errorf("unexpected portrait key %q", spec.Keys[0].SQL())
	}
}

func TestCompileOrderUnknownFallsBack(t *testing.T) {
	spec := CompileOrder("definitely_not_an_order")
	if !spec.DefaultID || spec.IDAsc {
		t.Errorf("expected default id fallback, got %#v", spec)
	}
}

func TestCompileOrderCountSynonymCanonical(t *testing.T) {
	// The scanner canonicalizes comments -> comment_count before the value
	// reaches the order compiler.
	spec := CompileOrder("comment_count")
	if spec.Keys[0].SQL() != "pm.comment_count DESC" {
		t.Errorf("unexpected keys %#v", spec.Keys)
	}
}

func TestRewriteForTimestamp(t *testing.T) {
	spec := CompileOrder("").RewriteForTimestamp()
	if spec.Keys[0].SQL() != "p.created_at DESC" || spec.Keys[1].SQL() != "p.id DESC" {
		t.Errorf("unexpected keys %#v", spec.Keys)
	}
	// Non-default sorts are untouched.
	spec = CompileOrder("score").RewriteForTimestamp()
	if spec.Keys[0].SQL() != "p.score DESC" {
		t.Errorf("score sort must not be rewritten, got %#v", spec.Keys)
	}
}
