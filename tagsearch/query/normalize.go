package query

import (
	"context"
	"sort"
)

// AliasResolver maps tag names to their canonical (consequent) names in one
// batch lookup. Names with no alias are absent from the result map.
type AliasResolver interface {
	ResolveTagAliases(ctx context.Context, names []string) (map[string]string, error)
}

// NormalizeOptions selects which normalization stages run.
type NormalizeOptions struct {
	// ApplyImplicit injects metatags derived from user preferences.
	ApplyImplicit bool
	// ApplySort canonicalizes term order and drops exact duplicates.
	ApplySort bool
}

// Normalize rewrites tag terms through their aliases, injects implicit
// metatags from the user context, and canonicalizes term order. The input
// slice is never mutated; normalizing an already-normalized sequence is a
// no-op.
func Normalize(ctx context.Context, terms []Term, uctx UserContext, resolver AliasResolver, opts NormalizeOptions) ([]Term, error) {
	out := make([]Term, len(terms))
	copy(out, terms)

	if resolver != nil {
		var names []string
		for _, t := range out {
			if tt, ok := t.(TagTerm); ok && !tt.Wildcard {
				names = append(names, tt.Name)
			}
		}
		if len(names) > 0 {
			aliases, err := resolver.ResolveTagAliases(ctx, names)
			if err != nil {
				return nil, err
			}
			for i, t := range out {
				tt, ok := t.(TagTerm)
				if !ok || tt.Wildcard {
					continue
				}
				if canon, ok := aliases[tt.Name]; ok && canon != "" {
					tt.Name = canon
					out[i] = tt
				}
			}
		}
	}

	if opts.ApplyImplicit {
		if uctx.SafeMode {
			out = append(out, MetatagTerm{Name: "rating", Value: "s"})
		}
		if uctx.HideDeleted && !hasStatusIntent(out) {
			out = append(out, MetatagTerm{Name: "status", Value: "deleted", Negated: true})
		}
	}

	if opts.ApplySort {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].String() < out[j].String()
		})
		out = dedupe(out)
	}

	return out, nil
}

// hasStatusIntent reports whether the user already expressed any status
// preference; explicit intent always overrides the implicit default.
func hasStatusIntent(terms []Term) bool {
	for _, t := range terms {
		if IsStatusMetatag(t) {
			return true
		}
	}
	return false
}

func dedupe(terms []Term) []Term {
	out := terms[:0]
	var prev string
	for i, t := range terms {
		s := t.String()
		if i == 0 || s != prev {
			out = append(out, t)
		}
		prev = s
	}
	return out
}
