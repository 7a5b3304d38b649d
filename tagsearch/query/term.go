package query

import "strings"

// Term is one lexical unit of a parsed search. It is a closed union of
// TagTerm and MetatagTerm; the planner matches exhaustively over the two.
type Term interface {
	isTerm()
	String() string
}

// TagTerm is a plain tag-membership clause.
type TagTerm struct {
	Name     string
	Negated  bool
	Optional bool
	Wildcard bool
}

func (TagTerm) isTerm() {}

func (t TagTerm) String() string {
	switch {
	case t.Negated:
		return "-" + t.Name
	case t.Optional:
		return "~" + t.Name
	default:
		return t.Name
	}
}

// MetatagTerm is a name:value clause targeting a structured attribute.
type MetatagTerm struct {
	Name    string
	Value   string
	Negated bool

	// Quoted records whether the value was quote-delimited in the source
	// string. Free-text metatags (source, commentary) match exactly when
	// quoted and as substrings otherwise, and serialization re-quotes.
	Quoted bool
}

func (MetatagTerm) isTerm() {}

func (t MetatagTerm) String() string {
	var sb strings.Builder
	if t.Negated {
		sb.WriteByte('-')
	}
	sb.WriteString(t.Name)
	sb.WriteByte(':')
	if t.Quoted || needsQuoting(t.Value) {
		sb.WriteByte('"')
		sb.WriteString(escapeValue(t.Value))
		sb.WriteByte('"')
	} else {
		sb.WriteString(t.Value)
	}
	return sb.String()
}

// Serialize renders a term sequence back to query-string form. Values that
// contain whitespace, or that were originally quoted, are re-quoted with
// internal quotes and backslashes escaped.
func Serialize(terms []Term) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, " ")
}

func needsQuoting(v string) bool {
	return strings.ContainsAny(v, " \t\n\r\"'")
}

func escapeValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

// UserContext carries the read-only per-search parameters supplied by the
// caller. The engine never mutates it.
type UserContext struct {
	UserID    int64
	Anonymous bool

	// TagLimit bounds the number of non-exempt terms. Compilation treats
	// values <= 0 as unbounded; the engine substitutes its default limit
	// for 0, so a negative value disables the limit end to end.
	TagLimit int

	SafeMode    bool
	HideDeleted bool

	// CanViewFavorites decides whether the acting user may see the target
	// user's favorites. Nil means public-only (deny).
	CanViewFavorites func(ownerID int64) bool
}
