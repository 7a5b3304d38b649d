package planner

import (
	"fmt"
	"strconv"
	"strings"
)

// selectCols is the fixed posts projection, aliased p.
const selectCols = "p.id, p.created_at, p.updated_at, p.uploader_id, p.score, p.fav_count, " +
	"p.rating, p.source, p.md5, p.file_ext, p.file_size, p.image_width, p.image_height, " +
	"p.tag_string, p.is_deleted, p.is_pending, p.is_flagged"

// curatedJoin feeds the grouped favorite count behind order:curated.
const curatedJoin = "JOIN favorites cf ON cf.post_id = p.id " +
	"JOIN users cu ON cu.id = cf.user_id AND cu.is_curator = TRUE"

// BuildSearchSQL assembles the final page SELECT. Limit and offset are
// trusted integers and inlined, so the argument list stays exactly the
// compiled query's base args under '?' placeholders.
func BuildSearchSQL(q *CompiledQuery, limit, offset int) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectCols)
	sb.WriteString("\nFROM posts p")
	writeJoins(&sb, q)
	writeWhere(&sb, q)
	if q.CuratedGroup {
		sb.WriteString("\nGROUP BY p.id")
	}
	if clause := orderClause(q); clause != "" {
		sb.WriteString("\nORDER BY ")
		sb.WriteString(clause)
	}
	fmt.Fprintf(&sb, "\nLIMIT %d", limit)
	if offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", offset)
	}
	return sb.String()
}

// BuildCountSQL assembles the exact-count SELECT over the same predicate.
// It carries only the compiled base args.
func BuildCountSQL(q *CompiledQuery) string {
	var sb strings.Builder
	if q.CuratedGroup {
		sb.WriteString("SELECT COUNT(*) FROM (SELECT p.id\nFROM posts p")
	} else {
		sb.WriteString("SELECT COUNT(*)\nFROM posts p")
	}
	writeJoins(&sb, q)
	writeWhere(&sb, q)
	if q.CuratedGroup {
		sb.WriteString("\nGROUP BY p.id) grouped")
	}
	return sb.String()
}

// BuildEstimateSQL assembles a bare id SELECT over the predicate, with no
// aggregate and no limit, for feeding the backend's plan-row estimator.
func BuildEstimateSQL(q *CompiledQuery) string {
	var sb strings.Builder
	sb.WriteString("SELECT p.id\nFROM posts p")
	writeJoins(&sb, q)
	writeWhere(&sb, q)
	if q.CuratedGroup {
		sb.WriteString("\nGROUP BY p.id")
	}
	return sb.String()
}

func writeJoins(sb *strings.Builder, q *CompiledQuery) {
	for _, j := range q.Joins {
		sb.WriteString("\n")
		sb.WriteString(j.SQL)
	}
	if q.CuratedGroup {
		sb.WriteString("\n")
		sb.WriteString(curatedJoin)
	}
}

func writeWhere(sb *strings.Builder, q *CompiledQuery) {
	conjuncts := q.Where
	if q.ForcedEmpty {
		conjuncts = append(append([]string(nil), conjuncts...), falseSQL)
	}
	if len(conjuncts) == 0 {
		return
	}
	sb.WriteString("\nWHERE ")
	sb.WriteString(strings.Join(conjuncts, "\n  AND "))
}

func orderClause(q *CompiledQuery) string {
	spec := q.Order
	switch {
	case spec.Custom:
		return customOrderClause(q.CustomIDs)
	case spec.Curated, q.CuratedGroup:
		return "COUNT(cf.user_id) DESC, p.id DESC"
	case spec.Random:
		return "RANDOM()"
	case spec.Unordered:
		return ""
	}
	parts := make([]string, len(spec.Keys))
	for i, k := range spec.Keys {
		parts[i] = k.SQL()
	}
	return strings.Join(parts, ", ")
}

// customOrderClause renders the explicit id list as a CASE ladder; ids are
// integers and safe to inline.
func customOrderClause(ids []int64) string {
	if len(ids) == 0 {
		return "p.id DESC"
	}
	var sb strings.Builder
	sb.WriteString("CASE p.id")
	for i, id := range ids {
		sb.WriteString(" WHEN ")
		sb.WriteString(strconv.FormatInt(id, 10))
		sb.WriteString(" THEN ")
		sb.WriteString(strconv.Itoa(i))
	}
	fmt.Fprintf(&sb, " ELSE %d END", len(ids))
	return sb.String()
}
