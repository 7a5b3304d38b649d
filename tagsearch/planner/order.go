package planner

import "strings"

// SortKey is one ORDER BY component over the aliased posts row (p), the
// post_metrics join (pm), or the media_assets join (ma).
type SortKey struct {
	Expr string
	Desc bool
}

func (k SortKey) SQL() string {
	if k.Desc {
		return k.Expr + " DESC"
	}
	return k.Expr + " ASC"
}

// SortSpec is a compiled sort specification. Every named order carries a
// deterministic id tie-break so pagination stays stable on duplicate keys.
type SortSpec struct {
	Keys []SortKey

	// Rank restricts to a trailing 2-day window and sorts by a decay score.
	Rank bool
	// Curated sorts by the count of favorites from curator users, which
	// needs a grouped join built at SQL-assembly time.
	Curated bool
	// Custom sorts by the explicit id: list; without one the result set is
	// forced empty.
	Custom bool
	Random bool
	// Unordered omits ORDER BY entirely.
	Unordered bool

	// DefaultID marks the plain identifier sort, the only case the
	// scan-strategy optimizer applies to and the one rewritten to the
	// timestamp column under a date/age filter.
	DefaultID bool
	IDAsc     bool

	RequiresMetrics bool
	RequiresMedia   bool
}

type namedOrder struct {
	expr     string
	desc     bool // direction before any _asc/_desc suffix
	metrics  bool
	media    bool
}

var namedOrders = map[string]namedOrder{
	"score":      {expr: "p.score", desc: true},
	"favcount":   {expr: "p.fav_count", desc: true},
	"created_at": {expr: "p.created_at", desc: true},
	"created":    {expr: "p.created_at", desc: true},
	"change":     {expr: "p.updated_at", desc: true},
	"comment":    {expr: "p.last_commented_at", desc: true},
	"note":       {expr: "p.last_noted_at", desc: true},
	"mpixels":    {expr: "(p.image_width * p.image_height / 1000000.0)", desc: true},
	"filesize":   {expr: "p.file_size", desc: true},
	"ratio":      {expr: ratioExpr, desc: true},

	"tagcount": {expr: "pm.tag_count", desc: true, metrics: true},
	"gentags":  {expr: "pm.tag_count_general", desc: true, metrics: true},
	"arttags":  {expr: "pm.tag_count_artist", desc: true, metrics: true},
	"chartags": {expr: "pm.tag_count_character", desc: true, metrics: true},
	"copytags": {expr: "pm.tag_count_copyright", desc: true, metrics: true},
	"metatags": {expr: "pm.tag_count_meta", desc: true, metrics: true},

	"comment_count":         {expr: "pm.comment_count", desc: true, metrics: true},
	"deleted_comment_count": {expr: "pm.deleted_comment_count", desc: true, metrics: true},
	"note_count":            {expr: "pm.note_count", desc: true, metrics: true},
	"flag_count":            {expr: "pm.flag_count", desc: true, metrics: true},
	"child_count":           {expr: "pm.child_count", desc: true, metrics: true},
	"pool_count":            {expr: "pm.pool_count", desc: true, metrics: true},

	"duration": {expr: "ma.duration", desc: true, media: true},
}

// ratioExpr guards the divisor with NULLIF: a zero-height row evaluates to
// NULL instead of raising a division error on postgres.
const ratioExpr = "(p.image_width * 1.0 / NULLIF(p.image_height, 0))"

// rankExpr combines score magnitude with recency decay; the window filter is
// added by the compiler.
const rankExpr = "(LN(CASE WHEN p.score > 0 THEN p.score + 1 ELSE 1 END) + p.created_at / 35000000.0)"

// CompileOrder maps an order: value to a sort specification. An empty value
// is the default identifier sort; an unrecognized one falls back to
// descending-by-identifier rather than failing.
func CompileOrder(value string) SortSpec {
	value = strings.ToLower(value)

	base, forced := value, 0
	if strings.HasSuffix(value, "_asc") {
		base, forced = strings.TrimSuffix(value, "_asc"), 1
	} else if strings.HasSuffix(value, "_desc") {
		base, forced = strings.TrimSuffix(value, "_desc"), -1
	}

	switch base {
	case "":
		return idSort(true)
	case "id":
		return idSort(forced == -1)
	case "rank":
		return SortSpec{
			Rank: true,
			Keys: []SortKey{{Expr: rankExpr, Desc: true}, {Expr: "p.id", Desc: true}},
		}
	case "curated":
		return SortSpec{Curated: true}
	case "custom":
		return SortSpec{Custom: true}
	case "random":
		return SortSpec{Random: true}
	case "none":
		return SortSpec{Unordered: true}
	case "portrait":
		return ratioSort(false)
	case "landscape":
		return ratioSort(true)
	}

	if o, ok := namedOrders[base]; ok {
		desc := o.desc
		if forced == 1 {
			desc = false
		} else if forced == -1 {
			desc = true
		}
		return SortSpec{
			Keys:            []SortKey{{Expr: o.expr, Desc: desc}, {Expr: "p.id", Desc: desc}},
			RequiresMetrics: o.metrics,
			RequiresMedia:   o.media,
		}
	}

	return idSort(true)
}

func idSort(desc bool) SortSpec {
	return SortSpec{
		Keys:      []SortKey{{Expr: "p.id", Desc: desc}},
		DefaultID: true,
		IDAsc:     !desc,
	}
}

func ratioSort(desc bool) SortSpec {
	return SortSpec{
		Keys: []SortKey{
			{Expr: ratioExpr, Desc: desc},
			{Expr: "p.id", Desc: desc},
		},
	}
}

// RewriteForTimestamp replaces the default identifier sort with the filtered
// timestamp column. The identifier index is a poor access path once a
// timestamp range is the primary selectivity driver.
func (s SortSpec) RewriteForTimestamp() SortSpec {
	if !s.DefaultID {
		return s
	}
	desc := !s.IDAsc
	return SortSpec{
		Keys: []SortKey{
			{Expr: "p.created_at", Desc: desc},
			{Expr: "p.id", Desc: desc},
		},
	}
}
