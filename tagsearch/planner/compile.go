package planner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tserrors "github.com/tagsearch/tagsearch/tagsearch/errors"
	"github.com/tagsearch/tagsearch/tagsearch/query"
	"github.com/tagsearch/tagsearch/tagsearch/storage/sqlbuilder"
)

// MaxWildcardExpansion caps how many tag names one wildcard term expands to.
const MaxWildcardExpansion = 100

// TagExpander matches wildcard patterns against the tag-name index.
type TagExpander interface {
	ExpandWildcard(ctx context.Context, pattern string, limit int) ([]string, error)
}

// NameResolver resolves user/pool/favgroup names to row ids. found=false
// compiles to an impossible membership test, not an error.
type NameResolver interface {
	LookupUserID(ctx context.Context, name string) (int64, bool, error)
	LookupPoolID(ctx context.Context, name string) (int64, bool, error)
	LookupFavgroupID(ctx context.Context, name string) (int64, bool, error)
}

// SavedSearchSource returns the stored query strings behind a search: label.
type SavedSearchSource interface {
	SavedSearchQueries(ctx context.Context, userID int64, label string) ([]string, error)
}

// Deps supplies the reference-data collaborators compilation needs.
type Deps struct {
	Tags  TagExpander
	Names NameResolver
	Saved SavedSearchSource
	Now   time.Time
}

// Join is one inferred table join, deduplicated by name. Join SQL never
// allocates builder args (ids are inlined) so argument order stays aligned
// with the WHERE fragments under '?' placeholders.
type Join struct {
	Name string
	SQL  string
}

// CompiledQuery is the immutable output of compilation: conjunct predicate
// fragments, inferred joins, a sort specification, and pagination hints.
// Rebuilding from the same terms and context yields an identical query.
type CompiledQuery struct {
	Terms []query.Term
	Where []string
	Joins []Join
	Order SortSpec

	// OrderValue is the raw order: value, empty for the default sort.
	OrderValue string

	// Limit comes from a limit: metatag; 0 means caller default.
	Limit int

	// ForcedEmpty short-circuits execution to an empty page (custom order
	// with no usable id: list).
	ForcedEmpty bool

	// CuratedGroup adds the grouped favorites join at SQL-assembly time.
	CuratedGroup bool

	// CustomIDs is the explicit result order for order:custom.
	CustomIDs []int64

	// UserDependent searches get per-user count-cache keys.
	UserDependent bool

	Builder  *sqlbuilder.Builder
	BaseArgs []any

	canonicalOnce sync.Once
	canonical     string
}

// Canonical returns the cached canonical serialization of the compiled
// terms. Each query instance owns its own cache.
func (q *CompiledQuery) Canonical() string {
	q.canonicalOnce.Do(func() {
		q.canonical = query.Serialize(q.Terms)
	})
	return q.canonical
}

// IsEmpty reports a term-less match-everything query.
func (q *CompiledQuery) IsEmpty() bool {
	return len(q.Terms) == 0
}

// SingleTerm returns the query's only term, if it has exactly one.
func (q *CompiledQuery) SingleTerm() (query.Term, bool) {
	if len(q.Terms) == 1 {
		return q.Terms[0], true
	}
	return nil, false
}

type compileFunc func(c *compiler, t query.MetatagTerm) (string, error)

var metatagCompilers map[string]compileFunc

// negationAliases: a negated ordinal metatag means plain non-membership.
var negationAliases = map[string]string{
	"ordfav":      "fav",
	"ordpool":     "pool",
	"ordfavgroup": "favgroup",
}

func init() {
	metatagCompilers = map[string]compileFunc{
		"id":        columnRange("p.id"),
		"score":     columnRange("p.score"),
		"upvotes":   columnRange("p.up_score"),
		"downvotes": columnRange("p.down_score"),
		"favcount":  columnRange("p.fav_count"),
		"width":     columnRange("p.image_width"),
		"height":    columnRange("p.image_height"),
		"mpixels":   columnRange("(p.image_width * p.image_height / 1000000.0)"),
		"ratio":     columnRange(ratioExpr),
		"filesize":  columnRange("p.file_size"),
		"md5":       columnRange("p.md5"),
		"parent":    columnRange("p.parent_id"),
		"filetype":  columnRange("p.file_ext"),

		"duration": compileDuration,
		"date":     compileDate,
		"age":      compileDate,

		"rating":     compileRating,
		"status":     compileStatus,
		"child":      compileChild,
		"source":     compileSource,
		"commentary": compileCommentary,

		"pool":        compilePool,
		"ordpool":     compileOrdPool,
		"favgroup":    compileFavgroup,
		"ordfavgroup": compileOrdFavgroup,
		"fav":         compileFav,
		"ordfav":      compileOrdFav,

		"user":      compileUser,
		"approver":  compileApprover,
		"commenter": existsCreator("comments", "c", "AND c.is_deleted = FALSE"),
		"noter":     existsCreator("notes", "n", ""),
		"flagger":   existsCreator("post_flags", "pf", ""),
		"upvote":    compileVote(true),
		"downvote":  compileVote(false),

		"disapproved": compileDisapproved,
		"search":      compileSearch,

		"limit": compileLimit,
		"order": compileOrderMetatag,
	}

	// The registry is closed: every declared metatag must have exactly one
	// compiler. A mismatch is a programming error caught at init.
	for name := range query.CountColumns {
		if _, ok := metatagCompilers[name]; ok {
			panic("planner: duplicate compiler for count metatag " + name)
		}
		col := query.CountColumns[name]
		metatagCompilers[name] = metricsColumnRange("pm." + col)
	}
	for name := range query.Metatags {
		if _, ok := metatagCompilers[name]; !ok {
			panic("planner: no compiler registered for metatag " + name)
		}
	}
	for name := range metatagCompilers {
		if _, ok := query.Metatags[name]; !ok {
			panic("planner: compiler registered for undeclared metatag " + name)
		}
	}
}

type compiler struct {
	ctx  context.Context
	deps Deps
	uctx query.UserContext
	b    *sqlbuilder.Builder
	q    *CompiledQuery

	// target receives predicate fragments; saved-search sub-compilation
	// temporarily redirects it.
	target *[]string

	ordinalKeys   []SortKey
	hasDateFilter bool
	inSavedSearch bool
}

// Compile maps a term sequence to a composite predicate and sort spec. All
// cast and parse failures surface here, before anything touches storage.
func Compile(ctx context.Context, terms []query.Term, uctx query.UserContext, deps Deps, style sqlbuilder.PlaceholderStyle) (*CompiledQuery, error) {
	if deps.Now.IsZero() {
		deps.Now = time.Now()
	}
	q := &CompiledQuery{
		Terms:   terms,
		Builder: sqlbuilder.New(style),
	}
	c := &compiler{ctx: ctx, deps: deps, uctx: uctx, b: q.Builder, q: q, target: &q.Where}

	if err := c.checkTagLimit(terms); err != nil {
		return nil, err
	}

	var tags []query.TagTerm
	for _, t := range terms {
		if tt, ok := t.(query.TagTerm); ok {
			tags = append(tags, tt)
		}
	}
	if err := c.compileTags(tags); err != nil {
		return nil, err
	}

	for _, t := range terms {
		mt, ok := t.(query.MetatagTerm)
		if !ok {
			continue
		}
		frag, err := c.compileMetatag(mt)
		if err != nil {
			return nil, err
		}
		if frag != "" {
			c.where(frag)
		}
		if m, ok := query.Metatags[mt.Name]; ok && m.UserDependent {
			q.UserDependent = true
		}
		if mt.Name == "status" {
			switch strings.ToLower(mt.Value) {
			case "unmoderated", "modqueue":
				q.UserDependent = true
			}
		}
	}

	c.finishOrder()

	q.BaseArgs = append([]any(nil), q.Builder.Args()...)
	return q, nil
}

func (c *compiler) where(frag string) {
	*c.target = append(*c.target, frag)
}

func (c *compiler) checkTagLimit(terms []query.Term) error {
	limit := c.uctx.TagLimit
	if limit <= 0 {
		return nil
	}
	count := 0
	for _, t := range terms {
		switch tt := t.(type) {
		case query.TagTerm:
			count++
		case query.MetatagTerm:
			if !query.IsExempt(tt.Name) {
				count++
			}
		}
	}
	if count > limit {
		return tserrors.TagLimitError(count, limit)
	}
	return nil
}

// compileTags partitions tag terms into required/optional/negated groups:
// ALL of the required names, ANY of the optional names, NONE of the negated
// names, combined with AND.
func (c *compiler) compileTags(tags []query.TagTerm) error {
	var required, optional, negated []string
	for _, t := range tags {
		names := []string{t.Name}
		if t.Wildcard {
			var err error
			names, err = c.expandWildcard(t.Name)
			if err != nil {
				return err
			}
		}
		switch {
		case t.Negated:
			negated = append(negated, names...)
		case t.Optional:
			optional = append(optional, names...)
		case t.Wildcard:
			// A required wildcard is its own ANY-of group.
			c.where(c.tagAnySQL(names, false))
		default:
			required = append(required, names...)
		}
	}

	for _, name := range required {
		c.where(fmt.Sprintf(
			"EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_name = %s)",
			c.b.Arg(name)))
	}
	if len(optional) > 0 {
		c.where(c.tagAnySQL(optional, false))
	}
	if len(negated) > 0 {
		c.where(c.tagAnySQL(negated, true))
	}
	return nil
}

// expandWildcard matches a glob pattern against the tag-name index, capped
// at MaxWildcardExpansion. Zero matches keep the literal pattern so the
// clause still matches nothing instead of degenerating to match-everything.
func (c *compiler) expandWildcard(pattern string) ([]string, error) {
	if c.deps.Tags == nil {
		return []string{pattern}, nil
	}
	names, err := c.deps.Tags.ExpandWildcard(c.ctx, pattern, MaxWildcardExpansion)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []string{pattern}, nil
	}
	return names, nil
}

func (c *compiler) tagAnySQL(names []string, negate bool) string {
	placeholders := make([]string, len(names))
	for i, n := range names {
		placeholders[i] = c.b.Arg(n)
	}
	op := "EXISTS"
	if negate {
		op = "NOT EXISTS"
	}
	return fmt.Sprintf(
		"%s (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_name IN (%s))",
		op, strings.Join(placeholders, ", "))
}

func (c *compiler) compileMetatag(t query.MetatagTerm) (string, error) {
	name := t.Name
	if t.Negated {
		if alias, ok := negationAliases[name]; ok {
			name = alias
		}
	}
	fn, ok := metatagCompilers[name]
	if !ok {
		return "", tserrors.UnknownMetatagError(name)
	}
	frag, err := fn(c, t)
	if err != nil || frag == "" {
		return "", err
	}
	if t.Negated {
		return "NOT (" + frag + ")", nil
	}
	return frag, nil
}

// parseRange casts the term's value per its declared type.
func (c *compiler) parseRange(t query.MetatagTerm) (query.RangeExpr, error) {
	spec := query.Metatags[t.Name]
	return query.ParseRange(t.Value, spec.Type, c.deps.Now)
}

func (c *compiler) arg(v query.Value) string {
	return c.b.Arg(valueArg(v))
}

func valueArg(v query.Value) any {
	switch v.Type {
	case query.TypeInteger, query.TypeFilesize:
		return v.Int
	case query.TypeFloat, query.TypeRatio:
		return v.Float
	case query.TypeDate, query.TypeAge:
		return v.Time.UnixMilli()
	case query.TypeInterval:
		return v.Dur.Seconds()
	default:
		return v.Str
	}
}

// rangeSQL renders a range expression against one column expression.
func (c *compiler) rangeSQL(col string, r query.RangeExpr) string {
	switch e := r.(type) {
	case query.Eq:
		return fmt.Sprintf("%s = %s", col, c.arg(e.V))
	case query.NotEq:
		return fmt.Sprintf("%s != %s", col, c.arg(e.V))
	case query.Less:
		return fmt.Sprintf("%s < %s", col, c.arg(e.V))
	case query.LessEq:
		return fmt.Sprintf("%s <= %s", col, c.arg(e.V))
	case query.Greater:
		return fmt.Sprintf("%s > %s", col, c.arg(e.V))
	case query.GreaterEq:
		return fmt.Sprintf("%s >= %s", col, c.arg(e.V))
	case query.Between:
		hiOp := "<="
		if e.ExclusiveHi {
			hiOp = "<"
		}
		return fmt.Sprintf("(%s >= %s AND %s %s %s)", col, c.arg(e.Lo), col, hiOp, c.arg(e.Hi))
	case query.In:
		parts := make([]string, len(e.Values))
		for i, v := range e.Values {
			parts[i] = c.arg(v)
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(parts, ", "))
	case query.Any:
		return fmt.Sprintf("%s IS NOT NULL", col)
	case query.None:
		return fmt.Sprintf("%s IS NULL", col)
	default:
		return falseSQL
	}
}

const falseSQL = "1 = 0"

func columnRange(col string) compileFunc {
	return func(c *compiler, t query.MetatagTerm) (string, error) {
		r, err := c.parseRange(t)
		if err != nil {
			return "", err
		}
		return c.rangeSQL(col, r), nil
	}
}

func metricsColumnRange(col string) compileFunc {
	return func(c *compiler, t query.MetatagTerm) (string, error) {
		c.requireMetrics()
		r, err := c.parseRange(t)
		if err != nil {
			return "", err
		}
		return c.rangeSQL(col, r), nil
	}
}

func compileDuration(c *compiler, t query.MetatagTerm) (string, error) {
	c.requireMedia()
	r, err := c.parseRange(t)
	if err != nil {
		return "", err
	}
	return c.rangeSQL("ma.duration", r), nil
}

func compileDate(c *compiler, t query.MetatagTerm) (string, error) {
	c.hasDateFilter = true
	r, err := c.parseRange(t)
	if err != nil {
		return "", err
	}
	return c.rangeSQL("p.created_at", r), nil
}

// compileRating accepts single letters or full words; only the first letter
// is stored.
func compileRating(c *compiler, t query.MetatagTerm) (string, error) {
	r, err := c.parseRange(t)
	if err != nil {
		return "", err
	}
	in, ok := r.(query.In)
	if !ok {
		return "", tserrors.ParseError("invalid rating %q", t.Value)
	}
	for i, v := range in.Values {
		if v.Str == "" {
			return "", tserrors.ParseError("invalid rating %q", t.Value)
		}
		in.Values[i].Str = v.Str[:1]
	}
	return c.rangeSQL("p.rating", in), nil
}

func compileStatus(c *compiler, t query.MetatagTerm) (string, error) {
	switch strings.ToLower(t.Value) {
	case "active":
		return "(p.is_deleted = FALSE AND p.is_pending = FALSE AND p.is_flagged = FALSE AND p.is_appealed = FALSE)", nil
	case "deleted":
		return "p.is_deleted = TRUE", nil
	case "pending":
		return "p.is_pending = TRUE", nil
	case "flagged":
		return "p.is_flagged = TRUE", nil
	case "appealed":
		return "p.is_appealed = TRUE", nil
	case "modqueue", "unmoderated":
		return "(p.is_pending = TRUE OR p.is_flagged = TRUE OR p.is_appealed = TRUE)", nil
	case "any", "all":
		return "1 = 1", nil
	default:
		return "", tserrors.ParseError("unknown status %q", t.Value)
	}
}

func compileChild(c *compiler, t query.MetatagTerm) (string, error) {
	switch strings.ToLower(t.Value) {
	case "any":
		return "p.has_children = TRUE", nil
	case "none":
		return "p.has_children = FALSE", nil
	default:
		return "", tserrors.ParseError("invalid child value %q (want any or none)", t.Value)
	}
}

// compileSource matches exactly when the value was quoted, and as a
// case-insensitive prefix otherwise.
func compileSource(c *compiler, t query.MetatagTerm) (string, error) {
	if !t.Quoted {
		switch strings.ToLower(t.Value) {
		case "none":
			return "(p.source IS NULL OR p.source = '')", nil
		case "any":
			return "(p.source IS NOT NULL AND p.source != '')", nil
		}
	}
	if t.Quoted {
		return fmt.Sprintf("p.source = %s", c.b.Arg(t.Value)), nil
	}
	pattern := escapeLike(strings.ToLower(t.Value)) + "%"
	return fmt.Sprintf(`LOWER(p.source) LIKE %s ESCAPE '\'`, c.b.Arg(pattern)), nil
}

// compileCommentary searches the translated and original commentary fields:
// exact field equality for quoted values, substring otherwise.
func compileCommentary(c *compiler, t query.MetatagTerm) (string, error) {
	switch strings.ToLower(t.Value) {
	case "any":
		return "EXISTS (SELECT 1 FROM commentaries cm WHERE cm.post_id = p.id)", nil
	case "none":
		return "NOT EXISTS (SELECT 1 FROM commentaries cm WHERE cm.post_id = p.id)", nil
	}
	cols := []string{"cm.original_title", "cm.original_description", "cm.translated_title", "cm.translated_description"}
	var parts []string
	if t.Quoted {
		ph := c.b.Arg(t.Value)
		for _, col := range cols {
			parts = append(parts, fmt.Sprintf("%s = %s", col, ph))
		}
	} else {
		ph := c.b.Arg("%" + escapeLike(strings.ToLower(t.Value)) + "%")
		for _, col := range cols {
			parts = append(parts, fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, col, ph))
		}
	}
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM commentaries cm WHERE cm.post_id = p.id AND (%s))",
		strings.Join(parts, " OR ")), nil
}

func compilePool(c *compiler, t query.MetatagTerm) (string, error) {
	switch strings.ToLower(t.Value) {
	case "any":
		return "EXISTS (SELECT 1 FROM pool_posts pp WHERE pp.post_id = p.id)", nil
	case "none":
		return "NOT EXISTS (SELECT 1 FROM pool_posts pp WHERE pp.post_id = p.id)", nil
	}
	id, err := c.resolvePool(t.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM pool_posts pp WHERE pp.post_id = p.id AND pp.pool_id = %s)",
		c.b.Arg(id)), nil
}

// compileOrdPool joins the pool membership row so the default order can
// follow the pool's ordinal positions.
func compileOrdPool(c *compiler, t query.MetatagTerm) (string, error) {
	if c.inSavedSearch {
		return compilePool(c, t)
	}
	id, err := c.resolvePool(t.Value)
	if err != nil {
		return "", err
	}
	c.addJoin("ordpool", fmt.Sprintf(
		"JOIN pool_posts opp ON opp.post_id = p.id AND opp.pool_id = %d", id))
	c.ordinalKeys = []SortKey{{Expr: "opp.position"}}
	return "", nil
}

func compileFavgroup(c *compiler, t query.MetatagTerm) (string, error) {
	id, err := c.resolveFavgroup(t.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM favgroup_posts fgp WHERE fgp.post_id = p.id AND fgp.favgroup_id = %s)",
		c.b.Arg(id)), nil
}

func compileOrdFavgroup(c *compiler, t query.MetatagTerm) (string, error) {
	if c.inSavedSearch {
		return compileFavgroup(c, t)
	}
	id, err := c.resolveFavgroup(t.Value)
	if err != nil {
		return "", err
	}
	c.addJoin("ordfavgroup", fmt.Sprintf(
		"JOIN favgroup_posts ofg ON ofg.post_id = p.id AND ofg.favgroup_id = %d", id))
	c.ordinalKeys = []SortKey{{Expr: "ofg.position"}}
	return "", nil
}

func compileFav(c *compiler, t query.MetatagTerm) (string, error) {
	id, viewable, err := c.resolveFavUser(t.Value)
	if err != nil {
		return "", err
	}
	if !viewable {
		return falseSQL, nil
	}
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM favorites f WHERE f.post_id = p.id AND f.user_id = %s)",
		c.b.Arg(id)), nil
}

// compileOrdFav joins the favorite row so the default order can follow
// most-recently-favorited-first.
func compileOrdFav(c *compiler, t query.MetatagTerm) (string, error) {
	if c.inSavedSearch {
		return compileFav(c, t)
	}
	id, viewable, err := c.resolveFavUser(t.Value)
	if err != nil {
		return "", err
	}
	if !viewable {
		return falseSQL, nil
	}
	c.addJoin("ordfav", fmt.Sprintf(
		"JOIN favorites ofv ON ofv.post_id = p.id AND ofv.user_id = %d", id))
	c.ordinalKeys = []SortKey{{Expr: "ofv.id", Desc: true}}
	return "", nil
}

func compileUser(c *compiler, t query.MetatagTerm) (string, error) {
	id, err := c.resolveUser(t.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("p.uploader_id = %s", c.b.Arg(id)), nil
}

func compileApprover(c *compiler, t query.MetatagTerm) (string, error) {
	switch strings.ToLower(t.Value) {
	case "any":
		return "p.approver_id IS NOT NULL", nil
	case "none":
		return "p.approver_id IS NULL", nil
	}
	id, err := c.resolveUser(t.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("p.approver_id = %s", c.b.Arg(id)), nil
}

// existsCreator builds the who-commented/noted/flagged family: any/none
// test presence, a name tests that user's rows.
func existsCreator(table, alias, extra string) compileFunc {
	return func(c *compiler, t query.MetatagTerm) (string, error) {
		base := fmt.Sprintf("SELECT 1 FROM %s %s WHERE %s.post_id = p.id %s", table, alias, alias, extra)
		switch strings.ToLower(t.Value) {
		case "any":
			return fmt.Sprintf("EXISTS (%s)", base), nil
		case "none":
			return fmt.Sprintf("NOT EXISTS (%s)", base), nil
		}
		id, err := c.resolveUser(t.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("EXISTS (%s AND %s.creator_id = %s)", base, alias, c.b.Arg(id)), nil
	}
}

func compileVote(up bool) compileFunc {
	return func(c *compiler, t query.MetatagTerm) (string, error) {
		id, err := c.resolveUser(t.Value)
		if err != nil {
			return "", err
		}
		cmp := "> 0"
		if !up {
			cmp = "< 0"
		}
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM post_votes pv WHERE pv.post_id = p.id AND pv.user_id = %s AND pv.score %s)",
			c.b.Arg(id), cmp), nil
	}
}

func compileDisapproved(c *compiler, t query.MetatagTerm) (string, error) {
	if strings.EqualFold(t.Value, "any") {
		return "EXISTS (SELECT 1 FROM post_disapprovals pd WHERE pd.post_id = p.id)", nil
	}
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM post_disapprovals pd WHERE pd.post_id = p.id AND pd.reason = %s)",
		c.b.Arg(strings.ToLower(t.Value))), nil
}

// compileSearch expands the acting user's saved searches under the label
// into an OR of their compiled predicates. Saved queries cannot nest
// further search: terms.
func compileSearch(c *compiler, t query.MetatagTerm) (string, error) {
	if c.inSavedSearch || c.uctx.Anonymous || c.deps.Saved == nil {
		return falseSQL, nil
	}
	queries, err := c.deps.Saved.SavedSearchQueries(c.ctx, c.uctx.UserID, strings.ToLower(t.Value))
	if err != nil {
		return "", err
	}
	var alternatives []string
	for _, raw := range queries {
		frag, err := c.savedConjunction(query.Scan(raw))
		if err != nil {
			// A malformed saved search must not reject the outer query.
			continue
		}
		if frag != "" {
			alternatives = append(alternatives, frag)
		}
	}
	if len(alternatives) == 0 {
		return falseSQL, nil
	}
	return "(" + strings.Join(alternatives, " OR ") + ")", nil
}

// savedConjunction compiles one saved query's terms into a single AND
// fragment, redirecting the fragment target.
func (c *compiler) savedConjunction(terms []query.Term) (string, error) {
	var frags []string
	savedTarget, savedOrdinal := c.target, c.ordinalKeys
	c.target = &frags
	c.inSavedSearch = true
	defer func() {
		c.target = savedTarget
		c.ordinalKeys = savedOrdinal
		c.inSavedSearch = false
	}()

	var tags []query.TagTerm
	for _, t := range terms {
		if tt, ok := t.(query.TagTerm); ok {
			tags = append(tags, tt)
		}
	}
	if err := c.compileTags(tags); err != nil {
		return "", err
	}
	for _, t := range terms {
		mt, ok := t.(query.MetatagTerm)
		if !ok {
			continue
		}
		frag, err := c.compileMetatag(mt)
		if err != nil {
			return "", err
		}
		if frag != "" {
			frags = append(frags, frag)
		}
	}
	if len(frags) == 0 {
		return "", nil
	}
	return "(" + strings.Join(frags, " AND ") + ")", nil
}

func compileLimit(c *compiler, t query.MetatagTerm) (string, error) {
	n, err := strconv.Atoi(t.Value)
	if err != nil || n < 0 {
		return "", tserrors.ParseError("invalid limit %q", t.Value)
	}
	if !c.inSavedSearch {
		c.q.Limit = n
	}
	return "", nil
}

// order: affects sorting, not filtering. A saved query's order is ignored.
func compileOrderMetatag(c *compiler, t query.MetatagTerm) (string, error) {
	if !c.inSavedSearch {
		c.q.OrderValue = strings.ToLower(t.Value)
	}
	return "", nil
}

func (c *compiler) resolveUser(name string) (int64, error) {
	if c.deps.Names == nil {
		return 0, nil
	}
	id, found, err := c.deps.Names.LookupUserID(c.ctx, strings.ToLower(name))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil // membership test against id 0 matches nothing
	}
	return id, nil
}

// resolveFavUser accepts a user name or numeric id, mirroring the count
// fast path so the reported total and the executed page agree.
func (c *compiler) resolveFavUser(ref string) (int64, bool, error) {
	id, perr := strconv.ParseInt(ref, 10, 64)
	if perr != nil {
		var err error
		id, err = c.resolveUser(ref)
		if err != nil {
			return 0, false, err
		}
	}
	if id == 0 {
		return 0, true, nil // membership test against id 0 matches nothing
	}
	if c.uctx.CanViewFavorites == nil || !c.uctx.CanViewFavorites(id) {
		return id, false, nil
	}
	return id, true, nil
}

func (c *compiler) resolvePool(ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	if c.deps.Names == nil {
		return 0, nil
	}
	id, found, err := c.deps.Names.LookupPoolID(c.ctx, strings.ToLower(ref))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return id, nil
}

func (c *compiler) resolveFavgroup(ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	if c.deps.Names == nil {
		return 0, nil
	}
	id, found, err := c.deps.Names.LookupFavgroupID(c.ctx, strings.ToLower(ref))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return id, nil
}

func (c *compiler) addJoin(name, sql string) {
	for _, j := range c.q.Joins {
		if j.Name == name {
			return
		}
	}
	c.q.Joins = append(c.q.Joins, Join{Name: name, SQL: sql})
}

func (c *compiler) requireMetrics() {
	c.addJoin("post_metrics", "JOIN post_metrics pm ON pm.post_id = p.id")
}

func (c *compiler) requireMedia() {
	c.addJoin("media_assets", "JOIN media_assets ma ON ma.post_id = p.id")
}

// finishOrder compiles the order value and applies the order interactions:
// ordinal joins take over the default sort, a custom order needs the id:
// list, and a date/age filter rewrites the default id sort to the timestamp
// column.
func (c *compiler) finishOrder() {
	spec := CompileOrder(c.q.OrderValue)

	if spec.RequiresMetrics {
		c.requireMetrics()
	}
	if spec.RequiresMedia {
		c.requireMedia()
	}

	if spec.Custom {
		ids := c.customOrderIDs()
		if len(ids) == 0 {
			c.q.ForcedEmpty = true
		}
		c.q.CustomIDs = ids
	}
	if spec.Curated {
		c.q.CuratedGroup = true
	}

	if spec.Rank {
		cutoff := c.deps.Now.Add(-2 * 24 * time.Hour).UnixMilli()
		c.where(fmt.Sprintf("p.created_at >= %s", c.b.Arg(cutoff)))
	}

	if spec.DefaultID {
		if len(c.ordinalKeys) > 0 {
			spec = SortSpec{Keys: append(c.ordinalKeys, SortKey{Expr: "p.id", Desc: true})}
		} else if c.hasDateFilter {
			spec = spec.RewriteForTimestamp()
		}
	}
	c.q.Order = spec
}

// customOrderIDs pulls the explicit ordering out of an id: metatag holding
// an In list. Anything else forces an empty result set.
func (c *compiler) customOrderIDs() []int64 {
	for _, t := range c.q.Terms {
		mt, ok := t.(query.MetatagTerm)
		if !ok || mt.Name != "id" || mt.Negated {
			continue
		}
		r, err := query.ParseRange(mt.Value, query.TypeInteger, c.deps.Now)
		if err != nil {
			return nil
		}
		switch e := r.(type) {
		case query.In:
			ids := make([]int64, 0, len(e.Values))
			for _, v := range e.Values {
				ids = append(ids, v.Int)
			}
			return ids
		case query.Eq:
			return []int64{e.V.Int}
		}
	}
	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
