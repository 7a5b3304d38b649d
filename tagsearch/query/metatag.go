package query

import "strings"

// ValueType declares how a metatag value is cast.
type ValueType int

const (
	TypeInteger ValueType = iota
	TypeFloat
	TypeDate
	TypeAge      // duration literal, converted to an absolute timestamp
	TypeInterval // duration literal, kept as a duration
	TypeMD5
	TypeEnum
	TypeRatio
	TypeFilesize
	TypeText // free-text; quoted means exact match
	TypeName // tag/user/pool name, lowercased
)

// Metatag describes one entry of the closed metatag registry.
type Metatag struct {
	Type ValueType

	// Exempt metatags never count toward the user's tag limit.
	Exempt bool

	// UserDependent marks searches whose result set depends on the acting
	// user's identity or permissions; their counts are cached per user.
	UserDependent bool
}

// Metatags is the closed registry. The planner validates at init that every
// name here has exactly one compiler; unknown names are a compile failure,
// not a silent fallthrough.
var Metatags = map[string]Metatag{
	"id":        {Type: TypeInteger},
	"score":     {Type: TypeInteger},
	"upvotes":   {Type: TypeInteger},
	"downvotes": {Type: TypeInteger},
	"favcount":  {Type: TypeInteger},

	"comment_count":         {Type: TypeInteger},
	"deleted_comment_count": {Type: TypeInteger},
	"note_count":            {Type: TypeInteger},
	"flag_count":            {Type: TypeInteger},
	"child_count":           {Type: TypeInteger},
	"pool_count":            {Type: TypeInteger},

	"tagcount": {Type: TypeInteger},
	"gentags":  {Type: TypeInteger},
	"arttags":  {Type: TypeInteger},
	"chartags": {Type: TypeInteger},
	"copytags": {Type: TypeInteger},
	"metatags": {Type: TypeInteger},

	"width":    {Type: TypeInteger},
	"height":   {Type: TypeInteger},
	"mpixels":  {Type: TypeFloat},
	"ratio":    {Type: TypeRatio},
	"filesize": {Type: TypeFilesize},
	"duration": {Type: TypeInterval},

	"date": {Type: TypeDate},
	"age":  {Type: TypeAge},

	"rating":   {Type: TypeEnum, Exempt: true},
	"status":   {Type: TypeEnum, Exempt: true},
	"filetype": {Type: TypeEnum},

	"md5":        {Type: TypeMD5},
	"source":     {Type: TypeText},
	"commentary": {Type: TypeText},

	"parent": {Type: TypeInteger},
	"child":  {Type: TypeEnum},

	"pool":        {Type: TypeName},
	"ordpool":     {Type: TypeName},
	"favgroup":    {Type: TypeName},
	"ordfavgroup": {Type: TypeName},

	"fav":    {Type: TypeName, UserDependent: true},
	"ordfav": {Type: TypeName, UserDependent: true},

	"user":      {Type: TypeName},
	"approver":  {Type: TypeName},
	"commenter": {Type: TypeName},
	"noter":     {Type: TypeName},
	"flagger":   {Type: TypeName},

	"upvote":      {Type: TypeName, UserDependent: true},
	"downvote":    {Type: TypeName, UserDependent: true},
	"disapproved": {Type: TypeEnum, UserDependent: true},
	"search":      {Type: TypeName, UserDependent: true},

	"limit": {Type: TypeInteger, Exempt: true},
	"order": {Type: TypeEnum},
}

// metatagSynonyms rewrite to a canonical registry name at scan time.
var metatagSynonyms = map[string]string{
	"type": "filetype",

	// count synonyms
	"comments":         "comment_count",
	"deleted_comments": "deleted_comment_count",
	"notes":            "note_count",
	"flags":            "flag_count",
	"children":         "child_count",
	"pools":            "pool_count",
}

// CountColumns maps count metatags to their post_metrics column; the
// counters are denormalized aggregates maintained by ingest.
var CountColumns = map[string]string{
	"comment_count":         "comment_count",
	"deleted_comment_count": "deleted_comment_count",
	"note_count":            "note_count",
	"flag_count":            "flag_count",
	"child_count":           "child_count",
	"pool_count":            "pool_count",
	"tagcount":              "tag_count",
	"gentags":               "tag_count_general",
	"arttags":               "tag_count_artist",
	"chartags":              "tag_count_character",
	"copytags":              "tag_count_copyright",
	"metatags":              "tag_count_meta",
}

// CanonicalMetatagName lowercases a candidate metatag name and applies
// synonym rewriting. ok is false for names outside the registry.
func CanonicalMetatagName(name string) (string, bool) {
	name = strings.ToLower(name)
	if canon, ok := metatagSynonyms[name]; ok {
		name = canon
	}
	_, ok := Metatags[name]
	return name, ok
}

// CanonicalOrderValue rewrites an order value that names a count synonym to
// its canonical _count form, preserving an _asc/_desc suffix.
func CanonicalOrderValue(value string) string {
	value = strings.ToLower(value)
	base, suffix := value, ""
	for _, s := range []string{"_asc", "_desc"} {
		if strings.HasSuffix(value, s) {
			base, suffix = strings.TrimSuffix(value, s), s
			break
		}
	}
	if canon, ok := metatagSynonyms[base]; ok && strings.HasSuffix(canon, "_count") {
		return canon + suffix
	}
	return value
}

// IsStatusMetatag reports whether a term expresses explicit status intent,
// which suppresses the implicit hide-deleted filter.
func IsStatusMetatag(t Term) bool {
	mt, ok := t.(MetatagTerm)
	return ok && mt.Name == "status"
}

// IsExempt reports whether a metatag name is exempt from the tag limit.
func IsExempt(name string) bool {
	m, ok := Metatags[name]
	return ok && m.Exempt
}
