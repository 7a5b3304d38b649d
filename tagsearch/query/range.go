package query

import (
	"regexp"
	"strings"
	"time"

	tserrors "github.com/tagsearch/tagsearch/tagsearch/errors"
)

// RangeExpr is the parsed form of a metatag value: a closed union the
// planner matches exhaustively.
type RangeExpr interface {
	isRange()
}

type Eq struct{ V Value }
type NotEq struct{ V Value }
type Less struct{ V Value }
type LessEq struct{ V Value }
type Greater struct{ V Value }
type GreaterEq struct{ V Value }

// Between always holds Lo <= Hi; endpoints are sorted at construction.
type Between struct {
	Lo, Hi      Value
	ExclusiveHi bool
}

type In struct{ Values []Value }

// Any matches rows where the field is present (not null/empty).
type Any struct{}

// None matches rows where the field is absent.
type None struct{}

func (Eq) isRange()        {}
func (NotEq) isRange()     {}
func (Less) isRange()      {}
func (LessEq) isRange()    {}
func (Greater) isRange()   {}
func (GreaterEq) isRange() {}
func (Between) isRange()   {}
func (In) isRange()        {}
func (Any) isRange()       {}
func (None) isRange()      {}

var listSplitRe = regexp.MustCompile(`[, ]+`)

// ParseRange parses a raw metatag value into a range expression for the
// declared type. All failures surface as parse errors before any predicate
// touches storage.
func ParseRange(raw string, t ValueType, now time.Time) (RangeExpr, error) {
	if raw == "" {
		return nil, tserrors.ParseError("empty value")
	}

	// Enum values are membership tests, never ranges.
	if t == TypeEnum {
		return parseList(raw, t, now)
	}

	switch {
	case strings.Contains(raw, "..."):
		lo, hi, ok := splitRange(raw, "...")
		if !ok {
			break
		}
		return parseBetween(lo, hi, t, now, true)

	case strings.HasPrefix(raw, "<="):
		return parseCmp(raw[2:], t, now, cmpLessEq)
	case strings.HasPrefix(raw, "<"):
		return parseCmp(raw[1:], t, now, cmpLess)
	case strings.HasPrefix(raw, ">="):
		return parseCmp(raw[2:], t, now, cmpGreaterEq)
	case strings.HasPrefix(raw, ">"):
		return parseCmp(raw[1:], t, now, cmpGreater)
	case strings.HasPrefix(raw, "!="):
		return parseCmp(raw[2:], t, now, cmpNotEq)

	case strings.HasPrefix(raw, ".."):
		return parseCmp(raw[2:], t, now, cmpLessEq)
	case strings.HasSuffix(raw, ".."):
		return parseCmp(raw[:len(raw)-2], t, now, cmpGreaterEq)
	case strings.Contains(raw, ".."):
		lo, hi, _ := splitRange(raw, "..")
		return parseBetween(lo, hi, t, now, false)
	}

	switch strings.ToLower(raw) {
	case "any":
		return Any{}, nil
	case "none":
		return None{}, nil
	}

	if strings.Contains(raw, ",") {
		return parseList(raw, t, now)
	}

	return parseBare(raw, t, now)
}

func splitRange(raw, sep string) (lo, hi string, ok bool) {
	lo, hi, found := strings.Cut(raw, sep)
	return lo, hi, found && lo != "" && hi != ""
}

func parseBetween(loRaw, hiRaw string, t ValueType, now time.Time, exclusiveHi bool) (RangeExpr, error) {
	lo, err := Cast(loRaw, t, now)
	if err != nil {
		return nil, err
	}
	hi, err := Cast(hiRaw, t, now)
	if err != nil {
		return nil, err
	}
	if lo.Compare(hi) > 0 {
		lo, hi = hi, lo
	}
	return Between{Lo: lo, Hi: hi, ExclusiveHi: exclusiveHi}, nil
}

type cmpKind int

const (
	cmpLess cmpKind = iota
	cmpLessEq
	cmpGreater
	cmpGreaterEq
	cmpNotEq
)

func parseCmp(raw string, t ValueType, now time.Time, kind cmpKind) (RangeExpr, error) {
	v, err := Cast(raw, t, now)
	if err != nil {
		return nil, err
	}
	if t == TypeAge {
		// Age runs opposite to the underlying timestamp: an OLDER post has
		// a SMALLER created_at.
		switch kind {
		case cmpLess:
			kind = cmpGreater
		case cmpLessEq:
			kind = cmpGreaterEq
		case cmpGreater:
			kind = cmpLess
		case cmpGreaterEq:
			kind = cmpLessEq
		}
	}
	switch kind {
	case cmpLess:
		return Less{V: v}, nil
	case cmpLessEq:
		return LessEq{V: v}, nil
	case cmpGreater:
		return Greater{V: v}, nil
	case cmpGreaterEq:
		return GreaterEq{V: v}, nil
	default:
		return NotEq{V: v}, nil
	}
}

func parseList(raw string, t ValueType, now time.Time) (RangeExpr, error) {
	var values []Value
	for _, part := range listSplitRe.Split(raw, -1) {
		if part == "" {
			continue
		}
		v, err := Cast(part, t, now)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, tserrors.ParseError("empty list value %q", raw)
	}
	return In{Values: values}, nil
}

// parseBare handles a value with no range syntax. Derived float columns and
// unit-suffixed filesizes get a 5% symmetric tolerance band; dates and ages
// get a full-day band. Everything else is exact.
func parseBare(raw string, t ValueType, now time.Time) (RangeExpr, error) {
	v, err := Cast(raw, t, now)
	if err != nil {
		return nil, err
	}
	switch t {
	case TypeFloat, TypeRatio:
		lo := Value{Type: t, Float: v.Float * 0.95}
		hi := Value{Type: t, Float: v.Float * 1.05}
		if lo.Compare(hi) > 0 {
			lo, hi = hi, lo
		}
		return Between{Lo: lo, Hi: hi}, nil

	case TypeFilesize:
		if !hasFilesizeUnit(raw) {
			return Eq{V: v}, nil
		}
		lo := Value{Type: t, Int: v.Int * 95 / 100}
		hi := Value{Type: t, Int: v.Int * 105 / 100}
		return Between{Lo: lo, Hi: hi}, nil

	case TypeDate, TypeAge:
		day := startOfDay(v.Time)
		lo := Value{Type: t, Time: day}
		hi := Value{Type: t, Time: day.Add(24 * time.Hour)}
		return Between{Lo: lo, Hi: hi, ExclusiveHi: true}, nil

	default:
		return Eq{V: v}, nil
	}
}

func startOfDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}
