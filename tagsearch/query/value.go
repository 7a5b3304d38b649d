package query

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	tserrors "github.com/tagsearch/tagsearch/tagsearch/errors"
)

// Value is a typed scalar cast from a raw metatag value. Exactly one of the
// payload fields is meaningful, selected by Type.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Time  time.Time
	Dur   time.Duration
	Str   string
}

// Compare orders two values of the same type. Used to sort range endpoints
// so Between is always low-to-high.
func (v Value) Compare(o Value) int {
	switch v.Type {
	case TypeInteger, TypeFilesize:
		return cmpOrdered(v.Int, o.Int)
	case TypeFloat, TypeRatio:
		return cmpOrdered(v.Float, o.Float)
	case TypeDate, TypeAge:
		return v.Time.Compare(o.Time)
	case TypeInterval:
		return cmpOrdered(v.Dur, o.Dur)
	default:
		return strings.Compare(v.Str, o.Str)
	}
}

func cmpOrdered[T int64 | float64 | time.Duration](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

var (
	md5Re      = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
	filesizeRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)([kKmM]?)[bB]?$`)
	durationRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(s(?:econds?)?|mi(?:nutes?)?|h(?:ours?)?|d(?:ays?)?|w(?:eeks?)?|mo(?:nths?)?|m|y(?:ears?)?)$`)
)

// Cast parses a raw metatag value into a typed scalar. now anchors the
// relative-to-absolute conversion of age values.
func Cast(raw string, t ValueType, now time.Time) (Value, error) {
	switch t {
	case TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, tserrors.ParseError("invalid integer %q", raw)
		}
		return Value{Type: t, Int: n}, nil

	case TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, tserrors.ParseError("invalid number %q", raw)
		}
		return Value{Type: t, Float: f}, nil

	case TypeDate:
		ts, err := parseDate(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Time: ts}, nil

	case TypeAge:
		// Elapsed time, converted to the absolute timestamp "now minus
		// duration". The comparison direction inverts in ParseRange.
		d, err := parseDuration(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Time: now.Add(-d), Dur: d}, nil

	case TypeInterval:
		d, err := parseDuration(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Dur: d}, nil

	case TypeMD5:
		if !md5Re.MatchString(raw) {
			return Value{}, tserrors.ParseError("invalid md5 %q", raw)
		}
		return Value{Type: t, Str: strings.ToLower(raw)}, nil

	case TypeEnum, TypeName:
		return Value{Type: t, Str: strings.ToLower(raw)}, nil

	case TypeText:
		return Value{Type: t, Str: raw}, nil

	case TypeRatio:
		f, err := parseRatio(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Float: f}, nil

	case TypeFilesize:
		n, err := parseFilesize(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: t, Int: n}, nil

	default:
		return Value{}, tserrors.ParseError("uncastable value type %d", t)
	}
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
	} {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, tserrors.ParseError("invalid date %q", raw)
}

func parseDuration(raw string) (time.Duration, error) {
	m := durationRe.FindStringSubmatch(strings.ToLower(raw))
	if m == nil {
		return 0, tserrors.ParseError("invalid duration %q", raw)
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, tserrors.ParseError("invalid duration %q", raw)
	}
	var unit time.Duration
	switch {
	case strings.HasPrefix(m[2], "s"):
		unit = time.Second
	case strings.HasPrefix(m[2], "mi"):
		unit = time.Minute
	case strings.HasPrefix(m[2], "h"):
		unit = time.Hour
	case strings.HasPrefix(m[2], "d"):
		unit = 24 * time.Hour
	case strings.HasPrefix(m[2], "w"):
		unit = 7 * 24 * time.Hour
	case strings.HasPrefix(m[2], "mo"), m[2] == "m":
		unit = 30 * 24 * time.Hour // approximate
	case strings.HasPrefix(m[2], "y"):
		unit = 365 * 24 * time.Hour // approximate
	}
	return time.Duration(amount * float64(unit)), nil
}

// parseRatio accepts "W:H" or a bare decimal, rounded to 2 places to match
// the derived aspect-ratio column.
func parseRatio(raw string) (float64, error) {
	if w, h, ok := strings.Cut(raw, ":"); ok {
		wf, werr := strconv.ParseFloat(w, 64)
		hf, herr := strconv.ParseFloat(h, 64)
		if werr != nil || herr != nil {
			return 0, tserrors.ParseError("invalid ratio %q", raw)
		}
		if hf == 0 {
			return 0, tserrors.ParseError("invalid ratio %q: zero height", raw)
		}
		return round2(wf / hf), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, tserrors.ParseError("invalid ratio %q", raw)
	}
	return round2(f), nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func parseFilesize(raw string) (int64, error) {
	m := filesizeRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, tserrors.ParseError("invalid filesize %q", raw)
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, tserrors.ParseError("invalid filesize %q", raw)
	}
	switch strings.ToLower(m[2]) {
	case "k":
		f *= 1024
	case "m":
		f *= 1024 * 1024
	}
	return int64(f), nil
}

// hasFilesizeUnit reports whether a filesize literal carries a k/m suffix.
// Suffixed sizes are approximate, so a bare value gets a tolerance band.
func hasFilesizeUnit(raw string) bool {
	m := filesizeRe.FindStringSubmatch(raw)
	return m != nil && m[2] != ""
}
