package query

import (
	"strings"
	"unicode"
)

// Scan tokenizes a raw search string into ordered terms. Scanning never
// fails: malformed input degrades to literal tag terms.
func Scan(input string) []Term {
	s := &scanner{input: []rune(input)}
	var terms []Term
	for {
		s.skipSpace()
		if s.eof() {
			return terms
		}
		terms = append(terms, s.scanTerm())
	}
}

type scanner struct {
	input []rune
	pos   int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.input)
}

func (s *scanner) peek(offset int) rune {
	pos := s.pos + offset
	if pos < len(s.input) {
		return s.input[pos]
	}
	return 0
}

func (s *scanner) skipSpace() {
	for !s.eof() && unicode.IsSpace(s.input[s.pos]) {
		s.pos++
	}
}

func (s *scanner) scanTerm() Term {
	// At most one sign prefix is consumed; a second operator character is
	// part of the name, so "-tag" negates while "-~tag" is the tag "~tag".
	var negated, optional bool
	switch s.input[s.pos] {
	case '-':
		if s.pos+1 < len(s.input) && !unicode.IsSpace(s.peek(1)) {
			negated = true
			s.pos++
		}
	case '~':
		if s.pos+1 < len(s.input) && !unicode.IsSpace(s.peek(1)) {
			optional = true
			s.pos++
		}
	}

	if name, ok := s.tryMetatagName(); ok {
		value, quoted := s.scanValue()
		if name == "order" {
			value = CanonicalOrderValue(value)
		}
		// Optional has no meaning for metatags; a leading ~ is dropped.
		return MetatagTerm{Name: name, Value: value, Negated: negated, Quoted: quoted}
	}

	name := strings.ToLower(s.scanBareWord())
	return TagTerm{
		Name:     name,
		Negated:  negated,
		Optional: optional,
		Wildcard: strings.ContainsRune(name, '*'),
	}
}

// tryMetatagName matches <registry-name>: case-insensitively at the current
// position, consuming it only on success.
func (s *scanner) tryMetatagName() (string, bool) {
	i := s.pos
	for i < len(s.input) && isMetatagNameChar(s.input[i]) {
		i++
	}
	if i == s.pos || i >= len(s.input) || s.input[i] != ':' {
		return "", false
	}
	name, ok := CanonicalMetatagName(string(s.input[s.pos:i]))
	if !ok {
		return "", false
	}
	s.pos = i + 1 // consume name and colon
	return name, true
}

func isMetatagNameChar(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

// scanValue reads a metatag value: double-quoted, single-quoted, or unquoted
// with backslash-escaped spaces.
func (s *scanner) scanValue() (value string, quoted bool) {
	if s.eof() {
		return "", false
	}
	if q := s.input[s.pos]; q == '"' || q == '\'' {
		if v, ok := s.scanQuoted(q); ok {
			return v, true
		}
		// Unterminated quote: fall back to literal consumption so scanning
		// never hangs. The quote character stays in the value.
	}
	return s.scanBareWord(), false
}

func (s *scanner) scanQuoted(q rune) (string, bool) {
	start := s.pos
	s.pos++ // opening quote
	var sb strings.Builder
	for !s.eof() {
		ch := s.input[s.pos]
		if ch == q {
			s.pos++
			return sb.String(), true
		}
		if ch == '\\' && s.pos+1 < len(s.input) {
			next := s.input[s.pos+1]
			if next == q || next == '\\' {
				sb.WriteRune(next)
				s.pos += 2
				continue
			}
		}
		sb.WriteRune(ch)
		s.pos++
	}
	s.pos = start
	return "", false
}

func (s *scanner) scanBareWord() string {
	var sb strings.Builder
	for !s.eof() {
		ch := s.input[s.pos]
		if ch == '\\' && s.peek(1) == ' ' {
			sb.WriteRune(' ')
			s.pos += 2
			continue
		}
		if unicode.IsSpace(ch) {
			break
		}
		sb.WriteRune(ch)
		s.pos++
	}
	return sb.String()
}
