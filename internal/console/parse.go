package console

import (
	"fmt"
	"strconv"
	"strings"
)

// tokenize splits a command line on blanks. Single or double quotes keep
// blanks inside one token, so `filter "my file"` filters on "my file".
func tokenize(s string) []string {
	var tokens []string
	var current strings.Builder
	inSingle := false
	inDouble := false
	wasQuoted := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
			wasQuoted = true
		case ch == '"' && !inSingle:
			inDouble = !inDouble
			wasQuoted = true
		case (ch == ' ' || ch == '\t') && !inSingle && !inDouble:
			if current.Len() > 0 || wasQuoted {
				tokens = append(tokens, current.String())
				current.Reset()
				wasQuoted = false
			}
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 || wasQuoted {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// ParseIndexList parses "0,2,5-7" into indices in the order written.
// Ranges may be written high-low.
func ParseIndexList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || a < 0 {
			return nil, fmt.Errorf("invalid index %q", part)
		}
		if !isRange {
			out = append(out, a)
			continue
		}
		b, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil || b < 0 {
			return nil, fmt.Errorf("invalid range %q", part)
		}
		if a > b {
			a, b = b, a
		}
		for i := a; i <= b; i++ {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty index list %q", s)
	}
	return out, nil
}
