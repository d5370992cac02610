package pyast

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// stringLiteral describes the delimiters of a single string token.
type stringLiteral struct {
	raw    bool
	format bool
	// offsets of the body within the token text
	bodyStart int
	bodyEnd   int
}

// splitStringLiteral locates the prefix and quotes of a Python string token.
func splitStringLiteral(text string) (stringLiteral, error) {
	q := strings.IndexAny(text, `'"`)
	if q < 0 {
		return stringLiteral{}, fmt.Errorf("malformed string literal %q", text)
	}
	prefix := strings.ToLower(text[:q])
	for _, r := range prefix {
		if !strings.ContainsRune("rbuf", r) {
			return stringLiteral{}, fmt.Errorf("unknown string prefix %q", text[:q])
		}
	}
	width := 1
	if len(text)-q >= 6 && (strings.HasPrefix(text[q:], `"""`) || strings.HasPrefix(text[q:], `'''`)) {
		width = 3
	}
	lit := stringLiteral{
		raw:       strings.ContainsRune(prefix, 'r'),
		format:    strings.ContainsRune(prefix, 'f'),
		bodyStart: q + width,
		bodyEnd:   len(text) - width,
	}
	if lit.bodyEnd < lit.bodyStart {
		return stringLiteral{}, fmt.Errorf("malformed string literal %q", text)
	}
	return lit, nil
}

// unescape decodes Python backslash escapes. Unknown escapes are kept verbatim,
// as Python does.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
			// line continuation
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(v))
			i = j - 1
		case 'x', 'u', 'U':
			n := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+1+n <= len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32); err == nil && utf8.ValidRune(rune(v)) {
					b.WriteRune(rune(v))
					i += n
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(e)
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String()
}

// decodeSegment decodes a literal run of a string body. In f-strings doubled
// braces stand for a single brace.
func decodeSegment(s string, lit stringLiteral) string {
	if lit.format {
		s = strings.ReplaceAll(s, "{{", "{")
		s = strings.ReplaceAll(s, "}}", "}")
	}
	if lit.raw {
		return s
	}
	return unescape(s)
}
