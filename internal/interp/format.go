package interp

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// formatField renders one f-string replacement field.
func formatField(v Value, conversion byte, spec string) (Value, error) {
	switch conversion {
	case 'r', 'a':
		v = Str(Repr(v))
	case 's':
		v = Str(ToStr(v))
	}
	s, err := FormatValue(v, spec)
	if err != nil {
		return nil, err
	}
	return Str(s), nil
}

// formatSpec is a parsed format-spec mini-language string.
type formatSpec struct {
	fill      rune
	align     byte
	sign      byte
	alt       bool
	width     int
	group     byte
	precision int
	verb      byte
}

func parseSpec(spec string) (formatSpec, error) {
	fs := formatSpec{fill: ' ', precision: -1}
	s := spec
	if r, size := utf8.DecodeRuneInString(s); size > 0 && len(s) > size && strings.IndexByte("<>^=", s[size]) >= 0 {
		fs.fill, fs.align = r, s[size]
		s = s[size+1:]
	} else if s != "" && strings.IndexByte("<>^=", s[0]) >= 0 {
		fs.align = s[0]
		s = s[1:]
	}
	if s != "" && strings.IndexByte("+- ", s[0]) >= 0 {
		fs.sign = s[0]
		s = s[1:]
	}
	if s != "" && s[0] == '#' {
		fs.alt = true
		s = s[1:]
	}
	if s != "" && s[0] == '0' {
		if fs.align == 0 {
			fs.fill, fs.align = '0', '='
		}
		s = s[1:]
	}
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n > 0 {
		fs.width, _ = strconv.Atoi(s[:n])
		if n > 9 || checkLen(fs.width) != nil {
			return fs, raise("MemoryError", "")
		}
		s = s[n:]
	}
	if s != "" && (s[0] == ',' || s[0] == '_') {
		fs.group = s[0]
		s = s[1:]
	}
	if s != "" && s[0] == '.' {
		n = 1
		for n < len(s) && s[n] >= '0' && s[n] <= '9' {
			n++
		}
		if n == 1 {
			return fs, valueErrorf("Format specifier missing precision")
		}
		fs.precision, _ = strconv.Atoi(s[1:n])
		s = s[n:]
	}
	if len(s) > 1 {
		return fs, valueErrorf("Invalid format specifier '%s'", spec)
	}
	if s != "" {
		fs.verb = s[0]
	}
	return fs, nil
}

// FormatValue applies a format spec to a value, as format(v, spec) does.
func FormatValue(v Value, spec string) (string, error) {
	if spec == "" {
		return ToStr(v), nil
	}
	fs, err := parseSpec(spec)
	if err != nil {
		return "", err
	}

	if b, ok := v.(Bool); ok && fs.verb == 0 && fs.precision < 0 && fs.sign == 0 && fs.group == 0 {
		return pad(ToStr(b), fs, '<'), nil
	}
	if i, ok := asInt(v); ok {
		return formatInt(i, fs)
	}
	if f, ok := v.(Float); ok {
		return formatFloatSpec(float64(f), fs)
	}
	if fs.verb != 0 && fs.verb != 's' {
		return "", valueErrorf("Unknown format code '%c' for object of type '%s'", fs.verb, v.Type())
	}
	if fs.sign != 0 {
		return "", valueErrorf("Sign not allowed in string format specifier")
	}
	s := ToStr(v)
	if fs.precision >= 0 {
		runes := []rune(s)
		if len(runes) > fs.precision {
			s = string(runes[:fs.precision])
		}
	}
	return pad(s, fs, '<'), nil
}

func formatInt(i int64, fs formatSpec) (string, error) {
	switch fs.verb {
	case 'e', 'E', 'f', 'F', 'g', 'G', '%':
		return formatFloatSpec(float64(i), fs)
	case 'c':
		return pad(string(rune(i)), fs, '<'), nil
	}
	if fs.precision >= 0 {
		return "", valueErrorf("Precision not allowed in integer format specifier")
	}
	neg := i < 0
	u := uint64(i)
	if neg {
		u = uint64(-i)
	}
	var digits, prefix string
	switch fs.verb {
	case 0, 'd', 'n':
		digits = strconv.FormatUint(u, 10)
	case 'x':
		digits, prefix = strconv.FormatUint(u, 16), "0x"
	case 'X':
		digits, prefix = strings.ToUpper(strconv.FormatUint(u, 16)), "0X"
	case 'o':
		digits, prefix = strconv.FormatUint(u, 8), "0o"
	case 'b':
		digits, prefix = strconv.FormatUint(u, 2), "0b"
	default:
		return "", valueErrorf("Unknown format code '%c' for object of type 'int'", fs.verb)
	}
	if fs.group != 0 {
		digits = group(digits, fs.group)
	}
	if !fs.alt {
		prefix = ""
	}
	return padNumber(signOf(neg, fs.sign)+prefix, digits, fs), nil
}

func formatFloatSpec(f float64, fs formatSpec) (string, error) {
	neg := math.Signbit(f) && !math.IsNaN(f)
	a := math.Abs(f)
	prec := fs.precision
	var body string
	switch {
	case math.IsInf(a, 0):
		body = "inf"
	case math.IsNaN(a):
		body = "nan"
	default:
		switch fs.verb {
		case 'f', 'F':
			body = strconv.FormatFloat(a, 'f', defaultPrec(prec), 64)
		case 'e', 'E':
			body = strconv.FormatFloat(a, 'e', defaultPrec(prec), 64)
		case 'g', 'G':
			p := defaultPrec(prec)
			if p == 0 {
				p = 1
			}
			body = strconv.FormatFloat(a, 'g', p, 64)
		case '%':
			body = strconv.FormatFloat(a*100, 'f', defaultPrec(prec), 64) + "%"
		case 0:
			if prec < 0 {
				body = formatFloat(a)
			} else {
				p := prec
				if p == 0 {
					p = 1
				}
				body = strconv.FormatFloat(a, 'g', p, 64)
				if !strings.ContainsAny(body, ".e") {
					body += ".0"
				}
			}
		default:
			return "", valueErrorf("Unknown format code '%c' for object of type 'float'", fs.verb)
		}
	}
	if fs.verb == 'E' || fs.verb == 'G' || fs.verb == 'F' {
		body = strings.ToUpper(body)
	}
	if fs.group != 0 {
		intPart, rest := body, ""
		if i := strings.IndexAny(body, ".e%"); i >= 0 {
			intPart, rest = body[:i], body[i:]
		}
		if intPart != "inf" && intPart != "nan" {
			body = group(intPart, fs.group) + rest
		}
	}
	return padNumber(signOf(neg, fs.sign), body, fs), nil
}

func defaultPrec(p int) int {
	if p < 0 {
		return 6
	}
	return p
}

func signOf(neg bool, sign byte) string {
	switch {
	case neg:
		return "-"
	case sign == '+':
		return "+"
	case sign == ' ':
		return " "
	}
	return ""
}

func group(digits string, sep byte) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func padNumber(sign, body string, fs formatSpec) string {
	if fs.align == '=' {
		n := fs.width - utf8.RuneCountInString(sign) - utf8.RuneCountInString(body)
		if n > 0 {
			return sign + strings.Repeat(string(fs.fill), n) + body
		}
		return sign + body
	}
	return pad(sign+body, fs, '>')
}

func pad(s string, fs formatSpec, def byte) string {
	n := fs.width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	fill := string(fs.fill)
	align := fs.align
	if align == 0 || align == '=' {
		align = def
	}
	switch align {
	case '<':
		return s + strings.Repeat(fill, n)
	case '^':
		left := n / 2
		return strings.Repeat(fill, left) + s + strings.Repeat(fill, n-left)
	}
	return strings.Repeat(fill, n) + s
}

// formatMethod implements str.format with automatic, positional and keyword fields.
func formatMethod(tmpl string, args []Value, kwargs []Kwarg) (string, error) {
	var b strings.Builder
	auto := 0
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c == '}' {
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", valueErrorf("Single '}' encountered in format string")
		}
		if c != '{' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(tmpl) && tmpl[i+1] == '{' {
			b.WriteByte('{')
			i++
			continue
		}
		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			return "", valueErrorf("Single '{' encountered in format string")
		}
		field := tmpl[i+1 : i+end]
		i += end

		name, spec, _ := strings.Cut(field, ":")
		var conv byte
		if j := strings.IndexByte(name, '!'); j >= 0 {
			if j+1 < len(name) {
				conv = name[j+1]
			}
			name = name[:j]
		}

		var v Value
		switch {
		case name == "":
			if auto >= len(args) {
				return "", raise("IndexError", "Replacement index %d out of range for positional args tuple", auto)
			}
			v = args[auto]
			auto++
		case name[0] >= '0' && name[0] <= '9':
			n, err := strconv.Atoi(name)
			if err != nil || n >= len(args) {
				return "", raise("IndexError", "Replacement index %s out of range for positional args tuple", name)
			}
			v = args[n]
		default:
			kv, ok := kwarg(kwargs, name)
			if !ok {
				return "", raise("KeyError", "%s", quoteStr(name))
			}
			v = kv
		}
		out, err := formatField(v, conv, spec)
		if err != nil {
			return "", err
		}
		b.WriteString(string(out.(Str)))
	}
	return b.String(), nil
}

// percentFormat implements printf-style `format % values` for s, r, d, i, f, e, g, x and o.
func percentFormat(format string, values Value) (Value, error) {
	args := []Value{values}
	if t, ok := values.(Tuple); ok {
		args = t
	}
	var b strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return nil, valueErrorf("incomplete format")
		}
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}
		start := i
		for i < len(format) && strings.IndexByte("-+ 0#.0123456789", format[i]) >= 0 {
			i++
		}
		if i >= len(format) {
			return nil, valueErrorf("incomplete format")
		}
		flags := format[start:i]
		verb := format[i]
		if next >= len(args) {
			return nil, typeErrorf("not enough arguments for format string")
		}
		arg := args[next]
		next++

		spec := flags
		if strings.HasPrefix(spec, "-") {
			spec = "<" + spec[1:]
		}
		var (
			s   string
			err error
		)
		switch verb {
		case 's':
			s, err = FormatValue(Str(ToStr(arg)), strings.TrimLeft(spec, "+ #0"))
		case 'r':
			s, err = FormatValue(Str(Repr(arg)), strings.TrimLeft(spec, "+ #0"))
		case 'd', 'i':
			if f, ok := arg.(Float); ok {
				arg = Int(int64(f))
			}
			s, err = FormatValue(arg, spec+"d")
		case 'f', 'F', 'e', 'E', 'g', 'G', 'x', 'X', 'o':
			s, err = FormatValue(arg, spec+string(verb))
		default:
			return nil, valueErrorf("unsupported format character '%c'", verb)
		}
		if err != nil {
			return nil, typeErrorf("%%%c format: a real number is required, not %s", verb, arg.Type())
		}
		b.WriteString(s)
	}
	if next < len(args) {
		return nil, typeErrorf("not all arguments converted during string formatting")
	}
	return Str(b.String()), nil
}
