package risp

import (
	"strconv"
	"strings"
)

// PrStr renders f as text. In readable mode strings are quoted and
// escaped so the output can be read back; otherwise they print raw.
func PrStr(f Form, readably bool) string {
	var sb strings.Builder
	writeForm(&sb, f, readably)
	return sb.String()
}

func (f Form) String() string {
	return PrStr(f, true)
}

// formatFloat keeps a decimal point on integral floats so the text reads
// back as a Float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}

func writeForm(sb *strings.Builder, f Form, readably bool) {
	switch f.Kind {
	case KindNil:
		sb.WriteString("nil")
	case KindBool:
		sb.WriteString(strconv.FormatBool(f.Bool))
	case KindInt:
		sb.WriteString(strconv.FormatInt(f.Int, 10))
	case KindFloat:
		sb.WriteString(formatFloat(f.Float))
	case KindSymbol:
		sb.WriteString(f.Str)
	case KindKeyword:
		sb.WriteByte(':')
		sb.WriteString(f.Str)
	case KindString:
		if readably {
			writeEscaped(sb, f.Str)
		} else {
			sb.WriteString(f.Str)
		}
	case KindList:
		writeSeq(sb, "(", ")", f.Items, readably)
	case KindVector:
		writeSeq(sb, "[", "]", f.Items, readably)
	case KindHashMap:
		sb.WriteByte('{')
		first := true
		for k, v := range f.Map.All() {
			if !first {
				sb.WriteByte(' ')
			}
			first = false
			writeForm(sb, k, readably)
			sb.WriteByte(' ')
			writeForm(sb, v, readably)
		}
		sb.WriteByte('}')
	case KindNative:
		sb.WriteString("#<function>")
	case KindUserFn:
		if f.Fn.IsMacro {
			sb.WriteString("#<macro>")
		} else {
			sb.WriteString("#<function>")
		}
	case KindAtom:
		sb.WriteString("(atom ")
		writeForm(sb, f.Atom.Value, readably)
		sb.WriteByte(')')
	default:
		sb.WriteString("<unknown>")
	}
}

func writeSeq(sb *strings.Builder, open, close string, items []Form, readably bool) {
	sb.WriteString(open)
	for i, item := range items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		writeForm(sb, item, readably)
	}
	sb.WriteString(close)
}

func writeEscaped(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, ch := range s {
		switch ch {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(ch)
		}
	}
	sb.WriteByte('"')
}
