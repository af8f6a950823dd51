package risp

import (
	"strconv"
	"strings"
	"unicode"
)

type reader struct {
	input []rune
	pos   int
}

// Read parses exactly one form from text. Empty or truncated input
// fails with ErrEOF.
func Read(text string) (Form, error) {
	r := &reader{input: []rune(text)}
	r.skipWhitespace()
	if r.eof() {
		return Form{}, errEOF("no input")
	}
	f, err := r.readForm()
	if err != nil {
		return Form{}, err
	}
	r.skipWhitespace()
	if !r.eof() {
		if isCloser(r.peek()) {
			return Form{}, unbalanced("unexpected '" + string(r.peek()) + "'")
		}
		return Form{}, invalidArgf("unexpected input after form at position %d", r.pos)
	}
	return f, nil
}

// ReadAll parses every top-level form in text.
func ReadAll(text string) ([]Form, error) {
	r := &reader{input: []rune(text)}
	var forms []Form
	for {
		r.skipWhitespace()
		if r.eof() {
			return forms, nil
		}
		f, err := r.readForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
}

func (r *reader) eof() bool  { return r.pos >= len(r.input) }
func (r *reader) peek() rune { return r.input[r.pos] }

func (r *reader) readForm() (Form, error) {
	if r.eof() {
		return Form{}, errEOF("expected a form")
	}
	switch ch := r.peek(); ch {
	case '(':
		return r.readSeq(')', List)
	case '[':
		return r.readSeq(']', Vector)
	case '{':
		r.pos++
		items, err := r.readItems('}')
		if err != nil {
			return Form{}, err
		}
		return HashMapOf(items...)
	case ')', ']', '}':
		r.pos++
		return Form{}, unbalanced("unexpected '" + string(ch) + "'")
	case '\'':
		return r.readMacro(1, "quote")
	case '`':
		return r.readMacro(1, "quasiquote")
	case '~':
		if r.pos+1 < len(r.input) && r.input[r.pos+1] == '@' {
			return r.readMacro(2, "splice-unquote")
		}
		return r.readMacro(1, "unquote")
	case '@':
		return r.readMacro(1, "deref")
	case '^':
		return r.readMeta()
	case '"':
		return r.readString()
	default:
		return r.readAtom()
	}
}

func (r *reader) readSeq(closer rune, build func(...Form) Form) (Form, error) {
	r.pos++
	items, err := r.readItems(closer)
	if err != nil {
		return Form{}, err
	}
	return build(items...), nil
}

func (r *reader) readItems(closer rune) ([]Form, error) {
	items := []Form{}
	for {
		r.skipWhitespace()
		if r.eof() {
			return nil, errEOF("expected '" + string(closer) + "'")
		}
		if ch := r.peek(); isCloser(ch) {
			r.pos++
			if ch != closer {
				return nil, unbalanced("expected '" + string(closer) + "', got '" + string(ch) + "'")
			}
			return items, nil
		}
		item, err := r.readForm()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (r *reader) readMacro(width int, name string) (Form, error) {
	r.pos += width
	r.skipWhitespace()
	inner, err := r.readForm()
	if err != nil {
		return Form{}, err
	}
	return List(Sym(name), inner), nil
}

// ^meta form reads as (with-meta form meta).
func (r *reader) readMeta() (Form, error) {
	r.pos++
	r.skipWhitespace()
	meta, err := r.readForm()
	if err != nil {
		return Form{}, err
	}
	r.skipWhitespace()
	target, err := r.readForm()
	if err != nil {
		return Form{}, err
	}
	return List(Sym("with-meta"), target, meta), nil
}

func (r *reader) readString() (Form, error) {
	r.pos++
	var buf strings.Builder
	for !r.eof() {
		ch := r.peek()
		if ch == '\\' {
			r.pos++
			if r.eof() {
				break
			}
			switch esc := r.peek(); esc {
			case 'n':
				buf.WriteRune('\n')
			case '\\':
				buf.WriteRune('\\')
			case '"':
				buf.WriteRune('"')
			default:
				return Form{}, invalidArgf("unknown escape sequence: \\%c", esc)
			}
			r.pos++
			continue
		}
		r.pos++
		if ch == '"' {
			return Str(buf.String()), nil
		}
		buf.WriteRune(ch)
	}
	return Form{}, errEOF("expected '\"'")
}

func (r *reader) readAtom() (Form, error) {
	start := r.pos
	for !r.eof() && !isDelimiter(r.peek()) {
		r.pos++
	}
	token := string(r.input[start:r.pos])
	if token == "" {
		r.pos++
		return Form{}, invalidArgf("unexpected character %q", r.input[start])
	}

	switch token {
	case "nil":
		return Nil(), nil
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}

	if len(token) > 1 && token[0] == ':' {
		return Keyword(token[1:]), nil
	}

	if looksNumeric(token) {
		if i, err := strconv.ParseInt(token, 10, 64); err == nil {
			return Int(i), nil
		}
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return Float(f), nil
		}
		return Form{}, invalidNumber(token)
	}

	return Sym(token), nil
}

// looksNumeric reports whether token starts like a number: a digit,
// or a sign followed by a digit.
func looksNumeric(token string) bool {
	c := token[0]
	if c >= '0' && c <= '9' {
		return true
	}
	return (c == '-' || c == '+') && len(token) > 1 && token[1] >= '0' && token[1] <= '9'
}

// skipWhitespace also skips commas and ';' comments.
func (r *reader) skipWhitespace() {
	for !r.eof() {
		ch := r.peek()
		if ch == ';' {
			for !r.eof() && r.peek() != '\n' {
				r.pos++
			}
			continue
		}
		if !unicode.IsSpace(ch) && ch != ',' {
			break
		}
		r.pos++
	}
}

func isCloser(ch rune) bool {
	return ch == ')' || ch == ']' || ch == '}'
}

func isDelimiter(ch rune) bool {
	if unicode.IsSpace(ch) {
		return true
	}
	switch ch {
	case ',', '(', ')', '[', ']', '{', '}', '"', ';', '\'', '`':
		return true
	}
	return false
}
