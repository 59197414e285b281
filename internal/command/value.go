package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the runtime type of a command argument.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	// KindText is only valid as the last kind of a Signature. It takes
	// every remaining token, joined by single spaces.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text..."
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a single typed command argument. Text always holds the token
// the value was parsed from, so numbers can still be read as strings.
type Value struct {
	Kind  Kind
	Text  string
	Int   int
	Float float64
}

// String builds a string argument.
func String(s string) Value {
	return Value{Kind: KindString, Text: s}
}

// Int builds an int argument.
func Int(n int) Value {
	return Value{Kind: KindInt, Text: strconv.Itoa(n), Int: n}
}

// Float builds a float argument.
func Float(f float64) Value {
	return Value{Kind: KindFloat, Text: strconv.FormatFloat(f, 'g', -1, 64), Float: f}
}

func (v Value) String() string {
	return v.Text
}

// as converts v to kind k. Only lossless widenings are allowed:
// int to float, and any number to its original text.
func (v Value) as(k Kind) (Value, bool) {
	if v.Kind == k {
		return v, true
	}
	switch {
	case v.Kind == KindInt && k == KindFloat:
		return Value{Kind: KindFloat, Text: v.Text, Float: float64(v.Int)}, true
	case k == KindString, k == KindText:
		return Value{Kind: k, Text: v.Text}, true
	}
	return Value{}, false
}

// Signature is the ordered list of argument kinds a handler accepts.
type Signature []Kind

func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = k.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Tag returns the compact form accepted by ParseSignature, e.g. "si".
func (s Signature) Tag() string {
	var b strings.Builder
	for _, k := range s {
		switch k {
		case KindString:
			b.WriteByte('s')
		case KindInt:
			b.WriteByte('i')
		case KindFloat:
			b.WriteByte('f')
		case KindText:
			b.WriteByte('t')
		}
	}
	return b.String()
}

// ParseSignature parses a compact tag: one letter per argument,
// s = string, i = int, f = float, t = rest of the line (last only).
// The empty tag means no arguments.
func ParseSignature(tag string) (Signature, error) {
	sig := make(Signature, 0, len(tag))
	for i, c := range tag {
		switch c {
		case 's':
			sig = append(sig, KindString)
		case 'i':
			sig = append(sig, KindInt)
		case 'f':
			sig = append(sig, KindFloat)
		case 't':
			if i != len(tag)-1 {
				return nil, fmt.Errorf("invalid signature %q: text must be last", tag)
			}
			sig = append(sig, KindText)
		default:
			return nil, fmt.Errorf("invalid signature %q: unknown kind %q", tag, c)
		}
	}
	return sig, nil
}

// match converts args to sig, reporting false when arity or any
// position does not fit. A trailing KindText needs at least one token
// and folds the rest of args into one value.
func (s Signature) match(args []Value) ([]Value, bool) {
	if s.hasText() {
		n := len(s) - 1
		if len(args) <= n {
			return nil, false
		}
		out, ok := s[:n].match(args[:n])
		if !ok {
			return nil, false
		}
		return append(out, joinText(args[n:])), true
	}
	if len(args) != len(s) {
		return nil, false
	}
	out := make([]Value, len(args))
	for i, a := range args {
		v, ok := a.as(s[i])
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func (s Signature) hasText() bool {
	return len(s) > 0 && s[len(s)-1] == KindText
}

func joinText(args []Value) Value {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Text
	}
	return Value{Kind: KindText, Text: strings.Join(parts, " ")}
}

func kindsOf(args []Value) Signature {
	sig := make(Signature, len(args))
	for i, a := range args {
		sig[i] = a.Kind
	}
	return sig
}

// ParseToken types a single console token. A token with a decimal point
// made only of number characters must parse as a float; a signed run of
// digits must parse as an int; anything else is a string.
func ParseToken(tok string) (Value, error) {
	switch {
	case isFloatLike(tok):
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a float", ErrParseFailure, tok)
		}
		return Value{Kind: KindFloat, Text: tok, Float: f}, nil
	case isIntLike(tok):
		n, err := strconv.Atoi(tok)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an int", ErrParseFailure, tok)
		}
		return Value{Kind: KindInt, Text: tok, Int: n}, nil
	default:
		return String(tok), nil
	}
}

func isFloatLike(tok string) bool {
	if !strings.Contains(tok, ".") {
		return false
	}
	digits := 0
	for _, c := range tok {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.', c == '-', c == '+', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return digits > 0
}

func isIntLike(tok string) bool {
	if tok != "" && (tok[0] == '-' || tok[0] == '+') {
		tok = tok[1:]
	}
	if tok == "" {
		return false
	}
	for _, c := range tok {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
