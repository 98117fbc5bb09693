package dsl

import (
	"regexp"
	"strings"
)

// tokenRE splits the attribute segment into quoted spans and plain words.
var tokenRE = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|\S+`)

// Sigils whose quoted values may span whitespace-delimited chunks.
const joiningSigils = "^#-@"

// tokenize splits the portion of a line before the title separator. Quoted
// spans stay atomic, and a sigil followed by an unterminated double quote
// keeps consuming chunks until one ends with a closing quote. Unclosed quotes
// consume to end of input rather than erroring.
func tokenize(left string) []string {
	raw := tokenRE.FindAllString(left, -1)
	out := make([]string, 0, len(raw))

	for i := 0; i < len(raw); i++ {
		tok := raw[i]
		joins := len(tok) >= 2 &&
			strings.IndexByte(joiningSigils, tok[0]) >= 0 &&
			tok[1] == '"' &&
			!strings.HasSuffix(tok, `"`)
		if joins {
			acc := tok
			for i+1 < len(raw) {
				i++
				acc += " " + raw[i]
				if strings.HasSuffix(raw[i], `"`) {
					break
				}
			}
			out = append(out, acc)
		} else {
			out = append(out, tok)
		}
	}

	for i, tok := range out {
		out[i] = stripOuterQuotes(tok)
	}
	return out
}

// stripOuterQuotes removes one matching pair of outer quotes and resolves
// backslash escapes inside. Tokens without outer quotes pass through.
func stripOuterQuotes(v string) string {
	if len(v) >= 2 &&
		((v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'')) {
		return unescape(v[1 : len(v)-1])
	}
	return v
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// valueAfterSigil drops the leading sigil and unquotes what remains.
func valueAfterSigil(tok string) string {
	return stripOuterQuotes(tok[1:])
}
