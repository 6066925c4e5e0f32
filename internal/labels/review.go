package labels

import (
	"fmt"
	"strings"

	"github.com/sppas/phoenix/internal/anndata"
)

const (
	altSeparator   = "|"
	labelSeparator = "\n"
)

// Characters rendered in bold in review mode.
const syntaxChars = "{}[]<>/|"

func renderReview(labels []anndata.Label) string {
	lines := make([]string, 0, len(labels))
	for _, l := range labels {
		lines = append(lines, renderAlternatives(l))
	}
	return strings.Join(lines, labelSeparator)
}

// renderAlternatives writes one label line. Several alternatives, and a
// single tag that is empty or blank, are wrapped in braces.
func renderAlternatives(l anndata.Label) string {
	switch len(l.Alternatives) {
	case 0:
		return ""
	case 1:
		c := l.Alternatives[0].Tag.Content
		if strings.TrimSpace(c) == "" {
			return "{" + escapeTag(c) + "}"
		}
		return escapeTag(c)
	}
	tags := make([]string, len(l.Alternatives))
	for i, a := range l.Alternatives {
		tags[i] = escapeTag(a.Tag.Content)
	}
	return "{" + strings.Join(tags, altSeparator) + "}"
}

// escapeTag backslash-escapes the syntax characters and line breaks of
// a tag so that the review text parses back to the same content.
func escapeTag(s string) string {
	if !strings.ContainsAny(s, "\\|{}[]<>\n\r") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '|', '{', '}', '[', ']', '<', '>':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// token is a rune of a review line; escaped runes never act as syntax.
type token struct {
	r   rune
	esc bool
}

func (t token) is(r rune) bool { return !t.esc && t.r == r }

func tokenize(line string) ([]token, error) {
	var out []token
	escaped := false
	for _, r := range line {
		if escaped {
			switch r {
			case 'n':
				r = '\n'
			case 'r':
				r = '\r'
			}
			out = append(out, token{r: r, esc: true})
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		out = append(out, token{r: r})
	}
	if escaped {
		return nil, fmt.Errorf("dangling %q", '\\')
	}
	return out, nil
}

// parseReview reads one label per non-blank line. A line with several
// alternatives is "{a|b|c}"; a bare "a|b" is accepted too. A backslash
// makes the next character literal, and \n and \r stand for line breaks.
func parseReview(text string, typ anndata.TagType) ([]anndata.Label, error) {
	var out []anndata.Label
	for n, line := range strings.Split(text, labelSeparator) {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		toks, err := tokenize(line)
		if err == nil {
			err = checkBalanced(toks)
		}
		if err != nil {
			return nil, fmt.Errorf("%w on line %d: %v", ErrSyntax, n+1, err)
		}
		body := toks
		if len(body) >= 2 && body[0].is('{') && isOuterBrace(body) {
			body = body[1 : len(body)-1]
		}
		var label anndata.Label
		for _, alt := range splitAlternatives(body) {
			tag, err := anndata.NewTag(alt, typ)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			label.Alternatives = append(label.Alternatives, anndata.Alternative{Tag: tag})
		}
		out = append(out, label)
	}
	return out, nil
}

// splitAlternatives cuts body at the separators outside nested braces.
func splitAlternatives(body []token) []string {
	var (
		out   []string
		cur   strings.Builder
		depth int
	)
	for _, t := range body {
		switch {
		case t.is('{'):
			depth++
		case t.is('}'):
			depth--
		case t.is('|') && depth == 0:
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(t.r)
	}
	return append(out, cur.String())
}

// isOuterBrace reports whether the first '{' closes at the last token.
func isOuterBrace(toks []token) bool {
	depth := 0
	for i, t := range toks {
		switch {
		case t.is('{'):
			depth++
		case t.is('}'):
			depth--
			if depth == 0 {
				return i == len(toks)-1
			}
		}
	}
	return false
}

func checkBalanced(toks []token) error {
	pairs := map[rune]rune{'}': '{', ']': '[', '>': '<'}
	var stack []rune
	for _, t := range toks {
		if t.esc {
			continue
		}
		switch t.r {
		case '{', '[', '<':
			stack = append(stack, t.r)
		case '}', ']', '>':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[t.r] {
				return fmt.Errorf("unexpected %q", t.r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return nil
}

// Span is a byte range of text with a bold flag.
type Span struct {
	Start, End int
	Bold       bool
}

// Highlight splits review text into spans where unescaped syntax
// characters are bold.
// Other modes are returned as a single plain span.
func Highlight(text string, m Mode) []Span {
	if text == "" {
		return nil
	}
	if m != Review {
		return []Span{{Start: 0, End: len(text)}}
	}
	var spans []Span
	escaped := false
	for i, r := range text {
		bold := !escaped && strings.ContainsRune(syntaxChars, r)
		escaped = !escaped && r == '\\'
		end := i + len(string(r))
		if n := len(spans); n > 0 && spans[n-1].Bold == bold {
			spans[n-1].End = end
			continue
		}
		spans = append(spans, Span{Start: i, End: end, Bold: bold})
	}
	return spans
}
