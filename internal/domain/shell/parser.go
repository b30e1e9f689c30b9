package shell

import (
	"strings"
	"unicode"
)

// redirection is a parsed `cmd > file` or `cmd >> file` line.
type redirection struct {
	command string
	target  string
	append  bool
}

// parseRedirection finds an unquoted > or >> in line. The operator must be
// a separate word, so `echo a>b` has no redirection. ok is false when the
// line has none. Only one operator per line is accepted.
func parseRedirection(line string) (r redirection, ok bool, err error) {
	var quote rune
	pos, width := -1, 0

	for i := 0; i < len(line); i++ {
		c := rune(line[i])
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			n := 1
			for i+n < len(line) && line[i+n] == '>' {
				n++
			}
			if !wordBoundary(line, i-1) || !wordBoundary(line, i+n) {
				i += n - 1
				continue
			}
			if n > 2 || pos >= 0 {
				return r, false, syntaxError(">")
			}
			pos, width = i, n
			i += n - 1
		}
	}
	if pos < 0 {
		return r, false, nil
	}

	op := line[pos : pos+width]
	r.command = strings.TrimSpace(line[:pos])
	rawTarget := strings.TrimSpace(line[pos+width:])
	r.append = width == 2

	if r.command == "" {
		return r, false, syntaxError(op)
	}
	if rawTarget == "" {
		return r, false, syntaxError("newline")
	}
	if len(tokenize(rawTarget)) > 1 {
		return r, false, ambiguousRedirect(rawTarget)
	}
	r.target = unquote(rawTarget)
	if r.target == "" {
		return r, false, ambiguousRedirect(rawTarget)
	}
	return r, true, nil
}

// tokenize splits line on whitespace outside quotes. Quote characters are
// kept in the tokens so handlers can decide how to treat them.
func tokenize(line string) []string {
	var (
		tokens []string
		cur    strings.Builder
		quote  rune
		inTok  bool
	)
	for _, c := range line {
		switch {
		case quote != 0:
			cur.WriteRune(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			inTok = true
			cur.WriteRune(c)
		case unicode.IsSpace(c):
			if inTok {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			inTok = true
			cur.WriteRune(c)
		}
	}
	if inTok {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// unquote strips one layer of matching surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// wordBoundary reports whether line[i] is whitespace or outside the line.
func wordBoundary(line string, i int) bool {
	return i < 0 || i >= len(line) || unicode.IsSpace(rune(line[i]))
}
