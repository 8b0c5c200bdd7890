package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PlainText strips markup from an HTML fragment. Block elements become line breaks,
// links keep their target in parentheses, script and style contents are dropped.
func PlainText(fragment string) string {
	var (
		b     strings.Builder
		skip  int
		hrefs []string
	)

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break // io.EOF for a string reader
		}

		tok := z.Token()
		switch tt {
		case html.TextToken:
			if skip == 0 {
				b.WriteString(tok.Data)
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.DataAtom {
			case atom.Script, atom.Style:
				if tt == html.StartTagToken {
					skip++
				}
			case atom.Br:
				b.WriteString("\n")
			case atom.A:
				if tt == html.StartTagToken {
					hrefs = append(hrefs, attr(tok, "href"))
				}
			default:
				if isBlock(tok.DataAtom) {
					b.WriteString("\n")
				}
			}
		case html.EndTagToken:
			switch tok.DataAtom {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			case atom.A:
				if n := len(hrefs); n > 0 {
					if href := hrefs[n-1]; href != "" {
						b.WriteString(" (" + href + ")")
					}
					hrefs = hrefs[:n-1]
				}
			default:
				if isBlock(tok.DataAtom) {
					b.WriteString("\n")
				}
			}
		}
	}

	return tidy(b.String())
}

// IsBlank reports whether an HTML fragment shows nothing: no visible text and no media.
// &nbsp; decodes to U+00A0, which counts as space. Script and style contents are not visible.
func IsBlank(fragment string) bool {
	skip := 0
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return true
		case html.TextToken:
			if skip == 0 && strings.TrimSpace(string(z.Text())) != "" {
				return false
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.Script || tok.DataAtom == atom.Style:
				if tt == html.StartTagToken {
					skip++
				}
			case isMedia(tok):
				return false
			}
		case html.EndTagToken:
			tok := z.Token()
			if (tok.DataAtom == atom.Script || tok.DataAtom == atom.Style) && skip > 0 {
				skip--
			}
		}
	}
}

func isMedia(tok html.Token) bool {
	switch tok.DataAtom {
	case atom.Img:
		return attr(tok, "src") != ""
	case atom.Video, atom.Audio, atom.Picture, atom.Svg, atom.Iframe, atom.Object, atom.Embed:
		return true
	}
	return false
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol, atom.Tr, atom.Table,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Hr:
		return true
	}
	return false
}

// tidy collapses runs of spaces inside lines and keeps at most one empty line in a row.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
