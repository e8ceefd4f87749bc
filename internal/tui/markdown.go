package tui

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Pre-compiled patterns for the HTML-to-terminal pass.
var (
	codeBlockRegex = regexp.MustCompile(`(?s)<pre><code(?: class="language-([a-zA-Z0-9]+)")?>(.*?)</code></pre>`)
	strongRegex    = regexp.MustCompile(`<strong>(.*?)</strong>`)
	emRegex        = regexp.MustCompile(`<em>(.*?)</em>`)
	linkRegex      = regexp.MustCompile(`<a href="([^"]*)">(.*?)</a>`)
	liRegex        = regexp.MustCompile(`<li>(.*?)</li>`)
	htmlTagRegex   = regexp.MustCompile(`<[^>]+>`)
	multiNewline   = regexp.MustCompile(`\n{3,}`)
	inlineCodeRe   = regexp.MustCompile(`<code>([^<]+)</code>`)
)

// MarkdownRenderer renders finalized assistant messages with syntax
// highlighting. Partially revealed messages bypass it: the caption layer
// styles bold spans directly so mid-token markdown never flickers.
type MarkdownRenderer struct {
	goldmark.Markdown
	formatter chroma.Formatter
	style     *chroma.Style
}

func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
		goldmark.WithExtensions(
			extension.GFM,
			extension.Strikethrough,
		),
	)

	return &MarkdownRenderer{
		Markdown:  md,
		formatter: formatters.Get("terminal256"),
		style:     styles.Get("dracula"),
	}
}

func (r *MarkdownRenderer) Render(content string, width int) string {
	var buf bytes.Buffer
	if err := r.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return r.formatForTerminal(buf.String(), width)
}

func (r *MarkdownRenderer) formatForTerminal(htmlContent string, width int) string {
	result := htmlContent

	var codeBlocks []string
	result = codeBlockRegex.ReplaceAllStringFunc(result, func(m string) string {
		matches := codeBlockRegex.FindStringSubmatch(m)
		if len(matches) < 3 {
			return m
		}
		highlighted := r.renderCodeBlock(decodeHTMLEntities(matches[2]), matches[1])
		codeWidth := width - 8
		if codeWidth < 20 {
			codeWidth = 20
		}
		styled := codeBlockStyle.Width(codeWidth).Render(highlighted)
		index := len(codeBlocks)
		codeBlocks = append(codeBlocks, styled)
		return fmt.Sprintf("\n{{CODE_BLOCK_%d}}\n", index)
	})

	result = inlineCodeRe.ReplaceAllStringFunc(result, func(m string) string {
		matches := inlineCodeRe.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		return inlineCodeStyle.Render(decodeHTMLEntities(matches[1]))
	})

	result = strongRegex.ReplaceAllStringFunc(result, func(m string) string {
		matches := strongRegex.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		return boldTextStyle.Render(matches[1])
	})

	result = emRegex.ReplaceAllStringFunc(result, func(m string) string {
		matches := emRegex.FindStringSubmatch(m)
		if len(matches) < 2 {
			return m
		}
		return italicTextStyle.Render(matches[1])
	})

	result = linkRegex.ReplaceAllStringFunc(result, func(m string) string {
		matches := linkRegex.FindStringSubmatch(m)
		if len(matches) < 3 {
			return m
		}
		return linkTextStyle.Render(matches[2]) + " (" + matches[1] + ")"
	})

	result = liRegex.ReplaceAllString(result, "  • $1\n")
	result = htmlTagRegex.ReplaceAllString(result, "")
	result = decodeHTMLEntities(result)
	result = multiNewline.ReplaceAllString(result, "\n\n")

	for i, block := range codeBlocks {
		result = strings.Replace(result, fmt.Sprintf("{{CODE_BLOCK_%d}}", i), block, 1)
	}

	return strings.TrimSpace(result)
}

func (r *MarkdownRenderer) renderCodeBlock(code, lang string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

func decodeHTMLEntities(s string) string {
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	return replacer.Replace(s)
}
