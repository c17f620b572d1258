package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"docubuddy/internal/contextutil"
)

// ParseError reports a file that could not be parsed. The ingestion
// pipeline logs it and continues with the rest of the corpus.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parser turns raw markdown files into SourceDocument records.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a markdown parser with table support.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// ParseFile reads and parses a single documentation file. relPath is the
// path relative to the docs root, used for attribution.
func (p *Parser) ParseFile(ctx context.Context, path, relPath string) (*SourceDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if !utf8.Valid(raw) {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("content is not valid UTF-8")}
	}

	content := string(raw)
	title := extractTitle(content, path)

	reader := text.NewReader(raw)
	root := p.md.Parser().Parse(reader)
	sections := p.extractSections(root, raw)

	codeBlocks := extractCodeBlocks(ctx, content, path)

	return &SourceDocument{
		FilePath:   path,
		RelPath:    relPath,
		Title:      title,
		Content:    content,
		Sections:   sections,
		CodeBlocks: codeBlocks,
		WordCount:  len(strings.Fields(content)),
		CharCount:  len(content),
	}, nil
}

// extractTitle returns the first level-1 ATX heading, or a title derived
// from the file name when no H1 exists.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return titleFromFilename(path)
}

// titleFromFilename derives a title from the file name: extension removed,
// "-" and "_" replaced with spaces, each word capitalized.
func titleFromFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// extractSections walks the document AST. Every heading starts a section;
// a section's content run extends until the next heading of equal or
// lower level.
func (p *Parser) extractSections(root ast.Node, content []byte) []Section {
	type headingAt struct {
		level    int
		title    string
		lineEnd  int // offset just past the heading line
		runStart int
	}

	var headings []headingAt
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(h.Lines().Len() - 1)
		end := seg.Stop
		for end < len(content) && content[end] != '\n' {
			end++
		}
		if end < len(content) {
			end++ // include the newline
		}
		headings = append(headings, headingAt{
			level:   h.Level,
			title:   extractPlainText(h, content),
			lineEnd: end,
		})
	}

	sections := make([]Section, 0, len(headings))
	for i, h := range headings {
		runEnd := len(content)
		for j := i + 1; j < len(headings); j++ {
			if headings[j].level <= h.level {
				runEnd = lineStart(content, headings[j].lineEnd-1)
				break
			}
		}
		run := ""
		if h.lineEnd < runEnd {
			run = string(content[h.lineEnd:runEnd])
		}
		sections = append(sections, Section{
			Level:     h.level,
			Title:     h.title,
			Content:   run,
			PlainText: p.renderPlainText(run),
		})
	}
	return sections
}

// lineStart returns the offset of the start of the line containing off.
func lineStart(content []byte, off int) int {
	if off > len(content) {
		off = len(content)
	}
	for off > 0 && content[off-1] != '\n' {
		off--
	}
	return off
}

// renderPlainText parses a markdown fragment and flattens it to text.
func (p *Parser) renderPlainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	raw := []byte(fragment)
	root := p.md.Parser().Parse(text.NewReader(raw))
	return extractPlainText(root, raw)
}

// extractPlainText collects the text content of a node and its children.
func extractPlainText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(content))
			}
		case *ast.Paragraph, *ast.ListItem, *ast.Heading:
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// extractCodeBlocks scans raw lines for fenced code blocks. A block is
// well-formed only when its opening and closing fences pair within the
// file; an unterminated block is dropped with a warning.
func extractCodeBlocks(ctx context.Context, content, path string) []CodeBlock {
	logger := contextutil.LoggerFromContext(ctx)

	var blocks []CodeBlock
	var bodyLines []string
	language := ""
	startLine := 0
	inBlock := false

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			if !inBlock {
				inBlock = true
				language = strings.TrimSpace(line[3:])
				if language == "" {
					language = "text"
				}
				bodyLines = bodyLines[:0]
				startLine = i + 1
				continue
			}
			inBlock = false
			blocks = append(blocks, CodeBlock{
				Language:  language,
				Code:      strings.Join(bodyLines, "\n"),
				StartLine: startLine,
				EndLine:   i,
			})
			continue
		}
		if inBlock {
			bodyLines = append(bodyLines, line)
		}
	}

	if inBlock {
		logger.WarnContext(ctx, "unterminated code fence, dropping block",
			"path", path, "fence_line", startLine-1)
	}
	return blocks
}
