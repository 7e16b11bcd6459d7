package extract

import (
	"bytes"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var ErrUnsupported = errors.New("unsupported file type")

var (
	nonPrintable = regexp.MustCompile(`[^\x20-\x7E\n\r\t]`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

var plainExts = map[string]bool{
	".txt":  true,
	".csv":  true,
	".json": true,
	".xml":  true,
}

var plainTypes = map[string]bool{
	"text/plain":       true,
	"text/csv":         true,
	"application/json": true,
	"text/xml":         true,
	"application/xml":  true,
}

// Kind picks the extractor for a file from its extension, then its
// content type.
func Kind(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch {
	case ext == ".pdf" || contentType == "application/pdf":
		return "pdf"
	case ext == ".md" || ext == ".markdown" || contentType == "text/markdown":
		return "markdown"
	case ext == ".html" || ext == ".htm" || contentType == "text/html":
		return "html"
	case plainExts[ext] || plainTypes[contentType]:
		return "text"
	default:
		return "binary"
	}
}

// Text returns the indexable text of an uploaded file. Unknown types are
// read as text with non-printable bytes dropped.
func Text(filename, contentType string, data []byte) (string, error) {
	switch Kind(filename, contentType) {
	case "pdf":
		return "", ErrUnsupported
	case "markdown":
		return Markdown(data), nil
	case "html":
		return HTML(data)
	case "text":
		return strings.ToValidUTF8(string(data), ""), nil
	default:
		return strings.TrimSpace(nonPrintable.ReplaceAllString(string(data), "")), nil
	}
}

// Markdown flattens a markdown document to its visible text, one block per paragraph.
func Markdown(data []byte) string {
	src := []byte(strings.ToValidUTF8(string(data), ""))
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	var sb strings.Builder
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		block := blockText(node, src)
		if block == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(block)
	}
	return sb.String()
}

func blockText(n ast.Node, src []byte) string {
	switch b := n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var sb strings.Builder
		lines := b.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(src))
		}
		return strings.TrimRight(sb.String(), "\n")
	}
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := t.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem, *ast.Paragraph:
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// HTML returns the text of an html page without scripts or styles.
func HTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find("p, div, li, tr, br, h1, h2, h3, h4, h5, h6, section, article").AfterHtml("\n")
	title := strings.TrimSpace(doc.Find("title").First().Text())
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	var lines []string
	if title != "" {
		lines = append(lines, title)
	}
	for _, line := range strings.Split(root.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	out := strings.Join(lines, "\n")
	if !utf8.ValidString(out) {
		out = strings.ToValidUTF8(out, "")
	}
	return blankRuns.ReplaceAllString(out, "\n\n"), nil
}
