package jira

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Document is an Atlassian Document Format document, the rich text
// representation of the v3 API.
type Document struct {
	Version int    `json:"version"`
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// Node is a block or inline ADF node.
type Node struct {
	Type    string         `json:"type"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Mark is inline formatting on a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

func textNode(s string, marks ...Mark) Node {
	return Node{Type: "text", Text: s, Marks: marks}
}

func paragraph(inline []Node) Node {
	return Node{Type: "paragraph", Content: inline}
}

var (
	headingLine  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	bulletLine   = regexp.MustCompile(`^\s*[-*+]\s+(.*)$`)
	orderedLine  = regexp.MustCompile(`^\s*\d+[.)]\s+(.*)$`)
	ruleLine     = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})\s*$`)
	inlineTokens = regexp.MustCompile("\\*\\*([^*]+)\\*\\*|`([^`]+)`|\\[([^\\]]+)\\]\\(([^)\\s]+)\\)")
)

// MarkdownToADF converts Markdown to an ADF document. It understands
// headings, fenced code, lists, block quotes, rules and paragraphs, with
// bold, inline code and links inside text.
func MarkdownToADF(markdown string) *Document {
	doc := &Document{Version: 1, Type: "doc", Content: []Node{}}
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")

	for i := 0; i < len(lines); {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			i++

		case strings.HasPrefix(trimmed, "```"):
			lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			var code []string
			for i++; i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```"); i++ {
				code = append(code, lines[i])
			}
			i++ // closing fence
			node := Node{Type: "codeBlock", Content: []Node{textNode(strings.Join(code, "\n"))}}
			if lang != "" {
				node.Attrs = map[string]any{"language": lang}
			}
			doc.Content = append(doc.Content, node)

		case headingLine.MatchString(trimmed):
			m := headingLine.FindStringSubmatch(trimmed)
			doc.Content = append(doc.Content, Node{
				Type:    "heading",
				Attrs:   map[string]any{"level": len(m[1])},
				Content: parseInline(m[2]),
			})
			i++

		case ruleLine.MatchString(trimmed):
			doc.Content = append(doc.Content, Node{Type: "rule"})
			i++

		case strings.HasPrefix(trimmed, ">"):
			var quoted []string
			for ; i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), ">"); i++ {
				quoted = append(quoted, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), ">")))
			}
			inner := MarkdownToADF(strings.Join(quoted, "\n"))
			doc.Content = append(doc.Content, Node{Type: "blockquote", Content: inner.Content})

		case bulletLine.MatchString(line):
			var items []Node
			for ; i < len(lines) && bulletLine.MatchString(lines[i]); i++ {
				items = append(items, listItem(bulletLine.FindStringSubmatch(lines[i])[1]))
			}
			doc.Content = append(doc.Content, Node{Type: "bulletList", Content: items})

		case orderedLine.MatchString(line):
			var items []Node
			for ; i < len(lines) && orderedLine.MatchString(lines[i]); i++ {
				items = append(items, listItem(orderedLine.FindStringSubmatch(lines[i])[1]))
			}
			doc.Content = append(doc.Content, Node{Type: "orderedList", Content: items})

		default:
			// Consecutive plain lines form one paragraph joined by hard breaks.
			var inline []Node
			for ; i < len(lines) && isParagraphLine(lines[i]); i++ {
				if len(inline) > 0 {
					inline = append(inline, Node{Type: "hardBreak"})
				}
				inline = append(inline, parseInline(strings.TrimSpace(lines[i]))...)
			}
			doc.Content = append(doc.Content, paragraph(inline))
		}
	}
	return doc
}

func isParagraphLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" &&
		!strings.HasPrefix(trimmed, "```") &&
		!strings.HasPrefix(trimmed, ">") &&
		!headingLine.MatchString(trimmed) &&
		!ruleLine.MatchString(trimmed) &&
		!bulletLine.MatchString(line) &&
		!orderedLine.MatchString(line)
}

func listItem(text string) Node {
	return Node{Type: "listItem", Content: []Node{paragraph(parseInline(text))}}
}

// parseInline splits text into text nodes carrying strong, code and link
// marks.
func parseInline(text string) []Node {
	var nodes []Node
	last := 0
	for _, m := range inlineTokens.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			nodes = append(nodes, textNode(text[last:m[0]]))
		}
		switch {
		case m[2] >= 0:
			nodes = append(nodes, textNode(text[m[2]:m[3]], Mark{Type: "strong"}))
		case m[4] >= 0:
			nodes = append(nodes, textNode(text[m[4]:m[5]], Mark{Type: "code"}))
		default:
			nodes = append(nodes, textNode(text[m[6]:m[7]], Mark{
				Type:  "link",
				Attrs: map[string]any{"href": text[m[8]:m[9]]},
			}))
		}
		last = m[1]
	}
	if last < len(text) {
		nodes = append(nodes, textNode(text[last:]))
	}
	return nodes
}

// ADFToMarkdown renders an ADF document as Markdown.
func ADFToMarkdown(doc *Document) string {
	var b strings.Builder
	for i := range doc.Content {
		writeBlock(&b, &doc.Content[i], "")
	}
	return strings.TrimSpace(b.String())
}

// richTextToMarkdown converts a rich text field as decoded from JSON: a
// string is wiki markup (v2), an object is ADF (v3).
func richTextToMarkdown(v any) (string, error) {
	switch value := v.(type) {
	case nil:
		return "", nil
	case string:
		return WikiToMarkdown(value), nil
	case *Document:
		return ADFToMarkdown(value), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode rich text: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("decode ADF: %w", err)
	}
	if doc.Type != "doc" {
		return "", fmt.Errorf("decode ADF: root node is %q, want doc", doc.Type)
	}
	return ADFToMarkdown(&doc), nil
}

func writeBlock(b *strings.Builder, n *Node, indent string) {
	switch n.Type {
	case "paragraph":
		b.WriteString(indent)
		writeInline(b, n.Content)
		b.WriteString("\n\n")

	case "heading":
		level := attrInt(n.Attrs, "level", 1)
		b.WriteString(strings.Repeat("#", level) + " ")
		writeInline(b, n.Content)
		b.WriteString("\n\n")

	case "codeBlock":
		lang, _ := n.Attrs["language"].(string)
		b.WriteString("```" + lang + "\n")
		writeInline(b, n.Content)
		b.WriteString("\n```\n\n")

	case "blockquote":
		var inner strings.Builder
		for i := range n.Content {
			writeBlock(&inner, &n.Content[i], "")
		}
		for _, line := range strings.Split(strings.TrimSpace(inner.String()), "\n") {
			b.WriteString(strings.TrimRight("> "+line, " ") + "\n")
		}
		b.WriteString("\n")

	case "bulletList", "orderedList":
		writeList(b, n, indent)
		if indent == "" {
			b.WriteString("\n")
		}

	case "rule":
		b.WriteString("---\n\n")

	default:
		for i := range n.Content {
			writeBlock(b, &n.Content[i], indent)
		}
	}
}

func writeList(b *strings.Builder, list *Node, indent string) {
	for i, item := range list.Content {
		marker := "- "
		if list.Type == "orderedList" {
			marker = strconv.Itoa(i+1) + ". "
		}
		b.WriteString(indent + marker)

		first := true
		for j := range item.Content {
			child := &item.Content[j]
			switch child.Type {
			case "bulletList", "orderedList":
				if first {
					b.WriteString("\n")
				}
				writeList(b, child, indent+"  ")
			default:
				if !first {
					b.WriteString(indent + "  ")
				}
				writeInline(b, child.Content)
				b.WriteString("\n")
			}
			first = false
		}
		if len(item.Content) == 0 {
			b.WriteString("\n")
		}
	}
}

func writeInline(b *strings.Builder, nodes []Node) {
	for i := range nodes {
		n := &nodes[i]
		switch n.Type {
		case "text":
			writeText(b, n)
		case "hardBreak":
			b.WriteString("\n")
		case "mention":
			if name, ok := n.Attrs["text"].(string); ok {
				b.WriteString(name)
			} else if id, ok := n.Attrs["id"].(string); ok {
				b.WriteString("@" + id)
			}
		case "emoji":
			if short, ok := n.Attrs["shortName"].(string); ok {
				b.WriteString(short)
			}
		case "inlineCard":
			if url, ok := n.Attrs["url"].(string); ok {
				b.WriteString(url)
			}
		default:
			writeInline(b, n.Content)
		}
	}
}

func writeText(b *strings.Builder, n *Node) {
	open, closing := "", ""
	for _, m := range n.Marks {
		var before, after string
		switch m.Type {
		case "strong":
			before, after = "**", "**"
		case "em":
			before, after = "*", "*"
		case "strike":
			before, after = "~~", "~~"
		case "code":
			before, after = "`", "`"
		case "link":
			href, _ := m.Attrs["href"].(string)
			if href == "" {
				continue
			}
			before, after = "[", "]("+href+")"
		default:
			continue
		}
		open += before
		closing = after + closing
	}
	b.WriteString(open + n.Text + closing)
}

func attrInt(attrs map[string]any, key string, fallback int) int {
	switch v := attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

var (
	wikiCode      = regexp.MustCompile(`(?s)\{(?:code|noformat)(?::([\w+-]+))?[^}]*\}\n?(.*?)\n?\{(?:code|noformat)\}`)
	wikiQuote     = regexp.MustCompile(`(?s)\{quote\}\n?(.*?)\n?\{quote\}`)
	wikiHeading   = regexp.MustCompile(`(?m)^h([1-6])\.[ \t]+(.*)$`)
	wikiBullet    = regexp.MustCompile(`(?m)^(\*+)[ \t]+(.*)$`)
	wikiNumbered  = regexp.MustCompile(`(?m)^(#+)[ \t]+(.*)$`)
	wikiMonospace = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	wikiBold      = regexp.MustCompile(`(^|[\s(])\*([^*\s][^*]*?)\*`)
	wikiItalic    = regexp.MustCompile(`(^|[\s(])_([^_\s][^_]*?)_`)
	wikiStrike    = regexp.MustCompile(`(^|\s)-([^-\s][^-]*?[^-\s])-(\s|$)`)
	wikiLink      = regexp.MustCompile(`\[([^|\]]+)\|([^\]]+)\]`)
	wikiBareLink  = regexp.MustCompile(`\[(https?://[^\]|]+)\]`)
	wikiRule      = regexp.MustCompile(`(?m)^-{4,}[ \t]*$`)

	mdCode     = regexp.MustCompile("(?s)```([\\w+-]*)\\n(.*?)\\n```")
	mdHeading  = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.*)$`)
	mdBullet   = regexp.MustCompile(`(?m)^([ \t]*)[-+][ \t]+(.*)$`)
	mdNumbered = regexp.MustCompile(`(?m)^([ \t]*)\d+\.[ \t]+(.*)$`)
	mdBold     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	mdStrike   = regexp.MustCompile(`~~([^~]+)~~`)
	mdInline   = regexp.MustCompile("`([^`\n]+)`")
	mdLink     = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	mdQuote    = regexp.MustCompile(`^>[ \t]?(.*)$`)
	mdRule     = regexp.MustCompile(`(?m)^-{3,}[ \t]*$`)
)

// WikiToMarkdown converts Jira wiki markup to Markdown.
func WikiToMarkdown(wiki string) string {
	// Code first so markup inside it survives.
	var blocks []string
	out := wikiCode.ReplaceAllStringFunc(wiki, func(s string) string {
		m := wikiCode.FindStringSubmatch(s)
		blocks = append(blocks, "```"+m[1]+"\n"+m[2]+"\n```")
		return codePlaceholder(len(blocks) - 1)
	})

	out = wikiQuote.ReplaceAllStringFunc(out, func(s string) string {
		body := wikiQuote.FindStringSubmatch(s)[1]
		lines := strings.Split(body, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight("> "+line, " ")
		}
		return strings.Join(lines, "\n")
	})

	// Lists before headings, which also start with '#' once converted.
	out = wikiNumbered.ReplaceAllStringFunc(out, func(s string) string {
		m := wikiNumbered.FindStringSubmatch(s)
		return strings.Repeat("  ", len(m[1])-1) + "1. " + m[2]
	})
	out = wikiHeading.ReplaceAllStringFunc(out, func(s string) string {
		m := wikiHeading.FindStringSubmatch(s)
		level, _ := strconv.Atoi(m[1])
		return strings.Repeat("#", level) + " " + m[2]
	})
	out = wikiBullet.ReplaceAllStringFunc(out, func(s string) string {
		m := wikiBullet.FindStringSubmatch(s)
		return strings.Repeat("  ", len(m[1])-1) + "- " + m[2]
	})

	out = wikiMonospace.ReplaceAllString(out, "`$1`")
	out = wikiBold.ReplaceAllString(out, "$1**$2**")
	out = wikiItalic.ReplaceAllString(out, "$1*$2*")
	out = wikiStrike.ReplaceAllString(out, "$1~~$2~~$3")
	out = wikiLink.ReplaceAllString(out, "[$1]($2)")
	out = wikiBareLink.ReplaceAllString(out, "[$1]($1)")
	out = wikiRule.ReplaceAllString(out, "---")

	for i, block := range blocks {
		out = strings.Replace(out, codePlaceholder(i), block, 1)
	}
	return out
}

// MarkdownToWiki converts Markdown to Jira wiki markup.
func MarkdownToWiki(markdown string) string {
	var blocks []string
	out := mdCode.ReplaceAllStringFunc(markdown, func(s string) string {
		m := mdCode.FindStringSubmatch(s)
		open := "{code}"
		if m[1] != "" {
			open = "{code:" + m[1] + "}"
		}
		blocks = append(blocks, open+"\n"+m[2]+"\n{code}")
		return codePlaceholder(len(blocks) - 1)
	})

	out = mdHeading.ReplaceAllStringFunc(out, func(s string) string {
		m := mdHeading.FindStringSubmatch(s)
		return fmt.Sprintf("h%d. %s", len(m[1]), m[2])
	})
	out = mdRule.ReplaceAllString(out, "----")
	out = mdBullet.ReplaceAllStringFunc(out, func(s string) string {
		m := mdBullet.FindStringSubmatch(s)
		return strings.Repeat("*", len(m[1])/2+1) + " " + m[2]
	})
	out = mdNumbered.ReplaceAllStringFunc(out, func(s string) string {
		m := mdNumbered.FindStringSubmatch(s)
		return strings.Repeat("#", len(m[1])/2+1) + " " + m[2]
	})

	out = mdBold.ReplaceAllString(out, "*$1*")
	out = mdStrike.ReplaceAllString(out, "-$1-")
	out = mdInline.ReplaceAllString(out, "{{$1}}")
	out = mdLink.ReplaceAllString(out, "[$1|$2]")
	out = quoteBlocks(out)

	for i, block := range blocks {
		out = strings.Replace(out, codePlaceholder(i), block, 1)
	}
	return out
}

// quoteBlocks wraps runs of "> " lines in {quote}.
func quoteBlocks(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	inQuote := false
	for _, line := range lines {
		m := mdQuote.FindStringSubmatch(line)
		switch {
		case m != nil && !inQuote:
			out = append(out, "{quote}", m[1])
			inQuote = true
		case m != nil:
			out = append(out, m[1])
		case inQuote:
			out = append(out, "{quote}", line)
			inQuote = false
		default:
			out = append(out, line)
		}
	}
	if inQuote {
		out = append(out, "{quote}")
	}
	return strings.Join(out, "\n")
}

func codePlaceholder(i int) string {
	return fmt.Sprintf("\x00code%d\x00", i)
}
