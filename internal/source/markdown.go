package source

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// RenderMarkdown renders an article as a Markdown file: title heading, link to the
// original page, then the body converted from HTML.
func RenderMarkdown(a Article) string {
	return fmt.Sprintf("# %s\n\n[View Article](%s)\n\n\n%s\n", a.Title, a.HTMLURL, HTMLToMarkdown(a.Body))
}

var (
	spaceRun   = regexp.MustCompile(`[ \t\r\n\f]+`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// HTMLToMarkdown converts an HTML fragment to Markdown with ATX headings.
func HTMLToMarkdown(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return strings.TrimSpace(body)
	}
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	var c converter
	out := c.children(root.Nodes[0])

	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	out = strings.Join(lines, "\n")
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

type converter struct {
	pre int
}

func (c *converter) children(n *html.Node) string {
	var b strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		b.WriteString(c.node(ch))
	}
	return b.String()
}

func (c *converter) inline(n *html.Node) string {
	return strings.TrimSpace(c.children(n))
}

func block(s string) string {
	if s == "" {
		return ""
	}
	return "\n\n" + s + "\n\n"
}

func (c *converter) node(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		if c.pre > 0 {
			return n.Data
		}
		return spaceRun.ReplaceAllString(n.Data, " ")
	case html.ElementNode:
	default:
		return ""
	}

	switch n.Data {
	case "script", "style", "head", "noscript":
		return ""
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		return block(strings.Repeat("#", level) + " " + c.inline(n))
	case "p", "div", "section", "article", "header", "footer", "main":
		return block(c.inline(n))
	case "br":
		return "\n"
	case "hr":
		return block("---")
	case "strong", "b":
		return wrap(c.inline(n), "**")
	case "em", "i":
		return wrap(c.inline(n), "*")
	case "code":
		if c.pre > 0 {
			return c.children(n)
		}
		return wrap(goquery.NewDocumentFromNode(n).Text(), "`")
	case "pre":
		c.pre++
		text := strings.Trim(c.children(n), "\n")
		c.pre--
		return "\n\n```\n" + text + "\n```\n\n"
	case "a":
		text := c.inline(n)
		href := attr(n, "href")
		if href == "" {
			return text
		}
		if text == "" {
			text = href
		}
		return fmt.Sprintf("[%s](%s)", text, href)
	case "img":
		src := attr(n, "src")
		if src == "" {
			return ""
		}
		return fmt.Sprintf("![%s](%s)", attr(n, "alt"), src)
	case "ul", "ol":
		return block(c.list(n))
	case "blockquote":
		inner := strings.TrimSpace(blankLines.ReplaceAllString(c.children(n), "\n\n"))
		lines := strings.Split(inner, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight("> "+strings.TrimSpace(l), " ")
		}
		return block(strings.Join(lines, "\n"))
	case "table":
		return block(c.table(n))
	default:
		return c.children(n)
	}
}

// list renders ul/ol items; nested lists are indented under their item.
func (c *converter) list(n *html.Node) string {
	ordered := n.Data == "ol"
	var items []string
	i := 0
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		i++
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", i)
		}
		body := strings.TrimSpace(blankLines.ReplaceAllString(c.children(li), "\n\n"))
		body = strings.ReplaceAll(body, "\n\n", "\n")
		lines := strings.Split(body, "\n")
		for j := 1; j < len(lines); j++ {
			if lines[j] != "" {
				lines[j] = strings.Repeat(" ", len(marker)) + lines[j]
			}
		}
		items = append(items, marker+strings.Join(lines, "\n"))
	}
	return strings.Join(items, "\n")
}

// table renders rows as pipe-delimited lines with a separator after the first row.
func (c *converter) table(n *html.Node) string {
	var rows []string
	cols := 0
	goquery.NewDocumentFromNode(n).Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Children().Filter("th,td").Each(func(_ int, cell *goquery.Selection) {
			text := strings.ReplaceAll(c.inline(cell.Nodes[0]), "|", `\|`)
			cells = append(cells, strings.ReplaceAll(text, "\n", " "))
		})
		if len(cells) == 0 {
			return
		}
		if len(rows) == 0 {
			cols = len(cells)
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		if len(rows) == 1 {
			rows = append(rows, "|"+strings.Repeat(" --- |", cols))
		}
	})
	return strings.Join(rows, "\n")
}

func wrap(s, marker string) string {
	if s == "" {
		return ""
	}
	return marker + s + marker
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
