package transform

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/takak2166/wiz2onenote/internal/models"
)

type normalized struct {
	html   []byte
	assets []string // distinct asset filenames in document order
}

// normalize parses the stored HTML and renders a new tree with image markers,
// title, creation metadata and source URL in place. The parsed input is only
// read; every output node is freshly built.
func (t *Transformer) normalize(src []byte, doc models.DocumentRecord) (*normalized, error) {
	decoded, err := charset.NewReader(bytes.NewReader(src), "")
	if err != nil {
		decoded = bytes.NewReader(src)
	}

	in, err := html.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w: %w", IndexMember, models.ErrMalformedHTML, err)
	}

	root := findChild(in, atom.Html)
	if root == nil {
		return nil, fmt.Errorf("%s has no html element: %w", IndexMember, models.ErrMalformedHTML)
	}

	b := &builder{t: t, seen: make(map[string]bool)}

	out := &html.Node{Type: html.DocumentNode}
	for c := in.FirstChild; c != nil; c = c.NextSibling {
		if c == root {
			out.AppendChild(b.buildRoot(root, doc, t.created(doc.Created)))
			continue
		}
		out.AppendChild(b.clone(c))
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w: %w", IndexMember, models.ErrMalformedHTML, err)
	}

	return &normalized{html: buf.Bytes(), assets: b.assets}, nil
}

type builder struct {
	t      *Transformer
	seen   map[string]bool
	assets []string
}

// buildRoot produces <html> with a head that starts with <title> and the
// created <meta>, and a body that starts with the source URL paragraph.
func (b *builder) buildRoot(root *html.Node, doc models.DocumentRecord, created string) *html.Node {
	out := b.shallow(root)

	head := findChild(root, atom.Head)
	body := findChild(root, atom.Body)

	for c := root.FirstChild; c != nil; c = c.NextSibling {
		switch c {
		case head:
			out.AppendChild(b.buildHead(head, doc.Title, created))
		case body:
			out.AppendChild(b.buildBody(body, doc.URL))
		default:
			out.AppendChild(b.clone(c))
		}
	}

	if head == nil {
		h := b.buildHead(nil, doc.Title, created)
		out.InsertBefore(h, out.FirstChild)
	}
	if body == nil && findChild(root, atom.Frameset) == nil {
		out.AppendChild(b.buildBody(nil, doc.URL))
	}

	return out
}

func (b *builder) buildHead(head *html.Node, title, created string) *html.Node {
	out := element(atom.Head)
	if head != nil {
		out.Attr = copyAttrs(head.Attr)
	}

	titleEl := element(atom.Title)
	titleEl.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	out.AppendChild(titleEl)

	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{
		{Key: "name", Val: "created"},
		{Key: "content", Val: created},
	}
	out.AppendChild(meta)

	if head == nil {
		return out
	}
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Title {
			continue
		}
		out.AppendChild(b.clone(c))
	}
	return out
}

func (b *builder) buildBody(body *html.Node, url string) *html.Node {
	out := element(atom.Body)
	if body != nil {
		out.Attr = copyAttrs(body.Attr)
	}

	if url != "" {
		p := element(atom.P)
		p.AppendChild(&html.Node{Type: html.TextNode, Data: "URL: " + url})
		out.AppendChild(p)
	}

	if body == nil {
		return out
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(b.clone(c))
	}
	return out
}

// clone deep-copies n, rewriting asset image references and charset declarations
func (b *builder) clone(n *html.Node) *html.Node {
	out := b.shallow(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(b.clone(c))
	}
	return out
}

func (b *builder) shallow(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      copyAttrs(n.Attr),
	}
	if n.Type != html.ElementNode {
		return out
	}

	switch n.DataAtom {
	case atom.Img:
		b.rewriteImage(out)
	case atom.Meta:
		rewriteCharset(out)
	}
	return out
}

func (b *builder) rewriteImage(img *html.Node) {
	for i, a := range img.Attr {
		if a.Namespace != "" || a.Key != "src" {
			continue
		}
		m := b.t.assetPattern.FindStringSubmatch(a.Val)
		if m == nil {
			return
		}
		name := m[1]
		img.Attr[i].Val = MarkerPrefix + name
		if !b.seen[name] {
			b.seen[name] = true
			b.assets = append(b.assets, name)
		}
		return
	}
}

// rewriteCharset keeps charset declarations truthful, output is always UTF-8
func rewriteCharset(meta *html.Node) {
	httpEquiv := false
	for _, a := range meta.Attr {
		if a.Key == "http-equiv" && strings.EqualFold(a.Val, "content-type") {
			httpEquiv = true
		}
	}
	for i, a := range meta.Attr {
		switch {
		case a.Key == "charset":
			meta.Attr[i].Val = "utf-8"
		case httpEquiv && a.Key == "content":
			meta.Attr[i].Val = "text/html; charset=utf-8"
		}
	}
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func findChild(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func copyAttrs(attrs []html.Attribute) []html.Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]html.Attribute, len(attrs))
	copy(out, attrs)
	return out
}
