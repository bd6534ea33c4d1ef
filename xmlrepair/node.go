package xmlrepair

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/quailyquaily/unifix/repair"
)

type NodeKind string

const (
	DocumentNode  NodeKind = "document"
	ElementNode   NodeKind = "element"
	TextNode      NodeKind = "text"
	CommentNode   NodeKind = "comment"
	ProcInstNode  NodeKind = "procinst"
	DirectiveNode NodeKind = "directive"
)

type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Node is a parsed XML node. Names keep their namespace prefix as written.
type Node struct {
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Attrs    []Attr   `json:"attrs,omitempty"`
	Text     string   `json:"text,omitempty"`
	CDATA    bool     `json:"cdata,omitempty"`
	Children []*Node  `json:"children,omitempty"`
}

// Root returns the document element, or nil.
func (n *Node) Root() *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			return c
		}
	}
	return nil
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// InnerText concatenates the text of n and its descendants.
func (n *Node) InnerText() string {
	if n.Kind == TextNode {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		if c.Kind == TextNode || c.Kind == ElementNode {
			b.WriteString(c.InnerText())
		}
	}
	return b.String()
}

var entityDecl = regexp.MustCompile(`<!ENTITY\s+([A-Za-z_:][\w.:-]*)\s+(?:"([^"<&%]*)"|'([^'<&%]*)')\s*>`)

func newDecoder(text string) *xml.Decoder {
	d := xml.NewDecoder(strings.NewReader(text))
	d.Strict = true
	d.CharsetReader = charset.NewReaderLabel
	d.Entity = declaredEntities(text)
	return d
}

// declaredEntities collects the internal general entities of a DOCTYPE
// subset; encoding/xml does not read them itself.
func declaredEntities(text string) map[string]string {
	if !strings.Contains(text, "<!DOCTYPE") {
		return nil
	}
	ents := map[string]string{}
	for _, m := range entityDecl.FindAllStringSubmatch(text, -1) {
		ents[m[1]] = m[2] + m[3]
	}
	return ents
}

// decode checks well-formedness, including the single root rule that
// encoding/xml leaves to callers, and builds the node tree.
func decode(text string) (*Node, *repair.Error) {
	d := newDecoder(text)
	depth, roots := 0, 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			e := repair.NewError(repair.KindParse, "%s", err.Error()).At(text, int(d.InputOffset()))
			return nil, &e
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					e := repair.NewError(repair.KindMultipleRoots, "second top-level element <%s>", t.Name.Local).At(text, int(d.InputOffset()))
					return nil, &e
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				kind, msg := repair.KindTextBeforeRoot, "text before the root element"
				if roots > 0 {
					kind, msg = repair.KindParse, "text after the root element"
				}
				e := repair.NewError(kind, "%s", msg).At(text, int(d.InputOffset()))
				return nil, &e
			}
		}
	}
	if roots == 0 {
		e := repair.NewError(repair.KindParse, "no root element").At(text, len(text))
		return nil, &e
	}
	return buildTree(text)
}

func buildTree(text string) (*Node, *repair.Error) {
	d := newDecoder(text)
	doc := &Node{Kind: DocumentNode}
	stack := []*Node{doc}
	for {
		from := int(d.InputOffset())
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		if err != nil {
			e := repair.NewError(repair.KindParse, "%s", err.Error()).At(text, int(d.InputOffset()))
			return nil, &e
		}
		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Kind: ElementNode, Name: qualified(t.Name)}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			parent.Children = append(parent.Children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			cdata := from < len(text) && strings.HasPrefix(text[from:], "<![CDATA[")
			parent.Children = append(parent.Children, &Node{Kind: TextNode, Text: string(t), CDATA: cdata})
		case xml.Comment:
			parent.Children = append(parent.Children, &Node{Kind: CommentNode, Text: string(t)})
		case xml.ProcInst:
			parent.Children = append(parent.Children, &Node{Kind: ProcInstNode, Name: t.Target, Text: string(t.Inst)})
		case xml.Directive:
			parent.Children = append(parent.Children, &Node{Kind: DirectiveNode, Text: string(t)})
		}
	}
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;", "\n", "&#xA;", "\t", "&#x9;")
)

// render writes n with one node per line. Whitespace-only text is dropped
// and elements holding only text stay on a single line.
func render(n *Node, indent string) string {
	var b strings.Builder
	for _, c := range n.Children {
		writeNode(&b, c, indent, 0)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeNode(b *strings.Builder, n *Node, indent string, depth int) {
	pad := strings.Repeat(indent, depth)
	switch n.Kind {
	case TextNode:
		if t := textOut(n); t != "" {
			b.WriteString(pad + t + "\n")
		}
	case CommentNode:
		b.WriteString(pad + "<!--" + n.Text + "-->\n")
	case ProcInstNode:
		b.WriteString(pad + "<?" + n.Name)
		if n.Text != "" {
			b.WriteString(" " + n.Text)
		}
		b.WriteString("?>\n")
	case DirectiveNode:
		b.WriteString(pad + "<!" + n.Text + ">\n")
	case ElementNode:
		b.WriteString(pad + "<" + n.Name)
		for _, a := range n.Attrs {
			b.WriteString(" " + a.Name + `="` + attrEscaper.Replace(a.Value) + `"`)
		}
		children := significant(n.Children)
		switch {
		case len(children) == 0:
			b.WriteString("/>\n")
		case len(children) == 1 && children[0].Kind == TextNode:
			b.WriteString(">" + textOut(children[0]) + "</" + n.Name + ">\n")
		default:
			b.WriteString(">\n")
			for _, c := range children {
				writeNode(b, c, indent, depth+1)
			}
			b.WriteString(pad + "</" + n.Name + ">\n")
		}
	}
}

// textOut renders a text node. CDATA sections are written back verbatim.
func textOut(n *Node) string {
	if n.CDATA {
		return "<![CDATA[" + n.Text + "]]>"
	}
	return textEscaper.Replace(strings.TrimSpace(n.Text))
}

func significant(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, c := range nodes {
		if c.Kind == TextNode && !c.CDATA && strings.TrimSpace(c.Text) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
