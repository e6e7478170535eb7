package docsmith

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// trivialDocstringLimit is the trimmed length of a docstring literal (quote
// delimiters included) at or below which it is considered a stub and
// regenerated.
const trivialDocstringLimit = 20

// Instrumentor inserts synthesized docstrings into Python source. Existing
// substantive docstrings are never altered; the re-serialized output always
// parses.
type Instrumentor struct {
	gen *Generator
}

// NewInstrumentor builds an Instrumentor for a style token, failing with a
// *ConfigurationError on an unsupported style.
func NewInstrumentor(style string) (*Instrumentor, error) {
	gen, err := NewGenerator(style)
	if err != nil {
		return nil, err
	}
	return &Instrumentor{gen: gen}, nil
}

// Generator exposes the instrumentor's docstring generator.
func (ins *Instrumentor) Generator() *Generator { return ins.gen }

// sourceEdit replaces src[Start:End) with Text. Insertions use Start == End.
type sourceEdit struct {
	Start int
	End   int
	Text  string
}

// AddDocstrings parses source, synthesizes docstrings for every documentable
// declaration missing one (or carrying a stub of trivialDocstringLimit or
// fewer trimmed characters), and splices them into the text.
//
// Declarations nested inside a function body are left alone: the documentable
// API is top-level functions, classes and their methods. A file without a
// module docstring gains a generic one.
func (ins *Instrumentor) AddDocstrings(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return `"""` + moduleDocstring + `"""` + "\n", nil
	}

	src := []byte(source)
	tree, err := parsePython(src)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	root := tree.RootNode()
	edits := make([]sourceEdit, 0, 8)

	if moduleDocstringNode(root) == nil {
		edits = append(edits, moduleDocstringEdit(root, src))
	}

	walkTree(root, func(node *sitter.Node) {
		if _, ok := declKindOf(node); !ok {
			return
		}
		if enclosedInFunction(node) {
			return
		}
		if edit, ok := ins.declarationEdit(node, src); ok {
			edits = append(edits, edit)
		}
	})

	out := applyEdits(src, edits)

	// The splice must never break the file; verify before handing it back.
	check, err := parsePython(out)
	if err != nil {
		return "", fmt.Errorf("instrumented source failed to re-parse: %w", err)
	}
	check.Close()

	return string(out), nil
}

func (ins *Instrumentor) declarationEdit(node *sitter.Node, src []byte) (sourceEdit, bool) {
	docNode := docstringStringNode(node)
	if docNode != nil && len(strings.TrimSpace(nodeText(docNode, src))) > trivialDocstringLimit {
		return sourceEdit{}, false
	}

	content := ins.gen.Docstring(node, src)
	if content == "" {
		return sourceEdit{}, false
	}

	if docNode != nil {
		// Stub docstring: rewrite the string literal in place.
		start := int(docNode.StartByte())
		indent := lineIndent(src, start)
		return sourceEdit{
			Start: start,
			End:   int(docNode.EndByte()),
			Text:  docstringLiteral(content, indent),
		}, true
	}

	body := declarationBody(node)
	if body == nil || body.NamedChildCount() == 0 {
		return sourceEdit{}, false
	}
	first := body.NamedChild(0)
	if first == nil {
		return sourceEdit{}, false
	}

	start := int(first.StartByte())
	if first.StartPosition().Row == node.StartPosition().Row {
		// Inline body (`def f(): return 1`): push the statement onto its own
		// indented line below the new docstring.
		indent := lineIndent(src, int(node.StartByte())) + "    "
		return sourceEdit{
			Start: start,
			End:   start,
			Text:  "\n" + indent + docstringLiteral(content, indent) + "\n" + indent,
		}, true
	}

	indent := lineIndent(src, start)
	return sourceEdit{
		Start: start,
		End:   start,
		Text:  docstringLiteral(content, indent) + "\n" + indent,
	}, true
}

// moduleDocstringEdit inserts the generic module docstring after any leading
// comment block, so shebang lines and coding cookies keep their mandated
// position on lines 1-2.
func moduleDocstringEdit(root *sitter.Node, src []byte) sourceEdit {
	literal := `"""` + moduleDocstring + `"""`

	offset := 0
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil || child.Kind() != nodeComment {
			break
		}
		offset = int(child.EndByte())
	}

	if offset == 0 {
		return sourceEdit{Start: 0, End: 0, Text: literal + "\n"}
	}
	if newline := bytes.IndexByte(src[offset:], '\n'); newline >= 0 {
		pos := offset + newline + 1
		return sourceEdit{Start: pos, End: pos, Text: literal + "\n"}
	}
	return sourceEdit{Start: len(src), End: len(src), Text: "\n" + literal + "\n"}
}

// docstringLiteral wraps rendered docstring content in triple quotes,
// indenting interior lines to the declaration body's level. Blank lines stay
// truly empty to avoid trailing whitespace.
func docstringLiteral(content, indent string) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) == 1 {
		return `"""` + lines[0] + `"""`
	}

	var sb strings.Builder
	sb.WriteString(`"""`)
	sb.WriteString(lines[0])
	for _, line := range lines[1:] {
		sb.WriteString("\n")
		if line != "" {
			sb.WriteString(indent)
			sb.WriteString(line)
		}
	}
	sb.WriteString("\n")
	sb.WriteString(indent)
	sb.WriteString(`"""`)
	return sb.String()
}

// lineIndent returns the whitespace prefix of the line containing offset,
// up to the offset itself. Non-whitespace before the offset yields "".
func lineIndent(src []byte, offset int) string {
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	prefix := src[start:offset]
	for _, b := range prefix {
		if b != ' ' && b != '\t' {
			return ""
		}
	}
	return string(prefix)
}

// applyEdits splices edits into src back to front so earlier offsets stay
// valid. Edits never overlap.
func applyEdits(src []byte, edits []sourceEdit) []byte {
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].Start > edits[j].Start
	})

	out := append([]byte(nil), src...)
	for _, e := range edits {
		var next []byte
		next = append(next, out[:e.Start]...)
		next = append(next, e.Text...)
		next = append(next, out[e.End:]...)
		out = next
	}
	return out
}
