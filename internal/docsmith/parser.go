package docsmith

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var pythonSyntaxLanguage = sitter.NewLanguage(tree_sitter_python.Language())

// Python grammar node kinds the analyzer cares about.
const (
	nodeFunctionDef         = "function_definition"
	nodeClassDef            = "class_definition"
	nodeDecoratedDef        = "decorated_definition"
	nodeBlock               = "block"
	nodeExpressionStatement = "expression_statement"
	nodeString              = "string"
	nodeStringContent       = "string_content"
	nodeRaiseStatement      = "raise_statement"
	nodeYield               = "yield"
	nodeCall                = "call"
	nodeAttribute           = "attribute"
	nodeIdentifier          = "identifier"
	nodeAssignment          = "assignment"
	nodeComment             = "comment"
)

// DeclKind is the closed set of documentable declaration kinds.
type DeclKind int

const (
	DeclFunction DeclKind = iota
	DeclAsyncFunction
	DeclClass
)

func (k DeclKind) String() string {
	switch k {
	case DeclFunction:
		return "function"
	case DeclAsyncFunction:
		return "async function"
	case DeclClass:
		return "class"
	default:
		return "unknown"
	}
}

// ParseError reports malformed source. It propagates uncaught through
// analysis and instrumentation; callers decide whether to catch it.
type ParseError struct {
	Line   int // 1-based
	Column int // 0-based, as reported by the parser
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column)
}

func newPythonParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(pythonSyntaxLanguage); err != nil {
		parser.Close()
		return nil, err
	}
	return parser, nil
}

// parsePython parses source and rejects trees containing error or missing
// nodes. The caller owns the returned tree and must Close it.
func parsePython(source []byte) (*sitter.Tree, error) {
	parser, err := newPythonParser()
	if err != nil {
		return nil, fmt.Errorf("init python parser: %w", err)
	}
	defer parser.Close()

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse returned no tree")
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, fmt.Errorf("parse returned no root node")
	}
	if root.HasError() {
		bad := firstSyntaxError(root)
		pos := bad.StartPosition()
		tree.Close()
		return nil, &ParseError{Line: int(pos.Row) + 1, Column: int(pos.Column)}
	}
	return tree, nil
}

func firstSyntaxError(root *sitter.Node) *sitter.Node {
	found := root
	walkTree(root, func(node *sitter.Node) {
		if found == root && (node.IsError() || node.IsMissing()) {
			found = node
		}
	})
	return found
}

// walkTree visits root and all descendants in pre-order.
func walkTree(root *sitter.Node, visit func(*sitter.Node)) {
	if root == nil || visit == nil {
		return
	}

	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(node)

		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			child := node.Child(uint(i))
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Utf8Text(source)
}

// declKindOf classifies a node, reporting false for anything that is not a
// documentable declaration.
func declKindOf(node *sitter.Node) (DeclKind, bool) {
	if node == nil {
		return 0, false
	}
	switch node.Kind() {
	case nodeClassDef:
		return DeclClass, true
	case nodeFunctionDef:
		if isAsyncFunction(node) {
			return DeclAsyncFunction, true
		}
		return DeclFunction, true
	}
	return 0, false
}

func isAsyncFunction(node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "async" {
			return true
		}
		// "async" precedes the def keyword when present.
		if child.Kind() == "def" {
			return false
		}
	}
	return false
}

func declarationName(node *sitter.Node, source []byte) string {
	return strings.TrimSpace(nodeText(node.ChildByFieldName("name"), source))
}

func declarationBody(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	return node.ChildByFieldName("body")
}

// docstringStringNode returns the string node of the declaration's docstring,
// i.e. the first body statement when it is a bare string expression.
func docstringStringNode(decl *sitter.Node) *sitter.Node {
	body := declarationBody(decl)
	if body == nil || body.NamedChildCount() == 0 {
		return nil
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != nodeExpressionStatement {
		return nil
	}
	if first.NamedChildCount() != 1 {
		return nil
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != nodeString {
		return nil
	}
	return str
}

// docstringText returns the inner text of a declaration's docstring, without
// quotes or prefixes, or "" when there is none.
func docstringText(decl *sitter.Node, source []byte) string {
	return stringLiteralContent(docstringStringNode(decl), source)
}

// moduleDocstringNode finds the module-level docstring of a parsed file.
// Leading comments (shebang, coding cookie, license header) sit before the
// docstring statement in the tree and are looked past.
func moduleDocstringNode(root *sitter.Node) *sitter.Node {
	first := firstNonCommentChild(root)
	if first == nil || first.Kind() != nodeExpressionStatement {
		return nil
	}
	if first.NamedChildCount() != 1 {
		return nil
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != nodeString {
		return nil
	}
	return str
}

func firstNonCommentChild(root *sitter.Node) *sitter.Node {
	if root == nil {
		return nil
	}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil || child.Kind() == nodeComment {
			continue
		}
		return child
	}
	return nil
}

func stringLiteralContent(str *sitter.Node, source []byte) string {
	if str == nil {
		return ""
	}
	var sb strings.Builder
	for i := uint(0); i < str.ChildCount(); i++ {
		child := str.Child(i)
		if child != nil && child.Kind() == nodeStringContent {
			sb.WriteString(nodeText(child, source))
		}
	}
	return sb.String()
}

// enclosedInFunction reports whether node sits inside another function body.
// Class bodies do not count: methods are part of the documentable API.
func enclosedInFunction(node *sitter.Node) bool {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		if parent.Kind() == nodeFunctionDef {
			return true
		}
	}
	return false
}
