package docsmith

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Param is a named, optionally annotated parameter or attribute.
type Param struct {
	Name string
	Type string
}

// FunctionInfo describes a function-like declaration. Built fresh per
// declaration per analysis pass; never mutated afterwards.
type FunctionInfo struct {
	Name    string
	Params  []Param
	Returns string   // "None" when no return annotation is present
	Raises  []string // distinct exception type names, sorted
	Yields  bool
}

// ClassInfo describes a class declaration.
type ClassInfo struct {
	Name       string
	Attributes []Param  // self-assignments found in __init__
	Methods    []string // public method names in body order
}

const anyType = "Any"

// ExtractFunctionInfo builds a FunctionInfo from a function_definition node.
// Raise and yield detection deliberately walks all descendants, so a raise
// inside a nested inner function is attributed to the outer declaration.
func ExtractFunctionInfo(node *sitter.Node, source []byte) FunctionInfo {
	info := FunctionInfo{
		Name:    declarationName(node, source),
		Returns: "None",
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		info.Params = extractParameters(params, source)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		info.Returns = strings.TrimSpace(nodeText(ret, source))
	}

	raises := make(map[string]struct{})
	walkTree(node, func(n *sitter.Node) {
		switch n.Kind() {
		case nodeRaiseStatement:
			if name := raisedExceptionName(n, source); name != "" {
				raises[name] = struct{}{}
			}
		case nodeYield:
			info.Yields = true
		}
	})

	info.Raises = make([]string, 0, len(raises))
	for name := range raises {
		info.Raises = append(info.Raises, name)
	}
	sort.Strings(info.Raises)
	return info
}

func extractParameters(params *sitter.Node, source []byte) []Param {
	out := make([]Param, 0, params.NamedChildCount())
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case nodeIdentifier:
			out = append(out, Param{Name: nodeText(child, source), Type: anyType})
		case "typed_parameter":
			out = append(out, Param{
				Name: typedParameterName(child, source),
				Type: annotationOrAny(child.ChildByFieldName("type"), source),
			})
		case "default_parameter":
			out = append(out, Param{
				Name: strings.TrimSpace(nodeText(child.ChildByFieldName("name"), source)),
				Type: anyType,
			})
		case "typed_default_parameter":
			out = append(out, Param{
				Name: strings.TrimSpace(nodeText(child.ChildByFieldName("name"), source)),
				Type: annotationOrAny(child.ChildByFieldName("type"), source),
			})
		case "list_splat_pattern":
			if name := splatName(child, source); name != "" {
				out = append(out, Param{Name: "*" + name, Type: anyType})
			}
		case "dictionary_splat_pattern":
			if name := splatName(child, source); name != "" {
				out = append(out, Param{Name: "**" + name, Type: anyType})
			}
		}
		// positional_separator ("/") and keyword_separator ("*") carry no name.
	}
	return out
}

func typedParameterName(param *sitter.Node, source []byte) string {
	for i := uint(0); i < param.NamedChildCount(); i++ {
		child := param.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case nodeIdentifier:
			return nodeText(child, source)
		case "list_splat_pattern":
			return "*" + splatName(child, source)
		case "dictionary_splat_pattern":
			return "**" + splatName(child, source)
		}
	}
	return ""
}

func splatName(pattern *sitter.Node, source []byte) string {
	for i := uint(0); i < pattern.NamedChildCount(); i++ {
		child := pattern.NamedChild(i)
		if child != nil && child.Kind() == nodeIdentifier {
			return nodeText(child, source)
		}
	}
	return ""
}

func annotationOrAny(annotation *sitter.Node, source []byte) string {
	text := strings.TrimSpace(nodeText(annotation, source))
	if text == "" {
		return anyType
	}
	return text
}

// raisedExceptionName resolves the base type name of a raise statement,
// stripping call arguments: `raise ValueError("boom")` yields "ValueError",
// a bare `raise` yields "".
func raisedExceptionName(raise *sitter.Node, source []byte) string {
	if raise.NamedChildCount() == 0 {
		return ""
	}
	exc := raise.NamedChild(0)
	if exc == nil {
		return ""
	}
	if exc.Kind() == nodeCall {
		if callee := exc.ChildByFieldName("function"); callee != nil {
			return strings.TrimSpace(nodeText(callee, source))
		}
	}
	return strings.TrimSpace(nodeText(exc, source))
}

// ExtractClassInfo builds a ClassInfo from a class_definition node. A class
// with no __init__ yields no attributes; a class with no public methods
// yields an empty method list.
func ExtractClassInfo(node *sitter.Node, source []byte) ClassInfo {
	info := ClassInfo{Name: declarationName(node, source)}

	body := declarationBody(node)
	if body == nil {
		return info
	}

	var initMethod *sitter.Node
	for i := uint(0); i < body.NamedChildCount(); i++ {
		method := bodyFunction(body.NamedChild(i))
		if method == nil {
			continue
		}
		name := declarationName(method, source)
		if name == "__init__" && initMethod == nil {
			initMethod = method
		}
		if name != "" && !strings.HasPrefix(name, "_") {
			info.Methods = append(info.Methods, name)
		}
	}

	if initMethod != nil {
		info.Attributes = extractSelfAssignments(initMethod, source)
	}
	return info
}

// bodyFunction unwraps a direct class-body item to its function definition,
// looking through decorators.
func bodyFunction(item *sitter.Node) *sitter.Node {
	if item == nil {
		return nil
	}
	if item.Kind() == nodeFunctionDef {
		return item
	}
	if item.Kind() == nodeDecoratedDef {
		if def := item.ChildByFieldName("definition"); def != nil && def.Kind() == nodeFunctionDef {
			return def
		}
	}
	return nil
}

func extractSelfAssignments(initMethod *sitter.Node, source []byte) []Param {
	var attrs []Param
	seen := make(map[string]struct{})

	walkTree(initMethod, func(n *sitter.Node) {
		if n.Kind() != nodeAssignment {
			return
		}
		left := n.ChildByFieldName("left")
		if left == nil || left.Kind() != nodeAttribute {
			return
		}
		object := left.ChildByFieldName("object")
		if object == nil || object.Kind() != nodeIdentifier || nodeText(object, source) != "self" {
			return
		}
		attr := left.ChildByFieldName("attribute")
		if attr == nil {
			return
		}
		name := nodeText(attr, source)
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		attrs = append(attrs, Param{
			Name: name,
			Type: annotationOrAny(n.ChildByFieldName("type"), source),
		})
	})

	return attrs
}
