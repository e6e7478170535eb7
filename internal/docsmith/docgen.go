package docsmith

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// moduleDocstring is the generic file-level docstring used when a file has
// none of its own.
const moduleDocstring = "Module for processing Python files."

// Generator renders docstring bodies for declarations in a fixed style.
// Output is plain text without quote delimiters; embedding it in source is
// the instrumentor's job. Identical input yields byte-identical output.
type Generator struct {
	style    Style
	renderer docRenderer
}

// NewGenerator validates the style token and returns a ready generator.
func NewGenerator(style string) (*Generator, error) {
	parsed, err := ParseStyle(style)
	if err != nil {
		return nil, err
	}
	return &Generator{style: parsed, renderer: rendererFor(parsed)}, nil
}

func (g *Generator) Style() Style { return g.style }

// Docstring renders a docstring body for any documentable declaration node.
// Non-declaration nodes produce "".
func (g *Generator) Docstring(node *sitter.Node, source []byte) string {
	kind, ok := declKindOf(node)
	if !ok {
		return ""
	}
	if kind == DeclClass {
		return g.ClassDocstring(ExtractClassInfo(node, source))
	}
	return g.FunctionDocstring(ExtractFunctionInfo(node, source))
}

// FunctionDocstring renders a docstring body for a function description.
func (g *Generator) FunctionDocstring(info FunctionInfo) string {
	return g.renderer.renderFunction(info)
}

// ClassDocstring renders a docstring body for a class description.
func (g *Generator) ClassDocstring(info ClassInfo) string {
	return g.renderer.renderClass(info)
}

type docRenderer interface {
	renderFunction(info FunctionInfo) string
	renderClass(info ClassInfo) string
}

func rendererFor(style Style) docRenderer {
	switch style {
	case StyleNumpy:
		return numpyRenderer{}
	case StyleRest:
		return restRenderer{}
	default:
		return googleRenderer{}
	}
}

// docLines assembles docstring sections line by line. Lines are joined with
// single newlines; a line may itself carry a trailing "\n" to force a blank
// separator, matching each convention's exact spacing.
type docLines struct {
	lines []string
}

func (d *docLines) add(lines ...string) {
	d.lines = append(d.lines, lines...)
}

func (d *docLines) String() string {
	return strings.Join(d.lines, "\n")
}

type googleRenderer struct{}

func (googleRenderer) renderFunction(info FunctionInfo) string {
	var d docLines
	d.add(info.Name + " function.\n")

	if len(info.Params) > 0 {
		d.add("Args:")
		for _, p := range info.Params {
			d.add(fmt.Sprintf("    %s (%s): TODO: describe argument", p.Name, p.Type))
		}
		d.add("")
	}

	if info.Yields {
		d.add("Yields:", fmt.Sprintf("    %s: TODO: describe yielded value\n", info.Returns))
	} else if info.Returns != "None" {
		d.add("Returns:", fmt.Sprintf("    %s: TODO: describe return value\n", info.Returns))
	}

	if len(info.Raises) > 0 {
		d.add("Raises:")
		for _, exc := range info.Raises {
			d.add(fmt.Sprintf("    %s: TODO: describe when this exception is raised", exc))
		}
	}
	return d.String()
}

func (googleRenderer) renderClass(info ClassInfo) string {
	var d docLines
	d.add(info.Name + " class.\n")

	if len(info.Attributes) > 0 {
		d.add("Attributes:")
		for _, a := range info.Attributes {
			d.add(fmt.Sprintf("    %s (%s): TODO: describe attribute", a.Name, a.Type))
		}
		d.add("")
	}

	if len(info.Methods) > 0 {
		d.add("Methods:")
		for _, m := range info.Methods {
			d.add(fmt.Sprintf("    %s(): TODO: describe method", m))
		}
	}
	return d.String()
}

type numpyRenderer struct{}

func (numpyRenderer) renderFunction(info FunctionInfo) string {
	var d docLines
	d.add(info.Name + " function.\n")

	if len(info.Params) > 0 {
		d.add("Parameters", "----------")
		for _, p := range info.Params {
			d.add(fmt.Sprintf("%s : %s", p.Name, p.Type), "    TODO: describe parameter")
		}
		d.add("")
	}

	if info.Yields {
		d.add("Yields", "------", info.Returns, "    TODO: describe yielded value\n")
	} else if info.Returns != "None" {
		d.add("Returns", "-------", info.Returns, "    TODO: describe return value\n")
	}

	if len(info.Raises) > 0 {
		d.add("Raises", "------")
		for _, exc := range info.Raises {
			d.add(exc, "    TODO: describe exception\n")
		}
	}
	return d.String()
}

func (numpyRenderer) renderClass(info ClassInfo) string {
	var d docLines
	d.add(info.Name + " class.\n")

	if len(info.Attributes) > 0 {
		d.add("Attributes", "----------")
		for _, a := range info.Attributes {
			d.add(fmt.Sprintf("%s : %s", a.Name, a.Type), "    TODO: describe attribute")
		}
		d.add("")
	}

	if len(info.Methods) > 0 {
		d.add("Methods", "-------")
		for _, m := range info.Methods {
			d.add(m+"()", "    TODO: describe method")
		}
	}
	return d.String()
}

type restRenderer struct{}

func (restRenderer) renderFunction(info FunctionInfo) string {
	var d docLines
	d.add(info.Name + " function.\n")

	if len(info.Params) > 0 {
		names := make([]string, len(info.Params))
		for i, p := range info.Params {
			names[i] = p.Name
		}
		d.add(":param " + strings.Join(names, ", :param ") + ":")
		for _, p := range info.Params {
			d.add(fmt.Sprintf(":type %s: %s", p.Name, p.Type))
		}
	}

	if info.Yields {
		d.add(fmt.Sprintf(":yields: %s - TODO: describe yielded value", info.Returns))
	} else if info.Returns != "None" {
		d.add(":return: TODO: describe return value", ":rtype: "+info.Returns)
	}

	for _, exc := range info.Raises {
		d.add(fmt.Sprintf(":raises %s: TODO: describe exception", exc))
	}
	return d.String()
}

func (restRenderer) renderClass(info ClassInfo) string {
	var d docLines
	d.add(info.Name + " class.\n")

	if len(info.Attributes) > 0 {
		d.add("Attributes:")
		for _, a := range info.Attributes {
			d.add(fmt.Sprintf(":ivar %s: TODO: describe attribute", a.Name))
			d.add(fmt.Sprintf(":vartype %s: %s", a.Name, a.Type))
		}
	}
	return d.String()
}
