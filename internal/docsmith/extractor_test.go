package docsmith

import (
	"errors"
	"reflect"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func parseFixture(t *testing.T, source string) (*sitter.Node, []byte) {
	t.Helper()
	src := []byte(source)
	tree, err := parsePython(src)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	t.Cleanup(tree.Close)
	return tree.RootNode(), src
}

func findDeclaration(t *testing.T, root *sitter.Node, src []byte, name string) *sitter.Node {
	t.Helper()
	var found *sitter.Node
	walkTree(root, func(node *sitter.Node) {
		if found != nil {
			return
		}
		if _, ok := declKindOf(node); !ok {
			return
		}
		if declarationName(node, src) == name {
			found = node
		}
	})
	if found == nil {
		t.Fatalf("declaration %q not found", name)
	}
	return found
}

func TestExtractFunctionInfoParameters(t *testing.T) {
	source := `def handler(request, count: int, retries=3, timeout: float = 1.5, *args, **kwargs):
    return count
`
	root, src := parseFixture(t, source)
	info := ExtractFunctionInfo(findDeclaration(t, root, src, "handler"), src)

	want := []Param{
		{Name: "request", Type: "Any"},
		{Name: "count", Type: "int"},
		{Name: "retries", Type: "Any"},
		{Name: "timeout", Type: "float"},
		{Name: "*args", Type: "Any"},
		{Name: "**kwargs", Type: "Any"},
	}
	if !reflect.DeepEqual(info.Params, want) {
		t.Fatalf("unexpected params: %#v", info.Params)
	}
	if info.Returns != "None" {
		t.Fatalf("expected None return, got %q", info.Returns)
	}
	if info.Yields {
		t.Fatal("expected non-generator")
	}
}

func TestExtractFunctionInfoReturnAnnotation(t *testing.T) {
	source := `def total(items: list) -> int:
    return sum(items)
`
	root, src := parseFixture(t, source)
	info := ExtractFunctionInfo(findDeclaration(t, root, src, "total"), src)

	if info.Returns != "int" {
		t.Fatalf("expected int return, got %q", info.Returns)
	}
}

func TestExtractFunctionInfoRaises(t *testing.T) {
	source := `def risky(value):
    if value < 0:
        raise ValueError("negative")
    if value > 100:
        raise errors.RangeError("too big")
    raise ValueError("again")
`
	root, src := parseFixture(t, source)
	info := ExtractFunctionInfo(findDeclaration(t, root, src, "risky"), src)

	want := []string{"ValueError", "errors.RangeError"}
	if !reflect.DeepEqual(info.Raises, want) {
		t.Fatalf("unexpected raises: %v", info.Raises)
	}
}

func TestExtractFunctionInfoNestedRaiseAttributedToOuter(t *testing.T) {
	// The walk deliberately covers all descendants, so a raise inside a
	// nested helper counts against the outer declaration.
	source := `def outer(x):
    def inner():
        raise KeyError("missing")
    return inner
`
	root, src := parseFixture(t, source)
	info := ExtractFunctionInfo(findDeclaration(t, root, src, "outer"), src)

	if !reflect.DeepEqual(info.Raises, []string{"KeyError"}) {
		t.Fatalf("expected nested raise attributed to outer, got %v", info.Raises)
	}
}

func TestExtractFunctionInfoYields(t *testing.T) {
	tests := []struct {
		name   string
		source string
		decl   string
		want   bool
	}{
		{
			name:   "plain yield",
			source: "def gen(n):\n    for i in range(n):\n        yield i\n",
			decl:   "gen",
			want:   true,
		},
		{
			name:   "yield from",
			source: "def chain(a, b):\n    yield from a\n    yield from b\n",
			decl:   "chain",
			want:   true,
		},
		{
			name:   "no yield",
			source: "def plain(x):\n    return x\n",
			decl:   "plain",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, src := parseFixture(t, tt.source)
			info := ExtractFunctionInfo(findDeclaration(t, root, src, tt.decl), src)
			if info.Yields != tt.want {
				t.Fatalf("Yields = %v, want %v", info.Yields, tt.want)
			}
		})
	}
}

func TestExtractFunctionInfoAsync(t *testing.T) {
	source := `async def fetch(url: str) -> bytes:
    return b""
`
	root, src := parseFixture(t, source)
	node := findDeclaration(t, root, src, "fetch")

	kind, ok := declKindOf(node)
	if !ok || kind != DeclAsyncFunction {
		t.Fatalf("expected async function kind, got %v", kind)
	}

	info := ExtractFunctionInfo(node, src)
	if info.Returns != "bytes" {
		t.Fatalf("expected bytes return, got %q", info.Returns)
	}
}

func TestExtractClassInfo(t *testing.T) {
	source := `class Account:
    def __init__(self, owner):
        self.owner = owner
        self.balance: float = 0.0
        self._audit = []

    def deposit(self, amount):
        self.balance += amount

    def _log(self, entry):
        pass

    def close(self):
        pass
`
	root, src := parseFixture(t, source)
	info := ExtractClassInfo(findDeclaration(t, root, src, "Account"), src)

	wantAttrs := []Param{
		{Name: "owner", Type: "Any"},
		{Name: "balance", Type: "float"},
		{Name: "_audit", Type: "Any"},
	}
	if !reflect.DeepEqual(info.Attributes, wantAttrs) {
		t.Fatalf("unexpected attributes: %#v", info.Attributes)
	}
	if !reflect.DeepEqual(info.Methods, []string{"deposit", "close"}) {
		t.Fatalf("unexpected methods: %v", info.Methods)
	}
}

func TestExtractClassInfoWithoutInit(t *testing.T) {
	source := `class Marker:
    def label(self):
        return "marker"
`
	root, src := parseFixture(t, source)
	info := ExtractClassInfo(findDeclaration(t, root, src, "Marker"), src)

	if len(info.Attributes) != 0 {
		t.Fatalf("expected no attributes, got %#v", info.Attributes)
	}
	if !reflect.DeepEqual(info.Methods, []string{"label"}) {
		t.Fatalf("unexpected methods: %v", info.Methods)
	}
}

func TestExtractClassInfoEmpty(t *testing.T) {
	source := "class Empty:\n    pass\n"
	root, src := parseFixture(t, source)
	info := ExtractClassInfo(findDeclaration(t, root, src, "Empty"), src)

	if len(info.Attributes) != 0 || len(info.Methods) != 0 {
		t.Fatalf("expected empty class info, got %#v", info)
	}
}

func TestParseErrorOnInvalidSource(t *testing.T) {
	_, err := parsePython([]byte("def broken(:\n    pass\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if parseErr.Line < 1 {
		t.Fatalf("expected 1-based line, got %d", parseErr.Line)
	}
}
