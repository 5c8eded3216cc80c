package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/flosch/indentscript/ast"
	"github.com/flosch/indentscript/lexer"
	"github.com/flosch/indentscript/token"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse(lexer.Lex(src))
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return prog
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := parse(t, "def greet(name):\n    print(name)\n")
	if len(prog.Body) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Body))
	}
	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	if !ok {
		t.Fatalf("got %T, want *ast.FunctionDeclaration", prog.Body[0])
	}
	if fn.Name != "greet" {
		t.Errorf("Name = %q, want %q", fn.Name, "greet")
	}
	if len(fn.Params) != 1 || fn.Params[0].Name != "name" {
		t.Errorf("Params = %+v, want one param named name", fn.Params)
	}
	if len(fn.Body) != 1 {
		t.Errorf("Body has %d statements, want 1", len(fn.Body))
	}
}

func TestParseClassWithSelfMethod(t *testing.T) {
	src := "class Greeter:\n    def __init__(self, name):\n        self.name = name\n    def hello(self):\n        print(self.name)\n"
	prog := parse(t, src)
	cls, ok := prog.Body[0].(*ast.ClassDeclaration)
	if !ok {
		t.Fatalf("got %T, want *ast.ClassDeclaration", prog.Body[0])
	}
	if cls.Name != "Greeter" {
		t.Errorf("Name = %q, want Greeter", cls.Name)
	}
	if len(cls.Methods) != 2 {
		t.Fatalf("got %d methods, want 2", len(cls.Methods))
	}
	if cls.Methods[0].Decl.Name != "__init__" {
		t.Errorf("first method = %q, want __init__", cls.Methods[0].Decl.Name)
	}
	if len(cls.Methods[0].Decl.Params) != 2 {
		t.Errorf("got %d params on __init__, want 2 (self, name)", len(cls.Methods[0].Decl.Params))
	}
}

func TestParseIfElifElseChain(t *testing.T) {
	src := "if a:\n    pass\nelif b:\n    pass\nelse:\n    pass\n"
	prog := parse(t, src)
	top, ok := prog.Body[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("got %T, want *ast.IfStatement", prog.Body[0])
	}
	elif, ok := top.Alternate.(*ast.IfStatement)
	if !ok {
		t.Fatalf("Alternate = %T, want *ast.IfStatement (elif)", top.Alternate)
	}
	elseBlock, ok := elif.Alternate.(ast.Block)
	if !ok {
		t.Fatalf("elif.Alternate = %T, want ast.Block (else)", elif.Alternate)
	}
	if len(elseBlock) != 1 {
		t.Errorf("else block has %d statements, want 1", len(elseBlock))
	}
}

func TestParseForIn(t *testing.T) {
	prog := parse(t, "for i, v in items:\n    print(i, v)\n")
	loop, ok := prog.Body[0].(*ast.ForInLoop)
	if !ok {
		t.Fatalf("got %T, want *ast.ForInLoop", prog.Body[0])
	}
	if len(loop.Variables) != 2 || loop.Variables[0] != "i" || loop.Variables[1] != "v" {
		t.Errorf("Variables = %v, want [i v]", loop.Variables)
	}
}

func TestParseTryExceptFinally(t *testing.T) {
	src := "try:\n    risky()\nexcept ValueError as e:\n    handle(e)\nfinally:\n    cleanup()\n"
	prog := parse(t, src)
	tr, ok := prog.Body[0].(*ast.TryStatement)
	if !ok {
		t.Fatalf("got %T, want *ast.TryStatement", prog.Body[0])
	}
	if len(tr.Handlers) != 1 {
		t.Fatalf("got %d handlers, want 1", len(tr.Handlers))
	}
	if tr.Handlers[0].ErrorType != "ValueError" || tr.Handlers[0].ErrorName != "e" {
		t.Errorf("handler = %+v, want ErrorType=ValueError ErrorName=e", tr.Handlers[0])
	}
	if tr.FinallyBlock == nil {
		t.Error("FinallyBlock is nil, want non-nil")
	}
}

func TestParseReturnTypeArrow(t *testing.T) {
	prog := parse(t, "def f(x) -> int:\n    return x\n")
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	if fn.ReturnType != "int" {
		t.Errorf("ReturnType = %q, want int", fn.ReturnType)
	}
}

func TestParseFailureReportsPosition(t *testing.T) {
	_, err := Parse(lexer.Lex("def (x):\n    pass\n"))
	if err == nil {
		t.Fatal("expected a parse failure for a missing function name")
	}
	pf, ok := err.(*ParseFailure)
	if !ok {
		t.Fatalf("got %T, want *ParseFailure", err)
	}
	if pf.Line != 1 {
		t.Errorf("Line = %d, want 1", pf.Line)
	}
}

func TestParseExpressionStatementTreeShape(t *testing.T) {
	prog := parse(t, "x = 1\n")
	want := &ast.Program{
		Body: ast.Block{
			&ast.ExpressionStatement{
				Expression: &ast.Expression{
					Tokens: []token.Token{
						{Kind: token.IDENTIFIER, Value: "x", Line: 1, Column: 1},
						{Kind: token.OPERATOR, Value: "=", Line: 1, Column: 3},
						{Kind: token.NUMBER, Value: "1", Line: 1, Column: 5},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, prog); diff != "" {
		t.Errorf("tree shape mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDecoratedMethod(t *testing.T) {
	src := "class C:\n    @staticmethod\n    def make():\n        pass\n"
	prog := parse(t, src)
	cls := prog.Body[0].(*ast.ClassDeclaration)
	if len(cls.Methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(cls.Methods))
	}
	if len(cls.Methods[0].Decorators) != 1 || cls.Methods[0].Decorators[0] != "staticmethod" {
		t.Errorf("Decorators = %v, want [staticmethod]", cls.Methods[0].Decorators)
	}
}
