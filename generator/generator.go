// Package generator walks the tree produced by package parser and emits
// target-language (ECMAScript) source text, performing the idiom
// translation described in the specification: built-in rewrites, operator
// remapping, method-name mapping, and block-structure synthesis.
//
// The per-node-kind dispatch mirrors the teacher's (pongo2) Execute-walk
// style (nodeDocument.Execute, nodeHTML.Execute, ...), and the rewrite
// tables (builtinRewrites, memberRewrites, keywordRewrites) mirror the teacher's
// RegisterFilter/RegisterTag registries in filters_builtin.go and tags.go,
// adapted from a runtime filter/tag registry to a fixed, closed rewrite
// table since the specification's idiom set is closed, not extensible.
package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flosch/indentscript/ast"
	"github.com/flosch/indentscript/token"
)

// Generator emits ECMAScript text for a Program. Each call to Generate
// constructs a fresh Generator; buf and indentLevel are the only mutable
// state and are local to the run, per the specification's concurrency model.
type Generator struct {
	buf         strings.Builder
	indentLevel int
}

// Generate renders prog as ECMAScript source text.
func Generate(prog *ast.Program) string {
	g := &Generator{}
	g.emitBlock(prog.Body)
	return g.buf.String()
}

func (g *Generator) indent() string { return strings.Repeat("  ", g.indentLevel) }

func (g *Generator) writeLine(s string) {
	g.buf.WriteString(g.indent())
	g.buf.WriteString(s)
	g.buf.WriteString("\n")
}

func (g *Generator) emitBlock(body ast.Block) {
	for _, stmt := range body {
		g.emitStmt(stmt)
	}
}

// emitStmt is the statement-emission dispatch table from the
// specification's §4.3, implemented as a type switch in the same spirit
// as the teacher's per-node Execute methods.
func (g *Generator) emitStmt(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case *ast.FunctionDeclaration:
		g.emitFunctionDeclaration(n, false)
	case *ast.ClassDeclaration:
		g.emitClassDeclaration(n)
	case *ast.ForInLoop:
		g.emitForInLoop(n)
	case *ast.IfStatement:
		g.emitIfStatement(n, false)
	case *ast.WhileLoop:
		g.writeLine(fmt.Sprintf("while (%s) {", g.expr(n.Condition)))
		g.indentLevel++
		g.emitBlock(n.Body)
		g.indentLevel--
		g.writeLine("}")
	case *ast.TryStatement:
		g.emitTryStatement(n)
	case *ast.WithStatement:
		g.emitWithStatement(n)
	case *ast.ReturnStatement:
		if n.Value == nil {
			g.writeLine("return;")
		} else {
			g.writeLine(fmt.Sprintf("return %s;", g.expr(n.Value)))
		}
	case *ast.RaiseStatement:
		g.writeLine(fmt.Sprintf("throw %s;", g.expr(n.Error)))
	case *ast.AssertStatement:
		msg := `"Assertion failed"`
		if n.Message != nil {
			msg = g.expr(n.Message)
		}
		g.writeLine(fmt.Sprintf("if (!(%s)) throw new Error(%s);", g.expr(n.Condition), msg))
	case *ast.PrintStatement:
		g.writeLine(fmt.Sprintf("console.log(%s);", g.exprList(n.Arguments)))
	case *ast.ImportStatement:
		g.emitImportStatement(n)
	case *ast.FromImportStatement:
		g.emitFromImportStatement(n)
	case *ast.BreakStatement:
		g.writeLine("break;")
	case *ast.ContinueStatement:
		g.writeLine("continue;")
	case *ast.DeleteStatement:
		g.writeLine(fmt.Sprintf("delete %s;", g.expr(n.Target)))
	case *ast.PassStatement, *ast.GlobalStatement:
		// Emit nothing.
	case *ast.LambdaExpression:
		params := strings.Join(n.Params, ", ")
		g.writeLine(fmt.Sprintf("(%s) => %s;", params, g.expr(n.Body)))
	case *ast.AwaitExpression:
		g.writeLine(fmt.Sprintf("await %s;", g.expr(n.Expression)))
	case *ast.YieldExpression:
		if n.Value == nil {
			g.writeLine("yield;")
		} else {
			g.writeLine(fmt.Sprintf("yield %s;", g.expr(n.Value)))
		}
	case *ast.ExpressionStatement:
		g.writeLine(fmt.Sprintf("%s;", g.expr(n.Expression)))
	case *ast.Program:
		g.emitBlock(n.Body)
	default:
		// Unknown node kinds emit empty text, per the generator's
		// best-effort failure semantics.
	}
}

func (g *Generator) emitFunctionDeclaration(n *ast.FunctionDeclaration, dropSelf bool) {
	params := n.Params
	if dropSelf && len(params) > 0 && params[0].Name == "self" && params[0].Spread == "" {
		params = params[1:]
	}
	prefix := ""
	if n.IsAsync {
		prefix = "async "
	}
	header := fmt.Sprintf("%sfunction %s(%s) {", prefix, n.Name, g.paramList(params))
	g.writeLine(header)
	g.indentLevel++
	g.emitBlock(n.Body)
	g.indentLevel--
	g.writeLine("}")
}

func (g *Generator) paramList(params []ast.Parameter) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		s := p.Name
		if p.Spread != "" {
			s = "..." + p.Name
		} else if p.DefaultValue != nil {
			s = fmt.Sprintf("%s = %s", p.Name, g.expr(p.DefaultValue))
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func (g *Generator) emitClassDeclaration(n *ast.ClassDeclaration) {
	header := "class " + n.Name
	if n.SuperClass != "" {
		header += " extends " + n.SuperClass
	}
	header += " {"
	g.writeLine(header)
	g.indentLevel++

	for _, stmt := range n.Properties {
		g.emitStmt(stmt)
	}

	for _, m := range n.Methods {
		g.emitMethod(m)
	}

	g.indentLevel--
	g.writeLine("}")
}

func (g *Generator) emitMethod(m ast.Method) {
	decl := m.Decl
	name := decl.Name
	isStatic, isProperty := false, false
	for _, d := range m.Decorators {
		switch d {
		case "staticmethod":
			isStatic = true
		case "property":
			isProperty = true
		}
	}

	if name == "__init__" {
		name = "constructor"
	}

	params := decl.Params
	if len(params) > 0 && params[0].Name == "self" && params[0].Spread == "" {
		params = params[1:]
	}

	prefix := ""
	if isStatic {
		prefix += "static "
	}
	if isProperty {
		prefix += "get "
	}
	if decl.IsAsync {
		prefix += "async "
	}

	header := fmt.Sprintf("%s%s(%s) {", prefix, name, g.paramList(params))
	g.writeLine(header)
	g.indentLevel++
	g.emitBlock(decl.Body)
	g.indentLevel--
	g.writeLine("}")
}

func (g *Generator) emitForInLoop(n *ast.ForInLoop) {
	var target string
	if len(n.Variables) == 1 {
		target = "const " + n.Variables[0]
	} else {
		target = "const [" + strings.Join(n.Variables, ", ") + "]"
	}
	g.writeLine(fmt.Sprintf("for (%s of %s) {", target, g.expr(n.Iterable)))
	g.indentLevel++
	g.emitBlock(n.Body)
	g.indentLevel--
	g.writeLine("}")
}

func (g *Generator) emitIfStatement(n *ast.IfStatement, isElif bool) {
	keyword := "if"
	if isElif {
		keyword = "} else if"
	}
	g.writeLine(fmt.Sprintf("%s (%s) {", keyword, g.expr(n.Condition)))
	g.indentLevel++
	g.emitBlock(n.Consequent)
	g.indentLevel--

	switch alt := n.Alternate.(type) {
	case nil:
		g.writeLine("}")
	case *ast.IfStatement:
		g.emitIfStatement(alt, true)
	case ast.Block:
		g.writeLine("} else {")
		g.indentLevel++
		g.emitBlock(alt)
		g.indentLevel--
		g.writeLine("}")
	default:
		g.writeLine("}")
	}
}

func (g *Generator) emitTryStatement(n *ast.TryStatement) {
	g.writeLine("try {")
	g.indentLevel++
	g.emitBlock(n.TryBlock)
	g.indentLevel--

	for _, h := range n.Handlers {
		name := h.ErrorName
		if name == "" {
			name = "error"
		}
		g.writeLine(fmt.Sprintf("} catch (%s) {", name))
		g.indentLevel++
		g.emitBlock(h.Body)
		g.indentLevel--
	}

	if n.FinallyBlock != nil {
		g.writeLine("} finally {")
		g.indentLevel++
		g.emitBlock(n.FinallyBlock)
		g.indentLevel--
	}
	g.writeLine("}")
}

func (g *Generator) emitWithStatement(n *ast.WithStatement) {
	alias := n.Alias
	if alias == "" {
		alias = "ctx"
	}
	g.writeLine("{")
	g.indentLevel++
	g.writeLine(fmt.Sprintf("const %s = %s;", alias, g.expr(n.Context)))
	g.emitBlock(n.Body)
	g.indentLevel--
	g.writeLine("}")
}

func (g *Generator) emitImportStatement(n *ast.ImportStatement) {
	for _, m := range n.Modules {
		if m.Alias != "" {
			g.writeLine(fmt.Sprintf("import * as %s from '%s';", m.Alias, m.Module))
		} else {
			g.writeLine(fmt.Sprintf("import %s from '%s';", m.Module, m.Module))
		}
	}
}

func (g *Generator) emitFromImportStatement(n *ast.FromImportStatement) {
	if len(n.Imports) == 1 && n.Imports[0].Name == "*" {
		g.writeLine(fmt.Sprintf("import * from '%s';", n.Module))
		return
	}
	parts := make([]string, 0, len(n.Imports))
	for _, imp := range n.Imports {
		if imp.Alias != "" {
			parts = append(parts, fmt.Sprintf("%s as %s", imp.Name, imp.Alias))
		} else {
			parts = append(parts, imp.Name)
		}
	}
	g.writeLine(fmt.Sprintf("import { %s } from '%s';", strings.Join(parts, ", "), n.Module))
}

func (g *Generator) exprList(exprs []*ast.Expression) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, g.expr(e))
	}
	return strings.Join(parts, ", ")
}

// expr renders an opaque expression token run as target text and trims
// the surrounding whitespace, per the specification's "trim-only
// post-processing" rule.
func (g *Generator) expr(e *ast.Expression) string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(renderTokens(e.Tokens))
}

// keywordRewrites implements the one-for-one KEYWORD substitutions of the
// specification's expression-emission table.
var keywordRewrites = map[string]string{
	"None":  "null",
	"True":  "true",
	"False": "false",
	"and":   "&&",
	"or":    "||",
	"not":   "!",
	"is":    "===",
	"in":    "in",
}

// memberRewrites implements the member-name rewrites applied after a `.`.
var memberRewrites = map[string]string{
	"append":     "push",
	"extend":     "push",
	"upper":      "toUpperCase",
	"lower":      "toLowerCase",
	"strip":      "trim",
	"lstrip":     "trimStart",
	"rstrip":     "trimEnd",
	"startswith": "startsWith",
	"endswith":   "endsWith",
	"find":       "indexOf",
	"index":      "indexOf",
	"items":      "entries",
}

// builtinRewrites implements the built-in call rewrites triggered when a
// recognized keyword/identifier is immediately followed by '('.
var builtinRewrites = map[string]func(args []string) string{
	"len": func(args []string) string {
		if len(args) != 1 {
			return joinCall("len", args)
		}
		return args[0] + ".length"
	},
	"range": func(args []string) string {
		switch len(args) {
		case 1:
			return fmt.Sprintf("Array.from({length: %s}, (_, i) => i)", args[0])
		case 2:
			return fmt.Sprintf("Array.from({length: %s - %s}, (_, i) => i + %s)", args[1], args[0], args[0])
		case 3:
			return fmt.Sprintf("Array.from({length: Math.ceil((%s - %s) / %s)}, (_, i) => %s + i * %s)",
				args[1], args[0], args[2], args[0], args[2])
		default:
			return joinCall("range", args)
		}
	},
	"enumerate": func(args []string) string {
		if len(args) != 1 {
			return joinCall("enumerate", args)
		}
		return fmt.Sprintf("%s.map((item, index) => [index, item])", args[0])
	},
}

func joinCall(name string, args []string) string {
	return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
}

// spaceCategory classifies a token for the purpose of deciding whether a
// single space belongs between it and its neighbor. The classification is
// deliberately coarse ("ad-hoc pattern recognition", per the
// specification) rather than a full pretty-printer grammar.
type spaceCategory int

const (
	catNone spaceCategory = iota
	catWord               // identifiers, numbers, strings, keywords
	catOpen               // ( [ {
	catClose              // ) ] }
	catComma              // ,
	catDot                // . (and a rendered ".member" unit)
	catColon              // :
	catOperator           // everything else: operators, ; ? @
	catPrefix             // the unary ! that "not" becomes
)

func needsSpaceBefore(prev, cur spaceCategory) bool {
	if prev == catNone {
		return false
	}
	switch cur {
	case catClose, catComma, catColon, catDot:
		return false
	}
	if prev == catOpen || prev == catDot || prev == catPrefix {
		return false
	}
	if cur == catOpen && prev == catWord {
		// Function-call parenthesis immediately follows its callee.
		return false
	}
	return true
}

// renderTokens walks a token run with a single moving index, applying the
// token-level, built-in-call, member-name, and in-expression-lambda
// rewrites described in the specification, inserting a single space
// between adjacent pieces wherever needsSpaceBefore says one belongs.
func renderTokens(toks []token.Token) string {
	var b strings.Builder
	prevCat := catNone
	i := 0
	depth := 0
	segmentStart := 0

	emit := func(piece string, cat spaceCategory) {
		if needsSpaceBefore(prevCat, cat) {
			b.WriteByte(' ')
		}
		b.WriteString(piece)
		prevCat = cat
	}

	for i < len(toks) {
		t := toks[i]

		if t.Kind == token.BRACKET {
			if t.Value == "(" || t.Value == "[" || t.Value == "{" {
				depth++
			} else {
				depth--
			}
		}

		switch t.Kind {
		case token.FSTRING:
			emit("`"+rewriteFStringPlaceholders(t.Value)+"`", catWord)
			i++
		case token.STRING:
			emit(quoteString(t.Value), catWord)
			i++
		case token.TEMPLATE:
			emit("`"+t.Value+"`", catWord)
			i++
		case token.NUMBER:
			emit(t.Value, catWord)
			i++
		case token.KEYWORD:
			if t.Value == "lambda" {
				if needsSpaceBefore(prevCat, catWord) {
					b.WriteByte(' ')
				}
				b.WriteString(renderInExpressionLambda(toks[i+1:]))
				return b.String()
			}
			if isBuiltinCallName(t.Value) && i+1 < len(toks) && isOpenParen(toks[i+1]) {
				consumed, rendered := renderBuiltinCall(t.Value, toks[i+1:])
				emit(rendered, catWord)
				i += 1 + consumed
				continue
			}
			if repl, ok := keywordRewrites[t.Value]; ok {
				cat := catWord
				if t.Value == "not" {
					cat = catPrefix
				}
				emit(repl, cat)
			} else {
				emit(t.Value, catWord)
			}
			i++
		case token.IDENTIFIER:
			if isBuiltinCallName(t.Value) && i+1 < len(toks) && isOpenParen(toks[i+1]) {
				consumed, rendered := renderBuiltinCall(t.Value, toks[i+1:])
				emit(rendered, catWord)
				i += 1 + consumed
				continue
			}
			if t.Value == "self" {
				emit("this", catWord)
			} else {
				emit(t.Value, catWord)
			}
			i++
		case token.OPERATOR:
			if t.Value == "**" {
				emit("**", catOperator)
				i++
				continue
			}
			if t.Value == "//" {
				// Only the segment since the last top-level assignment is
				// wrapped in Math.floor(...), so `y = 7 // 2` becomes
				// `y = Math.floor(7 / 2)` rather than swallowing the
				// left-hand side; a bare expression with no assignment
				// wraps from the start, per the documented quirk of the
				// opaque-expression approach.
				prefix := b.String()[:segmentStart]
				segment := strings.TrimSpace(b.String()[segmentStart:])
				rest := renderTokens(toks[i+1:])
				floored := fmt.Sprintf("Math.floor(%s / %s)", segment, strings.TrimSpace(rest))
				if segmentStart == 0 {
					return floored
				}
				return strings.TrimRight(prefix, " ") + " " + floored
			}
			emit(t.Value, catOperator)
			if t.Value == "=" && depth == 0 {
				segmentStart = b.Len()
			}
			i++
		case token.PUNCTUATION:
			switch t.Value {
			case ",":
				emit(",", catComma)
			case ":":
				emit(":", catColon)
			case ".":
				if i+1 < len(toks) && toks[i+1].Kind == token.IDENTIFIER {
					name := toks[i+1].Value
					if repl, ok := memberRewrites[name]; ok {
						name = repl
					}
					// The dot binds tightly to its left-hand side (no space
					// before it, like any other catDot), but the resulting
					// ".member" unit behaves like a plain word afterwards —
					// a following operator still gets its usual space, and
					// a following '(' still binds as a call.
					if needsSpaceBefore(prevCat, catDot) {
						b.WriteByte(' ')
					}
					b.WriteString("." + name)
					prevCat = catWord
					i += 2
					continue
				}
				emit(".", catDot)
			default:
				emit(t.Value, catOperator)
			}
			i++
		case token.BRACKET:
			if t.Value == "(" || t.Value == "[" || t.Value == "{" {
				emit(t.Value, catOpen)
			} else {
				emit(t.Value, catClose)
			}
			i++
		default:
			emit(t.Value, catOperator)
			i++
		}
	}
	return b.String()
}

// renderInExpressionLambda implements the in-expression lambda rule: all
// remaining tokens belong to the lambda; split at the first ':' into a
// parameter list and a body, emit "(p...) => body", and stop.
func renderInExpressionLambda(rest []token.Token) string {
	var params []string
	i := 0
	for i < len(rest) && !(rest[i].Kind == token.PUNCTUATION && rest[i].Value == ":") {
		if rest[i].Kind == token.IDENTIFIER {
			params = append(params, rest[i].Value)
		}
		i++
	}
	var body []token.Token
	if i < len(rest) {
		body = rest[i+1:]
	}
	return fmt.Sprintf("(%s) => %s", strings.Join(params, ", "), strings.TrimSpace(renderTokens(body)))
}

func isOpenParen(t token.Token) bool { return t.Kind == token.BRACKET && t.Value == "(" }

func isBuiltinCallName(name string) bool {
	_, ok := builtinRewrites[name]
	return ok
}

// renderBuiltinCall captures the balanced argument run following name's
// '(' and splices it into the built-in's target idiom. It returns the
// number of tokens consumed (including both parentheses) and the
// rendered text.
func renderBuiltinCall(name string, rest []token.Token) (int, string) {
	// rest[0] is the opening '('.
	depth := 0
	end := -1
	for i, t := range rest {
		if t.Kind == token.BRACKET {
			switch t.Value {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
				if depth == 0 {
					end = i
				}
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		// Unbalanced input: degrade by emitting the call literally.
		return 0, name
	}

	argTokens := rest[1:end]
	args := splitArgs(argTokens)
	rendered := builtinRewrites[name](args)
	return end + 1, rendered
}

func splitArgs(toks []token.Token) []string {
	if len(toks) == 0 {
		return nil
	}
	var args []string
	depth := 0
	start := 0
	for i, t := range toks {
		if t.Kind == token.BRACKET {
			switch t.Value {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			}
		}
		if depth == 0 && t.Kind == token.PUNCTUATION && t.Value == "," {
			args = append(args, strings.TrimSpace(renderTokens(toks[start:i])))
			start = i + 1
		}
	}
	args = append(args, strings.TrimSpace(renderTokens(toks[start:])))
	return args
}

// rewriteFStringPlaceholders rewrites literal `{X}` placeholders in an
// f-string's raw value to `${X}`.
func rewriteFStringPlaceholders(raw string) string {
	var b strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '{' {
			b.WriteString("${")
			i++
			continue
		}
		b.WriteByte(raw[i])
		i++
	}
	return b.String()
}

// quoteString double-quotes a decoded string value, escaping embedded
// double quotes and backslashes.
func quoteString(s string) string {
	return strconv.Quote(s)
}
