// Package parser implements the recursive-descent, statement-level parser
// described in the specification: it consumes a token stream and produces
// a tree whose expression leaves are left as opaque token runs rather than
// a structured grammar. The cursor/helper-method style (Current, Match,
// Peek, Consume) is carried over from the teacher's (pongo2) Parser type
// in parser.go, generalized from tag-argument parsing to whole-program
// statement parsing.
package parser

import (
	"fmt"

	"github.com/flosch/indentscript/ast"
	"github.com/flosch/indentscript/token"
)

// ParseFailure is the single error kind the parser produces, per the
// specification's error handling design: it carries what was expected,
// what was observed, and where.
type ParseFailure struct {
	ExpectedKind  token.Kind
	ExpectedValue string // "" if any value of ExpectedKind would do
	ObservedKind  token.Kind
	ObservedValue string
	Line          int
	Column        int
}

func (f *ParseFailure) Error() string {
	expected := f.ExpectedKind.String()
	if f.ExpectedValue != "" {
		expected = fmt.Sprintf("%s %q", expected, f.ExpectedValue)
	}
	return fmt.Sprintf("expected %s, got %s %q at line %d, column %d",
		expected, f.ObservedKind, f.ObservedValue, f.Line, f.Column)
}

// Parser walks a token stream with a single moving cursor, in the same
// shape as the teacher's Parser (idx over a token slice).
type Parser struct {
	tokens []token.Token
	idx    int
}

// Parse parses a full program: an ordered sequence of top-level
// statements, terminated by EOF.
func Parse(tokens []token.Token) (*ast.Program, error) {
	p := &Parser{tokens: tokens}
	prog := &ast.Program{}
	for {
		p.skipNewlines()
		if p.peekKind(token.EOF) {
			break
		}
		if p.peekKind(token.DEDENT) || p.peekKind(token.INDENT) {
			// Stray block delimiter at top level (malformed input):
			// consume and continue rather than looping forever.
			p.consume()
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return prog, err
		}
		prog.Body = append(prog.Body, stmt)
	}
	return prog, nil
}

// --- cursor helpers -------------------------------------------------

func (p *Parser) current() token.Token {
	if p.idx < len(p.tokens) {
		return p.tokens[p.idx]
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1]
	}
	return token.Token{Kind: token.EOF}
}

func (p *Parser) at(offset int) token.Token {
	i := p.idx + offset
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.current()
}

func (p *Parser) consume() { p.idx++ }

func (p *Parser) peekKind(k token.Kind) bool { return p.current().Kind == k }

func (p *Parser) peekKeyword(v string) bool {
	t := p.current()
	return t.Kind == token.KEYWORD && t.Value == v
}

func (p *Parser) peekKeywordAt(offset int, v string) bool {
	t := p.at(offset)
	return t.Kind == token.KEYWORD && t.Value == v
}

func (p *Parser) peekPunct(v string) bool {
	t := p.current()
	return t.Kind == token.PUNCTUATION && t.Value == v
}

func (p *Parser) peekBracket(v string) bool {
	t := p.current()
	return t.Kind == token.BRACKET && t.Value == v
}

func (p *Parser) peekOperator(v string) bool {
	t := p.current()
	return t.Kind == token.OPERATOR && t.Value == v
}

func (p *Parser) skipNewlines() {
	for p.peekKind(token.NEWLINE) {
		p.consume()
	}
}

// atExpressionEnd reports whether the cursor sits on a boundary beyond
// which no expression tokens remain for the current statement.
func (p *Parser) atExpressionEnd() bool {
	t := p.current()
	if t.Kind == token.NEWLINE || t.Kind == token.EOF || t.Kind == token.DEDENT || t.Kind == token.INDENT {
		return true
	}
	return t.Kind == token.PUNCTUATION && t.Value == ":"
}

func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	t := p.current()
	if t.Kind != kind {
		return token.Token{}, p.failure(kind, "", t)
	}
	p.consume()
	return t, nil
}

func (p *Parser) expectValue(kind token.Kind, val string) (token.Token, error) {
	t := p.current()
	if t.Kind != kind || t.Value != val {
		return token.Token{}, p.failure(kind, val, t)
	}
	p.consume()
	return t, nil
}

func (p *Parser) failure(expectedKind token.Kind, expectedValue string, observed token.Token) error {
	return &ParseFailure{
		ExpectedKind:  expectedKind,
		ExpectedValue: expectedValue,
		ObservedKind:  observed.Kind,
		ObservedValue: observed.Value,
		Line:          observed.Line,
		Column:        observed.Column,
	}
}

// --- expression scanning --------------------------------------------

// parseExpression greedily collects tokens into an opaque Expression leaf,
// tracking bracket depth over (), [], {}. It terminates at depth zero on
// NEWLINE, INDENT, DEDENT, ':', ',', or an excess closing bracket; the
// ':' that closes the parameter list of an in-expression `lambda` is kept
// in the run instead. It never fails: the generator is responsible for
// making sense of whatever token run it receives.
func (p *Parser) parseExpression() *ast.Expression {
	var toks []token.Token
	depth := 0
	pendingLambdas := 0
	for {
		t := p.current()
		if t.Kind == token.EOF {
			break
		}
		if t.Kind == token.KEYWORD && t.Value == "lambda" && depth == 0 {
			pendingLambdas++
		}
		if depth == 0 {
			if t.Kind == token.NEWLINE || t.Kind == token.INDENT || t.Kind == token.DEDENT {
				break
			}
			if t.Kind == token.PUNCTUATION && t.Value == ":" && pendingLambdas > 0 {
				pendingLambdas--
			} else if t.Kind == token.PUNCTUATION && (t.Value == ":" || t.Value == ",") {
				break
			}
		}
		if t.Kind == token.BRACKET {
			switch t.Value {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth == 0 {
					goto done
				}
				depth--
			}
		}
		toks = append(toks, t)
		p.consume()
	}
done:
	return &ast.Expression{Tokens: toks}
}

// parseExpressionList parses comma-separated expressions until no comma
// follows the most recently parsed one.
func (p *Parser) parseExpressionList() []*ast.Expression {
	var list []*ast.Expression
	for {
		list = append(list, p.parseExpression())
		if p.peekPunct(",") {
			p.consume()
			continue
		}
		break
	}
	return list
}

// --- block and statement dispatch ------------------------------------

// parseBlock parses the body following a (possibly absent) ':'. An
// INDENT opens a multi-statement block closed by DEDENT; otherwise a
// single inline statement is parsed and wrapped in a one-element Block.
func (p *Parser) parseBlock() (ast.Block, error) {
	if p.peekPunct(":") {
		p.consume()
	}
	p.skipNewlines()

	if p.peekKind(token.INDENT) {
		p.consume()
		var body ast.Block
		for {
			p.skipNewlines()
			if p.peekKind(token.DEDENT) || p.peekKind(token.EOF) {
				break
			}
			stmt, err := p.parseStatement()
			if err != nil {
				return body, err
			}
			body = append(body, stmt)
		}
		if p.peekKind(token.DEDENT) {
			p.consume()
		}
		return body, nil
	}

	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.Block{stmt}, nil
}

// statementDispatch is bound in init rather than by a variable initializer:
// its handlers reach back into parseStatement, which reads it, and Go
// rejects that as an initialization cycle.
var statementDispatch map[string]func(*Parser) (ast.Stmt, error)

func init() {
	statementDispatch = statementHandlers
}

var statementHandlers = map[string]func(*Parser) (ast.Stmt, error){
	"def":      (*Parser).parseDef,
	"class":    (*Parser).parseClass,
	"for":      (*Parser).parseForIn,
	"if":       (*Parser).parseIf,
	"while":    (*Parser).parseWhile,
	"return":   (*Parser).parseReturn,
	"import":   (*Parser).parseImport,
	"from":     (*Parser).parseFromImport,
	"try":      (*Parser).parseTry,
	"raise":    (*Parser).parseRaise,
	"assert":   (*Parser).parseAssert,
	"with":     (*Parser).parseWith,
	"pass":     (*Parser).parsePass,
	"break":    (*Parser).parseBreak,
	"continue": (*Parser).parseContinue,
	"lambda":   (*Parser).parseLambdaStatement,
	"async":    (*Parser).parseAsync,
	"await":    (*Parser).parseAwait,
	"del":      (*Parser).parseDel,
	"global":   (*Parser).parseGlobal,
	"yield":    (*Parser).parseYield,
	"print":    (*Parser).parsePrint,
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	p.skipNewlines()
	t := p.current()
	if t.Kind == token.KEYWORD {
		if fn, ok := statementDispatch[t.Value]; ok {
			return fn(p)
		}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() (ast.Stmt, error) {
	expr := p.parseExpression()
	return &ast.ExpressionStatement{Expression: expr}, nil
}

// --- individual productions ------------------------------------------

func (p *Parser) parseParams() ([]ast.Parameter, error) {
	if _, err := p.expectValue(token.BRACKET, "("); err != nil {
		return nil, err
	}
	var params []ast.Parameter
	if p.peekBracket(")") {
		p.consume()
		return params, nil
	}
	for {
		spread := ""
		if p.peekOperator("**") {
			p.consume()
			spread = "dict"
		} else if p.peekOperator("*") {
			p.consume()
			spread = "array"
		}
		nameTok, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return params, err
		}
		param := ast.Parameter{Name: nameTok.Value, Spread: spread}
		if spread == "" && p.peekOperator("=") {
			p.consume()
			param.DefaultValue = p.parseExpression()
		}
		params = append(params, param)
		if p.peekPunct(",") {
			p.consume()
			continue
		}
		break
	}
	if p.peekBracket(")") {
		p.consume()
	}
	return params, nil
}

func (p *Parser) parseDef() (ast.Stmt, error) {
	return p.parseDefImpl(false)
}

func (p *Parser) parseDefImpl(isAsync bool) (ast.Stmt, error) {
	p.consume() // 'def'
	// Reserved words such as `get` or `set` are accepted as names too.
	nameTok := p.current()
	if nameTok.Kind != token.IDENTIFIER && nameTok.Kind != token.KEYWORD {
		return nil, p.failure(token.IDENTIFIER, "", nameTok)
	}
	p.consume()
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	returnType := ""
	if p.peekOperator("-") && p.at(1).Kind == token.OPERATOR && p.at(1).Value == ">" {
		p.consume()
		p.consume()
		if p.peekKind(token.IDENTIFIER) {
			returnType = p.current().Value
			p.consume()
		}
	}
	body, err := p.parseBlock()
	return &ast.FunctionDeclaration{
		Name:       nameTok.Value,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
		IsAsync:    isAsync,
	}, err
}

func (p *Parser) parseAsync() (ast.Stmt, error) {
	if p.peekKeywordAt(1, "def") {
		p.consume() // 'async'
		return p.parseDefImpl(true)
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseClass() (ast.Stmt, error) {
	p.consume() // 'class'
	nameTok, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	superClass := ""
	if p.peekBracket("(") {
		p.consume()
		if p.peekKind(token.IDENTIFIER) {
			superClass = p.current().Value
			p.consume()
		}
		if p.peekBracket(")") {
			p.consume()
		}
	}

	cls := &ast.ClassDeclaration{Name: nameTok.Value, SuperClass: superClass}

	if p.peekPunct(":") {
		p.consume()
	}
	p.skipNewlines()
	if !p.peekKind(token.INDENT) {
		// Inline single-statement class body.
		stmt, err := p.parseClassBodyStatement(cls)
		if err != nil {
			return cls, err
		}
		if stmt != nil {
			cls.Properties = append(cls.Properties, stmt)
		}
		return cls, nil
	}
	p.consume() // INDENT
	for {
		p.skipNewlines()
		if p.peekKind(token.DEDENT) || p.peekKind(token.EOF) {
			break
		}
		stmt, err := p.parseClassBodyStatement(cls)
		if err != nil {
			return cls, err
		}
		if stmt != nil {
			cls.Properties = append(cls.Properties, stmt)
		}
	}
	if p.peekKind(token.DEDENT) {
		p.consume()
	}
	return cls, nil
}

// parseClassBodyStatement parses one statement of a class body, routing
// decorated/def statements into cls.Methods and returning everything else
// to be appended as a Property by the caller.
func (p *Parser) parseClassBodyStatement(cls *ast.ClassDeclaration) (ast.Stmt, error) {
	var decorators []string
	for p.peekPunct("@") {
		p.consume()
		nameTok, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, nameTok.Value)
		p.skipNewlines()
	}

	isAsync := false
	if p.peekKeyword("async") && p.peekKeywordAt(1, "def") {
		isAsync = true
		p.consume()
	}

	if p.peekKeyword("def") {
		stmt, err := p.parseDefImpl(isAsync)
		if err != nil {
			return nil, err
		}
		decl := stmt.(*ast.FunctionDeclaration)
		cls.Methods = append(cls.Methods, ast.Method{Decl: decl, Decorators: decorators})
		return nil, nil
	}

	return p.parseStatement()
}

func (p *Parser) parseForIn() (ast.Stmt, error) {
	p.consume() // 'for'
	var vars []string
	for {
		nameTok, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		vars = append(vars, nameTok.Value)
		if p.peekPunct(",") {
			p.consume()
			continue
		}
		break
	}
	if _, err := p.expectValue(token.KEYWORD, "in"); err != nil {
		return nil, err
	}
	iterable := p.parseExpression()
	body, err := p.parseBlock()
	return &ast.ForInLoop{Variables: vars, Iterable: iterable, Body: body}, err
}

func (p *Parser) parseIf() (ast.Stmt, error) { return p.parseIfLike() }

func (p *Parser) parseIfLike() (*ast.IfStatement, error) {
	p.consume() // 'if' or 'elif'
	cond := p.parseExpression()
	consequent, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStatement{Condition: cond, Consequent: consequent}

	p.skipNewlines()
	switch {
	case p.peekKeyword("elif"):
		nested, err := p.parseIfLike()
		if err != nil {
			return stmt, err
		}
		stmt.Alternate = nested
	case p.peekKeyword("else"):
		p.consume()
		elseBlock, err := p.parseBlock()
		if err != nil {
			return stmt, err
		}
		stmt.Alternate = elseBlock
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	p.consume() // 'while'
	cond := p.parseExpression()
	body, err := p.parseBlock()
	return &ast.WhileLoop{Condition: cond, Body: body}, err
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	p.consume() // 'return'
	if p.atExpressionEnd() {
		return &ast.ReturnStatement{}, nil
	}
	return &ast.ReturnStatement{Value: p.parseExpression()}, nil
}

func (p *Parser) parseImport() (ast.Stmt, error) {
	p.consume() // 'import'
	var specs []ast.ImportSpec
	for {
		nameTok, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		spec := ast.ImportSpec{Module: nameTok.Value}
		if p.peekKeyword("as") {
			p.consume()
			aliasTok, err := p.expect(token.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			spec.Alias = aliasTok.Value
		}
		specs = append(specs, spec)
		if p.peekPunct(",") {
			p.consume()
			continue
		}
		break
	}
	return &ast.ImportStatement{Modules: specs}, nil
}

func (p *Parser) parseFromImport() (ast.Stmt, error) {
	p.consume() // 'from'
	moduleTok, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectValue(token.KEYWORD, "import"); err != nil {
		return nil, err
	}
	stmt := &ast.FromImportStatement{Module: moduleTok.Value}
	if p.peekOperator("*") {
		p.consume()
		stmt.Imports = append(stmt.Imports, ast.FromImportSpec{Name: "*"})
		return stmt, nil
	}
	for {
		nameTok, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return stmt, err
		}
		spec := ast.FromImportSpec{Name: nameTok.Value}
		if p.peekKeyword("as") {
			p.consume()
			aliasTok, err := p.expect(token.IDENTIFIER)
			if err != nil {
				return stmt, err
			}
			spec.Alias = aliasTok.Value
		}
		stmt.Imports = append(stmt.Imports, spec)
		if p.peekPunct(",") {
			p.consume()
			continue
		}
		break
	}
	return stmt, nil
}

func (p *Parser) parseTry() (ast.Stmt, error) {
	p.consume() // 'try'
	tryBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.TryStatement{TryBlock: tryBlock}
	p.skipNewlines()
	for p.peekKeyword("except") {
		p.consume()
		var errType, errName string
		if !p.peekPunct(":") {
			if p.peekKind(token.IDENTIFIER) {
				errType = p.current().Value
				p.consume()
			}
			if p.peekKeyword("as") {
				p.consume()
				nameTok, err := p.expect(token.IDENTIFIER)
				if err != nil {
					return stmt, err
				}
				errName = nameTok.Value
			}
		}
		body, err := p.parseBlock()
		if err != nil {
			return stmt, err
		}
		stmt.Handlers = append(stmt.Handlers, ast.ExceptHandler{ErrorType: errType, ErrorName: errName, Body: body})
		p.skipNewlines()
	}
	if p.peekKeyword("finally") {
		p.consume()
		finallyBlock, err := p.parseBlock()
		if err != nil {
			return stmt, err
		}
		stmt.FinallyBlock = finallyBlock
	}
	return stmt, nil
}

func (p *Parser) parseRaise() (ast.Stmt, error) {
	p.consume() // 'raise'
	return &ast.RaiseStatement{Error: p.parseExpression()}, nil
}

func (p *Parser) parseAssert() (ast.Stmt, error) {
	p.consume() // 'assert'
	cond := p.parseExpression()
	stmt := &ast.AssertStatement{Condition: cond}
	if p.peekPunct(",") {
		p.consume()
		stmt.Message = p.parseExpression()
	}
	return stmt, nil
}

func (p *Parser) parseWith() (ast.Stmt, error) {
	p.consume() // 'with'
	ctx := p.parseExpression()
	alias := ""
	if p.peekKeyword("as") {
		p.consume()
		aliasTok, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		alias = aliasTok.Value
	}
	body, err := p.parseBlock()
	return &ast.WithStatement{Context: ctx, Alias: alias, Body: body}, err
}

func (p *Parser) parsePass() (ast.Stmt, error)     { p.consume(); return &ast.PassStatement{}, nil }
func (p *Parser) parseBreak() (ast.Stmt, error)    { p.consume(); return &ast.BreakStatement{}, nil }
func (p *Parser) parseContinue() (ast.Stmt, error) { p.consume(); return &ast.ContinueStatement{}, nil }

func (p *Parser) parseLambdaStatement() (ast.Stmt, error) {
	p.consume() // 'lambda'
	var params []string
	for p.peekKind(token.IDENTIFIER) {
		params = append(params, p.current().Value)
		p.consume()
		if p.peekPunct(",") {
			p.consume()
			continue
		}
		break
	}
	if _, err := p.expectValue(token.PUNCTUATION, ":"); err != nil {
		return nil, err
	}
	return &ast.LambdaExpression{Params: params, Body: p.parseExpression()}, nil
}

func (p *Parser) parseAwait() (ast.Stmt, error) {
	p.consume() // 'await'
	return &ast.AwaitExpression{Expression: p.parseExpression()}, nil
}

func (p *Parser) parseDel() (ast.Stmt, error) {
	p.consume() // 'del'
	return &ast.DeleteStatement{Target: p.parseExpression()}, nil
}

func (p *Parser) parseGlobal() (ast.Stmt, error) {
	p.consume() // 'global'
	var vars []string
	for p.peekKind(token.IDENTIFIER) {
		vars = append(vars, p.current().Value)
		p.consume()
		if p.peekPunct(",") {
			p.consume()
			continue
		}
		break
	}
	return &ast.GlobalStatement{Variables: vars}, nil
}

func (p *Parser) parseYield() (ast.Stmt, error) {
	p.consume() // 'yield'
	if p.atExpressionEnd() {
		return &ast.YieldExpression{}, nil
	}
	return &ast.YieldExpression{Value: p.parseExpression()}, nil
}

func (p *Parser) parsePrint() (ast.Stmt, error) {
	p.consume() // 'print'
	var args []*ast.Expression
	if p.peekBracket("(") {
		p.consume()
		if !p.peekBracket(")") {
			args = p.parseExpressionList()
		}
		if p.peekBracket(")") {
			p.consume()
		}
	} else if !p.atExpressionEnd() {
		args = p.parseExpressionList()
	}
	return &ast.PrintStatement{Arguments: args}, nil
}
