package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)(?:pt|mm|cm|in)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][(),.=+*/%<>!?;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	tokenNames       = invertSymbols(dslLexer.Symbols())
	newlineTokenType = mustTokenType("Newline")
	lbraceTokenType  = mustTokenType("LBrace")
	rbraceTokenType  = mustTokenType("RBrace")
	symbolTokenType  = mustTokenType("Symbol")
	stringTokenType  = mustTokenType("String")

	worksheetParser = participle.MustBuild[Worksheet](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Worksheet is the root AST node of a worksheet file:
//
//	worksheet Daily v1 {
//	  meta { title: "永字八法" author: "Li" }
//	  font: "KaiTi"
//	  size: 54pt
//	  chars: "永字八法"
//	  copies: 3
//	  blanks: 5
//	  page letter portrait margin 1in
//	}
type Worksheet struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"Newline* 'worksheet' @Ident"`
	Version string         `parser:"@Ident?"`
	Body    *Block         `parser:"@@ Newline*"`
}

// Block is a delimited list of statements.
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement inside a block (assignment or command).
type Statement struct {
	Assignment *Assignment `parser:"  @@"`
	Command    *Command    `parser:"| @@"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' Newline* @@"`
}

// Command is a named instruction with bare arguments and an optional block,
// eg: `page a4 landscape margin 20mm` or `meta { ... }`.
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// Value represents generic property values.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Array  *ArrayValue    `parser:"| @@"`
	Expr   *Expression    `parser:"| @@"`
}

// Text returns the scalar value as a plain string. Arrays are joined with
// no separator so that `chars: ["永", "字"]` reads like `chars: "永字"`.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Array != nil:
		return strings.Join(v.Strings(), "")
	case v.Expr != nil:
		parts := make([]string, 0, len(v.Expr.Parts))
		for _, p := range v.Expr.Parts {
			parts = append(parts, p.Value)
		}
		return strings.Join(parts, "")
	}
	return ""
}

// Strings returns array elements as strings; a scalar yields one element.
func (v *Value) Strings() []string {
	if v == nil {
		return nil
	}
	if v.Array == nil {
		if s := v.Text(); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(v.Array.Values))
	for _, item := range v.Array.Values {
		out = append(out, item.Text())
	}
	return out
}

// ArrayValue captures `[ ... ]` expressions.
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// Expression records raw tokens such as identifiers (`mi`, `true`).
type Expression struct {
	Parts []*Lexeme
}

// Parse implements participle.Parseable for Expression.
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	var parts []*Lexeme
	depth := 0
	for {
		tok := lex.Peek()
		if stopExpression(tok, depth) {
			break
		}
		lexeme, err := consumeLexeme(lex)
		if err != nil {
			return err
		}
		switch lexeme.Raw {
		case "(":
			depth++
		case ")":
			if depth > 0 {
				depth--
			}
		}
		parts = append(parts, lexeme)
	}
	if len(parts) == 0 {
		return participle.NextMatch
	}
	e.Parts = parts
	return nil
}

// Lexeme captures a single lexical token (used by command arguments).
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse implements participle.Parseable so Lexeme can act as a grammar atom.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	if shouldStopArg(lex.Peek()) {
		return participle.NextMatch
	}
	lexeme, err := consumeLexeme(lex)
	if err != nil {
		return err
	}
	*l = *lexeme
	return nil
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a worksheet file from an io.Reader.
func Parse(r io.Reader) (*Worksheet, error) {
	return worksheetParser.Parse("", r)
}

// ParseString parses worksheet content from a string.
func ParseString(input string) (*Worksheet, error) {
	return worksheetParser.ParseString("", input)
}

// Assignments returns the top-level `key: value` pairs in file order.
func (w *Worksheet) Assignments() []*Assignment {
	if w == nil {
		return nil
	}
	return w.Body.assignments()
}

// Commands returns top-level commands with the given name.
func (w *Worksheet) Commands(name string) []*Command {
	if w == nil || w.Body == nil {
		return nil
	}
	var out []*Command
	for _, st := range w.Body.Statements {
		if st.Command != nil && st.Command.Name == name {
			out = append(out, st.Command)
		}
	}
	return out
}

// Assignments returns the `key: value` pairs of a command block.
func (c *Command) Assignments() []*Assignment {
	if c == nil {
		return nil
	}
	return c.Block.assignments()
}

func (b *Block) assignments() []*Assignment {
	if b == nil {
		return nil
	}
	var out []*Assignment
	for _, st := range b.Statements {
		if st.Assignment != nil {
			out = append(out, st.Assignment)
		}
	}
	return out
}

func consumeLexeme(lex *lexer.PeekingLexer) (*Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return nil, participle.NextMatch
	}
	lexeme, err := newLexeme(*tok)
	if err != nil {
		return nil, err
	}
	return &lexeme, nil
}

func shouldStopArg(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case newlineTokenType, rbraceTokenType, lbraceTokenType:
		return true
	case symbolTokenType:
		return tok.Value == ";"
	default:
		return false
	}
}

func stopExpression(tok *lexer.Token, depth int) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case newlineTokenType, rbraceTokenType, lbraceTokenType:
		return depth == 0
	case symbolTokenType:
		switch tok.Value {
		case ";", ",":
			return depth == 0
		case "]":
			return true
		}
	}
	return false
}

func newLexeme(tok lexer.Token) (Lexeme, error) {
	name, ok := tokenNames[tok.Type]
	if !ok {
		name = fmt.Sprintf("#%d", tok.Type)
	}
	val := tok.Value
	if tok.Type == stringTokenType {
		unquoted, err := strconv.Unquote(tok.Value)
		if err != nil {
			return Lexeme{}, err
		}
		val = unquoted
	}
	return Lexeme{Type: name, Value: val, Raw: tok.Value, Pos: tok.Pos}, nil
}

func invertSymbols(symbols map[string]lexer.TokenType) map[lexer.TokenType]string {
	out := make(map[lexer.TokenType]string, len(symbols))
	for name, tt := range symbols {
		out[tt] = name
	}
	return out
}

func mustTokenType(name string) lexer.TokenType {
	tt, ok := dslLexer.Symbols()[name]
	if !ok {
		panic(fmt.Sprintf("token %s not defined", name))
	}
	return tt
}
