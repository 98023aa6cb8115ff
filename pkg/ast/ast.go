// Package ast defines the Scheme AST node types consumed by the evaluator.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
// The set of implementations is closed: only this package may add tags.
type Node interface {
	Kind() string
	NodeSpan() Span
	node() // sealed marker
}

// Program is a sequence of top-level forms evaluated in order.
type Program struct {
	Span  Span
	Forms []Node
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
func (n *Program) node()          {}

// --- Literals ---

type EmptyList struct {
	Span Span
}

func (n *EmptyList) Kind() string   { return "EmptyList" }
func (n *EmptyList) NodeSpan() Span { return n.Span }
func (n *EmptyList) node()          {}

// BoolLiteral keeps the source text; the evaluator decides validity.
type BoolLiteral struct {
	Span    Span
	Literal string
}

func (n *BoolLiteral) Kind() string   { return "BoolLiteral" }
func (n *BoolLiteral) NodeSpan() Span { return n.Span }
func (n *BoolLiteral) node()          {}

// NumberLiteral keeps the source text, e.g. "42", "-2/3", "7.8901", "6.78+9.0i".
type NumberLiteral struct {
	Span    Span
	Literal string
}

func (n *NumberLiteral) Kind() string   { return "NumberLiteral" }
func (n *NumberLiteral) NodeSpan() Span { return n.Span }
func (n *NumberLiteral) node()          {}

type StrLiteral struct {
	Span  Span
	Value string
}

func (n *StrLiteral) Kind() string   { return "StrLiteral" }
func (n *StrLiteral) NodeSpan() Span { return n.Span }
func (n *StrLiteral) node()          {}

type CharLiteral struct {
	Span  Span
	Value rune
}

func (n *CharLiteral) Kind() string   { return "CharLiteral" }
func (n *CharLiteral) NodeSpan() Span { return n.Span }
func (n *CharLiteral) node()          {}

// Unassigned evaluates to the placeholder bound by letrec-style forms
// before their initializers run. The parser never produces it.
type Unassigned struct {
	Span Span
}

func (n *Unassigned) Kind() string   { return "Unassigned" }
func (n *Unassigned) NodeSpan() Span { return n.Span }
func (n *Unassigned) node()          {}

// --- Identifiers and data ---

type Identifier struct {
	Span Span
	Name string
}

func (n *Identifier) Kind() string   { return "Identifier" }
func (n *Identifier) NodeSpan() Span { return n.Span }
func (n *Identifier) node()          {}

// ListDatum is a parenthesized datum inside a quotation.
// Tail is non-nil for dotted lists such as (a b . c).
type ListDatum struct {
	Span     Span
	Elements []Node
	Tail     Node
}

func (n *ListDatum) Kind() string   { return "ListDatum" }
func (n *ListDatum) NodeSpan() Span { return n.Span }
func (n *ListDatum) node()          {}

type Quotation struct {
	Span  Span
	Datum Node
}

func (n *Quotation) Kind() string   { return "Quotation" }
func (n *Quotation) NodeSpan() Span { return n.Span }
func (n *Quotation) node()          {}

// --- Primitive forms ---

type ProcedureCall struct {
	Span     Span
	Operator Node
	Operands []Node
}

func (n *ProcedureCall) Kind() string   { return "ProcedureCall" }
func (n *ProcedureCall) NodeSpan() Span { return n.Span }
func (n *ProcedureCall) node()          {}

type Lambda struct {
	Span    Span
	Formals []*Identifier
	Body    []Node
}

func (n *Lambda) Kind() string   { return "Lambda" }
func (n *Lambda) NodeSpan() Span { return n.Span }
func (n *Lambda) node()          {}

// Conditional is (if test consequent [alternate]). Alternate may be nil.
type Conditional struct {
	Span       Span
	Test       Node
	Consequent Node
	Alternate  Node
}

func (n *Conditional) Kind() string   { return "Conditional" }
func (n *Conditional) NodeSpan() Span { return n.Span }
func (n *Conditional) node()          {}

type Assignment struct {
	Span       Span
	Identifier *Identifier
	Expression Node
}

func (n *Assignment) Kind() string   { return "Assignment" }
func (n *Assignment) NodeSpan() Span { return n.Span }
func (n *Assignment) node()          {}

type Definition struct {
	Span       Span
	Identifier *Identifier
	Expression Node
}

func (n *Definition) Kind() string   { return "Definition" }
func (n *Definition) NodeSpan() Span { return n.Span }
func (n *Definition) node()          {}

type Begin struct {
	Span  Span
	Forms []Node
}

func (n *Begin) Kind() string   { return "Begin" }
func (n *Begin) NodeSpan() Span { return n.Span }
func (n *Begin) node()          {}

// --- Derived forms ---

// CondClause is one clause of cond. Receiver is set for (test => receiver).
// An else clause has an Identifier test named "else".
type CondClause struct {
	Span     Span
	Test     Node
	Sequence []Node
	Receiver Node
}

type Cond struct {
	Span    Span
	Clauses []*CondClause
}

func (n *Cond) Kind() string   { return "Cond" }
func (n *Cond) NodeSpan() Span { return n.Span }
func (n *Cond) node()          {}

type And struct {
	Span  Span
	Exprs []Node
}

func (n *And) Kind() string   { return "And" }
func (n *And) NodeSpan() Span { return n.Span }
func (n *And) node()          {}

type Or struct {
	Span  Span
	Exprs []Node
}

func (n *Or) Kind() string   { return "Or" }
func (n *Or) NodeSpan() Span { return n.Span }
func (n *Or) node()          {}

type When struct {
	Span Span
	Test Node
	Body []Node
}

func (n *When) Kind() string   { return "When" }
func (n *When) NodeSpan() Span { return n.Span }
func (n *When) node()          {}

type Unless struct {
	Span Span
	Test Node
	Body []Node
}

func (n *Unless) Kind() string   { return "Unless" }
func (n *Unless) NodeSpan() Span { return n.Span }
func (n *Unless) node()          {}

// BindSpec is one (name init) pair of a let-family form.
type BindSpec struct {
	Span       Span
	Identifier *Identifier
	Init       Node
}

// Let is (let [name] (bindings…) body…). Name is nil unless this is a named let.
type Let struct {
	Span     Span
	Name     *Identifier
	Bindings []*BindSpec
	Body     []Node
}

func (n *Let) Kind() string   { return "Let" }
func (n *Let) NodeSpan() Span { return n.Span }
func (n *Let) node()          {}

type LetStar struct {
	Span     Span
	Bindings []*BindSpec
	Body     []Node
}

func (n *LetStar) Kind() string   { return "LetStar" }
func (n *LetStar) NodeSpan() Span { return n.Span }
func (n *LetStar) node()          {}

type Letrec struct {
	Span     Span
	Bindings []*BindSpec
	Body     []Node
}

func (n *Letrec) Kind() string   { return "Letrec" }
func (n *Letrec) NodeSpan() Span { return n.Span }
func (n *Letrec) node()          {}

type LetrecStar struct {
	Span     Span
	Bindings []*BindSpec
	Body     []Node
}

func (n *LetrecStar) Kind() string   { return "LetrecStar" }
func (n *LetrecStar) NodeSpan() Span { return n.Span }
func (n *LetrecStar) node()          {}

// IterationSpec is one (var init [step]) entry of do. Step may be nil.
type IterationSpec struct {
	Span       Span
	Identifier *Identifier
	Init       Node
	Step       Node
}

type Do struct {
	Span     Span
	Specs    []*IterationSpec
	Test     Node
	Result   []Node
	Commands []Node
}

func (n *Do) Kind() string   { return "Do" }
func (n *Do) NodeSpan() Span { return n.Span }
func (n *Do) node()          {}

// IsElse reports whether a cond clause is an else clause.
func (c *CondClause) IsElse() bool {
	id, ok := c.Test.(*Identifier)
	return ok && id.Name == "else"
}
