package ast

// Expr represents an expression tree used in mutate and filter.
type Expr interface {
	exprNode()
}

// LiteralExpr represents a literal value: number, string, bool, null.
type LiteralExpr struct {
	// Kind: "int", "float", "string", "bool", "null"
	Kind  string
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

func (e *LiteralExpr) exprNode() {}

// ColumnExpr references a column by name.
type ColumnExpr struct {
	Name string
}

func (e *ColumnExpr) exprNode() {}

// BinaryExpr represents a binary operation: a op b.
type BinaryExpr struct {
	Op    string // +, -, *, /, %, ==, !=, <, >, <=, >=, and, or
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) exprNode() {}

// UnaryExpr represents a unary operation (e.g. not, unary minus).
type UnaryExpr struct {
	Op      string // "not", "-"
	Operand Expr
}

func (e *UnaryExpr) exprNode() {}

// FuncCallExpr represents a function call: func(arg1, arg2, ...).
type FuncCallExpr struct {
	Name string
	Args []Expr
}

func (e *FuncCallExpr) exprNode() {}

// IsNullExpr represents "col is null" or "col is not null".
type IsNullExpr struct {
	Operand Expr
	Negated bool // true = "is not null"
}

func (e *IsNullExpr) exprNode() {}

// Assignment represents "col = expr" in mutate.
type Assignment struct {
	Column string
	Expr   Expr
}

// RenamePair is one "old = new" rename instruction.
type RenamePair struct {
	Old string
	New string
}

// Aggregation is one "target = fn()" summarize instruction. Source is the
// column fed to the reducer; it equals Target unless written as fn(source).
type Aggregation struct {
	Target string
	Func   string
	Source string
}

// SortKey is one "column [asc|desc]" arrange instruction.
type SortKey struct {
	Column string
	Desc   bool
}

// --- Operations (pipeline stages) ---

// Op represents a single verb in the pipeline.
type Op interface {
	opNode()
}

// Source names the table a pipeline or join reads from.
type Source struct {
	Filename string
}

// RenameOp renames columns.
type RenameOp struct {
	Pairs []RenamePair
}

func (o *RenameOp) opNode() {}

// MutateOp creates or overwrites columns with computed values.
type MutateOp struct {
	Assignments []Assignment
}

func (o *MutateOp) opNode() {}

// FilterOp keeps rows for which the expression is truthy.
type FilterOp struct {
	Expr Expr
}

func (o *FilterOp) opNode() {}

// SelectOp projects specific columns.
type SelectOp struct {
	Columns []string
}

func (o *SelectOp) opNode() {}

// GroupByOp sets the grouping keys.
type GroupByOp struct {
	Columns []string
}

func (o *GroupByOp) opNode() {}

// UngroupOp clears the grouping keys.
type UngroupOp struct{}

func (o *UngroupOp) opNode() {}

// SummarizeOp reduces each group to one row.
type SummarizeOp struct {
	Aggregations []Aggregation
}

func (o *SummarizeOp) opNode() {}

// ArrangeOp sorts rows.
type ArrangeOp struct {
	Keys []SortKey
}

func (o *ArrangeOp) opNode() {}

// DistinctOp deduplicates rows.
type DistinctOp struct {
	Columns []string // empty = all columns
	KeepAll bool     // keep every column, not only Columns
}

func (o *DistinctOp) opNode() {}

// JoinKind selects the join algorithm.
type JoinKind string

const (
	LeftJoin  JoinKind = "left_join"
	InnerJoin JoinKind = "inner_join"
	AntiJoin  JoinKind = "anti_join"
)

// JoinOp joins the current table with another source on shared columns.
type JoinOp struct {
	Kind  JoinKind
	Right Source
	By    []string // empty = all shared columns
}

func (o *JoinOp) opNode() {}

// HeadOp returns the first N rows.
type HeadOp struct {
	N int
}

func (o *HeadOp) opNode() {}

// TailOp returns the last N rows.
type TailOp struct {
	N int
}

func (o *TailOp) opNode() {}

// Query represents a full parsed pipeline: source + verbs.
type Query struct {
	Source Source
	Ops    []Op
}
