package internal

// In this file, we defined the ast consumed by the back end. Trees are produced by an external
// parser and handed over either directly or as a generic tagged Node tree (see node.go) which
// is lowered into these types.
//
// Statements, expressions, operands and term suffixes are closed sets: each is an interface
// with an unexported marker method, and every walker type-switches over all implementations.

type ClassAst struct {
	ClassName string
	// Extends is the optional single base class, empty if the class doesn't declare one.
	Extends string
	Fields  []*VarDeclareAst
	// Funcs holds the entry point and the methods in declaration order.
	Funcs []*FuncAst
}

type VarDeclareAst struct {
	VarName string
	VarType VariableType
}

type FuncParamAst struct {
	ParamName string
	ParamTP   VariableType
}

type FuncAst struct {
	FuncName string
	// IsMain marks the program entry point: static, no receiver, one String[] argument.
	IsMain   bool
	ReturnTP VariableType
	Params   []*FuncParamAst
	Locals   []*VarDeclareAst
	FuncBody []StatementAst
}

// Key returns the scope key of the function: name + "(" + argCount + ")".
func (fn *FuncAst) Key() string {
	if fn.IsMain {
		return MainScopeKey
	}
	return FuncKey(fn.FuncName, len(fn.Params))
}

type StatementAst interface {
	statementNode()
}

type IfStatementAst struct {
	Condition        ExpressionAst
	IfTrueStatements []StatementAst
	ElseStatements   []StatementAst
}

type WhileStatementAst struct {
	Condition  ExpressionAst
	Statements []StatementAst
}

// LetStatementAst is an assignment: VarName = Value or VarName[ArrayIndex] = Value.
type LetStatementAst struct {
	VarName    string
	ArrayIndex ExpressionAst
	Value      ExpressionAst
}

// ExpressionStatementAst is an expression used as a statement. Only terms (calls mostly)
// are legal here.
type ExpressionStatementAst struct {
	Expr ExpressionAst
}

type ReturnStatementAst struct {
	// Value is nil for a bare return in a void function.
	Value ExpressionAst
}

func (*IfStatementAst) statementNode()         {}
func (*WhileStatementAst) statementNode()      {}
func (*LetStatementAst) statementNode()        {}
func (*ExpressionStatementAst) statementNode() {}
func (*ReturnStatementAst) statementNode()     {}

type ExpressionAst interface {
	expressionNode()
}

type OpCode int

const (
	AddOpTP OpCode = iota
	MinusOpTP
	MultipleOpTP
	DivideOpTP
	AndOpTP
	LessOpTP
)

func (op OpCode) String() string {
	switch op {
	case AddOpTP:
		return "+"
	case MinusOpTP:
		return "-"
	case MultipleOpTP:
		return "*"
	case DivideOpTP:
		return "/"
	case AndOpTP:
		return "&&"
	case LessOpTP:
		return "<"
	}
	return ""
}

func (op OpCode) isArithmetic() bool {
	return op == AddOpTP || op == MinusOpTP || op == MultipleOpTP || op == DivideOpTP
}

type BinaryExpressionAst struct {
	Op    OpCode
	Left  ExpressionAst
	Right ExpressionAst
}

type NotExpressionAst struct {
	Operand ExpressionAst
}

// ExpressionTerm is an operand optionally followed by a single suffix: an array index or a
// member access, e.g. a, a[i], a.length, this.foo(1), new Foo().bar().
type ExpressionTerm struct {
	Operand OperandAst
	Suffix  SuffixAst
}

func (*BinaryExpressionAst) expressionNode() {}
func (*NotExpressionAst) expressionNode()    {}
func (*ExpressionTerm) expressionNode()      {}

type OperandAst interface {
	operandNode()
}

type IntegerConstant struct {
	Value int
}

type BooleanConstant struct {
	Value bool
}

type ThisConstant struct{}

type Identifier struct {
	Name string
}

type EnclosedExpression struct {
	Expr ExpressionAst
}

type NewObject struct {
	ClassName string
}

type NewIntArray struct {
	Size ExpressionAst
}

func (*IntegerConstant) operandNode()    {}
func (*BooleanConstant) operandNode()    {}
func (*ThisConstant) operandNode()       {}
func (*Identifier) operandNode()         {}
func (*EnclosedExpression) operandNode() {}
func (*NewObject) operandNode()          {}
func (*NewIntArray) operandNode()        {}

type SuffixAst interface {
	suffixNode()
}

type ArrayIndexSuffix struct {
	Index ExpressionAst
}

// CallAst is a member access. The array length query is a CallAst named "length" with no
// params.
type CallAst struct {
	FuncName string
	Params   []ExpressionAst
}

func (*ArrayIndexSuffix) suffixNode() {}
func (*CallAst) suffixNode()          {}

func (call *CallAst) isLengthQuery() bool {
	return call.FuncName == "length" && len(call.Params) == 0
}
