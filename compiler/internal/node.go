package internal

import (
	"io"
	"strconv"

	"github.com/xiaobogaga/javamm/util"
	"gopkg.in/yaml.v3"
)

// Node is the generic tree handed over by the parser: a tag naming the syntactic category,
// optional name, type and return type, and ordered children. It's decoded from yaml, or json
// which yaml accepts as well, and lowered into the typed ast by Lower.
type Node struct {
	Tag        string  `yaml:"tag"`
	Name       string  `yaml:"name,omitempty"`
	Type       string  `yaml:"type,omitempty"`
	ReturnType string  `yaml:"return_type,omitempty"`
	Children   []*Node `yaml:"children,omitempty"`
}

const (
	ProgramTag  = "program"
	ClassTag    = "class"
	ExtendsTag  = "extends"
	VarTag      = "var"
	ArgTag      = "arg"
	MainTag     = "main"
	MethodTag   = "method"
	IfTag       = "if"
	ThenTag     = "then"
	ElseTag     = "else"
	WhileTag    = "while"
	BodyTag     = "body"
	EqualsTag   = "equals"
	ReturnTag   = "return"
	TermTag     = "term"
	AddTag      = "add"
	SubTag      = "sub"
	MulTag      = "mul"
	DivTag      = "div"
	AndTag      = "and"
	LowerTag    = "lower"
	LessTag     = "less"
	NotTag      = "not"
	EnclosedTag = "enclosed-expression"
	NewTag      = "new"
	ArrayTag    = "array-access"
	MemberTag   = "member"
)

var binaryOps = map[string]OpCode{
	AddTag:   AddOpTP,
	SubTag:   MinusOpTP,
	MulTag:   MultipleOpTP,
	DivTag:   DivideOpTP,
	AndTag:   AndOpTP,
	LowerTag: LessOpTP,
	LessTag:  LessOpTP,
}

func DecodeNode(rd io.Reader) (*Node, error) {
	node := new(Node)
	err := yaml.NewDecoder(rd).Decode(node)
	if err != nil {
		return nil, makeStructuralError("cannot decode ast: %v", err)
	}
	return node, nil
}

// Lower converts a program or class root into a ClassAst.
func Lower(root *Node) (*ClassAst, error) {
	if root == nil {
		return nil, makeStructuralError("empty ast")
	}
	classNode := root
	if root.Tag == ProgramTag {
		if len(root.Children) == 0 || root.Children[0].Tag != ClassTag {
			return nil, makeStructuralError("program doesn't have class")
		}
		classNode = root.Children[0]
	}
	if classNode.Tag != ClassTag {
		return nil, makeStructuralError("root node doesn't qualify as program: %s", root.Tag)
	}
	if classNode.Name == "" {
		return nil, makeStructuralError("class without name")
	}
	ast := &ClassAst{ClassName: classNode.Name}
	for _, child := range classNode.Children {
		switch child.Tag {
		case ExtendsTag:
			ast.Extends = child.Name
		case VarTag:
			ast.Fields = append(ast.Fields, &VarDeclareAst{VarName: child.Name, VarType: ParseVariableType(child.Type)})
		case MainTag:
			fn, err := lowerMain(child)
			if err != nil {
				return nil, err
			}
			ast.Funcs = append(ast.Funcs, fn)
		case MethodTag:
			fn, err := lowerMethod(child)
			if err != nil {
				return nil, err
			}
			ast.Funcs = append(ast.Funcs, fn)
		default:
			return nil, makeStructuralError("unexpected %s in class %s", child.Tag, classNode.Name)
		}
	}
	return ast, nil
}

// The entry point argument name is the name of the main node.
func lowerMain(node *Node) (*FuncAst, error) {
	fn := &FuncAst{
		FuncName: "main",
		IsMain:   true,
		ReturnTP: VoidType,
		Params:   []*FuncParamAst{{ParamName: node.Name, ParamTP: StringArrayType}},
	}
	return fn, lowerFuncChildren(fn, node.Children)
}

func lowerMethod(node *Node) (*FuncAst, error) {
	if node.Name == "" {
		return nil, makeStructuralError("method without name")
	}
	returnTP := VoidType
	if node.ReturnType != "" {
		returnTP = ParseVariableType(node.ReturnType)
	}
	fn := &FuncAst{FuncName: node.Name, ReturnTP: returnTP}
	return fn, lowerFuncChildren(fn, node.Children)
}

func lowerFuncChildren(fn *FuncAst, children []*Node) error {
	for _, child := range children {
		switch child.Tag {
		case ArgTag:
			if fn.IsMain {
				return makeStructuralError("the entry point only has its String[] argument")
			}
			fn.Params = append(fn.Params, &FuncParamAst{ParamName: child.Name, ParamTP: ParseVariableType(child.Type)})
		case VarTag:
			fn.Locals = append(fn.Locals, &VarDeclareAst{VarName: child.Name, VarType: ParseVariableType(child.Type)})
		default:
			statement, err := lowerStatement(child)
			if err != nil {
				return err
			}
			fn.FuncBody = append(fn.FuncBody, statement)
		}
	}
	return nil
}

func lowerStatements(node *Node) ([]StatementAst, error) {
	var ret []StatementAst
	for _, child := range node.Children {
		statement, err := lowerStatement(child)
		if err != nil {
			return nil, err
		}
		ret = append(ret, statement)
	}
	return ret, nil
}

func lowerStatement(node *Node) (StatementAst, error) {
	switch node.Tag {
	case IfTag:
		if len(node.Children) < 3 || node.Children[1].Tag != ThenTag || node.Children[2].Tag != ElseTag {
			return nil, makeStructuralError("if needs a condition, a then and an else block")
		}
		condition, err := lowerExpression(node.Children[0])
		if err != nil {
			return nil, err
		}
		ifTrue, err := lowerStatements(node.Children[1])
		if err != nil {
			return nil, err
		}
		ifFalse, err := lowerStatements(node.Children[2])
		if err != nil {
			return nil, err
		}
		return &IfStatementAst{Condition: condition, IfTrueStatements: ifTrue, ElseStatements: ifFalse}, nil
	case WhileTag:
		if len(node.Children) < 2 || (node.Children[1].Tag != ThenTag && node.Children[1].Tag != BodyTag) {
			return nil, makeStructuralError("while needs a condition and a body")
		}
		condition, err := lowerExpression(node.Children[0])
		if err != nil {
			return nil, err
		}
		body, err := lowerStatements(node.Children[1])
		if err != nil {
			return nil, err
		}
		return &WhileStatementAst{Condition: condition, Statements: body}, nil
	case EqualsTag:
		return lowerEquals(node)
	case ReturnTag:
		if len(node.Children) == 0 {
			return &ReturnStatementAst{}, nil
		}
		value, err := lowerExpression(node.Children[0])
		if err != nil {
			return nil, err
		}
		return &ReturnStatementAst{Value: value}, nil
	case TermTag, AddTag, SubTag, MulTag, DivTag, AndTag, LowerTag, LessTag, NotTag:
		expr, err := lowerExpression(node)
		if err != nil {
			return nil, err
		}
		return &ExpressionStatementAst{Expr: expr}, nil
	}
	return nil, makeStructuralError("unexpected statement %s", node.Tag)
}

// equals has the target term (a name, optionally indexed) and the value.
func lowerEquals(node *Node) (StatementAst, error) {
	if len(node.Children) != 2 {
		return nil, makeStructuralError("assignment needs a target and a value")
	}
	target := node.Children[0]
	if target.Tag != TermTag || target.Name == "" || isLiteralName(target.Name) {
		return nil, makeStructuralError("assignment target must be a variable")
	}
	let := &LetStatementAst{VarName: target.Name}
	if len(target.Children) > 0 {
		if len(target.Children) != 1 || target.Children[0].Tag != ArrayTag {
			return nil, makeStructuralError("assignment target %s must be a variable or an array element", target.Name)
		}
		index, err := lowerArrayIndex(target.Children[0])
		if err != nil {
			return nil, err
		}
		let.ArrayIndex = index
	}
	value, err := lowerExpression(node.Children[1])
	if err != nil {
		return nil, err
	}
	let.Value = value
	return let, nil
}

func lowerExpression(node *Node) (ExpressionAst, error) {
	if op, ok := binaryOps[node.Tag]; ok {
		if len(node.Children) != 2 {
			return nil, makeStructuralError("%s needs two operands", node.Tag)
		}
		left, err := lowerExpression(node.Children[0])
		if err != nil {
			return nil, err
		}
		right, err := lowerExpression(node.Children[1])
		if err != nil {
			return nil, err
		}
		return &BinaryExpressionAst{Op: op, Left: left, Right: right}, nil
	}
	switch node.Tag {
	case NotTag:
		if len(node.Children) != 1 {
			return nil, makeStructuralError("not needs one operand")
		}
		operand, err := lowerExpression(node.Children[0])
		if err != nil {
			return nil, err
		}
		return &NotExpressionAst{Operand: operand}, nil
	case TermTag:
		return lowerTerm(node)
	}
	return nil, makeStructuralError("unexpected token to evaluate: %s", node.Tag)
}

// A term is a name or an enclosed/new child, optionally followed by an array-access or a
// member child.
func lowerTerm(node *Node) (ExpressionAst, error) {
	children := node.Children
	term := new(ExpressionTerm)
	switch {
	case node.Name != "":
		operand, err := lowerNamedOperand(node.Name)
		if err != nil {
			return nil, err
		}
		term.Operand = operand
	case len(children) > 0 && (children[0].Tag == EnclosedTag || children[0].Tag == NewTag):
		operand, err := lowerOperandNode(children[0])
		if err != nil {
			return nil, err
		}
		term.Operand, children = operand, children[1:]
	default:
		return nil, makeStructuralError("term has no name nor the expected children")
	}
	if len(children) > 1 {
		return nil, makeStructuralError("term has too many children")
	}
	if len(children) == 0 {
		return term, nil
	}
	switch children[0].Tag {
	case ArrayTag:
		index, err := lowerArrayIndex(children[0])
		if err != nil {
			return nil, err
		}
		term.Suffix = &ArrayIndexSuffix{Index: index}
	case MemberTag:
		call := &CallAst{FuncName: children[0].Name}
		for _, param := range children[0].Children {
			expr, err := lowerExpression(param)
			if err != nil {
				return nil, err
			}
			call.Params = append(call.Params, expr)
		}
		term.Suffix = call
	default:
		return nil, makeStructuralError("unknown term child %s", children[0].Tag)
	}
	return term, nil
}

func isLiteralName(name string) bool {
	return name == "true" || name == "false" || name == "this" || (name[0] >= '0' && name[0] <= '9') || name[0] == '-'
}

func lowerNamedOperand(name string) (OperandAst, error) {
	switch name {
	case "true":
		return &BooleanConstant{Value: true}, nil
	case "false":
		return &BooleanConstant{Value: false}, nil
	case "this":
		return &ThisConstant{}, nil
	}
	if isLiteralName(name) {
		value, err := strconv.ParseInt(name, 10, 32)
		if err != nil {
			return nil, makeStructuralError("invalid integer literal %s", name)
		}
		return &IntegerConstant{Value: int(value)}, nil
	}
	if !util.IsIdentifier(name) {
		return nil, makeStructuralError("invalid identifier %s", name)
	}
	return &Identifier{Name: name}, nil
}

func lowerOperandNode(node *Node) (OperandAst, error) {
	if node.Tag == EnclosedTag {
		if len(node.Children) != 1 {
			return nil, makeStructuralError("enclosed expression is childless")
		}
		expr, err := lowerExpression(node.Children[0])
		if err != nil {
			return nil, err
		}
		return &EnclosedExpression{Expr: expr}, nil
	}
	// new Foo() has no child, new int[size] has an array-access child.
	if len(node.Children) == 0 {
		if node.Type == "" {
			return nil, makeStructuralError("new without class name")
		}
		return &NewObject{ClassName: node.Type}, nil
	}
	size, err := lowerArrayIndex(node.Children[0])
	if err != nil {
		return nil, err
	}
	return &NewIntArray{Size: size}, nil
}

func lowerArrayIndex(node *Node) (ExpressionAst, error) {
	if node.Tag != ArrayTag || len(node.Children) != 1 {
		return nil, makeStructuralError("array access doesn't have expression associated")
	}
	return lowerExpression(node.Children[0])
}
