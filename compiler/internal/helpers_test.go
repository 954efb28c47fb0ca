package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func num(value int) *ExpressionTerm {
	return &ExpressionTerm{Operand: &IntegerConstant{Value: value}}
}

func boolean(value bool) *ExpressionTerm {
	return &ExpressionTerm{Operand: &BooleanConstant{Value: value}}
}

func ident(name string) *ExpressionTerm {
	return &ExpressionTerm{Operand: &Identifier{Name: name}}
}

func this() *ExpressionTerm {
	return &ExpressionTerm{Operand: &ThisConstant{}}
}

func enclosed(expr ExpressionAst) *ExpressionTerm {
	return &ExpressionTerm{Operand: &EnclosedExpression{Expr: expr}}
}

func index(name string, idx ExpressionAst) *ExpressionTerm {
	return &ExpressionTerm{Operand: &Identifier{Name: name}, Suffix: &ArrayIndexSuffix{Index: idx}}
}

func call(receiver OperandAst, funcName string, params ...ExpressionAst) *ExpressionTerm {
	return &ExpressionTerm{Operand: receiver, Suffix: &CallAst{FuncName: funcName, Params: params}}
}

func bin(op OpCode, left ExpressionAst, right ExpressionAst) *BinaryExpressionAst {
	return &BinaryExpressionAst{Op: op, Left: left, Right: right}
}

func not(expr ExpressionAst) *NotExpressionAst {
	return &NotExpressionAst{Operand: expr}
}

func let(name string, value ExpressionAst) *LetStatementAst {
	return &LetStatementAst{VarName: name, Value: value}
}

func ret(value ExpressionAst) *ReturnStatementAst {
	return &ReturnStatementAst{Value: value}
}

func exprStatement(expr ExpressionAst) *ExpressionStatementAst {
	return &ExpressionStatementAst{Expr: expr}
}

func vars(nameAndTypes ...string) []*VarDeclareAst {
	var ret []*VarDeclareAst
	for i := 0; i+1 < len(nameAndTypes); i += 2 {
		ret = append(ret, &VarDeclareAst{VarName: nameAndTypes[i], VarType: ParseVariableType(nameAndTypes[i+1])})
	}
	return ret
}

func params(nameAndTypes ...string) []*FuncParamAst {
	var ret []*FuncParamAst
	for i := 0; i+1 < len(nameAndTypes); i += 2 {
		ret = append(ret, &FuncParamAst{ParamName: nameAndTypes[i], ParamTP: ParseVariableType(nameAndTypes[i+1])})
	}
	return ret
}

func mainFunc(locals []*VarDeclareAst, body ...StatementAst) *FuncAst {
	return &FuncAst{
		FuncName: "main",
		IsMain:   true,
		ReturnTP: VoidType,
		Params:   params("args", "String[]"),
		Locals:   locals,
		FuncBody: body,
	}
}

func method(name string, returnTP string, args []*FuncParamAst, locals []*VarDeclareAst, body ...StatementAst) *FuncAst {
	return &FuncAst{FuncName: name, ReturnTP: ParseVariableType(returnTP), Params: args, Locals: locals, FuncBody: body}
}

// fooClass is class Foo { int x; int bar(int a) { return a + x; } main { new Foo().bar(5); } }.
func fooClass() *ClassAst {
	return &ClassAst{
		ClassName: "Foo",
		Fields:    vars("x", "int"),
		Funcs: []*FuncAst{
			method("bar", "int", params("a", "int"), nil, ret(bin(AddOpTP, ident("a"), ident("x")))),
			mainFunc(nil, exprStatement(call(&NewObject{ClassName: "Foo"}, "bar", num(5)))),
		},
	}
}

func requireErrorKind(t *testing.T, err error, kind ErrorKind) *CompileError {
	require.NotNil(t, err)
	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr), err.Error())
	require.Equal(t, kind, compileErr.Kind, err.Error())
	return compileErr
}
