package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, ast *ClassAst, config *Config) string {
	store, err := BuildSymbolTables(ast)
	require.Nil(t, err)
	analyzer := NewAnalyzer(store, ast)
	require.Nil(t, analyzer.Analyse())
	return NewCodeGenerator(store, analyzer, ast, config).Generate()
}

// methodBody returns the lines between the .method line starting with header and .end method.
func methodBody(code string, header string) []string {
	var ret []string
	inside := false
	for _, line := range strings.Split(code, "\n") {
		switch {
		case strings.HasPrefix(line, header):
			inside = true
		case inside && line == ".end method":
			return ret
		case inside:
			ret = append(ret, line)
		}
	}
	return ret
}

func TestGenerateFoo(t *testing.T) {
	expected := `.class public Foo
.super java/lang/Object

.field 'x' I

.method public <init>()V
	aload_0
	invokespecial java/lang/Object/<init>()V
	return
.end method

.method public bar(I)I
	.limit stack 999
	.limit locals 2
	iload_1
	aload_0
	getfield Foo/x I
	iadd
	ireturn
.end method

.method public static main([Ljava/lang/String;)V
	.limit stack 999
	.limit locals 2
	new Foo
	dup
	invokespecial Foo/<init>()V
	iconst_5
	invokevirtual Foo/bar(I)I
	pop
	return
.end method
`
	assert.Equal(t, expected, generate(t, fooClass(), nil))
}

func TestGenerateBaseClass(t *testing.T) {
	ast := &ClassAst{
		ClassName: "Foo",
		Extends:   "Bar",
		Funcs: []*FuncAst{
			method("f", "void", nil, nil, exprStatement(call(&ThisConstant{}, "inherited", num(1)))),
		},
	}
	code := generate(t, ast, nil)
	assert.True(t, strings.HasPrefix(code, ".class public Foo\n.super Bar\n\n.method public <init>()V\n"))
	assert.Contains(t, code, "\tinvokespecial Bar/<init>()V\n")
	assert.Equal(t, []string{
		"\t.limit stack 999",
		"\t.limit locals 1",
		"\taload_0",
		"\ticonst_1",
		"\tinvokevirtual Bar/inherited(I)V",
		"\treturn",
	}, methodBody(code, ".method public f()V"))
}

func TestGenerateIfLayout(t *testing.T) {
	ast := classWith(method("run", "void", params("a", "int"), nil,
		&IfStatementAst{
			Condition:        bin(LessOpTP, ident("a"), num(3)),
			IfTrueStatements: []StatementAst{let("x", num(1))},
			ElseStatements:   []StatementAst{let("x", num(2))},
		},
	))
	code := generate(t, ast, nil)
	assert.Equal(t, []string{
		"\t.limit stack 999",
		"\t.limit locals 2",
		"\tiload_1",
		"\ticonst_3",
		"\tif_icmpge run_1_L1",
		"\taload_0",
		"\ticonst_1",
		"\tputfield Foo/x I",
		"\tgoto run_1_L2",
		"run_1_L1:",
		"\taload_0",
		"\ticonst_2",
		"\tputfield Foo/x I",
		"run_1_L2:",
		"\treturn",
	}, methodBody(code, ".method public run(I)V"))
	// Labels restart for each compilation.
	assert.Equal(t, code, generate(t, ast, nil))
}

func TestGenerateWhileLayout(t *testing.T) {
	ast := classWith(method("loop", "int", nil, vars("i", "int"),
		let("i", num(0)),
		&WhileStatementAst{
			Condition:  bin(LessOpTP, ident("i"), num(10)),
			Statements: []StatementAst{let("i", bin(AddOpTP, ident("i"), num(1)))},
		},
		ret(ident("i")),
	))
	assert.Equal(t, []string{
		"\t.limit stack 999",
		"\t.limit locals 2",
		"\ticonst_0",
		"\tistore_1",
		"loop_0_L1:",
		"\tiload_1",
		"\tbipush 10",
		"\tif_icmpge loop_0_L2",
		"\tiload_1",
		"\ticonst_1",
		"\tiadd",
		"\tistore_1",
		"\tgoto loop_0_L1",
		"loop_0_L2:",
		"\tiload_1",
		"\tireturn",
	}, methodBody(generate(t, ast, nil), ".method public loop()I"))
}

func TestGenerateShortCircuitCondition(t *testing.T) {
	ast := classWith(method("f", "void", params("a", "int", "b", "int"), nil,
		&IfStatementAst{
			Condition:        bin(AndOpTP, bin(LessOpTP, ident("a"), num(1)), bin(LessOpTP, ident("b"), num(2))),
			IfTrueStatements: []StatementAst{let("x", num(1))},
		},
	))
	body := methodBody(generate(t, ast, nil), ".method public f(II)V")
	joined := strings.Join(body, "\n")
	// Both operands jump straight to the else label, nothing is materialized.
	assert.Equal(t, 2, strings.Count(joined, "if_icmpge f_2_L1"))
	assert.NotContains(t, joined, "iconst_0")
	assert.NotContains(t, joined, "ifeq")
}

func TestGenerateMaterializedBoolean(t *testing.T) {
	ast := classWith(method("f", "boolean", params("a", "int", "b", "int"), vars("c", "boolean"),
		let("c", bin(AndOpTP, bin(LessOpTP, ident("a"), num(1)), not(enclosed(bin(LessOpTP, ident("b"), num(2)))))),
		ret(ident("c")),
	))
	assert.Equal(t, []string{
		"\t.limit stack 999",
		"\t.limit locals 4",
		"\tiload_1",
		"\ticonst_1",
		"\tif_icmpge f_2_L1",
		"\tiload_2",
		"\ticonst_2",
		"\tif_icmplt f_2_L1",
		"\ticonst_1",
		"\tgoto f_2_L2",
		"f_2_L1:",
		"\ticonst_0",
		"f_2_L2:",
		"\tistore_3",
		"\tiload_3",
		"\tireturn",
	}, methodBody(generate(t, ast, nil), ".method public f(II)Z"))
}

func TestGenerateNegatedAnd(t *testing.T) {
	ast := classWith(method("f", "void", nil, nil,
		&WhileStatementAst{Condition: not(enclosed(bin(AndOpTP, ident("flag"), boolean(true))))},
	))
	body := methodBody(generate(t, ast, nil), ".method public f()V")
	assert.Equal(t, []string{
		"\t.limit stack 999",
		"\t.limit locals 1",
		"f_0_L1:",
		"\taload_0",
		"\tgetfield Foo/flag Z",
		"\tifeq f_0_L3",
		"\ticonst_1",
		"\tifne f_0_L2",
		"f_0_L3:",
		"\tgoto f_0_L1",
		"f_0_L2:",
		"\treturn",
	}, body)
}

func TestGenerateIntegerConstant(t *testing.T) {
	testData := []struct {
		value int
		code  string
	}{
		{0, "iconst_0"},
		{5, "iconst_5"},
		{-1, "iconst_m1"},
		{6, "bipush 6"},
		{127, "bipush 127"},
		{-128, "bipush -128"},
		{128, "sipush 128"},
		{-129, "sipush -129"},
		{32767, "sipush 32767"},
		{-32768, "sipush -32768"},
		{32768, "ldc 32768"},
		{-32769, "ldc -32769"},
	}
	for _, data := range testData {
		generator := &CodeGenerator{}
		generator.generateIntegerConstantCode(data.value)
		assert.Equal(t, "\t"+data.code+"\n", generator.output.String())
	}
}

func TestSlotInstruction(t *testing.T) {
	assert.Equal(t, "iload_3", slotInstruction(&SymbolDesc{VariableType: IntType, Index: 3}, "load"))
	assert.Equal(t, "iload 4", slotInstruction(&SymbolDesc{VariableType: BooleanType, Index: 4}, "load"))
	assert.Equal(t, "astore_1", slotInstruction(&SymbolDesc{VariableType: IntArrayType, Index: 1}, "store"))
	assert.Equal(t, "astore 7", slotInstruction(&SymbolDesc{VariableType: ClassType("Foo"), Index: 7}, "store"))
}

// The array and the index are pushed before the value, unlike a plain store.
func TestGenerateArrayStore(t *testing.T) {
	ast := classWith(method("fill", "void", nil, vars("arr", "int[]"),
		let("arr", &ExpressionTerm{Operand: &NewIntArray{Size: num(10)}}),
		&LetStatementAst{VarName: "arr", ArrayIndex: num(2), Value: num(7)},
		let("x", index("arr", num(2))),
		let("x", call(&Identifier{Name: "arr"}, "length")),
	))
	assert.Equal(t, []string{
		"\t.limit stack 999",
		"\t.limit locals 2",
		"\tbipush 10",
		"\tnewarray int",
		"\tastore_1",
		"\taload_1",
		"\ticonst_2",
		"\tbipush 7",
		"\tiastore",
		"\taload_0",
		"\taload_1",
		"\ticonst_2",
		"\tiaload",
		"\tputfield Foo/x I",
		"\taload_0",
		"\taload_1",
		"\tarraylength",
		"\tputfield Foo/x I",
		"\treturn",
	}, methodBody(generate(t, ast, nil), ".method public fill()V"))
}

func TestGenerateUnknownCalls(t *testing.T) {
	ast := classWith(mainFunc(vars("b", "boolean", "o", "Bar", "n", "int"),
		exprStatement(call(&Identifier{Name: "io"}, "println", num(1), boolean(true))),
		let("b", call(&Identifier{Name: "io"}, "read")),
		let("o", &ExpressionTerm{Operand: &NewObject{ClassName: "Bar"}}),
		let("n", call(&Identifier{Name: "o"}, "size", ident("o"))),
		exprStatement(call(&Identifier{Name: "o"}, "stop")),
	))
	assert.Equal(t, []string{
		"\t.limit stack 999",
		"\t.limit locals 5",
		"\ticonst_1",
		"\ticonst_1",
		"\tinvokestatic io/println(IZ)V",
		"\tinvokestatic io/read()Z",
		"\tistore_2",
		"\tnew Bar",
		"\tdup",
		"\tinvokespecial Bar/<init>()V",
		"\tastore_3",
		"\taload_3",
		"\taload_3",
		"\tinvokevirtual Bar/size(Bar)I",
		"\tistore 4",
		"\taload_3",
		"\tinvokevirtual Bar/stop()V",
		"\treturn",
	}, methodBody(generate(t, ast, nil), ".method public static main"))
}

func TestGeneratePopsDiscardedValues(t *testing.T) {
	ast := classWith(
		method("f", "int", nil, nil, ret(num(1))),
		method("g", "void", nil, nil),
		method("h", "void", nil, nil,
			exprStatement(call(&ThisConstant{}, "f")),
			exprStatement(call(&ThisConstant{}, "g")),
		),
	)
	assert.Equal(t, []string{
		"\t.limit stack 999",
		"\t.limit locals 1",
		"\taload_0",
		"\tinvokevirtual Foo/f()I",
		"\tpop",
		"\taload_0",
		"\tinvokevirtual Foo/g()V",
		"\treturn",
	}, methodBody(generate(t, ast, nil), ".method public h()V"))
}

func TestGenerateReturns(t *testing.T) {
	ast := classWith(
		method("obj", "Foo", nil, nil, ret(this())),
		method("arr", "int[]", nil, nil, ret(&ExpressionTerm{Operand: &NewIntArray{Size: num(1)}})),
		method("early", "void", nil, nil, ret(nil)),
	)
	code := generate(t, ast, nil)
	assert.Equal(t, "\tareturn", methodBody(code, ".method public obj()Foo")[3])
	assert.Equal(t, "\tareturn", methodBody(code, ".method public arr()[I")[4])
	// An explicit return isn't doubled.
	assert.Equal(t, []string{"\t.limit stack 999", "\t.limit locals 1", "\treturn"}, methodBody(code, ".method public early()V"))
}

func TestGenerateLimits(t *testing.T) {
	ast := classWith(method("f", "int", params("a", "int", "b", "Foo"), vars("c", "int", "d", "int", "e", "int"),
		let("e", num(1)),
		ret(ident("e")),
	))
	body := methodBody(generate(t, ast, &Config{StackLimit: 10}), ".method public f(IFoo)I")
	assert.Equal(t, "\t.limit stack 10", body[0])
	assert.Equal(t, "\t.limit locals 6", body[1])
	assert.Equal(t, "\tistore 5", body[3])
	assert.Equal(t, "\tiload 5", body[4])

	code := generate(t, ast, &Config{RootClass: "java/lang/Thread"})
	assert.Contains(t, code, ".super java/lang/Thread\n")
	assert.Contains(t, code, "\t.limit stack 999\n")
}
