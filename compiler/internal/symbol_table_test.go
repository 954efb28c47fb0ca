package internal

import (
	"bytes"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBuildSymbolTables(t *testing.T) {
	store, err := BuildSymbolTables(fooClass())
	require.Nil(t, err)
	assert.Equal(t, "Foo", store.ClassName)
	x := store.lookUpClassVar("x")
	require.NotNil(t, x)
	assert.Equal(t, ClassVariableSymbolType, x.SymbolType)
	assert.Equal(t, NoSlot, x.Index)
	assert.True(t, x.Initialized)

	bar := store.LookUpFunc("bar(1)")
	require.NotNil(t, bar)
	assert.True(t, bar.IsFunc)
	assert.Equal(t, IntType, bar.ReturnTP)
	a := bar.LookUpParam("a")
	require.NotNil(t, a)
	assert.Equal(t, 1, a.Index)
	assert.True(t, a.Initialized)

	main := store.LookUpFunc(MainScopeKey)
	require.NotNil(t, main)
	assert.Equal(t, VoidType, main.ReturnTP)
	assert.Nil(t, store.LookUpFunc("bar(2)"))
}

func TestFunctionsAreKeyedByArity(t *testing.T) {
	ast := &ClassAst{
		ClassName: "Foo",
		Funcs: []*FuncAst{
			method("bar", "int", params("a", "int"), nil, ret(num(1))),
			method("bar", "int", params("a", "int", "b", "int"), nil, ret(num(2))),
		},
	}
	store, err := BuildSymbolTables(ast)
	require.Nil(t, err)
	assert.NotNil(t, store.LookUpFunc("bar(1)"))
	assert.NotNil(t, store.LookUpFunc("bar(2)"))

	// Same arity with different types is still a duplicate.
	ast.Funcs = append(ast.Funcs, method("bar", "boolean", params("c", "boolean"), nil, ret(boolean(true))))
	_, err = BuildSymbolTables(ast)
	requireErrorKind(t, err, DeclarationErrorKind)
}

func TestDuplicateDeclarations(t *testing.T) {
	testData := []struct {
		name string
		ast  *ClassAst
	}{
		{"field", &ClassAst{ClassName: "Foo", Fields: vars("x", "int", "x", "boolean")}},
		{"argument", &ClassAst{ClassName: "Foo", Funcs: []*FuncAst{
			method("f", "void", params("a", "int", "a", "int"), nil),
		}}},
		{"local", &ClassAst{ClassName: "Foo", Funcs: []*FuncAst{
			method("f", "void", nil, vars("a", "int", "a", "int[]")),
		}}},
		{"local shadowing argument", &ClassAst{ClassName: "Foo", Funcs: []*FuncAst{
			method("f", "void", params("a", "int"), vars("a", "int")),
		}}},
		{"entry point", &ClassAst{ClassName: "Foo", Funcs: []*FuncAst{mainFunc(nil), mainFunc(nil)}}},
	}
	for _, data := range testData {
		_, err := BuildSymbolTables(data.ast)
		assert.NotNil(t, err, data.name)
		requireErrorKind(t, err, DeclarationErrorKind)
	}
}

func TestLocalsShadowFields(t *testing.T) {
	ast := &ClassAst{
		ClassName: "Foo",
		Fields:    vars("x", "int", "y", "int"),
		Funcs:     []*FuncAst{method("f", "void", nil, vars("x", "boolean"))},
	}
	store, err := BuildSymbolTables(ast)
	require.Nil(t, err)
	x := store.LookUpVarInFunc("f(0)", "x")
	require.NotNil(t, x)
	assert.Equal(t, FuncVariableType, x.SymbolType)
	assert.Equal(t, BooleanType, x.VariableType)
	y := store.LookUpVarInFunc("f(0)", "y")
	require.NotNil(t, y)
	assert.Equal(t, ClassVariableSymbolType, y.SymbolType)
	assert.Nil(t, store.LookUpVarInFunc("f(0)", "z"))
}

func TestSlotMonotonicity(t *testing.T) {
	ast := &ClassAst{
		ClassName: "Foo",
		Funcs: []*FuncAst{
			method("f", "int", params("a", "int", "b", "boolean", "c", "int[]"), vars("d", "int", "e", "Foo"), ret(num(0))),
			mainFunc(vars("i", "int", "j", "boolean")),
		},
	}
	store, err := BuildSymbolTables(ast)
	require.Nil(t, err)
	f := store.LookUpFunc("f(3)")
	var slots []int
	for _, param := range f.Params() {
		slots = append(slots, param.Index)
	}
	for _, local := range f.Variables() {
		slots = append(slots, local.Index)
		assert.False(t, local.Initialized)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, slots)
	assert.Equal(t, 5, f.MaxSlot())

	main := store.LookUpFunc(MainScopeKey)
	args := main.LookUpParam("args")
	require.NotNil(t, args)
	assert.Equal(t, 1, args.Index)
	assert.Equal(t, StringArrayType, args.VariableType)
	assert.Equal(t, 2, main.LookUpVariable("i").Index)
	assert.Equal(t, 3, main.LookUpVariable("j").Index)
}

func TestMarkInitialized(t *testing.T) {
	ast := &ClassAst{ClassName: "Foo", Funcs: []*FuncAst{method("f", "void", nil, vars("a", "int"))}}
	store, err := BuildSymbolTables(ast)
	require.Nil(t, err)
	assert.False(t, store.LookUpVarInFunc("f(0)", "a").Initialized)
	assert.True(t, store.MarkInitialized("f(0)", "a"))
	assert.True(t, store.LookUpVarInFunc("f(0)", "a").Initialized)
	assert.False(t, store.MarkInitialized("f(0)", "b"))
}

func TestDump(t *testing.T) {
	ast := fooClass()
	ast.Extends = "Bar"
	ast.Funcs[0].Locals = vars("o", "Bar")
	store, err := BuildSymbolTables(ast)
	require.Nil(t, err)
	var bf bytes.Buffer
	require.Nil(t, store.Dump(&bf))

	var got storeView
	require.Nil(t, yaml.Unmarshal(bf.Bytes(), &got))
	want := storeView{
		Class:   "Foo",
		Extends: "Bar",
		Scopes: []scopeView{
			{Key: "Foo", Vars: []symbolView{{Name: "x", Type: "int", Initialized: true}}},
			{
				Key:    "bar(1)",
				Return: "int",
				Args:   []symbolView{{Name: "a", Type: "int", Slot: 1, Initialized: true}},
				Vars:   []symbolView{{Name: "o", Type: "Bar", Slot: 2}},
			},
			{Key: "main(1)", Return: "void", Args: []symbolView{{Name: "args", Type: "String[]", Slot: 1, Initialized: true}}},
		},
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
	assert.Contains(t, bf.String(), "key: bar(1)")
}
