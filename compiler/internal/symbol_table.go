package internal

import (
	"io"

	"gopkg.in/yaml.v3"
)

// MainScopeKey is the reserved key of the program entry point scope.
const MainScopeKey = "main(1)"

// SymbolTableStore is every scope table of a compilation unit plus the class and base class
// names. It is built once by BuildSymbolTables and handed to the analyzer and the generator.
type SymbolTableStore struct {
	ClassName string
	Extends   string

	tables map[string]*ScopeTable
	order  []string
}

func newSymbolTableStore(className string) *SymbolTableStore {
	store := &SymbolTableStore{ClassName: className, tables: map[string]*ScopeTable{}}
	store.put(newClassScopeTable(className))
	return store
}

func (store *SymbolTableStore) put(table *ScopeTable) {
	store.tables[table.Key] = table
	store.order = append(store.order, table.Key)
}

func (store *SymbolTableStore) lookUpClass() *ScopeTable {
	return store.tables[store.ClassName]
}

func (store *SymbolTableStore) LookUpFunc(key string) *ScopeTable {
	return store.tables[key]
}

// LookUpVarInFunc resolves a name in the order: locals, args, class fields. It returns nil if
// none matches.
func (store *SymbolTableStore) LookUpVarInFunc(funcKey string, varName string) *SymbolDesc {
	fn := store.LookUpFunc(funcKey)
	if fn != nil {
		if ret := fn.LookUpVariable(varName); ret != nil {
			return ret
		}
		if ret := fn.LookUpParam(varName); ret != nil {
			return ret
		}
	}
	return store.lookUpClassVar(varName)
}

func (store *SymbolTableStore) lookUpClassVar(varName string) *SymbolDesc {
	return store.lookUpClass().LookUpVariable(varName)
}

// MarkInitialized flags the symbol varName resolves to in funcKey as initialized. It
// returns false if no symbol matches. Class fields are shared by every function, so the
// flag is visible across functions.
func (store *SymbolTableStore) MarkInitialized(funcKey string, varName string) bool {
	symbol := store.LookUpVarInFunc(funcKey, varName)
	if symbol == nil {
		return false
	}
	symbol.Initialized = true
	return true
}

// BuildSymbolTables walks the class once and builds the class scope table and one table per
// function. Any duplicate declaration aborts the build.
func BuildSymbolTables(ast *ClassAst) (*SymbolTableStore, error) {
	if ast == nil || ast.ClassName == "" {
		return nil, makeStructuralError("program doesn't have a class")
	}
	store := newSymbolTableStore(ast.ClassName)
	store.Extends = ast.Extends
	err := store.buildClassVariables(ast)
	if err != nil {
		return nil, err
	}
	err = store.buildClassMethods(ast)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (store *SymbolTableStore) buildClassVariables(ast *ClassAst) error {
	classTable := store.lookUpClass()
	for _, variable := range ast.Fields {
		_, ok := classTable.putVariable(variable.VarName, variable.VarType)
		if !ok {
			return makeDeclarationError("duplicate variable name: %s on class %s", variable.VarName, ast.ClassName)
		}
	}
	return nil
}

func (store *SymbolTableStore) buildClassMethods(ast *ClassAst) error {
	for _, method := range ast.Funcs {
		err := store.buildMethod(method)
		if err != nil {
			return err
		}
	}
	return nil
}

func (store *SymbolTableStore) buildMethod(methodAst *FuncAst) error {
	key := methodAst.Key()
	if _, ok := store.tables[key]; ok {
		if methodAst.IsMain {
			return makeDeclarationError("duplicate entry point at class %s", store.ClassName)
		}
		return makeDeclarationError("duplicate function %s at class %s", key, store.ClassName)
	}
	returnTP := methodAst.ReturnTP
	if methodAst.IsMain {
		returnTP = VoidType
	}
	funcTable := newFuncScopeTable(key, returnTP)
	for _, param := range methodAst.Params {
		tp := param.ParamTP
		if methodAst.IsMain {
			tp = StringArrayType
		}
		_, ok := funcTable.putParam(param.ParamName, tp)
		if !ok {
			return makeDeclarationError("duplicate argument %s at func %s", param.ParamName, key)
		}
	}
	for _, local := range methodAst.Locals {
		_, ok := funcTable.putVariable(local.VarName, local.VarType)
		if !ok {
			return makeDeclarationError("duplicate local variable %s at func %s", local.VarName, key)
		}
	}
	store.put(funcTable)
	return nil
}

type symbolView struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Slot        int    `yaml:"slot,omitempty"`
	Initialized bool   `yaml:"initialized"`
}

type scopeView struct {
	Key    string       `yaml:"key"`
	Return string       `yaml:"return,omitempty"`
	Args   []symbolView `yaml:"args,omitempty"`
	Vars   []symbolView `yaml:"vars,omitempty"`
}

type storeView struct {
	Class   string      `yaml:"class"`
	Extends string      `yaml:"extends,omitempty"`
	Scopes  []scopeView `yaml:"scopes"`
}

func toSymbolViews(symbols []*SymbolDesc) []symbolView {
	var ret []symbolView
	for _, symbol := range symbols {
		view := symbolView{Name: symbol.Name, Type: symbol.VariableType.String(), Initialized: symbol.Initialized}
		if symbol.Index != NoSlot {
			view.Slot = symbol.Index
		}
		ret = append(ret, view)
	}
	return ret
}

func (store *SymbolTableStore) view() storeView {
	ret := storeView{Class: store.ClassName, Extends: store.Extends}
	for _, key := range store.order {
		table := store.tables[key]
		scope := scopeView{Key: key, Args: toSymbolViews(table.Params()), Vars: toSymbolViews(table.Variables())}
		if table.IsFunc {
			scope.Return = table.ReturnTP.String()
		}
		ret.Scopes = append(ret.Scopes, scope)
	}
	return ret
}

// Dump writes every scope table as YAML, in the order the tables were built.
func (store *SymbolTableStore) Dump(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	err := encoder.Encode(store.view())
	if err != nil {
		return err
	}
	return encoder.Close()
}
