package internal

import (
	"fmt"
)

type SymbolType int

const (
	ClassVariableSymbolType SymbolType = iota
	FuncParamType
	FuncVariableType
)

func (tp SymbolType) String() string {
	switch tp {
	case ClassVariableSymbolType:
		return "field"
	case FuncParamType:
		return "arg"
	case FuncVariableType:
		return "local"
	}
	return ""
}

// NoSlot is the index of symbols which are not addressed by local variable instructions.
const NoSlot = -1

type SymbolDesc struct {
	Name         string
	SymbolType   SymbolType
	VariableType VariableType
	// Index is the local variable slot, NoSlot for class fields.
	Index       int
	Initialized bool
}

// ScopeTable holds the names visible in a class (its fields) or in a function (its ordered
// args, its locals and its return type).
type ScopeTable struct {
	Key      string
	IsFunc   bool
	ReturnTP VariableType

	variables     map[string]*SymbolDesc
	variableOrder []*SymbolDesc
	params        []*SymbolDesc
	paramMap      map[string]*SymbolDesc
	nextIndex     int
}

func newClassScopeTable(className string) *ScopeTable {
	return &ScopeTable{
		Key:       className,
		variables: map[string]*SymbolDesc{},
		paramMap:  map[string]*SymbolDesc{},
	}
}

// newFuncScopeTable creates a function scope. Slot 0 belongs to the receiver of methods and
// is left unused by the entry point, so both start numbering at 1.
func newFuncScopeTable(key string, returnTP VariableType) *ScopeTable {
	return &ScopeTable{
		Key:       key,
		IsFunc:    true,
		ReturnTP:  returnTP,
		variables: map[string]*SymbolDesc{},
		paramMap:  map[string]*SymbolDesc{},
		nextIndex: 1,
	}
}

func (table *ScopeTable) putVariable(name string, tp VariableType) (*SymbolDesc, bool) {
	if _, ok := table.variables[name]; ok {
		return nil, false
	}
	if _, ok := table.paramMap[name]; ok {
		return nil, false
	}
	symbol := &SymbolDesc{Name: name, VariableType: tp, Index: NoSlot}
	if table.IsFunc {
		symbol.SymbolType, symbol.Index = FuncVariableType, table.nextIndex
		table.nextIndex++
	} else {
		// Fields are always considered initialized.
		symbol.SymbolType, symbol.Initialized = ClassVariableSymbolType, true
	}
	table.variables[name] = symbol
	table.variableOrder = append(table.variableOrder, symbol)
	return symbol, true
}

func (table *ScopeTable) putParam(name string, tp VariableType) (*SymbolDesc, bool) {
	if _, ok := table.paramMap[name]; ok {
		return nil, false
	}
	symbol := &SymbolDesc{
		Name:         name,
		SymbolType:   FuncParamType,
		VariableType: tp,
		Index:        table.nextIndex,
		Initialized:  true,
	}
	table.nextIndex++
	table.paramMap[name] = symbol
	table.params = append(table.params, symbol)
	return symbol, true
}

func (table *ScopeTable) LookUpVariable(name string) *SymbolDesc {
	return table.variables[name]
}

func (table *ScopeTable) LookUpParam(name string) *SymbolDesc {
	return table.paramMap[name]
}

// Params returns the args in declaration order.
func (table *ScopeTable) Params() []*SymbolDesc {
	return table.params
}

// Variables returns the fields or locals in declaration order.
func (table *ScopeTable) Variables() []*SymbolDesc {
	return table.variableOrder
}

// ParamTypes is the call signature of a function scope.
func (table *ScopeTable) ParamTypes() []VariableType {
	ret := make([]VariableType, 0, len(table.params))
	for _, param := range table.params {
		ret = append(ret, param.VariableType)
	}
	return ret
}

// MaxSlot is the highest slot used by an arg or local, 0 when only the receiver slot exists.
func (table *ScopeTable) MaxSlot() int {
	return table.nextIndex - 1
}

func FuncKey(funcName string, argCount int) string {
	return fmt.Sprintf("%s(%d)", funcName, argCount)
}
