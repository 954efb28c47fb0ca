package internal

// Analyzer type checks every function body against the tables built by BuildSymbolTables.
//
// For statements and expressions we check:
// * arithmetic operands are int, && and ! operands are boolean, < compares ints.
// * if and while conditions are boolean.
// * assignments, call arguments and returns match the declared types.
// * locals are initialized before being read.
type Analyzer struct {
	store *SymbolTableStore
	ast   *ClassAst
	// querying disables initialization checks and initialization updates. The generator asks
	// for expression types after the analysis, when the tables must not change anymore.
	querying bool
}

func NewAnalyzer(store *SymbolTableStore, ast *ClassAst) *Analyzer {
	return &Analyzer{store: store, ast: ast}
}

// Analyse checks every function of the class, stopping at the first error.
func (analyzer *Analyzer) Analyse() error {
	for _, fn := range analyzer.ast.Funcs {
		err := analyzer.analyseFunction(fn)
		if err != nil {
			return err
		}
	}
	return nil
}

// TypeOf returns the type of expr inside function funcKey without checking nor updating
// initialization. An expression which doesn't type check is reported as unknown.
func (analyzer *Analyzer) TypeOf(funcKey string, expr ExpressionAst) VariableType {
	analyzer.querying = true
	defer func() { analyzer.querying = false }()
	tp, err := analyzer.EvaluatesTo(funcKey, expr)
	if err != nil {
		return UnknownType
	}
	return tp
}

func (analyzer *Analyzer) analyseFunction(fn *FuncAst) error {
	funcKey := fn.Key()
	table := analyzer.store.LookUpFunc(funcKey)
	if table == nil {
		return makeReferenceError(funcKey, "couldn't find the symbol table of the function")
	}
	for i, statement := range fn.FuncBody {
		ret, ok := statement.(*ReturnStatementAst)
		if !ok {
			err := analyzer.analyseStatement(funcKey, statement)
			if err != nil {
				return err
			}
			continue
		}
		err := analyzer.analyseReturn(funcKey, table.ReturnTP, ret)
		if err != nil {
			return err
		}
		if i != len(fn.FuncBody)-1 {
			return makeTypeError(funcKey, "unreachable statement after return")
		}
		return nil
	}
	if table.ReturnTP.TP != VoidVariableType {
		return makeTypeError(funcKey, "missing return of type %s", table.ReturnTP)
	}
	return nil
}

func (analyzer *Analyzer) analyseReturn(funcKey string, returnTP VariableType, ret *ReturnStatementAst) error {
	if ret.Value == nil {
		if returnTP.TP != VoidVariableType {
			return makeTypeError(funcKey, "missing return value of type %s", returnTP)
		}
		return nil
	}
	if returnTP.TP == VoidVariableType {
		return makeTypeError(funcKey, "void function cannot return a value")
	}
	tp, err := analyzer.EvaluatesTo(funcKey, ret.Value)
	if err != nil {
		return err
	}
	if !tp.Compatible(returnTP) {
		return makeTypeError(funcKey, "return value of type %s does not meet function prototype %s", tp, returnTP)
	}
	return nil
}

func (analyzer *Analyzer) analyseStatements(funcKey string, statements []StatementAst) error {
	for _, statement := range statements {
		err := analyzer.analyseStatement(funcKey, statement)
		if err != nil {
			return err
		}
	}
	return nil
}

func (analyzer *Analyzer) analyseStatement(funcKey string, statement StatementAst) error {
	switch stm := statement.(type) {
	case *IfStatementAst:
		err := analyzer.analyseCondition(funcKey, "if", stm.Condition)
		if err != nil {
			return err
		}
		err = analyzer.analyseStatements(funcKey, stm.IfTrueStatements)
		if err != nil {
			return err
		}
		return analyzer.analyseStatements(funcKey, stm.ElseStatements)
	case *WhileStatementAst:
		err := analyzer.analyseCondition(funcKey, "while", stm.Condition)
		if err != nil {
			return err
		}
		return analyzer.analyseStatements(funcKey, stm.Statements)
	case *LetStatementAst:
		return analyzer.analyseLet(funcKey, stm)
	case *ExpressionStatementAst:
		term, ok := stm.Expr.(*ExpressionTerm)
		if !ok {
			return makeTypeError(funcKey, "standalone arithmetic or boolean expression used as statement")
		}
		_, err := analyzer.termEvaluatesTo(funcKey, term)
		return err
	case *ReturnStatementAst:
		return makeStructuralError("return in %s is only allowed as the last statement of the function", funcKey)
	}
	return makeStructuralError("unexpected statement %T in %s", statement, funcKey)
}

func (analyzer *Analyzer) analyseCondition(funcKey string, name string, condition ExpressionAst) error {
	tp, err := analyzer.EvaluatesTo(funcKey, condition)
	if err != nil {
		return err
	}
	if !tp.Compatible(BooleanType) {
		return makeTypeError(funcKey, "%s condition doesn't evaluate to a boolean but %s", name, tp)
	}
	return nil
}

// The value is checked before the target, so x = x + 1 still needs x to be initialized.
func (analyzer *Analyzer) analyseLet(funcKey string, let *LetStatementAst) error {
	valueTP, err := analyzer.EvaluatesTo(funcKey, let.Value)
	if err != nil {
		return err
	}
	targetTP, err := analyzer.identifierEvaluatesTo(funcKey, let.VarName, false, false)
	if err != nil {
		return err
	}
	if let.ArrayIndex != nil {
		if targetTP.TP != IntArrayVariableType {
			return makeTypeError(funcKey, "variable %s of type %s cannot be indexed", let.VarName, targetTP)
		}
		err = analyzer.analyseArrayIndex(funcKey, let.ArrayIndex)
		if err != nil {
			return err
		}
		targetTP = IntType
	}
	if targetTP.Compatible(valueTP) {
		return nil
	}
	// Single level compatibility between the current class and its base class, both ways.
	if analyzer.store.Extends != "" {
		if targetTP.IsClass(analyzer.store.ClassName) && valueTP.IsClass(analyzer.store.Extends) {
			return nil
		}
		if targetTP.IsClass(analyzer.store.Extends) && valueTP.IsClass(analyzer.store.ClassName) {
			return nil
		}
	}
	return makeTypeError(funcKey, "assignment types don't match for %s: %s vs %s", let.VarName, targetTP, valueTP)
}

func (analyzer *Analyzer) analyseArrayIndex(funcKey string, index ExpressionAst) error {
	tp, err := analyzer.EvaluatesTo(funcKey, index)
	if err != nil {
		return err
	}
	if !tp.Compatible(IntType) {
		return makeTypeError(funcKey, "array index doesn't evaluate to int but %s", tp)
	}
	return nil
}

// EvaluatesTo computes the type of expr inside function funcKey.
func (analyzer *Analyzer) EvaluatesTo(funcKey string, expr ExpressionAst) (VariableType, error) {
	switch e := expr.(type) {
	case *BinaryExpressionAst:
		operandTP, resultTP := IntType, IntType
		switch {
		case e.Op == AndOpTP:
			operandTP, resultTP = BooleanType, BooleanType
		case e.Op == LessOpTP:
			resultTP = BooleanType
		}
		for _, operand := range []ExpressionAst{e.Left, e.Right} {
			tp, err := analyzer.EvaluatesTo(funcKey, operand)
			if err != nil {
				return VoidType, err
			}
			if !tp.Compatible(operandTP) {
				return VoidType, makeTypeError(funcKey, "operand of %s doesn't evaluate to %s but %s", e.Op, operandTP, tp)
			}
		}
		return resultTP, nil
	case *NotExpressionAst:
		tp, err := analyzer.EvaluatesTo(funcKey, e.Operand)
		if err != nil {
			return VoidType, err
		}
		if !tp.Compatible(BooleanType) {
			return VoidType, makeTypeError(funcKey, "operand of ! doesn't evaluate to boolean but %s", tp)
		}
		return BooleanType, nil
	case *ExpressionTerm:
		return analyzer.termEvaluatesTo(funcKey, e)
	}
	return VoidType, makeStructuralError("unexpected expression %T in %s", expr, funcKey)
}

func (analyzer *Analyzer) termEvaluatesTo(funcKey string, term *ExpressionTerm) (VariableType, error) {
	call, qualified := term.Suffix.(*CallAst)
	tp, err := analyzer.operandEvaluatesTo(funcKey, term.Operand, qualified)
	if err != nil {
		return VoidType, err
	}
	switch suffix := term.Suffix.(type) {
	case nil:
		return tp, nil
	case *ArrayIndexSuffix:
		if tp.TP != IntArrayVariableType {
			return VoidType, makeTypeError(funcKey, "value of type %s cannot be indexed", tp)
		}
		err = analyzer.analyseArrayIndex(funcKey, suffix.Index)
		if err != nil {
			return VoidType, err
		}
		return IntType, nil
	case *CallAst:
		return analyzer.analyseFunctionCall(funcKey, call, tp)
	}
	return VoidType, makeStructuralError("unexpected term suffix %T in %s", term.Suffix, funcKey)
}

// qualified tells the operand is the object of a member access.
func (analyzer *Analyzer) operandEvaluatesTo(funcKey string, operand OperandAst, qualified bool) (VariableType, error) {
	switch op := operand.(type) {
	case *IntegerConstant:
		return IntType, nil
	case *BooleanConstant:
		return BooleanType, nil
	case *ThisConstant:
		if funcKey == MainScopeKey {
			return VoidType, makeTypeError(funcKey, "this can't be used in the static entry point")
		}
		return ClassType(analyzer.store.ClassName), nil
	case *Identifier:
		return analyzer.identifierEvaluatesTo(funcKey, op.Name, true, qualified)
	case *EnclosedExpression:
		return analyzer.EvaluatesTo(funcKey, op.Expr)
	case *NewObject:
		return ClassType(op.ClassName), nil
	case *NewIntArray:
		tp, err := analyzer.EvaluatesTo(funcKey, op.Size)
		if err != nil {
			return VoidType, err
		}
		if !tp.Compatible(IntType) {
			return VoidType, makeTypeError(funcKey, "array size doesn't evaluate to int but %s", tp)
		}
		return IntArrayType, nil
	}
	return VoidType, makeStructuralError("unexpected operand %T in %s", operand, funcKey)
}

// identifierEvaluatesTo returns the declared type of varName. An unresolved name followed by a
// member access is deferred to the member and types as unknown. A read of an uninitialized
// symbol is an error when mustBeInit is set, unless the read is qualified; otherwise the
// symbol becomes initialized.
func (analyzer *Analyzer) identifierEvaluatesTo(funcKey string, varName string, mustBeInit bool, qualified bool) (VariableType, error) {
	symbol := analyzer.store.LookUpVarInFunc(funcKey, varName)
	if symbol == nil {
		if qualified {
			return UnknownType, nil
		}
		return VoidType, makeReferenceError(funcKey, "couldn't find variable %s", varName)
	}
	// The entry point is static, there is no receiver to hold fields.
	if funcKey == MainScopeKey && symbol.SymbolType == ClassVariableSymbolType {
		return VoidType, makeTypeError(funcKey, "field %s can't be used in the static entry point", varName)
	}
	if symbol.Initialized || analyzer.querying {
		return symbol.VariableType, nil
	}
	if mustBeInit && !qualified {
		return VoidType, makeTypeError(funcKey, "variable %s was not initialized", varName)
	}
	analyzer.store.MarkInitialized(funcKey, varName)
	return symbol.VariableType, nil
}

// analyseFunctionCall types call invoked on a receiver of type callerType. Functions are only
// looked up for receivers of the current class; anything else is assumed to be legal.
func (analyzer *Analyzer) analyseFunctionCall(funcKey string, call *CallAst, callerType VariableType) (VariableType, error) {
	switch callerType.TP {
	case IntVariableType, BooleanVariableType, VoidVariableType:
		return VoidType, makeTypeError(funcKey, "%s values don't have any members, found %s", callerType, call.FuncName)
	case IntArrayVariableType, StringArrayVariableType:
		if call.isLengthQuery() {
			return IntType, nil
		}
		return VoidType, makeTypeError(funcKey, "arrays only have a length member, found %s", call.FuncName)
	}
	if !callerType.IsClass(analyzer.store.ClassName) {
		return UnknownType, analyzer.analyseUncheckedParams(funcKey, call)
	}
	calledKey := FuncKey(call.FuncName, len(call.Params))
	fn := analyzer.store.LookUpFunc(calledKey)
	if fn == nil || !fn.IsFunc {
		if analyzer.store.Extends != "" {
			// Assume the base class provides it.
			return UnknownType, analyzer.analyseUncheckedParams(funcKey, call)
		}
		return VoidType, makeReferenceError(funcKey, "couldn't find class function %s", calledKey)
	}
	for i, paramTP := range fn.ParamTypes() {
		tp, err := analyzer.EvaluatesTo(funcKey, call.Params[i])
		if err != nil {
			return VoidType, err
		}
		if !tp.Compatible(paramTP) {
			return VoidType, makeTypeError(funcKey, "call to function %s doesn't match function prototype: argument %d is %s, want %s",
				calledKey, i+1, tp, paramTP)
		}
	}
	return fn.ReturnTP, nil
}

// analyseUncheckedParams checks the arguments of a call whose prototype isn't known, so any
// argument type is accepted.
func (analyzer *Analyzer) analyseUncheckedParams(funcKey string, call *CallAst) error {
	for _, param := range call.Params {
		_, err := analyzer.EvaluatesTo(funcKey, param)
		if err != nil {
			return err
		}
	}
	return nil
}
