package internal

import (
	"fmt"
	"strings"
)

const (
	// DefaultStackLimit is the .limit stack of every method. It is a conservative bound and
	// isn't computed from the expressions of the method.
	DefaultStackLimit = 999
	DefaultRootClass  = "java/lang/Object"
)

// CodeGenerator emits the jasmin code of an analysed class. It doesn't validate anything, a
// successful Analyse is assumed.
type CodeGenerator struct {
	store      *SymbolTableStore
	analyzer   *Analyzer
	ast        *ClassAst
	stackLimit int
	rootClass  string

	output strings.Builder
	// Labels are the current function key followed by a counter reset for each function.
	funcKey     string
	labelPrefix string
	label       int
}

func NewCodeGenerator(store *SymbolTableStore, analyzer *Analyzer, ast *ClassAst, config *Config) *CodeGenerator {
	generator := &CodeGenerator{
		store:      store,
		analyzer:   analyzer,
		ast:        ast,
		stackLimit: DefaultStackLimit,
		rootClass:  DefaultRootClass,
	}
	if config != nil {
		if config.StackLimit > 0 {
			generator.stackLimit = config.StackLimit
		}
		if config.RootClass != "" {
			generator.rootClass = config.RootClass
		}
	}
	return generator
}

// Generate returns the jasmin code of the whole class.
func (generator *CodeGenerator) Generate() string {
	generator.output.Reset()
	superClass := generator.superClass()
	generator.writeOutput(".class public " + generator.store.ClassName)
	generator.writeOutput(".super " + superClass)
	generator.writeOutput("")
	fields := generator.store.lookUpClass().Variables()
	for _, field := range fields {
		generator.writeOutput(fmt.Sprintf(".field '%s' %s", field.Name, field.VariableType.Descriptor()))
	}
	if len(fields) > 0 {
		generator.writeOutput("")
	}
	// Default constructor.
	generator.writeOutput(".method public <init>()V")
	generator.writeInstruction("aload_0")
	generator.writeInstruction("invokespecial %s/<init>()V", superClass)
	generator.writeInstruction("return")
	generator.writeOutput(".end method")
	for _, fn := range generator.ast.Funcs {
		generator.writeOutput("")
		generator.generateMethodCode(fn)
	}
	return generator.output.String()
}

func (generator *CodeGenerator) superClass() string {
	if generator.store.Extends != "" {
		return generator.store.Extends
	}
	return generator.rootClass
}

// .method public name(args)ret
// .limit stack N
// .limit locals M
// statements
// return instruction
// .end method
func (generator *CodeGenerator) generateMethodCode(fn *FuncAst) {
	generator.funcKey, generator.label = fn.Key(), 0
	generator.labelPrefix = strings.NewReplacer("(", "_", ")", "").Replace(generator.funcKey)
	table := generator.store.LookUpFunc(generator.funcKey)
	if fn.IsMain {
		generator.writeOutput(".method public static main([Ljava/lang/String;)V")
	} else {
		generator.writeOutput(fmt.Sprintf(".method public %s%s", fn.FuncName, methodDescriptor(table.ParamTypes(), table.ReturnTP)))
	}
	generator.writeInstruction(".limit stack %d", generator.stackLimit)
	generator.writeInstruction(".limit locals %d", localsLimit(table))
	for _, statement := range fn.FuncBody {
		generator.generateStatementCode(statement)
	}
	if len(fn.FuncBody) == 0 {
		generator.writeInstruction("return")
	} else if _, ok := fn.FuncBody[len(fn.FuncBody)-1].(*ReturnStatementAst); !ok {
		generator.writeInstruction("return")
	}
	generator.writeOutput(".end method")
}

// localsLimit is the number of args and locals, one more for non void functions, and never
// less than what the highest slot needs.
func localsLimit(table *ScopeTable) int {
	ret := len(table.Variables()) + len(table.Params())
	if table.ReturnTP.TP != VoidVariableType {
		ret++
	}
	if ret < table.MaxSlot()+1 {
		ret = table.MaxSlot() + 1
	}
	return ret
}

func methodDescriptor(params []VariableType, returnTP VariableType) string {
	var builder strings.Builder
	builder.WriteString("(")
	for _, param := range params {
		builder.WriteString(param.Descriptor())
	}
	builder.WriteString(")")
	builder.WriteString(returnTP.Descriptor())
	return builder.String()
}

func (generator *CodeGenerator) generateStatementsCode(statements []StatementAst) {
	for _, statement := range statements {
		generator.generateStatementCode(statement)
	}
}

func (generator *CodeGenerator) generateStatementCode(statement StatementAst) {
	switch stm := statement.(type) {
	case *IfStatementAst:
		generator.generateIfStatementCode(stm)
	case *WhileStatementAst:
		generator.generateWhileStatementCode(stm)
	case *LetStatementAst:
		generator.generateLetStatementCode(stm)
	case *ExpressionStatementAst:
		// The value of a call used as a statement is discarded.
		tp := generator.generateExpressionCode(stm.Expr, VoidType)
		if tp.TP != VoidVariableType {
			generator.writeInstruction("pop")
		}
	case *ReturnStatementAst:
		generator.generateReturnStatementCode(stm)
	default:
		panic(fmt.Sprintf("unknown statement %T", statement))
	}
}

// condition jumping to else_label when false
// if statements
// goto end_label
// else_label:
// else statements
// end_label:
func (generator *CodeGenerator) generateIfStatementCode(ifStatement *IfStatementAst) {
	elseLabel, endLabel := generator.newLabel(), generator.newLabel()
	generator.generateJumpCode(ifStatement.Condition, elseLabel, false)
	generator.generateStatementsCode(ifStatement.IfTrueStatements)
	generator.writeInstruction("goto %s", endLabel)
	generator.writeLabel(elseLabel)
	generator.generateStatementsCode(ifStatement.ElseStatements)
	generator.writeLabel(endLabel)
}

// condition_label:
// condition jumping to end_label when false
// statements
// goto condition_label
// end_label:
func (generator *CodeGenerator) generateWhileStatementCode(whileStatement *WhileStatementAst) {
	conditionLabel, endLabel := generator.newLabel(), generator.newLabel()
	generator.writeLabel(conditionLabel)
	generator.generateJumpCode(whileStatement.Condition, endLabel, false)
	generator.generateStatementsCode(whileStatement.Statements)
	generator.writeInstruction("goto %s", conditionLabel)
	generator.writeLabel(endLabel)
}

// For a plain variable the value is generated before the store. For an array element, iastore
// wants arrayref, index, value on the stack, so the value comes last. A field needs the
// receiver below the value for putfield.
func (generator *CodeGenerator) generateLetStatementCode(let *LetStatementAst) {
	symbol := generator.store.LookUpVarInFunc(generator.funcKey, let.VarName)
	if let.ArrayIndex != nil {
		generator.generateLoadCode(symbol)
		generator.generateExpressionCode(let.ArrayIndex, IntType)
		generator.generateExpressionCode(let.Value, IntType)
		generator.writeInstruction("iastore")
		return
	}
	if symbol.SymbolType == ClassVariableSymbolType {
		generator.writeInstruction("aload_0")
	}
	generator.generateExpressionCode(let.Value, symbol.VariableType)
	generator.generateStoreCode(symbol)
}

func (generator *CodeGenerator) generateReturnStatementCode(ret *ReturnStatementAst) {
	returnTP := generator.store.LookUpFunc(generator.funcKey).ReturnTP
	if ret.Value != nil {
		generator.generateExpressionCode(ret.Value, returnTP)
	}
	switch returnTP.TP {
	case VoidVariableType:
		generator.writeInstruction("return")
	case IntVariableType, BooleanVariableType:
		generator.writeInstruction("ireturn")
	default:
		generator.writeInstruction("areturn")
	}
}

// generateExpressionCode pushes the value of expr and returns its type. want is the type the
// context expects, used as the return type of calls whose prototype isn't known.
func (generator *CodeGenerator) generateExpressionCode(expr ExpressionAst, want VariableType) VariableType {
	switch e := expr.(type) {
	case *BinaryExpressionAst:
		if e.Op.isArithmetic() {
			generator.generateExpressionCode(e.Left, IntType)
			generator.generateExpressionCode(e.Right, IntType)
			generator.generateOpCode(e.Op)
			return IntType
		}
		generator.generateBooleanValueCode(expr)
		return BooleanType
	case *NotExpressionAst:
		generator.generateBooleanValueCode(expr)
		return BooleanType
	case *ExpressionTerm:
		return generator.generateExpressionTermCode(e, want)
	}
	panic(fmt.Sprintf("unknown expression %T", expr))
}

func (generator *CodeGenerator) generateOpCode(op OpCode) {
	switch op {
	case AddOpTP:
		generator.writeInstruction("iadd")
	case MinusOpTP:
		generator.writeInstruction("isub")
	case MultipleOpTP:
		generator.writeInstruction("imul")
	case DivideOpTP:
		generator.writeInstruction("idiv")
	}
}

// generateBooleanValueCode materializes a boolean built from &&, < or !:
// condition jumping to false_label when false
// iconst_1
// goto end_label
// false_label:
// iconst_0
// end_label:
func (generator *CodeGenerator) generateBooleanValueCode(expr ExpressionAst) {
	falseLabel := generator.newLabel()
	generator.generateJumpCode(expr, falseLabel, false)
	endLabel := generator.newLabel()
	generator.writeInstruction("iconst_1")
	generator.writeInstruction("goto %s", endLabel)
	generator.writeLabel(falseLabel)
	generator.writeInstruction("iconst_0")
	generator.writeLabel(endLabel)
}

// generateJumpCode emits a boolean expression as jumping code: control goes to label when
// expr is false, or when it's true if not is set, and falls through otherwise. No boolean
// value is left on the stack.
func (generator *CodeGenerator) generateJumpCode(expr ExpressionAst, label string, not bool) {
	switch e := expr.(type) {
	case *BinaryExpressionAst:
		switch e.Op {
		case AndOpTP:
			if !not {
				generator.generateJumpCode(e.Left, label, false)
				generator.generateJumpCode(e.Right, label, false)
				return
			}
			// Jump when both are true.
			skipLabel := generator.newLabel()
			generator.generateJumpCode(e.Left, skipLabel, false)
			generator.generateJumpCode(e.Right, label, true)
			generator.writeLabel(skipLabel)
			return
		case LessOpTP:
			generator.generateExpressionCode(e.Left, IntType)
			generator.generateExpressionCode(e.Right, IntType)
			if not {
				generator.writeInstruction("if_icmplt %s", label)
			} else {
				generator.writeInstruction("if_icmpge %s", label)
			}
			return
		}
	case *NotExpressionAst:
		generator.generateJumpCode(e.Operand, label, !not)
		return
	case *ExpressionTerm:
		if enclosed, ok := e.Operand.(*EnclosedExpression); ok && e.Suffix == nil {
			generator.generateJumpCode(enclosed.Expr, label, not)
			return
		}
	}
	generator.generateExpressionCode(expr, BooleanType)
	if not {
		generator.writeInstruction("ifne %s", label)
	} else {
		generator.writeInstruction("ifeq %s", label)
	}
}

func (generator *CodeGenerator) generateExpressionTermCode(term *ExpressionTerm, want VariableType) VariableType {
	operandWant := want
	if term.Suffix != nil {
		operandWant = UnknownType
	}
	tp := generator.generateOperandCode(term.Operand, operandWant)
	switch suffix := term.Suffix.(type) {
	case nil:
		return tp
	case *ArrayIndexSuffix:
		generator.generateExpressionCode(suffix.Index, IntType)
		generator.writeInstruction("iaload")
		return IntType
	case *CallAst:
		if (tp.TP == IntArrayVariableType || tp.TP == StringArrayVariableType) && suffix.isLengthQuery() {
			generator.writeInstruction("arraylength")
			return IntType
		}
		staticProvider := ""
		if identifier, ok := term.Operand.(*Identifier); ok && tp.IsUnknown() {
			staticProvider = identifier.Name
		}
		return generator.generateFuncCallCode(suffix, tp, staticProvider, want)
	}
	panic(fmt.Sprintf("unknown term suffix %T", term.Suffix))
}

// generateOperandCode pushes the operand and returns its type. An identifier which isn't a
// symbol pushes nothing and is unknown: it names the class of a static call.
func (generator *CodeGenerator) generateOperandCode(operand OperandAst, want VariableType) VariableType {
	switch op := operand.(type) {
	case *IntegerConstant:
		generator.generateIntegerConstantCode(op.Value)
		return IntType
	case *BooleanConstant:
		if op.Value {
			generator.writeInstruction("iconst_1")
		} else {
			generator.writeInstruction("iconst_0")
		}
		return BooleanType
	case *ThisConstant:
		generator.writeInstruction("aload_0")
		return ClassType(generator.store.ClassName)
	case *Identifier:
		symbol := generator.store.LookUpVarInFunc(generator.funcKey, op.Name)
		if symbol == nil {
			return UnknownType
		}
		generator.generateLoadCode(symbol)
		return symbol.VariableType
	case *EnclosedExpression:
		if want.IsUnknown() {
			want = generator.analyzer.TypeOf(generator.funcKey, op.Expr)
		}
		return generator.generateExpressionCode(op.Expr, want)
	case *NewObject:
		generator.writeInstruction("new %s", op.ClassName)
		generator.writeInstruction("dup")
		generator.writeInstruction("invokespecial %s/<init>()V", op.ClassName)
		return ClassType(op.ClassName)
	case *NewIntArray:
		generator.generateExpressionCode(op.Size, IntType)
		generator.writeInstruction("newarray int")
		return IntArrayType
	}
	panic(fmt.Sprintf("unknown operand %T", operand))
}

// generateIntegerConstantCode uses the most compact push instruction for value.
func (generator *CodeGenerator) generateIntegerConstantCode(value int) {
	switch {
	case value >= 0 && value <= 5:
		generator.writeInstruction("iconst_%d", value)
	case value == -1:
		generator.writeInstruction("iconst_m1")
	case value >= -128 && value < 128:
		generator.writeInstruction("bipush %d", value)
	case value >= -32768 && value < 32768:
		generator.writeInstruction("sipush %d", value)
	default:
		generator.writeInstruction("ldc %d", value)
	}
}

// generateFuncCallCode emits a call on a receiver of type callerType which is already on the
// stack, or on the class staticProvider when it's set. Functions of the current class use
// their declared prototype; other callees get a prototype built from the argument types and
// from want.
func (generator *CodeGenerator) generateFuncCallCode(call *CallAst, callerType VariableType, staticProvider string, want VariableType) VariableType {
	provider := callerType.Name
	var paramTypes []VariableType
	returnTP := want
	isOwnOrBase := callerType.IsClass(generator.store.ClassName) ||
		(generator.store.Extends != "" && callerType.IsClass(generator.store.Extends))
	fn := generator.store.LookUpFunc(FuncKey(call.FuncName, len(call.Params)))
	if isOwnOrBase && fn != nil && fn.IsFunc {
		paramTypes, returnTP = fn.ParamTypes(), fn.ReturnTP
	} else {
		if callerType.IsClass(generator.store.ClassName) && generator.store.Extends != "" {
			provider = generator.store.Extends
		}
		if provider == "" {
			provider = generator.rootClass
		}
		for _, param := range call.Params {
			paramTypes = append(paramTypes, generator.analyzer.TypeOf(generator.funcKey, param))
		}
	}
	for i, param := range call.Params {
		generator.generateExpressionCode(param, paramTypes[i])
	}
	descriptor := methodDescriptor(paramTypes, returnTP)
	if staticProvider != "" {
		generator.writeInstruction("invokestatic %s/%s%s", staticProvider, call.FuncName, descriptor)
	} else {
		generator.writeInstruction("invokevirtual %s/%s%s", provider, call.FuncName, descriptor)
	}
	if returnTP.IsUnknown() {
		return IntType
	}
	return returnTP
}

func (generator *CodeGenerator) generateLoadCode(symbol *SymbolDesc) {
	if symbol.SymbolType == ClassVariableSymbolType {
		generator.writeInstruction("aload_0")
		generator.writeInstruction("getfield %s/%s %s", generator.store.ClassName, symbol.Name, symbol.VariableType.Descriptor())
		return
	}
	generator.writeInstruction(slotInstruction(symbol, "load"))
}

// generateStoreCode stores the top of the stack. For a field the receiver must already be
// below the value.
func (generator *CodeGenerator) generateStoreCode(symbol *SymbolDesc) {
	if symbol.SymbolType == ClassVariableSymbolType {
		generator.writeInstruction("putfield %s/%s %s", generator.store.ClassName, symbol.Name, symbol.VariableType.Descriptor())
		return
	}
	generator.writeInstruction(slotInstruction(symbol, "store"))
}

// slotInstruction builds iload_1, astore 4 and so on.
func slotInstruction(symbol *SymbolDesc, op string) string {
	prefix := "a"
	if symbol.VariableType.isPrimitive() {
		prefix = "i"
	}
	if symbol.Index <= 3 {
		return fmt.Sprintf("%s%s_%d", prefix, op, symbol.Index)
	}
	return fmt.Sprintf("%s%s %d", prefix, op, symbol.Index)
}

func (generator *CodeGenerator) newLabel() string {
	generator.label++
	return fmt.Sprintf("%s_L%d", generator.labelPrefix, generator.label)
}

func (generator *CodeGenerator) writeLabel(label string) {
	generator.writeOutput(label + ":")
}

func (generator *CodeGenerator) writeInstruction(format string, args ...interface{}) {
	generator.writeOutput("\t" + fmt.Sprintf(format, args...))
}

func (generator *CodeGenerator) writeOutput(output string) {
	generator.output.WriteString(output)
	generator.output.WriteString("\n")
}
