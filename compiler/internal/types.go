package internal

// VarType is the kind of a declared or computed type.
type VarType int

const (
	VoidVariableType VarType = iota // This only be used for method return.
	IntVariableType
	BooleanVariableType
	IntArrayVariableType
	StringArrayVariableType // Only the entry point argument has this type.
	ClassVariableType
	// UnknownVariableType means the type could not be determined locally, e.g. a member
	// inherited from the base class or called on a receiver we know nothing about.
	UnknownVariableType
)

type VariableType struct {
	TP   VarType
	Name string // Only set for ClassVariableType.
}

var (
	VoidType        = VariableType{TP: VoidVariableType}
	IntType         = VariableType{TP: IntVariableType}
	BooleanType     = VariableType{TP: BooleanVariableType}
	IntArrayType    = VariableType{TP: IntArrayVariableType}
	StringArrayType = VariableType{TP: StringArrayVariableType}
	UnknownType     = VariableType{TP: UnknownVariableType}
)

func ClassType(name string) VariableType {
	return VariableType{TP: ClassVariableType, Name: name}
}

// ParseVariableType maps a declared type name to a VariableType. Any name which is not a
// builtin is a class reference.
func ParseVariableType(name string) VariableType {
	switch name {
	case "void":
		return VoidType
	case "int":
		return IntType
	case "boolean":
		return BooleanType
	case "int[]":
		return IntArrayType
	case "String[]":
		return StringArrayType
	}
	return ClassType(name)
}

func (t VariableType) String() string {
	switch t.TP {
	case VoidVariableType:
		return "void"
	case IntVariableType:
		return "int"
	case BooleanVariableType:
		return "boolean"
	case IntArrayVariableType:
		return "int[]"
	case StringArrayVariableType:
		return "String[]"
	case ClassVariableType:
		return t.Name
	case UnknownVariableType:
		return "all"
	}
	return ""
}

func (t VariableType) IsUnknown() bool {
	return t.TP == UnknownVariableType
}

// IsClass reports whether t is a reference to the named class.
func (t VariableType) IsClass(name string) bool {
	return t.TP == ClassVariableType && t.Name == name
}

// Compatible is reflexive type equality where unknown absorbs everything.
func (t VariableType) Compatible(other VariableType) bool {
	if t.IsUnknown() || other.IsUnknown() {
		return true
	}
	return t == other
}

// Descriptor returns the JVM type descriptor of t. Class types pass their name through.
func (t VariableType) Descriptor() string {
	switch t.TP {
	case VoidVariableType:
		return "V"
	case IntVariableType:
		return "I"
	case BooleanVariableType:
		return "Z"
	case IntArrayVariableType:
		return "[I"
	case StringArrayVariableType:
		return "[Ljava/lang/String;"
	case ClassVariableType:
		return t.Name
	}
	// Unknown values are most often integers in this language.
	return "I"
}

// isPrimitive reports whether values of t are loaded and stored with the i-prefixed instructions.
func (t VariableType) isPrimitive() bool {
	return t.TP == IntVariableType || t.TP == BooleanVariableType
}
