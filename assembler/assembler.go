package assembler

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xiaobogaga/javamm/util"
)

// A simple line based checker of jasmin code. It doesn't produce class files, it parses every
// line into a command and rejects what a jasmin assembler would reject for the code we emit:
// unknown directives or instructions, wrong operand counts, slots out of .limit locals, jumps to
// undeclared labels and duplicate labels.

type CommandType int

const (
	DirectiveCommand CommandType = iota
	LabelCommand
	InstructionCommand
)

func (tp CommandType) String() string {
	switch tp {
	case DirectiveCommand:
		return "directive"
	case LabelCommand:
		return "label"
	case InstructionCommand:
		return "instruction"
	}
	return "unknown"
}

type Command struct {
	Tp CommandType
	// Code is the directive, the label name or the mnemonic.
	Code            string
	Operands        []string
	Line            int
	OriginalContent string
}

func (command Command) String() string {
	return fmt.Sprintf("Command: {Tp: %s, Code: %s, Operands: %v, Line: %d, OriginalContent: %s}", command.Tp,
		command.Code, command.Operands, command.Line, command.OriginalContent)
}

type operandKind int

const (
	noOperand operandKind = iota
	slotOperand
	intOperand
	labelOperand
	classOperand
	methodOperand
	fieldOperand
	arrayTypeOperand
)

var instructions = map[string]operandKind{
	"nop":         noOperand,
	"aconst_null": noOperand,
	"iconst_m1":   noOperand,
	"iconst_0":    noOperand,
	"iconst_1":    noOperand,
	"iconst_2":    noOperand,
	"iconst_3":    noOperand,
	"iconst_4":    noOperand,
	"iconst_5":    noOperand,
	"bipush":      intOperand,
	"sipush":      intOperand,
	"ldc":         intOperand,
	"iload":       slotOperand,
	"aload":       slotOperand,
	"istore":      slotOperand,
	"astore":      slotOperand,
	"iaload":      noOperand,
	"iastore":     noOperand,
	"pop":         noOperand,
	"dup":         noOperand,
	"swap":        noOperand,
	"iadd":        noOperand,
	"isub":        noOperand,
	"imul":        noOperand,
	"idiv":        noOperand,
	"iand":        noOperand,
	"ior":         noOperand,
	"ineg":        noOperand,
	"ifeq":        labelOperand,
	"ifne":        labelOperand,
	"iflt":        labelOperand,
	"ifge":        labelOperand,
	"ifgt":        labelOperand,
	"ifle":        labelOperand,
	"if_icmpeq":   labelOperand,
	"if_icmpne":   labelOperand,
	"if_icmplt":   labelOperand,
	"if_icmpge":   labelOperand,
	"if_icmpgt":   labelOperand,
	"if_icmple":   labelOperand,
	"goto":        labelOperand,
	"ireturn":     noOperand,
	"areturn":     noOperand,
	"return":      noOperand,
	"getfield":    fieldOperand,
	"putfield":    fieldOperand,
	"new":         classOperand,
	"newarray":    arrayTypeOperand,
	"arraylength": noOperand,

	"invokevirtual":    methodOperand,
	"invokespecial":    methodOperand,
	"invokestatic":     methodOperand,
	"invokenonvirtual": methodOperand,
}

// intRanges bounds the immediate of the push instructions.
var intRanges = map[string][2]int{
	"bipush": {-128, 127},
	"sipush": {-32768, 32767},
	"ldc":    {-2147483648, 2147483647},
}

var slotPrefixes = []string{"iload", "aload", "istore", "astore"}

func init() {
	for _, prefix := range slotPrefixes {
		for i := 0; i <= 3; i++ {
			instructions[fmt.Sprintf("%s_%d", prefix, i)] = noOperand
		}
	}
}

// method is the state of the method being checked. Both limits are 1 unless declared.
type method struct {
	name        string
	line        int
	stackLimit  int
	localsLimit int
	labels      map[string]bool
	jumps       []jump
	// maxSlot is the highest slot accessed, -1 if none.
	maxSlot     int
	maxSlotLine int
}

type jump struct {
	label string
	line  int
}

type Assembler struct {
	line      int
	className string
	superName string
	method    *method
	methods   []string
	commands  []Command
}

func CreateAssembler() *Assembler {
	return &Assembler{line: 1}
}

// Parse checks the jasmin code read from rd and returns its commands.
func (asm *Assembler) Parse(rd io.Reader) (ret []Command, err error) {
	bfReader := bufio.NewReader(rd)
	for {
		line, err := bfReader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if len(line) == 0 && err == io.EOF {
			return asm.commands, asm.finish()
		}
		trimmed, hasRemainCharacter := asm.trimLine(line)
		if hasRemainCharacter {
			transformErr := asm.transformLine(trimmed)
			if transformErr != nil {
				return nil, transformErr
			}
		}
		if err == io.EOF {
			return asm.commands, asm.finish()
		}
		asm.line++
	}
}

// Methods returns the header of every checked method.
func (asm *Assembler) Methods() []string {
	return asm.methods
}

func (asm *Assembler) finish() error {
	if asm.className == "" {
		return asm.makeSyntaxErr("missing .class directive")
	}
	if asm.superName == "" {
		return asm.makeSyntaxErr("missing .super directive")
	}
	if asm.method != nil {
		return asm.makeSyntaxErrAtSpecificLine(asm.method.line, fmt.Sprintf("method %s is never ended", asm.method.name))
	}
	return nil
}

// trimLine removes spaces and ; comments from line, then returns whether it has other characters.
func (asm *Assembler) trimLine(line []byte) ([]byte, bool) {
	index := bytes.IndexByte(line, ';')
	// A ; inside a descriptor like [Ljava/lang/String; isn't a comment.
	for index > 0 && line[index-1] != ' ' && line[index-1] != '\t' {
		next := bytes.IndexByte(line[index+1:], ';')
		if next == -1 {
			index = -1
			break
		}
		index += next + 1
	}
	if index != -1 {
		line = line[:index]
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}
	return line, true
}

func (asm *Assembler) transformLine(line []byte) error {
	switch {
	case line[0] == '.':
		return asm.transformDirective(line)
	case line[len(line)-1] == ':':
		return asm.transformLabelCommand(line)
	default:
		return asm.transformInstruction(line)
	}
}

func (asm *Assembler) appendCommand(tp CommandType, code string, operands []string, line []byte) {
	asm.commands = append(asm.commands, Command{
		Tp:              tp,
		Code:            code,
		Operands:        operands,
		Line:            asm.line,
		OriginalContent: string(line),
	})
}

func (asm *Assembler) transformDirective(line []byte) error {
	fields := strings.Fields(string(line))
	directive, operands := fields[0], fields[1:]
	switch directive {
	case ".class", ".super":
		if asm.method != nil {
			return asm.makeSyntaxErr(directive + " inside a method")
		}
		if len(operands) == 0 || !util.IsClassName(operands[len(operands)-1]) {
			return asm.makeSyntaxErr("wrong class name format")
		}
		name := operands[len(operands)-1]
		if directive == ".class" {
			if asm.className != "" {
				return asm.makeSyntaxErr("found duplicate .class directive")
			}
			asm.className = name
		} else {
			if asm.className == "" || asm.superName != "" {
				return asm.makeSyntaxErr(".super must follow a single .class directive")
			}
			asm.superName = name
		}
	case ".field":
		if asm.method != nil {
			return asm.makeSyntaxErr(".field inside a method")
		}
		if len(operands) < 2 {
			return asm.makeSyntaxErr(".field needs a name and a descriptor")
		}
		name := strings.Trim(operands[len(operands)-2], "'")
		if !util.IsIdentifier(name) {
			return asm.makeSyntaxErr("wrong field name format")
		}
	case ".method":
		if asm.superName == "" {
			return asm.makeSyntaxErr(".method before .class and .super")
		}
		if asm.method != nil {
			return asm.makeSyntaxErr("found nested .method")
		}
		if len(operands) == 0 || !isMethodSignature(operands[len(operands)-1]) {
			return asm.makeSyntaxErr("wrong method signature format")
		}
		name := operands[len(operands)-1]
		asm.method = &method{name: name, line: asm.line, stackLimit: 1, localsLimit: 1, labels: map[string]bool{}, maxSlot: -1}
		asm.methods = append(asm.methods, name)
	case ".limit":
		if asm.method == nil {
			return asm.makeSyntaxErr(".limit outside of a method")
		}
		if len(operands) != 2 {
			return asm.makeSyntaxErr(".limit needs a kind and a value")
		}
		value, err := strconv.Atoi(operands[1])
		if err != nil || value < 0 || value > 65535 {
			return asm.makeSyntaxErr("wrong .limit value " + operands[1])
		}
		switch operands[0] {
		case "stack":
			asm.method.stackLimit = value
		case "locals":
			asm.method.localsLimit = value
		default:
			return asm.makeSyntaxErr("unknown .limit " + operands[0])
		}
	case ".end":
		if len(operands) != 1 || operands[0] != "method" {
			return asm.makeSyntaxErr("only .end method is supported")
		}
		if asm.method == nil {
			return asm.makeSyntaxErr(".end method without .method")
		}
		err := asm.endMethod()
		if err != nil {
			return err
		}
	default:
		return asm.makeSyntaxErr("unknown directive " + directive)
	}
	asm.appendCommand(DirectiveCommand, directive, operands, line)
	return nil
}

// endMethod resolves the jumps of the method, which may target labels declared after them.
func (asm *Assembler) endMethod() error {
	m := asm.method
	asm.method = nil
	for _, jump := range m.jumps {
		if !m.labels[jump.label] {
			return asm.makeSyntaxErrAtSpecificLine(jump.line, "jump to undeclared label "+jump.label)
		}
	}
	if m.maxSlot >= m.localsLimit {
		return asm.makeSyntaxErrAtSpecificLine(m.maxSlotLine, fmt.Sprintf("slot %d is out of .limit locals %d", m.maxSlot, m.localsLimit))
	}
	return nil
}

func (asm *Assembler) transformLabelCommand(line []byte) error {
	if asm.method == nil {
		return asm.makeSyntaxErr("label outside of a method")
	}
	label := string(line[:len(line)-1])
	if !util.IsIdentifier(label) {
		return asm.makeSyntaxErr("wrong label format")
	}
	if asm.method.labels[label] {
		return asm.makeSyntaxErr("found duplicate label")
	}
	asm.method.labels[label] = true
	asm.appendCommand(LabelCommand, label, nil, line)
	return nil
}

func (asm *Assembler) transformInstruction(line []byte) error {
	if asm.method == nil {
		return asm.makeSyntaxErr("instruction outside of a method")
	}
	fields := strings.Fields(string(line))
	mnemonic, operands := fields[0], fields[1:]
	kind, exist := instructions[mnemonic]
	if !exist {
		return asm.makeSyntaxErr("unknown instruction " + mnemonic)
	}
	want := 1
	switch kind {
	case noOperand:
		want = 0
	case fieldOperand:
		want = 2
	}
	if len(operands) != want {
		return asm.makeSyntaxErr(fmt.Sprintf("%s needs %d operands, found %d", mnemonic, want, len(operands)))
	}
	err := asm.checkOperand(mnemonic, kind, operands)
	if err != nil {
		return err
	}
	asm.appendCommand(InstructionCommand, mnemonic, operands, line)
	return nil
}

func (asm *Assembler) checkOperand(mnemonic string, kind operandKind, operands []string) error {
	switch kind {
	case noOperand:
		for _, prefix := range slotPrefixes {
			if strings.HasPrefix(mnemonic, prefix+"_") {
				asm.accessSlot(int(mnemonic[len(mnemonic)-1] - '0'))
			}
		}
	case slotOperand:
		slot, err := strconv.Atoi(operands[0])
		if err != nil || slot < 0 {
			return asm.makeSyntaxErr("wrong slot " + operands[0])
		}
		asm.accessSlot(slot)
	case intOperand:
		if !util.IsInteger(operands[0]) {
			return asm.makeSyntaxErr("wrong integer " + operands[0])
		}
		value, err := strconv.Atoi(operands[0])
		bounds := intRanges[mnemonic]
		if err != nil || value < bounds[0] || value > bounds[1] {
			return asm.makeSyntaxErr(fmt.Sprintf("%s is out of the range of %s", operands[0], mnemonic))
		}
	case labelOperand:
		if !util.IsIdentifier(operands[0]) {
			return asm.makeSyntaxErr("wrong label format")
		}
		asm.method.jumps = append(asm.method.jumps, jump{label: operands[0], line: asm.line})
	case classOperand:
		if !util.IsClassName(operands[0]) {
			return asm.makeSyntaxErr("wrong class name format")
		}
	case methodOperand:
		if !isMethodReference(operands[0]) {
			return asm.makeSyntaxErr("wrong method reference format")
		}
	case fieldOperand:
		index := strings.LastIndexByte(operands[0], '/')
		if index == -1 || !util.IsClassName(operands[0][:index]) || !util.IsIdentifier(operands[0][index+1:]) {
			return asm.makeSyntaxErr("wrong field reference format")
		}
	case arrayTypeOperand:
		if operands[0] != "int" && operands[0] != "boolean" {
			return asm.makeSyntaxErr("unsupported array type " + operands[0])
		}
	}
	return nil
}

func (asm *Assembler) accessSlot(slot int) {
	if slot > asm.method.maxSlot {
		asm.method.maxSlot, asm.method.maxSlotLine = slot, asm.line
	}
}

// isMethodSignature checks name(args)ret where name is an identifier or <init>.
func isMethodSignature(s string) bool {
	open := strings.IndexByte(s, '(')
	closing := strings.IndexByte(s, ')')
	if open <= 0 || closing < open || closing == len(s)-1 {
		return false
	}
	name := s[:open]
	return name == "<init>" || util.IsIdentifier(name)
}

// isMethodReference checks Class/name(args)ret.
func isMethodReference(s string) bool {
	open := strings.IndexByte(s, '(')
	if open == -1 {
		return false
	}
	slash := strings.LastIndexByte(s[:open], '/')
	if slash == -1 {
		return false
	}
	return util.IsClassName(s[:slash]) && isMethodSignature(s[slash+1:])
}

func (asm *Assembler) makeSyntaxErr(msg string) error {
	return errors.New(fmt.Sprintf("syntax err at line %d: %s", asm.line, msg))
}

func (asm *Assembler) makeSyntaxErrAtSpecificLine(line int, msg string) error {
	return errors.New(fmt.Sprintf("syntax err at line %d: %s", line, msg))
}
