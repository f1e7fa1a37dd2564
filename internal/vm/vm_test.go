package vm

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

type capturingSink struct {
	lines []string
}

func (s *capturingSink) Println(line string) { s.lines = append(s.lines, line) }

type chunkSet map[uuid.UUID]*Chunk

func (cs chunkSet) Chunk(id uuid.UUID) (*Chunk, bool) {
	c, ok := cs[id]
	return c, ok
}

func TestArithmeticPrintsResult(t *testing.T) {
	c := NewChunk()
	c.PushI32(LOAD32, 20)
	c.PushI32(LOAD32, 22)
	c.PushU8(ADD, byte(TagInt32))
	c.PushU8(TO_STRING, byte(TagInt32))
	c.Push(PRINT)
	c.Push(RETURN)

	sink := &capturingSink{}
	machine := New(chunkSet{}, sink)
	if err := machine.Run(c, uuid.New()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := strings.Join(sink.lines, "\n"), "42"; got != want {
		t.Errorf("printed %q, want %q", got, want)
	}
}

func TestIntegerDivideByZeroIsARuntimeError(t *testing.T) {
	c := NewChunk()
	c.PushI32(LOAD32, 1)
	c.PushI32(LOAD32, 0)
	c.PushU8(DIV, byte(TagInt32))
	c.Push(RETURN)

	machine := New(chunkSet{}, &capturingSink{})
	if err := machine.Run(c, uuid.New()); err == nil {
		t.Fatalf("Run: expected a divide-by-zero error, got nil")
	}
}

func TestJumpIfFalseSkipsThenBranch(t *testing.T) {
	c := NewChunk()
	c.PushU8(LOAD8, 0) // false condition
	skip := c.Here()
	c.PushI32(JUMP_IF_FALSE, 0)
	thenIdx := c.PushConstant("then")
	c.PushU32(LOAD_CONSTANT_32, thenIdx)
	c.Push(PRINT)
	jumpOver := c.Here()
	c.PushI32(JUMP, 0)
	c.ModifyU32(skip+1, uint32(c.Here()-(skip+5)))
	elseIdx := c.PushConstant("else")
	c.PushU32(LOAD_CONSTANT_32, elseIdx)
	c.Push(PRINT)
	c.ModifyU32(jumpOver+1, uint32(c.Here()-(jumpOver+5)))
	c.Push(RETURN)

	sink := &capturingSink{}
	machine := New(chunkSet{}, sink)
	if err := machine.Run(c, uuid.New()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := strings.Join(sink.lines, ""), "else"; got != want {
		t.Errorf("printed %q, want %q", got, want)
	}
}

// TestCallReturnsToCaller exercises CALL/RETURN across two chunks: main
// calls double(21) and prints the result.
func TestCallReturnsToCaller(t *testing.T) {
	doubleID := uuid.New()

	double := NewChunk()
	double.LocalsCount = 1
	double.PushI32(LOAD_LOCAL_32, -1)
	double.PushI32(LOAD_LOCAL_32, -1)
	double.PushU8(ADD, byte(TagInt32))
	double.Push(RETURN)

	main := NewChunk()
	main.PushI32(LOAD32, 21)
	main.PushCallID(doubleID)
	main.PushU8(TO_STRING, byte(TagInt32))
	main.Push(PRINT)
	main.Push(RETURN)

	sink := &capturingSink{}
	machine := New(chunkSet{doubleID: double}, sink)
	if err := machine.Run(main, uuid.New()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := strings.Join(sink.lines, ""), "42"; got != want {
		t.Errorf("printed %q, want %q", got, want)
	}
}

func TestAllocSetGetMember(t *testing.T) {
	c := NewChunk()
	c.PushU32(ALLOC_32, 1)
	c.Push(DUP64)
	c.PushI32(LOAD32, 7)
	c.PushU32(SET_MEMBER_32, 0)
	c.PushU32(GET_MEMBER_32, 0)
	c.PushU8(TO_STRING, byte(TagInt32))
	c.Push(PRINT)
	c.Push(RETURN)

	sink := &capturingSink{}
	machine := New(chunkSet{}, sink)
	if err := machine.Run(c, uuid.New()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := strings.Join(sink.lines, ""), "7"; got != want {
		t.Errorf("printed %q, want %q", got, want)
	}
}

func TestPanicAbortsWithMessage(t *testing.T) {
	c := NewChunk()
	idx := c.PushConstant("boom")
	c.PushU32(LOAD_CONSTANT_32, idx)
	c.Push(PANIC)

	machine := New(chunkSet{}, &capturingSink{})
	err := machine.Run(c, uuid.New())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Run err = %v, want it to mention the panic message", err)
	}
}

func TestTranspileAddCollectsID(t *testing.T) {
	target := uuid.New()
	c := NewChunk()
	idx := c.PushConstant(target)
	c.PushU32(LOAD_CONSTANT_32, idx)
	c.Push(TRANSPILE_ADD)
	c.Push(RETURN)

	machine := New(chunkSet{}, &capturingSink{})
	if err := machine.Run(c, uuid.New()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(machine.TranspileFunctions) != 1 || machine.TranspileFunctions[0] != target {
		t.Errorf("TranspileFunctions = %v, want [%v]", machine.TranspileFunctions, target)
	}
}
