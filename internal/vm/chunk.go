package vm

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Chunk is compiled bytecode for one function (spec.md's Chunk): a byte
// stream, a locals count, and a constants table. Constants hold whatever
// a LOAD_CONSTANT_32 needs to push — string values, reified function/
// trait ids — since Go has no raw heap pointer to stash them by address,
// unlike the original's `Value{ptr}` union.
type Chunk struct {
	Code         []byte
	LocalsCount  int
	Constants    []any
}

func NewChunk() *Chunk { return &Chunk{} }

func (c *Chunk) Push(op Opcode) { c.Code = append(c.Code, byte(op)) }

func (c *Chunk) PushU8(op Opcode, arg uint8) {
	c.Code = append(c.Code, byte(op), arg)
}

func (c *Chunk) PushU32(op Opcode, arg uint32) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, arg)
	c.Code = append(c.Code, byte(op))
	c.Code = append(c.Code, buf...)
}

func (c *Chunk) PushI32(op Opcode, arg int32) {
	c.PushU32(op, uint32(arg))
}

func (c *Chunk) PushU64(op Opcode, arg uint64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, arg)
	c.Code = append(c.Code, byte(op))
	c.Code = append(c.Code, buf...)
}

// PushCallID emits a CALL instruction followed by the callee's raw 16-byte
// id, matching how the VM's dispatch loop reads it back (spec.md §4.8).
func (c *Chunk) PushCallID(callee uuid.UUID) {
	c.Code = append(c.Code, byte(CALL))
	c.Code = append(c.Code, callee[:]...)
}

// PushConstant appends v to the constants table and returns its index.
func (c *Chunk) PushConstant(v any) uint32 {
	c.Constants = append(c.Constants, v)
	return uint32(len(c.Constants) - 1)
}

// ModifyU32 overwrites the 4 bytes at position (used to back-patch jump
// targets once the jump distance is known).
func (c *Chunk) ModifyU32(position int, arg uint32) {
	binary.LittleEndian.PutUint32(c.Code[position:position+4], arg)
}

// Here returns the current write position, used as a back-patch anchor.
func (c *Chunk) Here() int { return len(c.Code) }
