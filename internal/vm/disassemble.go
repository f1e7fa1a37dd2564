package vm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Disassemble renders a chunk's bytecode as human-readable instruction
// lines, one per opcode, with resolved operand values. Grounded on the
// original interpreter/disassembler.rs's one-instruction-at-a-time text
// dump.
func Disassemble(chunk *Chunk) string {
	var b strings.Builder
	ip := 0
	for ip < len(chunk.Code) {
		op := Opcode(chunk.Code[ip])
		fmt.Fprintf(&b, "%04d  %s", ip, op)
		switch op {
		case LOAD8:
			fmt.Fprintf(&b, " %d", chunk.Code[ip+1])
			ip += 2
		case LOAD16:
			fmt.Fprintf(&b, " %d", binary.LittleEndian.Uint16(chunk.Code[ip+1:]))
			ip += 3
		case LOAD32, LOAD_CONSTANT_32, LOAD_LOCAL_32, STORE_LOCAL_32, ALLOC_32, GET_MEMBER_32, SET_MEMBER_32:
			fmt.Fprintf(&b, " %d", binary.LittleEndian.Uint32(chunk.Code[ip+1:]))
			ip += 5
		case LOAD64:
			fmt.Fprintf(&b, " %d", binary.LittleEndian.Uint64(chunk.Code[ip+1:]))
			ip += 9
		case JUMP, JUMP_IF_FALSE:
			fmt.Fprintf(&b, " %+d", int32(binary.LittleEndian.Uint32(chunk.Code[ip+1:])))
			ip += 5
		case CALL:
			id, _ := uuid.FromBytes(chunk.Code[ip+1 : ip+17])
			fmt.Fprintf(&b, " %s", id)
			ip += 17
		case ADD, SUB, MUL, DIV, MOD, EXP, LOG, NEG, EQ, NEQ, GR, GR_EQ, LE, LE_EQ, PARSE, TO_STRING:
			fmt.Fprintf(&b, " %s", PrimitiveTag(chunk.Code[ip+1]))
			ip += 2
		default:
			ip++
		}
		b.WriteByte('\n')
	}
	return b.String()
}
