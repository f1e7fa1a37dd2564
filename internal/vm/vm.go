package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/config"
	"github.com/monoteny-lang/monoteny/internal/diag"
)

// Sink is where PRINT writes lines and PANIC writes its terminal message
// (spec.md §6: "Host sink").
type Sink interface {
	Println(line string)
}

// ChunkProvider resolves a function id to its compiled chunk, called by
// CALL. The VM never compiles on demand; it expects the caller (the
// runtime's CompileServer) to have already compiled everything
// transitively reachable.
type ChunkProvider interface {
	Chunk(id uuid.UUID) (*Chunk, bool)
}

type frame struct {
	chunk     *Chunk
	returnIP  int
	returnFP  int
	callee    uuid.UUID // for error call-stack reporting
}

// VM is spec.md §4.8's stack machine: a byte-addressed value stack, ip/
// sp/fp, a call-frame stack, and the TRANSPILE_ADD side channel.
type VM struct {
	stack []byte
	sp    int
	fp    int

	heap  *Heap
	sink  Sink
	chunks ChunkProvider

	frames []frame

	// TranspileFunctions accumulates ids appended by TRANSPILE_ADD (spec.md
	// §4.8's side channel, consumed by a transpiler backend).
	TranspileFunctions []uuid.UUID
}

func New(chunks ChunkProvider, sink Sink) *VM {
	return &VM{
		stack:  make([]byte, config.InitialStackBytes),
		heap:   NewHeap(),
		sink:   sink,
		chunks: chunks,
	}
}

func (vm *VM) Heap() *Heap { return vm.heap }

func (vm *VM) ensureCapacity(n int) {
	for vm.sp+n > len(vm.stack) {
		vm.stack = append(vm.stack, make([]byte, len(vm.stack))...)
	}
}

func (vm *VM) pushSlot(v uint64) {
	vm.ensureCapacity(config.SlotSize)
	binary.LittleEndian.PutUint64(vm.stack[vm.sp:], v)
	vm.sp += config.SlotSize
}

func (vm *VM) popSlot() uint64 {
	vm.sp -= config.SlotSize
	return binary.LittleEndian.Uint64(vm.stack[vm.sp:])
}

func (vm *VM) peekSlot() uint64 {
	return binary.LittleEndian.Uint64(vm.stack[vm.sp-config.SlotSize:])
}

func (vm *VM) slotAt(offset int) uint64 {
	addr := vm.fp + offset*config.SlotSize
	return binary.LittleEndian.Uint64(vm.stack[addr:])
}

func (vm *VM) setSlotAt(offset int, v uint64) {
	addr := vm.fp + offset*config.SlotSize
	binary.LittleEndian.PutUint64(vm.stack[addr:], v)
}

func runtimeErr(chunk *Chunk, ip int, frames []frame, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	stack := make([]string, len(frames))
	for i, f := range frames {
		stack[i] = f.callee.String()
	}
	return diag.New(diag.Runtime, "at ip=%d: %s (call stack: %v)", ip, msg, stack)
}

// Run executes chunk from its first instruction until a RETURN unwinds
// past an empty frame stack, a PANIC fires, or a runtime error occurs.
func (vm *VM) Run(entry *Chunk, entryID uuid.UUID) error {
	chunk := entry
	ip := 0
	vm.fp = vm.sp
	vm.frames = append(vm.frames, frame{callee: entryID})

	for {
		if ip >= len(chunk.Code) {
			return runtimeErr(chunk, ip, vm.frames, "instruction pointer ran off the end of the chunk")
		}
		op := Opcode(chunk.Code[ip])

		switch op {
		case NOOP:
			ip++

		case RETURN:
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			top := vm.frames[len(vm.frames)-1]
			ip = top.returnIP
			vm.fp = top.returnFP
			chunk = top.chunk

		case LOAD8:
			vm.pushSlot(uint64(chunk.Code[ip+1]))
			ip += 2
		case LOAD16:
			vm.pushSlot(uint64(binary.LittleEndian.Uint16(chunk.Code[ip+1:])))
			ip += 3
		case LOAD32:
			vm.pushSlot(uint64(binary.LittleEndian.Uint32(chunk.Code[ip+1:])))
			ip += 5
		case LOAD64:
			vm.pushSlot(binary.LittleEndian.Uint64(chunk.Code[ip+1:]))
			ip += 9

		case LOAD_CONSTANT_32:
			idx := binary.LittleEndian.Uint32(chunk.Code[ip+1:])
			vm.pushSlot(vm.loadConstant(chunk, idx))
			ip += 5

		case LOAD_LOCAL_32:
			off := int(int32(binary.LittleEndian.Uint32(chunk.Code[ip+1:])))
			vm.pushSlot(vm.slotAt(off))
			ip += 5

		case STORE_LOCAL_32:
			off := int(int32(binary.LittleEndian.Uint32(chunk.Code[ip+1:])))
			vm.setSlotAt(off, vm.popSlot())
			ip += 5

		case POP64:
			vm.popSlot()
			ip++

		case DUP64:
			vm.pushSlot(vm.peekSlot())
			ip++

		case SWAP64:
			a := vm.popSlot()
			b := vm.popSlot()
			vm.pushSlot(a)
			vm.pushSlot(b)
			ip++

		case JUMP:
			delta := int32(binary.LittleEndian.Uint32(chunk.Code[ip+1:]))
			ip = ip + 5 + int(delta)

		case JUMP_IF_FALSE:
			delta := int32(binary.LittleEndian.Uint32(chunk.Code[ip+1:]))
			next := ip + 5
			if vm.popSlot() == 0 {
				next += int(delta)
			}
			ip = next

		case CALL:
			idBytes := chunk.Code[ip+1 : ip+17]
			id, err := uuid.FromBytes(idBytes)
			if err != nil {
				return runtimeErr(chunk, ip, vm.frames, "malformed call operand: %v", err)
			}
			callee, ok := vm.chunks.Chunk(id)
			if !ok {
				return runtimeErr(chunk, ip, vm.frames, "no compiled chunk for function %s", id)
			}
			if len(vm.frames) >= config.MaxFrameCount {
				return runtimeErr(chunk, ip, vm.frames, "call stack overflow")
			}
			vm.frames[len(vm.frames)-1].chunk = chunk
			vm.frames[len(vm.frames)-1].returnIP = ip + 17
			vm.frames[len(vm.frames)-1].returnFP = vm.fp
			vm.frames = append(vm.frames, frame{callee: id})
			vm.fp = vm.sp
			chunk = callee
			ip = 0

		case ALLOC_32:
			n := binary.LittleEndian.Uint32(chunk.Code[ip+1:])
			vm.pushSlot(vm.heap.AllocStruct(int(n)))
			ip += 5

		case GET_MEMBER_32:
			i := binary.LittleEndian.Uint32(chunk.Code[ip+1:])
			ptr := vm.popSlot()
			vm.pushSlot(vm.heap.Struct(ptr)[i])
			ip += 5

		case SET_MEMBER_32:
			i := binary.LittleEndian.Uint32(chunk.Code[ip+1:])
			val := vm.popSlot()
			ptr := vm.popSlot()
			vm.heap.Struct(ptr)[i] = val
			ip += 5

		case ADD, SUB, MUL, DIV, MOD, EXP, LOG:
			if err := vm.binaryArith(op, chunk, ip); err != nil {
				return err
			}
			ip += 2

		case NEG:
			if err := vm.unaryArith(chunk, ip); err != nil {
				return err
			}
			ip += 2

		case EQ, NEQ, GR, GR_EQ, LE, LE_EQ:
			if err := vm.compare(op, chunk, ip); err != nil {
				return err
			}
			ip += 2

		case AND:
			b := vm.popSlot()
			a := vm.popSlot()
			vm.pushSlot(boolSlot(a != 0 && b != 0))
			ip++
		case OR:
			b := vm.popSlot()
			a := vm.popSlot()
			vm.pushSlot(boolSlot(a != 0 || b != 0))
			ip++
		case NOT:
			a := vm.popSlot()
			vm.pushSlot(boolSlot(a == 0))
			ip++

		case PARSE:
			tag := PrimitiveTag(chunk.Code[ip+1])
			ptr := vm.popSlot()
			v, err := parsePrimitive(vm.heap.String(ptr), tag)
			if err != nil {
				return runtimeErr(chunk, ip, vm.frames, "%v", err)
			}
			vm.pushSlot(v)
			ip += 2

		case TO_STRING:
			tag := PrimitiveTag(chunk.Code[ip+1])
			v := vm.popSlot()
			vm.pushSlot(vm.heap.InternString(formatPrimitive(v, tag)))
			ip += 2

		case ADD_STRING:
			b := vm.popSlot()
			a := vm.popSlot()
			vm.pushSlot(vm.heap.InternString(vm.heap.String(a) + vm.heap.String(b)))
			ip++

		case PRINT:
			ptr := vm.popSlot()
			vm.sink.Println(vm.heap.String(ptr))
			ip++

		case PANIC:
			ptr := vm.popSlot()
			return diag.New(diag.Runtime, "%s", vm.heap.String(ptr))

		case TRANSPILE_ADD:
			ptr := vm.popSlot()
			vm.TranspileFunctions = append(vm.TranspileFunctions, vm.heap.ID(ptr))
			ip++

		default:
			return runtimeErr(chunk, ip, vm.frames, "unknown opcode %d", op)
		}
	}
}

func (vm *VM) loadConstant(chunk *Chunk, idx uint32) uint64 {
	switch c := chunk.Constants[idx].(type) {
	case string:
		return vm.heap.InternString(c)
	case uuid.UUID:
		return vm.heap.InternID(c)
	default:
		panic(fmt.Sprintf("unsupported constant type %T", c))
	}
}

func boolSlot(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
