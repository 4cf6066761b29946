// Package interpreter executes validated module bodies directly against
// their own byte encoding: the decoder's side-table gives every block/loop/if
// its resolved branch targets, so there is no separate compile step between
// decoding and running a function.
package interpreter

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/wasmrt/wasmcore/internal/wasm"
)

func init() {
	wasm.Invoke = Invoke
}

// maxCallDepth bounds recursive Go-stack usage per nested wasm call; beyond
// it a call traps rather than overflowing the host goroutine's stack.
const maxCallDepth = 1000

// maxControlDepth bounds nested block/loop/if frames within a single call;
// beyond it execution traps with the same call-stack-exhausted error.
const maxControlDepth = 1000

// Invoke runs the function at fnIndex in inst's function index space.
func Invoke(inst *wasm.Instance, fnIndex uint32, args []uint64) ([]uint64, *wasm.Error) {
	if int(fnIndex) >= len(inst.Functions) {
		return nil, wasm.ErrUnknownFunction
	}
	return callFunction(inst.Functions[fnIndex], args, 0)
}

func callFunction(fn *wasm.Function, args []uint64, depth int) (results []uint64, errOut *wasm.Error) {
	if depth > maxCallDepth {
		return nil, wasm.ErrTrapCallStackExhausted
	}
	if fn.Kind == wasm.FunctionKindHost {
		return callHost(fn, args)
	}

	owner := fn.Owner
	mod := owner.Module
	fd := mod.Functions[fn.OwnerIndex]

	if len(args) != len(fn.Type.Params) {
		return nil, wasm.ErrTrapInvalidArgumentCount
	}

	locals := make([]uint64, len(fd.Locals))
	copy(locals, args)

	s := &execState{
		inst:   owner,
		fn:     fn,
		locals: locals,
		pc:     fd.BodyStart,
		depth:  depth,
	}
	s.ctrl = append(s.ctrl, ctrlFrame{
		stackBase: 0,
		paramsLen: uint32(len(fn.Type.Params)),
		hasResult: len(fn.Type.Results) == 1,
		bodyPC:    fd.BodyStart,
		endPC:     fd.BodyEnd,
	})

	defer func() {
		if r := recover(); r != nil {
			if te, ok := r.(*wasm.Error); ok {
				logrus.WithFields(logrus.Fields{
					"instance": owner.ID,
					"func":     fn.OwnerIndex,
					"kind":     te.Kind,
				}).Debug("function trapped")
				errOut = te
				results = nil
				return
			}
			panic(r)
		}
	}()

	run(s)

	if len(fn.Type.Results) == 1 {
		if len(s.stack) < 1 {
			return nil, wasm.ErrTrapStackUnderflow
		}
		return []uint64{s.stack[len(s.stack)-1]}, nil
	}
	return nil, nil
}

func callHost(fn *wasm.Function, args []uint64) ([]uint64, *wasm.Error) {
	res, hasResult := fn.HostFn(args)
	if hasResult {
		return []uint64{res}, nil
	}
	return nil, nil
}

// ctrlFrame is one entry of the runtime control-flow stack, resolved from
// the matching SideTableEntry when the block/loop/if is entered.
type ctrlFrame struct {
	isLoop    bool
	stackBase int
	paramsLen uint32
	hasResult bool
	bodyPC    uint32
	endPC     uint32
}

type execState struct {
	inst   *wasm.Instance
	fn     *wasm.Function
	locals []uint64
	stack  []uint64
	ctrl   []ctrlFrame
	pc     uint32
	depth  int
}

func (s *execState) push(v uint64) { s.stack = append(s.stack, v) }

func (s *execState) pop() uint64 {
	if len(s.stack) == 0 {
		panic(wasm.ErrTrapStackUnderflow)
	}
	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v
}

func (s *execState) popN(n int) []uint64 {
	if len(s.stack) < n {
		panic(wasm.ErrTrapStackUnderflow)
	}
	v := append([]uint64(nil), s.stack[len(s.stack)-n:]...)
	s.stack = s.stack[:len(s.stack)-n]
	return v
}

// branch unwinds to the control frame `depth` levels up the stack (0 =
// innermost) and resumes either at its body (a loop, carrying its params
// forward for the next iteration) or just past its `end` (a block, if, or
// the function frame itself, carrying its results forward).
func (s *execState) branch(depth uint32) {
	target := len(s.ctrl) - 1 - int(depth)
	frame := s.ctrl[target]

	var arity uint32
	if frame.isLoop {
		arity = frame.paramsLen
	} else if frame.hasResult {
		arity = 1
	}
	carry := s.popN(int(arity))
	s.stack = s.stack[:frame.stackBase]
	s.stack = append(s.stack, carry...)

	if frame.isLoop {
		s.ctrl = s.ctrl[:target+1]
		s.pc = frame.bodyPC
	} else {
		s.ctrl = s.ctrl[:target]
		s.pc = frame.endPC
	}
}

func (s *execState) pushControl(isLoop bool, e *wasm.SideTableEntry) {
	if len(s.ctrl) >= maxControlDepth {
		panic(wasm.ErrTrapCallStackExhausted)
	}
	s.ctrl = append(s.ctrl, ctrlFrame{
		isLoop:    isLoop,
		stackBase: len(s.stack) - int(e.ParamsLen),
		paramsLen: e.ParamsLen,
		hasResult: e.HasResult,
		bodyPC:    e.BodyPC,
		endPC:     e.EndPC,
	})
}

func run(s *execState) {
	mod := s.inst.Module
	data := mod.Bytes

	for len(s.ctrl) > 0 {
		opcodeOffset := s.pc
		op := data[s.pc]
		s.pc++

		switch op {
		case opUnreachable:
			panic(wasm.ErrTrapUnreachable)
		case opNop:

		case opBlock:
			e := mod.SideTable[opcodeOffset]
			s.pushControl(false, e)
			s.pc = e.BodyPC
		case opLoop:
			e := mod.SideTable[opcodeOffset]
			s.pushControl(true, e)
			s.pc = e.BodyPC
		case opIf:
			e := mod.SideTable[opcodeOffset]
			cond := s.pop()
			if cond != 0 {
				s.pushControl(false, e)
				s.pc = e.BodyPC
			} else if e.ElsePC != e.EndPC {
				s.pushControl(false, e)
				s.pc = e.ElsePC
			} else {
				s.pc = e.EndPC
			}
		case opElse:
			s.branch(0)
		case opEnd:
			s.ctrl = s.ctrl[:len(s.ctrl)-1]

		case opBr:
			depth := mustU32(s, &s.pc)
			s.branch(depth)
		case opBrIf:
			depth := mustU32(s, &s.pc)
			if s.pop() != 0 {
				s.branch(depth)
			}
		case opBrTable:
			n := mustU32(s, &s.pc)
			targets := make([]uint32, n)
			for i := range targets {
				targets[i] = mustU32(s, &s.pc)
			}
			def := mustU32(s, &s.pc)
			idx := uint32(s.pop())
			if idx < n {
				s.branch(targets[idx])
			} else {
				s.branch(def)
			}
		case opReturn:
			s.branch(uint32(len(s.ctrl) - 1))

		case opCall:
			idx := mustU32(s, &s.pc)
			s.execCall(idx)
		case opCallIndirect:
			typeIdx := mustU32(s, &s.pc)
			mustU32(s, &s.pc) // reserved table index byte, always 0 in the MVP
			s.execCallIndirect(typeIdx)

		case opDrop:
			s.pop()
		case opSelect:
			c := s.pop()
			b := s.pop()
			a := s.pop()
			if c != 0 {
				s.push(a)
			} else {
				s.push(b)
			}

		case opLocalGet:
			idx := mustU32(s, &s.pc)
			s.push(s.locals[idx])
		case opLocalSet:
			idx := mustU32(s, &s.pc)
			s.locals[idx] = s.pop()
		case opLocalTee:
			idx := mustU32(s, &s.pc)
			v := s.pop()
			s.locals[idx] = v
			s.push(v)
		case opGlobalGet:
			idx := mustU32(s, &s.pc)
			s.push(s.inst.Globals[idx].Get())
		case opGlobalSet:
			idx := mustU32(s, &s.pc)
			s.inst.Globals[idx].Set(s.pop())

		case opMemorySize:
			mustU32(s, &s.pc)
			s.push(uint64(s.inst.Memory.Size()))
		case opMemoryGrow:
			mustU32(s, &s.pc)
			prev, ok := s.inst.Memory.Grow(uint32(s.pop()))
			if !ok {
				s.push(uint64(uint32(0xffffffff)))
			} else {
				s.push(uint64(prev))
			}

		case opI32Const:
			v := mustS32(s, &s.pc)
			s.push(uint64(uint32(v)))
		case opI64Const:
			v := mustS64(s, &s.pc)
			s.push(uint64(v))
		case opF32Const:
			s.push(uint64(leU32(data, s.pc)))
			s.pc += 4
		case opF64Const:
			s.push(leU64(data, s.pc))
			s.pc += 8

		default:
			if isLoadStore(op) {
				s.execLoadStore(op, &s.pc)
			} else {
				s.execNumeric(op)
			}
		}
	}
}

func (s *execState) execCall(fnIndex uint32) {
	fn := s.inst.Functions[fnIndex]
	args := s.popN(len(fn.Type.Params))
	results, err := callFunction(fn, args, s.depth+1)
	if err != nil {
		panic(err)
	}
	for _, r := range results {
		s.push(r)
	}
}

func (s *execState) execCallIndirect(typeIdx uint32) {
	tableIdx := uint32(s.pop())
	if s.inst.Table == nil {
		panic(wasm.ErrTrapUndefinedElement)
	}
	handle, ok := s.inst.Table.Get(tableIdx)
	if !ok {
		panic(wasm.ErrTrapUndefinedElement)
	}
	if handle == 0 {
		panic(wasm.ErrTrapUninitializedElement)
	}
	ownerID, fnIdx := wasm.DecodeFuncref(handle)
	owner := wasm.DefaultRegistry().GetInstance(ownerID)
	if owner == nil || int(fnIdx) >= len(owner.Functions) {
		panic(wasm.ErrTrapUndefinedElement)
	}
	fn := owner.Functions[fnIdx]
	want := s.inst.Module.Types[typeIdx]
	if !wasm.SignatureEquals(fn.Type, want) {
		panic(wasm.ErrTrapIndirectCallMismatch)
	}
	args := s.popN(len(fn.Type.Params))
	results, err := callFunction(fn, args, s.depth+1)
	if err != nil {
		panic(err)
	}
	for _, r := range results {
		s.push(r)
	}
}

func mustU32(s *execState, pc *uint32) uint32 {
	v, n, err := readU32At(s.inst.Module.Bytes, *pc)
	if err != nil {
		panic(err)
	}
	*pc += uint32(n)
	return v
}

func mustS32(s *execState, pc *uint32) int32 {
	v, n, err := readS32At(s.inst.Module.Bytes, *pc)
	if err != nil {
		panic(err)
	}
	*pc += uint32(n)
	return v
}

func mustS64(s *execState, pc *uint32) int64 {
	v, n, err := readS64At(s.inst.Module.Bytes, *pc)
	if err != nil {
		panic(err)
	}
	*pc += uint32(n)
	return v
}

func leU32(b []byte, off uint32) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

func leU64(b []byte, off uint32) uint64 {
	var v uint64
	for i := uint32(0); i < 8; i++ {
		v |= uint64(b[off+i]) << (8 * i)
	}
	return v
}

// float32FromBits and float64FromBits round-trip the stack's raw uint64
// encoding into the Go float types the numeric kernels operate on, without
// ever normalizing a NaN payload.
func float32FromBits(v uint64) float32 { return math.Float32frombits(uint32(v)) }
func float64FromBits(v uint64) float64 { return math.Float64frombits(v) }
func bitsFromFloat32(f float32) uint64 { return uint64(math.Float32bits(f)) }
func bitsFromFloat64(f float64) uint64 { return math.Float64bits(f) }
