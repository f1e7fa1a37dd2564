package refactor

import (
	"sort"

	"github.com/google/uuid"

	"github.com/monoteny-lang/monoteny/internal/config"
	"github.com/monoteny-lang/monoteny/internal/diag"
	"github.com/monoteny-lang/monoteny/internal/funcs"
	"github.com/monoteny-lang/monoteny/internal/resolver/tree"
	"github.com/monoteny-lang/monoteny/internal/types"
)

// Simplify drives the Monomorphize/Inline/ConstantFold/TrimLocals passes
// over a Refactor's working copies, re-running a function whenever one of
// its dependencies changes, until the change queue empties (spec.md
// §4.5). Mirrors interpreter/compile/compile_server.rs's
// Simplify{refactor, inline, trim_locals, monomorphize}.run(...) call
// shape; simplify.rs itself was not retrieved, so the pass bodies below
// are original, written against that call shape and spec.md §4.5.
type Simplify struct {
	Refactor     *Refactor
	Descriptors  map[uuid.UUID]*funcs.Descriptor
	Monomorphize bool
	Inline       bool
	ConstantFold bool
	TrimLocals   bool

	specializations map[string]uuid.UUID
}

func NewSimplify(r *Refactor, descriptors map[uuid.UUID]*funcs.Descriptor, opts config.RunOptions) *Simplify {
	return &Simplify{
		Refactor:        r,
		Descriptors:     descriptors,
		Monomorphize:    true,
		Inline:          !opts.NoInline,
		ConstantFold:    !opts.NoFold,
		TrimLocals:      !opts.NoTrimLocals,
		specializations: map[string]uuid.UUID{},
	}
}

// Run drains the change queue, applying every enabled pass to each
// function whose logic changed, until the queue is empty or
// config.MaxSimplifyIterations is exceeded.
func (s *Simplify) Run() error {
	r := s.Refactor
	for i := 0; i < config.MaxSimplifyIterations; i++ {
		id, ok := r.Changes().Pop()
		if !ok {
			return nil
		}
		logic, ok := r.FnLogic[id]
		if !ok || logic.Implementation == nil {
			continue
		}
		impl := logic.Implementation

		changed := false
		if s.Monomorphize {
			if s.monomorphizePass(impl) {
				changed = true
			}
		}
		if s.Inline {
			if s.inlinePass(impl) {
				changed = true
			}
		}
		if s.ConstantFold {
			if s.constantFoldPass(impl) {
				changed = true
			}
		}
		if s.TrimLocals {
			if s.trimLocalsPass(impl) {
				changed = true
			}
		}

		if changed {
			r.FnLogic[id] = funcs.ImplLogic(impl)
			r.changes.MarkChange(id)
		}
	}
	return diag.New(diag.Link, "simplify did not converge after %d iterations", config.MaxSimplifyIterations)
}

// monomorphizePass replaces generic calls (FunctionCall nodes carrying a
// non-empty Binding.Subst) with calls to a concrete specialization of the
// callee, generating that specialization on first use and reusing it
// afterward (spec.md §4.5: "monomorphize: generic calls are replaced with
// calls to a generated concrete specialization"). Only callees that have
// a working copy in the Refactor and declare generics are specialized;
// calls to any other callee keep their generic binding.
func (s *Simplify) monomorphizePass(impl *funcs.Implementation) bool {
	changed := false
	if impl.Tree == nil || len(impl.Tree.Nodes) == 0 {
		return false
	}
	for i := range impl.Tree.Nodes {
		n := &impl.Tree.Nodes[i]
		if n.Kind != tree.OpFunctionCall || len(n.Binding.Subst) == 0 {
			continue
		}
		calleeHead, ok := s.Refactor.Head(n.Binding.Callee)
		if !ok || len(calleeHead.Generics) == 0 {
			continue
		}
		specID := s.specialize(calleeHead, n.Binding.Subst)
		if specID == uuid.Nil {
			continue
		}
		n.Binding.Callee = specID
		n.Binding.Subst = nil
		changed = true
	}
	return changed
}

func (s *Simplify) specialize(head *funcs.Head, subst types.Subst) uuid.UUID {
	key := specializationKey(head.ID, subst)
	if id, ok := s.specializations[key]; ok {
		return id
	}

	logic, ok := s.Refactor.FnLogic[head.ID]
	if !ok {
		return uuid.Nil
	}

	newHead := &funcs.Head{ID: uuid.New(), Interface: substituteInterface(head.Interface, subst)}

	switch {
	case logic.Implementation != nil:
		newImpl := cloneImplementation(logic.Implementation, newHead, subst)
		s.Refactor.Add(newHead, funcs.ImplLogic(newImpl))
	case logic.Descriptor != nil:
		newDesc := *logic.Descriptor
		s.Refactor.Add(newHead, funcs.DescLogic(&newDesc))
	default:
		return uuid.Nil
	}

	s.specializations[key] = newHead.ID
	return newHead.ID
}

func specializationKey(id uuid.UUID, subst types.Subst) string {
	names := make([]string, 0, len(subst))
	for name := range subst {
		names = append(names, name)
	}
	sort.Strings(names)
	key := id.String()
	for _, name := range names {
		key += "|" + name + "=" + subst[name].String()
	}
	return key
}

func substituteInterface(iface funcs.Interface, subst types.Subst) funcs.Interface {
	out := funcs.Interface{Rep: iface.Rep}
	for _, p := range iface.Params {
		out.Params = append(out.Params, funcs.Param{Internal: p.Internal, External: p.External, Type: applyOrNil(p.Type, subst)})
	}
	out.ReturnType = applyOrNil(iface.ReturnType, subst)
	return out
}

func applyOrNil(t types.Type, subst types.Subst) types.Type {
	if t == nil {
		return nil
	}
	return t.Apply(subst)
}

// cloneImplementation deep-copies an implementation's tree and locals,
// substituting every recorded type through subst.
func cloneImplementation(impl *funcs.Implementation, newHead *funcs.Head, subst types.Subst) *funcs.Implementation {
	newTree := &tree.Tree{Root: impl.Tree.Root}
	newTree.Nodes = make([]tree.Node, len(impl.Tree.Nodes))
	for i, n := range impl.Tree.Nodes {
		nn := n
		nn.Children = append([]tree.NodeID(nil), n.Children...)
		newTree.Nodes[i] = nn
	}
	newTree.Types = make([]types.Type, len(impl.Tree.Types))
	for i, t := range impl.Tree.Types {
		newTree.Types[i] = applyOrNil(t, subst)
	}

	refMap := map[uuid.UUID]*tree.ObjectReference{}
	newLocals := make([]*tree.ObjectReference, len(impl.Locals))
	for i, l := range impl.Locals {
		nl := &tree.ObjectReference{ID: l.ID, Name: l.Name, Type: applyOrNil(l.Type, subst), Mutable: l.Mutable}
		newLocals[i] = nl
		refMap[l.ID] = nl
	}
	for i, n := range newTree.Nodes {
		if n.Local != nil {
			if nl, ok := refMap[n.Local.ID]; ok {
				newTree.Nodes[i].Local = nl
			}
		}
	}

	return &funcs.Implementation{Head: newHead, Tree: newTree, Locals: newLocals}
}

// inlinePass splices small, single-use-per-parameter call bodies directly
// into the call site, eliding the CALL/RETURN overhead (spec.md §4.5:
// "inline: small call bodies are spliced into the call site"). Only
// implementation bodies with no locals of their own and at most one
// reference per parameter are eligible, so argument expressions are never
// duplicated or reordered past a side effect.
func (s *Simplify) inlinePass(impl *funcs.Implementation) bool {
	if impl.Tree == nil || len(impl.Tree.Nodes) == 0 {
		return false
	}
	changed := false
	for i := range impl.Tree.Nodes {
		id := tree.NodeID(i)
		n := &impl.Tree.Nodes[i]
		if n.Kind != tree.OpFunctionCall {
			continue
		}
		calleeLogic, ok := s.Refactor.FnLogic[n.Binding.Callee]
		if !ok || calleeLogic.Implementation == nil {
			continue
		}
		callee := calleeLogic.Implementation
		if n.Binding.Callee == impl.Head.ID {
			continue // never inline a direct recursive call
		}
		if len(callee.Locals) != len(callee.Head.Params) {
			continue // callee has locals of its own beyond its parameters
		}
		if !singleUsePerParam(callee) {
			continue
		}

		spliced, ok := spliceCall(impl.Tree, id, callee, n.Children)
		if !ok {
			continue
		}
		impl.Tree.Nodes[id] = impl.Tree.Nodes[spliced]
		impl.Tree.Types[id] = impl.Tree.Types[spliced]
		changed = true
	}
	return changed
}

func singleUsePerParam(impl *funcs.Implementation) bool {
	counts := map[uuid.UUID]int{}
	for _, n := range impl.Tree.Nodes {
		if n.Kind == tree.OpGetLocal && n.Local != nil {
			counts[n.Local.ID]++
		}
	}
	for _, p := range impl.Locals {
		if counts[p.ID] > 1 {
			return false
		}
	}
	return true
}

// spliceCall appends a renamed copy of callee's body into caller, with
// GetLocal(param) replaced by the matching call argument node, and
// returns the id of the copied root (what was the callee's Return child,
// or the return node itself stripped to its value).
func spliceCall(caller *tree.Tree, callNode tree.NodeID, callee *funcs.Implementation, args []tree.NodeID) (tree.NodeID, bool) {
	argByParam := map[uuid.UUID]tree.NodeID{}
	for i, p := range callee.Head.Params {
		if i >= len(args) {
			return 0, false
		}
		for _, l := range callee.Locals {
			if l.Name == p.Internal {
				argByParam[l.ID] = args[i]
			}
		}
	}

	var copyNode func(id tree.NodeID) tree.NodeID
	copyNode = func(id tree.NodeID) tree.NodeID {
		n := callee.Tree.Node(id)
		if n.Kind == tree.OpGetLocal && n.Local != nil {
			if argID, ok := argByParam[n.Local.ID]; ok {
				return argID
			}
		}
		newChildren := make([]tree.NodeID, len(n.Children))
		for i, c := range n.Children {
			newChildren[i] = copyNode(c)
		}
		newNode := *n
		newNode.Children = newChildren
		newID := tree.NodeID(len(caller.Nodes))
		caller.Nodes = append(caller.Nodes, newNode)
		caller.Types = append(caller.Types, callee.Tree.Type(id))
		return newID
	}

	root := callee.Tree.Node(callee.Tree.Root)
	if root.Kind == tree.OpBlock && len(root.Children) == 1 {
		// A body of the form `{ return expr; }` splices in as expr.
		root = callee.Tree.Node(root.Children[0])
	}
	if root.Kind == tree.OpReturn {
		if len(root.Children) == 0 {
			return 0, false // void-returning function used as an expression: don't inline
		}
		return copyNode(root.Children[0]), true
	}
	return copyNode(callee.Tree.Root), true
}

// constantFoldPass evaluates primitive operations applied to two pinned
// number literals at refactor time, per spec.md §4.5 ("constant-fold:
// primitive operations over literal operands resolve immediately").
// Boolean short-circuit operators and non-primitive calls are left alone.
func (s *Simplify) constantFoldPass(impl *funcs.Implementation) bool {
	if s.Descriptors == nil || impl.Tree == nil {
		return false
	}
	changed := false
	for i := range impl.Tree.Nodes {
		n := &impl.Tree.Nodes[i]
		if n.Kind != tree.OpFunctionCall {
			continue
		}
		d, ok := s.Descriptors[n.Binding.Callee]
		if !ok || d.Kind != funcs.PrimitiveOperation {
			continue
		}
		if len(n.Children) != 2 {
			continue
		}
		lhs := impl.Tree.Node(n.Children[0])
		rhs := impl.Tree.Node(n.Children[1])
		if lhs.Kind != tree.OpNumberLiteral || rhs.Kind != tree.OpNumberLiteral {
			continue
		}
		folded, ok := foldPrimitiveOp(d, lhs, rhs)
		if !ok {
			continue
		}
		folded.Children = nil
		*n = folded
		changed = true
	}
	return changed
}

func foldPrimitiveOp(d *funcs.Descriptor, lhs, rhs *tree.Node) (tree.Node, bool) {
	if lhs.IsFloat != rhs.IsFloat {
		return tree.Node{}, false
	}
	result := tree.Node{Kind: tree.OpNumberLiteral, IsFloat: lhs.IsFloat}
	if lhs.IsFloat {
		a, b := lhs.Float, rhs.Float
		switch d.Op {
		case funcs.OpAdd:
			result.Float = a + b
		case funcs.OpSub:
			result.Float = a - b
		case funcs.OpMul:
			result.Float = a * b
		case funcs.OpDiv:
			result.Float = a / b
		default:
			return tree.Node{}, false
		}
		return result, true
	}
	a, b := lhs.Int, rhs.Int
	switch d.Op {
	case funcs.OpAdd:
		result.Int = a + b
	case funcs.OpSub:
		result.Int = a - b
	case funcs.OpMul:
		result.Int = a * b
	default:
		return tree.Node{}, false
	}
	return result, true
}

// trimLocalsPass removes a local variable entirely — including its
// defining SetLocal node, replaced by an empty Block — when it is never
// read and its initializer cannot have a side effect (spec.md §4.5:
// "trim-locals: bindings never read are removed"). A local whose
// initializer calls a function is left alone, since that call may be
// observable.
func (s *Simplify) trimLocalsPass(impl *funcs.Implementation) bool {
	if impl.Tree == nil {
		return false
	}
	reads := map[uuid.UUID]bool{}
	for _, n := range impl.Tree.Nodes {
		if n.Kind == tree.OpGetLocal && n.Local != nil {
			reads[n.Local.ID] = true
		}
	}

	paramIDs := map[string]bool{}
	for _, p := range impl.Head.Params {
		paramIDs[p.Internal] = true
	}

	changed := false
	var kept []*tree.ObjectReference
	for _, l := range impl.Locals {
		if paramIDs[l.Name] || reads[l.ID] {
			kept = append(kept, l)
			continue
		}
		if trimSetLocal(impl.Tree, l.ID) {
			changed = true
			continue
		}
		kept = append(kept, l)
	}
	if changed {
		impl.Locals = kept
	}
	return changed
}

func trimSetLocal(t *tree.Tree, local uuid.UUID) bool {
	for i, n := range t.Nodes {
		if n.Kind == tree.OpSetLocal && n.Local != nil && n.Local.ID == local {
			if len(n.Children) == 1 && isPure(t, n.Children[0]) {
				t.Nodes[i] = tree.Node{Kind: tree.OpBlock}
				t.Types[i] = nil
				return true
			}
			return false
		}
	}
	return false
}

func isPure(t *tree.Tree, id tree.NodeID) bool {
	n := t.Node(id)
	switch n.Kind {
	case tree.OpNumberLiteral, tree.OpStringLiteral, tree.OpGetLocal:
		return true
	default:
		return false
	}
}
