package async

// PassBy classifies how one value crosses a dataflow edge (spec.md §4.3
// step 3 / §4.4 step 2): Move consumes it once, Copy duplicates a cheap
// scalar/function value, Borrow hands out a shared read-only view.
type PassBy int

const (
	Move PassBy = iota
	Copy
	PassBorrow
)

// NativeFn is the Go function a Fn instruction invokes: borrowed inputs
// arrive as *BorrowedFuture, everything else as Any, and it returns one
// value per output terminal.
type NativeFn func(args []Any) []Any

// AsyncFn is a first-class Ooze function value: either a reference to a
// Program-resident instruction (a top-level fn, possibly curried) or a
// native function, boxed uniformly so ExprIdent-to-overloaded-global
// lowering (spec.md §4.3 step 4, "Ident (overloaded global)") and
// Functional calls share one representation.
type AsyncFn struct {
	Program *Program
	Inst    InstRef
	Curried []Any
}

// InstRef addresses one instruction within a Program's append-only vector.
type InstRef int

const InvalidInst InstRef = -1

// InstKind tags the shape of one Inst (spec.md §4.4 "Instruction set").
type InstKind int

const (
	KValue InstKind = iota
	KFn
	KGraph
	KCurry
	KFunctional
	KSelect
	KIf
	KConverge
	KPlaceholder
)

// Inst is one entry of a Program. Only the fields relevant to Kind are
// populated; this mirrors the teacher's single wide Operation struct
// (source/compiler/vm.go's *Operation) selected on by an opcode, rather than
// a Go interface per instruction, so a Program stays one flat, cheaply
// copyable slice.
type Inst struct {
	Kind InstKind

	// KValue
	Value Any

	// KFn
	NativeFn     NativeFn
	Borrows      []bool // per-input: true if this input is a PassBy::Borrow
	OutputCount  int

	// KGraph
	Graph *FunctionGraph

	// KCurry
	Base  InstRef
	Fixed []Any

	// KFunctional: no extra fields, OutputCount reused.

	// KSelect: no extra fields; arity comes from its edges.

	// KIf
	Then, Else InstRef

	// KConverge
	Body InstRef
}

// Program is an append-only vector of Inst, shared (by *Program, never
// copied) across every FunctionGraph node that references one of its
// instructions (spec.md §4.4: "A Program stores an append-only vector of
// Inst").
type Program struct {
	Insts []Inst
}

func NewProgram() *Program { return &Program{} }

func (p *Program) Append(i Inst) InstRef {
	p.Insts = append(p.Insts, i)
	return InstRef(len(p.Insts) - 1)
}

func (p *Program) At(r InstRef) *Inst { return &p.Insts[r] }

// Reserve appends a KPlaceholder, to be filled in later with Set: this is
// how mutually-recursive top-level fns emit forward references to each
// other's instructions before every fn has been lowered (spec.md §4.3
// step 5 mentions captured values; forward refs are the analogous need at
// the Program level).
func (p *Program) Reserve() InstRef {
	return p.Append(Inst{Kind: KPlaceholder})
}

func (p *Program) Set(r InstRef, i Inst) {
	p.Insts[r] = i
}

// Edge is one input wire into a node: which Oterm it reads and how.
type Edge struct {
	Producer Oterm
	PassBy   PassBy
}

// Oterm addresses one output terminal of one GNode within a FunctionGraph.
type Oterm struct {
	Node  int
	Index int
}

// GNode is one node of a FunctionGraph: an instruction handle, its input
// edges, and how many outputs it produces.
type GNode struct {
	Inst        InstRef
	Inputs      []Edge
	OutputCount int
}

// FunctionGraph is graph construction's output (spec.md §4.3): a DAG of
// GNodes plus the exit terminals (with their PassBy) and the free
// variables the graph needs from its lexical environment at call time.
type FunctionGraph struct {
	Program *Program
	Nodes   []GNode

	// ParamCount is the number of input terminals, in the entry pattern's
	// preorder. A reference to the i-th one is always Oterm{Node: -1,
	// Index: i} (see ParamOterm) so exits/edges can address "my own params"
	// uniformly with "some other node's outputs".
	ParamCount int

	Exits []Edge

	// CapturedValues/CapturedBorrows name free variables referencing an
	// outer binding. Graph construction never fills them: both are always
	// empty, and nothing curries captured values into a graph.
	CapturedValues  []string
	CapturedBorrows []string
}

// ParamOterm builds the Oterm a GNode's Inputs use to reference the graph's
// own i-th input terminal (as opposed to another node's output).
func ParamOterm(i int) Oterm { return Oterm{Node: -1, Index: i} }

func (g *FunctionGraph) AddNode(n GNode) int {
	g.Nodes = append(g.Nodes, n)
	return len(g.Nodes) - 1
}
