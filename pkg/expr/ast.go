package expr

// Node is a node in the expression AST.
type Node interface {
	Pos() int
}

// Literal is a constant value.
type Literal struct {
	At    int
	Value any
}

// Ident is a name looked up in the evaluation context. Slot is the index
// of the name in the program's parameter list, or -1 when unbound.
type Ident struct {
	At   int
	Name string
	Slot int
}

// This is the context itself.
type This struct {
	At int
}

// Member is property access: Object.Name or Object?.Name.
type Member struct {
	At       int
	Object   Node
	Name     string
	Optional bool
}

// Index is computed access: Object[Index] or Object?.[Index].
type Index struct {
	At       int
	Object   Node
	Index    Node
	Optional bool
}

// Call invokes Callee with Args.
type Call struct {
	At       int
	Callee   Node
	Args     []Node
	Optional bool
}

// Unary is a prefix operator: ! - +.
type Unary struct {
	At int
	Op string
	X  Node
}

// Binary is an infix operator, including the short-circuiting && || ??.
type Binary struct {
	At int
	Op string
	X  Node
	Y  Node
}

// Conditional is Test ? Then : Else.
type Conditional struct {
	At   int
	Test Node
	Then Node
	Else Node
}

func (n *Literal) Pos() int     { return n.At }
func (n *Ident) Pos() int       { return n.At }
func (n *This) Pos() int        { return n.At }
func (n *Member) Pos() int      { return n.At }
func (n *Index) Pos() int       { return n.At }
func (n *Call) Pos() int        { return n.At }
func (n *Unary) Pos() int       { return n.At }
func (n *Binary) Pos() int      { return n.At }
func (n *Conditional) Pos() int { return n.At }
