package expr

// Node is one node of a projection expression tree. The tree is strictly
// owned top-down; rewrites build new nodes and never mutate shared ones.
type Node interface {
	node()
}

// Ident is a bare name reference.
type Ident struct {
	Name string
}

// Member is a member access. Optional marks the ?. form.
type Member struct {
	Recv     Node
	Name     string
	Optional bool
}

// Call is an invocation of Fn with Args.
type Call struct {
	Fn   Node
	Args []Node
}

// Lambda is a single-parameter function literal.
type Lambda struct {
	Param string
	Body  Node
}

// ObjectField is one field of an object construction. Name is empty when
// the field relies on name inference from its value expression.
type ObjectField struct {
	Name  string
	Value Node
}

// Object is an object construction expression.
type Object struct {
	Fields []ObjectField
}

// Binary is a binary operation. Op is one of "==", "!=", "&&".
type Binary struct {
	Op          string
	Left, Right Node
}

// Conditional is the ternary c ? a : b.
type Conditional struct {
	Cond, Then, Else Node
}

// Cast is an explicit cast (T)x or (T?)x.
type Cast struct {
	Type     string
	Nullable bool
	Value    Node
}

// LitKind discriminates literal values.
type LitKind int

const (
	LitNull LitKind = iota
	LitBool
	LitInt
	LitString
	LitChar
)

// Lit is a literal. Value holds the source text (without quotes for strings).
type Lit struct {
	Kind  LitKind
	Value string
}

func (*Ident) node()       {}
func (*Member) node()      {}
func (*Call) node()        {}
func (*Lambda) node()      {}
func (*Object) node()      {}
func (*Binary) node()      {}
func (*Conditional) node() {}
func (*Cast) node()        {}
func (*Lit) node()         {}

// Null returns the null literal.
func Null() *Lit { return &Lit{Kind: LitNull} }

// IsNull reports whether n is the null literal.
func IsNull(n Node) bool {
	l, ok := n.(*Lit)
	return ok && l.Kind == LitNull
}
