package expr

import "strings"

// Sprint renders a node back to surface syntax. The output reparses to a
// structurally equal tree; it is used for diagnostics and signatures, not
// for byte-exact round-tripping of the user's input.
func Sprint(n Node) string {
	var b strings.Builder
	sprint(&b, n, false)
	return b.String()
}

func sprint(b *strings.Builder, n Node, nested bool) {
	switch v := n.(type) {
	case *Ident:
		b.WriteString(v.Name)
	case *Member:
		sprintOperand(b, v.Recv)
		if v.Optional {
			b.WriteString("?.")
		} else {
			b.WriteString(".")
		}
		b.WriteString(v.Name)
	case *Call:
		sprintOperand(b, v.Fn)
		b.WriteString("(")
		for i, a := range v.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			sprint(b, a, false)
		}
		b.WriteString(")")
	case *Lambda:
		b.WriteString(v.Param)
		b.WriteString(" => ")
		sprint(b, v.Body, false)
	case *Object:
		b.WriteString("{ ")
		for i, f := range v.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			if f.Name != "" {
				b.WriteString(f.Name)
				b.WriteString(": ")
			}
			sprint(b, f.Value, false)
		}
		b.WriteString(" }")
	case *Binary:
		if nested {
			b.WriteString("(")
		}
		sprint(b, v.Left, true)
		b.WriteString(" ")
		b.WriteString(v.Op)
		b.WriteString(" ")
		sprint(b, v.Right, true)
		if nested {
			b.WriteString(")")
		}
	case *Conditional:
		if nested {
			b.WriteString("(")
		}
		sprint(b, v.Cond, true)
		b.WriteString(" ? ")
		sprint(b, v.Then, true)
		b.WriteString(" : ")
		sprint(b, v.Else, true)
		if nested {
			b.WriteString(")")
		}
	case *Cast:
		b.WriteString("(")
		b.WriteString(v.Type)
		if v.Nullable {
			b.WriteString("?")
		}
		b.WriteString(")")
		sprintOperand(b, v.Value)
	case *Lit:
		switch v.Kind {
		case LitNull:
			b.WriteString("null")
		case LitString:
			b.WriteString("\"")
			b.WriteString(v.Value)
			b.WriteString("\"")
		case LitChar:
			b.WriteString("'")
			b.WriteString(v.Value)
			b.WriteString("'")
		default:
			b.WriteString(v.Value)
		}
	}
}

// sprintOperand parenthesizes operands that would otherwise rebind.
func sprintOperand(b *strings.Builder, n Node) {
	switch n.(type) {
	case *Binary, *Conditional, *Lambda:
		b.WriteString("(")
		sprint(b, n, false)
		b.WriteString(")")
	default:
		sprint(b, n, false)
	}
}
