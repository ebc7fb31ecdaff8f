package expr

import (
	"testing"
)

func TestParse_ProjectionLambda(t *testing.T) {
	n, err := Parse("s => { Id: s.Id, Name: s.Nest?.Name }")
	if err != nil {
		t.Fatal(err)
	}
	lam, ok := n.(*Lambda)
	if !ok {
		t.Fatalf("expected lambda, got %T", n)
	}
	if lam.Param != "s" {
		t.Fatalf("expected param s, got %q", lam.Param)
	}
	obj, ok := lam.Body.(*Object)
	if !ok {
		t.Fatalf("expected object body, got %T", lam.Body)
	}
	if len(obj.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(obj.Fields))
	}
	if obj.Fields[0].Name != "Id" || obj.Fields[1].Name != "Name" {
		t.Fatalf("unexpected field names: %+v", obj.Fields)
	}

	m, ok := obj.Fields[1].Value.(*Member)
	if !ok || !m.Optional || m.Name != "Name" {
		t.Fatalf("expected optional member access, got %#v", obj.Fields[1].Value)
	}
}

func TestParse_BareFieldHasNoName(t *testing.T) {
	n, err := Parse("s => { s.Id, s.Nest?.Name }")
	if err != nil {
		t.Fatal(err)
	}
	obj := n.(*Lambda).Body.(*Object)
	for i, f := range obj.Fields {
		if f.Name != "" {
			t.Fatalf("field %d: expected empty name, got %q", i, f.Name)
		}
	}
}

func TestParse_GuardConditional(t *testing.T) {
	n, err := Parse("s.Nest != null ? s.Nest.Id : (int?)null")
	if err != nil {
		t.Fatal(err)
	}
	cond, ok := n.(*Conditional)
	if !ok {
		t.Fatalf("expected conditional, got %T", n)
	}
	bin, ok := cond.Cond.(*Binary)
	if !ok || bin.Op != "!=" {
		t.Fatalf("expected != check, got %#v", cond.Cond)
	}
	cast, ok := cond.Else.(*Cast)
	if !ok || cast.Type != "int" || !cast.Nullable {
		t.Fatalf("expected (int?) cast, got %#v", cond.Else)
	}
	if !IsNull(cast.Value) {
		t.Fatalf("expected cast of null, got %#v", cast.Value)
	}
}

func TestParse_NestedSelectWithTrailing(t *testing.T) {
	n, err := Parse("x => { Tags: x.Items.Select(i => { Id: i.Id }).Take(5) }")
	if err != nil {
		t.Fatal(err)
	}
	field := n.(*Lambda).Body.(*Object).Fields[0]
	take, ok := field.Value.(*Call)
	if !ok {
		t.Fatalf("expected call, got %T", field.Value)
	}
	mem, ok := take.Fn.(*Member)
	if !ok || mem.Name != "Take" {
		t.Fatalf("expected trailing Take, got %#v", take.Fn)
	}
	sel, ok := mem.Recv.(*Call)
	if !ok {
		t.Fatalf("expected Select call receiver, got %T", mem.Recv)
	}
	if _, ok := sel.Args[0].(*Lambda); !ok {
		t.Fatalf("expected lambda argument, got %T", sel.Args[0])
	}
}

func TestParse_GroupingIsNotCast(t *testing.T) {
	n, err := Parse("(s.Nest != null) && (s.Id == 1)")
	if err != nil {
		t.Fatal(err)
	}
	bin, ok := n.(*Binary)
	if !ok || bin.Op != "&&" {
		t.Fatalf("expected conjunction, got %#v", n)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		"s => { Id: }",
		"s => { Id: s.Id",
		"s.",
		"a ? b",
		"a @ b",
		`s => { Name: "unterminated }`,
	}
	for _, src := range cases {
		if _, err := Parse(src); err == nil {
			t.Fatalf("expected error for %q", src)
		}
	}
}

func TestSprint_RoundTrip(t *testing.T) {
	cases := []string{
		"s => { Id: s.Id, Name: s.Nest?.Name }",
		"s.Child3 != null && s.Child3.Child != null ? s.Child3.Child.Id : null",
		"x => { Tags: x.Items.Select(i => { Id: i.Id }).Take(5) }",
		"(int?)s.Nest.Id",
		"s => { Flag: s.Nest == null ? false : s.Nest.Flag }",
	}
	for _, src := range cases {
		first, err := Parse(src)
		if err != nil {
			t.Fatalf("%q: %v", src, err)
		}
		printed := Sprint(first)
		second, err := Parse(printed)
		if err != nil {
			t.Fatalf("reparse %q: %v", printed, err)
		}
		if !Equal(first, second) {
			t.Fatalf("round trip changed tree:\n  src: %s\n  out: %s", src, printed)
		}
	}
}

func TestEqual_Discriminates(t *testing.T) {
	a, _ := Parse("s => { Id: s.Id }")
	b, _ := Parse("s => { Id: s.Nest }")
	if Equal(a, b) {
		t.Fatal("different trees reported equal")
	}
}

func TestSplitChain(t *testing.T) {
	n, err := Parse("s.Nest?.Child.Name")
	if err != nil {
		t.Fatal(err)
	}
	root, segs, ok := SplitChain(n)
	if !ok {
		t.Fatal("expected chain")
	}
	if root.Name != "s" {
		t.Fatalf("expected root s, got %q", root.Name)
	}
	want := []Segment{{Name: "Nest"}, {Name: "Child", Optional: true}, {Name: "Name"}}
	if len(segs) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(segs))
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Fatalf("segment %d: expected %+v, got %+v", i, want[i], segs[i])
		}
	}
	if !Equal(JoinChain(root, segs), n) {
		t.Fatal("JoinChain did not rebuild the original chain")
	}
}

func BenchmarkParse(b *testing.B) {
	src := "s => { Id: s.Id, Name: s.Nest?.Name, Tags: s.Items.Select(i => { Id: i.Id }).Take(5) }"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(src); err != nil {
			b.Fatal(err)
		}
	}
}
