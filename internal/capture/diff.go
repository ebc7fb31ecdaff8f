package capture

// DiagKind distinguishes the two capture-set mismatch diagnostics.
type DiagKind int

const (
	// DiagMissing marks a computed capture absent from the declared set;
	// the caller must add it.
	DiagMissing DiagKind = iota
	// DiagUnnecessary marks a declared capture the projection never
	// uses; the caller may remove it.
	DiagUnnecessary
)

func (k DiagKind) String() string {
	if k == DiagMissing {
		return "missing capture"
	}
	return "unnecessary capture"
}

// Diagnostic is one capture-set mismatch finding.
type Diagnostic struct {
	Kind DiagKind
	Name string
}

// Diff compares a caller-declared capture list against the computed set.
// The two diagnostic kinds are independent; the core never auto-corrects
// either direction.
func Diff(declared []string, computed *Set) []Diagnostic {
	declaredSet := make(map[string]bool, len(declared))
	for _, d := range declared {
		declaredSet[d] = true
	}

	var diags []Diagnostic
	for _, e := range computed.Entries() {
		if !declaredSet[e.DisplayName] {
			diags = append(diags, Diagnostic{Kind: DiagMissing, Name: e.DisplayName})
		}
	}
	for _, d := range declared {
		if !computed.Contains(d) {
			diags = append(diags, Diagnostic{Kind: DiagUnnecessary, Name: d})
		}
	}
	return diags
}
