package models

// User is the root type the derivation tests walk from.
type User struct {
	ID      int
	Name    string
	Age     int64
	Score   float64
	Active  bool
	Profile *Profile
	Orders  []Order

	internalNote string
}

type Profile struct {
	Bio    string
	Avatar *string
}

type Order struct {
	Total float64
	Lines []Line
}

type Line struct {
	Qty int
}

// Count has no struct underlying and must be rejected as a root.
type Count int
