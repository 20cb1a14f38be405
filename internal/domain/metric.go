package domain

// ExpectedActual pairs a programmed target value with the value the user
// actually performed. Actual stays nil until the user records the set.
type ExpectedActual struct {
	Expected float64  `bson:"expected" json:"expected"`
	Actual   *float64 `bson:"actual,omitempty" json:"actual,omitempty"`
}

// ExpectedActualText is the string flavour of ExpectedActual, used for
// per-exercise coaching notes.
type ExpectedActualText struct {
	Expected string `bson:"expected,omitempty" json:"expected,omitempty"`
	Actual   string `bson:"actual,omitempty" json:"actual,omitempty"`
}

// Float64Ptr is a small helper for building optional actual values.
func Float64Ptr(v float64) *float64 {
	return &v
}
