package pricing

// Amount is a currency value that may be absent. The zero value is absent.
// A present zero is a real observed price, not "no data": research fields
// use nil for missing and 0.00 for genuinely free lots, and the two must
// never blur.
type Amount struct {
	value   float64
	present bool
}

// AmountOf wraps a known value.
func AmountOf(v float64) Amount {
	return Amount{value: v, present: true}
}

// Absent returns the no-value marker.
func Absent() Amount {
	return Amount{}
}

// Present reports whether the amount carries a value.
func (a Amount) Present() bool {
	return a.present
}

// Value returns the underlying value and whether it is present.
func (a Amount) Value() (float64, bool) {
	return a.value, a.present
}

// FromPtr converts the *float64 missing-value convention used by storage
// records. A nil pointer is absent; a pointer to zero is a present zero.
func FromPtr(p *float64) Amount {
	if p == nil {
		return Absent()
	}
	return AmountOf(*p)
}

// Ptr converts back to the storage-side representation.
func (a Amount) Ptr() *float64 {
	if !a.present {
		return nil
	}
	v := a.value
	return &v
}
