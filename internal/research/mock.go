package research

import "context"

// Mock returns canned findings keyed by UPC, for tests and offline runs.
type Mock struct {
	// ByUPC maps UPC to the findings Research returns. A missing key
	// yields empty findings.
	ByUPC map[string]*Findings
	// Err, when set, is returned by every Research call.
	Err error

	// Calls records the queries Research received, in order.
	Calls []Query
}

func (m *Mock) Available() bool { return true }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Research(_ context.Context, q Query) (*Findings, error) {
	m.Calls = append(m.Calls, q)
	if m.Err != nil {
		return nil, m.Err
	}
	if f, ok := m.ByUPC[q.UPC]; ok {
		cp := *f
		return &cp, nil
	}
	return &Findings{}, nil
}
