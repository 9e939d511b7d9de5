package warrants

// Stock is the player's silver on hand, kept as discrete stacks the way
// the host world stores them. Settlement is all-or-nothing: a payment that
// cannot be covered consumes nothing.
type Stock struct {
	stacks []int
}

func NewStock(counts ...int) *Stock {
	s := &Stock{}
	for _, c := range counts {
		s.Add(c)
	}
	return s
}

func (s *Stock) Total() int {
	sum := 0
	for _, c := range s.stacks {
		sum += c
	}
	return sum
}

func (s *Stock) Add(n int) {
	if n > 0 {
		s.stacks = append(s.stacks, n)
	}
}

// TryPay consumes stacks in arbitrary order until amount is covered.
// Returns false, consuming nothing, when the total on hand is short.
func (s *Stock) TryPay(amount int) bool {
	if amount <= 0 {
		return true
	}
	if s.Total() < amount {
		return false
	}
	remaining := amount
	kept := s.stacks[:0]
	for _, c := range s.stacks {
		if remaining <= 0 {
			kept = append(kept, c)
			continue
		}
		if c <= remaining {
			remaining -= c
			continue
		}
		kept = append(kept, c-remaining)
		remaining = 0
	}
	s.stacks = kept
	return true
}
