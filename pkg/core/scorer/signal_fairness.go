package scorer

// FairnessSignal rewards caregivers among the least worked over the trailing four weeks.
type FairnessSignal struct {
	weight float64
}

// NewFairnessSignal creates a FairnessSignal with the given weight
func NewFairnessSignal(weight float64) *FairnessSignal {
	return &FairnessSignal{weight: weight}
}

func (s *FairnessSignal) Name() string {
	return "Fairness"
}

func (s *FairnessSignal) Evaluate(candidate Candidate, room int) float64 {
	if candidate.LeastWorked {
		return 1
	}
	return 0
}

func (s *FairnessSignal) Weight() float64 {
	return s.weight
}
