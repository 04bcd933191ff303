package scorer

// NoOvertimeSignal rewards caregivers who still have regular-hour capacity this week.
//
// Evaluate:
//   - 1 if WeekCount < MaxRegularHours
//   - 0 otherwise (the slot would be overtime, the caregiver is still eligible)
type NoOvertimeSignal struct {
	weight float64
}

// NewNoOvertimeSignal creates a NoOvertimeSignal with the given weight
func NewNoOvertimeSignal(weight float64) *NoOvertimeSignal {
	return &NoOvertimeSignal{weight: weight}
}

func (s *NoOvertimeSignal) Name() string {
	return "NoOvertime"
}

func (s *NoOvertimeSignal) Evaluate(candidate Candidate, room int) float64 {
	if candidate.WeekCount < MaxRegularHours {
		return 1
	}
	return 0
}

func (s *NoOvertimeSignal) Weight() float64 {
	return s.weight
}
