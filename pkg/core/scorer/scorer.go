package scorer

// Default weights. With every signal fully satisfied a caregiver scores 1 + 2 + 3 = 6.
const (
	WeightNoOvertime = 1.0
	WeightProximity  = 2.0
	WeightFairness   = 3.0

	// MaxRegularHours is the weekly count below which a slot is not overtime
	MaxRegularHours = 5
)

// Candidate holds the facts about one caregiver needed to score a slot.
// The scheduler gathers these from the store before calling Evaluate.
type Candidate struct {
	ID string

	// WeekCount is the number of appointments the caregiver has in the slot's calendar week
	WeekCount int

	// DayRooms are the rooms the caregiver is already assigned to on the slot's day
	DayRooms []int

	// LeastWorked is true when the caregiver is among those tied for the fewest
	// appointments over the trailing four weeks
	LeastWorked bool
}

// Signal is one independent scoring component
type Signal interface {
	// Name returns a human-readable identifier for this signal
	Name() string

	// Evaluate returns a value between 0.0 and 1.0 describing how well the
	// candidate fits the room. It is multiplied by Weight.
	Evaluate(candidate Candidate, room int) float64

	// Weight returns the multiplier applied to Evaluate
	Weight() float64
}

// Contribution is a single signal's weighted share of a score
type Contribution struct {
	Signal string
	Value  float64
}

// Scorer sums weighted signals. It performs no I/O.
type Scorer struct {
	signals []Signal
}

// New creates a Scorer from the given signals
func New(signals ...Signal) *Scorer {
	return &Scorer{signals: signals}
}

// Default returns the scorer with the no-overtime, proximity and fairness signals
func Default() *Scorer {
	return New(
		NewNoOvertimeSignal(WeightNoOvertime),
		NewProximitySignal(WeightProximity),
		NewFairnessSignal(WeightFairness),
	)
}

// Evaluate returns the total score of the candidate for the room
func (s *Scorer) Evaluate(candidate Candidate, room int) float64 {
	total := 0.0
	for _, signal := range s.signals {
		total += signal.Evaluate(candidate, room) * signal.Weight()
	}
	return total
}

// Breakdown returns each signal's weighted contribution, in signal order
func (s *Scorer) Breakdown(candidate Candidate, room int) []Contribution {
	contributions := make([]Contribution, 0, len(s.signals))
	for _, signal := range s.signals {
		contributions = append(contributions, Contribution{
			Signal: signal.Name(),
			Value:  signal.Evaluate(candidate, room) * signal.Weight(),
		})
	}
	return contributions
}
