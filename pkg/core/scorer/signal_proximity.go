package scorer

// ProximitySignal rewards keeping a caregiver in the same or a nearby room across the day.
//
// Evaluate takes the best of the caregiver's other rooms that day:
//   - same room: 1
//   - otherwise: 1 / |otherRoom - room|
//   - no other appointment that day: 0
//
// With the default weight of 2 this gives 2.0 for the same room and 2/distance otherwise.
type ProximitySignal struct {
	weight float64
}

// NewProximitySignal creates a ProximitySignal with the given weight
func NewProximitySignal(weight float64) *ProximitySignal {
	return &ProximitySignal{weight: weight}
}

func (s *ProximitySignal) Name() string {
	return "Proximity"
}

func (s *ProximitySignal) Evaluate(candidate Candidate, room int) float64 {
	best := 0.0
	for _, other := range candidate.DayRooms {
		distance := other - room
		if distance < 0 {
			distance = -distance
		}

		value := 1.0
		if distance > 0 {
			value = 1.0 / float64(distance)
		}

		if value > best {
			best = value
		}
	}
	return best
}

func (s *ProximitySignal) Weight() float64 {
	return s.weight
}
