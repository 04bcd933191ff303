package scheduler

import "sort"

// candidatePool tracks which caregivers may still be assigned during one run.
//
// Two scopes are kept apart:
//   - permanentlyIneligible is run-wide. A caregiver lands here once their weekly count
//     reaches WeeklyCap and never leaves, since counts only grow as the run commits.
//   - busyThisHour is passed into candidates for every room and never stored, so the
//     exclusion of one room's evaluation cannot leak into the next.
type candidatePool struct {
	// roster is ordered by caregiver id; that order is the tie-break
	roster []string

	permanentlyIneligible map[string]bool
}

func newCandidatePool(ids []string) *candidatePool {
	seen := make(map[string]bool, len(ids))
	roster := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		roster = append(roster, id)
	}
	sort.Strings(roster)

	return &candidatePool{
		roster:                roster,
		permanentlyIneligible: make(map[string]bool),
	}
}

// candidates returns a fresh slice of active caregivers not busy this hour, in roster order
func (p *candidatePool) candidates(busyThisHour []string) []string {
	busy := make(map[string]bool, len(busyThisHour))
	for _, id := range busyThisHour {
		busy[id] = true
	}

	result := make([]string, 0, len(p.roster))
	for _, id := range p.roster {
		if busy[id] {
			continue
		}
		result = append(result, id)
	}
	return result
}

// markIneligible removes the caregiver from the roster for the rest of the run
func (p *candidatePool) markIneligible(id string) {
	if p.isIneligible(id) {
		return
	}
	p.permanentlyIneligible[id] = true

	for i, rosterID := range p.roster {
		if rosterID == id {
			p.roster = append(p.roster[:i], p.roster[i+1:]...)
			break
		}
	}
}

func (p *candidatePool) isIneligible(id string) bool {
	return p.permanentlyIneligible[id]
}

// active returns the number of caregivers still on the roster
func (p *candidatePool) active() int {
	return len(p.roster)
}
