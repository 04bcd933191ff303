package db

import (
	"sort"

	"github.com/jakechorley/caregiver-rota/pkg/core/model"
)

// LeastWorkedQueryLimit is the number of lowest counts considered when finding the
// least-worked caregivers. Caregivers tied at the minimum beyond this many rows are
// not part of the result.
const LeastWorkedQueryLimit = 10

// LeastWorked returns the ids tied for the minimum count.
//
// counts is ordered by count then caregiver id before truncation so the result is
// deterministic whatever order the caller supplies.
func LeastWorked(counts []model.CountWork) []string {
	if len(counts) == 0 {
		return nil
	}

	ordered := make([]model.CountWork, len(counts))
	copy(ordered, counts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Count != ordered[j].Count {
			return ordered[i].Count < ordered[j].Count
		}
		return ordered[i].CaregiverID < ordered[j].CaregiverID
	})

	if len(ordered) > LeastWorkedQueryLimit {
		ordered = ordered[:LeastWorkedQueryLimit]
	}

	minimum := ordered[0].Count
	ids := make([]string, 0, len(ordered))
	for _, row := range ordered {
		if row.Count != minimum {
			break
		}
		ids = append(ids, row.CaregiverID)
	}
	return ids
}
