package store

import "github.com/Fery-Iris/web-simdik-sub001/internal/models"

var transitionMap = map[string][]string{
	models.StatusWaiting: {models.StatusCalled, models.StatusCancelled},
	models.StatusCalled:  {models.StatusCompleted, models.StatusCancelled},
}

// ValidTransition reports whether a reservation may move from one status to
// another. Keeping the same status is always allowed so full-field edits do
// not have to special-case it. Completed and cancelled are terminal.
func ValidTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, status := range transitionMap[from] {
		if status == to {
			return true
		}
	}
	return false
}
