package ledger

import "invest-ledger-go/internal/models"

var entryTransitions = map[models.EntryStatus][]models.EntryStatus{
	models.EntryPending:    {models.EntryProcessing, models.EntryApproved, models.EntryRejected},
	models.EntryProcessing: {models.EntryApproved, models.EntryRejected},
}

var positionTransitions = map[models.PositionStatus][]models.PositionStatus{
	models.PositionActive: {models.PositionCompleted, models.PositionCancelled},
}

// CheckEntryTransition rejects any move out of a terminal state or to a
// status not reachable from the current one.
func CheckEntryTransition(from, to models.EntryStatus) error {
	for _, allowed := range entryTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return Reject(ReasonInvalidTransition, "Cannot move entry from %s to %s", from, to)
}

func CheckPositionTransition(from, to models.PositionStatus) error {
	for _, allowed := range positionTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return Reject(ReasonInvalidTransition, "Cannot move investment from %s to %s", from, to)
}
