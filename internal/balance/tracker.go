package balance

import (
	"math"
	"time"

	"github.com/google/uuid"

	"vydaje/internal/core"
)

// IsSettled reports whether a recorded settlement matches the planned
// transfer on from, to and amount within core.Epsilon. It is a display
// reconciliation aid only: recorded settlements never feed back into
// Compute, and marking a transfer paid does not change anyone's balance.
func IsSettled(settlements []core.Settlement, transfer Transfer) bool {
	for _, s := range settlements {
		if s.From == transfer.From && s.To == transfer.To &&
			math.Abs(s.Amount-transfer.Amount) < core.Epsilon {
			return true
		}
	}
	return false
}

// NewSettlement builds the append-only record for a transfer the user has
// explicitly confirmed as paid.
func NewSettlement(transfer Transfer, actor string, now time.Time) core.Settlement {
	return core.Settlement{
		ID:         uuid.New().String(),
		From:       transfer.From,
		To:         transfer.To,
		Amount:     transfer.Amount,
		RecordedAt: now,
		RecordedBy: actor,
	}
}
