// Package nodesim simulates confirmation nodes while real node transports
// are not deployed. Every selected node confirms after an optional delay.
package nodesim

import (
	"context"
	"time"

	"electra/contexts/election-trust/vote-ledger/domain/entities"
	"electra/contexts/election-trust/vote-ledger/ports"
)

type Confirmer struct {
	Delay time.Duration
}

func (c Confirmer) Confirm(ctx context.Context, _ entities.ConsensusLog) (bool, error) {
	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(c.Delay):
		}
	}
	return true, nil
}

var _ ports.ConfirmationSource = Confirmer{}
