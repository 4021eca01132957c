package queries

import (
	"context"

	"electra/contexts/election-trust/audit-trail/domain/entities"
	"electra/contexts/election-trust/audit-trail/ports"
)

// VerificationReport is the read-time chain validity result. BrokenSeq is the
// first sequence at which the chain fails, 0 when the chain is intact.
type VerificationReport struct {
	Valid      bool
	EntryCount int
	BrokenSeq  int64
	Reason     string
}

type ChainUseCase struct {
	Entries ports.EntryRepository
}

// VerifyChain walks creation order and checks both linkage (previous_hash of
// entry i equals hash_chain of entry i-1) and each entry's recomputed digest.
func (uc ChainUseCase) VerifyChain(ctx context.Context) (VerificationReport, error) {
	entries, err := uc.Entries.ListEntries(ctx, ports.EntryFilter{})
	if err != nil {
		return VerificationReport{}, err
	}

	report := VerificationReport{Valid: true, EntryCount: len(entries)}
	for i, entry := range entries {
		if i == 0 {
			if entry.PreviousHash != "" {
				return VerificationReport{
					EntryCount: len(entries),
					BrokenSeq:  entry.Seq,
					Reason:     "genesis entry carries a previous hash",
				}, nil
			}
		} else if !entry.LinksTo(entries[i-1]) {
			return VerificationReport{
				EntryCount: len(entries),
				BrokenSeq:  entry.Seq,
				Reason:     "previous hash does not match predecessor",
			}, nil
		}
		if entry.ComputeHash() != entry.HashChain {
			return VerificationReport{
				EntryCount: len(entries),
				BrokenSeq:  entry.Seq,
				Reason:     "entry hash does not match recomputation",
			}, nil
		}
	}
	return report, nil
}

func (uc ChainUseCase) ListEntries(ctx context.Context, filter ports.EntryFilter) ([]entities.Entry, error) {
	return uc.Entries.ListEntries(ctx, filter)
}
