package services

import "fmt"

// Candidate is one allocation the distribution engine may draw from, with
// its availability as read at the start of the walk. Callers supply
// candidates already ordered earliest-expiring first, creation order
// breaking ties.
type Candidate struct {
	AllocationID string
	Available    int64
}

// Assignment is one allocation's share of a distributed amount. Overdraft
// marks the assignment that was allowed to exceed availability and draw on
// the project's credit.
type Assignment struct {
	AllocationID string
	Amount       int64
	Overdraft    bool
}

// Distribute spreads amount across candidates in order. Allocations are
// filled front to back; candidates with nothing available contribute
// nothing. A remainder lands on the last allocation that received a share,
// or on the first candidate when none did, driving it negative against the
// credit limit. The post-write credit check is what bounds that overdraft.
//
// Holds and charges share this walk; only the record written per
// assignment differs.
func Distribute(amount int64, candidates []Candidate) ([]Assignment, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: cannot distribute negative amount %d", ErrInvalidValue, amount)
	}
	if len(candidates) == 0 {
		return nil, ErrNoAllocationAvailable
	}
	// A zero-amount marker is only meaningful against a single candidate.
	if amount == 0 {
		if len(candidates) == 1 {
			return []Assignment{{AllocationID: candidates[0].AllocationID}}, nil
		}
		return nil, nil
	}

	var assignments []Assignment
	remaining := amount
	for _, candidate := range candidates {
		if candidate.Available <= 0 {
			continue
		}
		share := candidate.Available
		if share >= remaining {
			share = remaining
		}
		assignments = append(assignments, Assignment{
			AllocationID: candidate.AllocationID,
			Amount:       share,
		})
		remaining -= share
		if remaining == 0 {
			break
		}
	}
	if remaining > 0 {
		if len(assignments) > 0 {
			last := &assignments[len(assignments)-1]
			last.Amount += remaining
			last.Overdraft = true
		} else {
			assignments = append(assignments, Assignment{
				AllocationID: candidates[0].AllocationID,
				Amount:       remaining,
				Overdraft:    true,
			})
		}
	}
	return assignments, nil
}
