package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// YearScanner exposes the persisted-sequence lookup the allocator needs.
// Both repository modes satisfy it through DaoRepository.MaxSequence.
type YearScanner interface {
	MaxSequence(ctx context.Context, year int) (int, error)
}

// SequenceAllocator produces per-year monotonic dossier numbers of the
// form DAO-YYYY-NNN. The candidate is always computed as
// max(in-memory baseline, max persisted sequence) + 1, so the allocator
// self-heals after a restart when the baseline map starts empty.
type SequenceAllocator struct {
	mu        sync.Mutex
	baselines map[int]int
	scanner   YearScanner
}

// NewSequenceAllocator creates an allocator scanning the given store.
func NewSequenceAllocator(scanner YearScanner) *SequenceAllocator {
	return &SequenceAllocator{
		baselines: make(map[int]int),
		scanner:   scanner,
	}
}

// Peek returns the candidate next sequence for the year without
// advancing any state. Safe for UI display.
func (a *SequenceAllocator) Peek(ctx context.Context, year int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.candidate(ctx, year)
}

// Allocate returns the next sequence for the year and advances the
// in-memory baseline so a concurrent Allocate observes the new value.
func (a *SequenceAllocator) Allocate(ctx context.Context, year int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seq, err := a.candidate(ctx, year)
	if err != nil {
		return 0, err
	}
	a.baselines[year] = seq
	return seq, nil
}

// Release recomputes the baseline after a deletion as the max sequence
// still persisted for the year. Never a blind decrement: a freed middle
// slot must not resurface while higher numbers exist.
func (a *SequenceAllocator) Release(ctx context.Context, year int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	max, err := a.scanner.MaxSequence(ctx, year)
	if err != nil {
		return err
	}
	a.baselines[year] = max
	return nil
}

// Reset drops every yearly baseline. Used by the admin reset path.
func (a *SequenceAllocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.baselines = make(map[int]int)
}

func (a *SequenceAllocator) candidate(ctx context.Context, year int) (int, error) {
	persisted, err := a.scanner.MaxSequence(ctx, year)
	if err != nil {
		return 0, err
	}
	base := a.baselines[year]
	if persisted > base {
		base = persisted
	}
	return base + 1, nil
}

// FormatNumeroListe renders a sequence as DAO-YYYY-NNN. The sequence is
// zero-padded to three digits and grows past 999 naturally.
func FormatNumeroListe(year, seq int) string {
	return fmt.Sprintf("DAO-%d-%03d", year, seq)
}

// ParseNumeroListe extracts year and sequence from DAO-YYYY-NNN.
func ParseNumeroListe(numero string) (year, seq int, ok bool) {
	parts := strings.Split(numero, "-")
	if len(parts) != 3 || parts[0] != "DAO" {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, false
	}
	return year, seq, true
}
