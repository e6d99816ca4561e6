package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"
)

// MemoryDaoRepository keeps dossiers in a process-local slice with two
// secondary indexes (id to position, autorite to ids). Both indexes are
// rebuilt from scratch after every mutation rather than maintained
// incrementally; at tens to low thousands of dossiers the O(n) rebuild
// buys freedom from index drift.
type MemoryDaoRepository struct {
	mu            sync.RWMutex
	daos          []models.Dao
	idIndex       map[string]int
	autoriteIndex map[string][]string
}

// NewMemoryDaoRepository creates an empty in-memory dossier store.
func NewMemoryDaoRepository() *MemoryDaoRepository {
	r := &MemoryDaoRepository{}
	r.rebuildIndexes()
	return r
}

// rebuildIndexes recomputes both secondary indexes. Callers must hold
// the write lock.
func (r *MemoryDaoRepository) rebuildIndexes() {
	r.idIndex = make(map[string]int, len(r.daos))
	r.autoriteIndex = make(map[string][]string)
	for i := range r.daos {
		r.idIndex[r.daos[i].ID] = i
		aut := r.daos[i].AutoriteContractante
		r.autoriteIndex[aut] = append(r.autoriteIndex[aut], r.daos[i].ID)
	}
}

// List applies search, autorite and date filters, sorts, and paginates.
func (r *MemoryDaoRepository) List(ctx context.Context, filter ListFilter) ([]models.Dao, int64, error) {
	filter.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Dao, 0, len(r.daos))
	for i := range r.daos {
		if matchesFilter(&r.daos[i], &filter) {
			matched = append(matched, r.daos[i].Clone())
		}
	}

	sortDaos(matched, filter.Sort, filter.Order)

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(matched) {
		return []models.Dao{}, total, nil
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]models.Dao, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func matchesFilter(d *models.Dao, f *ListFilter) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(d.NumeroListe), needle) &&
			!strings.Contains(strings.ToLower(d.ObjetDossier), needle) &&
			!strings.Contains(strings.ToLower(d.Reference), needle) &&
			!strings.Contains(strings.ToLower(d.AutoriteContractante), needle) {
			return false
		}
	}
	if f.Autorite != "" && d.AutoriteContractante != f.Autorite {
		return false
	}
	if f.DateFrom != nil && d.DateDepot.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && d.DateDepot.After(*f.DateTo) {
		return false
	}
	return true
}

func sortDaos(daos []models.Dao, field, order string) {
	desc := order != "asc"
	sort.SliceStable(daos, func(i, j int) bool {
		// desc compares with swapped operands so equal keys never
		// compare true and stability holds for ties
		if desc {
			i, j = j, i
		}
		switch field {
		case "numeroListe":
			return daos[i].NumeroListe < daos[j].NumeroListe
		case "objetDossier":
			return daos[i].ObjetDossier < daos[j].ObjetDossier
		case "autoriteContractante":
			return daos[i].AutoriteContractante < daos[j].AutoriteContractante
		case "dateDepot":
			return daos[i].DateDepot.Before(daos[j].DateDepot)
		case "createdAt":
			return daos[i].CreatedAt.Before(daos[j].CreatedAt)
		default: // updatedAt
			return daos[i].UpdatedAt.Before(daos[j].UpdatedAt)
		}
	})
}

// GetByID returns a deep copy of the dossier, or nil when absent.
// Mutating the copy never reaches the store; changes only land through
// Update.
func (r *MemoryDaoRepository) GetByID(ctx context.Context, id string) (*models.Dao, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, ok := r.idIndex[id]
	if !ok {
		return nil, nil
	}
	dao := r.daos[pos].Clone()
	return &dao, nil
}

// Create appends the dossier, rejecting numeroListe duplicates.
func (r *MemoryDaoRepository) Create(ctx context.Context, dao *models.Dao) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.daos {
		if r.daos[i].NumeroListe == dao.NumeroListe {
			return apperrors.ErrDaoNumberExists
		}
	}

	r.daos = append(r.daos, dao.Clone())
	r.rebuildIndexes()
	return nil
}

// Update merges the partial update into the stored dossier.
func (r *MemoryDaoRepository) Update(ctx context.Context, id string, update DaoUpdate) (*models.Dao, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.idIndex[id]
	if !ok {
		return nil, nil
	}

	d := &r.daos[pos]
	applyDaoUpdate(d, &update)
	d.UpdatedAt = time.Now().UTC()

	r.rebuildIndexes()
	dao := d.Clone()
	return &dao, nil
}

// applyDaoUpdate merges the partial update, cloning incoming slices so
// the stored dossier never aliases caller memory.
func applyDaoUpdate(d *models.Dao, u *DaoUpdate) {
	if u.ObjetDossier != nil {
		d.ObjetDossier = *u.ObjetDossier
	}
	if u.Reference != nil {
		d.Reference = *u.Reference
	}
	if u.AutoriteContractante != nil {
		d.AutoriteContractante = *u.AutoriteContractante
	}
	if u.DateDepot != nil {
		d.DateDepot = *u.DateDepot
	}
	if u.Equipe != nil {
		d.Equipe = append([]models.TeamMember(nil), (*u.Equipe)...)
	}
	if u.Tasks != nil {
		tasks := make([]models.Task, len(*u.Tasks))
		for i := range *u.Tasks {
			tasks[i] = (*u.Tasks)[i].Clone()
		}
		d.Tasks = tasks
	}
}

// Delete removes the dossier and reports whether anything was removed.
func (r *MemoryDaoRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.idIndex[id]
	if !ok {
		return false, nil
	}

	r.daos = append(r.daos[:pos], r.daos[pos+1:]...)
	r.rebuildIndexes()
	return true, nil
}

// DeleteAll empties the store.
func (r *MemoryDaoRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.daos = nil
	r.rebuildIndexes()
	return nil
}

// MaxSequence scans stored numeroListe values for the year.
func (r *MemoryDaoRepository) MaxSequence(ctx context.Context, year int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	max := 0
	for i := range r.daos {
		y, seq, ok := ParseNumeroListe(r.daos[i].NumeroListe)
		if ok && y == year && seq > max {
			max = seq
		}
	}
	return max, nil
}
