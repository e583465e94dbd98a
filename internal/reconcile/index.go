package reconcile

import (
	"context"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/divipola"
	"github.com/caqueta-electoral/divipola/internal/errors"
)

// index maps match keys onto the stored active polling places.
type index struct {
	places           map[string][]*entities.PollingPlace
	municipalities   map[string]*entities.Municipality // by normalized name
	municipalityByID map[uint]*entities.Municipality
}

// lookup returns the single polling place stored under key. Ambiguous keys
// are treated like missing ones.
func (idx *index) lookup(key string) (*entities.PollingPlace, bool) {
	candidates := idx.places[key]
	if len(candidates) != 1 {
		return nil, false
	}
	return candidates[0], true
}

func (r *Reconciler) loadIndex(ctx context.Context) (*index, error) {
	dept, err := r.store.Departments().GetByCode(ctx, r.jurisdiction.DepartmentCode)
	if err != nil {
		return nil, errors.New(err).
			Component("reconcile").
			Category(errors.CategoryNotFound).
			Context("department_code", r.jurisdiction.DepartmentCode).
			Build()
	}

	muns, err := r.store.Municipalities().GetByDepartment(ctx, dept.ID)
	if err != nil {
		return nil, indexError(err, "list-municipalities")
	}

	idx := &index{
		places:           make(map[string][]*entities.PollingPlace),
		municipalities:   make(map[string]*entities.Municipality, len(muns)),
		municipalityByID: make(map[uint]*entities.Municipality, len(muns)),
	}
	for _, m := range muns {
		idx.municipalities[divipola.NormalizeName(m.Name)] = m
		idx.municipalityByID[m.ID] = m
	}

	places, err := r.store.PollingPlaces().GetAll(ctx)
	if err != nil {
		return nil, indexError(err, "list-polling-places")
	}
	for _, p := range places {
		mun, ok := idx.municipalityByID[p.MunicipalityID]
		if !ok || !p.Active {
			continue
		}
		key := divipola.MatchKey(mun.Name, p.Name)
		idx.places[key] = append(idx.places[key], p)
	}

	return idx, nil
}

func indexError(err error, operation string) error {
	return errors.New(err).
		Component("reconcile").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}
