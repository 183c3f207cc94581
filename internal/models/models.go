package models

import (
	"time"
)

// Record is implemented by entities stored in the history database.
type Record interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Keys understood by [Repository.List] criteria maps.
const (
	CriteriaDestination = "destination" // label or id, exact
	CriteriaView        = "view"        // label or id, exact
	CriteriaMood        = "mood"        // label or id, exact
	CriteriaSearch      = "search"      // substring of the selected title
	CriteriaOrder       = "order"       // "asc" for oldest first
	CriteriaLimit       = "limit"       // int, zero means unlimited
)

// SlotCriteria lists the criteria keys that filter on a selection slot.
var SlotCriteria = []string{CriteriaDestination, CriteriaView, CriteriaMood}

// Repository stores records of type T. List returns newest first unless
// criteria[CriteriaOrder] is "asc".
type Repository[T Record] interface {
	Create(record T) error
	Get(id string) (T, error)
	Update(record T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}
