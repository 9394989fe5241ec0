// Package recommend turns workout logs into usage-based equipment
// recommendations and compacts workout history for external analysis.
//
// Everything here operates on in-memory snapshots fetched per request:
//
//	workouts ──► RankCategories ──┐
//	                              ├──► Compose ──► Result
//	workouts ──► RankPopularity ──┘
//
// Equipment references that do not resolve against the Catalog are dropped
// from aggregation and reported through Stats; they are never errors.
package recommend

import (
	"alcyxob/gym-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Catalog resolves equipment ids to catalog records.
type Catalog interface {
	Lookup(id primitive.ObjectID) (*domain.Equipment, bool)
}

// MapCatalog is a Catalog backed by a map, usually built from one batch query.
type MapCatalog map[primitive.ObjectID]*domain.Equipment

// NewCatalog indexes the given records by id.
func NewCatalog(records []domain.Equipment) MapCatalog {
	c := make(MapCatalog, len(records))
	for i := range records {
		c[records[i].ID] = &records[i]
	}
	return c
}

func (c MapCatalog) Lookup(id primitive.ObjectID) (*domain.Equipment, bool) {
	eq, ok := c[id]
	return eq, ok
}

// Stats reports how many workout items an aggregation looked at and how
// many were dropped because their equipment could not be resolved.
type Stats struct {
	Considered int
	Dropped    int
}

// Limits bounds the size of each ranking stage.
type Limits struct {
	TopCategories int
	PopularLimit  int
	ResultLimit   int
}

// DefaultLimits returns the standard bounds: 3 categories, 20 popular
// items, 10 recommendations.
func DefaultLimits() Limits {
	return Limits{
		TopCategories: 3,
		PopularLimit:  20,
		ResultLimit:   10,
	}
}

// WithDefaults fills any non-positive bound from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.TopCategories <= 0 {
		l.TopCategories = d.TopCategories
	}
	if l.PopularLimit <= 0 {
		l.PopularLimit = d.PopularLimit
	}
	if l.ResultLimit <= 0 {
		l.ResultLimit = d.ResultLimit
	}
	return l
}
