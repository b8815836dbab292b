package queries

import (
	"context"

	"github.com/google/uuid"
)

type ChargerQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ChargerView, error)
	ListActive(ctx context.Context) ([]*ChargerView, error)
}

type ChargerCatalogRepo interface {
	ChargerViewRepo
	ListActive(ctx context.Context) ([]*ChargerView, error)
}

type chargerQueriesImpl struct {
	repo ChargerCatalogRepo
}

func NewChargerQueries(repo ChargerCatalogRepo) ChargerQueries {
	return &chargerQueriesImpl{repo: repo}
}

func (q *chargerQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*ChargerView, error) {
	return q.repo.FindByID(ctx, id)
}

func (q *chargerQueriesImpl) ListActive(ctx context.Context) ([]*ChargerView, error) {
	return q.repo.ListActive(ctx)
}
