package commands

import (
	"context"

	"voltshare/internal/domain/charger"
	"voltshare/internal/domain/pricing"
	"voltshare/internal/infra"
	"voltshare/internal/pkg/clock"
	"voltshare/internal/pkg/errs"
	"voltshare/internal/usecase/queries"
	"voltshare/internal/usecase/shared"

	"github.com/google/uuid"
)

type RegisterChargerParams struct {
	Title      string
	Latitude   float64
	Longitude  float64
	Connector  string
	MaxPowerKw float64
	AutoAccept bool
	Rule       pricing.Rule
}

type ChargerCommands interface {
	RegisterCharger(ctx context.Context, params RegisterChargerParams, hostID uuid.UUID) (*queries.ChargerView, error)
	SetChargerActive(ctx context.Context, chargerID, hostID uuid.UUID, active bool) error
}

type chargerUseCaseImpl struct {
	uow          shared.UnitOfWork
	chargerViews queries.ChargerViewRepo
	clock        clock.Clock
}

func NewChargerUseCase(uow shared.UnitOfWork, chargerViews queries.ChargerViewRepo, clk clock.Clock) ChargerCommands {
	return &chargerUseCaseImpl{uow: uow, chargerViews: chargerViews, clock: clk}
}

// RegisterCharger validates the listing through the domain constructor; the
// pricing rule is checked once here and trusted downstream.
func (r *chargerUseCaseImpl) RegisterCharger(ctx context.Context, params RegisterChargerParams, hostID uuid.UUID) (*queries.ChargerView, error) {
	entity, err := charger.NewCharger(
		uuid.New(), hostID,
		params.Title, params.Latitude, params.Longitude,
		charger.ConnectorType(params.Connector),
		params.MaxPowerKw,
		true, params.AutoAccept,
		params.Rule,
	)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	now := r.clock.Now()
	err = r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Chargers().Create(ctx, tx.DB(), entity, now); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.chargerViews.FindByID(ctx, entity.ID())
}

// SetChargerActive flips the listing. Deactivation does not touch existing
// bookings; it only stops new ones from committing.
func (r *chargerUseCaseImpl) SetChargerActive(ctx context.Context, chargerID, hostID uuid.UUID, active bool) error {
	return r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := tx.Chargers().FindByID(ctx, tx.DB(), chargerID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrChargerNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if entity.HostID() != hostID {
			return ErrNotChargerHost
		}
		return tx.Chargers().SetActive(ctx, tx.DB(), chargerID, active, r.clock.Now())
	})
}
