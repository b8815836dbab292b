package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"voltshare/internal/domain/charger"
	"voltshare/internal/domain/pricing"
	"voltshare/internal/infra"
	"voltshare/internal/infra/db"
	"voltshare/internal/infra/repository/converter"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var chargerColumns = []string{
	"id", "host_id", "title", "latitude", "longitude",
	"connector_type", "max_power_kw", "is_active", "auto_accept", "pricing_rule",
	"created_at", "updated_at",
}

type ChargerRepository struct{}

func NewChargerRepository() *ChargerRepository {
	return &ChargerRepository{}
}

func (r *ChargerRepository) Create(ctx context.Context, tx db.DBTX, c *charger.Charger, now time.Time) error {
	ruleJSON, err := converter.MarshalPricingRule(c.Rule())
	if err != nil {
		return infra.WrapRepoErr("failed to encode charger rule", err)
	}

	query, args, err := psql.Insert("chargers").
		Columns(chargerColumns...).
		Values(
			c.ID(), c.HostID(), c.Title(), c.Latitude(), c.Longitude(),
			string(c.Connector()), c.MaxPowerKw(), c.IsActive(), c.AutoAccept(), ruleJSON,
			now, now,
		).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build create charger query", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to create charger", err, pgErrKind(err))
	}
	return nil
}

func (r *ChargerRepository) FindByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*charger.Charger, error) {
	query, args, err := psql.Select(chargerColumns...).
		From("chargers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build find charger query", err)
	}

	var (
		chargerID, hostID   uuid.UUID
		title               string
		latitude, longitude float64
		connectorType       string
		maxPowerKw          float64
		isActive, autoAcc   bool
		ruleJSON            []byte
		createdAt, updated  time.Time
	)
	if err := tx.QueryRow(ctx, query, args...).Scan(
		&chargerID, &hostID, &title, &latitude, &longitude,
		&connectorType, &maxPowerKw, &isActive, &autoAcc, &ruleJSON,
		&createdAt, &updated,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("charger not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find charger", err)
	}

	var rule pricing.Rule
	if err := json.Unmarshal(ruleJSON, &rule); err != nil {
		return nil, infra.WrapRepoErr("failed to decode charger rule", err)
	}

	return charger.ReconstructCharger(
		chargerID, hostID, title, latitude, longitude,
		charger.ConnectorType(connectorType), maxPowerKw, isActive, autoAcc, rule,
		createdAt, updated,
	), nil
}

func (r *ChargerRepository) SetActive(ctx context.Context, tx db.DBTX, id uuid.UUID, active bool, now time.Time) error {
	query, args, err := psql.Update("chargers").
		Set("is_active", active).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build update charger query", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update charger", err)
	}
	if ct.RowsAffected() == 0 {
		return infra.WrapRepoErr("charger not found", nil, infra.KindNotFound)
	}
	return nil
}
