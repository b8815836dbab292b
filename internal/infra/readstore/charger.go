package readstore

import (
	"context"
	"encoding/json"
	"errors"

	"voltshare/internal/infra"
	"voltshare/internal/infra/db"
	"voltshare/internal/usecase/queries"
	"voltshare/internal/usecase/shared"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ChargerReadStore struct {
	db db.DBTX
}

func NewChargerReadStore(dbtx db.DBTX) *ChargerReadStore {
	return &ChargerReadStore{db: dbtx}
}

func (r *ChargerReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ChargerView, error) {
	query, args, err := psql.Select(
		"id", "host_id", "title", "latitude", "longitude",
		"connector_type", "max_power_kw", "is_active", "auto_accept",
		"created_at", "updated_at",
	).
		From("chargers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build find charger view query", err)
	}

	var view queries.ChargerView
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&view.ID, &view.HostID, &view.Title, &view.Latitude, &view.Longitude,
		&view.Connector, &view.MaxPowerKw, &view.IsActive, &view.AutoAccept,
		&view.CreatedAt, &view.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("charger not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find charger view", err)
	}
	return &view, nil
}

// SnapshotByID is the command-side read: it carries the live pricing rule,
// which the list/detail views deliberately omit.
func (r *ChargerReadStore) SnapshotByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*shared.ChargerSnapshot, error) {
	query, args, err := psql.Select(
		"id", "host_id", "title", "latitude", "longitude",
		"connector_type", "max_power_kw", "is_active", "auto_accept", "pricing_rule",
	).
		From("chargers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build charger snapshot query", err)
	}

	var (
		snap     shared.ChargerSnapshot
		ruleJSON []byte
	)
	if err := dbtx.QueryRow(ctx, query, args...).Scan(
		&snap.ID, &snap.HostID, &snap.Title, &snap.Latitude, &snap.Longitude,
		&snap.Connector, &snap.MaxPowerKw, &snap.IsActive, &snap.AutoAccept, &ruleJSON,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("charger not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to read charger snapshot", err)
	}

	if err := json.Unmarshal(ruleJSON, &snap.Rule); err != nil {
		return nil, infra.WrapRepoErr("failed to decode charger rule", err)
	}
	return &snap, nil
}

func (r *ChargerReadStore) ListActive(ctx context.Context) ([]*queries.ChargerView, error) {
	query, args, err := psql.Select(
		"id", "host_id", "title", "latitude", "longitude",
		"connector_type", "max_power_kw", "is_active", "auto_accept",
		"created_at", "updated_at",
	).
		From("chargers").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build list chargers query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list chargers", err)
	}
	defer rows.Close()

	var views []*queries.ChargerView
	for rows.Next() {
		var view queries.ChargerView
		if err := rows.Scan(
			&view.ID, &view.HostID, &view.Title, &view.Latitude, &view.Longitude,
			&view.Connector, &view.MaxPowerKw, &view.IsActive, &view.AutoAccept,
			&view.CreatedAt, &view.UpdatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan charger row", err)
		}
		views = append(views, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate charger rows", err)
	}
	return views, nil
}
