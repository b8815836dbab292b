package components

import (
	"voltshare/internal/infra/db"
	"voltshare/internal/infra/readstore"
	"voltshare/internal/infra/uow"
	"voltshare/internal/usecase/commands"
	"voltshare/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		// UnitOfWork owns the write side; the lazily-built transaction repos
		// live behind it, so only the read stores are wired here.
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingViewRepo)),
			fx.As(new(commands.SweepReads)),
		),
		fx.Annotate(
			readstore.NewChargerReadStore,
			fx.As(new(queries.ChargerViewRepo)),
			fx.As(new(queries.ChargerCatalogRepo)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
