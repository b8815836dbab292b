package migrate

import (
	"database/sql"
	"embed"
	"fmt"

	"voltshare/internal/pkg/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Up applies pending schema migrations. Runs through database/sql because
// goose does not speak the pgx pool directly.
func Up(cfg config.DBConfig) error {
	db, err := sql.Open("pgx", cfg.BuildDSN())
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
