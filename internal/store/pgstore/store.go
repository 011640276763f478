// Package pgstore хранит те же два журнала в Postgres: по таблице на журнал,
// порядок записей задаёт колонка pos. Каждое сохранение переписывает таблицу
// целиком в одной транзакции.
package pgstore

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/Spok95/site-materials/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	purchaseColumns = []string{
		"pos", "date", "site_name", "material_type", "material_name",
		"quantity", "unit", "unit_cost", "total_cost", "supplier", "notes",
	}
	usageColumns = []string{
		"pos", "usage_date", "material_id", "site_name", "material_name",
		"used_quantity", "unit", "usage_purpose", "used_by", "notes",
	}
)

type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

var _ ledger.Store = (*Store)(nil)

// Open подключается к базе и применяет миграции.
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("postgres store ready")
	return &Store{pool: pool, log: log}, nil
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) LoadPurchases(ctx context.Context) ([]purchases.Purchase, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, site_name, material_type, material_name,
		       quantity, unit, unit_cost, total_cost, supplier, notes
		FROM purchases ORDER BY pos
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []purchases.Purchase
	for rows.Next() {
		var (
			p                    purchases.Purchase
			date                 time.Time
			qty, cost, totalCost pgtype.Numeric
		)
		if err := rows.Scan(&date, &p.SiteName, &p.MaterialType, &p.MaterialName,
			&qty, &p.Unit, &cost, &totalCost, &p.Supplier, &p.Notes); err != nil {
			return nil, err
		}
		p.ID = len(out)
		p.Date = values.DateOf(date)
		p.Quantity, p.UnitCost, p.TotalCost = fromNumeric(qty), fromNumeric(cost), fromNumeric(totalCost)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) LoadUsage(ctx context.Context) ([]usage.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT usage_date, material_id, site_name, material_name,
		       used_quantity, unit, usage_purpose, used_by, notes
		FROM material_usage ORDER BY pos
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usage.Record
	for rows.Next() {
		var (
			r    usage.Record
			date time.Time
			qty  pgtype.Numeric
		)
		if err := rows.Scan(&date, &r.MaterialID, &r.SiteName, &r.MaterialName,
			&qty, &r.Unit, &r.UsagePurpose, &r.UsedBy, &r.Notes); err != nil {
			return nil, err
		}
		r.UsageDate = values.DateOf(date)
		r.UsedQuantity = fromNumeric(qty)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SavePurchases(ctx context.Context, ps []purchases.Purchase) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return replacePurchases(ctx, tx, ps)
	})
}

func (s *Store) SaveUsage(ctx context.Context, us []usage.Record) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return replaceUsage(ctx, tx, us)
	})
}

// SaveAll оба журнала в одной транзакции.
func (s *Store) SaveAll(ctx context.Context, ps []purchases.Purchase, us []usage.Record) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := replacePurchases(ctx, tx, ps); err != nil {
			return err
		}
		return replaceUsage(ctx, tx, us)
	})
}

func replacePurchases(ctx context.Context, tx pgx.Tx, ps []purchases.Purchase) error {
	if _, err := tx.Exec(ctx, `TRUNCATE purchases`); err != nil {
		return err
	}
	rows := make([][]any, 0, len(ps))
	for i, p := range ps {
		rows = append(rows, []any{
			i, p.Date.Time, p.SiteName, p.MaterialType, p.MaterialName,
			toNumeric(p.Quantity), p.Unit, toNumeric(p.UnitCost), toNumeric(p.TotalCost),
			p.Supplier, p.Notes,
		})
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"purchases"}, purchaseColumns, pgx.CopyFromRows(rows))
	return err
}

func replaceUsage(ctx context.Context, tx pgx.Tx, us []usage.Record) error {
	if _, err := tx.Exec(ctx, `TRUNCATE material_usage`); err != nil {
		return err
	}
	rows := make([][]any, 0, len(us))
	for i, r := range us {
		rows = append(rows, []any{
			i, r.UsageDate.Time, r.MaterialID, r.SiteName, r.MaterialName,
			toNumeric(r.UsedQuantity), r.Unit, r.UsagePurpose, r.UsedBy, r.Notes,
		})
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"material_usage"}, usageColumns, pgx.CopyFromRows(rows))
	return err
}

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
