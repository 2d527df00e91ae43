package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fin_ratio/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PGRepo is the Postgres-backed Repository.
type PGRepo struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPGRepo wraps an open pool.
func NewPGRepo(pool *pgxpool.Pool, logger zerolog.Logger) *PGRepo {
	return &PGRepo{
		pool: pool,
		log:  logger.With().Str("component", "pg_repo").Logger(),
	}
}

func (r *PGRepo) Close() {
	r.pool.Close()
}

func (r *PGRepo) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(pgSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

func (r *PGRepo) LatestYear(ctx context.Context, corpName string) (string, bool, error) {
	var year *string
	err := r.pool.QueryRow(ctx, `SELECT MAX(bsns_year) FROM fin_data WHERE corp_name = $1`, corpName).Scan(&year)
	if err != nil {
		return "", false, fmt.Errorf("failed to query latest year: %w", err)
	}
	if year == nil {
		return "", false, nil
	}
	return *year, true, nil
}

func (r *PGRepo) FindCompany(ctx context.Context, corpName string) (*models.CompanyInfo, error) {
	var c models.CompanyInfo
	err := r.pool.QueryRow(ctx, `
		SELECT corp_code, corp_name, stock_code
		FROM fin_data
		WHERE corp_name = $1
		ORDER BY bsns_year DESC
		LIMIT 1`, corpName).Scan(&c.CorpCode, &c.CorpName, &c.StockCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query company: %w", err)
	}
	return &c, nil
}

func (r *PGRepo) ListStatements(ctx context.Context, corpName string) ([]models.StatementRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+statementColumns+`
		FROM fin_data
		WHERE corp_name = $1
		ORDER BY bsns_year DESC, sj_div, ord`, corpName)
	if err != nil {
		return nil, fmt.Errorf("failed to query statements: %w", err)
	}
	defer rows.Close()

	var out []models.StatementRow
	for rows.Next() {
		s, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetRatio(ctx context.Context, corpCode, bsnsYear string) (*models.RatioRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+ratioColumns+`
		FROM fin_ratio
		WHERE corp_code = $1 AND bsns_year = $2`, corpCode, bsnsYear)
	rec, err := scanRatio(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ratio: %w", err)
	}
	return &rec, nil
}

func (r *PGRepo) ListRatios(ctx context.Context, corpName string) ([]models.RatioRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+ratioColumns+`
		FROM fin_ratio
		WHERE corp_name = $1
		ORDER BY bsns_year DESC`, corpName)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratios: %w", err)
	}
	defer rows.Close()

	var out []models.RatioRecord
	for rows.Next() {
		rec, err := scanRatio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ratio: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PGRepo) StatementSummary(ctx context.Context) ([]models.SummaryRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT corp_code, corp_name, sj_div, sj_nm, COUNT(*)
		FROM fin_data
		GROUP BY corp_code, corp_name, sj_div, sj_nm
		ORDER BY corp_name, sj_div, sj_nm`)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	defer rows.Close()

	var out []models.SummaryRow
	for rows.Next() {
		var s models.SummaryRow
		if err := rows.Scan(&s.CorpCode, &s.CorpName, &s.SjDiv, &s.SjNm, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepo) KeyItems(ctx context.Context, accounts []string) ([]models.StatementRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+statementColumns+`
		FROM fin_data
		WHERE account_nm = ANY($1)
		ORDER BY corp_name, bsns_year DESC, sj_div, ord`, accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to query key items: %w", err)
	}
	defer rows.Close()

	var out []models.StatementRow
	for rows.Next() {
		s, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan key item: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// =============================================================================
// WRITES
// =============================================================================

func (r *PGRepo) ReplaceFinancials(ctx context.Context, corpCode, bsnsYear string, rows []models.StatementRow, ratio *models.RatioRecord) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM fin_data WHERE corp_code = $1 AND bsns_year = $2`, corpCode, bsnsYear); err != nil {
			return fmt.Errorf("failed to delete statements: %w", err)
		}

		insert := `INSERT INTO fin_data (` + statementColumns + `) VALUES (` + placeholders(statementColumnCount, true) + `)`
		batch := &pgx.Batch{}
		for _, row := range rows {
			batch.Queue(insert, statementArgs(row)...)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("failed to insert statements: %w", err)
			}
		}

		if ratio == nil {
			return nil
		}
		return replaceRatioTx(ctx, tx, ratio)
	})
}

func (r *PGRepo) ReplaceRatio(ctx context.Context, rec *models.RatioRecord) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return replaceRatioTx(ctx, tx, rec)
	})
}

func replaceRatioTx(ctx context.Context, tx pgx.Tx, rec *models.RatioRecord) error {
	if _, err := tx.Exec(ctx, `DELETE FROM fin_ratio WHERE corp_code = $1 AND bsns_year = $2`, rec.CorpCode, rec.BsnsYear); err != nil {
		return fmt.Errorf("failed to delete ratio: %w", err)
	}
	insert := `INSERT INTO fin_ratio (` + ratioColumns + `) VALUES (` + placeholders(ratioColumnCount, true) + `)`
	if _, err := tx.Exec(ctx, insert, ratioArgs(rec)...); err != nil {
		return fmt.Errorf("failed to insert ratio: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction and commits only if fn succeeds.
func (r *PGRepo) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.log.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
