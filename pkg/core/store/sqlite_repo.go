package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"fin_ratio/pkg/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteRepo is the embedded Repository used for local runs and tests.
type SQLiteRepo struct {
	db  *sql.DB
	mu  sync.RWMutex
	log zerolog.Logger
}

// NewSQLiteRepo opens (or creates) the database at path. The schema is not
// created until Migrate is called.
func NewSQLiteRepo(path string, logger zerolog.Logger) (*SQLiteRepo, error) {
	dsn := path
	if path != MemoryPath {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	return &SQLiteRepo{
		db:  db,
		log: logger.With().Str("component", "sqlite_repo").Logger(),
	}, nil
}

func (r *SQLiteRepo) Close() {
	if err := r.db.Close(); err != nil {
		r.log.Warn().Err(err).Msg("failed to close database")
	}
}

func (r *SQLiteRepo) Migrate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stmt := range sqliteSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

func (r *SQLiteRepo) LatestYear(ctx context.Context, corpName string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var year sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT MAX(bsns_year) FROM fin_data WHERE corp_name = ?`, corpName).Scan(&year)
	if err != nil {
		return "", false, fmt.Errorf("failed to query latest year: %w", err)
	}
	if !year.Valid {
		return "", false, nil
	}
	return year.String, true, nil
}

func (r *SQLiteRepo) FindCompany(ctx context.Context, corpName string) (*models.CompanyInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var c models.CompanyInfo
	err := r.db.QueryRowContext(ctx, `
		SELECT corp_code, corp_name, stock_code
		FROM fin_data
		WHERE corp_name = ?
		ORDER BY bsns_year DESC
		LIMIT 1`, corpName).Scan(&c.CorpCode, &c.CorpName, &c.StockCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query company: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepo) ListStatements(ctx context.Context, corpName string) ([]models.StatementRow, error) {
	return r.queryStatements(ctx, `
		SELECT `+statementColumns+`
		FROM fin_data
		WHERE corp_name = ?
		ORDER BY bsns_year DESC, sj_div, ord`, corpName)
}

func (r *SQLiteRepo) KeyItems(ctx context.Context, accounts []string) ([]models.StatementRow, error) {
	if len(accounts) == 0 {
		return nil, nil
	}
	args := make([]any, len(accounts))
	for i, a := range accounts {
		args[i] = a
	}
	return r.queryStatements(ctx, `
		SELECT `+statementColumns+`
		FROM fin_data
		WHERE account_nm IN (`+placeholders(len(accounts), false)+`)
		ORDER BY corp_name, bsns_year DESC, sj_div, ord`, args...)
}

func (r *SQLiteRepo) queryStatements(ctx context.Context, query string, args ...any) ([]models.StatementRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r *SQLiteRepo) GetRatio(ctx context.Context, corpCode, bsnsYear string) (*models.RatioRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+ratioColumns+`
		FROM fin_ratio
		WHERE corp_code = ? AND bsns_year = ?`, corpCode, bsnsYear)
	rec, err := scanRatio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ratio: %w", err)
	}
	return &rec, nil
}

func (r *SQLiteRepo) ListRatios(ctx context.Context, corpName string) ([]models.RatioRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ratioColumns+`
		FROM fin_ratio
		WHERE corp_name = ?
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

func (r *SQLiteRepo) StatementSummary(ctx context.Context) ([]models.SummaryRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, `
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

// =============================================================================
// WRITES
// =============================================================================

func (r *SQLiteRepo) ReplaceFinancials(ctx context.Context, corpCode, bsnsYear string, rows []models.StatementRow, ratio *models.RatioRecord) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fin_data WHERE corp_code = ? AND bsns_year = ?`, corpCode, bsnsYear); err != nil {
			return fmt.Errorf("failed to delete statements: %w", err)
		}

		if len(rows) > 0 {
			stmt, err := tx.PrepareContext(ctx, `INSERT INTO fin_data (`+statementColumns+`) VALUES (`+placeholders(statementColumnCount, false)+`)`)
			if err != nil {
				return fmt.Errorf("failed to prepare insert: %w", err)
			}
			defer stmt.Close()

			for _, row := range rows {
				if _, err := stmt.ExecContext(ctx, statementArgs(row)...); err != nil {
					return fmt.Errorf("failed to insert statement %s: %w", row.AccountNm, err)
				}
			}
		}

		if ratio == nil {
			return nil
		}
		return replaceRatioSQL(ctx, tx, ratio)
	})
}

func (r *SQLiteRepo) ReplaceRatio(ctx context.Context, rec *models.RatioRecord) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return replaceRatioSQL(ctx, tx, rec)
	})
}

func replaceRatioSQL(ctx context.Context, tx *sql.Tx, rec *models.RatioRecord) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM fin_ratio WHERE corp_code = ? AND bsns_year = ?`, rec.CorpCode, rec.BsnsYear); err != nil {
		return fmt.Errorf("failed to delete ratio: %w", err)
	}
	insert := `INSERT INTO fin_ratio (` + ratioColumns + `) VALUES (` + placeholders(ratioColumnCount, false) + `)`
	if _, err := tx.ExecContext(ctx, insert, ratioArgs(rec)...); err != nil {
		return fmt.Errorf("failed to insert ratio: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.log.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
