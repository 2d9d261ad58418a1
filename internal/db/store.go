package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JhonesBR/go-ledger/internal/ledger"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

const accountColumns = `id, number, password_hash, balance, user_id, created_at`

var (
	_ ledger.Store = (*Store)(nil)
	_ ledger.Tx    = (*txQueries)(nil)
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements the ledger storage contract on Postgres. Account rows are
// locked with SELECT ... FOR UPDATE inside the unit's transaction.
type Store struct {
	pool *pgxpool.Pool
	queries
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, queries: queries{q: pool}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classifyPgError(err))
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txQueries{queries: queries{q: tx}}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", classifyPgError(err))
	}
	return nil
}

type queries struct {
	q querier
}

type txQueries struct {
	queries
}

func (r queries) FindAccountByNumber(ctx context.Context, number string) (*ledger.Account, error) {
	row := r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number = $1`, number)
	return scanAccount(row)
}

func (r queries) FindAccountByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	row := r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r queries) FindAccountsByUserID(ctx context.Context, userID ledger.UserID) ([]ledger.Account, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at, id`,
		int64(userID),
	)
	if err != nil {
		return nil, classifyPgError(err)
	}
	defer rows.Close()

	accounts := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError(err)
	}
	return accounts, nil
}

func (r queries) FindHistoryByAccountID(ctx context.Context, accountID uuid.UUID, filter ledger.MovementFilter) ([]ledger.History, error) {
	var where string
	switch filter {
	case ledger.FilterDeposit:
		where = `h.d_account_id = $1`
	case ledger.FilterWithdrawal:
		where = `h.w_account_id = $1`
	default:
		where = `(h.w_account_id = $1 OR h.d_account_id = $1)`
	}

	query := `
		SELECT h.id, h.amount, h.w_account_id, h.d_account_id, h.w_balance, h.d_balance, h.created_at,
		       COALESCE(wa.number, ''), COALESCE(da.number, '')
		FROM history h
		LEFT JOIN accounts wa ON wa.id = h.w_account_id
		LEFT JOIN accounts da ON da.id = h.d_account_id
		WHERE ` + where + `
		ORDER BY h.id DESC
	`
	rows, err := r.q.Query(ctx, query, accountID)
	if err != nil {
		return nil, classifyPgError(err)
	}
	defer rows.Close()

	history := make([]ledger.History, 0)
	for rows.Next() {
		var h ledger.History
		if err := rows.Scan(
			&h.ID, &h.Amount, &h.WAccountID, &h.DAccountID, &h.WBalance, &h.DBalance, &h.CreatedAt,
			&h.WAccountNumber, &h.DAccountNumber,
		); err != nil {
			return nil, classifyPgError(err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError(err)
	}
	return history, nil
}

func (r *txQueries) LockAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	row := r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanAccount(row)
}

func (r *txQueries) InsertAccount(ctx context.Context, a *ledger.Account) (int64, error) {
	query := `
		INSERT INTO accounts (id, number, password_hash, balance, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query, a.ID, a.Number, a.PasswordHash, a.Balance, int64(a.UserID)).Scan(&a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, classifyPgError(err)
	}
	return 1, nil
}

func (r *txQueries) UpdateAccountByID(ctx context.Context, a *ledger.Account) (int64, error) {
	tag, err := r.q.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, a.Balance, a.ID)
	if err != nil {
		return 0, classifyPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *txQueries) InsertHistory(ctx context.Context, h *ledger.History) (int64, error) {
	query := `
		INSERT INTO history (amount, w_account_id, d_account_id, w_balance, d_balance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query, h.Amount, h.WAccountID, h.DAccountID, h.WBalance, h.DBalance).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, classifyPgError(err)
	}
	return 1, nil
}

func scanAccount(row pgx.Row) (*ledger.Account, error) {
	var (
		a      ledger.Account
		userID int64
	)
	if err := row.Scan(&a.ID, &a.Number, &a.PasswordHash, &a.Balance, &userID, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrRecordNotFound
		}
		return nil, classifyPgError(err)
	}
	a.UserID = ledger.UserID(userID)
	return &a, nil
}

// classifyPgError maps Postgres error codes onto the ledger store sentinels.
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateNumber, pgErr.ConstraintName)
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%w: %s", ledger.ErrConflict, pgErr.Message)
	}
	return err
}
