package ledger

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/JhonesBR/go-ledger/internal/ledger"

// DefaultMaxRetries bounds how often a unit that lost a serialization race
// is replayed.
const DefaultMaxRetries = 3

type CreateAccountInput struct {
	Number         string
	Password       string
	InitialBalance int64
}

type WithdrawInput struct {
	Number   string
	Password string
	Amount   int64
}

type DepositInput struct {
	Number string
	Amount int64
}

type TransferInput struct {
	FromNumber string
	ToNumber   string
	Password   string
	Amount     int64
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPasswordCost sets the bcrypt cost used for new account passwords.
func WithPasswordCost(cost int) Option {
	return func(s *Service) {
		s.passwordCost = cost
	}
}

func WithMaxRetries(n uint64) Option {
	return func(s *Service) {
		s.maxRetries = n
	}
}

// Service runs the ledger operations. Each mutating operation is one atomic
// unit on the Store.
type Service struct {
	store        Store
	logger       *zap.Logger
	tracer       trace.Tracer
	passwordCost int
	maxRetries   uint64
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount opens a new account owned by caller.
func (s *Service) CreateAccount(ctx context.Context, caller UserID, in CreateAccountInput) (_ *Account, err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount", attribute.String("account.number", in.Number))
	defer func() { endSpan(span, err) }()

	switch {
	case strings.TrimSpace(in.Number) == "":
		return nil, validationError("account number is required")
	case in.Password == "":
		return nil, validationError("account password is required")
	case len(in.Password) > maxPasswordLen:
		return nil, validationError("account password is too long")
	case in.InitialBalance <= 0:
		return nil, validationError("initial balance must be greater than zero")
	}

	hash, err := hashPassword(in.Password, s.passwordCost)
	if err != nil {
		return nil, newError(KindUnknown, "could not hash account password", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, newError(KindUnknown, "could not allocate account id", err)
	}

	account := &Account{
		ID:           id,
		Number:       in.Number,
		PasswordHash: hash,
		Balance:      in.InitialBalance,
		UserID:       caller,
	}

	err = s.runInTx(ctx, func(ctx context.Context, tx Tx) error {
		n, err := tx.InsertAccount(ctx, account)
		if err != nil {
			return classify(err, "could not create account")
		}
		if n == 0 {
			return ErrPersistence
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID.String()),
		zap.Int64("user_id", int64(caller)),
		zap.Int64("balance", account.Balance),
	)
	return account, nil
}

// Withdraw debits an account owned by caller. Ownership is checked before the
// password, and the password before the balance.
func (s *Service) Withdraw(ctx context.Context, caller UserID, in WithdrawInput) (_ *History, err error) {
	ctx, span := s.startSpan(ctx, "Withdraw",
		attribute.String("account.number", in.Number),
		attribute.Int64("amount", in.Amount),
	)
	defer func() { endSpan(span, err) }()

	switch {
	case strings.TrimSpace(in.Number) == "":
		return nil, validationError("account number is required")
	case in.Password == "":
		return nil, validationError("account password is required")
	case in.Amount <= 0:
		return nil, validationError("amount must be greater than zero")
	}

	var history *History
	err = s.runInTx(ctx, func(ctx context.Context, tx Tx) error {
		account, err := lockByNumber(ctx, tx, in.Number)
		if err != nil {
			return err
		}
		if err := account.CheckOwner(caller); err != nil {
			return err
		}
		if err := account.CheckPassword(in.Password); err != nil {
			return err
		}
		if err := account.CheckBalance(in.Amount); err != nil {
			return err
		}
		if err := account.Withdraw(in.Amount); err != nil {
			return err
		}
		if err := updateAccount(ctx, tx, account); err != nil {
			return err
		}

		history = withdrawalHistory(account, in.Amount)
		return insertHistory(ctx, tx, history)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal committed",
		zap.String("account_id", history.WAccountID.String()),
		zap.Int64("amount", history.Amount),
		zap.Int64("balance", *history.WBalance),
		zap.Int64("caller", int64(caller)),
	)
	return history, nil
}

// Deposit credits any existing account. caller is recorded in the logs only.
func (s *Service) Deposit(ctx context.Context, caller UserID, in DepositInput) (_ *History, err error) {
	ctx, span := s.startSpan(ctx, "Deposit",
		attribute.String("account.number", in.Number),
		attribute.Int64("amount", in.Amount),
	)
	defer func() { endSpan(span, err) }()

	switch {
	case strings.TrimSpace(in.Number) == "":
		return nil, validationError("account number is required")
	case in.Amount <= 0:
		return nil, validationError("amount must be greater than zero")
	}

	var history *History
	err = s.runInTx(ctx, func(ctx context.Context, tx Tx) error {
		account, err := lockByNumber(ctx, tx, in.Number)
		if err != nil {
			return err
		}
		if err := account.CheckDepositAmount(in.Amount); err != nil {
			return err
		}
		if err := account.Deposit(in.Amount); err != nil {
			return err
		}
		if err := updateAccount(ctx, tx, account); err != nil {
			return err
		}

		history = depositHistory(account, in.Amount)
		return insertHistory(ctx, tx, history)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("deposit committed",
		zap.String("account_id", history.DAccountID.String()),
		zap.Int64("amount", history.Amount),
		zap.Int64("balance", *history.DBalance),
		zap.Int64("caller", int64(caller)),
	)
	return history, nil
}

// Transfer moves funds from an account owned by caller to any other account.
// Both rows are locked in ascending id order, so two opposite transfers
// between the same pair cannot deadlock.
func (s *Service) Transfer(ctx context.Context, caller UserID, in TransferInput) (_ *History, err error) {
	ctx, span := s.startSpan(ctx, "Transfer",
		attribute.String("account.from", in.FromNumber),
		attribute.String("account.to", in.ToNumber),
		attribute.Int64("amount", in.Amount),
	)
	defer func() { endSpan(span, err) }()

	switch {
	case strings.TrimSpace(in.FromNumber) == "" || strings.TrimSpace(in.ToNumber) == "":
		return nil, validationError("account number is required")
	case in.Password == "":
		return nil, validationError("account password is required")
	case in.Amount <= 0:
		return nil, validationError("amount must be greater than zero")
	case in.FromNumber == in.ToNumber:
		return nil, validationError("source and destination accounts must differ")
	}

	var history *History
	err = s.runInTx(ctx, func(ctx context.Context, tx Tx) error {
		from, err := tx.FindAccountByNumber(ctx, in.FromNumber)
		if err != nil {
			return classify(err, "could not load source account")
		}
		to, err := tx.FindAccountByNumber(ctx, in.ToNumber)
		if err != nil {
			return classify(err, "could not load destination account")
		}

		locked, err := lockInOrder(ctx, tx, from.ID, to.ID)
		if err != nil {
			return err
		}
		from, to = locked[from.ID], locked[to.ID]

		if err := from.CheckOwner(caller); err != nil {
			return err
		}
		if err := from.CheckPassword(in.Password); err != nil {
			return err
		}
		if in.Amount > from.Balance {
			return ErrInsufficientFunds
		}

		// Credit first, then debit. Both legs share the unit.
		if err := to.Deposit(in.Amount); err != nil {
			return err
		}
		if err := updateAccount(ctx, tx, to); err != nil {
			return err
		}
		if err := from.Withdraw(in.Amount); err != nil {
			return err
		}
		if err := updateAccount(ctx, tx, from); err != nil {
			return err
		}

		history = transferHistory(from, to, in.Amount)
		return insertHistory(ctx, tx, history)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer committed",
		zap.String("from_account_id", history.WAccountID.String()),
		zap.String("to_account_id", history.DAccountID.String()),
		zap.Int64("amount", history.Amount),
		zap.Int64("caller", int64(caller)),
	)
	return history, nil
}

// AccountsByUser lists the caller's accounts in creation order.
func (s *Service) AccountsByUser(ctx context.Context, caller UserID) (_ []Account, err error) {
	ctx, span := s.startSpan(ctx, "AccountsByUser")
	defer func() { endSpan(span, err) }()

	accounts, err := s.store.FindAccountsByUserID(ctx, caller)
	if err != nil {
		return nil, classify(err, "could not list accounts")
	}
	return accounts, nil
}

// Account returns one account owned by caller.
func (s *Service) Account(ctx context.Context, caller UserID, id uuid.UUID) (_ *Account, err error) {
	ctx, span := s.startSpan(ctx, "Account", attribute.String("account.id", id.String()))
	defer func() { endSpan(span, err) }()

	return s.ownedAccount(ctx, caller, id)
}

// History lists the movements of an account owned by caller, most recent
// first.
func (s *Service) History(ctx context.Context, caller UserID, accountID uuid.UUID, filter MovementFilter) (_ []History, err error) {
	ctx, span := s.startSpan(ctx, "History",
		attribute.String("account.id", accountID.String()),
		attribute.String("filter", string(filter)),
	)
	defer func() { endSpan(span, err) }()

	if _, err := s.ownedAccount(ctx, caller, accountID); err != nil {
		return nil, err
	}
	rows, err := s.store.FindHistoryByAccountID(ctx, accountID, filter)
	if err != nil {
		return nil, classify(err, "could not load history")
	}
	return rows, nil
}

func (s *Service) ownedAccount(ctx context.Context, caller UserID, id uuid.UUID) (*Account, error) {
	account, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		return nil, classify(err, "could not load account")
	}
	if err := account.CheckOwner(caller); err != nil {
		return nil, err
	}
	return account, nil
}

// runInTx runs fn as one unit and replays it while the store reports a
// serialization conflict.
func (s *Service) runInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond

	err := backoff.RetryNotify(func() error {
		err := s.store.WithinTx(ctx, fn)
		if err == nil || errors.Is(err, ErrConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, s.maxRetries), ctx),
		func(err error, wait time.Duration) {
			s.logger.Warn("retrying conflicting transaction", zap.Error(err), zap.Duration("wait", wait))
		})
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, ErrConflict) {
		return newError(KindConflict, "account is busy, please retry", err)
	}
	return classify(err, "storage failure")
}

func lockByNumber(ctx context.Context, tx Tx, number string) (*Account, error) {
	account, err := tx.FindAccountByNumber(ctx, number)
	if err != nil {
		return nil, classify(err, "could not load account")
	}
	locked, err := tx.LockAccount(ctx, account.ID)
	if err != nil {
		return nil, classify(err, "could not lock account")
	}
	return locked, nil
}

// lockInOrder locks every account in ascending id order.
func lockInOrder(ctx context.Context, tx Tx, ids ...uuid.UUID) (map[uuid.UUID]*Account, error) {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	sorted = slices.Compact(sorted)

	locked := make(map[uuid.UUID]*Account, len(sorted))
	for _, id := range sorted {
		account, err := tx.LockAccount(ctx, id)
		if err != nil {
			return nil, classify(err, "could not lock account")
		}
		locked[id] = account
	}
	return locked, nil
}

func updateAccount(ctx context.Context, tx Tx, a *Account) error {
	n, err := tx.UpdateAccountByID(ctx, a)
	if err != nil {
		return classify(err, "could not update account")
	}
	if n != 1 {
		return ErrPersistence
	}
	return nil
}

func insertHistory(ctx context.Context, tx Tx, h *History) error {
	n, err := tx.InsertHistory(ctx, h)
	if err != nil {
		return classify(err, "could not record history")
	}
	if n != 1 {
		return ErrPersistence
	}
	return nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "ledger."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
	}
	span.End()
}
