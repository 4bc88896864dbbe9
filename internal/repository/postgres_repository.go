package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/greencycle/greencycle-server/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Waste report operations
	CreateWasteReport(ctx context.Context, report *models.WasteReport) error
	GetWasteReport(ctx context.Context, id string) (*models.WasteReport, error)
	GetUserWasteReports(ctx context.Context, userID string) ([]models.WasteReport, error)
	GetRecentWasteReports(ctx context.Context, limit int) ([]models.WasteReport, error)
	UpdateWasteReportStatus(ctx context.Context, id, status string) (bool, error)

	// Token account operations
	GetTokenAccount(ctx context.Context, userID string) (*models.TokenAccount, error)
	CreditTokens(ctx context.Context, userID string, amount int64, initialLevel int) (int64, error)
	SpendTokens(ctx context.Context, userID string, amount int64) (int64, bool, error)
	SetTokenLevel(ctx context.Context, userID string, level int) error
	SetTokenBalance(ctx context.Context, userID string, balance int64, level int) error

	// Token ledger operations
	AddTokenTransaction(ctx context.Context, txn *models.TokenTransaction) error
	GetUserTransactions(ctx context.Context, userID string, limit int) ([]models.TokenTransaction, error)
	SumLedger(ctx context.Context, userID string) (int64, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)

	// Admin membership operations
	HasAdminMembership(ctx context.Context, userID string) (bool, error)
	AddAdminMembership(ctx context.Context, membership *models.AdminMembership) error
	CallIsAdmin(ctx context.Context, userID string) (bool, error)

	// Reward operations
	CreateReward(ctx context.Context, reward *models.Reward) error
	ListRewards(ctx context.Context) ([]models.Reward, error)
	GetReward(ctx context.Context, id string) (*models.Reward, error)
	DecrementRewardStock(ctx context.Context, id string) (bool, error)

	// Collection event operations
	CreateCollectionEvent(ctx context.Context, event *models.CollectionEvent) error
	ListCollectionEvents(ctx context.Context) ([]models.CollectionEvent, error)
	UpdateCollectionEventStatus(ctx context.Context, id, status string) (bool, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

// Waste report repository methods
func (r *PostgresRepository) CreateWasteReport(ctx context.Context, report *models.WasteReport) error {
	query := `
		INSERT INTO waste_reports
			(id, user_id, title, location, waste_type, waste_size, photo_url,
			 status, verify_label, verify_confidence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if report.ID == "" {
		report.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.UserID, report.Title, report.Location,
		report.WasteType, report.WasteSize, report.PhotoURL,
		report.Status, report.VerifyLabel, report.VerifyConfidence,
		report.CreatedAt, report.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetWasteReport(ctx context.Context, id string) (*models.WasteReport, error) {
	query := `SELECT * FROM waste_reports WHERE id = $1`

	var report models.WasteReport
	err := r.db.GetContext(ctx, &report, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Report not found
		}
		return nil, err
	}

	return &report, nil
}

func (r *PostgresRepository) GetUserWasteReports(ctx context.Context, userID string) ([]models.WasteReport, error) {
	query := `SELECT * FROM waste_reports WHERE user_id = $1 ORDER BY created_at DESC`

	var reports []models.WasteReport
	err := r.db.SelectContext(ctx, &reports, query, userID)
	if err != nil {
		return nil, err
	}

	return reports, nil
}

func (r *PostgresRepository) GetRecentWasteReports(ctx context.Context, limit int) ([]models.WasteReport, error) {
	query := `SELECT * FROM waste_reports ORDER BY created_at DESC LIMIT $1`

	var reports []models.WasteReport
	err := r.db.SelectContext(ctx, &reports, query, limit)
	if err != nil {
		return nil, err
	}

	return reports, nil
}

func (r *PostgresRepository) UpdateWasteReportStatus(ctx context.Context, id, status string) (bool, error) {
	query := `UPDATE waste_reports SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// Token account repository methods
func (r *PostgresRepository) GetTokenAccount(ctx context.Context, userID string) (*models.TokenAccount, error) {
	query := `SELECT * FROM user_tokens WHERE user_id = $1`

	var account models.TokenAccount
	err := r.db.GetContext(ctx, &account, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Account not created yet
		}
		return nil, err
	}

	return &account, nil
}

// CreditTokens adds amount to the user's balance, creating the account on
// first accrual, and returns the new balance. The increment happens in a
// single statement so concurrent accruals cannot lose updates.
func (r *PostgresRepository) CreditTokens(ctx context.Context, userID string, amount int64, initialLevel int) (int64, error) {
	query := `
		INSERT INTO user_tokens (user_id, balance, level, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = user_tokens.balance + EXCLUDED.balance,
		    updated_at = EXCLUDED.updated_at
		RETURNING balance
	`

	var newBalance int64
	err := r.db.QueryRowContext(ctx, query, userID, amount, initialLevel, time.Now().UTC()).Scan(&newBalance)
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

// SpendTokens deducts amount from the user's balance, guarded so the balance
// never goes negative. The second return value is false when the balance was
// insufficient (or the account does not exist).
func (r *PostgresRepository) SpendTokens(ctx context.Context, userID string, amount int64) (int64, bool, error) {
	query := `
		UPDATE user_tokens
		SET balance = balance - $2, updated_at = $3
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`

	var newBalance int64
	err := r.db.QueryRowContext(ctx, query, userID, amount, time.Now().UTC()).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil // Insufficient balance
		}
		return 0, false, err
	}

	return newBalance, true, nil
}

func (r *PostgresRepository) SetTokenLevel(ctx context.Context, userID string, level int) error {
	query := `UPDATE user_tokens SET level = $2, updated_at = $3 WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query, userID, level, time.Now().UTC())
	return err
}

func (r *PostgresRepository) SetTokenBalance(ctx context.Context, userID string, balance int64, level int) error {
	query := `
		INSERT INTO user_tokens (user_id, balance, level, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = EXCLUDED.balance,
		    level = EXCLUDED.level,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, userID, balance, level, time.Now().UTC())
	return err
}

// Token ledger repository methods
func (r *PostgresRepository) AddTokenTransaction(ctx context.Context, txn *models.TokenTransaction) error {
	query := `
		INSERT INTO token_transactions (id, user_id, amount, kind, source_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}

	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		txn.ID, txn.UserID, txn.Amount, txn.Kind, txn.SourceType, txn.Description, txn.CreatedAt)

	return err
}

func (r *PostgresRepository) GetUserTransactions(ctx context.Context, userID string, limit int) ([]models.TokenTransaction, error) {
	query := `SELECT * FROM token_transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	var txns []models.TokenTransaction
	err := r.db.SelectContext(ctx, &txns, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return txns, nil
}

// SumLedger computes the user's balance as recorded by the append-only
// ledger: earned entries minus spent entries.
func (r *PostgresRepository) SumLedger(ctx context.Context, userID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN kind = 'earned' THEN amount ELSE -amount END), 0)
		FROM token_transactions
		WHERE user_id = $1
	`

	var total int64
	err := r.db.GetContext(ctx, &total, query, userID)
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *PostgresRepository) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT t.user_id, u.name, t.balance, t.level
		FROM user_tokens t
		JOIN users u ON u.id = t.user_id
		ORDER BY t.balance DESC
		LIMIT $1
	`

	var entries []models.LeaderboardEntry
	err := r.db.SelectContext(ctx, &entries, query, limit)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Admin membership repository methods
func (r *PostgresRepository) HasAdminMembership(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM admin_users WHERE user_id = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// AddAdminMembership inserts a membership row. Inserting an existing member
// is a no-op success.
func (r *PostgresRepository) AddAdminMembership(ctx context.Context, membership *models.AdminMembership) error {
	query := `
		INSERT INTO admin_users (user_id, created_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`

	if membership.CreatedAt.IsZero() {
		membership.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query, membership.UserID, membership.CreatedAt)
	return err
}

// CallIsAdmin invokes the is_admin database function by name. It is kept
// separate from the membership lookup so the resolver's third tier exercises
// the procedure surface rather than the table CRUD surface.
func (r *PostgresRepository) CallIsAdmin(ctx context.Context, userID string) (bool, error) {
	query := `SELECT is_admin($1)`

	var admin bool
	err := r.db.GetContext(ctx, &admin, query, userID)
	if err != nil {
		return false, err
	}

	return admin, nil
}

// Reward repository methods
func (r *PostgresRepository) CreateReward(ctx context.Context, reward *models.Reward) error {
	query := `
		INSERT INTO rewards (id, name, description, cost, stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if reward.ID == "" {
		reward.ID = uuid.New().String()
	}

	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		reward.ID, reward.Name, reward.Description, reward.Cost, reward.Stock, reward.CreatedAt)

	return err
}

func (r *PostgresRepository) ListRewards(ctx context.Context) ([]models.Reward, error) {
	query := `SELECT * FROM rewards ORDER BY cost ASC`

	var rewards []models.Reward
	err := r.db.SelectContext(ctx, &rewards, query)
	if err != nil {
		return nil, err
	}

	return rewards, nil
}

func (r *PostgresRepository) GetReward(ctx context.Context, id string) (*models.Reward, error) {
	query := `SELECT * FROM rewards WHERE id = $1`

	var reward models.Reward
	err := r.db.GetContext(ctx, &reward, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Reward not found
		}
		return nil, err
	}

	return &reward, nil
}

// DecrementRewardStock takes one unit of stock; returns false when the
// reward is out of stock.
func (r *PostgresRepository) DecrementRewardStock(ctx context.Context, id string) (bool, error) {
	query := `UPDATE rewards SET stock = stock - 1 WHERE id = $1 AND stock > 0`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// Collection event repository methods
func (r *PostgresRepository) CreateCollectionEvent(ctx context.Context, event *models.CollectionEvent) error {
	query := `
		INSERT INTO collection_events
			(id, title, description, location, event_date, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.Location,
		event.EventDate, event.Status, event.CreatedBy, event.CreatedAt, event.UpdatedAt)

	return err
}

func (r *PostgresRepository) ListCollectionEvents(ctx context.Context) ([]models.CollectionEvent, error) {
	query := `SELECT * FROM collection_events ORDER BY event_date ASC`

	var events []models.CollectionEvent
	err := r.db.SelectContext(ctx, &events, query)
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *PostgresRepository) UpdateCollectionEventStatus(ctx context.Context, id, status string) (bool, error) {
	query := `UPDATE collection_events SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}
