package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/greencycle/greencycle-server/internal/models"
	"github.com/greencycle/greencycle-server/internal/monitoring"
	"github.com/greencycle/greencycle-server/internal/repository"
	"github.com/greencycle/greencycle-server/internal/utils"
	"github.com/greencycle/greencycle-server/internal/verify"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors mapped to HTTP statuses by the API layer
var (
	ErrEmailTaken          = errors.New("user with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrNotFound            = errors.New("not found")
	ErrInvalidWasteSize    = errors.New("unrecognized waste size")
	ErrInvalidEventDate    = errors.New("invalid event date")
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrRewardOutOfStock    = errors.New("reward is out of stock")
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Waste reports
	SubmitReport(ctx context.Context, userID string, req models.SubmitReportRequest) (*models.SubmitReportResponse, error)
	GetUserReports(ctx context.Context, userID string) (*models.ReportsResponse, error)
	GetRecentReports(ctx context.Context) (*models.ReportsResponse, error)
	UpdateReportStatus(ctx context.Context, reportID, status string) error

	// Tokens and rewards
	GetTokenSummary(ctx context.Context, userID string) (*models.TokenSummaryResponse, error)
	CreateReward(ctx context.Context, req models.CreateRewardRequest) (*models.RewardCreatedResponse, error)
	ListRewards(ctx context.Context) (*models.RewardsResponse, error)
	RedeemReward(ctx context.Context, userID, rewardID string) (*models.RedeemResponse, error)
	GetLeaderboard(ctx context.Context, limit int) (*models.LeaderboardResponse, error)

	// Reward accrual engine
	AwardForReport(ctx context.Context, userID, wasteSize, reportTitle string) bool
	ReconcileBalance(ctx context.Context, userID string) (*models.ReconcileResponse, error)

	// Authorization resolver
	IsAdmin(ctx context.Context, userID string) bool
	EnsureMembership(ctx context.Context, userID string) bool

	// Collection events
	CreateEvent(ctx context.Context, userID string, req models.CreateEventRequest) (*models.EventResponse, error)
	UpdateEventStatus(ctx context.Context, eventID, status string) error
	ListEvents(ctx context.Context) (*models.EventsResponse, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	verifier      verify.Verifier
	logger        *utils.Logger
	metrics       *monitoring.MetricsCollector
	jwtSecret     []byte
	adminEmail    string
	tokenDuration time.Duration
	storeTimeout  time.Duration
}

// Options carries the collaborators and policy knobs for a DefaultService
type Options struct {
	JWTSecret    string
	AdminEmail   string
	Verifier     verify.Verifier
	Logger       *utils.Logger
	Metrics      *monitoring.MetricsCollector
	StoreTimeout time.Duration
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, opts Options) Service {
	if opts.Verifier == nil {
		opts.Verifier = verify.AcceptAll()
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewLogger()
	}
	return &DefaultService{
		repo:          repo,
		verifier:      opts.Verifier,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		jwtSecret:     []byte(opts.JWTSecret),
		adminEmail:    opts.AdminEmail,
		tokenDuration: 24 * time.Hour, // 24 hours token validity
		storeTimeout:  opts.StoreTimeout,
	}
}

// opCtx bounds a store call chain with the configured timeout
func (s *DefaultService) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}

	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// Create the user
	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return &models.AuthResponse{
		Status: "success",
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	// Get the user
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Waste report operations
func (s *DefaultService) SubmitReport(
	ctx context.Context,
	userID string,
	req models.SubmitReportRequest,
) (*models.SubmitReportResponse, error) {
	tokens := TokensForSize(req.WasteSize)
	if tokens == 0 {
		// No report is stored for an unrecognized size; nothing is written.
		return nil, ErrInvalidWasteSize
	}

	// Classify the photo. The verifier is an external collaborator; an
	// unavailable verifier does not block the submission.
	status := models.ReportStatusPending
	verifyLabel := ""
	verifyConfidence := 0.0
	if classification, err := s.verifier.Classify(ctx, req.PhotoURL, req.WasteType); err != nil {
		s.logger.Error("image verification unavailable for user %s: %v", userID, err)
	} else {
		verifyLabel = classification.Label
		verifyConfidence = classification.Confidence
		if !classification.Accepted {
			status = models.ReportStatusRejected
		}
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	report := &models.WasteReport{
		ID:               uuid.New().String(),
		UserID:           userID,
		Title:            req.Title,
		Location:         req.Location,
		WasteType:        req.WasteType,
		WasteSize:        req.WasteSize,
		PhotoURL:         req.PhotoURL,
		Status:           status,
		VerifyLabel:      verifyLabel,
		VerifyConfidence: verifyConfidence,
	}

	if err := s.repo.CreateWasteReport(ctx, report); err != nil {
		return nil, fmt.Errorf("error creating waste report: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ReportSubmitted(status)
	}

	// Rejected reports earn nothing
	var awarded int64
	if status != models.ReportStatusRejected && s.AwardForReport(ctx, userID, req.WasteSize, req.Title) {
		awarded = tokens
	}

	return &models.SubmitReportResponse{
		Status:        "success",
		ReportID:      report.ID,
		ReportStatus:  report.Status,
		TokensAwarded: awarded,
		CreatedAt:     report.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *DefaultService) GetUserReports(ctx context.Context, userID string) (*models.ReportsResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	reports, err := s.repo.GetUserWasteReports(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting reports: %w", err)
	}

	return &models.ReportsResponse{
		Status:  "success",
		Reports: reports,
	}, nil
}

func (s *DefaultService) GetRecentReports(ctx context.Context) (*models.ReportsResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	reports, err := s.repo.GetRecentWasteReports(ctx, 20)
	if err != nil {
		return nil, fmt.Errorf("error getting recent reports: %w", err)
	}

	return &models.ReportsResponse{
		Status:  "success",
		Reports: reports,
	}, nil
}

func (s *DefaultService) UpdateReportStatus(ctx context.Context, reportID, status string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	found, err := s.repo.UpdateWasteReportStatus(ctx, reportID, status)
	if err != nil {
		return fmt.Errorf("error updating report status: %w", err)
	}

	if !found {
		return ErrNotFound
	}

	return nil
}

// Tokens and rewards
func (s *DefaultService) GetTokenSummary(ctx context.Context, userID string) (*models.TokenSummaryResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	account, err := s.repo.GetTokenAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting token account: %w", err)
	}

	// A user with no accruals yet has no account row
	balance := int64(0)
	level := 1
	if account != nil {
		balance = account.Balance
		level = account.Level
	}

	transactions, err := s.repo.GetUserTransactions(ctx, userID, 20)
	if err != nil {
		return nil, fmt.Errorf("error getting transactions: %w", err)
	}

	return &models.TokenSummaryResponse{
		Status:       "success",
		Balance:      balance,
		Level:        level,
		Transactions: transactions,
	}, nil
}

func (s *DefaultService) CreateReward(ctx context.Context, req models.CreateRewardRequest) (*models.RewardCreatedResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	reward := &models.Reward{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Cost:        req.Cost,
		Stock:       req.Stock,
	}

	if err := s.repo.CreateReward(ctx, reward); err != nil {
		return nil, fmt.Errorf("error creating reward: %w", err)
	}

	return &models.RewardCreatedResponse{
		Status:   "success",
		RewardID: reward.ID,
	}, nil
}

func (s *DefaultService) ListRewards(ctx context.Context) (*models.RewardsResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rewards, err := s.repo.ListRewards(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing rewards: %w", err)
	}

	return &models.RewardsResponse{
		Status:  "success",
		Rewards: rewards,
	}, nil
}

func (s *DefaultService) RedeemReward(ctx context.Context, userID, rewardID string) (*models.RedeemResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	reward, err := s.repo.GetReward(ctx, rewardID)
	if err != nil {
		return nil, fmt.Errorf("error getting reward: %w", err)
	}

	if reward == nil {
		return nil, ErrNotFound
	}

	account, err := s.repo.GetTokenAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting token account: %w", err)
	}

	if account == nil || account.Balance < reward.Cost {
		return nil, ErrInsufficientBalance
	}

	inStock, err := s.repo.DecrementRewardStock(ctx, rewardID)
	if err != nil {
		return nil, fmt.Errorf("error updating reward stock: %w", err)
	}

	if !inStock {
		return nil, ErrRewardOutOfStock
	}

	// Ledger entry first, then the account deduction, same ordering as
	// accrual. A failed deduction after a recorded entry leaves the ledger
	// ahead of the balance; ReconcileBalance repairs it.
	txn := &models.TokenTransaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      reward.Cost,
		Kind:        models.TransactionSpent,
		SourceType:  models.SourceRewardRedemption,
		Description: fmt.Sprintf("Redeemed reward: %s", reward.Name),
	}

	if err := s.repo.AddTokenTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("error recording redemption: %w", err)
	}

	newBalance, ok, err := s.repo.SpendTokens(ctx, userID, reward.Cost)
	if err != nil {
		s.logger.Error("redemption recorded but balance not deducted for user %s: %v", userID, err)
		return nil, fmt.Errorf("error deducting tokens: %w", err)
	}

	if !ok {
		// Balance changed underneath us after the check above
		s.logger.Error("redemption recorded but balance was insufficient for user %s", userID)
		return nil, ErrInsufficientBalance
	}

	newLevel := LevelForBalance(newBalance)
	if err := s.repo.SetTokenLevel(ctx, userID, newLevel); err != nil {
		s.logger.Error("failed to update level for user %s: %v", userID, err)
	}

	if s.metrics != nil {
		s.metrics.TokensSpent(reward.Cost)
	}

	return &models.RedeemResponse{
		Status:     "success",
		RewardID:   reward.ID,
		Cost:       reward.Cost,
		NewBalance: newBalance,
		NewLevel:   newLevel,
	}, nil
}

func (s *DefaultService) GetLeaderboard(ctx context.Context, limit int) (*models.LeaderboardResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 10
	}

	entries, err := s.repo.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error getting leaderboard: %w", err)
	}

	return &models.LeaderboardResponse{
		Status:  "success",
		Entries: entries,
	}, nil
}

// Collection events
func (s *DefaultService) CreateEvent(
	ctx context.Context,
	userID string,
	req models.CreateEventRequest,
) (*models.EventResponse, error) {
	eventDate, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		return nil, ErrInvalidEventDate
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	event := &models.CollectionEvent{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		EventDate:   eventDate.UTC(),
		Status:      models.EventStatusUpcoming,
		CreatedBy:   userID,
	}

	if err := s.repo.CreateCollectionEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("error creating event: %w", err)
	}

	return &models.EventResponse{
		Status:  "success",
		EventID: event.ID,
	}, nil
}

func (s *DefaultService) UpdateEventStatus(ctx context.Context, eventID, status string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	found, err := s.repo.UpdateCollectionEventStatus(ctx, eventID, status)
	if err != nil {
		return fmt.Errorf("error updating event status: %w", err)
	}

	if !found {
		return ErrNotFound
	}

	return nil
}

func (s *DefaultService) ListEvents(ctx context.Context) (*models.EventsResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	events, err := s.repo.ListCollectionEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}

	return &models.EventsResponse{
		Status: "success",
		Events: events,
	}, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
