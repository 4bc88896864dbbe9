package models

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SubmitReportRequest struct {
	Title     string `json:"title" binding:"required"`
	Location  string `json:"location" binding:"required"`
	WasteType string `json:"wasteType" binding:"required"`
	WasteSize string `json:"wasteSize" binding:"required"`
	PhotoURL  string `json:"photoUrl"`
}

type UpdateReportStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending verified collected rejected"`
}

type CreateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location" binding:"required"`
	EventDate   string `json:"eventDate" binding:"required"` // RFC3339
}

type UpdateEventStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=upcoming active completed"`
}

type CreateRewardRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Cost        int64  `json:"cost" binding:"required,gt=0"`
	Stock       int    `json:"stock" binding:"gte=0"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type SubmitReportResponse struct {
	Status        string `json:"status"`
	ReportID      string `json:"reportId"`
	ReportStatus  string `json:"reportStatus"`
	TokensAwarded int64  `json:"tokensAwarded"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

type ReportsResponse struct {
	Status  string        `json:"status"`
	Reports []WasteReport `json:"reports"`
}

type TokenSummaryResponse struct {
	Status       string             `json:"status"`
	Balance      int64              `json:"balance"`
	Level        int                `json:"level"`
	Transactions []TokenTransaction `json:"transactions"`
}

type RewardsResponse struct {
	Status  string   `json:"status"`
	Rewards []Reward `json:"rewards"`
}

type RewardCreatedResponse struct {
	Status   string `json:"status"`
	RewardID string `json:"rewardId"`
}

type RedeemResponse struct {
	Status     string `json:"status"`
	RewardID   string `json:"rewardId"`
	Cost       int64  `json:"cost"`
	NewBalance int64  `json:"newBalance"`
	NewLevel   int    `json:"newLevel"`
}

type LeaderboardResponse struct {
	Status  string             `json:"status"`
	Entries []LeaderboardEntry `json:"entries"`
}

type EventResponse struct {
	Status  string `json:"status"`
	EventID string `json:"eventId,omitempty"`
}

type EventsResponse struct {
	Status string            `json:"status"`
	Events []CollectionEvent `json:"events"`
}

type AdminStatusResponse struct {
	Status  string `json:"status"`
	IsAdmin bool   `json:"isAdmin"`
}

type ReconcileResponse struct {
	Status        string `json:"status"`
	UserID        string `json:"userId"`
	LedgerBalance int64  `json:"ledgerBalance"`
	OldBalance    int64  `json:"oldBalance"`
	Level         int    `json:"level"`
	Drifted       bool   `json:"drifted"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
