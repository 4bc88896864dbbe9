package models

import (
	"time"
)

// Waste size categories accepted by the reward policy
const (
	WasteSizeSmall  = "small"
	WasteSizeMedium = "medium"
	WasteSizeLarge  = "large"
)

// Waste report statuses
const (
	ReportStatusPending   = "pending"
	ReportStatusVerified  = "verified"
	ReportStatusCollected = "collected"
	ReportStatusRejected  = "rejected"
)

// Token transaction kinds and sources
const (
	TransactionEarned = "earned"
	TransactionSpent  = "spent"

	SourceWasteReport      = "waste_report"
	SourceRewardRedemption = "reward_redemption"
)

// Collection event statuses
const (
	EventStatusUpcoming  = "upcoming"
	EventStatusActive    = "active"
	EventStatusCompleted = "completed"
)

// User represents a user in the system
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// WasteReport represents a litter report submitted by a user
type WasteReport struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"userId"`
	Title            string    `db:"title" json:"title"`
	Location         string    `db:"location" json:"location"`
	WasteType        string    `db:"waste_type" json:"wasteType"`
	WasteSize        string    `db:"waste_size" json:"wasteSize"`
	PhotoURL         string    `db:"photo_url" json:"photoUrl"`
	Status           string    `db:"status" json:"status"`
	VerifyLabel      string    `db:"verify_label" json:"verifyLabel"`
	VerifyConfidence float64   `db:"verify_confidence" json:"verifyConfidence"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// TokenAccount holds a user's cumulative token balance and derived level.
// Level is always recomputed from balance; it is never set independently.
type TokenAccount struct {
	UserID    string    `db:"user_id" json:"userId"`
	Balance   int64     `db:"balance" json:"balance"`
	Level     int       `db:"level" json:"level"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// TokenTransaction is an append-only ledger entry. The sum of earned minus
// spent entries for a user should equal that user's current balance.
type TokenTransaction struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Amount      int64     `db:"amount" json:"amount"`
	Kind        string    `db:"kind" json:"kind"` // "earned" or "spent"
	SourceType  string    `db:"source_type" json:"sourceType"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// AdminMembership grants a user administrative capability, independent of
// the allow-listed administrator email
type AdminMembership struct {
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Reward is a redeemable catalog entry
type Reward struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Cost        int64     `db:"cost" json:"cost"`
	Stock       int       `db:"stock" json:"stock"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// CollectionEvent is an admin-managed cleanup event
type CollectionEvent struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Location    string    `db:"location" json:"location"`
	EventDate   time.Time `db:"event_date" json:"eventDate"`
	Status      string    `db:"status" json:"status"`
	CreatedBy   string    `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// LeaderboardEntry is one row of the balance leaderboard
type LeaderboardEntry struct {
	UserID  string `db:"user_id" json:"userId"`
	Name    string `db:"name" json:"name"`
	Balance int64  `db:"balance" json:"balance"`
	Level   int    `db:"level" json:"level"`
}
