package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/greencycle/greencycle-server/internal/models"
)

// Token awards per waste size
const (
	tokensSmall  = 5
	tokensMedium = 15
	tokensLarge  = 30
)

// Level thresholds, evaluated top-down on the cumulative balance
const (
	level5Threshold = 500
	level4Threshold = 300
	level3Threshold = 150
	level2Threshold = 50
)

// TokensForSize returns the token award for a waste size category.
// Unrecognized sizes, including the empty string, earn nothing.
func TokensForSize(wasteSize string) int64 {
	switch wasteSize {
	case models.WasteSizeSmall:
		return tokensSmall
	case models.WasteSizeMedium:
		return tokensMedium
	case models.WasteSizeLarge:
		return tokensLarge
	default:
		return 0
	}
}

// LevelForBalance derives the account level from the cumulative balance.
// First matching threshold wins.
func LevelForBalance(balance int64) int {
	switch {
	case balance >= level5Threshold:
		return 5
	case balance >= level4Threshold:
		return 4
	case balance >= level3Threshold:
		return 3
	case balance >= level2Threshold:
		return 2
	default:
		return 1
	}
}

// AwardForReport credits tokens for an accepted waste report: it appends a
// ledger entry, then increments the account balance and recomputes the
// level. The ledger write comes first; if it fails the account is never
// touched. A failure after the ledger write leaves the ledger ahead of the
// balance, which ReconcileBalance can repair.
func (s *DefaultService) AwardForReport(ctx context.Context, userID, wasteSize, reportTitle string) bool {
	tokens := TokensForSize(wasteSize)
	if userID == "" || tokens == 0 {
		return false
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	txn := &models.TokenTransaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      tokens,
		Kind:        models.TransactionEarned,
		SourceType:  models.SourceWasteReport,
		Description: fmt.Sprintf("Tokens earned for reporting: %s", reportTitle),
	}

	if err := s.repo.AddTokenTransaction(ctx, txn); err != nil {
		s.logger.Error("failed to record token transaction for user %s: %v", userID, err)
		return false
	}

	newBalance, err := s.repo.CreditTokens(ctx, userID, tokens, LevelForBalance(tokens))
	if err != nil {
		s.logger.Error("transaction recorded but balance not credited for user %s: %v", userID, err)
		return false
	}

	if err := s.repo.SetTokenLevel(ctx, userID, LevelForBalance(newBalance)); err != nil {
		s.logger.Error("failed to update level for user %s: %v", userID, err)
		return false
	}

	if s.metrics != nil {
		s.metrics.TokensAwarded(tokens)
	}

	return true
}

// ReconcileBalance recomputes a user's balance from the transaction ledger
// and rewrites the account balance and level. It is a manual repair
// operation for the ledger-ahead-of-balance gap; nothing invokes it
// automatically.
func (s *DefaultService) ReconcileBalance(ctx context.Context, userID string) (*models.ReconcileResponse, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	ledgerBalance, err := s.repo.SumLedger(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error summing ledger: %w", err)
	}

	if ledgerBalance < 0 {
		// Spent entries exceeding earned entries means the ledger itself is
		// damaged; the account balance is still kept non-negative.
		s.logger.Error("ledger for user %s sums to %d; clamping to zero", userID, ledgerBalance)
		ledgerBalance = 0
	}

	oldBalance := int64(0)
	account, err := s.repo.GetTokenAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting token account: %w", err)
	}
	if account != nil {
		oldBalance = account.Balance
	}

	level := LevelForBalance(ledgerBalance)
	if err := s.repo.SetTokenBalance(ctx, userID, ledgerBalance, level); err != nil {
		return nil, fmt.Errorf("error writing reconciled balance: %w", err)
	}

	if ledgerBalance != oldBalance {
		s.logger.Info("reconciled balance for user %s: %d -> %d", userID, oldBalance, ledgerBalance)
	}

	return &models.ReconcileResponse{
		Status:        "success",
		UserID:        userID,
		LedgerBalance: ledgerBalance,
		OldBalance:    oldBalance,
		Level:         level,
		Drifted:       ledgerBalance != oldBalance,
	}, nil
}
