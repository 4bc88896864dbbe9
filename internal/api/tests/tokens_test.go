package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/greencycle/greencycle-server/internal/api/testutils"
	"github.com/greencycle/greencycle-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTokenSummary(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// A user with no accruals yet sees a zero balance at level 1
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/tokens",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var summary models.TokenSummaryResponse
	err := json.Unmarshal(w.Body.Bytes(), &summary)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), summary.Balance)
	assert.Equal(t, 1, summary.Level)
	assert.Empty(t, summary.Transactions)

	// After a large report the summary reflects the accrual
	ok := testCtx.Service.AwardForReport(context.Background(), testCtx.TestUserID, models.WasteSizeLarge, "Forest trail")
	assert.True(t, ok)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/tokens",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &summary)
	assert.NoError(t, err)
	assert.Equal(t, int64(30), summary.Balance)
	assert.Equal(t, 1, summary.Level)
	assert.Len(t, summary.Transactions, 1)
}

func TestRedeemReward(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	rewardID := testutils.CreateReward(t, testCtx.Repository, "Reusable bottle", 40, 2)

	// Test case 1: Insufficient balance
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/rewards/"+rewardID+"/redeem",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusConflict, w.Code)

	// Test case 2: Successful redemption
	err := testCtx.Repository.SetTokenBalance(context.Background(), testCtx.TestUserID, 100, 2)
	assert.NoError(t, err)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/rewards/"+rewardID+"/redeem",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var redeemResp models.RedeemResponse
	err = json.Unmarshal(w.Body.Bytes(), &redeemResp)
	assert.NoError(t, err)
	assert.Equal(t, int64(60), redeemResp.NewBalance)
	assert.Equal(t, 2, redeemResp.NewLevel)

	// A spent ledger entry was recorded
	txns, err := testCtx.Repository.GetUserTransactions(context.Background(), testCtx.TestUserID, 10)
	assert.NoError(t, err)
	assert.Len(t, txns, 1)
	assert.Equal(t, models.TransactionSpent, txns[0].Kind)
	assert.Equal(t, models.SourceRewardRedemption, txns[0].SourceType)
	assert.Equal(t, int64(40), txns[0].Amount)

	// Test case 3: Unknown reward
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/rewards/non-existent-id/redeem",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedeemOutOfStock(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	rewardID := testutils.CreateReward(t, testCtx.Repository, "Tote bag", 10, 0)

	err := testCtx.Repository.SetTokenBalance(context.Background(), testCtx.TestUserID, 50, 2)
	assert.NoError(t, err)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/rewards/"+rewardID+"/redeem",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusConflict, w.Code)

	// Balance untouched
	account, err := testCtx.Repository.GetTokenAccount(context.Background(), testCtx.TestUserID)
	assert.NoError(t, err)
	assert.Equal(t, int64(50), account.Balance)
}

func TestLeaderboard(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	err := testCtx.Repository.SetTokenBalance(context.Background(), testCtx.TestUserID, 120, 2)
	assert.NoError(t, err)
	err = testCtx.Repository.SetTokenBalance(context.Background(), testCtx.AdminUserID, 300, 4)
	assert.NoError(t, err)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/leaderboard",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.LeaderboardResponse
	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Len(t, response.Entries, 2)
	assert.Equal(t, testCtx.AdminUserID, response.Entries[0].UserID)
	assert.Equal(t, int64(300), response.Entries[0].Balance)
	assert.Equal(t, testCtx.TestUserID, response.Entries[1].UserID)
}

func TestReconcileBalance(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Simulate the ledger running ahead of the balance: an earned entry
	// exists but the account was never credited
	err := testCtx.Repository.AddTokenTransaction(context.Background(), &models.TokenTransaction{
		UserID:      testCtx.TestUserID,
		Amount:      30,
		Kind:        models.TransactionEarned,
		SourceType:  models.SourceWasteReport,
		Description: "Tokens earned for reporting: orphaned entry",
	})
	assert.NoError(t, err)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/admin/users/"+testCtx.TestUserID+"/reconcile",
		nil,
		testutils.AuthHeaders(testCtx.AdminUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.ReconcileResponse
	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.True(t, response.Drifted)
	assert.Equal(t, int64(0), response.OldBalance)
	assert.Equal(t, int64(30), response.LedgerBalance)

	account, err := testCtx.Repository.GetTokenAccount(context.Background(), testCtx.TestUserID)
	assert.NoError(t, err)
	assert.Equal(t, int64(30), account.Balance)
	assert.Equal(t, 1, account.Level)

	// Reconciling again is a no-op
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/admin/users/"+testCtx.TestUserID+"/reconcile",
		nil,
		testutils.AuthHeaders(testCtx.AdminUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.False(t, response.Drifted)
}
