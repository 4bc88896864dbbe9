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

func TestAdminStatus(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Test case 1: Regular user is not an admin
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/admin/me",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.AdminStatusResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.False(t, response.IsAdmin)

	// Test case 2: The allow-listed email is an admin even with no
	// membership row
	exists, err := testCtx.Repository.HasAdminMembership(context.Background(), testCtx.AdminUserID)
	assert.NoError(t, err)
	assert.False(t, exists)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/admin/me",
		nil,
		testutils.AuthHeaders(testCtx.AdminUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.True(t, response.IsAdmin)

	// The email match also created the membership row
	exists, err = testCtx.Repository.HasAdminMembership(context.Background(), testCtx.AdminUserID)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestMembershipGrantsAdmin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// A user whose email differs from the allow-list becomes an admin via
	// an explicit membership row
	ok := testCtx.Service.EnsureMembership(context.Background(), testCtx.TestUserID)
	assert.True(t, ok)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/admin/me",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.AdminStatusResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.True(t, response.IsAdmin)
}

func TestEnsureMembershipIdempotent(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	ok := testCtx.Service.EnsureMembership(context.Background(), testCtx.TestUserID)
	assert.True(t, ok)

	// Repeating the call succeeds and leaves exactly one membership row
	ok = testCtx.Service.EnsureMembership(context.Background(), testCtx.TestUserID)
	assert.True(t, ok)

	exists, err := testCtx.Repository.HasAdminMembership(context.Background(), testCtx.TestUserID)
	assert.NoError(t, err)
	assert.True(t, exists)

	var count int
	err = testCtx.DB.Get(&count, "SELECT COUNT(*) FROM admin_users WHERE user_id = $1", testCtx.TestUserID)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
