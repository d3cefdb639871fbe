// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jradiance/jradiance-backend/internal/models"
	"github.com/jradiance/jradiance-backend/internal/utils"
)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	cfg := testConfig()
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	return NewAuthService(db, cfg), db
}

func TestRegisterAlwaysCreatesCustomer(t *testing.T) {
	auth, _ := newAuthService(t)

	resp, err := auth.Register(&RegisterRequest{
		Email:       "shopper@example.com",
		Password:    "Str0ngPass!word",
		DisplayName: "Shopper",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleCustomer, resp.User.Role)
	assert.True(t, resp.User.IsActive)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	auth, _ := newAuthService(t)

	req := &RegisterRequest{
		Email:       "shopper@example.com",
		Password:    "Str0ngPass!word",
		DisplayName: "Shopper",
	}
	_, err := auth.Register(req)
	require.NoError(t, err)

	_, err = auth.Register(req)
	assert.Error(t, err)
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	auth, db := newAuthService(t)
	user := createUser(t, db, models.RoleCustomer, false)

	_, err := auth.Login(&LoginRequest{Email: user.Email, Password: "Sup3rSecret!"})
	assert.EqualError(t, err, "account is deactivated")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth, db := newAuthService(t)
	user := createUser(t, db, models.RoleCustomer, true)

	_, err := auth.Login(&LoginRequest{Email: user.Email, Password: "not-the-password"})
	assert.EqualError(t, err, "invalid email or password")
}

func TestAdminLoginRejectsCustomers(t *testing.T) {
	auth, db := newAuthService(t)
	customer := createUser(t, db, models.RoleCustomer, true)

	// Correct credentials, still rejected: the admin door only opens for staff.
	_, err := auth.AdminLogin(&LoginRequest{Email: customer.Email, Password: "Sup3rSecret!"})
	assert.Error(t, err)
}

func TestAdminLoginAcceptsEveryStaffRole(t *testing.T) {
	auth, db := newAuthService(t)

	for _, role := range []models.Role{models.RoleAgent, models.RoleAdmin, models.RoleChiefAdmin} {
		staff := createUser(t, db, role, true)
		resp, err := auth.AdminLogin(&LoginRequest{Email: staff.Email, Password: "Sup3rSecret!"})
		require.NoError(t, err, string(role))
		assert.Equal(t, role, resp.User.Role)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	auth, db := newAuthService(t)
	user := createUser(t, db, models.RoleCustomer, true)

	first, err := auth.Login(&LoginRequest{Email: user.Email, Password: "Sup3rSecret!"})
	require.NoError(t, err)

	refreshed, err := auth.RefreshToken(first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestRefreshTokenRejectsDeactivatedAccount(t *testing.T) {
	auth, db := newAuthService(t)
	user := createUser(t, db, models.RoleCustomer, true)

	first, err := auth.Login(&LoginRequest{Email: user.Email, Password: "Sup3rSecret!"})
	require.NoError(t, err)

	require.NoError(t, db.Model(user).UpdateColumn("is_active", false).Error)

	_, err = auth.RefreshToken(first.RefreshToken)
	assert.EqualError(t, err, "account is deactivated")
}
