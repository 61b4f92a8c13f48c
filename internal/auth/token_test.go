package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/marketplace-api/internal/model"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := NewTokenManager("secret", nil, 24*time.Hour)

	token, err := m.Issue(&model.User{ID: 7, Role: model.RoleShopkeeper})
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.ID)
	assert.Equal(t, model.RoleShopkeeper, claims.Role)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("secret", nil, time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, err := m.Issue(&model.User{ID: 1, Role: model.RoleCustomer})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("other", nil, time.Hour).Issue(&model.User{ID: 1, Role: model.RoleCustomer})
	require.NoError(t, err)

	_, err = NewTokenManager("secret", nil, time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_AcceptsPreviousSecret(t *testing.T) {
	token, err := NewTokenManager("old", nil, time.Hour).Issue(&model.User{ID: 3, Role: model.RoleCustomer})
	require.NoError(t, err)

	rotated := NewTokenManager("new", []string{"old"}, time.Hour)
	claims, err := rotated.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.ID)

	fresh, err := rotated.Issue(&model.User{ID: 3, Role: model.RoleCustomer})
	require.NoError(t, err)
	_, err = NewTokenManager("old", nil, time.Hour).Verify(fresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.MapClaims{"id": 1, "role": "customer", "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", nil, time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsUnknownRole(t *testing.T) {
	claims := jwt.MapClaims{"id": 1, "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", nil, time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
