package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/models"
	perm "github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/permissions"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(newTestDB(t), testConfig())

	first, err := svc.Register(ctx, "admin", "password123")
	require.NoError(t, err)
	assert.Equal(t, models.RankOwner, first.User.Rank)
	assert.NotEmpty(t, first.Token)

	second, err := svc.Register(ctx, "officer", "password123")
	require.NoError(t, err)
	assert.Equal(t, models.RankUser, second.User.Rank)
	assert.Empty(t, second.User.Permissions)

	_, err = svc.Register(ctx, "officer", "password123")
	assert.True(t, code.Is(err, code.ErrUserAlreadyExist))
	_, err = svc.Register(ctx, "short", "1234")
	assert.True(t, code.Is(err, code.ErrValidation))

	login, err := svc.Login(ctx, "officer", "password123")
	require.NoError(t, err)
	assert.Equal(t, second.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "officer", "wrong-password")
	assert.True(t, code.Is(err, code.ErrUserPasswordIncorrect))
	_, err = svc.Login(ctx, "ghost", "password123")
	assert.True(t, code.Is(err, code.ErrUserPasswordIncorrect))
}

func TestValidateToken(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	svc := NewAuthService(newTestDB(t), cfg)

	res, err := svc.Register(ctx, "admin", "password123")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, string(models.RankOwner), claims.Rank)

	_, err = svc.ValidateToken("not-a-token")
	assert.True(t, code.Is(err, code.ErrTokenInvalid))

	// signed with another key
	other := testConfig()
	other.JWTSecretKey = "another-secret"
	forged, err := NewAuthService(newTestDB(t), other).GenerateToken(res.User)
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.True(t, code.Is(err, code.ErrTokenInvalid))

	// expired
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &AuthClaims{
		UserID: res.User.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte(cfg.JWTSecretKey))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.True(t, code.Is(err, code.ErrTokenInvalid))
}

func TestSetPermissions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewAuthService(db, testConfig())
	user := seedUser(t, db, "medic")

	updated, err := svc.SetPermissions(ctx, user.ID, []string{string(perm.EmsFd), string(perm.Dispatch)})
	require.NoError(t, err)
	assert.True(t, perm.HasPermission(updated, perm.Dispatch))

	stored, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"EmsFd", "Dispatch"}, []string(stored.Permissions))

	_, err = svc.SetPermissions(ctx, user.ID, []string{"Wizard"})
	assert.True(t, code.Is(err, code.ErrValidation))
	_, err = svc.SetPermissions(ctx, "missing", nil)
	assert.True(t, code.Is(err, code.ErrUserNotFound))
}
