package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/class-booking/internal/database"
	"github.com/iliyamo/class-booking/internal/repository"
	"github.com/iliyamo/class-booking/internal/utils"
)

const testSecret = "test-secret"

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, idToken string) (ExternalIdentity, error) {
	args := m.Called(ctx, idToken)
	return args.Get(0).(ExternalIdentity), args.Error(1)
}

func setupAuth(t *testing.T, google IDTokenVerifier) *AuthService {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewAuthService(AuthConfig{
		JWTSecret:      testSecret,
		AccessTTLMin:   60,
		RefreshTTLDays: 14,
		BcryptCost:     bcrypt.MinCost,
	}, repository.NewUserRepo(db), repository.NewTokenRepo(db), google)
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	svc := setupAuth(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, SnsEmail, Credentials{Email: "Kim@Example.com", Password: "pw1234", Name: "Kim"})
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", res.User.Email)
	assert.Equal(t, "Bearer "+res.Access.Token, res.Authorization)
	require.NotNil(t, res.Refresh)

	claims, err := utils.ParseAccessToken(testSecret, res.Access.Token)
	require.NoError(t, err)
	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, uid)

	_, err = svc.Register(ctx, SnsEmail, Credentials{Email: "kim@example.com", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "EMAIL_EXISTS", AsError(err).ErrorCode())

	_, err = svc.Login(ctx, SnsEmail, Credentials{Email: "kim@example.com", Password: "pw1234"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, SnsEmail, Credentials{Email: "kim@example.com", Password: "wrong"})
	assert.Equal(t, KindInvalidCredentials, KindOf(err))
	_, err = svc.Login(ctx, SnsEmail, Credentials{Email: "nobody@example.com", Password: "pw1234"})
	assert.Equal(t, KindInvalidCredentials, KindOf(err))
}

func TestAuth_SnsTypes(t *testing.T) {
	svc := setupAuth(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, SnsKakao, Credentials{})
	assert.Equal(t, "NOT_SUPPORTED", AsError(err).ErrorCode())
	_, err = svc.Login(ctx, SnsFacebook, Credentials{})
	assert.Equal(t, "NOT_SUPPORTED", AsError(err).ErrorCode())
	_, err = svc.Login(ctx, "myspace", Credentials{})
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = svc.Register(ctx, SnsEmail, Credentials{Email: "a@b.c"})
	assert.Equal(t, KindValidation, KindOf(err), "password is required")
	_, err = svc.Login(ctx, SnsGoogle, Credentials{IDToken: "tok"})
	assert.Equal(t, "NOT_SUPPORTED", AsError(err).ErrorCode(), "google needs a verifier")
}

func TestAuth_GoogleLogin(t *testing.T) {
	google := &mockVerifier{}
	google.On("Verify", mock.Anything, "good").Return(ExternalIdentity{Subject: "g-1", Email: "Lee@Gmail.com", Name: "Lee"}, nil)
	google.On("Verify", mock.Anything, "bad").Return(ExternalIdentity{}, errors.New("signature"))
	svc := setupAuth(t, google)
	ctx := context.Background()

	first, err := svc.Login(ctx, SnsGoogle, Credentials{IDToken: "good"})
	require.NoError(t, err)
	assert.Equal(t, SnsGoogle, first.User.SnsType)
	assert.Equal(t, "lee@gmail.com", first.User.Email)

	again, err := svc.Register(ctx, SnsGoogle, Credentials{IDToken: "good"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID, "the account is reused")

	_, err = svc.Login(ctx, SnsGoogle, Credentials{IDToken: "bad"})
	assert.Equal(t, KindUnauthorized, KindOf(err))

	// google accounts have no password
	_, err = svc.Login(ctx, SnsEmail, Credentials{Email: "lee@gmail.com", Password: "anything"})
	assert.Equal(t, KindInvalidCredentials, KindOf(err))

	google.AssertExpectations(t)
}

func TestAuth_GoogleEmailTakenByPasswordAccount(t *testing.T) {
	google := &mockVerifier{}
	google.On("Verify", mock.Anything, "tok").Return(ExternalIdentity{Email: "kim@example.com"}, nil)
	svc := setupAuth(t, google)
	ctx := context.Background()

	_, err := svc.Register(ctx, SnsEmail, Credentials{Email: "kim@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, SnsGoogle, Credentials{IDToken: "tok"})
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestAuth_RefreshRotates(t *testing.T) {
	svc := setupAuth(t, nil)
	ctx := context.Background()
	res, err := svc.Register(ctx, SnsEmail, Credentials{Email: "kim@example.com", Password: "pw"})
	require.NoError(t, err)

	access, err := svc.RefreshAccess(ctx, res.Refresh.Token)
	require.NoError(t, err)
	assert.Nil(t, access.Refresh, "refresh token is not rotated")

	next, err := svc.Refresh(ctx, res.Refresh.Token)
	require.NoError(t, err)
	require.NotNil(t, next.Refresh)
	assert.NotEqual(t, res.Refresh.Token, next.Refresh.Token)

	_, err = svc.Refresh(ctx, res.Refresh.Token)
	assert.Equal(t, KindUnauthorized, KindOf(err), "old token is revoked")
	_, err = svc.Refresh(ctx, "")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestAuth_Logout(t *testing.T) {
	svc := setupAuth(t, nil)
	ctx := context.Background()
	kim, err := svc.Register(ctx, SnsEmail, Credentials{Email: "kim@example.com", Password: "pw"})
	require.NoError(t, err)
	lee, err := svc.Register(ctx, SnsEmail, Credentials{Email: "lee@example.com", Password: "pw"})
	require.NoError(t, err)

	err = svc.Logout(ctx, lee.User.ID, kim.Refresh.Token)
	assert.Equal(t, KindUnauthorized, KindOf(err), "cannot revoke someone else's token")

	require.NoError(t, svc.Logout(ctx, 0, kim.Refresh.Token))
	_, err = svc.Refresh(ctx, kim.Refresh.Token)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	require.NoError(t, svc.Logout(ctx, lee.User.ID, ""))
	_, err = svc.RefreshAccess(ctx, lee.Refresh.Token)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	assert.Equal(t, KindUnauthorized, KindOf(svc.Logout(ctx, 0, "")))
}

func TestAuth_Me(t *testing.T) {
	svc := setupAuth(t, nil)
	ctx := context.Background()
	res, err := svc.Register(ctx, SnsEmail, Credentials{Email: "kim@example.com", Password: "pw", Name: "Kim"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kim", me.Name)

	_, err = svc.Me(ctx, 404)
	assert.Equal(t, KindUnauthorized, KindOf(err))
}
