package service

import (
	"context"
	"testing"
	"time"

	"grandeva/store-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func register(t *testing.T, s *Identity, email, pw string) (*model.User, *model.AuthToken) {
	t.Helper()

	u, tok, err := s.Register(context.Background(), RegisterInput{
		Method:   MethodEmailPassword,
		Email:    email,
		Name:     "Ana",
		Password: pw,
	})
	require.NoError(t, err)

	return u, tok
}

func TestRegister(t *testing.T) {
	d := testDB(t)
	s := testIdentity(d)

	u, tok := register(t, s, " A@X.com ", "pw1")
	assert.Equal(t, "a@x.com", u.Email)
	assert.NotEqual(t, "pw1", u.PasswordHash)
	assert.Equal(t, u.ID, tok.UserID)
	assert.NotEmpty(t, tok.Token)

	var stored model.AuthToken
	require.NoError(t, d.First(&stored, "user_id = ?", u.ID).Error)
	assert.Equal(t, tok.Token, stored.Token)

	_, _, err := s.Register(context.Background(), RegisterInput{
		Method:   MethodEmailPassword,
		Email:    "a@x.com",
		Password: "pw1",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUnsupportedMethod(t *testing.T) {
	s := testIdentity(testDB(t))

	_, _, err := s.Register(context.Background(), RegisterInput{
		Method:   MethodGoogle,
		Email:    "a@x.com",
		Password: "pw1",
	})
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestAuthenticate(t *testing.T) {
	d := testDB(t)
	s := testIdentity(d)
	ctx := context.Background()

	_, regTok := register(t, s, "a@x.com", "pw1")

	tok, err := s.Authenticate(ctx, "A@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, regTok.Token, tok.Token, "a still valid token is reused")

	_, err = s.Authenticate(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "nobody@x.com", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRotatesExpiredToken(t *testing.T) {
	d := testDB(t)
	s := testIdentity(d)
	ctx := context.Background()

	past := time.Now().Add(-2 * time.Hour)
	s.Signer.Now = func() time.Time { return past }
	u, old := register(t, s, "a@x.com", "pw1")
	s.Signer.Now = time.Now

	tok, err := s.Authenticate(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.NotEqual(t, old.Token, tok.Token)

	var n int64
	require.NoError(t, d.Model(&model.AuthToken{}).Where("user_id = ?", u.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n, "rotation happens in place")

	_, err = s.Verify(ctx, old.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	userID, err := s.Verify(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func TestAuthenticateAfterSignOut(t *testing.T) {
	d := testDB(t)
	s := testIdentity(d)
	ctx := context.Background()

	u, _ := register(t, s, "a@x.com", "pw1")
	require.NoError(t, s.SignOut(ctx, u.ID))

	tok, err := s.Authenticate(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	userID, err := s.Verify(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func TestVerify(t *testing.T) {
	d := testDB(t)
	s := testIdentity(d)
	ctx := context.Background()

	u, tok := register(t, s, "a@x.com", "pw1")

	userID, err := s.Verify(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)

	_, err = s.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	require.NoError(t, s.SignOut(ctx, u.ID))

	_, err = s.Verify(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefresh(t *testing.T) {
	d := testDB(t)
	s := testIdentity(d)
	ctx := context.Background()

	u, old := register(t, s, "a@x.com", "pw1")

	tok, err := s.Refresh(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, old.Token, tok.Token)

	_, err = s.Verify(ctx, old.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = s.Verify(ctx, tok.Token)
	assert.NoError(t, err)

	_, err = s.Refresh(ctx, "nobodynobodynobo")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfile(t *testing.T) {
	d := testDB(t)
	s := testIdentity(d)
	ctx := context.Background()

	u, _ := register(t, s, "a@x.com", "pw1")
	p := seedProduct(t, d, "shirt")

	_, err := NewInteractions(d).Reserve(ctx, u.ID, p.ID)
	require.NoError(t, err)

	got, err := s.Profile(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got.ReservedProducts, 1)
	assert.Equal(t, p.ID, got.ReservedProducts[0].ID)

	_, err = s.Profile(ctx, "nobodynobodynobo")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
