package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grandeva/store-api/internal/model"
	"grandeva/store-api/pkg/security"
	"grandeva/store-api/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MethodEmailPassword = "Email-Password"
	MethodGoogle        = "Google"
)

type PasswordHasher interface {
	GenerateFromPassword(p string) (string, error)
	VerifyPasswd(p, e string) (bool, error)
}

// Identity registers users and manages their single session token.
//
// Expiry lives in the signed token only. The stored row decides whether a
// token that verifies is still the current one, which is what makes sign out
// and rotation work.
type Identity struct {
	DB     *gorm.DB
	Hasher PasswordHasher
	Signer *security.SessionSigner
}

func NewIdentity(db *gorm.DB, h PasswordHasher, s *security.SessionSigner) *Identity {
	return &Identity{DB: db, Hasher: h, Signer: s}
}

type RegisterInput struct {
	Method   string
	Email    string
	Name     string
	Password string
}

// Register creates the user together with its first session token
func (s *Identity) Register(ctx context.Context, in RegisterInput) (*model.User, *model.AuthToken, error) {
	if in.Method != MethodEmailPassword {
		return nil, nil, ErrUnsupportedMethod
	}

	email := normalizeEmail(in.Email)
	db := s.DB.WithContext(ctx)

	var found bool

	r := db.Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ?", email).
		Find(&found)
	if r.Error != nil {
		return nil, nil, fmt.Errorf("failed to check if user is registered, %w", r.Error)
	}

	if found {
		return nil, nil, ErrEmailTaken
	}

	hash, err := s.Hasher.GenerateFromPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password, %w", err)
	}

	userID, err := util.NewID()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate user ID, %w", err)
	}

	token, err := s.newToken(userID)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		ID:           userID,
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		AuthToken:    token,
	}

	// The token row is written by the same statement batch, inside one transaction
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrEmailTaken
		}

		return nil, nil, fmt.Errorf("failed to create user, %w", err)
	}

	zap.L().Debug("User registered", zap.String("userID", userID))
	return user, token, nil
}

// Authenticate checks the credentials and hands back the user's session. The
// stored token is reused while it still verifies and rotated otherwise.
func (s *Identity) Authenticate(ctx context.Context, email, password string) (*model.AuthToken, error) {
	var user model.User

	err := s.DB.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	ok, err := s.Hasher.VerifyPasswd(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, ErrInvalidCredentials
	}

	var token *model.AuthToken

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := currentToken(tx, user.ID)
		if err != nil {
			return err
		}

		if current != nil {
			if _, err := s.Signer.Parse(current.Token); err == nil {
				token = current
				return nil
			}
		}

		token, err = s.rotate(tx, user.ID, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

// Verify returns the owner of tokenStr if it is valid and still the
// current session of that user
func (s *Identity) Verify(ctx context.Context, tokenStr string) (string, error) {
	userID, err := s.Signer.Parse(tokenStr)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return "", ErrTokenExpired
		}

		return "", ErrTokenInvalid
	}

	var n int64

	err = s.DB.WithContext(ctx).
		Model(&model.AuthToken{}).
		Where("user_id = ? AND token = ?", userID, tokenStr).
		Count(&n).
		Error
	if err != nil {
		return "", fmt.Errorf("failed to look up token, %w", err)
	}

	if n == 0 {
		return "", ErrTokenRevoked
	}

	return userID, nil
}

// Refresh replaces the current session token of userID with a new one
func (s *Identity) Refresh(ctx context.Context, userID string) (*model.AuthToken, error) {
	var token *model.AuthToken

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
			return err
		}

		if users == 0 {
			return ErrUserNotFound
		}

		current, err := currentToken(tx, userID)
		if err != nil {
			return err
		}

		token, err = s.rotate(tx, userID, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

// SignOut revokes the session of userID
func (s *Identity) SignOut(ctx context.Context, userID string) error {
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.AuthToken{}).
		Error
	if err != nil {
		return fmt.Errorf("failed to delete token, %w", err)
	}

	return nil
}

// Profile returns the user with its reserved products loaded
func (s *Identity) Profile(ctx context.Context, userID string) (*model.User, error) {
	var user model.User

	err := s.DB.WithContext(ctx).
		Preload("ReservedProducts").
		Where("id = ?", userID).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &user, nil
}

func (s *Identity) newToken(userID string) (*model.AuthToken, error) {
	rowID, err := util.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token ID, %w", err)
	}

	jti, err := util.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token ID, %w", err)
	}

	signed, exp, err := s.Signer.Issue(userID, jti)
	if err != nil {
		return nil, err
	}

	return &model.AuthToken{
		ID:        rowID,
		Token:     signed,
		UserID:    userID,
		ExpiresAt: exp,
		CreatedAt: time.Now(),
	}, nil
}

// rotate updates current in place, or creates the row if the user has none
func (s *Identity) rotate(tx *gorm.DB, userID string, current *model.AuthToken) (*model.AuthToken, error) {
	fresh, err := s.newToken(userID)
	if err != nil {
		return nil, err
	}

	if current == nil {
		if err := tx.Create(fresh).Error; err != nil {
			return nil, fmt.Errorf("failed to create token, %w", err)
		}

		return fresh, nil
	}

	err = tx.
		Model(current).
		Updates(map[string]any{
			"token":      fresh.Token,
			"expires_at": fresh.ExpiresAt,
			"created_at": fresh.CreatedAt,
		}).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to update token, %w", err)
	}

	current.Token = fresh.Token
	current.ExpiresAt = fresh.ExpiresAt
	current.CreatedAt = fresh.CreatedAt

	zap.L().Debug("Session token rotated", zap.String("userID", userID))
	return current, nil
}

func currentToken(tx *gorm.DB, userID string) (*model.AuthToken, error) {
	var token model.AuthToken

	err := tx.Where("user_id = ?", userID).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch token, %w", err)
	}

	return &token, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
