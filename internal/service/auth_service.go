package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/class-booking/internal/model"
	"github.com/iliyamo/class-booking/internal/repository"
	"github.com/iliyamo/class-booking/internal/utils"
)

// Sign-in providers accepted in the :sns_type path segment.
const (
	SnsEmail    = "email"
	SnsGoogle   = "google"
	SnsFacebook = "facebook"
	SnsKakao    = "kakao"
)

type AuthConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// Credentials is the body of register and login.  IDToken is only used by
// social providers.
type Credentials struct {
	Email    string
	Password string
	Name     string
	IDToken  string
}

type UserView struct {
	ID      uint64 `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	SnsType string `json:"sns_type"`
}

type TokenView struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// AuthResult is returned by every operation that issues tokens.
type AuthResult struct {
	Authorization string     `json:"Authorization"`
	User          UserView   `json:"user"`
	Access        TokenView  `json:"access"`
	Refresh       *TokenView `json:"refresh,omitempty"`
}

type AuthService struct {
	cfg    AuthConfig
	users  *repository.UserRepo
	tokens *repository.TokenRepo
	google IDTokenVerifier
}

func NewAuthService(cfg AuthConfig, users *repository.UserRepo, tokens *repository.TokenRepo, google IDTokenVerifier) *AuthService {
	return &AuthService{cfg: cfg, users: users, tokens: tokens, google: google}
}

func invalidCredentials() *Error {
	return newErr(KindInvalidCredentials, "invalid credentials")
}

func notSupported() *Error {
	return &Error{Kind: KindValidation, Code: "NOT_SUPPORTED", Message: "NOT_SUPPORTED"}
}

func userView(u model.User) UserView {
	return UserView{ID: u.ID, Email: u.Email, Name: u.Name, SnsType: u.SnsType}
}

// Register creates an account.  Social providers sign in instead: the
// account is created on first use.
func (s *AuthService) Register(ctx context.Context, snsType string, in Credentials) (AuthResult, error) {
	switch snsType {
	case SnsEmail:
	case SnsGoogle:
		return s.googleLogin(ctx, in.IDToken)
	case SnsFacebook, SnsKakao:
		return AuthResult{}, notSupported()
	default:
		return AuthResult{}, Invalid("unknown sns_type")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return AuthResult{}, Invalid("Email and PW must be provided")
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return AuthResult{}, Invalid("password must be at most 72 bytes")
		}
		return AuthResult{}, Internal("create user failed", err)
	}
	u := model.User{Email: email, PasswordHash: hash, Name: strings.TrimSpace(in.Name), SnsType: SnsEmail}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return AuthResult{}, Conflict("EMAIL_EXISTS", "EMAIL_EXISTS")
		}
		log.Errorf("auth register: %v", err)
		return AuthResult{}, Internal("create user failed", err)
	}
	return s.issue(ctx, u)
}

// Login verifies credentials and returns a fresh token pair.
func (s *AuthService) Login(ctx context.Context, snsType string, in Credentials) (AuthResult, error) {
	switch snsType {
	case SnsEmail:
	case SnsGoogle:
		return s.googleLogin(ctx, in.IDToken)
	case SnsFacebook, SnsKakao:
		return AuthResult{}, notSupported()
	default:
		return AuthResult{}, Invalid("unknown sns_type")
	}

	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return AuthResult{}, Invalid("Email and PW must be provided")
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, invalidCredentials()
		}
		log.Errorf("auth login: %v", err)
		return AuthResult{}, Internal("query failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return AuthResult{}, invalidCredentials()
	}
	if utils.NeedsRehash(u.PasswordHash, s.cfg.BcryptCost) {
		if hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost); err == nil {
			if err := s.users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
				log.Warnf("auth rehash user %d: %v", u.ID, err)
			}
		}
	}
	return s.issue(ctx, u)
}

func (s *AuthService) googleLogin(ctx context.Context, idToken string) (AuthResult, error) {
	if s.google == nil {
		return AuthResult{}, notSupported()
	}
	if strings.TrimSpace(idToken) == "" {
		return AuthResult{}, Invalid("id_token required")
	}
	id, err := s.google.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, ErrGoogleDisabled) {
			return AuthResult{}, notSupported()
		}
		return AuthResult{}, Unauthorized("invalid Google ID token")
	}
	if id.Email == "" {
		return AuthResult{}, Unauthorized("Google ID token carries no email")
	}

	u, err := s.users.GetByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if u.SnsType != SnsGoogle {
			return AuthResult{}, Conflict("EMAIL_EXISTS", "EMAIL_EXISTS")
		}
	case errors.Is(err, repository.ErrNotFound):
		u = model.User{Email: id.Email, Name: id.Name, SnsType: SnsGoogle}
		if err := s.users.Create(ctx, &u); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return AuthResult{}, Conflict("EMAIL_EXISTS", "EMAIL_EXISTS")
			}
			return AuthResult{}, Internal("create user failed", err)
		}
	default:
		return AuthResult{}, Internal("query failed", err)
	}
	return s.issue(ctx, u)
}

func (s *AuthService) accessFor(u model.User) (utils.AccessToken, error) {
	return utils.NewAccessToken(s.cfg.JWTSecret, utils.TokenSubject{
		ID: u.ID, Email: u.Email, Name: u.Name, SnsType: u.SnsType,
	}, s.cfg.AccessTTLMin)
}

// issue mints an access token and a stored refresh token for u.
func (s *AuthService) issue(ctx context.Context, u model.User) (AuthResult, error) {
	access, err := s.accessFor(u)
	if err != nil {
		return AuthResult{}, Internal("issue access failed", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return AuthResult{}, Internal("issue refresh failed", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		log.Errorf("auth store refresh: %v", err)
		return AuthResult{}, Internal("save refresh failed", err)
	}
	return AuthResult{
		Authorization: access.Bearer(),
		User:          userView(u),
		Access:        TokenView{Token: access.Token, Expires: access.Exp},
		Refresh:       &TokenView{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

func (s *AuthService) userForRefresh(ctx context.Context, raw string) (model.User, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.User{}, "", Invalid("refresh_token required")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, "", Unauthorized("invalid refresh")
		}
		return model.User{}, "", Internal("query failed", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, "", Unauthorized("invalid refresh")
		}
		return model.User{}, "", Internal("load user failed", err)
	}
	return u, hash, nil
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, raw string) (AuthResult, error) {
	u, hash, err := s.userForRefresh(ctx, raw)
	if err != nil {
		return AuthResult{}, err
	}
	access, err := s.accessFor(u)
	if err != nil {
		return AuthResult{}, Internal("issue access failed", err)
	}
	next, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return AuthResult{}, Internal("issue refresh failed", err)
	}
	if err := s.tokens.Rotate(ctx, hash, u.ID, utils.HashRefreshRaw(next.Raw), next.Exp); err != nil {
		log.Errorf("auth rotate refresh: %v", err)
		return AuthResult{}, Internal("save refresh failed", err)
	}
	return AuthResult{
		Authorization: access.Bearer(),
		User:          userView(u),
		Access:        TokenView{Token: access.Token, Expires: access.Exp},
		Refresh:       &TokenView{Token: next.Raw, Expires: next.Exp},
	}, nil
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (s *AuthService) RefreshAccess(ctx context.Context, raw string) (AuthResult, error) {
	u, _, err := s.userForRefresh(ctx, raw)
	if err != nil {
		return AuthResult{}, err
	}
	access, err := s.accessFor(u)
	if err != nil {
		return AuthResult{}, Internal("issue access failed", err)
	}
	return AuthResult{
		Authorization: access.Bearer(),
		User:          userView(u),
		Access:        TokenView{Token: access.Token, Expires: access.Exp},
	}, nil
}

// Logout revokes one refresh token when raw is given, otherwise every
// refresh token of userID.
func (s *AuthService) Logout(ctx context.Context, userID uint64, raw string) error {
	if raw = strings.TrimSpace(raw); raw != "" {
		hash := utils.HashRefreshRaw(raw)
		owner, err := s.tokens.ValidateRefresh(ctx, hash)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Unauthorized("invalid refresh token")
			}
			return Internal("logout failed", err)
		}
		if userID != 0 && owner != userID {
			return Unauthorized("invalid refresh token")
		}
		if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
			return Internal("logout failed", err)
		}
		return nil
	}
	if userID == 0 {
		return Unauthorized("unauthorized")
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return Internal("logout failed", err)
	}
	return nil
}

// Me loads the account behind an access token.
func (s *AuthService) Me(ctx context.Context, userID uint64) (UserView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return UserView{}, Unauthorized("unknown user")
		}
		return UserView{}, Internal("load user failed", err)
	}
	return userView(u), nil
}
