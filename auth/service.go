// Token logic: password login, access/refresh pair issuance, refresh, and
// token validation.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/config"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenIssuer      = "softdesk"
)

// CustomClaims embeds jwt.RegisteredClaims and adds custom fields.
type CustomClaims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// AuthService verifies credentials and issues tokens.
type AuthService struct {
	db         *sqlx.DB
	authConfig config.AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *sqlx.DB, authConfig config.AuthConfig) *AuthService {
	return &AuthService{
		db:         db,
		authConfig: authConfig,
	}
}

type credentials struct {
	ID       int64  `db:"id"`
	Password string `db:"password"`
}

// Login authenticates a user and returns tokens.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var creds credentials
	err := s.db.GetContext(ctx, &creds, s.db.Rebind(`SELECT id, password FROM users WHERE username = ?`), req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Do not reveal whether the username or the password was wrong.
			return nil, apperror.NewAuthError("invalid credentials", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.Password), []byte(req.Password)); err != nil {
		logrus.WithField("username", req.Username).Debug("login rejected: password mismatch")
		return nil, apperror.NewAuthError("invalid credentials", nil)
	}

	return s.IssueTokens(creds.ID)
}

// RefreshToken issues a new access token from a valid refresh token. The
// refresh token itself is returned unchanged.
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenResponse, error) {
	claims, err := ValidateToken(s.authConfig.JWTSecret, refreshTokenString, tokenTypeRefresh)
	if err != nil {
		return nil, apperror.NewAuthError("invalid refresh token", err)
	}

	exists, err := s.UserExists(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NewAuthError("user no longer exists", nil)
	}

	accessToken, err := s.generateSpecificToken(claims.UserID, tokenTypeAccess, s.authConfig.AccessTokenDuration)
	if err != nil {
		return nil, apperror.NewInternalError("failed to generate access token", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.authConfig.AccessTokenDuration.Seconds()),
	}, nil
}

// UserExists reports whether the account behind a token is still present.
func (s *AuthService) UserExists(ctx context.Context, userID int64) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM users WHERE id = ?`), userID)
	if err != nil {
		return false, apperror.NewDatabaseError("failed to look up user", err)
	}
	return n > 0, nil
}

// IssueTokens returns a fresh access and refresh token pair for userID.
func (s *AuthService) IssueTokens(userID int64) (*TokenResponse, error) {
	accessToken, err := s.generateSpecificToken(userID, tokenTypeAccess, s.authConfig.AccessTokenDuration)
	if err != nil {
		return nil, apperror.NewInternalError("failed to generate access token", err)
	}
	refreshToken, err := s.generateSpecificToken(userID, tokenTypeRefresh, s.authConfig.RefreshTokenDuration)
	if err != nil {
		return nil, apperror.NewInternalError("failed to generate refresh token", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.authConfig.AccessTokenDuration.Seconds()),
	}, nil
}

// generateSpecificToken creates a signed HS256 JWT of the given type.
func (s *AuthService) generateSpecificToken(userID int64, tokenType string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.authConfig.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses a JWT string and checks its signature, expiry, issuer,
// and token type.
func ValidateToken(secret, tokenString, expectedTokenType string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.TokenType != expectedTokenType {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", expectedTokenType, claims.TokenType)
	}
	if claims.UserID <= 0 {
		return nil, errors.New("user_id claim is missing or invalid")
	}
	return claims, nil
}
