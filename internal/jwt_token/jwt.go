// Package jwttoken issues and validates the service's HS256 access tokens
// and generates the opaque refresh tokens that accompany them.
package jwttoken

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/middleware/requesttime"
)

// AccessTokenClaims represents the JWT claims for our access tokens.
type AccessTokenClaims struct {
	StudentID string `json:"student_id"`
	SessionID string `json:"session_id"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
}

func NewJWTService(signingKey string, issuer string, audience string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// AccessTokenTTL returns the configured access token lifetime. Callers
// use it for expires_in fields and revocation windows.
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.tokenTTL
}

// GenerateAccessToken issues a signed access token for the student session.
func (s *JWTService) GenerateAccessToken(
	ctx context.Context,
	studentID id.StudentID,
	sessionID id.SessionID,
	email string,
) (string, error) {
	token, _, err := s.GenerateAccessTokenWithJTI(ctx, studentID, sessionID, email)
	return token, err
}

// GenerateAccessTokenWithJTI issues a signed access token and returns its
// JTI alongside, for callers that track tokens for revocation.
func (s *JWTService) GenerateAccessTokenWithJTI(
	ctx context.Context,
	studentID id.StudentID,
	sessionID id.SessionID,
	email string,
) (string, string, error) {
	if studentID.IsNil() {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "student ID cannot be empty")
	}
	if sessionID.IsNil() {
		return "", "", dErrors.New(dErrors.CodeInvalidInput, "session ID cannot be empty")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	jti := hex.EncodeToString(b)
	now := requesttime.Now(ctx)

	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		StudentID: studentID.String(),
		SessionID: sessionID.String(),
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        jti,
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", "", err
	}
	return signedToken, jti, nil
}

// ParseTokenSkipClaimsValidation parses a token WITHOUT validating expiration
// or standard claims.
//
// SECURITY WARNING: This method should ONLY be used in specific scenarios:
//   - Token refresh flows where the old token may be expired
//   - Token revocation where we need to extract JTI from expired tokens
//
// This method STILL validates:
//   - Signature (token must be signed with our key)
//   - Algorithm (must be HS256)
//
// Callers MUST perform additional business validation:
//   - Check refresh token validity in storage
//   - Verify session is still active
func (s *JWTService) ParseTokenSkipClaimsValidation(tokenString string) (*AccessTokenClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "empty token")
	}

	claims := new(AccessTokenClaims)

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, dErrors.New(dErrors.CodeInvalidToken, "unexpected signing algorithm")
		}
		return s.signingKey, nil
	},
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid jwt signature")
		}
		return nil, dErrors.New(dErrors.CodeInvalidToken, "jwt parse failed")
	}

	if !token.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid jwt signature")
	}

	return claims, nil
}

// ValidateToken verifies the signature, standard claims, and issuer of an
// access token and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*AccessTokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeInvalidToken, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid token claims")
	}

	// Issuer is pinned exactly; tokens minted for another deployment of the
	// same codebase do not validate here.
	if claims.Issuer != s.issuer {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid token issuer")
	}

	return claims, nil
}

// CreateRefreshToken generates an opaque refresh token. Only its hash is
// ever persisted.
func (s *JWTService) CreateRefreshToken() (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate refresh token")
	}

	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}
