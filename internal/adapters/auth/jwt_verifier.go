package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	"github.com/hvacconnect/marketplace/pkg/config"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

// Claims are the access token claims issued by the hosted auth service
type Claims struct {
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// UserMetadata carries the profile fields captured at sign-up
type UserMetadata struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
}

// DisplayName prefers the full name given at sign-up
func (m UserMetadata) DisplayName() string {
	if m.FullName != "" {
		return m.FullName
	}
	return m.Name
}

// JWTVerifier validates HS256 access tokens signed with the shared project secret
type JWTVerifier struct {
	secret  []byte
	options []jwt.ParserOption
}

// NewJWTVerifier creates a verifier from auth configuration
func NewJWTVerifier(cfg *config.AuthConfig) (*JWTVerifier, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}

	return &JWTVerifier{secret: []byte(cfg.JWTSecret), options: options}, nil
}

var _ providers.TokenVerifier = (*JWTVerifier)(nil)

// Verify checks the token signature and claims and returns the account it names
func (v *JWTVerifier) Verify(ctx context.Context, rawToken string) (*providers.VerifiedToken, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, v.options...)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError(fmt.Sprintf("invalid access token: %v", err))
	}

	if claims.Subject == "" {
		return nil, apperrors.NewUnauthorizedError("access token has no subject")
	}

	tokenID := claims.ID
	if tokenID == "" {
		sum := sha256.Sum256([]byte(rawToken))
		tokenID = hex.EncodeToString(sum[:])
	}

	return &providers.VerifiedToken{
		Account: &entities.Account{
			ID:          claims.Subject,
			Email:       claims.Email,
			DisplayName: claims.UserMetadata.DisplayName(),
		},
		TokenID:   tokenID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
