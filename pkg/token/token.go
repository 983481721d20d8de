package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose tags what a token may be used for. Access and refresh tokens are
// signed with distinct secrets so compromise of one cannot forge the other.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("token expired")
)

type Claims struct {
	jwt.RegisteredClaims
	UserID  uuid.UUID `json:"uid"`
	Purpose Purpose   `json:"purpose"`
	TokenID string    `json:"token_id,omitempty"`
}

// Codec issues and verifies signed, time-boxed tokens. It holds no mutable
// state and is safe for concurrent use.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
}

func NewCodec(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration, issuer, audience string) (*Codec, error) {
	if len(accessSecret) < 32 || len(refreshSecret) < 32 {
		return nil, errors.New("token secrets must be at least 32 bytes")
	}
	return &Codec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
		audience:      audience,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs a short-lived stateless access token for userID.
func (c *Codec) IssueAccess(userID uuid.UUID) (string, time.Time, error) {
	return c.issue(userID, PurposeAccess, "", c.accessSecret, c.accessTTL)
}

// IssueRefresh signs a long-lived refresh token. Each refresh token embeds a
// random opaque token id so two tokens for the same user never collide.
func (c *Codec) IssueRefresh(userID uuid.UUID) (string, time.Time, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token id: %w", err)
	}
	return c.issue(userID, PurposeRefresh, hex.EncodeToString(nonce), c.refreshSecret, c.refreshTTL)
}

func (c *Codec) issue(userID uuid.UUID, purpose Purpose, tokenID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:  userID,
		Purpose: purpose,
		TokenID: tokenID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry, issuer, audience and purpose. It returns
// ErrExpired for tokens past their expiry and ErrInvalidToken for every other
// failure so callers can distinguish the two without leaking more detail.
func (c *Codec) Verify(tokenString string, purpose Purpose) (*Claims, error) {
	secret := c.accessSecret
	if purpose == PurposeRefresh {
		secret = c.refreshSecret
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
