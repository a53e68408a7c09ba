package qr

import (
	"errors"
	"time"

	"odl-backend/internal/config"
	"odl-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ScanToken is the decoded payload of a scanned QR code. It binds one
// order identity to one transition attempt; freshness checks belong to
// the scan guard, so there is no expiry here.
type ScanToken struct {
	OrderNumber string
	PartNumber  string
	TokenID     string
	IssuedAt    time.Time
}

// Decode failures are distinguished so the operator UI can tell a
// corrupt print from a forged or foreign code.
var (
	ErrMalformedToken = errors.New("scan token is malformed")
	ErrBadSignature   = errors.New("scan token signature mismatch")
)

type scanClaims struct {
	OrderNumber string `json:"odl"`
	PartNumber  string `json:"part_number"`
	jwt.RegisteredClaims
}

// Codec signs and verifies scan tokens with the process-wide QR secret.
// Stateless; safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
}

func NewCodec(cfg *config.Config) *Codec {
	return &Codec{
		secret: []byte(cfg.QR.Secret),
		issuer: cfg.QR.Issuer,
	}
}

// Encode produces the string printed as a QR code for a work order.
// Every call mints a fresh token id, so reprinted labels are distinct
// tokens for duplicate suppression.
func (c *Codec) Encode(orderNumber, partNumber string) (string, error) {
	now := timeutil.Now()

	claims := &scanClaims{
		OrderNumber: orderNumber,
		PartNumber:  partNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   c.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode parses and verifies a scanned string.
func (c *Codec) Decode(tokenString string) (*ScanToken, error) {
	claims := &scanClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return c.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, ErrBadSignature) {
			return nil, ErrBadSignature
		}
		return nil, ErrMalformedToken
	}

	if !token.Valid || claims.OrderNumber == "" || claims.PartNumber == "" {
		return nil, ErrMalformedToken
	}

	issuedAt := time.Time{}
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}

	return &ScanToken{
		OrderNumber: claims.OrderNumber,
		PartNumber:  claims.PartNumber,
		TokenID:     claims.ID,
		IssuedAt:    issuedAt,
	}, nil
}
