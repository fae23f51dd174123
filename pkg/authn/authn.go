package authn

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUnauthorized = errors.New("unauthorized")

// Party is an authenticated caller identity. Role checks (author, publisher,
// operator) happen per record in the escrow service; authn only resolves who
// is calling.
type Party struct {
	PartyID string
}

func AuthenticateBearer(ctx context.Context, db *pgxpool.Pool, authorization string) (*Party, error) {
	token, ok := ParseBearerToken(authorization)
	if !ok {
		return nil, ErrUnauthorized
	}
	var out Party
	err := db.QueryRow(ctx, `
SELECT party_id
FROM party_credentials
WHERE token_hash=$1
  AND revoked_at IS NULL
  AND status='ACTIVE'
`, HashToken(token)).Scan(&out.PartyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return &out, nil
}

func ParseBearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
