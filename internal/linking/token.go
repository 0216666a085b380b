package linking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	messagingDatamodel "github.com/frahmantamala/dormitory-management/internal/core/datamodel/messaging"
)

// Code alphabet excludes visually ambiguous characters (0/O, 1/I/L) so a
// tenant can read the code off a screen and type it into the chat.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	codeLength = 6
	tokenTTL   = 10 * time.Minute
)

type LinkToken struct {
	ID        int64
	Code      string
	UserID    int64
	TenantID  int64
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

func (t *LinkToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type Binding struct {
	TenantID   int64
	ExternalID string
	LinkedAt   time.Time
}

// GenerateCode draws a 6-character code from the restricted alphabet using
// crypto/rand.
func GenerateCode() (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate link code: %w", err)
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// ValidCode reports whether s looks like a link code: right length, only
// alphabet characters.
func ValidCode(s string) bool {
	if len(s) != codeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

func TokenToDataModel(t *LinkToken) *messagingDatamodel.LinkToken {
	return &messagingDatamodel.LinkToken{
		ID:        t.ID,
		Code:      t.Code,
		UserID:    t.UserID,
		TenantID:  t.TenantID,
		ExpiresAt: t.ExpiresAt,
		Used:      t.Used,
		CreatedAt: t.CreatedAt,
	}
}

func TokenFromDataModel(t *messagingDatamodel.LinkToken) *LinkToken {
	return &LinkToken{
		ID:        t.ID,
		Code:      t.Code,
		UserID:    t.UserID,
		TenantID:  t.TenantID,
		ExpiresAt: t.ExpiresAt,
		Used:      t.Used,
		CreatedAt: t.CreatedAt,
	}
}
