package services

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	googleuuid "github.com/google/uuid"
)

const referenceSuffixLen = 7

// newDepositReference builds a gateway reference of the form
// CHW-<first 8 of user id>-<unix ms>-<7 random base36 chars>, upper-cased.
// The reference is the idempotency key for confirming the deposit.
func newDepositReference(userID string, now time.Time) string {
	prefix := userID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return strings.ToUpper(fmt.Sprintf("CHW-%s-%d-%s", prefix, now.UnixMilli(), randomBase36(referenceSuffixLen)))
}

func randomBase36(n int) string {
	u := googleuuid.New()
	s := new(big.Int).SetBytes(u[:]).Text(36)
	if len(s) < n {
		s = strings.Repeat("0", n-len(s)) + s
	}
	return s[len(s)-n:]
}
