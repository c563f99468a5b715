package partner

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"time"
)

const numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var (
	payoutNumberPattern  = regexp.MustCompile(`^PO-[0-9]{8}-[A-Z0-9]{6}$`)
	partnerNumberPattern = regexp.MustCompile(`^P-[0-9]{6,}$`)
)

// GeneratePayoutNumber returns PO-YYYYMMDD-XXXXXX for the UTC day of now.
// Collisions are caught by the unique index and retried by the caller.
func GeneratePayoutNumber(now time.Time) string {
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	suffix := make([]byte, len(buf))
	for i, v := range buf {
		suffix[i] = numberAlphabet[int(v)%len(numberAlphabet)]
	}
	return fmt.Sprintf("PO-%s-%s", now.UTC().Format("20060102"), suffix)
}

// ValidatePayoutNumber checks the PO-YYYYMMDD-XXXXXX format.
func ValidatePayoutNumber(n string) bool {
	return payoutNumberPattern.MatchString(n)
}

// FormatPartnerNumber renders a storage sequence value as P-000123.
func FormatPartnerNumber(seq int64) string {
	return fmt.Sprintf("P-%06d", seq)
}

// ValidatePartnerNumber checks the P-000123 format.
func ValidatePartnerNumber(n string) bool {
	return partnerNumberPattern.MatchString(n)
}
