package billing

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Document number prefixes
const (
	QuoteNumberPrefix   = "QUO"
	InvoiceNumberPrefix = "INV"
)

// publicHashBytes gives 128 bits of entropy, 32 hex characters
const publicHashBytes = 16

var documentNumberPattern = regexp.MustCompile(`^([A-Z]{2,10})-(\d{4})(\d{2})-(\d{3,})$`)

// SequencePeriod returns the YYYYMM scope of a sequence at t
func SequencePeriod(t time.Time) string {
	return t.Format("200601")
}

// FormatDocumentNumber renders PREFIX-YYYYMM-NNN
func FormatDocumentNumber(prefix, period string, sequence int64) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, period, sequence)
}

// DocumentNumber is a parsed quote or invoice number
type DocumentNumber struct {
	Prefix   string
	Year     int
	Month    time.Month
	Sequence int64
}

// ParseDocumentNumber splits a number like INV-202410-007 into its parts
func ParseDocumentNumber(number string) (DocumentNumber, error) {
	m := documentNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return DocumentNumber{}, fmt.Errorf("invalid document number %q", number)
	}
	year, _ := strconv.Atoi(m[2])
	month, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 {
		return DocumentNumber{}, fmt.Errorf("invalid month in document number %q", number)
	}
	seq, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return DocumentNumber{}, fmt.Errorf("invalid sequence in document number %q: %w", number, err)
	}
	return DocumentNumber{Prefix: m[1], Year: year, Month: time.Month(month), Sequence: seq}, nil
}

// IsValidDocumentNumber reports whether number parses with the given prefix
func IsValidDocumentNumber(number, prefix string) bool {
	parsed, err := ParseDocumentNumber(number)
	return err == nil && parsed.Prefix == prefix
}

// NewPublicHash returns an unguessable share token from crypto/rand
func NewPublicHash() (string, error) {
	buf := make([]byte, publicHashBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate public hash: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IsValidPublicHash reports whether s has the shape NewPublicHash produces
func IsValidPublicHash(s string) bool {
	if len(s) != 2*publicHashBytes {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
