package invoicing

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultNumberAttempts = 10
	numberPrefix          = "INV"
	numberDigits          = 6
	fallbackTokenLength   = 8
)

var ErrAllocationExhausted = errors.New("invoice number allocation exhausted")

// NumberChecker reports whether an invoice number is already taken by any
// owner.
type NumberChecker interface {
	ExistsByInvoiceNumber(ctx context.Context, number string) (bool, error)
}

// Allocator hands out invoice numbers of the form INV-YYYYMMDD-NNNNNN.
type Allocator struct {
	checker  NumberChecker
	attempts int
	now      func() time.Time
	digits   func() (string, error)
	token    func() string
}

func NewAllocator(checker NumberChecker, attempts int) *Allocator {
	if attempts <= 0 {
		attempts = DefaultNumberAttempts
	}
	return &Allocator{
		checker:  checker,
		attempts: attempts,
		now:      time.Now,
		digits:   randomDigits,
		token:    uuidToken,
	}
}

// Allocate returns a number no existing invoice uses at the time of the
// check. After the configured number of collisions it returns a candidate
// with an extra random token appended, without checking it.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	date := a.now().UTC().Format("20060102")

	for attempt := 0; attempt < a.attempts; attempt++ {
		candidate, err := a.candidate(date)
		if err != nil {
			return "", err
		}
		exists, err := a.checker.ExistsByInvoiceNumber(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check invoice number %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}

	candidate, err := a.candidate(date)
	if err != nil {
		return "", err
	}
	token := a.token()
	if token == "" {
		return "", ErrAllocationExhausted
	}
	return candidate + "-" + token, nil
}

func (a *Allocator) candidate(date string) (string, error) {
	digits, err := a.digits()
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", numberPrefix, date, digits), nil
}

func randomDigits() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", numberDigits, n.Int64()), nil
}

func uuidToken() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(token[:fallbackTokenLength])
}
