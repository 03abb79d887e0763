package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// MaxNumberAttempts bounds the linear search for a free document number.
const MaxNumberAttempts = 100

// NumberSequence ties a human-readable prefix to the table holding the
// numbers. Every such table has company_id and number columns.
type NumberSequence struct {
	Prefix string
	Table  string
}

var (
	EstimateNumbers      = NumberSequence{Prefix: "EST", Table: "estimates"}
	JobOrderNumbers      = NumberSequence{Prefix: "JO", Table: "job_orders"}
	InvoiceNumbers       = NumberSequence{Prefix: "INV", Table: "invoices"}
	PurchaseOrderNumbers = NumberSequence{Prefix: "PO", Table: "purchase_orders"}
	ChangeOrderNumbers   = NumberSequence{Prefix: "CO", Table: "change_orders"}
	VendorBillNumbers    = NumberSequence{Prefix: "VB", Table: "vendor_bills"}
)

var sequences = []NumberSequence{
	EstimateNumbers, JobOrderNumbers, InvoiceNumbers,
	PurchaseOrderNumbers, ChangeOrderNumbers, VendorBillNumbers,
}

// SequenceByPrefix looks up a sequence by its prefix, case-insensitively.
func SequenceByPrefix(prefix string) (NumberSequence, bool) {
	for _, seq := range sequences {
		if strings.EqualFold(seq.Prefix, prefix) {
			return seq, true
		}
	}
	return NumberSequence{}, false
}

// FormatDocumentNumber renders prefix and sequence as e.g. "INV-00042".
func FormatDocumentNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%05d", prefix, n)
}

// numberPattern matches prefix-numbered documents and captures the suffix.
// Up to nine digits count, which leaves out the timestamp fallbacks. The same
// pattern runs as a POSIX regex in Postgres.
func numberPattern(prefix string) string {
	return "^" + regexp.QuoteMeta(prefix) + "-([0-9]{1,9})$"
}

// ParseNumberSuffix extracts the numeric suffix from a number carrying prefix.
// Timestamp fallbacks and foreign formats return false.
func ParseNumberSuffix(prefix, number string) (int64, bool) {
	m := regexp.MustCompile(numberPattern(prefix)).FindStringSubmatch(number)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NumberExistsFunc reports whether a candidate number is already taken.
type NumberExistsFunc func(ctx context.Context, number string) (bool, error)

// NextDocumentNumber tries last+1, last+2, ... until exists reports a free
// number, up to MaxNumberAttempts candidates. When every candidate collides it
// falls back to a number suffixed with now in Unix milliseconds.
func NextDocumentNumber(ctx context.Context, prefix string, last int64, exists NumberExistsFunc, now func() time.Time) (string, error) {
	for i := int64(1); i <= MaxNumberAttempts; i++ {
		candidate := FormatDocumentNumber(prefix, last+i)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s-%d", prefix, now().UnixMilli()), nil
}

// NumberLocker serialises number generation for one key across processes.
type NumberLocker interface {
	Obtain(ctx context.Context, key string) (release func(), err error)
}

// NumberGenerator hands out document numbers. The locker is optional; without
// it the retry loop and the unique (company_id, number) index are the only
// guard against concurrent creators.
type NumberGenerator struct {
	locker NumberLocker
	now    func() time.Time
}

// NewNumberGenerator returns a generator using locker, which may be nil.
func NewNumberGenerator(locker NumberLocker) *NumberGenerator {
	return &NumberGenerator{locker: locker, now: time.Now}
}

// Lock takes the cross-process lock for a company's sequence. The returned
// release func is always safe to call.
func (g *NumberGenerator) Lock(ctx context.Context, companyID int, seq NumberSequence) (func(), error) {
	if g == nil || g.locker == nil {
		return func() {}, nil
	}
	release, err := g.locker.Obtain(ctx, fmt.Sprintf("numbering:%d:%s", companyID, seq.Prefix))
	if err != nil {
		return func() {}, fmt.Errorf("lock %s numbering: %w", seq.Prefix, err)
	}
	return release, nil
}

// Next returns the next free number in seq for the company, reading through q
// so that callers can generate inside their own transaction.
func (g *NumberGenerator) Next(ctx context.Context, q dbtx, companyID int, seq NumberSequence) (string, error) {
	pattern := numberPattern(seq.Prefix)
	var (
		last    int64
		highest string
	)
	err := q.QueryRow(ctx, fmt.Sprintf(`
		SELECT number FROM %s
		WHERE company_id = $1 AND number ~ $2
		ORDER BY substring(number FROM $2)::bigint DESC
		LIMIT 1`, seq.Table),
		companyID, pattern,
	).Scan(&highest)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return "", fmt.Errorf("read last %s number: %w", seq.Prefix, err)
	default:
		n, ok := ParseNumberSuffix(seq.Prefix, highest)
		if !ok {
			return "", fmt.Errorf("read last %s number: unexpected %q", seq.Prefix, highest)
		}
		last = n
	}

	exists := func(ctx context.Context, number string) (bool, error) {
		var taken bool
		err := q.QueryRow(ctx,
			fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE company_id = $1 AND number = $2)", seq.Table),
			companyID, number,
		).Scan(&taken)
		return taken, err
	}

	now := time.Now
	if g != nil && g.now != nil {
		now = g.now
	}
	return NextDocumentNumber(ctx, seq.Prefix, last, exists, now)
}
