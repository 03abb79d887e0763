package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// dbtx is the subset of *pgxpool.Pool and pgx.Tx used by the services.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Line-item tables. Each is owned by its parent through parent_id with
// ON DELETE CASCADE.
const (
	estimateLinesTable      = "estimate_line_items"
	invoiceLinesTable       = "invoice_line_items"
	purchaseOrderLinesTable = "purchase_order_line_items"
	changeOrderLinesTable   = "change_order_line_items"
)

// validateLines rounds each line to its stored scales in place, then rejects
// empty documents and non-positive quantities.
func validateLines(lines []LineItem) error {
	if len(lines) == 0 {
		return invalidf("document must have at least one line")
	}
	for i := range lines {
		lines[i] = lines[i].RoundInputs()
		l := lines[i]
		if l.Description == "" {
			return invalidf("line %d: description is required", i+1)
		}
		if !l.Quantity.IsPositive() {
			return invalidf("line %d: quantity must be positive", i+1)
		}
		if l.UnitPrice.IsNegative() {
			return invalidf("line %d: unit price cannot be negative", i+1)
		}
		if l.UnitCost != nil && l.UnitCost.IsNegative() {
			return invalidf("line %d: unit cost cannot be negative", i+1)
		}
	}
	return nil
}

// withDefaultMarkup applies markup to cost-plus lines that carry no markup of
// their own.
func withDefaultMarkup(lines []LineItem, markup decimal.Decimal) []LineItem {
	out := make([]LineItem, len(lines))
	for i, l := range lines {
		if l.UnitCost != nil && l.MarkupPercent == nil && !markup.IsZero() {
			m := markup
			l.MarkupPercent = &m
		}
		out[i] = l
	}
	return out
}

func insertLineItems(ctx context.Context, q dbtx, table string, parentID int, lines []LineItem) error {
	for i, l := range lines {
		if _, err := q.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (parent_id, line_number, description, quantity, unit_price,
			                unit_cost, markup_percent, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, table),
			parentID, i+1, l.Description, l.Quantity, l.UnitPrice,
			l.UnitCost, l.MarkupPercent, l.LineTotal,
		); err != nil {
			return fmt.Errorf("insert line %d: %w", i+1, err)
		}
	}
	return nil
}

func replaceLineItems(ctx context.Context, q dbtx, table string, parentID int, lines []LineItem) error {
	if _, err := q.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE parent_id = $1", table), parentID); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	return insertLineItems(ctx, q, table, parentID, lines)
}

func loadLineItems(ctx context.Context, q dbtx, table string, parentID int) ([]LineItem, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`
		SELECT id, line_number, description, quantity, unit_price, unit_cost, markup_percent, line_total
		FROM %s
		WHERE parent_id = $1
		ORDER BY line_number`, table),
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer rows.Close()

	var lines []LineItem
	for rows.Next() {
		var l LineItem
		if err := rows.Scan(&l.ID, &l.LineNumber, &l.Description, &l.Quantity, &l.UnitPrice,
			&l.UnitCost, &l.MarkupPercent, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// loadSettingsGate reads the settings a create/edit needs and returns the
// locked-period gate alongside them.
func loadSettingsGate(ctx context.Context, settings SettingsProvider, companyID int) (*CompanySettings, LockedPeriodGate, error) {
	cs, err := settings.GetSettings(ctx, companyID)
	if err != nil {
		return nil, LockedPeriodGate{}, fmt.Errorf("load company settings: %w", err)
	}
	return cs, cs.Gate(), nil
}

// SettingsProvider is the read side of CompanyService used by document services.
type SettingsProvider interface {
	GetSettings(ctx context.Context, companyID int) (*CompanySettings, error)
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
