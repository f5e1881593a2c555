package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"beruang/internal/frame"
	"beruang/internal/ledger"
)

// Roles of the ledger columns in a stored snapshot.
const (
	roleDate     = "date"
	roleDetails  = "details"
	roleCategory = "category"
	roleAccount  = "account"
	roleCurrency = "currency"
	roleCost     = "cost"
)

type storedColumn struct {
	position int
	name     string
	kind     frame.Kind
	role     string
}

func headerRoles(h ledger.Header) map[string]string {
	return map[string]string{
		h.Date:     roleDate,
		h.Details:  roleDetails,
		h.Category: roleCategory,
		h.Account:  roleAccount,
		h.Currency: roleCurrency,
		h.Cost:     roleCost,
	}
}

func roleName(h ledger.Header, role string) string {
	switch role {
	case roleDate:
		return h.Date
	case roleDetails:
		return h.Details
	case roleCategory:
		return h.Category
	case roleAccount:
		return h.Account
	case roleCurrency:
		return h.Currency
	case roleCost:
		return h.Cost
	}
	return ""
}

// layoutOf describes schema for storage, tagging the ledger columns.
func layoutOf(schema frame.Schema, h ledger.Header) []storedColumn {
	roles := headerRoles(h)
	cols := make([]storedColumn, len(schema))
	for i, f := range schema {
		cols[i] = storedColumn{position: i, name: f.Name, kind: f.Kind, role: roles[f.Name]}
	}
	return cols
}

// legacyLayout is the layout of snapshots saved before column layouts were
// recorded: the six ledger columns in canonical order.
func legacyLayout() []storedColumn {
	roles := []string{roleDate, roleDetails, roleCategory, roleAccount, roleCurrency, roleCost}
	cols := make([]storedColumn, len(roles))
	for i, r := range roles {
		kind := frame.KindText
		switch r {
		case roleDate:
			kind = frame.KindDate
		case roleCost:
			kind = frame.KindDecimal
		}
		cols[i] = storedColumn{position: i, name: r, kind: kind, role: r}
	}
	return cols
}

// schemaOf renames the ledger columns after h; other columns keep their
// stored names.
func schemaOf(cols []storedColumn, h ledger.Header) frame.Schema {
	schema := make(frame.Schema, len(cols))
	for i, c := range cols {
		name := c.name
		if c.role != "" {
			name = roleName(h, c.role)
		}
		schema[i] = frame.Field{Name: name, Kind: c.kind}
	}
	return schema
}

func (s *SQLiteStore) columns(ctx context.Context, id uuid.UUID) ([]storedColumn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, kind, role FROM snapshot_columns WHERE snapshot_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query snapshot columns: %w", err)
	}
	defer rows.Close()

	var cols []storedColumn
	for rows.Next() {
		var (
			c    storedColumn
			kind int
		)
		if err := rows.Scan(&c.position, &c.name, &kind, &c.role); err != nil {
			return nil, fmt.Errorf("scan snapshot column: %w", err)
		}
		c.kind = frame.Kind(kind)
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot columns: %w", err)
	}
	return cols, nil
}

type cellKey struct{ row, col int }

// extras reads the non-ledger cells of snapshot id.
func (s *SQLiteStore) extras(ctx context.Context, id uuid.UUID, cols []storedColumn) (map[cellKey]frame.Value, error) {
	kinds := make(map[int]frame.Kind, len(cols))
	for _, c := range cols {
		kinds[c.position] = c.kind
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_position, column_position, text_value, int_value FROM transaction_extras WHERE snapshot_id = ?`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query extra cells: %w", err)
	}
	defer rows.Close()

	out := map[cellKey]frame.Value{}
	for rows.Next() {
		var (
			k    cellKey
			text sql.NullString
			num  sql.NullInt64
		)
		if err := rows.Scan(&k.row, &k.col, &text, &num); err != nil {
			return nil, fmt.Errorf("scan extra cell: %w", err)
		}
		if kinds[k.col] == frame.KindText {
			out[k] = frame.Value{Valid: text.Valid, Str: text.String}
		} else {
			out[k] = frame.Value{Valid: num.Valid, Int: num.Int64}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extra cells: %w", err)
	}
	return out, nil
}
