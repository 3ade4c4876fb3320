package leadio

import (
	"fmt"
	"strings"

	"github.com/ignite/lead-cleaner/internal/leadclean"
)

// columnAliases maps lowercase header names to canonical lead fields.
// When several raw headers mean the same thing, they all map here.
var columnAliases = map[string]string{
	// Identifier
	"lead_id": leadclean.FieldLeadID,
	"leadid":  leadclean.FieldLeadID,
	"lead id": leadclean.FieldLeadID,
	"id":      leadclean.FieldLeadID,

	// Name
	"name":      leadclean.FieldName,
	"full_name": leadclean.FieldName,
	"fullname":  leadclean.FieldName,
	"full name": leadclean.FieldName,

	// Phone
	"phone":        leadclean.FieldPhone,
	"phone_number": leadclean.FieldPhone,
	"mobile":       leadclean.FieldPhone,
	"tel":          leadclean.FieldPhone,
	"telephone":    leadclean.FieldPhone,

	// Email
	"email":         leadclean.FieldEmail,
	"email_address": leadclean.FieldEmail,
	"e-mail":        leadclean.FieldEmail,
	"mail":          leadclean.FieldEmail,

	// Creation timestamp
	"created_at": leadclean.FieldCreatedAt,
	"createdat":  leadclean.FieldCreatedAt,
	"created":    leadclean.FieldCreatedAt,
	"date":       leadclean.FieldCreatedAt,

	// Amount
	"amount": leadclean.FieldAmount,
	"sum":    leadclean.FieldAmount,
	"total":  leadclean.FieldAmount,
}

// ColumnMapping holds the resolved position of each canonical field.
type ColumnMapping struct {
	Index    map[string]int // canonical field -> column index
	RawNames []string       // original header names
}

// MapColumns resolves a header row. Every canonical field must be present;
// the first matching column wins when a header repeats a field.
func MapColumns(header []string) (*ColumnMapping, error) {
	m := &ColumnMapping{
		Index:    make(map[string]int, len(leadclean.Columns)),
		RawNames: header,
	}

	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		normalized = strings.Trim(normalized, "\"'")

		field, ok := columnAliases[normalized]
		if !ok {
			continue
		}
		if _, seen := m.Index[field]; !seen {
			m.Index[field] = i
		}
	}

	var missing []string
	for _, field := range leadclean.Columns {
		if _, ok := m.Index[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return m, nil
}

// Row builds a RawRow from one CSV record. Short records leave the missing
// trailing fields empty.
func (m *ColumnMapping) Row(record []string) leadclean.RawRow {
	get := func(field string) string {
		i := m.Index[field]
		if i < len(record) {
			return record[i]
		}
		return ""
	}
	return leadclean.RawRow{
		LeadID:    get(leadclean.FieldLeadID),
		Name:      get(leadclean.FieldName),
		Phone:     get(leadclean.FieldPhone),
		Email:     get(leadclean.FieldEmail),
		CreatedAt: get(leadclean.FieldCreatedAt),
		Amount:    get(leadclean.FieldAmount),
	}
}
