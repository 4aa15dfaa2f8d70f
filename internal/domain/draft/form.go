package draft

import (
	"strconv"
	"strings"

	"github.com/garyjia/billed/internal/domain/entity"
)

// Form field names of the new bill form
const (
	FieldType       = "type"
	FieldName       = "name"
	FieldDate       = "date"
	FieldAmount     = "amount"
	FieldVAT        = "vat"
	FieldPct        = "pct"
	FieldCommentary = "commentary"
)

// FormSnapshot is the flat field name to value mapping read off the form at submit time
type FormSnapshot map[string]string

// Bill assembles a pending bill owned by email from the form fields.
// File fields are left for the caller to fill.
func (f FormSnapshot) Bill(email string) entity.Bill {
	amount, _ := parseLeadingInt(f[FieldAmount])
	pct, ok := parseLeadingInt(f[FieldPct])
	if !ok {
		pct = entity.DefaultPct
	}
	return entity.Bill{
		Email:      email,
		Type:       f[FieldType],
		Name:       f[FieldName],
		Date:       f[FieldDate],
		Amount:     amount,
		VAT:        entity.FlexString(f[FieldVAT]),
		Pct:        pct,
		Commentary: f[FieldCommentary],
		Status:     entity.StatusPending,
	}
}

// parseLeadingInt reads an optional sign and the leading run of digits, ignoring
// whatever follows ("12.5" gives 12). ok is false when there are no digits.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
