// Package leadclean normalizes and deduplicates batches of lead records.
//
// A run takes the raw rows of one input file, drops rows that carry no data,
// canonicalizes every field, clusters rows that share a phone number or an
// e-mail address and keeps one representative per cluster. The package does
// no I/O; reading and writing rows is left to the caller.
package leadclean

// Field names in canonical column order.
const (
	FieldLeadID    = "lead_id"
	FieldName      = "name"
	FieldPhone     = "phone"
	FieldEmail     = "email"
	FieldCreatedAt = "created_at"
	FieldAmount    = "amount"
)

// Columns is the fixed output column order.
var Columns = []string{FieldLeadID, FieldName, FieldPhone, FieldEmail, FieldCreatedAt, FieldAmount}

// RawRow is one input record exactly as read.
type RawRow struct {
	LeadID    string
	Name      string
	Phone     string
	Email     string
	CreatedAt string
	Amount    string
}

// Values returns the fields in Columns order.
func (r RawRow) Values() []string {
	return []string{r.LeadID, r.Name, r.Phone, r.Email, r.CreatedAt, r.Amount}
}

// NormalizedRow is a RawRow after normalization. Every field except LeadID is
// either canonical or empty.
type NormalizedRow struct {
	LeadID    string `json:"lead_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	Amount    string `json:"amount"`
}

// Values returns the fields in Columns order.
func (r NormalizedRow) Values() []string {
	return []string{r.LeadID, r.Name, r.Phone, r.Email, r.CreatedAt, r.Amount}
}

// Cluster is one equivalence class of rows linked by a shared phone or email.
type Cluster struct {
	Root    int
	Members []int // ascending input indices
}

// Result is the outcome of one run.
type Result struct {
	Rows   []NormalizedRow
	Report Report
}
