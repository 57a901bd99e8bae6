// ABOUTME: Compound record types and the lookup service contract
// ABOUTME: Defines CID, Weight (known/unknown), Record, and the Service interface

package compound

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NotAvailable is the display sentinel for text fields the upstream omitted.
const NotAvailable = "N/A"

// DefaultSimilarLimit is the number of similar compounds requested when the
// caller has no preference.
const DefaultSimilarLimit = 5

// CID is the stable external identifier of a compound.
type CID int64

// ParseCID parses a positive decimal identifier.
func ParseCID(s string) (CID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing cid %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("cid must be positive, got %d", n)
	}
	return CID(n), nil
}

// String returns the decimal form used in URLs and tokens.
func (c CID) String() string {
	return strconv.FormatInt(int64(c), 10)
}

// Weight is a molecular weight that is either known or unknown. The zero
// value is unknown.
type Weight struct {
	value float64
	known bool
}

// KnownWeight returns a Weight holding v.
func KnownWeight(v float64) Weight {
	return Weight{value: v, known: true}
}

// UnknownWeight returns a Weight with no value.
func UnknownWeight() Weight {
	return Weight{}
}

// ParseWeight parses an upstream weight string. Empty, sentinel or
// non-numeric input yields an unknown weight.
func ParseWeight(s string) Weight {
	s = strings.TrimSpace(s)
	if s == "" || s == NotAvailable {
		return UnknownWeight()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return UnknownWeight()
	}
	return KnownWeight(v)
}

// Value returns the weight and whether it is known.
func (w Weight) Value() (float64, bool) {
	return w.value, w.known
}

// Known reports whether the weight has a value.
func (w Weight) Known() bool {
	return w.known
}

// String formats the weight with the shortest exact representation, or
// NotAvailable when unknown.
func (w Weight) String() string {
	if !w.known {
		return NotAvailable
	}
	return strconv.FormatFloat(w.value, 'f', -1, 64)
}

// Difference returns |w - other| when both weights are known.
func (w Weight) Difference(other Weight) Weight {
	if !w.known || !other.known {
		return UnknownWeight()
	}
	return KnownWeight(math.Abs(w.value - other.value))
}

// Record is an immutable snapshot of one chemical compound.
type Record struct {
	ID          CID
	DisplayName string
	Formula     string // NotAvailable when unknown
	Weight      Weight
	IUPACName   string
	SMILES      string
	InChIKey    string
	ImageURL    string // depiction reference, fetched by transports
	ViewURL     string // external page for the compound
}

// Service resolves compounds from an external database.
//
// Every method applies a bounded timeout. Failures are classified as
// ErrNotFound or ErrUnavailable; transport-specific errors never leak.
type Service interface {
	// ResolveByName resolves free text to the first/best matching record.
	ResolveByName(ctx context.Context, term string) (Record, error)

	// ResolveByID fetches a record by its stable identifier.
	ResolveByID(ctx context.Context, id CID) (Record, error)

	// Random returns one record with no determinism guarantee.
	Random(ctx context.Context) (Record, error)

	// Similar returns up to limit structurally related identifiers in
	// upstream ranking order. limit must be positive.
	Similar(ctx context.Context, id CID, limit int) ([]CID, error)
}
