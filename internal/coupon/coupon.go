package coupon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Definition is one coupon as written in a seed file. Quantity is the
// initial stock; imports never overwrite the live counters of a coupon
// that already exists.
type Definition struct {
	Code        string    `json:"code"`
	Discount    int       `json:"discount"`
	Quantity    int       `json:"quantity"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	IsAvailable bool      `json:"is_available"`
}

// Validate checks the definition for values the checkout flow could
// not handle.
func (d *Definition) Validate() error {
	if d.Code == "" {
		return fmt.Errorf("coupon definition missing code")
	}
	if d.Discount < 1 || d.Discount > 9 {
		return fmt.Errorf("coupon %s: discount %d outside 1-9", d.Code, d.Discount)
	}
	if d.Quantity < 0 {
		return fmt.Errorf("coupon %s: negative quantity %d", d.Code, d.Quantity)
	}
	if !d.EndAt.After(d.StartAt) {
		return fmt.Errorf("coupon %s: window ends before it starts", d.Code)
	}
	return nil
}

// Loader defines the interface for loading coupon seed files.
type Loader interface {
	// Load reads all seed files from the configured source and returns
	// the coupon definitions they contain.
	Load(ctx context.Context) ([]Definition, error)
}

// parseDefinitions decodes one seed file, a JSON array of definitions,
// validating each entry.
func parseDefinitions(source string, data []byte) ([]Definition, error) {
	var defs []Definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse coupon seed %s: %w", source, err)
	}
	for i := range defs {
		if err := defs[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid coupon seed %s: %w", source, err)
		}
	}
	return defs, nil
}
