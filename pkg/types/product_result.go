package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ProductResult is the stable internal shape for an externally sourced product.
// Upstream payloads are mapped into it at the client boundary so the rest of
// the system never sees the external API's field names.
type ProductResult struct {
	Barcode      string `json:"barcode"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	ImageURL     string `json:"image_url"`
	CategoryHint string `json:"category_hint"`
	StoreHint    string `json:"store_hint"`
}

// ProductResults is a JSON-serialized column of external search results.
type ProductResults []ProductResult

// Value implements driver.Valuer.
func (p ProductResults) Value() (driver.Value, error) {
	if p == nil {
		p = ProductResults{}
	}
	raw, err := json.Marshal([]ProductResult(p))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (p *ProductResults) Scan(src any) error {
	if src == nil {
		*p = ProductResults{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported product results source %T", src)
	}
	if len(raw) == 0 {
		*p = ProductResults{}
		return nil
	}
	var results []ProductResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return fmt.Errorf("decoding product results: %w", err)
	}
	*p = results
	return nil
}
