package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID is a server-assigned identifier. The backend emits integer ids, but the
// client treats them as opaque strings so both numeric and string forms decode.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Portfolio represents a named collection of holdings owned by the authenticated user.
type Portfolio struct {
	ID        ID              `json:"id"`
	Name      string          `json:"name"`
	Owner     ID              `json:"user_id,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
	Items     []PortfolioItem `json:"items"`
}

// PortfolioItem is one ticker holding inside a portfolio.
type PortfolioItem struct {
	ID            ID      `json:"id"`
	Ticker        string  `json:"ticker"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
	Notes         string  `json:"notes,omitempty"`
}

// ItemInput holds raw, user-entered item fields before coercion.
type ItemInput struct {
	Ticker        string
	Quantity      string
	PurchasePrice string
	Notes         string
}

// createdAtLayouts are the timestamp shapes the backend is known to emit.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"Mon, 02 Jan 2006 15:04:05 GMT",
	"2006-01-02",
}

// CreatedTime parses CreatedAt. The second return is false when the field is
// empty or in an unknown format.
func (p Portfolio) CreatedTime() (time.Time, bool) {
	raw := strings.TrimSpace(p.CreatedAt)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Clone returns a deep copy so cache readers cannot mutate shared state.
func (p Portfolio) Clone() Portfolio {
	out := p
	if p.Items != nil {
		out.Items = make([]PortfolioItem, len(p.Items))
		copy(out.Items, p.Items)
	}
	return out
}

// ItemIndex returns the position of the item with the given id, or -1.
func (p Portfolio) ItemIndex(itemID ID) int {
	for i, item := range p.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// Tickers returns the distinct tickers held, in first-seen order.
func (p Portfolio) Tickers() []string {
	seen := make(map[string]struct{}, len(p.Items))
	tickers := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		if _, ok := seen[item.Ticker]; ok {
			continue
		}
		seen[item.Ticker] = struct{}{}
		tickers = append(tickers, item.Ticker)
	}
	return tickers
}

// Value is the cost basis of the portfolio: the sum of quantity times purchase
// price over all items. An empty portfolio is worth 0.
func (p Portfolio) Value() float64 {
	var total float64
	for _, item := range p.Items {
		total += item.Quantity * item.PurchasePrice
	}
	return total
}

// Normalize upper-cases the tickers of all items.
func (p *Portfolio) Normalize() {
	for i := range p.Items {
		p.Items[i].Normalize()
	}
}

// Normalize upper-cases the ticker.
func (item *PortfolioItem) Normalize() {
	item.Ticker = strings.ToUpper(strings.TrimSpace(item.Ticker))
}
