package request

// CreatePortfolioRequest represents the request body for creating a portfolio
type CreatePortfolioRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ItemRequest is the body of both the add-item and the update-item calls.
// Values are already coerced from user input. Notes is always sent so an
// update can clear it.
type ItemRequest struct {
	Ticker        string  `json:"ticker" validate:"required,max=15"`
	Quantity      float64 `json:"quantity" validate:"gte=0"`
	PurchasePrice float64 `json:"purchase_price" validate:"gte=0"`
	Notes         string  `json:"notes" validate:"max=500"`
}

// PredictRequest represents the request body for a portfolio earnings prediction
type PredictRequest struct {
	Method string `json:"method" validate:"required,oneof=average lstm arima prophet"`
	Days   int    `json:"days" validate:"gte=1,lte=365"`
}
