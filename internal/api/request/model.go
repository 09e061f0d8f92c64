package request

// TrainRequest is the body of POST /{algorithm}/train. Fields that do not apply
// to an algorithm are omitted.
type TrainRequest struct {
	Ticker         string   `json:"ticker" validate:"required"`
	Start          string   `json:"start" validate:"required,datetime=2006-01-02"`
	End            string   `json:"end" validate:"required,datetime=2006-01-02"`
	SequenceLength int      `json:"sequence_length,omitempty" validate:"omitempty,gte=1"`
	ExogTickers    []string `json:"exog_tickers,omitempty"`
}

// ForecastQuery holds the query parameters of GET /{algorithm}/predict.
type ForecastQuery struct {
	Ticker         string `validate:"required"`
	Days           int    `validate:"gte=1,lte=365"`
	SequenceLength int    `validate:"omitempty,gte=1"`
}
