package kalshi

// Prices on the wire are integer cents (1..99).

type marketsResponse struct {
	Markets []marketJSON `json:"markets"`
	Cursor  string       `json:"cursor"`
}

type marketJSON struct {
	Ticker         string `json:"ticker"`
	EventTicker    string `json:"event_ticker"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Status         string `json:"status"`
	YesBid         *int64 `json:"yes_bid"`
	YesAsk         *int64 `json:"yes_ask"`
	NoBid          *int64 `json:"no_bid"`
	NoAsk          *int64 `json:"no_ask"`
	Volume         int64  `json:"volume"`
	OpenInterest   int64  `json:"open_interest"`
	ExpirationTime string `json:"expiration_time"`
}

type createOrderRequest struct {
	Ticker        string `json:"ticker"`
	ClientOrderID string `json:"client_order_id,omitempty"`
	Action        string `json:"action"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Count         int    `json:"count"`
	YesPrice      *int   `json:"yes_price,omitempty"`
	NoPrice       *int   `json:"no_price,omitempty"`
}

type createOrderResponse struct {
	Order struct {
		OrderID      string `json:"order_id"`
		Status       string `json:"status"`
		AvgFillPrice *int64 `json:"avg_fill_price"`
		FilledCount  int    `json:"filled_count"`
	} `json:"order"`
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
