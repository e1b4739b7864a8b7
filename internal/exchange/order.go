package exchange

// OrderRequest describes a new order. Build it through NewMarketOrder or
// NewReduceOnlyLimit so the type/time-in-force/reduce-only combination is
// always coherent; the zero value is not a valid request.
type OrderRequest struct {
	Symbol      string
	Side        string // "buy" or "sell"
	Type        string // "market" or "limit"
	Quantity    float64
	Price       float64 // limit orders only
	TimeInForce string  // limit orders only
	ReduceOnly  bool
}

// NewMarketOrder builds a market entry order.
func NewMarketOrder(symbol, side string, qty float64) OrderRequest {
	return OrderRequest{
		Symbol:   symbol,
		Side:     side,
		Type:     "market",
		Quantity: qty,
	}
}

// NewReduceOnlyLimit builds a good-till-canceled reduce-only limit order,
// used for the take-profit exit.
func NewReduceOnlyLimit(symbol, side string, qty, price float64) OrderRequest {
	return OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Type:        "limit",
		Quantity:    qty,
		Price:       price,
		TimeInForce: "GTC",
		ReduceOnly:  true,
	}
}
