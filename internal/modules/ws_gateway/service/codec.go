package service

const (
	OpPrice = "price"
	OpBook  = "book"
	OpGet   = "get"
	OpPing  = "ping"
	OpPong  = "pong"
)

// Request: кадр от контроллера:
//
//	{"op":"price","product":"KELP","price":2025.5}
//	{"op":"book","product":"KELP","bid":2025,"ask":2027}
//	{"op":"get","product":"KELP"}
type Request struct {
	ID      string   `json:"id,omitempty"`
	Op      string   `json:"op"`
	Product string   `json:"product"`
	Price   *float64 `json:"price,omitempty"`
	Bid     float64  `json:"bid,omitempty"`
	Ask     float64  `json:"ask,omitempty"`
}

type Reply struct {
	ID              string   `json:"id,omitempty"`
	Op              string   `json:"op"`
	Product         string   `json:"product,omitempty"`
	AcceptablePrice *float64 `json:"acceptable_price,omitempty"`
	Samples         int      `json:"samples,omitempty"`
	Error           string   `json:"error,omitempty"`
}
