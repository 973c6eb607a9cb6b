package types

// BookResponse is the CLOB REST GET /book payload. Levels arrive as strings
// and worst-first; the orderbook client parses and re-sorts them.
type BookResponse struct {
	Market    string      `json:"market"`
	AssetID   string      `json:"asset_id"`
	Timestamp string      `json:"timestamp"`
	Hash      string      `json:"hash"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	MinSize   float64     `json:"min_size"`
}

// TickSizeResponse is the CLOB REST GET /tick-size payload.
type TickSizeResponse struct {
	MinimumTickSize float64 `json:"minimum_tick_size"`
}
