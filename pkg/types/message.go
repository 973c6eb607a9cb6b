package types

import (
	"encoding/json"
	"strconv"
)

// WebSocket market-channel event types.
const (
	EventBook           = "book"
	EventPriceChange    = "price_change"
	EventLastTradePrice = "last_trade_price"
)

// BookMessage is one event from the CLOB market WebSocket channel.
//
// "book" events carry a full Bids/Asks snapshot; "price_change" events carry
// per-level Changes; "last_trade_price" events carry neither and are ignored
// by the book manager.
type BookMessage struct {
	EventType string       `json:"event_type"`
	AssetID   string       `json:"asset_id"`
	Market    string       `json:"market"`
	Timestamp int64        `json:"-"` // Parsed from string via UnmarshalJSON
	Hash      string       `json:"hash,omitempty"`
	Bids      []BookLevel  `json:"bids,omitempty"`
	Asks      []BookLevel  `json:"asks,omitempty"`
	Changes   []BookChange `json:"changes,omitempty"`
}

// UnmarshalJSON handles the string-typed timestamp the feed sends.
func (m *BookMessage) UnmarshalJSON(data []byte) error {
	type Alias BookMessage
	aux := &struct {
		TimestampStr string `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.TimestampStr != "" {
		ts, err := strconv.ParseInt(aux.TimestampStr, 10, 64)
		if err != nil {
			return err
		}
		m.Timestamp = ts
	}

	return nil
}

// BookLevel is a price level as sent on the wire: both figures are strings.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// Level parses the wire strings into a numeric PriceLevel.
func (l BookLevel) Level() (PriceLevel, error) {
	price, err := strconv.ParseFloat(l.Price, 64)
	if err != nil {
		return PriceLevel{}, err
	}

	size, err := strconv.ParseFloat(l.Size, 64)
	if err != nil {
		return PriceLevel{}, err
	}

	return PriceLevel{Price: price, Size: size}, nil
}

// BookChange is one level mutation from a "price_change" event. A size of
// "0" removes the level at that price.
type BookChange struct {
	Price string `json:"price"`
	Side  string `json:"side"` // "BUY" touches bids, "SELL" touches asks
	Size  string `json:"size"`
}
