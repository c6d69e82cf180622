package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// PostPayload is the type-specific body of a post. Implementations are
// *TradingData, *BusinessData and *EventData.
type PostPayload interface {
	payloadKind() string
}

type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

type TradingData struct {
	Symbol      string    `json:"symbol"`
	Direction   Direction `json:"direction,omitempty"`
	EntryPrice  float64   `json:"entry_price,omitempty"`
	TargetPrice float64   `json:"target_price,omitempty"`
	StopLoss    float64   `json:"stop_loss,omitempty"`
	Timeframe   string    `json:"timeframe,omitempty"`
	Confidence  int       `json:"confidence,omitempty"`
}

type BusinessData struct {
	Stage       string  `json:"stage,omitempty"`
	Industry    string  `json:"industry,omitempty"`
	FundingGoal float64 `json:"funding_goal,omitempty"`
	Revenue     float64 `json:"revenue,omitempty"`
}

type EventData struct {
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	Location string     `json:"location,omitempty"`
	Capacity int        `json:"capacity,omitempty"`
	IsOnline bool       `json:"is_online"`
}

func (*TradingData) payloadKind() string  { return "trading" }
func (*BusinessData) payloadKind() string { return "business" }
func (*EventData) payloadKind() string    { return "event" }

// PayloadFor returns an empty payload of the kind t carries, or nil.
func PayloadFor(t PostType) PostPayload {
	switch t {
	case PostTradeIdea, PostAnalysis:
		return &TradingData{}
	case PostBusiness:
		return &BusinessData{}
	case PostEvent:
		return &EventData{}
	default:
		return nil
	}
}

func EncodePayload(p PostPayload) (datatypes.JSON, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.payloadKind(), err)
	}
	return datatypes.JSON(raw), nil
}

// DecodePayload reverses EncodePayload. Payloads that do not fit the post
// type are dropped rather than reported.
func DecodePayload(t PostType, raw datatypes.JSON) (PostPayload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	p := PayloadFor(t)
	if p == nil {
		return nil, nil
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", p.payloadKind(), err)
	}
	return p, nil
}
