package forum

import (
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

const DefaultExcerptLength = 150

type FormattedTradingData struct {
	Symbol     string `json:"symbol"`
	Direction  string `json:"direction,omitempty"`
	Entry      string `json:"entry,omitempty"`
	Target     string `json:"target,omitempty"`
	StopLoss   string `json:"stop_loss,omitempty"`
	RiskReward string `json:"risk_reward,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	Timeframe  string `json:"timeframe,omitempty"`
}

// FormatTradingData renders a trade payload for display, or nil when absent.
func FormatTradingData(td *domain.TradingData) *FormattedTradingData {
	if td == nil {
		return nil
	}
	out := &FormattedTradingData{
		Symbol:    strings.ToUpper(strings.TrimSpace(td.Symbol)),
		Direction: strings.ToUpper(string(td.Direction)),
		Entry:     price(td.EntryPrice),
		Target:    price(td.TargetPrice),
		StopLoss:  price(td.StopLoss),
		Timeframe: td.Timeframe,
	}
	if td.Confidence > 0 {
		out.Confidence = fmt.Sprintf("%d%%", td.Confidence)
	}
	if rr, ok := riskReward(td); ok {
		out.RiskReward = fmt.Sprintf("1:%.2f", rr)
	}
	return out
}

func price(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("$%.2f", v)
}

func riskReward(td *domain.TradingData) (float64, bool) {
	if td.EntryPrice == 0 || td.TargetPrice == 0 || td.StopLoss == 0 {
		return 0, false
	}
	risk := math.Abs(td.EntryPrice - td.StopLoss)
	if risk == 0 {
		return 0, false
	}
	return math.Abs(td.TargetPrice-td.EntryPrice) / risk, true
}

// GenerateExcerpt collapses whitespace and shortens content to at most
// maxLength runes plus an ellipsis, preferring a word boundary.
func GenerateExcerpt(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}
	text := strings.Join(strings.Fields(content), " ")
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	cut := string(runes[:maxLength])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:!?-") + "..."
}
