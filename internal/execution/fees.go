package execution

import (
	"github.com/mselser95/polyshark/pkg/types"
)

// FeeModel is a basis-points fee schedule with separate maker and taker
// rates. Polymarket maker fees are usually 0 and taker fees around 200 bps.
type FeeModel struct {
	MakerBps int
	TakerBps int
}

// FeeModelForMarket builds a fee schedule from a market's own fee fields.
func FeeModelForMarket(m *types.Market) FeeModel {
	return FeeModel{
		MakerBps: m.MakerFeeBps,
		TakerBps: m.TakerFeeBps,
	}
}

// Calculate returns the fee charged on a notional amount.
func (f FeeModel) Calculate(notional float64, isMaker bool) float64 {
	bps := f.TakerBps
	if isMaker {
		bps = f.MakerBps
	}

	return notional * float64(bps) / 10000.0
}

// TakerRate returns the taker fee as a fraction of notional.
func (f FeeModel) TakerRate() float64 {
	return float64(f.TakerBps) / 10000.0
}
