package service

import (
	"github.com/shopspring/decimal"

	"knitmes/internal/domainerr"
)

// Weights is the normalized result of one scale reading combined with the
// lot's packaging constants.
type Weights struct {
	Gross decimal.Decimal // raw scale reading
	Tare  decimal.Decimal // tube weight
	Net   decimal.Decimal // gross − tare; what the customer pays for
	// DisplayGross adds the shrink-wrap weight for the label only; it is
	// never part of the net.
	DisplayGross decimal.Decimal
}

// NormalizeWeight converts a raw scale reading plus the lot's packaging
// constants into gross/net/display values.
func NormalizeWeight(grossRaw, tubeWeight, shrinkWrapWeight decimal.Decimal) (Weights, error) {
	if grossRaw.LessThanOrEqual(decimal.Zero) {
		return Weights{}, domainerr.New(domainerr.KindInvalidWeight,
			"gross weight %s must be positive", grossRaw)
	}
	net := grossRaw.Sub(tubeWeight)
	if net.IsNegative() {
		return Weights{}, domainerr.New(domainerr.KindNegativeNetWeight,
			"net weight %s is negative (gross %s, tube %s); re-weigh the roll",
			net, grossRaw, tubeWeight)
	}
	return Weights{
		Gross:        grossRaw,
		Tare:         tubeWeight,
		Net:          net,
		DisplayGross: grossRaw.Add(shrinkWrapWeight),
	}, nil
}
