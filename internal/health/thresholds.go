package health

import "fmt"

// Default thresholds.
const (
	DefaultPriceDeviation       = 0.30
	DefaultCartonWeightKg       = 50
	DefaultCartonVolumeM3       = 1
	DefaultMinHistorySamples    = 3
	DefaultMinDeclarationLength = 5
)

// Thresholds are the tunable limits of the plausibility checks.
type Thresholds struct {
	// PriceDeviation is the relative deviation from the historical average above which a price is flagged.
	PriceDeviation float64
	// CartonWeightKg is the per-carton gross weight above which a pallet unit is suggested.
	CartonWeightKg float64
	// CartonVolumeM3 is the per-carton volume above which a decimal-point error is suggested.
	CartonVolumeM3 float64
	// MinHistorySamples is the fewest historical prices needed before comparing.
	MinHistorySamples int
	// MinDeclarationLength is the shortest acceptable declaration elements text, in characters.
	MinDeclarationLength int
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PriceDeviation:       DefaultPriceDeviation,
		CartonWeightKg:       DefaultCartonWeightKg,
		CartonVolumeM3:       DefaultCartonVolumeM3,
		MinHistorySamples:    DefaultMinHistorySamples,
		MinDeclarationLength: DefaultMinDeclarationLength,
	}
}

// Validate rejects non-positive limits.
func (t Thresholds) Validate() error {
	switch {
	case t.PriceDeviation <= 0:
		return fmt.Errorf("price deviation threshold must be positive, got %v", t.PriceDeviation)
	case t.CartonWeightKg <= 0:
		return fmt.Errorf("carton weight threshold must be positive, got %v", t.CartonWeightKg)
	case t.CartonVolumeM3 <= 0:
		return fmt.Errorf("carton volume threshold must be positive, got %v", t.CartonVolumeM3)
	case t.MinHistorySamples <= 0:
		return fmt.Errorf("minimum history samples must be positive, got %d", t.MinHistorySamples)
	case t.MinDeclarationLength <= 0:
		return fmt.Errorf("minimum declaration length must be positive, got %d", t.MinDeclarationLength)
	}
	return nil
}
