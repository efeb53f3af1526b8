package gymstats

import "strings"

// StandardBarWeight is the weight of a standard olympic bar, in the athlete's mass unit.
const StandardBarWeight = 45.0

const barLoadedEquipment = "barbell"

// IsBarLoaded reports whether the equipment tag marks a bar loaded exercise.
// Only "barbell" (case-insensitive) does; empty and any other tag do not.
func IsBarLoaded(equipment string) bool {
	return strings.EqualFold(strings.TrimSpace(equipment), barLoadedEquipment)
}

// TotalWeight translates the user entered (added) weight into the total lifted
// weight, using the standard bar.
func TotalWeight(addedWeight float64, barLoaded bool) float64 {
	return Normalizer{BarWeight: StandardBarWeight}.TotalWeight(addedWeight, barLoaded)
}

// Normalizer is TotalWeight with a configurable bar weight.
type Normalizer struct {
	BarWeight float64
}

func NewNormalizer(barWeight float64) Normalizer {
	if barWeight <= 0 {
		barWeight = StandardBarWeight
	}
	return Normalizer{BarWeight: barWeight}
}

func (n Normalizer) TotalWeight(addedWeight float64, barLoaded bool) float64 {
	if !barLoaded {
		return addedWeight
	}
	return addedWeight + n.BarWeight
}

// FillTotalWeights sets the total weight of every set the backend sent
// without one. Reads only carry the entered weight.
func (n Normalizer) FillTotalWeights(sets []Set, barLoaded bool) {
	for i := range sets {
		if sets[i].TotalWeight == 0 {
			sets[i].TotalWeight = n.TotalWeight(sets[i].Weight, barLoaded)
		}
	}
}

// MissingTotalWeight reports whether any of the sets lacks its total weight.
func MissingTotalWeight(sets []Set) bool {
	for _, s := range sets {
		if s.TotalWeight == 0 {
			return true
		}
	}
	return false
}
