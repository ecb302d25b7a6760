package stations

import "factory-floor/internal/models"

// Пороги уровней качества (нижняя граница включительно)
const (
	ExcellentThreshold = 98.0
	GoodThreshold      = 95.0
	FairThreshold      = 90.0
)

// ClassifyQuality переводит оценку качества в уровень
func ClassifyQuality(score float64) models.QualityTier {
	switch {
	case score >= ExcellentThreshold:
		return models.TierExcellent
	case score >= GoodThreshold:
		return models.TierGood
	case score >= FairThreshold:
		return models.TierFair
	default:
		return models.TierPoor
	}
}
