package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/crewlink/crewlink-api/models"
)

// AgencyMatch is one eligible agency for a (trade, region) pair. It is an
// ephemeral result row, never persisted.
type AgencyMatch struct {
	AgencyID uint
}

// MatchAgencies returns every active agency whose trade set contains tradeID
// and whose region set contains regionID. The result is ordered by agency id,
// which makes it deterministic for a fixed data snapshot; no ordering is
// promised across snapshots. Unknown trade or region ids yield an empty result.
func MatchAgencies(db *gorm.DB, tradeID, regionID uint) ([]AgencyMatch, error) {
	var ids []uint
	err := db.Model(&models.Agency{}).
		Joins("JOIN agency_trades ON agency_trades.agency_id = agencies.id").
		Joins("JOIN agency_regions ON agency_regions.agency_id = agencies.id").
		Where("agencies.is_active = ?", true).
		Where("agency_trades.trade_id = ?", tradeID).
		Where("agency_regions.region_id = ?", regionID).
		Order("agencies.id").
		Pluck("agencies.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to match agencies for trade %d region %d: %w", tradeID, regionID, err)
	}

	matches := make([]AgencyMatch, 0, len(ids))
	for _, id := range ids {
		matches = append(matches, AgencyMatch{AgencyID: id})
	}
	return matches, nil
}
