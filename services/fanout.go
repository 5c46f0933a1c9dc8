package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crewlink/crewlink-api/models"
)

// CraftMatchCount is the per-craft summary of a fan-out run
type CraftMatchCount struct {
	CraftID uint `json:"craftId"`
	Matches int  `json:"matches"`
}

// FanOutFailure records one craft whose matching or notification insert failed
type FanOutFailure struct {
	CraftID uint   `json:"craftId"`
	Error   string `json:"error"`
}

// FanOutResult is the summary a fan-out run always returns. Partial failures
// live in Failures; the run itself never fails as a whole.
type FanOutResult struct {
	TotalMatches int
	PerCraft     []CraftMatchCount
	Failures     []FanOutFailure
}

// HasFailures reports whether any craft failed to fan out
func (r *FanOutResult) HasFailures() bool {
	return len(r.Failures) > 0
}

// matchAgenciesFn is a seam so tests can fail matching for a single craft
var matchAgenciesFn = MatchAgencies

// FanOutNotifications expands each craft requirement into one notification row
// per matched agency. Crafts are processed independently: a matcher or insert
// failure for one craft is recorded and the others continue. Zero matches is a
// legitimate outcome, not a failure. The batch insert ignores conflicts on the
// (craft, agency) unique index, so repeated fan-out for a craft is idempotent.
func FanOutNotifications(db *gorm.DB, requestID uint, crafts []models.CraftRequirement) FanOutResult {
	result := FanOutResult{
		PerCraft: make([]CraftMatchCount, 0, len(crafts)),
	}

	for _, craft := range crafts {
		matches, err := matchAgenciesFn(db, craft.TradeID, craft.RegionID)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"labor_request_id": requestID,
				"craft_id":         craft.ID,
				"trade_id":         craft.TradeID,
				"region_id":        craft.RegionID,
			}).WithError(err).Error("agency matching failed for craft")
			result.Failures = append(result.Failures, FanOutFailure{
				CraftID: craft.ID,
				Error:   "agency matching failed",
			})
			continue
		}

		if len(matches) == 0 {
			result.PerCraft = append(result.PerCraft, CraftMatchCount{CraftID: craft.ID, Matches: 0})
			continue
		}

		notifications := make([]models.Notification, 0, len(matches))
		for _, match := range matches {
			notifications = append(notifications, models.Notification{
				LaborRequestID:     requestID,
				CraftRequirementID: craft.ID,
				AgencyID:           match.AgencyID,
				Status:             models.NotificationStatusPending,
			})
		}

		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "craft_requirement_id"}, {Name: "agency_id"}},
			DoNothing: true,
		}).Create(&notifications).Error
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"labor_request_id": requestID,
				"craft_id":         craft.ID,
				"agencies":         len(matches),
			}).WithError(err).Error("failed to insert notifications for craft")
			result.Failures = append(result.Failures, FanOutFailure{
				CraftID: craft.ID,
				Error:   "failed to create notifications",
			})
			continue
		}

		result.PerCraft = append(result.PerCraft, CraftMatchCount{CraftID: craft.ID, Matches: len(matches)})
		result.TotalMatches += len(matches)

		// Best-effort side channels. Neither can fail the fan-out.
		notifyAgencies(db, requestID, craft, matches)
	}

	return result
}

// notifyAgencies pushes realtime events and sends notification emails to the
// agencies matched for one craft. Failures are logged and swallowed.
func notifyAgencies(db *gorm.DB, requestID uint, craft models.CraftRequirement, matches []AgencyMatch) {
	hub := GetHub()
	if hub != nil {
		for _, match := range matches {
			hub.Publish(AgencyTopic(match.AgencyID), Event{
				Type: "notification.created",
				Payload: map[string]interface{}{
					"labor_request_id":     requestID,
					"craft_requirement_id": craft.ID,
					"agency_id":            match.AgencyID,
				},
			})
		}
	}

	emailer := GetEmailService()
	if emailer == nil {
		return
	}

	ids := make([]uint, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match.AgencyID)
	}

	var agencies []models.Agency
	if err := db.Where("id IN ?", ids).Find(&agencies).Error; err != nil {
		logrus.WithError(err).Warn("failed to load agencies for notification emails")
		return
	}

	subject := "New labor request matches your agency"
	for _, agency := range agencies {
		if agency.ContactEmail == "" {
			continue
		}
		body := fmt.Sprintf(
			"A contractor is looking for %d worker(s) starting %s. Sign in to view the request and respond.",
			craft.WorkerCount, craft.StartDate.Format("2006-01-02"),
		)
		if err := emailer.SendNotificationEmail(context.Background(), agency.ContactEmail, subject, body); err != nil {
			logrus.WithFields(logrus.Fields{
				"agency_id": agency.ID,
			}).WithError(err).Warn("failed to send notification email")
		}
	}
}
