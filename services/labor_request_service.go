package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/utils"
)

// Submission persistence failures, distinguished so the handler can report
// which step rejected the request.
var (
	ErrCreateRequest = errors.New("failed to create labor request")
	ErrCreateCrafts  = errors.New("failed to create craft requirements")
)

// Confirmation flow failures
var (
	ErrTokenNotFound = errors.New("confirmation token not found")
	ErrTokenExpired  = errors.New("confirmation token expired")
	ErrTokenConsumed = errors.New("confirmation token already used")
)

// SubmitResult is what a successful submission hands back to the handler
type SubmitResult struct {
	Request models.LaborRequest
	FanOut  FanOutResult
}

// SubmitLaborRequest persists a labor request with its craft requirements and
// fans out notifications to matched agencies.
//
// The request and its crafts are written in one transaction: if any craft
// insert is rejected, the whole submission rolls back and no labor_requests
// row remains. Fan-out runs after the transaction commits (crafts must be
// confirmed durable before any notification references them) and its failures
// are reported in the result, never as a submission error.
//
// The db handle is not bound to the caller's request context, so a client
// disconnect cannot abandon the submission mid-transaction.
func SubmitLaborRequest(db *gorm.DB, request models.LaborRequest, crafts []models.CraftRequirement) (*SubmitResult, error) {
	token, expiresAt, err := utils.GenerateConfirmationToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateRequest, err)
	}
	request.ConfirmationToken = token
	request.TokenExpiresAt = expiresAt
	request.Status = models.RequestStatusPending

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateRequest, err)
		}

		for i := range crafts {
			crafts[i].LaborRequestID = request.ID
		}
		if err := tx.Create(&crafts).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateCrafts, err)
		}
		return nil
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"project_name": request.ProjectName,
			"company_name": request.CompanyName,
		}).WithError(err).Error("labor request submission rolled back")
		return nil, err
	}

	request.Crafts = crafts
	fanOut := FanOutNotifications(db, request.ID, crafts)

	return &SubmitResult{Request: request, FanOut: fanOut}, nil
}

// ConfirmLaborRequest consumes a confirmation token and activates the request.
// Tokens are single-use: a request that is already confirmed rejects further
// attempts even before the token expires.
func ConfirmLaborRequest(db *gorm.DB, token string) (*models.LaborRequest, error) {
	var request models.LaborRequest
	if err := db.Where("confirmation_token = ?", token).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up confirmation token: %w", err)
	}

	if request.ConfirmedAt != nil {
		return nil, ErrTokenConsumed
	}
	if request.TokenExpired(time.Now()) {
		return nil, ErrTokenExpired
	}

	now := time.Now()
	updates := map[string]interface{}{
		"confirmed_at": now,
		"status":       models.RequestStatusActive,
	}
	if err := db.Model(&request).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to confirm labor request: %w", err)
	}

	request.ConfirmedAt = &now
	request.Status = models.RequestStatusActive
	return &request, nil
}
