package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink-api/config"
	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/services"
)

// AdminListLaborRequests handles GET /api/v1/admin/labor-requests - the
// moderation queue, newest first, with optional status filter
func AdminListLaborRequests(c *gin.Context) {
	_, ok := requireAdmin(c)
	if !ok {
		return
	}

	limit, offset := pagination(c, 20)
	db := config.GetDB()
	query := db.Preload("Crafts").
		Preload("Crafts.Trade").
		Preload("Crafts.Region").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.LaborRequest
	if err := query.Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch labor requests",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    requests,
	})
}

// UpdateLaborRequestStatusRequest is the body for the status transition
type UpdateLaborRequestStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending active fulfilled cancelled"`
}

// AdminUpdateLaborRequestStatus handles PATCH /api/v1/admin/labor-requests/:id/status.
// Requests are never hard-deleted; admins drive the lifecycle through status.
func AdminUpdateLaborRequestStatus(c *gin.Context) {
	_, ok := requireAdmin(c)
	if !ok {
		return
	}

	requestID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateLaborRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": validationDetails(err),
			},
		})
		return
	}

	db := config.GetDB()
	var request models.LaborRequest
	if err := db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "REQUEST_NOT_FOUND",
					"message": "Labor request not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch labor request",
			},
		})
		return
	}

	if err := db.Model(&request).Update("status", req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update labor request",
			},
		})
		return
	}

	request.Status = req.Status
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    request,
	})
}

// AdminListAgencyClaims handles GET /api/v1/admin/agency-claims - claims under
// review, with presigned URLs for their verification documents
func AdminListAgencyClaims(c *gin.Context) {
	_, ok := requireAdmin(c)
	if !ok {
		return
	}

	limit, offset := pagination(c, 20)
	db := config.GetDB()
	query := db.Preload("Agency").
		Preload("User").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var claims []models.AgencyClaim
	if err := query.Find(&claims).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch claims",
			},
		})
		return
	}

	if s3Service := services.GetS3Service(); s3Service != nil {
		for i := range claims {
			if claims[i].DocumentS3Key == nil {
				continue
			}
			url, err := s3Service.GetPresignedURL(*claims[i].DocumentS3Key)
			if err != nil {
				logrus.WithError(err).Warn("failed to presign claim document URL")
				continue
			}
			claims[i].DocumentURL = &url
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    claims,
	})
}

// loadPendingClaim fetches a claim still awaiting review
func loadPendingClaim(c *gin.Context) (*models.AgencyClaim, bool) {
	claimID, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}

	db := config.GetDB()
	var claim models.AgencyClaim
	if err := db.First(&claim, claimID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CLAIM_NOT_FOUND",
					"message": "Claim not found",
				},
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch claim",
			},
		})
		return nil, false
	}

	if claim.Status != models.ClaimStatusPending {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLAIM_ALREADY_REVIEWED",
				"message": "This claim has already been reviewed",
			},
		})
		return nil, false
	}

	return &claim, true
}

// AdminApproveAgencyClaim handles POST /api/v1/admin/agency-claims/:id/approve -
// links the claimant to the agency and marks the listing claimed, atomically
func AdminApproveAgencyClaim(c *gin.Context) {
	admin, ok := requireAdmin(c)
	if !ok {
		return
	}

	claim, ok := loadPendingClaim(c)
	if !ok {
		return
	}

	db := config.GetDB()
	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(claim).Updates(map[string]interface{}{
			"status":              models.ClaimStatusApproved,
			"reviewed_by_user_id": admin.ID,
			"reviewed_at":         now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Agency{}).Where("id = ?", claim.AgencyID).Updates(map[string]interface{}{
			"is_claimed":         true,
			"claimed_by_user_id": claim.UserID,
		}).Error; err != nil {
			return err
		}
		// The claimant becomes an agency-side user
		return tx.Model(&models.User{}).Where("id = ?", claim.UserID).Updates(map[string]interface{}{
			"role":      models.RoleAgency,
			"agency_id": claim.AgencyID,
		}).Error
	})
	if err != nil {
		logrus.WithError(err).Error("failed to approve agency claim")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to approve claim",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":          claim.ID,
			"status":      models.ClaimStatusApproved,
			"reviewed_at": now,
		},
	})
}

// RejectClaimRequest is the body of the reject endpoint
type RejectClaimRequest struct {
	Note string `json:"note" binding:"required"`
}

// AdminRejectAgencyClaim handles POST /api/v1/admin/agency-claims/:id/reject
func AdminRejectAgencyClaim(c *gin.Context) {
	admin, ok := requireAdmin(c)
	if !ok {
		return
	}

	claim, ok := loadPendingClaim(c)
	if !ok {
		return
	}

	var req RejectClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": validationDetails(err),
			},
		})
		return
	}

	db := config.GetDB()
	now := time.Now()
	err := db.Model(claim).Updates(map[string]interface{}{
		"status":              models.ClaimStatusRejected,
		"review_note":         req.Note,
		"reviewed_by_user_id": admin.ID,
		"reviewed_at":         now,
	}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to reject claim",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":          claim.ID,
			"status":      models.ClaimStatusRejected,
			"reviewed_at": now,
		},
	})
}

// ReplaceAgencyTradesRequest is the body of the trade assignment endpoint
type ReplaceAgencyTradesRequest struct {
	TradeIDs []uint `json:"tradeIds" binding:"required"`
}

// AdminReplaceAgencyTrades handles PUT /api/v1/admin/agencies/:id/trades -
// full replace of the agency's trade set (the junction rows are swapped, not
// merged)
func AdminReplaceAgencyTrades(c *gin.Context) {
	_, ok := requireAdmin(c)
	if !ok {
		return
	}

	agencyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ReplaceAgencyTradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": validationDetails(err),
			},
		})
		return
	}

	db := config.GetDB()
	var agency models.Agency
	if err := db.First(&agency, agencyID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AGENCY_NOT_FOUND",
				"message": "Agency not found",
			},
		})
		return
	}

	var trades []models.Trade
	if len(req.TradeIDs) > 0 {
		if err := db.Where("id IN ?", req.TradeIDs).Find(&trades).Error; err != nil || len(trades) != len(req.TradeIDs) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TRADE_NOT_FOUND",
					"message": "One or more trades do not exist",
				},
			})
			return
		}
	}

	if err := db.Model(&agency).Association("Trades").Replace(trades); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update agency trades",
			},
		})
		return
	}

	agency.Trades = trades
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    agency,
	})
}
