package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink-api/config"
	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/services"
	"github.com/crewlink/crewlink-api/utils"
)

// ListAgencies handles GET /api/v1/agencies - the public directory with
// trade/region/flag filters and name search
func ListAgencies(c *gin.Context) {
	db := config.GetDB()
	query := db.Model(&models.Agency{}).
		Where("agencies.is_active = ?", true).
		Preload("Trades").
		Preload("Regions")

	if trade := c.Query("trade"); trade != "" {
		query = query.
			Joins("JOIN agency_trades ON agency_trades.agency_id = agencies.id").
			Joins("JOIN trades ON trades.id = agency_trades.trade_id").
			Where("trades.slug = ?", trade)
	}
	if region := c.Query("region"); region != "" {
		query = query.
			Joins("JOIN agency_regions ON agency_regions.agency_id = agencies.id").
			Joins("JOIN regions ON regions.id = agency_regions.region_id").
			Where("regions.code = ?", region)
	}
	if union := c.Query("union"); union != "" {
		query = query.Where("agencies.is_union = ?", union == "true")
	}
	if perDiem := c.Query("per_diem"); perDiem != "" {
		query = query.Where("agencies.offers_per_diem = ?", perDiem == "true")
	}
	if claimed := c.Query("claimed"); claimed != "" {
		query = query.Where("agencies.is_claimed = ?", claimed == "true")
	}
	if q := c.Query("q"); q != "" {
		query = query.Where("agencies.name LIKE ?", "%"+q+"%")
	}

	limit, offset := pagination(c, 20)
	var agencies []models.Agency
	err := query.Order("agencies.name").
		Limit(limit).
		Offset(offset).
		Find(&agencies).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch agencies",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    agencies,
	})
}

// GetAgency handles GET /api/v1/agencies/:id - directory detail page
func GetAgency(c *gin.Context) {
	agencyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	var agency models.Agency
	err := db.Where("is_active = ?", true).
		Preload("Trades").
		Preload("Regions").
		First(&agency, agencyID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "AGENCY_NOT_FOUND",
					"message": "Agency not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch agency",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    agency,
	})
}

// ListTrades handles GET /api/v1/trades - lookup list for forms and filters
func ListTrades(c *gin.Context) {
	db := config.GetDB()
	var trades []models.Trade
	if err := db.Order("name").Find(&trades).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch trades",
			},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    trades,
	})
}

// ListRegions handles GET /api/v1/regions - lookup list for forms and filters
func ListRegions(c *gin.Context) {
	db := config.GetDB()
	var regions []models.Region
	if err := db.Order("name").Find(&regions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch regions",
			},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    regions,
	})
}

// ClaimAgency handles POST /api/v1/agencies/:id/claim - a user asserts they
// represent an agency listing. Multipart form with an optional verification
// document (PDF/PNG) that goes to S3 for admin review.
func ClaimAgency(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	agencyID, ok := idParam(c, "id")
	if !ok {
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

	if agency.IsClaimed {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AGENCY_ALREADY_CLAIMED",
				"message": "This agency has already been claimed",
			},
		})
		return
	}

	// One open claim per user and agency
	var existing int64
	db.Model(&models.AgencyClaim{}).
		Where("agency_id = ? AND user_id = ? AND status = ?", agencyID, user.ID, models.ClaimStatusPending).
		Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLAIM_EXISTS",
				"message": "You already have a pending claim for this agency",
			},
		})
		return
	}

	claim := models.AgencyClaim{
		AgencyID: agencyID,
		UserID:   user.ID,
		Status:   models.ClaimStatusPending,
	}

	// Optional verification document
	fileHeader, err := c.FormFile("document")
	if err == nil {
		if err := utils.ValidateClaimDocument(fileHeader); err != nil {
			var uploadErr *utils.FileUploadError
			code := "INVALID_FILE"
			if errors.As(err, &uploadErr) {
				code = uploadErr.Code
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    code,
					"message": err.Error(),
				},
			})
			return
		}

		s3Service := services.GetS3Service()
		if s3Service == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "STORAGE_UNAVAILABLE",
					"message": "Document storage is not available",
				},
			})
			return
		}

		s3Key, err := s3Service.UploadClaimDocument(fileHeader)
		if err != nil {
			logrus.WithError(err).Error("failed to upload claim document")
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UPLOAD_ERROR",
					"message": "Failed to upload verification document",
				},
			})
			return
		}
		claim.DocumentS3Key = &s3Key
	}

	if note := c.PostForm("note"); note != "" {
		claim.ReviewNote = &note
	}

	if err := db.Create(&claim).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create claim",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    claim,
	})
}
