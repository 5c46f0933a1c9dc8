package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crewlink/crewlink-api/config"
	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/services"
)

// CraftInput is one trade/region line item of a labor request submission
type CraftInput struct {
	TradeID         uint     `json:"tradeId" binding:"required"`
	RegionID        uint     `json:"regionId" binding:"required"`
	ExperienceLevel string   `json:"experienceLevel" binding:"required,oneof=apprentice journeyman foreman"`
	WorkerCount     int      `json:"workerCount" binding:"required,gt=0"`
	StartDate       string   `json:"startDate" binding:"required,datetime=2006-01-02"`
	DurationDays    int      `json:"durationDays" binding:"required,gt=0"`
	HoursPerWeek    int      `json:"hoursPerWeek" binding:"required,gt=0,lte=84"`
	Notes           *string  `json:"notes"`
	PayRateMin      *float64 `json:"payRateMin" binding:"omitempty,gte=0"`
	PayRateMax      *float64 `json:"payRateMax" binding:"omitempty,gte=0"`
	PerDiemRate     *float64 `json:"perDiemRate" binding:"omitempty,gte=0"`
}

// SubmitLaborRequestRequest is the body of POST /api/v1/labor-requests
type SubmitLaborRequestRequest struct {
	ProjectName       string       `json:"projectName" binding:"required"`
	CompanyName       string       `json:"companyName" binding:"required"`
	ContactEmail      string       `json:"contactEmail" binding:"required,email"`
	ContactPhone      string       `json:"contactPhone" binding:"required,min=7,max=20"`
	AdditionalDetails *string      `json:"additionalDetails"`
	Crafts            []CraftInput `json:"crafts" binding:"required,min=1,dive"`
}

// SubmitLaborRequest handles POST /api/v1/labor-requests - public submission
// of one staffing need with 1..N craft requirements. The request and its
// crafts persist atomically; notification fan-out problems come back as a
// warning on the 201, never as a failure.
func SubmitLaborRequest(c *gin.Context) {
	var req SubmitLaborRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": validationDetails(err),
		})
		return
	}

	// Cross-field checks the binding tags cannot express
	details := make(map[string]string)
	today := time.Now().Truncate(24 * time.Hour)
	crafts := make([]models.CraftRequirement, 0, len(req.Crafts))
	for i, craft := range req.Crafts {
		startDate, err := time.Parse("2006-01-02", craft.StartDate)
		if err != nil {
			details[fmt.Sprintf("crafts[%d].startDate", i)] = "must be a valid date"
			continue
		}
		if startDate.Before(today) {
			details[fmt.Sprintf("crafts[%d].startDate", i)] = "must not be in the past"
		}
		if (craft.PayRateMin == nil) != (craft.PayRateMax == nil) {
			details[fmt.Sprintf("crafts[%d].payRate", i)] = "payRateMin and payRateMax must be set together"
		} else if craft.PayRateMin != nil && *craft.PayRateMax < *craft.PayRateMin {
			details[fmt.Sprintf("crafts[%d].payRateMax", i)] = "must be greater than or equal to payRateMin"
		}

		crafts = append(crafts, models.CraftRequirement{
			TradeID:         craft.TradeID,
			RegionID:        craft.RegionID,
			ExperienceLevel: craft.ExperienceLevel,
			WorkerCount:     craft.WorkerCount,
			StartDate:       startDate,
			DurationDays:    craft.DurationDays,
			HoursPerWeek:    craft.HoursPerWeek,
			Notes:           craft.Notes,
			PayRateMin:      craft.PayRateMin,
			PayRateMax:      craft.PayRateMax,
			PerDiemRate:     craft.PerDiemRate,
		})
	}
	if len(details) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": details,
		})
		return
	}

	request := models.LaborRequest{
		ProjectName:       req.ProjectName,
		CompanyName:       req.CompanyName,
		ContactEmail:      req.ContactEmail,
		ContactPhone:      req.ContactPhone,
		AdditionalDetails: req.AdditionalDetails,
	}

	db := config.GetDB()
	result, err := services.SubmitLaborRequest(db, request, crafts)
	if err != nil {
		if errors.Is(err, services.ErrCreateCrafts) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create craft requirements",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create labor request",
		})
		return
	}

	response := gin.H{
		"success":           true,
		"requestId":         result.Request.ID,
		"confirmationToken": result.Request.ConfirmationToken,
		"totalMatches":      result.FanOut.TotalMatches,
		"matchesByCraft":    result.FanOut.PerCraft,
		"message":           "Labor request submitted. Check your email to confirm the request.",
	}
	if result.FanOut.HasFailures() {
		response["notificationWarning"] = "Some agencies could not be notified. Your request was still created."
		response["notificationErrors"] = result.FanOut.Failures
	}

	c.JSON(http.StatusCreated, response)
}

// ConfirmLaborRequestRequest is the body of POST /api/v1/labor-requests/confirm
type ConfirmLaborRequestRequest struct {
	Token string `json:"token" binding:"required"`
}

// ConfirmLaborRequest handles POST /api/v1/labor-requests/confirm - consumes a
// confirmation token and activates the request
func ConfirmLaborRequest(c *gin.Context) {
	var req ConfirmLaborRequestRequest
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
	request, err := services.ConfirmLaborRequest(db, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TOKEN_NOT_FOUND",
					"message": "Confirmation token not found",
				},
			})
		case errors.Is(err, services.ErrTokenExpired):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TOKEN_EXPIRED",
					"message": "Confirmation token has expired",
				},
			})
		case errors.Is(err, services.ErrTokenConsumed):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TOKEN_CONSUMED",
					"message": "This request has already been confirmed",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to confirm labor request",
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    request,
	})
}
