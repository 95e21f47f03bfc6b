package controllers

import (
	"net/http"

	"formdeck/models"
	"formdeck/services"
	"formdeck/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SubmissionController struct {
	submissions *services.SubmissionService
}

func NewSubmissionController(submissions *services.SubmissionService) *SubmissionController {
	return &SubmissionController{submissions: submissions}
}

// Submit accepts an anonymous response to a published form. The reply
// carries only the new response id, never the submitted values.
func (ctrl *SubmissionController) Submit(c *gin.Context) {
	var payload services.SubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Envio inválido"})
		return
	}

	response, err := ctrl.submissions.Submit(c.Param("slug"), c.ClientIP(), &payload)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "id": response.ID})
}

// ListResponses returns a form's responses with values for its owner
func ListResponses(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	form, ok := ownedForm(c, db, userID)
	if !ok {
		return
	}

	var responses []models.Response
	err := db.Preload("Values").
		Where("form_id = ?", form.ID).
		Order("submitted_at desc").
		Find(&responses).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list responses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"responses": responses,
		"fields":    form.Fields,
	})
}

// DeleteResponse removes one response and its values
func DeleteResponse(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	form, ok := ownedForm(c, db, userID)
	if !ok {
		return
	}

	var response models.Response
	if err := db.Where("id = ? AND form_id = ?", c.Param("responseId"), form.ID).First(&response).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Response not found"})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("response_id = ?", response.ID).Delete(&models.FieldValue{}).Error; err != nil {
			return err
		}
		return tx.Delete(&response).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Response deleted"})
}
