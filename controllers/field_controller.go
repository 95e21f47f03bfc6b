package controllers

import (
	"fmt"
	"net/http"

	"formdeck/models"
	"formdeck/services"
	"formdeck/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var fieldTypes = map[models.FieldType]bool{
	models.FieldTypeText:     true,
	models.FieldTypeEmail:    true,
	models.FieldTypeTextarea: true,
	models.FieldTypeSelect:   true,
	models.FieldTypeNumber:   true,
	models.FieldTypePhone:    true,
}

// CreateField appends a field to a form, enforcing the per-form ceiling
func CreateField(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	form, ok := ownedForm(c, db, userID)
	if !ok {
		return
	}

	var requestBody struct {
		Type        models.FieldType `json:"type" binding:"required"`
		Label       string           `json:"label" binding:"required"`
		Placeholder string           `json:"placeholder"`
		Required    bool             `json:"required"`
		Options     []string         `json:"options"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !fieldTypes[requestBody.Type] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown field type: %s", requestBody.Type)})
		return
	}

	var count int64
	if err := db.Model(&models.Field{}).Where("form_id = ?", form.ID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count fields"})
		return
	}
	if count >= services.MaxFieldsPerForm {
		c.JSON(http.StatusForbidden, gin.H{"error": "Field limit reached for this form"})
		return
	}

	field := models.Field{
		FormID:      form.ID,
		Type:        requestBody.Type,
		Label:       requestBody.Label,
		Placeholder: requestBody.Placeholder,
		Required:    requestBody.Required,
		Order:       int(count),
	}

	if requestBody.Type == models.FieldTypeSelect {
		encoded, err := utils.EncodeJSONList(requestBody.Options)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid options"})
			return
		}
		field.Options = encoded
	}

	if err := db.Create(&field).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create field"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"field": field})
}

// UpdateField modifies a field's definition
func UpdateField(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	form, ok := ownedForm(c, db, userID)
	if !ok {
		return
	}

	var field models.Field
	if err := db.Where("id = ? AND form_id = ?", c.Param("fieldId"), form.ID).First(&field).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Field not found"})
		return
	}

	var requestBody struct {
		Label       *string   `json:"label"`
		Placeholder *string   `json:"placeholder"`
		Required    *bool     `json:"required"`
		Options     *[]string `json:"options"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestBody.Label != nil {
		field.Label = *requestBody.Label
	}
	if requestBody.Placeholder != nil {
		field.Placeholder = *requestBody.Placeholder
	}
	if requestBody.Required != nil {
		field.Required = *requestBody.Required
	}
	if requestBody.Options != nil && field.Type == models.FieldTypeSelect {
		encoded, err := utils.EncodeJSONList(*requestBody.Options)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid options"})
			return
		}
		field.Options = encoded
	}

	if err := db.Save(&field).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update field"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"field": field})
}

// DeleteField removes a field from a form
func DeleteField(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	form, ok := ownedForm(c, db, userID)
	if !ok {
		return
	}

	result := db.Where("id = ? AND form_id = ?", c.Param("fieldId"), form.ID).Delete(&models.Field{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete field"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Field not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Field deleted"})
}

// ReorderFields applies a full set of order updates in one transaction.
// Either every row is updated or none are.
func ReorderFields(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	form, ok := ownedForm(c, db, userID)
	if !ok {
		return
	}

	var requestBody struct {
		Fields []struct {
			ID    uuid.UUID `json:"id" binding:"required"`
			Order int       `json:"order"`
		} `json:"fields" binding:"required"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, item := range requestBody.Fields {
			result := tx.Model(&models.Field{}).
				Where("id = ? AND form_id = ?", item.ID, form.ID).
				Update("field_order", item.Order)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("field %s does not belong to form", item.ID)
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reorder failed, no changes applied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fields reordered"})
}
