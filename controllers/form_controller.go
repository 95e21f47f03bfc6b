package controllers

import (
	"net/http"

	"formdeck/models"
	"formdeck/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateForm creates a draft form with empty settings for the current user
func CreateForm(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	var requestBody struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form := models.Form{
		UserID:      userID,
		Name:        requestBody.Name,
		Description: requestBody.Description,
		Slug:        utils.GenerateSlug(requestBody.Name),
	}

	if err := db.Create(&form).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create form"})
		return
	}

	settings := models.FormSettings{FormID: form.ID}
	if err := db.Create(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create form settings"})
		return
	}
	form.Settings = settings

	c.JSON(http.StatusCreated, gin.H{"form": form})
}

// GetForms lists the current user's forms with response counts
func GetForms(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	var forms []models.Form
	if err := db.Where("user_id = ?", userID).Order("created_at desc").Find(&forms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list forms"})
		return
	}

	type formSummary struct {
		models.Form
		ResponseCount int64 `json:"response_count"`
	}

	summaries := make([]formSummary, 0, len(forms))
	for _, form := range forms {
		var count int64
		if err := db.Model(&models.Response{}).Where("form_id = ?", form.ID).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count responses"})
			return
		}
		summaries = append(summaries, formSummary{Form: form, ResponseCount: count})
	}

	c.JSON(http.StatusOK, gin.H{"forms": summaries})
}

// GetForm returns one of the current user's forms with fields and settings
func GetForm(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	form, ok := ownedForm(c, db, userID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"form": form})
}

// UpdateForm updates name, description or published state
func UpdateForm(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	form, ok := ownedForm(c, db, userID)
	if !ok {
		return
	}

	var requestBody struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Published   *bool   `json:"published"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestBody.Name != nil {
		form.Name = *requestBody.Name
	}
	if requestBody.Description != nil {
		form.Description = *requestBody.Description
	}
	if requestBody.Published != nil {
		form.Published = *requestBody.Published
	}

	if err := db.Save(form).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update form"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"form": form})
}

// UpdateFormSettings updates notification and appearance settings.
// Theme, branding removal and CAPTCHA are pro features.
func UpdateFormSettings(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	form, ok := ownedForm(c, db, userID)
	if !ok {
		return
	}

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var requestBody struct {
		NotifyEmail      *string   `json:"notify_email"`
		NotifyEmails     *[]string `json:"notify_emails"`
		WebhookURL       *string   `json:"webhook_url"`
		CaptchaEnabled   *bool     `json:"captcha_enabled"`
		CaptchaProvider  *string   `json:"captcha_provider"`
		CaptchaSiteKey   *string   `json:"captcha_site_key"`
		CaptchaSecretKey *string   `json:"captcha_secret_key"`
		ThemeColor       *string   `json:"theme_color"`
		HideBranding     *bool     `json:"hide_branding"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isPro := user.Plan == models.PlanPro
	if !isPro {
		wantsPro := (requestBody.ThemeColor != nil && *requestBody.ThemeColor != "") ||
			(requestBody.HideBranding != nil && *requestBody.HideBranding) ||
			(requestBody.CaptchaEnabled != nil && *requestBody.CaptchaEnabled)
		if wantsPro {
			c.JSON(http.StatusForbidden, gin.H{"error": "Upgrade to pro to use this feature"})
			return
		}
	}

	settings := &form.Settings
	if requestBody.NotifyEmail != nil {
		settings.NotifyEmail = *requestBody.NotifyEmail
	}
	if requestBody.NotifyEmails != nil {
		encoded, err := utils.EncodeJSONList(*requestBody.NotifyEmails)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notify emails"})
			return
		}
		settings.NotifyEmails = encoded
	}
	if requestBody.WebhookURL != nil {
		settings.WebhookURL = *requestBody.WebhookURL
	}
	if requestBody.CaptchaEnabled != nil {
		settings.CaptchaEnabled = *requestBody.CaptchaEnabled
	}
	if requestBody.CaptchaProvider != nil {
		if *requestBody.CaptchaProvider != "" && *requestBody.CaptchaProvider != "turnstile" && *requestBody.CaptchaProvider != "hcaptcha" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Captcha provider must be 'turnstile' or 'hcaptcha'"})
			return
		}
		settings.CaptchaProvider = *requestBody.CaptchaProvider
	}
	if requestBody.CaptchaSiteKey != nil {
		settings.CaptchaSiteKey = *requestBody.CaptchaSiteKey
	}
	if requestBody.CaptchaSecretKey != nil {
		settings.CaptchaSecretKey = *requestBody.CaptchaSecretKey
	}
	if requestBody.ThemeColor != nil {
		settings.ThemeColor = *requestBody.ThemeColor
	}
	if requestBody.HideBranding != nil {
		settings.HideBranding = *requestBody.HideBranding
	}

	if err := db.Save(settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// DeleteForm removes a form together with its fields, settings and responses
func DeleteForm(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	userID := utils.CurrentUserID(c)

	form, ok := ownedForm(c, db, userID)
	if !ok {
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var responseIDs []string
		if err := tx.Model(&models.Response{}).Where("form_id = ?", form.ID).Pluck("id", &responseIDs).Error; err != nil {
			return err
		}
		if len(responseIDs) > 0 {
			if err := tx.Where("response_id IN ?", responseIDs).Delete(&models.FieldValue{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("form_id = ?", form.ID).Delete(&models.Response{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", form.ID).Delete(&models.Field{}).Error; err != nil {
			return err
		}
		if err := tx.Where("form_id = ?", form.ID).Delete(&models.FormSettings{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Form{}, "id = ?", form.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete form"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Form deleted"})
}

// GetPublicForm returns a published form definition by slug with all
// server-only settings stripped. Unknown and unpublished slugs are
// indistinguishable.
func GetPublicForm(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	slug := c.Param("slug")

	var form models.Form
	err := db.
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("field_order ASC") }).
		Preload("Settings").
		Where("slug = ? AND published = ?", slug, true).
		First(&form).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Formulário não encontrado"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"form": gin.H{
			"id":          form.ID,
			"name":        form.Name,
			"description": form.Description,
			"slug":        form.Slug,
			"fields":      form.Fields,
			"settings": gin.H{
				"captcha_enabled":  form.Settings.CaptchaEnabled,
				"captcha_provider": form.Settings.CaptchaProvider,
				"captcha_site_key": form.Settings.CaptchaSiteKey,
				"theme_color":      form.Settings.ThemeColor,
				"hide_branding":    form.Settings.HideBranding,
			},
		},
	})
}

// ownedForm loads the form named in the route for the current user,
// writing the error response itself when it cannot.
func ownedForm(c *gin.Context, db *gorm.DB, userID interface{}) (*models.Form, bool) {
	var form models.Form
	err := db.
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("field_order ASC") }).
		Preload("Settings").
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&form).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
		return nil, false
	}
	return &form, true
}
