package services

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"formdeck/models"
	"formdeck/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// SubmitRateLimit admissions per window per form+client.
	SubmitRateLimit  = 10
	SubmitRateWindow = time.Minute

	// MaxResponsesPerForm is the response ceiling enforced at intake.
	MaxResponsesPerForm = 100

	// MaxFieldsPerForm caps field creation per form.
	MaxFieldsPerForm = 20

	// MaxValueLength caps a single submitted value.
	MaxValueLength = 5000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type SubmissionPayload struct {
	Values       map[string]string `json:"values"`
	CaptchaToken string            `json:"captchaToken"`
}

type SubmissionService struct {
	DB       *gorm.DB
	Limiter  utils.RateLimiter
	Captcha  CaptchaVerifier
	Notifier SubmissionNotifier
}

func NewSubmissionService(db *gorm.DB, limiter utils.RateLimiter, captcha CaptchaVerifier, notifier SubmissionNotifier) *SubmissionService {
	return &SubmissionService{DB: db, Limiter: limiter, Captcha: captcha, Notifier: notifier}
}

// Submit runs the public intake pipeline for one submission: rate limit,
// form resolution, response ceiling, CAPTCHA, sanitization, per-field
// validation, persistence, then background notification fan-out.
// User-facing messages are Portuguese.
func (s *SubmissionService) Submit(slug, clientIP string, payload *SubmissionPayload) (*models.Response, error) {
	key := fmt.Sprintf("submit:%s:%s", slug, clientIP)
	allowed, resetIn := s.Limiter.Admit(key, SubmitRateLimit, SubmitRateWindow)
	if !allowed {
		return nil, &utils.APIError{
			Status:     http.StatusTooManyRequests,
			Message:    "Muitas tentativas. Aguarde um momento e tente novamente.",
			RetryAfter: utils.RetryAfterSeconds(resetIn),
		}
	}

	// Unknown and unpublished slugs share the same not-found response so
	// unpublished forms are not discoverable.
	var form models.Form
	err := s.DB.
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("field_order ASC") }).
		Preload("Settings").
		Where("slug = ? AND published = ?", slug, true).
		First(&form).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewAPIError(http.StatusNotFound, "Formulário não encontrado")
		}
		return nil, err
	}

	var count int64
	if err := s.DB.Model(&models.Response{}).Where("form_id = ?", form.ID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count >= MaxResponsesPerForm {
		return nil, utils.NewAPIError(http.StatusForbidden, "Este formulário atingiu o limite de respostas")
	}

	if err := s.verifyCaptcha(&form, payload.CaptchaToken); err != nil {
		return nil, err
	}

	values := utils.SanitizeValues(payload.Values)

	if err := validateValues(form.Fields, values); err != nil {
		return nil, err
	}

	response := &models.Response{
		FormID:      form.ID,
		SubmittedAt: time.Now(),
	}

	// Only keys that match a real field of this form are stored; foreign
	// or unknown field ids are dropped.
	fieldIDs := make(map[string]uuid.UUID, len(form.Fields))
	for _, field := range form.Fields {
		fieldIDs[field.ID.String()] = field.ID
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(response).Error; err != nil {
			return err
		}
		for key, value := range values {
			fieldID, ok := fieldIDs[key]
			if !ok {
				continue
			}
			fieldValue := &models.FieldValue{
				ResponseID: response.ID,
				FieldID:    fieldID,
				Value:      value,
			}
			if err := tx.Create(fieldValue).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"form_id":     form.ID,
		"response_id": response.ID,
	}).Info("response recorded")

	if s.Notifier != nil {
		go s.Notifier.NotifySubmission(&form, response, values)
	}

	return response, nil
}

func (s *SubmissionService) verifyCaptcha(form *models.Form, token string) error {
	settings := &form.Settings
	if !settings.CaptchaEnabled || settings.CaptchaSecretKey == "" || settings.CaptchaProvider == "" {
		return nil
	}

	captchaErr := utils.NewAPIError(http.StatusBadRequest, "Complete a verificação de segurança")
	if token == "" {
		return captchaErr
	}

	// Transport failure counts as verification failure.
	ok, err := s.Captcha.Verify(settings.CaptchaProvider, settings.CaptchaSecretKey, token)
	if err != nil {
		log.WithField("form_id", form.ID).WithError(err).Warn("captcha verification errored")
		return captchaErr
	}
	if !ok {
		return captchaErr
	}
	return nil
}

// validateValues checks fields in display order; the first failure wins.
func validateValues(fields []models.Field, values map[string]string) error {
	for _, field := range fields {
		value := values[field.ID.String()]

		if field.Required && value == "" {
			return utils.FieldError(
				fmt.Sprintf("Preencha o campo obrigatório: %s", field.Label),
				field.ID.String(),
			)
		}
		if len(value) > MaxValueLength {
			return utils.FieldError(
				fmt.Sprintf("Valor muito longo no campo: %s", field.Label),
				field.ID.String(),
			)
		}
		if field.Type == models.FieldTypeEmail && value != "" && !emailPattern.MatchString(value) {
			return utils.FieldError(
				fmt.Sprintf("E-mail inválido no campo: %s", field.Label),
				field.ID.String(),
			)
		}
	}
	return nil
}
