package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"formdeck/models"

	log "github.com/sirupsen/logrus"
)

// Mailer sends a single notification email.
type Mailer interface {
	Send(to, subject, html string) error
}

// SubmissionNotifier fans out the configured notifications for a new
// response. Implementations never report failure to the caller; the
// submission result does not depend on delivery.
type SubmissionNotifier interface {
	NotifySubmission(form *models.Form, response *models.Response, values map[string]string)
}

type NotificationService struct {
	Mailer Mailer
	Client *http.Client
}

func NewNotificationService(mailer Mailer) *NotificationService {
	return &NotificationService{
		Mailer: mailer,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifySubmission emails every configured recipient concurrently,
// waiting for all outcomes so each one can be logged, then delivers the
// outbound webhook if one is configured. Individual failures are logged
// and otherwise ignored.
func (s *NotificationService) NotifySubmission(form *models.Form, response *models.Response, values map[string]string) {
	recipients := Recipients(&form.Settings)

	var wg sync.WaitGroup
	for _, recipient := range recipients {
		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			subject := fmt.Sprintf("Nova resposta: %s", form.Name)
			if err := s.Mailer.Send(to, subject, submissionEmailHTML(form, response, values)); err != nil {
				log.WithFields(log.Fields{
					"form_id":   form.ID,
					"recipient": to,
				}).WithError(err).Warn("notification email failed")
				return
			}
			log.WithFields(log.Fields{
				"form_id":   form.ID,
				"recipient": to,
			}).Info("notification email sent")
		}(recipient)
	}
	wg.Wait()

	if form.Settings.WebhookURL != "" {
		s.deliverWebhook(form, response, values)
	}
}

// Recipients merges the legacy single notify address with the
// list-valued one, deduplicated in first-seen order.
func Recipients(settings *models.FormSettings) []string {
	var recipients []string
	seen := make(map[string]bool)

	add := func(email string) {
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		recipients = append(recipients, email)
	}

	add(settings.NotifyEmail)

	if len(settings.NotifyEmails) > 0 {
		var extra []string
		if err := json.Unmarshal(settings.NotifyEmails, &extra); err == nil {
			for _, email := range extra {
				add(email)
			}
		}
	}

	return recipients
}

func (s *NotificationService) deliverWebhook(form *models.Form, response *models.Response, values map[string]string) {
	payload, err := json.Marshal(map[string]interface{}{
		"form_id":      form.ID,
		"form_name":    form.Name,
		"response_id":  response.ID,
		"submitted_at": response.SubmittedAt,
		"values":       values,
	})
	if err != nil {
		return
	}

	resp, err := s.Client.Post(form.Settings.WebhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.WithField("form_id", form.ID).WithError(err).Warn("submission webhook failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.WithFields(log.Fields{
			"form_id": form.ID,
			"status":  resp.StatusCode,
		}).Warn("submission webhook rejected")
		return
	}

	log.WithField("form_id", form.ID).Info("submission webhook delivered")
}

func submissionEmailHTML(form *models.Form, response *models.Response, values map[string]string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<h2>Nova resposta em %s</h2>", form.Name)
	fmt.Fprintf(&buf, "<p>Recebida em %s</p><ul>", response.SubmittedAt.Format("02/01/2006 15:04"))
	for _, field := range form.Fields {
		value, ok := values[field.ID.String()]
		if !ok || value == "" {
			continue
		}
		fmt.Fprintf(&buf, "<li><strong>%s:</strong> %s</li>", field.Label, value)
	}
	buf.WriteString("</ul>")
	return buf.String()
}
