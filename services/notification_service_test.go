package services_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"formdeck/models"
	"formdeck/services"
	"formdeck/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu     sync.Mutex
	sent   []string
	failTo map[string]bool
}

func (m *fakeMailer) Send(to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[to] {
		return errors.New("delivery refused")
	}
	m.sent = append(m.sent, to)
	return nil
}

func settingsWithEmails(t *testing.T, legacy string, list ...string) models.FormSettings {
	t.Helper()
	settings := models.FormSettings{NotifyEmail: legacy}
	if len(list) > 0 {
		encoded, err := utils.EncodeJSONList(list)
		require.NoError(t, err)
		settings.NotifyEmails = encoded
	}
	return settings
}

func TestRecipientsDedupePreservesOrder(t *testing.T) {
	settings := settingsWithEmails(t, "a@x.com", "b@x.com", "a@x.com", "c@x.com", "b@x.com")
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, services.Recipients(&settings))

	empty := settingsWithEmails(t, "")
	assert.Empty(t, services.Recipients(&empty))

	legacyOnly := settingsWithEmails(t, "only@x.com")
	assert.Equal(t, []string{"only@x.com"}, services.Recipients(&legacyOnly))
}

func TestNotifySubmissionSendsToAllRecipients(t *testing.T) {
	mailer := &fakeMailer{}
	svc := services.NewNotificationService(mailer)

	form := &models.Form{
		ID:       uuid.New(),
		Name:     "Contato",
		Settings: settingsWithEmails(t, "a@x.com", "b@x.com", "c@x.com"),
	}
	response := &models.Response{ID: uuid.New(), FormID: form.ID, SubmittedAt: time.Now()}

	svc.NotifySubmission(form, response, map[string]string{})

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	sort.Strings(mailer.sent)
	assert.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com"}, mailer.sent)
}

func TestNotifySubmissionFailuresAreIndependent(t *testing.T) {
	mailer := &fakeMailer{failTo: map[string]bool{"b@x.com": true}}
	svc := services.NewNotificationService(mailer)

	form := &models.Form{
		ID:       uuid.New(),
		Name:     "Contato",
		Settings: settingsWithEmails(t, "a@x.com", "b@x.com", "c@x.com"),
	}
	response := &models.Response{ID: uuid.New(), FormID: form.ID, SubmittedAt: time.Now()}

	// Never panics or aborts; the other recipients still get their mail.
	svc.NotifySubmission(form, response, map[string]string{})

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	sort.Strings(mailer.sent)
	assert.Equal(t, []string{"a@x.com", "c@x.com"}, mailer.sent)
}

func TestNotifySubmissionDeliversWebhook(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := services.NewNotificationService(&fakeMailer{})

	form := &models.Form{ID: uuid.New(), Name: "Contato"}
	form.Settings = models.FormSettings{WebhookURL: server.URL}
	response := &models.Response{ID: uuid.New(), FormID: form.ID, SubmittedAt: time.Now()}

	svc.NotifySubmission(form, response, map[string]string{"field": "value"})

	require.NotNil(t, received)
	assert.Equal(t, form.ID.String(), received["form_id"])
	assert.Equal(t, "Contato", received["form_name"])
	assert.Equal(t, response.ID.String(), received["response_id"])
	assert.Equal(t, map[string]interface{}{"field": "value"}, received["values"])
}

func TestNotifySubmissionWebhookFailureIsSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := services.NewNotificationService(&fakeMailer{})

	form := &models.Form{ID: uuid.New(), Name: "Contato"}
	form.Settings = models.FormSettings{WebhookURL: server.URL}
	response := &models.Response{ID: uuid.New(), FormID: form.ID, SubmittedAt: time.Now()}

	assert.NotPanics(t, func() {
		svc.NotifySubmission(form, response, nil)
	})
}
