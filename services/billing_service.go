package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"formdeck/config"
	"formdeck/models"
	"formdeck/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/subscription"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"
)

// BillingService glues Stripe checkout/portal sessions to local billing
// state and reconciles webhook lifecycle events against it. Stripe is
// the source of truth; local writes are full overwrites keyed by the
// subscription id, never increments.
type BillingService struct {
	DB     *gorm.DB
	Config *config.Config

	// FetchSubscription pulls the full subscription from Stripe after
	// checkout. Replaceable in tests.
	FetchSubscription func(id string) (*stripe.Subscription, error)
}

func NewBillingService(db *gorm.DB, cfg *config.Config) *BillingService {
	stripe.Key = cfg.StripeSecretKey
	return &BillingService{
		DB:     db,
		Config: cfg,
		FetchSubscription: func(id string) (*stripe.Subscription, error) {
			return subscription.Get(id, nil)
		},
	}
}

// CreateCheckoutSession starts a subscription-mode checkout for the pro
// plan. Only the configured pro price is accepted.
func (s *BillingService) CreateCheckoutSession(user *models.User, priceID string) (string, error) {
	if priceID == "" || priceID != s.Config.StripeProPriceID {
		return "", utils.NewAPIError(http.StatusBadRequest, "Invalid price")
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(s.Config.AppURL + "/dashboard/billing?success=true"),
		CancelURL:         stripe.String(s.Config.AppURL + "/dashboard/billing?canceled=true"),
		ClientReferenceID: stripe.String(user.ID.String()),
		CustomerEmail:     stripe.String(user.Email),
	}
	params.AddMetadata("user_id", user.ID.String())

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// CreatePortalSession opens the Stripe billing portal for an existing
// customer.
func (s *BillingService) CreatePortalSession(user *models.User) (string, error) {
	if user.StripeCustomerID == "" {
		return "", utils.NewAPIError(http.StatusNotFound, "No billing account found")
	}

	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID),
		ReturnURL: stripe.String(s.Config.AppURL + "/dashboard/billing"),
	})
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// HandleWebhook verifies the payload signature and applies the event.
// Signature failure mutates nothing.
func (s *BillingService) HandleWebhook(payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.Config.StripeWebhookSecret)
	if err != nil {
		return utils.NewAPIError(http.StatusBadRequest, "Invalid signature")
	}
	return s.HandleEvent(event)
}

// HandleEvent dispatches one recognized lifecycle event to its state
// transition. Unrecognized event types are acknowledged and ignored.
func (s *BillingService) HandleEvent(event stripe.Event) error {
	switch string(event.Type) {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}
		return s.handleCheckoutCompleted(&session)
	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		return s.handleSubscriptionUpdated(&sub)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		return s.handleSubscriptionDeleted(&sub)
	case "invoice.payment_succeeded":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return err
		}
		return s.recordPayment(&invoice, "succeeded")
	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return err
		}
		return s.recordPayment(&invoice, "failed")
	default:
		log.WithField("type", event.Type).Debug("ignoring unhandled stripe event")
		return nil
	}
}

func (s *BillingService) handleCheckoutCompleted(session *stripe.CheckoutSession) error {
	if session.Mode != stripe.CheckoutSessionModeSubscription {
		return nil
	}

	reference := session.ClientReferenceID
	if reference == "" {
		reference = session.Metadata["user_id"]
	}
	if reference == "" || session.Subscription == nil {
		log.WithField("session", session.ID).Warn("checkout session without user reference")
		return nil
	}

	userID, err := uuid.Parse(reference)
	if err != nil {
		log.WithField("session", session.ID).Warn("checkout session with malformed user reference")
		return nil
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithField("user_id", userID).Warn("checkout completed for unknown user")
			return nil
		}
		return err
	}

	sub, err := s.FetchSubscription(session.Subscription.ID)
	if err != nil {
		return err
	}

	priceID := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}

	periodStart := time.Unix(sub.CurrentPeriodStart, 0)
	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)

	updates := map[string]interface{}{
		"plan":                   models.PlanPro,
		"stripe_customer_id":     customerID,
		"stripe_subscription_id": sub.ID,
		"stripe_price_id":        priceID,
		"current_period_end":     periodEnd,
	}
	if err := s.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return err
	}

	record := &models.Subscription{
		UserID:               user.ID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        priceID,
		Status:               string(sub.Status),
		Plan:                 models.PlanPro,
		CurrentPeriodStart:   &periodStart,
		CurrentPeriodEnd:     &periodEnd,
	}
	if err := s.DB.Create(record).Error; err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id":      user.ID,
		"subscription": sub.ID,
	}).Info("checkout completed, user upgraded to pro")
	return nil
}

func (s *BillingService) handleSubscriptionUpdated(sub *stripe.Subscription) error {
	user, err := s.findUserBySubscriptionID(sub.ID)
	if err != nil {
		return err
	}
	if user == nil {
		log.WithField("subscription", sub.ID).Warn("subscription update for unknown subscription")
		return nil
	}

	plan := models.PlanFree
	if sub.Status == stripe.SubscriptionStatusActive {
		plan = models.PlanPro
	}
	periodStart := time.Unix(sub.CurrentPeriodStart, 0)
	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)

	err = s.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"plan":               plan,
		"current_period_end": periodEnd,
	}).Error
	if err != nil {
		return err
	}

	var canceledAt *time.Time
	if sub.CanceledAt > 0 {
		ts := time.Unix(sub.CanceledAt, 0)
		canceledAt = &ts
	}

	err = s.DB.Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", sub.ID).
		Updates(map[string]interface{}{
			"status":               string(sub.Status),
			"current_period_start": periodStart,
			"current_period_end":   periodEnd,
			"cancel_at_period_end": sub.CancelAtPeriodEnd,
			"canceled_at":          canceledAt,
		}).Error
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id":      user.ID,
		"subscription": sub.ID,
		"status":       sub.Status,
	}).Info("subscription updated")
	return nil
}

func (s *BillingService) handleSubscriptionDeleted(sub *stripe.Subscription) error {
	user, err := s.findUserBySubscriptionID(sub.ID)
	if err != nil {
		return err
	}
	if user == nil {
		log.WithField("subscription", sub.ID).Warn("subscription delete for unknown subscription")
		return nil
	}

	err = s.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"plan":               models.PlanFree,
		"current_period_end": nil,
	}).Error
	if err != nil {
		return err
	}

	now := time.Now()
	err = s.DB.Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", sub.ID).
		Updates(map[string]interface{}{
			"status":      "canceled",
			"canceled_at": &now,
		}).Error
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id":      user.ID,
		"subscription": sub.ID,
	}).Info("subscription canceled, user downgraded")
	return nil
}

func (s *BillingService) recordPayment(invoice *stripe.Invoice, status string) error {
	if invoice.Subscription == nil {
		log.WithField("invoice", invoice.ID).Debug("invoice without subscription, skipping")
		return nil
	}

	user, err := s.findUserBySubscriptionID(invoice.Subscription.ID)
	if err != nil {
		return err
	}
	if user == nil {
		log.WithField("subscription", invoice.Subscription.ID).Warn("invoice for unknown subscription")
		return nil
	}

	amount := invoice.AmountDue
	description := ""
	if status == "succeeded" {
		amount = invoice.AmountPaid
		if invoice.Lines != nil && len(invoice.Lines.Data) > 0 {
			description = invoice.Lines.Data[0].Description
		}
	}

	record := &models.PaymentHistory{
		UserID:          user.ID,
		StripeInvoiceID: invoice.ID,
		Amount:          amount,
		Currency:        string(invoice.Currency),
		Status:          status,
		Description:     description,
	}
	return s.DB.Create(record).Error
}

// findUserBySubscriptionID resolves the local user whose stored Stripe
// subscription id matches. A nil user means no match; events without a
// local owner are logged and dropped, there is no retry path.
func (s *BillingService) findUserBySubscriptionID(subscriptionID string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "stripe_subscription_id = ?", subscriptionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetBillingStatus returns the user's latest subscription record and
// payment ledger.
func (s *BillingService) GetBillingStatus(userID uuid.UUID) (*models.Subscription, []models.PaymentHistory, error) {
	var sub models.Subscription
	err := s.DB.Where("user_id = ?", userID).Order("created_at desc").First(&sub).Error
	var latest *models.Subscription
	if err == nil {
		latest = &sub
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	var payments []models.PaymentHistory
	if err := s.DB.Where("user_id = ?", userID).Order("created_at desc").Limit(50).Find(&payments).Error; err != nil {
		return nil, nil, err
	}

	return latest, payments, nil
}
