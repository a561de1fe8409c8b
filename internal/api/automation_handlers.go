package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/secsys/security-service/internal/domain"
	"github.com/secsys/security-service/internal/store"
)

// JokeDispatcher triggers one dispatch round outside the cron schedule.
type JokeDispatcher interface {
	DispatchEmails(ctx context.Context) (int, error)
	DispatchSMS(ctx context.Context) (int, error)
}

// AutomationHandler manages joke recipients and manual dispatch triggers.
type AutomationHandler struct {
	recipients store.RecipientRepository
	dispatcher JokeDispatcher
}

// NewAutomationHandler creates a new handler for the automation endpoints.
func NewAutomationHandler(recipients store.RecipientRepository, dispatcher JokeDispatcher) *AutomationHandler {
	return &AutomationHandler{recipients: recipients, dispatcher: dispatcher}
}

type createRecipientRequest struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// CreateRecipient handles POST /automation/recipients.
func (h *AutomationHandler) CreateRecipient(w http.ResponseWriter, r *http.Request) {
	var req createRecipientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind := domain.RecipientKind(strings.TrimSpace(req.Kind))
	if kind != domain.EmailRecipientKind && kind != domain.SMSRecipientKind {
		writeError(w, http.StatusBadRequest, "kind must be 'email' or 'sms'")
		return
	}
	name := strings.TrimSpace(req.Name)
	address := strings.TrimSpace(req.Address)
	if name == "" || address == "" {
		writeError(w, http.StatusBadRequest, "Please provide both name and address.")
		return
	}

	recipient, err := h.recipients.Create(r.Context(), &domain.Recipient{
		Kind:    kind,
		Name:    name,
		Address: address,
	})
	if err != nil {
		log.Printf("Error creating recipient: %v", err)
		writeError(w, http.StatusConflict, "Could not add recipient")
		return
	}

	writeJSON(w, http.StatusCreated, recipient)
}

// ListRecipients handles GET /automation/recipients.
func (h *AutomationHandler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	recipients, err := h.recipients.List(r.Context())
	if err != nil {
		log.Printf("Error listing recipients: %v", err)
		writeError(w, http.StatusInternalServerError, "Could not list recipients")
		return
	}
	if recipients == nil {
		recipients = []domain.Recipient{}
	}
	writeJSON(w, http.StatusOK, recipients)
}

// ToggleRecipient handles POST /automation/recipients/{id}/toggle.
func (h *AutomationHandler) ToggleRecipient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	recipient, err := h.recipients.ToggleActive(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRecipientNotFound) {
			writeError(w, http.StatusNotFound, "Recipient not found")
			return
		}
		log.Printf("Error toggling recipient %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Could not toggle recipient")
		return
	}
	writeJSON(w, http.StatusOK, recipient)
}

// DeleteRecipient handles DELETE /automation/recipients/{id}.
func (h *AutomationHandler) DeleteRecipient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.recipients.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrRecipientNotFound) {
			writeError(w, http.StatusNotFound, "Recipient not found")
			return
		}
		log.Printf("Error deleting recipient %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Could not delete recipient")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TriggerEmail handles POST /automation/trigger/email.
func (h *AutomationHandler) TriggerEmail(w http.ResponseWriter, r *http.Request) {
	sent, err := h.dispatcher.DispatchEmails(r.Context())
	if err != nil {
		log.Printf("Error triggering email dispatch: %v", err)
		writeError(w, http.StatusInternalServerError, "Email dispatch failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "dispatched",
		"recipients": sent,
	})
}

// TriggerSMS handles POST /automation/trigger/sms.
func (h *AutomationHandler) TriggerSMS(w http.ResponseWriter, r *http.Request) {
	sent, err := h.dispatcher.DispatchSMS(r.Context())
	if err != nil {
		log.Printf("Error triggering SMS dispatch: %v", err)
		writeError(w, http.StatusInternalServerError, "SMS dispatch failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "dispatched",
		"recipients": sent,
	})
}
