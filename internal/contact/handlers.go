package contact

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/azellar/backend/internal/common"
	"github.com/azellar/backend/internal/notify"
)

// Sender dispatches the contact emails.
type Sender interface {
	SendContact(ctx context.Context, req notify.ContactRequest) error
}

// Handler serves POST /api/send-contact-email.
type Handler struct {
	Sender Sender
	Logger zerolog.Logger
}

type contactPayload struct {
	Name        *string `json:"name" validate:"required"`
	Email       *string `json:"email" validate:"required"`
	Message     *string `json:"message" validate:"required"`
	InquiryType *string `json:"inquiry_type" validate:"required"`
}

// Send validates the submission and sends the confirmation and admin emails.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var payload contactPayload
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		common.ValidationFailed(w, err)
		return
	}
	if h.Sender == nil {
		common.WriteError(w, common.NewAppError("INTERNAL", "email service not configured", http.StatusInternalServerError, nil))
		return
	}

	req := notify.ContactRequest{
		Name:        *payload.Name,
		Email:       *payload.Email,
		Message:     *payload.Message,
		InquiryType: *payload.InquiryType,
	}
	if err := h.Sender.SendContact(r.Context(), req); err != nil {
		evt := h.Logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context()))
		var sendErr *notify.SendError
		if errors.As(err, &sendErr) {
			evt = evt.Str("flow", sendErr.Flow).Str("step", sendErr.Step).Str("recipient", sendErr.Recipient)
		}
		evt.Msg("send contact emails")
		common.WriteError(w, common.NewAppError("EMAIL_SEND_FAILED", "Failed to send emails", http.StatusInternalServerError, err))
		return
	}

	h.Logger.Info().Str("email", req.Email).Str("inquiry_type", req.InquiryType).Msg("contact emails sent")
	common.Success(w, "Emails sent successfully")
}
