package enrollment

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/azellar/backend/internal/common"
	"github.com/azellar/backend/internal/notify"
)

// Sender dispatches the enrollment confirmation.
type Sender interface {
	SendEnrollment(ctx context.Context, req notify.EnrollmentRequest) error
}

// Handler serves POST /api/send-enrollment-email.
type Handler struct {
	Sender Sender
	Logger zerolog.Logger
}

type enrollmentPayload struct {
	StudentName   *string        `json:"student_name" validate:"required"`
	StudentEmail  *string        `json:"student_email" validate:"required"`
	CourseName    *string        `json:"course_name" validate:"required"`
	CourseDetails map[string]any `json:"course_details" validate:"required"`
}

// Send validates the enrollment and emails the student.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var payload enrollmentPayload
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		common.ValidationFailed(w, err)
		return
	}
	if h.Sender == nil {
		common.WriteError(w, common.NewAppError("INTERNAL", "email service not configured", http.StatusInternalServerError, nil))
		return
	}

	req := notify.EnrollmentRequest{
		StudentName:   *payload.StudentName,
		StudentEmail:  *payload.StudentEmail,
		CourseName:    *payload.CourseName,
		CourseDetails: notify.CourseDetails(payload.CourseDetails),
	}
	if err := h.Sender.SendEnrollment(r.Context(), req); err != nil {
		evt := h.Logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context()))
		var sendErr *notify.SendError
		if errors.As(err, &sendErr) {
			evt = evt.Str("flow", sendErr.Flow).Str("step", sendErr.Step)
		}
		evt.Msg("send enrollment email")
		common.WriteError(w, common.NewAppError("EMAIL_SEND_FAILED", "Failed to send enrollment email", http.StatusInternalServerError, err))
		return
	}

	h.Logger.Info().Str("student_email", req.StudentEmail).Str("course", req.CourseName).Msg("enrollment email sent")
	common.Success(w, "Enrollment email sent successfully")
}
