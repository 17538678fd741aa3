// internal/api/payments/handlers.go
package payments

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/apperr"
	paydomain "github.com/courtsidehq/courtside/internal/payments"
)

type Handlers struct {
	reconciler *paydomain.Reconciler
}

func NewHandlers(reconciler *paydomain.Reconciler) *Handlers {
	return &Handlers{reconciler: reconciler}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments/webhook", h.HandleWebhook)
}

type webhookResponse struct {
	Received bool `json:"received"`
	Applied  bool `json:"applied"`
}

// POST /api/v1/payments/webhook
//
// The gateway retries until it sees a 2xx. Events for unknown bookings are
// acknowledged so a payload that can never apply does not retry forever;
// only transient failures return 500.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var ev paydomain.Event
	if err := apiutil.DecodeJSON(r, &ev); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid webhook payload", Err: err})
		return
	}
	if strings.TrimSpace(ev.Kind) == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "kind", Reason: "is required"})
		return
	}

	applied, err := h.reconciler.HandleEvent(r.Context(), ev)
	if err != nil {
		switch {
		case apperr.IsKind(err, apperr.Validation):
			apiutil.WriteError(w, r, err)
		case apperr.IsKind(err, apperr.NotFound):
			logger.Warn().Str("event_id", ev.EventID).Str("kind", ev.Kind).
				Int64("booking_id", ev.BookingID).Msg("Acknowledging payment event for unknown booking")
			_ = apiutil.WriteJSON(w, http.StatusOK, webhookResponse{Received: true, Applied: false})
		default:
			logger.Error().Err(err).Str("event_id", ev.EventID).Str("kind", ev.Kind).
				Msg("Payment event failed, gateway will retry")
			_ = apiutil.WriteJSON(w, http.StatusInternalServerError, webhookResponse{Received: false})
		}
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, webhookResponse{Received: true, Applied: applied})
}
