// Package api exposes the onboarding flow and card operations as a small
// JSON REST surface. Every route is scoped to the user named by the
// X-User-Email header.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/lumapay/onboard/core"
)

func New(
	onboarding core.OnboardingService,
	cards core.CardService,
	confirmations core.ConfirmationService,
	logger *slog.Logger,
) *Server {
	return &Server{
		onboarding:    onboarding,
		cards:         cards,
		confirmations: confirmations,
		logger:        logger.With("server", "api"),
		sf:            &singleflight.Group{},
	}
}

type Server struct {
	onboarding    core.OnboardingService
	cards         core.CardService
	confirmations core.ConfirmationService
	logger        *slog.Logger
	sf            *singleflight.Group
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/onboarding", func(r chi.Router) {
		r.Get("/", s.resume)
		r.Post("/start", s.start)
		r.Post("/sms", s.sendSMS)
		r.Post("/sms/verify", s.verifySMS)
	})

	r.Route("/cards", func(r chi.Router) {
		r.Get("/", s.listCards)
		r.Post("/", s.issueCard)
		r.Post("/{card_id}/details", s.cardDetails)
	})

	return r
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	email, ok := s.email(w, r)
	if !ok {
		return
	}

	flow, err := s.onboarding.Resume(r.Context(), email)
	if err != nil {
		s.renderErr(w, err)
		return
	}

	renderJSON(w, http.StatusOK, flow)
}

// start collapses concurrent starts for the same user into one chain of
// side effects; every caller gets the resulting flow.
func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	email, ok := s.email(w, r)
	if !ok {
		return
	}

	v, err, _ := s.sf.Do(email, func() (interface{}, error) {
		return s.onboarding.Start(r.Context(), email)
	})
	if err != nil {
		s.renderErr(w, err)
		return
	}

	renderJSON(w, http.StatusOK, v.(*core.Flow))
}

func (s *Server) sendSMS(w http.ResponseWriter, r *http.Request) {
	email, ok := s.email(w, r)
	if !ok {
		return
	}

	flow, err := s.onboarding.SendSMS(r.Context(), email)
	if err != nil {
		s.renderErr(w, err)
		return
	}

	renderJSON(w, http.StatusOK, flow)
}

func (s *Server) verifySMS(w http.ResponseWriter, r *http.Request) {
	email, ok := s.email(w, r)
	if !ok {
		return
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		renderError(w, http.StatusBadRequest, "code is required")
		return
	}

	flow, err := s.onboarding.VerifySMS(r.Context(), email, body.Code)
	if err != nil {
		s.renderErr(w, err)
		return
	}

	renderJSON(w, http.StatusOK, flow)
}

func (s *Server) listCards(w http.ResponseWriter, r *http.Request) {
	email, ok := s.email(w, r)
	if !ok {
		return
	}

	if !s.requireCompleted(w, r, email) {
		return
	}

	cards, err := s.cards.List(r.Context(), email)
	if err != nil {
		s.renderErr(w, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

func (s *Server) issueCard(w http.ResponseWriter, r *http.Request) {
	email, ok := s.email(w, r)
	if !ok {
		return
	}

	if !s.requireCompleted(w, r, email) {
		return
	}

	var body struct {
		CardName   string `json:"card_name"`
		NameOnCard string `json:"name_on_card"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		renderError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	card, err := s.cards.Issue(r.Context(), email, body.CardName, body.NameOnCard)
	if err != nil {
		s.renderErr(w, err)
		return
	}

	renderJSON(w, http.StatusOK, card)
}

// cardDetails reveals the unmasked number and cvv. The caller proves
// wallet ownership with a signed nonce; the signature is exchanged for a
// one-shot action token consumed by the details fetch.
func (s *Server) cardDetails(w http.ResponseWriter, r *http.Request) {
	email, ok := s.email(w, r)
	if !ok {
		return
	}

	cardID := chi.URLParam(r, "card_id")

	var body struct {
		Nonce            int64  `json:"nonce"`
		MessageSignature string `json:"message_signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.MessageSignature == "" {
		renderError(w, http.StatusBadRequest, "message_signature is required")
		return
	}

	token, err := s.confirmations.VerifySignature(r.Context(), email, core.SignatureProof{
		ActionType:       core.ActionGetCardDetails,
		Nonce:            body.Nonce,
		MessageSignature: body.MessageSignature,
	})
	if err != nil {
		s.renderErr(w, err)
		return
	}

	details, err := s.cards.Details(r.Context(), email, cardID, token)
	if err != nil {
		s.renderErr(w, err)
		return
	}

	renderJSON(w, http.StatusOK, details)
}

func (s *Server) email(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := r.Header.Get("X-User-Email")
	if email == "" {
		renderError(w, http.StatusUnauthorized, "X-User-Email header is required")
		return "", false
	}

	return email, true
}

// requireCompleted gates card operations on a finished onboarding.
func (s *Server) requireCompleted(w http.ResponseWriter, r *http.Request, email string) bool {
	flow, err := s.onboarding.Resume(r.Context(), email)
	if err != nil {
		s.renderErr(w, err)
		return false
	}

	if flow.Step != core.StepCompleted {
		renderError(w, http.StatusForbidden, "onboarding is not completed")
		return false
	}

	return true
}

func (s *Server) renderErr(w http.ResponseWriter, err error) {
	var (
		apiErr  *core.APIError
		authErr *core.AuthError
	)

	switch {
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		renderError(w, status, apiErr.Body)
	case errors.As(err, &authErr):
		s.logger.Error("upstream auth failed", "err", err)
		renderError(w, http.StatusBadGateway, "upstream authentication failed")
	default:
		s.logger.Error("request failed", "err", err)
		renderError(w, http.StatusInternalServerError, "internal error")
	}
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func renderError(w http.ResponseWriter, status int, msg string) {
	renderJSON(w, status, map[string]any{"error": msg})
}
