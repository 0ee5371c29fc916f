package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/plugfox/helpdesk-server/api"
	"github.com/plugfox/helpdesk-server/internal/auth"
	"github.com/plugfox/helpdesk-server/internal/captcha"
	"github.com/plugfox/helpdesk-server/internal/converters"
	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/model"
	"github.com/plugfox/helpdesk-server/internal/support"
)

const maxBodySize = 1 << 20

type handlers struct {
	svc     *support.Service
	captcha *captcha.Local
	logger  *slog.Logger
	now     func() time.Time
}

// fail writes the error envelope. Internal errors are logged and never
// shown to the client.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	api.NewResponse().SetError(apperr.PublicMessage(err)).Send(w, status)
}

// decode reads the JSON body into v, a malformed body is a validation error.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid JSON body")
	}
	return nil
}

func caller(r *http.Request) *auth.Identity {
	identity, _ := auth.FromContext(r.Context())
	return identity
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// Auth

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	Email         string `json:"email"`
	Station       string `json:"station"`
	CaptchaToken  string `json:"captcha_token"`
	CaptchaAnswer string `json:"captcha_input"`
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.svc.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	api.NewResponse().
		Set("user", converters.ProfileToAPI(session.User)).
		Set("token", session.Token).
		Ok(w)
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.svc.Users.Register(r.Context(), support.Registration{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Station:  req.Station,
		Captcha:  captcha.Proof{Token: req.CaptchaToken, Answer: req.CaptchaAnswer},
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	api.NewResponse().
		Set("user", converters.ProfileToAPI(session.User)).
		Set("token", session.Token).
		Created(w)
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Users.Profile(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().Set("user", converters.ProfileToAPI(user)).Ok(w)
}

// Captcha

type verifyCaptchaRequest struct {
	SessionToken string `json:"session_token"`
	Answer       string `json:"captcha_input"`
}

func (h *handlers) issueCaptcha(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.captcha.Issue(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	imageURL := "/captcha/" + challenge.Token + "/image"
	api.NewResponse().Set("captcha", converters.ChallengeToAPI(challenge, imageURL, h.now())).Ok(w)
}

func (h *handlers) verifyCaptcha(w http.ResponseWriter, r *http.Request) {
	var req verifyCaptchaRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.SessionToken) == "" || strings.TrimSpace(req.Answer) == "" {
		h.fail(w, r, apperr.Validation("session_token and captcha_input are required"))
		return
	}

	if err := h.captcha.Check(r.Context(), captcha.Proof{Token: req.SessionToken, Answer: req.Answer}); err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().Set("valid", true).Ok(w)
}

func (h *handlers) captchaImage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.captcha.Image(r.Context(), chi.URLParam(r, "token"), &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Tickets

type createTicketRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

type updateTicketRequest struct {
	TicketID    int64  `json:"ticket_id"`
	Status      string `json:"status"`
	ModeratorID *int64 `json:"moderator_id"`
}

type rateTicketRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *handlers) listTickets(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Tickets.List(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().Set("tickets", converters.TicketRowsToAPI(rows)).Ok(w)
}

func (h *handlers) createTicket(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ticket, err := h.svc.Tickets.Create(r.Context(), caller(r), support.NewTicket{
		Title:    req.Title,
		Category: req.Category,
		Priority: model.TicketPriority(strings.TrimSpace(req.Priority)),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().Set("ticket", converters.TicketToAPI(ticket)).Created(w)
}

func (h *handlers) updateTicket(w http.ResponseWriter, r *http.Request) {
	var req updateTicketRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	update := support.StatusUpdate{
		TicketID: model.TicketID(req.TicketID),
		Status:   model.TicketStatus(strings.TrimSpace(req.Status)),
	}
	if req.ModeratorID != nil {
		moderatorID := model.UserID(*req.ModeratorID)
		update.ModeratorID = &moderatorID
	}

	ticket, err := h.svc.Tickets.UpdateStatus(r.Context(), caller(r), update)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().
		Set("message", "Ticket updated").
		Set("ticket", converters.TicketToAPI(ticket)).
		Ok(w)
}

func (h *handlers) rateTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseID(chi.URLParam(r, "ticketID"), "ticket id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req rateTicketRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	rating, err := h.svc.Tickets.Rate(r.Context(), caller(r), support.Rating{
		TicketID: model.TicketID(ticketID),
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().Set("rating", converters.RatingToAPI(rating)).Created(w)
}

// Messages

type sendMessageRequest struct {
	TicketID      int64  `json:"ticket_id"`
	Content       string `json:"content"`
	MessageType   string `json:"message_type"`
	AttachmentURL string `json:"attachment_url"`
}

func (h *handlers) listMessages(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ticket_id")
	if raw == "" {
		h.fail(w, r, apperr.Validation("ticket_id is required"))
		return
	}
	ticketID, err := parseID(raw, "ticket_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	messages, err := h.svc.Messages.List(r.Context(), caller(r), model.TicketID(ticketID))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().Set("messages", converters.MessagesToAPI(messages)).Ok(w)
}

func (h *handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	msg, err := h.svc.Messages.Send(r.Context(), caller(r), support.NewMessage{
		TicketID:      model.TicketID(req.TicketID),
		Content:       req.Content,
		MessageType:   req.MessageType,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().Set("message", converters.MessageToAPI(msg)).Created(w)
}

// Moderation

type reportRequest struct {
	MessageID   int64  `json:"message_id"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

func (h *handlers) reportMessage(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	outcome, err := h.svc.Moderation.Report(r.Context(), caller(r), support.NewReport{
		MessageID:   model.MessageID(req.MessageID),
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result := converters.ReportOutcomeToAPI(outcome)
	api.NewResponse().
		Set("report_id", result.ReportID).
		Set("reported_user_id", result.ReportedUserID).
		Set("warning_count", result.WarningCount).
		Set("user_banned", result.UserBanned).
		Set("ban_triggered", result.BanTriggered).
		Created(w)
}

func (h *handlers) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.svc.Moderation.ListReports(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().Set("reports", converters.ReportsToAPI(reports)).Ok(w)
}

// Statistics

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	var moderatorID *model.UserID
	if raw := r.URL.Query().Get("moderator_id"); raw != "" {
		id, err := parseID(raw, "moderator_id")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		typed := model.UserID(id)
		moderatorID = &typed
	}

	dashboard, err := h.svc.Stats.Dashboard(r.Context(), caller(r), moderatorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.NewResponse().
		Set("stats", converters.ModeratorStatsToAPI(dashboard.Moderator)).
		Set("top_moderators", converters.TopModeratorsToAPI(dashboard.Top)).
		Set("system_stats", converters.SystemOverviewToAPI(dashboard.System)).
		Ok(w)
}
