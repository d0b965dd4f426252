package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"warden/cmd/identity"
	"warden/cmd/internal/auth/account"
	"warden/cmd/internal/auth/session"
	"warden/cmd/internal/auth/verify"
	"warden/cmd/internal/clock"
)

// Handler wires HTTP auth endpoints to the account manager.
type Handler struct {
	log *slog.Logger
	cfg Config

	accounts *account.Manager
	codec    session.Codec
	clock    clock.Clock
	sender   CodeSender
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithCodeSender overrides the default logging code sender.
func WithCodeSender(sender CodeSender) HandlerOption {
	return func(h *Handler) {
		if h == nil || sender == nil {
			return
		}
		h.sender = sender
	}
}

// WithClock overrides the clock used to open session cookies.
func WithClock(c clock.Clock) HandlerOption {
	return func(h *Handler) {
		if h == nil || c == nil {
			return
		}
		h.clock = c
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, accounts *account.Manager, codec session.Codec, opts ...HandlerOption) (*Handler, error) {
	if accounts == nil {
		return nil, errors.New("auth: nil account manager")
	}
	if codec == nil {
		return nil, errors.New("auth: nil session codec")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:      log,
		cfg:      cfg.normalized(),
		accounts: accounts,
		codec:    codec,
		clock:    clock.System{},
		sender:   LogCodeSender{Log: log},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/auth/logout_all", h.handleLogoutAll)
	mux.HandleFunc("/auth/password/change", h.handleChangePassword)
	mux.HandleFunc("/auth/password/forgot", h.handleForgotPassword)
	mux.HandleFunc("/auth/password/reset", h.handleResetPassword)
	mux.HandleFunc("/auth/email/confirm/request", h.handleEmailConfirmRequest)
	mux.HandleFunc("/auth/email/confirm", h.handleEmailConfirm)
	mux.HandleFunc("/auth/account/delete", h.handleDeleteAccount)
	mux.HandleFunc("/me", h.handleMe)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()
	res, err := h.accounts.Register(ctx, req.Email, req.Password)
	if err != nil {
		h.internalError(w, "auth.register.fail", err)
		return
	}
	if !res.Succeeded() {
		h.audit(ctx, r, "auth.register.failed", "", slog.String("reason", string(res.Failure.Code)))
		writeFailure(w, res.Failure)
		return
	}

	h.audit(ctx, r, "auth.register.success", res.User.Key)
	h.sendEmailConfirmation(ctx, res.User.Key)

	writeJSON(w, http.StatusCreated, userEnvelope{User: toUserResponse(res.User)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()
	tr := h.loginTransport(w, r)
	res, err := h.accounts.Login(ctx, tr, req.Email, req.Password, req.RememberMe)
	if err != nil {
		h.internalError(w, "auth.login.fail", err)
		return
	}
	if !res.Succeeded() {
		h.audit(ctx, r, "auth.login.failed", "", slog.String("reason", string(res.Failure.Code)))
		writeFailure(w, res.Failure)
		return
	}

	h.audit(ctx, r, "auth.login.success", res.User.Key)
	writeJSON(w, http.StatusOK, loginResponse{User: toUserResponse(res.User), CSRFToken: tr.csrf})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) || !h.requireCSRF(w, r) {
		return
	}

	if err := h.accounts.Logout(r.Context(), h.transport(w, r)); err != nil {
		h.internalError(w, "auth.logout.fail", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) || !h.requireCSRF(w, r) {
		return
	}

	ctx := r.Context()
	res, err := h.accounts.LogoutEverywhere(ctx, h.transport(w, r))
	if err != nil {
		h.internalError(w, "auth.logout_all.fail", err)
		return
	}
	if !res.Succeeded() {
		writeFailure(w, res.Failure)
		return
	}

	h.audit(ctx, r, "auth.logout_all", res.User.Key)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	u, ok, err := h.accounts.CurrentUser(r.Context(), h.transport(w, r))
	if err != nil {
		h.internalError(w, "auth.me.fail", err)
		return
	}
	if !ok {
		writeFailure(w, identity.Fail(identity.FailureNotAuthenticated))
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(u)})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) || !h.requireCSRF(w, r) {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()
	res, err := h.accounts.ChangePassword(ctx, h.transport(w, r), req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.internalError(w, "auth.password.change.fail", err)
		return
	}
	if !res.Succeeded() {
		writeFailure(w, res.Failure)
		return
	}

	h.audit(ctx, r, "auth.password.changed", res.User.Key)
	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(res.User)})
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req forgotPasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()
	issued, err := h.accounts.IssuePasswordReset(ctx, req.Email)
	if err != nil {
		h.internalError(w, "auth.password.forgot.fail", err)
		return
	}
	// Same response whether or not the account exists.
	if issued != nil {
		h.deliver(ctx, issued)
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	code, err := verify.ParseCode(req.Code)
	if err != nil {
		writeFailure(w, identity.Fail(identity.FailureInvalidCode))
		return
	}

	ctx := r.Context()
	res, err := h.accounts.ResetPassword(ctx, req.Email, code, req.NewPassword)
	if err != nil {
		h.internalError(w, "auth.password.reset.fail", err)
		return
	}
	if !res.Succeeded() {
		h.audit(ctx, r, "auth.password.reset.failed", "", slog.String("reason", string(res.Failure.Code)))
		writeFailure(w, res.Failure)
		return
	}

	h.audit(ctx, r, "auth.password.reset", res.User.Key)
	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(res.User)})
}

func (h *Handler) handleEmailConfirmRequest(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) || !h.requireCSRF(w, r) {
		return
	}

	ctx := r.Context()
	u, ok, err := h.accounts.CurrentUser(ctx, h.transport(w, r))
	if err != nil {
		h.internalError(w, "auth.email.confirm_request.fail", err)
		return
	}
	if !ok {
		writeFailure(w, identity.Fail(identity.FailureNotAuthenticated))
		return
	}

	if !u.EmailConfirmed {
		h.sendEmailConfirmation(ctx, u.Key)
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleEmailConfirm(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) || !h.requireCSRF(w, r) {
		return
	}

	var req confirmEmailRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()
	u, ok, err := h.accounts.CurrentUser(ctx, h.transport(w, r))
	if err != nil {
		h.internalError(w, "auth.email.confirm.fail", err)
		return
	}
	if !ok {
		writeFailure(w, identity.Fail(identity.FailureNotAuthenticated))
		return
	}

	code, err := verify.ParseCode(req.Code)
	if err != nil {
		writeFailure(w, identity.Fail(identity.FailureInvalidCode))
		return
	}

	res, err := h.accounts.ConfirmEmail(ctx, u.Key, code)
	if err != nil {
		h.internalError(w, "auth.email.confirm.fail", err)
		return
	}
	if !res.Succeeded() {
		writeFailure(w, res.Failure)
		return
	}

	h.audit(ctx, r, "auth.email.confirmed", res.User.Key)
	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(res.User)})
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) || !h.requireCSRF(w, r) {
		return
	}

	var req deleteAccountRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	ctx := r.Context()
	res, err := h.accounts.DeleteAccount(ctx, h.transport(w, r), req.Password)
	if err != nil {
		h.internalError(w, "auth.account.delete.fail", err)
		return
	}
	if !res.Succeeded() {
		writeFailure(w, res.Failure)
		return
	}

	h.audit(ctx, r, "auth.account.deleted", res.User.Key)
	w.WriteHeader(http.StatusNoContent)
}

// ---- helpers ----

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (h *Handler) requireCSRF(w http.ResponseWriter, r *http.Request) bool {
	if h.csrfDoubleSubmitValid(r) {
		return true
	}
	writeError(w, http.StatusForbidden, "csrf_invalid", "missing or invalid csrf token")
	return false
}

func (h *Handler) internalError(w http.ResponseWriter, event string, err error) {
	if identity.IsInvalidInput(err) {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request")
		return
	}
	h.log.Error(event, "err", err)
	writeError(w, http.StatusInternalServerError, "server_error", "internal error")
}

func (h *Handler) sendEmailConfirmation(ctx context.Context, userKey string) {
	issued, err := h.accounts.IssueEmailConfirmation(ctx, userKey)
	if err != nil {
		h.log.Error("auth.email.confirm_issue.fail", "err", err, "user_key", userKey)
		return
	}
	h.deliver(ctx, issued)
}

func (h *Handler) deliver(ctx context.Context, issued *account.Issued) {
	if err := h.sender.SendCode(ctx, CodeMessage{
		UserKey: issued.User.Key,
		Email:   issued.User.Email,
		Purpose: issued.Purpose,
		Code:    issued.Code.String(),
	}); err != nil {
		h.log.Error("auth.code.send.fail", "err", err, "user_key", issued.User.Key, "purpose", string(issued.Purpose))
	}
}
