package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/conny0506/jira-lite/internal/domain"
	"github.com/conny0506/jira-lite/internal/http/middleware"
	"github.com/conny0506/jira-lite/internal/http/response"
	"github.com/conny0506/jira-lite/internal/observability"
	"github.com/conny0506/jira-lite/internal/service"
)

type AuthHandler struct {
	auth    *service.AuthService
	cookies CookieSettings
}

func NewAuthHandler(auth *service.AuthService, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

type memberView struct {
	ID    uint        `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

type tokenView struct {
	AccessToken          string     `json:"accessToken"`
	AccessTokenExpiresAt time.Time  `json:"accessTokenExpiresAt"`
	User                 memberView `json:"user"`
}

func newMemberView(m *domain.Member) memberView {
	return memberView{ID: m.ID, Email: m.Email, Name: m.Name, Role: m.Role}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password, clientMeta(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}

	observability.Audit(r, "auth.login", "member_id", result.Member.ID)
	h.cookies.set(w, result.RefreshToken)
	response.JSON(w, r, http.StatusOK, tokenView{
		AccessToken:          result.AccessToken,
		AccessTokenExpiresAt: result.AccessTokenExpiresAt,
		User:                 newMemberView(result.Member),
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
		return
	}
	memberID, err := claims.MemberID()
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
		return
	}
	member, err := h.auth.Member(r.Context(), memberID)
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, newMemberView(member))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.auth.Refresh(r.Context(), h.refreshTokenFromRequest(r), clientMeta(r))
	if err != nil {
		response.ServiceError(w, r, err)
		return
	}

	h.cookies.set(w, result.RefreshToken)
	response.JSON(w, r, http.StatusOK, tokenView{
		AccessToken:          result.AccessToken,
		AccessTokenExpiresAt: result.AccessTokenExpiresAt,
		User:                 newMemberView(result.Member),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), h.refreshTokenFromRequest(r)); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.logout")
	h.cookies.clear(w)
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	// Identical response whether or not the account exists.
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.reset_password")
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
		return
	}
	memberID, err := claims.MemberID()
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed request body", nil)
		return
	}
	if err := h.auth.ChangePassword(r.Context(), memberID, req.CurrentPassword, req.NewPassword); err != nil {
		response.ServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.change_password", "member_id", memberID)
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// refreshTokenFromRequest prefers the HTTP-only cookie; the JSON body field
// is the fallback for non-browser clients.
func (h *AuthHandler) refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

func clientMeta(r *http.Request) service.ClientMeta {
	return service.ClientMeta{IP: r.RemoteAddr, UserAgent: r.UserAgent()}
}
