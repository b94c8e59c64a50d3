package account

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/acmeworks/identity/handler"
	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/logger"
	"github.com/acmeworks/identity/pkg/session"
)

type handlers struct {
	auth      AuthService
	avatars   AvatarStorage
	transport session.Transport
	logger    *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type oauthRequest struct {
	Provider string `json:"-" path:"provider"`
	IDToken  string `json:"idToken"`
	Code     string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *handlers) providers(_ handler.Context, _ struct{}) handler.Response {
	names := h.auth.Providers()
	slices.Sort(names)
	return handler.JSON(map[string][]string{"providers": names})
}

func (h *handlers) login(ctx handler.Context, req loginRequest) handler.Response {
	res, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return handler.Fail(mapError(err))
	}
	h.storeRefreshToken(ctx, res)
	return handler.JSON(res)
}

func (h *handlers) register(ctx handler.Context, req registerRequest) handler.Response {
	identity, err := h.auth.Register(ctx, auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return handler.Fail(mapError(err))
	}
	return handler.JSON(identity, handler.WithJSONStatus(http.StatusCreated))
}

func (h *handlers) logout(ctx handler.Context, req refreshRequest) handler.Response {
	h.auth.Logout(ctx, h.refreshToken(ctx, req.RefreshToken))
	h.clearRefreshToken(ctx)
	return handler.JSON(nil)
}

func (h *handlers) refresh(ctx handler.Context, req refreshRequest) handler.Response {
	res, err := h.auth.Refresh(ctx, h.refreshToken(ctx, req.RefreshToken))
	if err != nil {
		h.clearRefreshToken(ctx)
		return handler.Fail(mapError(err))
	}
	h.storeRefreshToken(ctx, res)
	return handler.JSON(res)
}

func (h *handlers) oauthLogin(ctx handler.Context, req oauthRequest) handler.Response {
	res, err := h.auth.OAuthLogin(ctx, req.Provider, auth.Assertion{IDToken: req.IDToken, Code: req.Code})
	if err != nil {
		return handler.Fail(mapError(err))
	}
	h.storeRefreshToken(ctx, res)
	return handler.JSON(res)
}

func (h *handlers) forgotPassword(ctx handler.Context, req emailRequest) handler.Response {
	if err := h.auth.ForgotPassword(ctx, req.Email); err != nil {
		return handler.Fail(mapError(err))
	}
	return handler.JSON(nil, handler.WithJSONStatus(http.StatusAccepted))
}

func (h *handlers) resendVerification(ctx handler.Context, req emailRequest) handler.Response {
	if err := h.auth.ResendVerification(ctx, req.Email); err != nil {
		return handler.Fail(mapError(err))
	}
	return handler.JSON(nil, handler.WithJSONStatus(http.StatusAccepted))
}

func (h *handlers) resetPassword(ctx handler.Context, req resetPasswordRequest) handler.Response {
	if err := h.auth.ResetPassword(ctx, req.Token, req.Password); err != nil {
		return handler.Fail(mapError(err))
	}
	return handler.JSON(nil)
}

func (h *handlers) verifyEmail(ctx handler.Context, req tokenRequest) handler.Response {
	if err := h.auth.VerifyEmail(ctx, req.Token); err != nil {
		return handler.Fail(mapError(err))
	}
	return handler.JSON(nil)
}

// refreshToken prefers the body and falls back to the transport.
func (h *handlers) refreshToken(ctx handler.Context, fromBody string) string {
	if fromBody != "" || h.transport == nil {
		return fromBody
	}
	token, err := h.transport.GetToken(ctx.Request())
	if err != nil {
		return ""
	}
	return token
}

func (h *handlers) storeRefreshToken(ctx handler.Context, res *auth.AuthResult) {
	if h.transport == nil {
		return
	}
	if err := h.transport.SetToken(ctx.ResponseWriter(), res.RefreshToken, res.RefreshExpiresAt); err != nil {
		h.logger.WarnContext(ctx, "failed to store refresh token",
			logger.UserID(res.Identity.ID),
			logger.Error(err),
		)
	}
}

func (h *handlers) clearRefreshToken(ctx handler.Context) {
	if h.transport == nil {
		return
	}
	if err := h.transport.ClearToken(ctx.ResponseWriter()); err != nil {
		h.logger.WarnContext(ctx, "failed to clear refresh token", logger.Error(err))
	}
}
