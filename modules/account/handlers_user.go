package account

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acmeworks/identity/handler"
	"github.com/acmeworks/identity/pkg/auth"
	"github.com/acmeworks/identity/pkg/file"
	"github.com/acmeworks/identity/pkg/logger"
	"github.com/acmeworks/identity/pkg/validator"
)

type updateProfileRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
}

type setPasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type linkRequest struct {
	Provider string `json:"-" path:"provider"`
	IDToken  string `json:"idToken"`
	Code     string `json:"code"`
}

type unlinkRequest struct {
	Provider string `path:"provider"`
}

type uploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type linkedAccount struct {
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *handlers) me(ctx handler.Context, _ struct{}) handler.Response {
	id, err := IdentityID(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	identity, err := h.auth.Me(ctx, id)
	if err != nil {
		return handler.Fail(mapError(err))
	}
	return handler.JSON(identity)
}

func (h *handlers) updateProfile(ctx handler.Context, req updateProfileRequest) handler.Response {
	id, err := IdentityID(ctx)
	if err != nil {
		return handler.Fail(err)
	}

	if req.AvatarURL != nil && *req.AvatarURL != "" && h.avatars != nil {
		if err := h.checkAvatar(ctx, id, *req.AvatarURL); err != nil {
			return handler.Fail(err)
		}
	}

	identity, err := h.auth.UpdateProfile(ctx, id, auth.ProfileInput{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return handler.Fail(mapError(err))
	}
	return handler.JSON(identity)
}

// checkAvatar accepts an uploaded object under the caller's prefix, or the
// avatar the identity already has (a provider picture set at sign-up).
func (h *handlers) checkAvatar(ctx handler.Context, id uuid.UUID, avatarURL string) error {
	key, ok := h.avatars.KeyFromURL(avatarURL)
	if !ok {
		current, err := h.auth.Me(ctx, id)
		if err != nil {
			return mapError(err)
		}
		if current.AvatarURL == avatarURL {
			return nil
		}
		return errAvatarOutsideBucket
	}

	if !strings.HasPrefix(key, file.AvatarPrefix(id)) {
		return errForeignAvatar
	}
	exists, err := h.avatars.Exists(ctx, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check avatar object",
			logger.UserID(id),
			logger.Error(err),
		)
		return err
	}
	if !exists {
		return errAvatarMissing
	}
	return nil
}

func (h *handlers) setPassword(ctx handler.Context, req setPasswordRequest) handler.Response {
	id, err := IdentityID(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if err := h.auth.SetPassword(ctx, id, req.CurrentPassword, req.NewPassword); err != nil {
		return handler.Fail(mapError(err))
	}
	return handler.JSON(nil)
}

func (h *handlers) linkedAccounts(ctx handler.Context, _ struct{}) handler.Response {
	id, err := IdentityID(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	links, err := h.auth.LinkedAccounts(ctx, id)
	if err != nil {
		return handler.Fail(mapError(err))
	}
	out := make([]linkedAccount, 0, len(links))
	for _, l := range links {
		out = append(out, linkedAccount{Provider: l.Provider, CreatedAt: l.CreatedAt})
	}
	return handler.JSON(out)
}

func (h *handlers) linkAccount(ctx handler.Context, req linkRequest) handler.Response {
	id, err := IdentityID(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	err = h.auth.LinkAccount(ctx, id, req.Provider, auth.Assertion{IDToken: req.IDToken, Code: req.Code})
	if err != nil {
		return handler.Fail(mapError(err))
	}
	return handler.JSON(nil)
}

func (h *handlers) unlinkAccount(ctx handler.Context, req unlinkRequest) handler.Response {
	id, err := IdentityID(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if err := h.auth.UnlinkAccount(ctx, id, req.Provider); err != nil {
		return handler.Fail(mapError(err))
	}
	return handler.JSON(nil)
}

func (h *handlers) avatarUploadURL(ctx handler.Context, req uploadURLRequest) handler.Response {
	id, err := IdentityID(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if err := validator.Apply(
		validator.RequiredString("filename", req.Filename),
		validator.RequiredString("contentType", req.ContentType),
	); err != nil {
		return handler.Fail(err)
	}

	upload, err := h.avatars.PresignUpload(ctx, file.AvatarKey(id, req.Filename), req.ContentType, req.Size)
	if err != nil {
		mapped := mapError(err)
		if !errors.Is(mapped, errInvalidUpload) {
			h.logger.ErrorContext(ctx, "failed to presign avatar upload",
				logger.UserID(id),
				logger.Error(err),
			)
		}
		return handler.Fail(mapped)
	}
	return handler.JSON(upload, handler.WithJSONStatus(http.StatusCreated))
}
