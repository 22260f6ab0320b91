package echoapi

import (
	"github.com/Petersomond1/ikoota-sub000/core"
	"github.com/Petersomond1/ikoota-sub000/core/member"
	"github.com/Petersomond1/ikoota-sub000/core/user"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []int `query:"id"`
	}

	RouteCheckResponse struct {
		Status     member.CanonicalStatus `json:"status"`
		Render     bool                   `json:"render"`
		RedirectTo string                 `json:"redirect_to,omitempty"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.Validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}
