package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"authgate/internal/oauth"
	"authgate/internal/service"
)

// AuthHandler expone registro, login, reseteo de contraseña y login federado.
type AuthHandler struct {
	logger        *zap.Logger
	registrations *service.RegistrationService
	sessions      *service.SessionService
	resets        *service.PasswordResetService
	federated     *service.FederatedService
}

func NewAuthHandler(
	logger *zap.Logger,
	registrations *service.RegistrationService,
	sessions *service.SessionService,
	resets *service.PasswordResetService,
	federated *service.FederatedService,
) *AuthHandler {
	return &AuthHandler{
		logger:        logger,
		registrations: registrations,
		sessions:      sessions,
		resets:        resets,
		federated:     federated,
	}
}

// Register maneja POST /api/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegistrationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
		return
	}

	err := h.registrations.StartRegistration(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationMessage(err)})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is taken"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
		default:
			h.logger.Error("start registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email has been sent to " + service.NormalizeEmail(req.Email)})
}

// Activate maneja POST /api/activation.
func (h *AuthHandler) Activate(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is missing"})
		return
	}

	_, err := h.registrations.CompleteRegistration(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenMissing):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Token is missing"})
		case errors.Is(err, service.ErrExpiredOrInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Expired link. Signup again"})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is taken"})
		default:
			h.logger.Error("complete registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not activate account"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Signup success"})
}

// Login maneja POST /api/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password do not match or user does not exist"})
			return
		}
		h.logger.Error("sign in failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// ForgotPassword maneja PUT /api/forgotpassword.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
		return
	}

	err := h.resets.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationMessage(err)})
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with that email does not exist"})
		case errors.Is(err, service.ErrEmailSendFailure):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
		default:
			h.logger.Error("request reset failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Something went wrong. Try again."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email has been sent to " + service.NormalizeEmail(req.Email)})
}

// ResetPassword maneja PUT /api/resetpassword.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		ResetPasswordLink string `json:"resetPasswordLink"`
		NewPassword       string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
		return
	}

	err := h.resets.CompleteReset(c.Request.Context(), req.ResetPasswordLink, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationMessage(err)})
		case errors.Is(err, service.ErrExpiredOrInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Expired or invalid link. Try again."})
		default:
			h.logger.Error("complete reset failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Expired or invalid link. Try again."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset success! You can now login."})
}

// GoogleLogin maneja POST /api/googlelogin.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google login failed. Try again"})
		return
	}
	h.federatedLogin(c, oauth.ProviderGoogle, oauth.Credential{Token: req.IDToken}, "Google login failed. Try again")
}

// FacebookLogin maneja POST /api/facebooklogin.
func (h *AuthHandler) FacebookLogin(c *gin.Context) {
	var req struct {
		UserID      string `json:"userID"`
		AccessToken string `json:"accessToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Facebook login failed. Try later"})
		return
	}
	h.federatedLogin(c, oauth.ProviderFacebook, oauth.Credential{Token: req.AccessToken, UserID: req.UserID}, "Facebook login failed. Try later")
}

func (h *AuthHandler) federatedLogin(c *gin.Context, provider string, cred oauth.Credential, failureMsg string) {
	session, err := h.federated.SignInWithAssertion(c.Request.Context(), provider, cred)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssertionVerification),
			errors.Is(err, service.ErrUnverifiedAssertion),
			errors.Is(err, service.ErrProviderNotSupported),
			errors.Is(err, service.ErrEmailTaken):
			h.logger.Info("federated login rejected", zap.String("provider", provider), zap.Error(err))
		default:
			h.logger.Error("federated login failed", zap.String("provider", provider), zap.Error(err))
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": failureMsg})
		return
	}
	c.JSON(http.StatusOK, session)
}

// validationMessage deja solo el mensaje del campo, sin el prefijo del sentinel.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	if msg == "" {
		return service.ErrValidation.Error()
	}
	return msg
}
