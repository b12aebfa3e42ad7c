package handlers

import (
	"net/http"
	"strings"

	"ims_backend/internal/middleware"
	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login handles the form login, where username carries the phone number.
func (h *AuthHandler) Login(c *gin.Context) {
	phone := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if phone == "" || password == "" {
		utils.RespondValidationFailed(c, "username and password are required")
		return
	}
	h.login(c, phone, password)
}

// LoginJSON handles login with a JSON body.
func (h *AuthHandler) LoginJSON(c *gin.Context) {
	var req models.Credentials
	if !bindJSON(c, &req, "LoginJSON") {
		return
	}
	h.login(c, strings.TrimSpace(req.Phone), req.Password)
}

func (h *AuthHandler) login(c *gin.Context, phone, password string) {
	token, err := h.authService.Login(phone, password)
	if err != nil {
		respondServiceError(c, err, "Login: Error from authService.Login")
		return
	}
	c.JSON(http.StatusOK, token)
}

// Me returns the authenticated employee.
func (h *AuthHandler) Me(c *gin.Context) {
	employee, ok := c.Get(middleware.ContextEmployee)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated", "Missing employee in context"))
		return
	}
	c.JSON(http.StatusOK, employee)
}
