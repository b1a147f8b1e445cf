package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"perchstats/api/models"
	"perchstats/api/store"
	"perchstats/api/utils"
)

type AuthHandlers struct {
	OrgStore *store.OrgStore
}

func NewAuthHandlers(orgStore *store.OrgStore) *AuthHandlers {
	return &AuthHandlers{OrgStore: orgStore}
}

// Login authenticates an organization's dashboard account and issues a
// session token. Organizations are provisioned out of band; there is no
// self-serve signup.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	org, err := h.OrgStore.GetOrganizationByEmail(c.Request.Context(), req.Email)
	if err != nil {
		log.Printf("Login failed for email %s: %v", req.Email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(org.HashedPassword, []byte(req.Password)); err != nil {
		log.Printf("Login failed for email %s: password mismatch", req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, err := utils.GenerateSessionJWT(org)
	if err != nil {
		log.Printf("ERROR: Failed to generate session token for org %d: %v", org.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}

	c.SetCookie(
		"session_token",
		tokenString,
		int(24*time.Hour/time.Second),
		"/",
		"",
		false,
		true,
	)

	log.Printf("Organization logged in: ID=%d, Email=%s", org.ID, org.Email)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"org_email": org.Email,
	})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie(
		"session_token",
		"",
		-1,
		"/",
		"",
		false,
		true,
	)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
