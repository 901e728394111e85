package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/Jenil-Kakadiya/ScanNGo/internal/helpers"
	"github.com/Jenil-Kakadiya/ScanNGo/internal/middleware"
)

const (
	googleAuthorizeEndpoint = "https://accounts.google.com/o/oauth2/auth"
	googleTokenEndpoint     = "https://oauth2.googleapis.com/token"
	googleUserInfoAPI       = "https://www.googleapis.com/oauth2/v2/userinfo"
)

func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes:       []string{"profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthorizeEndpoint,
			TokenURL: googleTokenEndpoint,
		},
	}
}

func GoogleLogin(c *gin.Context) {
	url := googleOAuthConfig().AuthCodeURL("state", oauth2.AccessTypeOnline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback exchanges the authorization code, upserts the user by
// verified email, and hands the frontend a session token via redirect.
func GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Authorization code not found.")
		return
	}

	oauthConfig := googleOAuthConfig()
	oauthToken, err := oauthConfig.Exchange(c.Request.Context(), code)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to exchange token.")
		return
	}

	client := oauthConfig.Client(c.Request.Context(), oauthToken)
	resp, err := client.Get(googleUserInfoAPI)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to get user info.")
		return
	}
	defer resp.Body.Close()

	var googleUser struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to decode user info.")
		return
	}
	if googleUser.Email == "" {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Google account has no verified email.")
		return
	}

	gormDB := middleware.GetDB(c)
	if gormDB == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	user, err := findOrCreateOAuthUser(gormDB, googleUser.Email, googleUser.Name)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to save user.")
		return
	}

	sessionToken, err := issueSessionToken(user)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token.")
		return
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	c.Redirect(http.StatusTemporaryRedirect,
		fmt.Sprintf("%s?token=%s", frontendURL, url.QueryEscape(sessionToken)))
}
