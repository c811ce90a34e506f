package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/service"
)

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      db.User   `json:"user"`
}

// Register creates an account and signs the new user in.
func (a *API) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}

	user, err := a.users.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	a.signIn(c, http.StatusCreated, user)
}

// Login checks credentials and returns a bearer token; it also starts a cookie session.
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	a.signIn(c, http.StatusOK, user)
}

// Logout clears the cookie session. Bearer tokens simply expire.
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to clear session")
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the signed-in user.
func (a *API) Me(c *gin.Context) {
	actor, _ := currentActor(c)
	user, err := a.users.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (a *API) signIn(c *gin.Context, status int, user *db.User) {
	token, err := a.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(status, authResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(a.tokens.TTL()).UTC(),
		User:      *user,
	})
}
