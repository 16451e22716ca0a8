package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marketpulse/backend/middlewares"
	"github.com/marketpulse/backend/models"
	"github.com/marketpulse/backend/services"
)

type AuthController struct {
	users *services.UserService
}

func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{users: users}
}

// userResponse always reports "password": null.
type userResponse struct {
	ID        uint     `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Password  *string  `json:"password"`
	Watchlist []string `json:"watchlist"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Watchlist: u.SortedWatchlist(),
	}
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        userResponse `json:"user"`
}

func newAuthResponse(res *services.AuthResult) authResponse {
	return authResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		ExpiresAt:   res.ExpiresAt.UTC(),
		User:        newUserResponse(res.User),
	}
}

type watchlistResponse struct {
	Message   string   `json:"message"`
	Watchlist []string `json:"watchlist"`
}

func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.users.Register(c.Request.Context(), services.RegisterInput{
		Email:    input.Email,
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := ac.users.IssueToken(user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAuthResponse(res))
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := ac.users.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAuthResponse(res))
}

func (ac *AuthController) GetProfile(c *gin.Context) {
	user, err := ac.users.GetProfile(c.Request.Context(), middlewares.CurrentEmail(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (ac *AuthController) UpdateProfile(c *gin.Context) {
	var input struct {
		Username *string `json:"username"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.users.UpdateProfile(c.Request.Context(), middlewares.CurrentEmail(c), services.ProfilePatch{
		Username: input.Username,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (ac *AuthController) GetWatchlist(c *gin.Context) {
	watchlist, err := ac.users.GetWatchlist(c.Request.Context(), middlewares.CurrentEmail(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, watchlist)
}

func (ac *AuthController) AddToWatchlist(c *gin.Context) {
	var input struct {
		Symbol string `json:"symbol" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	watchlist, err := ac.users.AddToWatchlist(c.Request.Context(), middlewares.CurrentEmail(c), input.Symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, watchlistResponse{Message: "Added to watchlist", Watchlist: watchlist})
}

func (ac *AuthController) RemoveFromWatchlist(c *gin.Context) {
	watchlist, err := ac.users.RemoveFromWatchlist(c.Request.Context(), middlewares.CurrentEmail(c), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, watchlistResponse{Message: "Removed from watchlist", Watchlist: watchlist})
}
