package controller

import (
	"os"
	"strconv"
	"time"

	"mlboard/repository"
	"mlboard/service"
	"mlboard/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserController struct {
	userService *service.UserService
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{
		userService: service.NewUserService(db),
	}
}

func setupUserController(db *gorm.DB) []RouteInfo {
	e := NewUserController(db)
	basePath := "/users"
	routes := []RouteInfo{
		{Method: "POST", Path: "/register", HandlerFunc: e.registerHandler()},
		{Method: "POST", Path: "/login", HandlerFunc: e.loginHandler()},
		{Method: "POST", Path: "/logout", HandlerFunc: e.logoutHandler()},
		{Method: "GET", Path: "/self", HandlerFunc: e.getSelfHandler(), Authenticated: true},
		{Method: "GET", Path: "/top", HandlerFunc: e.getTopRatedHandler()},
		{Method: "GET", Path: "/:user_id", HandlerFunc: e.getUserByIdHandler()},
		{Method: "GET", Path: "/:user_id/rating-history", HandlerFunc: e.getRatingHistoryHandler()},
		{Method: "PATCH", Path: "/:user_id/permissions", HandlerFunc: e.changePermissionsHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @id Register
// @Description Creates a user account
// @Tags user
// @Accept json
// @Produce json
// @Param user body UserCreate true "User to create"
// @Success 201 {object} UserResponse
// @Router /users/register [post]
func (e *UserController) registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var userCreate UserCreate
		if err := c.BindJSON(&userCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.Register(userCreate.Username, userCreate.Email, userCreate.Password, userCreate.PlatformUsername)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		c.JSON(201, toUserResponse(user))
	}
}

// @id Login
// @Description Authenticates a user and sets the auth cookie
// @Tags user
// @Accept json
// @Produce json
// @Param credentials body UserLogin true "Credentials"
// @Success 200 {object} UserResponse
// @Router /users/login [post]
func (e *UserController) loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var login UserLogin
		if err := c.BindJSON(&login); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, token, err := e.userService.Login(login.Username, login.Password)
		if err != nil {
			c.JSON(401, gin.H{"error": err.Error()})
			return
		}
		c.SetCookie("auth", token, 60*60*24*7, "/", os.Getenv("PUBLIC_DOMAIN"), false, true)
		c.JSON(200, toUserResponse(user))
	}
}

// @id Logout
// @Description Clears the auth cookie
// @Tags user
// @Success 204
// @Router /users/logout [post]
func (e *UserController) logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("auth", "", -1, "/", os.Getenv("PUBLIC_DOMAIN"), false, true)
		c.JSON(204, nil)
	}
}

// @id GetSelf
// @Description Fetches the authenticated user
// @Tags user
// @Produce json
// @Success 200 {object} UserResponse
// @Router /users/self [get]
func (e *UserController) getSelfHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := e.userService.GetUserFromToken(mustCookie(c, "auth"))
		if err != nil {
			c.JSON(401, gin.H{"error": "Not authenticated"})
			return
		}
		c.JSON(200, toUserResponse(user))
	}
}

// @id GetTopRated
// @Description Fetches the highest rated users
// @Tags user
// @Produce json
// @Param limit query int false "Maximum number of users to return"
// @Success 200 {array} UserResponse
// @Router /users/top [get]
func (e *UserController) getTopRatedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
		if err != nil || limit < 1 {
			limit = 100
		}
		users, err := e.userService.GetTopRated(limit)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(users, toUserResponse))
	}
}

// @id GetUserById
// @Description Fetches a user by id
// @Tags user
// @Produce json
// @Param user_id path int true "User Id"
// @Success 200 {object} UserResponse
// @Router /users/{user_id} [get]
func (e *UserController) getUserByIdHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.GetUserById(userId)
		if err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}
		c.JSON(200, toUserResponse(user))
	}
}

// @id GetRatingHistory
// @Description Fetches a user's rating changes, most recent first
// @Tags user
// @Produce json
// @Param user_id path int true "User Id"
// @Success 200 {array} RatingHistoryResponse
// @Router /users/{user_id}/rating-history [get]
func (e *UserController) getRatingHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		history, err := e.userService.GetRatingHistory(userId)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(history, toRatingHistoryResponse))
	}
}

// @id ChangePermissions
// @Description Changes the permissions of a user
// @Tags user
// @Accept json
// @Produce json
// @Param user_id path int true "User Id"
// @Param permissions body []string true "Permissions"
// @Success 200 {object} UserResponse
// @Router /users/{user_id}/permissions [patch]
func (e *UserController) changePermissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, err := strconv.Atoi(c.Param("user_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var permissions []string
		if err := c.BindJSON(&permissions); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		user, err := e.userService.ChangePermissions(userId, permissions)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, toUserResponse(user))
	}
}

type UserCreate struct {
	Username         string `json:"username" binding:"required"`
	Email            string `json:"email" binding:"required"`
	Password         string `json:"password" binding:"required"`
	PlatformUsername string `json:"platform_username"`
}

type UserLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	Id                       int      `json:"id"`
	Username                 string   `json:"username"`
	PlatformUsername         string   `json:"platform_username"`
	EloRating                int      `json:"elo_rating"`
	HighestRating            int      `json:"highest_rating"`
	RatingTier               string   `json:"rating_tier"`
	CompetitionsParticipated int      `json:"competitions_participated"`
	Permissions              []string `json:"permissions"`
}

type RatingHistoryResponse struct {
	CompetitionId int       `json:"competition_id"`
	OldRating     int       `json:"old_rating"`
	NewRating     int       `json:"new_rating"`
	RatingChange  int       `json:"rating_change"`
	Rank          int       `json:"rank"`
	CreatedAt     time.Time `json:"created_at"`
}

func toUserResponse(user *repository.User) *UserResponse {
	return &UserResponse{
		Id:                       user.Id,
		Username:                 user.Username,
		PlatformUsername:         user.PlatformUsername,
		EloRating:                user.EloRating,
		HighestRating:            user.HighestRating,
		RatingTier:               user.RatingTier(),
		CompetitionsParticipated: user.CompetitionsParticipated,
		Permissions:              user.Permissions,
	}
}

func toRatingHistoryResponse(history *repository.RatingHistory) *RatingHistoryResponse {
	return &RatingHistoryResponse{
		CompetitionId: history.CompetitionId,
		OldRating:     history.OldRating,
		NewRating:     history.NewRating,
		RatingChange:  history.RatingChange,
		Rank:          history.Rank,
		CreatedAt:     history.CreatedAt,
	}
}
