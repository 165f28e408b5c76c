package controller

import (
	"strconv"

	"mlboard/app_error"
	"mlboard/service"
	"mlboard/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RatingController struct {
	ratingService *service.RatingService
}

func NewRatingController(db *gorm.DB) *RatingController {
	return &RatingController{
		ratingService: service.NewRatingService(db),
	}
}

func setupRatingController(db *gorm.DB) []RouteInfo {
	e := NewRatingController(db)
	basePath := "/competitions/:competition_id/ratings"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getRatingChangesHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.applyRatingsHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @id GetRatingChanges
// @Description Fetches the rating changes a competition produced, in final rank order
// @Tags rating
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Success 200 {array} RatingHistoryResponse
// @Router /competitions/{competition_id}/ratings [get]
func (e *RatingController) getRatingChangesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competitionId, err := strconv.Atoi(c.Param("competition_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		history, err := e.ratingService.GetHistoryForCompetition(competitionId)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(history, toRatingHistoryResponse))
	}
}

// @id ApplyRatings
// @Description Manually triggers the one-shot rating update for a completed competition
// @Tags rating
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Success 200 {array} RatingHistoryResponse
// @Router /competitions/{competition_id}/ratings [post]
func (e *RatingController) applyRatingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competitionId, err := strconv.Atoi(c.Param("competition_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if _, err := e.ratingService.ApplyRatingsForCompetition(competitionId); err != nil {
			app_error.WithHTTPStatus(c, err, 500)
			return
		}
		history, err := e.ratingService.GetHistoryForCompetition(competitionId)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(history, toRatingHistoryResponse))
	}
}
