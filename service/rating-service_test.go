package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"mlboard/repository"
	"mlboard/scoring"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	// uses pool to try to connect to Docker
	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.Run("postgres", "17.2-alpine", []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=postgres", "DATABASE_NAME=postgres"})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}
	resource.Expire(600) // Tell docker to hard kill the container in 10 minutes
	sqlInfo := fmt.Sprintf(
		"host=localhost port=%s user=postgres password=postgres dbname=postgres sslmode=disable search_path=mlboard",
		resource.GetPort("5432/tcp"))

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	if err := pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(sqlInfo), &gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				TablePrefix:   "mlboard.",
				SingularTable: false,
			},
			Logger: logger.Default.LogMode(logger.Silent),
		})

		if err != nil {
			return err
		}
		db.Exec(`CREATE SCHEMA IF NOT EXISTS mlboard`)
		x := db.Exec(`CREATE TYPE mlboard.competition_status AS ENUM ('upcoming', 'ongoing', 'completed')`)
		if x.Error != nil && !strings.Contains(x.Error.Error(), "already exists") {
			return x.Error
		}
		return db.AutoMigrate(
			&repository.User{},
			&repository.Event{},
			&repository.Competition{},
			&repository.Standing{},
			&repository.RatingHistory{},
			&repository.RecurringJob{},
		)
	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	defer func() {
		if err := pool.Purge(resource); err != nil {
			log.Fatalf("Could not purge resource: %s", err)
		}
	}()
	m.Run()
}

func tearDown() {
	db.Exec("DELETE FROM mlboard.rating_histories")
	db.Exec("DELETE FROM mlboard.standings")
	db.Exec("DELETE FROM mlboard.competitions")
	db.Exec("DELETE FROM mlboard.users")
}

func setUpCompetition(t *testing.T, status repository.CompetitionStatus) *repository.Competition {
	competition, err := repository.NewCompetitionRepository(db).Save(&repository.Competition{
		Title:                 "Summer Vision Challenge",
		PlatformSlug:          fmt.Sprintf("summer-vision-%d", time.Now().UnixNano()),
		StartDate:             time.Now().Add(-48 * time.Hour),
		EndDate:               time.Now().Add(time.Hour),
		Status:                status,
		HigherIsBetter:        true,
		MetricMin:             0,
		MetricMax:             1,
		PointsForPerfectScore: 100,
		RatingWeight:          1,
		MaxSubmissionsPerDay:  5,
	})
	require.Nil(t, err)
	return competition
}

func setUpRankedUser(t *testing.T, competitionId int, username string, rank int) *repository.User {
	user, err := repository.NewUserRepository(db).SaveUser(&repository.User{
		Username:      username,
		Email:         username + "@example.com",
		PasswordHash:  "x",
		EloRating:     1500,
		HighestRating: 1500,
		Permissions:   []string{},
	})
	require.Nil(t, err)
	err = repository.NewStandingRepository(db).UpsertStandings(competitionId, []*scoring.Standing{
		{UserId: &user.Id, TeamName: username, Score: 100 - float64(rank), Rank: rank},
	})
	require.Nil(t, err)
	return user
}

func TestApplyRatingsRefusesUnfinishedCompetition(t *testing.T) {
	defer tearDown()
	competition := setUpCompetition(t, repository.StatusOngoing)
	user := setUpRankedUser(t, competition.Id, "heidi", 1)
	ratingService := NewRatingService(db)

	_, err := ratingService.ApplyRatingsForCompetition(competition.Id)
	require.NotNil(t, err)
	var statusErr interface {
		error
		HTTPStatus() int
	}
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 409, statusErr.HTTPStatus())

	// a mid-competition attempt must not burn the one-shot guard
	competitionRepository := repository.NewCompetitionRepository(db)
	reloaded, err := competitionRepository.GetCompetitionById(competition.Id)
	require.Nil(t, err)
	assert.Nil(t, reloaded.RatingsAppliedAt)

	// once completed, the same competition rates normally
	require.Nil(t, competitionRepository.SetStatus(competition.Id, repository.StatusCompleted))
	results, err := ratingService.ApplyRatingsForCompetition(competition.Id)
	require.Nil(t, err)
	require.Len(t, results, 1)

	updated, err := repository.NewUserRepository(db).GetUserById(user.Id)
	require.Nil(t, err)
	assert.Equal(t, 1508, updated.EloRating)
}
