package repository

import (
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

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

var enumQueries = []string{
	`CREATE TYPE mlboard.competition_status AS ENUM ('upcoming', 'ongoing', 'completed')`,
}

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
		for _, query := range enumQueries {
			x := db.Exec(query)
			if x.Error != nil {
				if strings.Contains(x.Error.Error(), "already exists") {
					continue
				}
			}
		}
		return db.AutoMigrate(
			&User{},
			&Event{},
			&Competition{},
			&Standing{},
			&RatingHistory{},
			&RecurringJob{},
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
	db.Exec("DELETE FROM mlboard.recurring_jobs")
	db.Exec("DELETE FROM mlboard.rating_histories")
	db.Exec("DELETE FROM mlboard.standings")
	db.Exec("DELETE FROM mlboard.competitions")
	db.Exec("DELETE FROM mlboard.events")
	db.Exec("DELETE FROM mlboard.users")
}

func setUpCompetition(t *testing.T) *Competition {
	competition, err := NewCompetitionRepository(db).Save(&Competition{
		Title:                 "Spring Tabular Challenge",
		PlatformSlug:          fmt.Sprintf("spring-tabular-%d", time.Now().UnixNano()),
		StartDate:             time.Now().Add(-48 * time.Hour),
		EndDate:               time.Now().Add(-1 * time.Hour),
		Status:                StatusOngoing,
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

func setUpUser(t *testing.T, username string, rating int) *User {
	user, err := NewUserRepository(db).SaveUser(&User{
		Username:      username,
		Email:         username + "@example.com",
		PasswordHash:  "x",
		EloRating:     rating,
		HighestRating: rating,
		Permissions:   []string{},
	})
	require.Nil(t, err)
	return user
}

func TestUpsertStandingsIsIdempotent(t *testing.T) {
	defer tearDown()
	competition := setUpCompetition(t)
	user := setUpUser(t, "alice", 1500)
	standingRepository := NewStandingRepository(db)

	first := []*scoring.Standing{
		{UserId: &user.Id, TeamName: "alice", Score: 90, Rank: 1},
		{TeamName: "mystery team", Score: 50, Rank: 2},
	}
	require.Nil(t, standingRepository.UpsertStandings(competition.Id, first))

	stored, err := standingRepository.GetStandingsForCompetition(competition.Id)
	require.Nil(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 1, stored[0].Rank)
	assert.Equal(t, "alice", stored[0].TeamName)

	// second sync updates scores in place instead of duplicating rows
	second := []*scoring.Standing{
		{UserId: &user.Id, TeamName: "alice", Score: 95, Rank: 1},
		{TeamName: "mystery team", Score: 60, Rank: 2},
	}
	require.Nil(t, standingRepository.UpsertStandings(competition.Id, second))

	stored, err = standingRepository.GetStandingsForCompetition(competition.Id)
	require.Nil(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 95.0, stored[0].Score)
	assert.Equal(t, 60.0, stored[1].Score)
}

func TestCreateRegistrationIsANoOpOnRepeat(t *testing.T) {
	defer tearDown()
	competition := setUpCompetition(t)
	user := setUpUser(t, "bob", 1500)
	standingRepository := NewStandingRepository(db)

	created, err := standingRepository.CreateRegistration(competition.Id, user)
	require.Nil(t, err)
	assert.True(t, created)

	created, err = standingRepository.CreateRegistration(competition.Id, user)
	require.Nil(t, err)
	assert.False(t, created)
}

func TestApplyResultsIsAtomicAndMarksCompetition(t *testing.T) {
	defer tearDown()
	competition := setUpCompetition(t)
	winner := setUpUser(t, "carol", 1500)
	loser := setUpUser(t, "dave", 1500)
	ratingRepository := NewRatingRepository(db)

	results := []*scoring.RatingResult{
		{UserId: winner.Id, OldRating: 1500, NewRating: 1508, Change: 8, Rank: 1},
		{UserId: loser.Id, OldRating: 1500, NewRating: 1492, Change: -8, Rank: 2},
	}
	require.Nil(t, ratingRepository.ApplyResults(competition.Id, results))

	userRepository := NewUserRepository(db)
	updatedWinner, err := userRepository.GetUserById(winner.Id)
	require.Nil(t, err)
	assert.Equal(t, 1508, updatedWinner.EloRating)
	assert.Equal(t, 1508, updatedWinner.HighestRating)
	assert.Equal(t, 1, updatedWinner.CompetitionsParticipated)

	updatedLoser, err := userRepository.GetUserById(loser.Id)
	require.Nil(t, err)
	assert.Equal(t, 1492, updatedLoser.EloRating)
	// highest rating keeps the old watermark on a loss
	assert.Equal(t, 1500, updatedLoser.HighestRating)

	updatedCompetition, err := NewCompetitionRepository(db).GetCompetitionById(competition.Id)
	require.Nil(t, err)
	assert.NotNil(t, updatedCompetition.RatingsAppliedAt)

	history, err := ratingRepository.GetHistoryForCompetition(competition.Id)
	require.Nil(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, winner.Id, history[0].UserId)
	assert.Equal(t, 8, history[0].RatingChange)
}

func TestApplyResultsRejectsDuplicateBatch(t *testing.T) {
	defer tearDown()
	competition := setUpCompetition(t)
	user := setUpUser(t, "erin", 1500)
	ratingRepository := NewRatingRepository(db)

	results := []*scoring.RatingResult{
		{UserId: user.Id, OldRating: 1500, NewRating: 1508, Change: 8, Rank: 1},
	}
	require.Nil(t, ratingRepository.ApplyResults(competition.Id, results))

	// the unique index on (user_id, competition_id) rolls the whole batch back
	err := ratingRepository.ApplyResults(competition.Id, results)
	require.NotNil(t, err)

	updated, err2 := NewUserRepository(db).GetUserById(user.Id)
	require.Nil(t, err2)
	assert.Equal(t, 1508, updated.EloRating)
	assert.Equal(t, 1, updated.CompetitionsParticipated)
}

func TestRecordRunUpsertsByJobName(t *testing.T) {
	defer tearDown()
	jobRepository := NewJobRepository(db)

	require.Nil(t, jobRepository.RecordRun("leaderboard-sync", time.Now().Add(-time.Second), nil))
	require.Nil(t, jobRepository.RecordRun("leaderboard-sync", time.Now(), fmt.Errorf("platform unreachable")))

	jobs, err := jobRepository.FindAll()
	require.Nil(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 2, jobs[0].Runs)
	assert.Equal(t, "platform unreachable", jobs[0].LastError)
}

func TestGetParticipantLookupPrefersPlatformUsername(t *testing.T) {
	defer tearDown()
	userRepository := NewUserRepository(db)
	local := setUpUser(t, "frank", 1500)

	other, err := userRepository.SaveUser(&User{
		Username:         "grace",
		Email:            "grace@example.com",
		PasswordHash:     "x",
		PlatformUsername: "frank",
		Permissions:      []string{},
	})
	require.Nil(t, err)

	lookup, err := userRepository.GetParticipantLookup()
	require.Nil(t, err)
	assert.Equal(t, other.Id, lookup["frank"])
	assert.Equal(t, other.Id, lookup["grace"])
	_ = local
}
