package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKFactorBounds(t *testing.T) {
	for n := 1; n <= 4; n++ {
		assert.Equal(t, 16.0, KFactor(n), "n=%d", n)
	}
	assert.Equal(t, 64.0, KFactor(10000))
	assert.InDelta(t, math.Log2(100)*8, KFactor(100), 1e-9)
}

func TestUpdateRatingsSingleParticipant(t *testing.T) {
	participants := []*RatingParticipant{
		{UserId: 1, Rating: 1500, Rank: 1},
	}

	results, err := UpdateRatings(participants, 1.0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// expected = 0.5 against an opponent pool equal to the own rating,
	// actual = 1.0 for a field of one, k = 16
	assert.Equal(t, 1508, results[0].NewRating)
	assert.Equal(t, 8, results[0].Change)
	assert.Equal(t, 1500, results[0].OldRating)
}

func TestUpdateRatingsEmptyBatch(t *testing.T) {
	results, err := UpdateRatings([]*RatingParticipant{}, 1.0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpdateRatingsWinnerGainsLoserLoses(t *testing.T) {
	participants := []*RatingParticipant{
		{UserId: 1, Rating: 1500, Rank: 1},
		{UserId: 2, Rating: 1500, Rank: 2},
		{UserId: 3, Rating: 1500, Rank: 3},
	}

	results, err := UpdateRatings(participants, 1.0)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Greater(t, results[0].Change, 0)
	assert.Equal(t, 0, results[1].Change)
	assert.Less(t, results[2].Change, 0)
	// equal priors make the field symmetric
	assert.Equal(t, results[0].Change, -results[2].Change)
}

func TestUpdateRatingsFloorAtZero(t *testing.T) {
	participants := []*RatingParticipant{
		{UserId: 1, Rating: 2000, Rank: 1},
		{UserId: 2, Rating: 5, Rank: 2},
	}

	results, err := UpdateRatings(participants, 200.0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 0, results[1].NewRating)
	assert.Equal(t, -5, results[1].Change)
}

func TestUpdateRatingsCompetitionWeight(t *testing.T) {
	participants := func() []*RatingParticipant {
		return []*RatingParticipant{
			{UserId: 1, Rating: 1500, Rank: 1},
			{UserId: 2, Rating: 1500, Rank: 2},
		}
	}

	unweighted, err := UpdateRatings(participants(), 1.0)
	require.NoError(t, err)
	doubled, err := UpdateRatings(participants(), 2.0)
	require.NoError(t, err)

	assert.Equal(t, 2*unweighted[0].Change, doubled[0].Change)
}

func TestUpdateRatingsRejectsInvalidInput(t *testing.T) {
	_, err := UpdateRatings([]*RatingParticipant{
		{UserId: 1, Rating: 1500, Rank: 0},
	}, 1.0)
	assert.Error(t, err)

	_, err = UpdateRatings([]*RatingParticipant{
		{UserId: 1, Rating: 1500, Rank: 3},
		{UserId: 2, Rating: 1500, Rank: 1},
	}, 1.0)
	assert.Error(t, err)

	_, err = UpdateRatings([]*RatingParticipant{
		{UserId: 1, Rating: 1500, Rank: 1},
	}, math.NaN())
	assert.Error(t, err)
}

func TestUpdateRatingsUnderdogBeatsFavorite(t *testing.T) {
	participants := []*RatingParticipant{
		{UserId: 1, Rating: 1200, Rank: 1},
		{UserId: 2, Rating: 1800, Rank: 2},
	}

	results, err := UpdateRatings(participants, 1.0)
	require.NoError(t, err)

	// the underdog expected little and won everything
	assert.Greater(t, results[0].Change, 8)
	assert.Less(t, results[1].Change, -8)
}
