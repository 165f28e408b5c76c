package scoring

import (
	"fmt"
	"math"
)

const (
	// StartingRating is the rating assigned to every new participant.
	StartingRating = 1500
	minKFactor     = 16
	maxKFactor     = 64
)

// RatingParticipant is one competitor's final state in a completed
// competition: their rating going in and the rank they finished at.
type RatingParticipant struct {
	UserId int
	Rating int
	Rank   int
}

// RatingResult is the rating engine's verdict for one participant. The
// caller persists it as a history record and as the user's new current
// rating.
type RatingResult struct {
	UserId    int
	OldRating int
	NewRating int
	Change    int
	Rank      int
}

// KFactor returns the maximum rating swing for a competition with the given
// field size. Larger fields warrant bigger swings: placing well among many
// competitors is stronger evidence of skill than placing well among few.
func KFactor(totalParticipants int) float64 {
	if totalParticipants < 2 {
		return minKFactor
	}
	k := math.Log2(float64(totalParticipants)) * 8
	return clamp(k, minKFactor, maxKFactor)
}

// expectedScore is the standard ELO logistic expectation of a player against
// the opponent pool, here represented by the field's average rating rather
// than pairwise opponents. That trades theoretical purity for O(n) cost.
func expectedScore(playerRating, opponentRating float64) float64 {
	return 1 / (1 + math.Pow(10, (opponentRating-playerRating)/400))
}

// actualScore maps a final rank onto [0, 1]: rank 1 scores 1.0, last place
// scores 0.0, linear in between.
func actualScore(rank, totalParticipants int) float64 {
	if totalParticipants <= 1 {
		return 1.0
	}
	return 1 - float64(rank-1)/float64(totalParticipants-1)
}

// UpdateRatings computes new ratings for every participant of one completed
// competition. The computation is pure and must be applied at most once per
// competition; the caller owns that guarantee.
//
// Ratings are floored at zero and have no ceiling. Invalid input (a
// non-finite weight or a rank outside 1..n) fails the whole batch: rating
// integrity is all-or-nothing per competition, partial results are never
// returned.
func UpdateRatings(participants []*RatingParticipant, competitionWeight float64) ([]*RatingResult, error) {
	n := len(participants)
	if n == 0 {
		return []*RatingResult{}, nil
	}
	if math.IsNaN(competitionWeight) || math.IsInf(competitionWeight, 0) {
		return nil, fmt.Errorf("competition weight is not a finite number")
	}

	ratingSum := 0
	for _, participant := range participants {
		if participant.Rank < 1 || participant.Rank > n {
			return nil, fmt.Errorf("participant %d has rank %d outside 1..%d", participant.UserId, participant.Rank, n)
		}
		ratingSum += participant.Rating
	}
	avgRating := float64(ratingSum) / float64(n)
	k := KFactor(n)

	results := make([]*RatingResult, 0, n)
	for _, participant := range participants {
		expected := expectedScore(float64(participant.Rating), avgRating)
		actual := actualScore(participant.Rank, n)
		change := int(math.Round(k * competitionWeight * (actual - expected)))
		newRating := participant.Rating + change
		if newRating < 0 {
			newRating = 0
		}
		results = append(results, &RatingResult{
			UserId:    participant.UserId,
			OldRating: participant.Rating,
			NewRating: newRating,
			Change:    newRating - participant.Rating,
			Rank:      participant.Rank,
		})
	}
	return results, nil
}
