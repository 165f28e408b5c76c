package repository

import (
	"fmt"
	"time"

	"mlboard/scoring"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type Permission string

const (
	PermissionAdmin Permission = "admin"
)

type User struct {
	Id                       int            `gorm:"primaryKey"`
	Username                 string         `gorm:"uniqueIndex;not null"`
	Email                    string         `gorm:"uniqueIndex;not null"`
	PasswordHash             string         `gorm:"not null"`
	PlatformUsername         string         `gorm:"index;null"`
	EloRating                int            `gorm:"not null;default:1500"`
	HighestRating            int            `gorm:"not null;default:1500"`
	CompetitionsParticipated int            `gorm:"not null;default:0"`
	Permissions              pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// RatingTier buckets the current rating into a display tier.
func (u *User) RatingTier() string {
	switch {
	case u.EloRating >= 2400:
		return "Grandmaster"
	case u.EloRating >= 2200:
		return "International Master"
	case u.EloRating >= 2000:
		return "Master"
	case u.EloRating >= 1800:
		return "Expert"
	case u.EloRating >= 1600:
		return "Advanced"
	case u.EloRating >= 1400:
		return "Intermediate"
	case u.EloRating >= 1200:
		return "Beginner"
	default:
		return "Newbie"
	}
}

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) GetUserById(userId int) (*User, error) {
	var user User
	result := r.DB.First(&user, userId)
	if result.Error != nil {
		return nil, fmt.Errorf("user with id %d not found", userId)
	}
	return &user, nil
}

func (r *UserRepository) GetUserByUsername(username string) (*User, error) {
	var user User
	result := r.DB.First(&user, "username = ?", username)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *UserRepository) SaveUser(user *User) (*User, error) {
	if user.EloRating == 0 {
		user.EloRating = scoring.StartingRating
		user.HighestRating = scoring.StartingRating
	}
	result := r.DB.Save(user)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save user: %v", result.Error)
	}
	return user, nil
}

// GetParticipantLookup returns every known external identifier mapped to its
// user id. Platform usernames take precedence over local usernames when both
// exist for different users.
func (r *UserRepository) GetParticipantLookup() (map[string]int, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetParticipantLookup"))
	defer timer.ObserveDuration()

	var users []*User
	result := r.DB.Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	lookup := make(map[string]int, len(users))
	for _, user := range users {
		if _, taken := lookup[user.Username]; !taken {
			lookup[user.Username] = user.Id
		}
	}
	for _, user := range users {
		if user.PlatformUsername != "" {
			lookup[user.PlatformUsername] = user.Id
		}
	}
	return lookup, nil
}

func (r *UserRepository) GetTopRated(limit int) ([]*User, error) {
	var users []*User
	result := r.DB.Order("elo_rating DESC").Limit(limit).Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}
