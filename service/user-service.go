package service

import (
	"fmt"
	"strings"

	"mlboard/auth"
	"mlboard/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	userRepository   *repository.UserRepository
	ratingRepository *repository.RatingRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		userRepository:   repository.NewUserRepository(db),
		ratingRepository: repository.NewRatingRepository(db),
	}
}

func (s *UserService) Register(username string, email string, password string, platformUsername string) (*repository.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username must not be empty")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &repository.User{
		Username:         username,
		Email:            strings.TrimSpace(email),
		PasswordHash:     string(hash),
		PlatformUsername: strings.TrimSpace(platformUsername),
		Permissions:      []string{},
	}
	return s.userRepository.SaveUser(user)
}

func (s *UserService) Login(username string, password string) (*repository.User, string, error) {
	user, err := s.userRepository.GetUserByUsername(username)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}
	token, err := auth.CreateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) GetUserById(userId int) (*repository.User, error) {
	return s.userRepository.GetUserById(userId)
}

func (s *UserService) SaveUser(user *repository.User) (*repository.User, error) {
	return s.userRepository.SaveUser(user)
}

func (s *UserService) GetTopRated(limit int) ([]*repository.User, error) {
	return s.userRepository.GetTopRated(limit)
}

func (s *UserService) GetRatingHistory(userId int) ([]*repository.RatingHistory, error) {
	return s.ratingRepository.GetHistoryForUser(userId)
}

func (s *UserService) ChangePermissions(userId int, permissions []string) (*repository.User, error) {
	user, err := s.userRepository.GetUserById(userId)
	if err != nil {
		return nil, err
	}
	user.Permissions = permissions
	return s.userRepository.SaveUser(user)
}

func (s *UserService) GetUserFromAuthHeader(c *gin.Context) (*repository.User, error) {
	authHeader := c.Request.Header.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return nil, fmt.Errorf("authorization header is invalid")
	}
	return s.GetUserFromToken(authHeader[7:])
}

func (s *UserService) GetUserFromToken(tokenString string) (*repository.User, error) {
	token, err := auth.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims := &auth.Claims{}
	if token.Valid {
		claims.FromJWTClaims(token.Claims)
		if err := claims.Valid(); err != nil {
			return nil, err
		}
		return s.userRepository.GetUserById(claims.UserId)
	}
	return nil, jwt.ErrInvalidKey
}
