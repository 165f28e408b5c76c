package service

import (
	"context"
	"sync"
	"time"

	"mlboard/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OauthService exchanges the service's client credentials for application
// tokens at the competition platform. The token is cached until shortly
// before its expiry.
type OauthService struct {
	clientConfig *clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

func NewOauthService() *OauthService {
	return &OauthService{
		clientConfig: &clientcredentials.Config{
			ClientID:     config.Env().PlatformClientID,
			ClientSecret: config.Env().PlatformClientSecret,
			TokenURL:     config.Env().PlatformTokenURL,
		},
	}
}

func (s *OauthService) GetApplicationToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil && s.token.Expiry.After(time.Now().Add(30*time.Second)) {
		return s.token.AccessToken, nil
	}
	token, err := s.clientConfig.Token(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	return token.AccessToken, nil
}
