package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mlboard/config"
	"mlboard/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type PlatformClient struct {
	Client         *AsyncHttpClient
	TimeOutSeconds int
}

type ClientError struct {
	StatusCode      int
	Error           any
	Description     string
	ResponseHeaders http.Header
}

type ErrorResponse struct {
	Error            any    `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func NewPlatformClient(maxRequestsPerSecond float64, timeOutSeconds int) *PlatformClient {
	baseURL, err := url.Parse(config.Env().PlatformBaseURL)
	if err != nil {
		log.Fatalf("invalid platform base url: %v", err)
	}
	return &PlatformClient{
		Client:         NewAsyncHttpClient(baseURL, config.Env().PlatformUserAgent, maxRequestsPerSecond),
		TimeOutSeconds: timeOutSeconds,
	}
}

func sendRequest[T any](client *PlatformClient, args RequestArgs) (*T, *ClientError) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(client.TimeOutSeconds)*time.Second)
	defer cancel()

	if args.Body == nil && args.BodyRaw != nil {
		bodyString, err := json.Marshal(args.BodyRaw)
		if err != nil {
			return nil, &ClientError{
				StatusCode:  0,
				Error:       "platform_client_request_body_error",
				Description: err.Error(),
			}
		}
		args.Body = strings.NewReader(string(bodyString))
	}
	response, err := client.Client.SendRequest(ctx, args)
	if err != nil {
		return nil, &ClientError{
			StatusCode:  0,
			Error:       "platform_client_request_error",
			Description: err.Error(),
		}
	}
	metrics.PlatformResponseCounter.WithLabelValues(fmt.Sprintf("%d", response.StatusCode)).Inc()
	defer response.Body.Close()
	respBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &ClientError{
			StatusCode:      0,
			Error:           "platform_client_response_body_read_error",
			Description:     err.Error(),
			ResponseHeaders: response.Header,
		}
	}

	if response.StatusCode >= 400 {
		log.Print(string(respBody))
		errorBody := &ErrorResponse{}
		err = json.Unmarshal(respBody, errorBody)
		if err != nil {
			return nil, &ClientError{
				StatusCode:      response.StatusCode,
				Error:           "platform_client_response_error_body_parse_error",
				Description:     err.Error(),
				ResponseHeaders: response.Header,
			}
		}
		return nil, &ClientError{
			StatusCode:      response.StatusCode,
			Error:           errorBody.Error,
			Description:     errorBody.ErrorDescription,
			ResponseHeaders: response.Header,
		}
	}

	result := new(T)
	err = json.Unmarshal(respBody, result)
	if err != nil {
		return nil, &ClientError{
			StatusCode:      response.StatusCode,
			Error:           "platform_client_response_body_parse_error",
			Description:     err.Error(),
			ResponseHeaders: response.Header,
		}
	}
	return result, nil
}

func (c *PlatformClient) GetLeaderboard(token string, competitionSlug string) (*LeaderboardResponse, *ClientError) {
	timer := prometheus.NewTimer(metrics.PlatformRequestDuration.WithLabelValues("GetLeaderboard"))
	defer timer.ObserveDuration()
	metrics.PlatformRequestCounter.WithLabelValues("GetLeaderboard").Inc()
	return sendRequest[LeaderboardResponse](c, RequestArgs{
		Endpoint:   "competitions/%s/leaderboard",
		Token:      token,
		Method:     "GET",
		PathParams: []string{competitionSlug},
	})
}

func (c *PlatformClient) GetCompetition(token string, competitionSlug string) (*CompetitionResponse, *ClientError) {
	timer := prometheus.NewTimer(metrics.PlatformRequestDuration.WithLabelValues("GetCompetition"))
	defer timer.ObserveDuration()
	metrics.PlatformRequestCounter.WithLabelValues("GetCompetition").Inc()
	return sendRequest[CompetitionResponse](c, RequestArgs{
		Endpoint:   "competitions/%s",
		Token:      token,
		Method:     "GET",
		PathParams: []string{competitionSlug},
	})
}

func (c *PlatformClient) ListCompetitions(token string, page int) (*ListCompetitionsResponse, *ClientError) {
	timer := prometheus.NewTimer(metrics.PlatformRequestDuration.WithLabelValues("ListCompetitions"))
	defer timer.ObserveDuration()
	metrics.PlatformRequestCounter.WithLabelValues("ListCompetitions").Inc()
	return sendRequest[ListCompetitionsResponse](c, RequestArgs{
		Endpoint: "competitions",
		Token:    token,
		Method:   "GET",
		QueryParams: map[string]string{
			"page": fmt.Sprintf("%d", page),
		},
	})
}
