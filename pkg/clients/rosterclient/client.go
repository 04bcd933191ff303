// Package rosterclient fetches the caregiver roster from a randomuser.me-style API.
package rosterclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/pkg/core/model"
)

// Config holds the roster API settings
type Config struct {
	BaseURL        string
	Seed           string
	ResultsPerPage int
	Timeout        time.Duration
	RetryCount     int
}

type rosterResponse struct {
	Results []rosterUser `json:"results"`
	Info    struct {
		Seed    string `json:"seed"`
		Results int    `json:"results"`
		Page    int    `json:"page"`
	} `json:"info"`
	Error string `json:"error"`
}

type rosterUser struct {
	Login struct {
		UUID string `json:"uuid"`
	} `json:"login"`
	Name struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Picture struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"picture"`
}

// Client fetches caregiver pages from the roster API
type Client struct {
	httpClient     *resty.Client
	seed           string
	resultsPerPage int
	logger         *zap.Logger
}

// New creates a roster client
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryCount == 0 {
		cfg.RetryCount = 3
	}
	if cfg.ResultsPerPage == 0 {
		cfg.ResultsPerPage = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient:     client,
		seed:           cfg.Seed,
		resultsPerPage: cfg.ResultsPerPage,
		logger:         logger,
	}
}

// FetchCaregivers fetches one page (1-based) of the roster
func (c *Client) FetchCaregivers(ctx context.Context, page int) ([]model.Caregiver, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be at least 1, got %d", page)
	}

	var response rosterResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"seed":    c.seed,
			"page":    strconv.Itoa(page),
			"results": strconv.Itoa(c.resultsPerPage),
		}).
		SetResult(&response).
		SetError(&response).
		Get("/api/")
	if err != nil {
		return nil, fmt.Errorf("failed to call roster API: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("Roster API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", response.Error))
		return nil, fmt.Errorf("roster API error: status %d: %s", resp.StatusCode(), response.Error)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("roster API error: %s", response.Error)
	}

	caregivers := make([]model.Caregiver, 0, len(response.Results))
	for _, user := range response.Results {
		if user.Login.UUID == "" {
			c.logger.Warn("Skipping roster entry without uuid",
				zap.String("first_name", user.Name.First),
				zap.String("last_name", user.Name.Last))
			continue
		}
		caregivers = append(caregivers, model.Caregiver{
			ID:         user.Login.UUID,
			FirstName:  user.Name.First,
			LastName:   user.Name.Last,
			PictureURL: user.Picture.Thumbnail,
		})
	}

	c.logger.Debug("Fetched roster page",
		zap.Int("page", page),
		zap.Int("caregivers", len(caregivers)))

	return caregivers, nil
}
