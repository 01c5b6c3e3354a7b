// Package specreg talks to the external special-registration site.
package specreg

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/specreg-bridge/internal/dto"
	"github.com/noah-isme/specreg-bridge/pkg/config"
	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
)

// Client wraps the site's HTTP endpoints. All calls are blocking round-trips
// with no retries; a transport or decode failure is terminal for the caller.
type Client struct {
	http   *resty.Client
	cfg    config.SpecRegConfig
	logger *zap.Logger
}

// NewClient builds a site client from configuration.
func NewClient(cfg config.SpecRegConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	http := resty.New().
		SetBaseURL(cfg.Site).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Accept", "application/json")
	return &Client{http: http, cfg: cfg, logger: logger}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetQueryParam("apiKey", c.cfg.APIKey)
}

// CheckStatus fetches the current override requests of one student.
func (c *Client) CheckStatus(ctx context.Context, term, campus, studentID string) (*dto.StatusResponse, error) {
	var out dto.StatusResponse
	resp, err := c.request(ctx).
		SetQueryParams(map[string]string{
			"term":      term,
			"campus":    campus,
			"studentId": studentID,
			"mode":      c.cfg.Mode,
		}).
		SetResult(&out).
		Get(c.cfg.CheckPath)
	if err := c.verify(resp, err, "check special registration status"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckAllStatuses fetches override requests for up to 100 students in one
// round-trip. Callers are responsible for the batch boundary.
func (c *Client) CheckAllStatuses(ctx context.Context, term, campus string, studentIDs []string) (*dto.MultipleStatusResponse, error) {
	var out dto.MultipleStatusResponse
	resp, err := c.request(ctx).
		SetQueryParams(map[string]string{
			"term":       term,
			"campus":     campus,
			"studentIds": strings.Join(studentIDs, ","),
			"mode":       c.cfg.Mode,
		}).
		SetResult(&out).
		Get(c.cfg.AllStatusesPath)
	if err := c.verify(resp, err, "check special registration statuses"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckRestrictions submits a derived CRN schedule for validation.
func (c *Client) CheckRestrictions(ctx context.Context, req dto.ValidationCheckRequest) (*dto.ValidationCheckResponse, error) {
	var out dto.ValidationCheckResponse
	resp, err := c.request(ctx).
		SetBody(req).
		SetResult(&out).
		Post(c.cfg.ValidationPath)
	if err := c.verify(resp, err, "validate schedule"); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitRegistration files override requests with the site. A non-success
// status is surfaced as a rejection carrying the site's message when present.
func (c *Client) SubmitRegistration(ctx context.Context, req dto.SubmitRegistrationRequest) (*dto.SubmitRegistrationResponse, error) {
	var out dto.SubmitRegistrationResponse
	resp, err := c.request(ctx).
		SetBody(req).
		SetResult(&out).
		Post(c.cfg.SubmitPath)
	if err := c.verify(resp, err, "submit registration"); err != nil {
		return nil, err
	}
	if out.Status != dto.ResponseStatusSuccess {
		message := out.Message
		if message == "" {
			message = fmt.Sprintf("failed to request overrides (%s)", out.Status)
		}
		return nil, appErrors.Clone(appErrors.ErrRejected, message)
	}
	return &out, nil
}

// CheckEligibility asks whether the student may register at all.
func (c *Client) CheckEligibility(ctx context.Context, term, campus, studentID string) (*dto.EligibilityResponse, error) {
	var out dto.EligibilityResponse
	resp, err := c.request(ctx).
		SetQueryParams(map[string]string{
			"term":      term,
			"campus":    campus,
			"studentId": studentID,
			"mode":      c.cfg.Mode,
		}).
		SetResult(&out).
		Get(c.cfg.EligibilityPath)
	if err := c.verify(resp, err, "check eligibility"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) verify(resp *resty.Response, err error, action string) error {
	if err != nil {
		c.logger.Warn("specreg call failed", zap.String("action", action), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrExternalAPI.Code, appErrors.ErrExternalAPI.Status, "failed to "+action)
	}
	if resp.IsError() {
		c.logger.Warn("specreg call rejected",
			zap.String("action", action),
			zap.Int("status", resp.StatusCode()))
		return appErrors.New(appErrors.ErrExternalAPI.Code, appErrors.ErrExternalAPI.Status,
			fmt.Sprintf("failed to %s (HTTP %d)", action, resp.StatusCode()))
	}
	return nil
}
