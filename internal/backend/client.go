package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"backend-letterwalk/internal/route"
	"backend-letterwalk/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const DefaultTimeout = 5 * time.Second

var ErrNotFound = errors.New("backend: not found")

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.Code, e.Body)
}

// Client talks to the route backend. It serves route definitions and
// mirrors session transitions.
type Client struct {
	baseURL string
	timeout time.Duration
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout, log: log}
}

func (c *Client) Definition(ctx context.Context, shape string) (route.Route, error) {
	var detail RouteDetail
	err := c.do(ctx, fiber.Get(c.url("/api/v1/route/"+url.PathEscape(strings.ToUpper(shape)))), &detail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return route.Route{}, fmt.Errorf("%w: shape %s", route.ErrRouteNotFound, shape)
		}
		return route.Route{}, err
	}
	return detail.Route(), nil
}

func (c *Client) VerifyCheckIn(ctx context.Context, req CheckInRequest) (CheckInResponse, error) {
	var resp CheckInResponse
	if err := c.do(ctx, fiber.Post(c.url("/api/v1/checkin")).JSON(req), &resp); err != nil {
		return CheckInResponse{}, err
	}
	return resp, nil
}

func (c *Client) CheckIn(ctx context.Context, userID, shape, waypointID string, at geo.Coordinate) error {
	resp, err := c.VerifyCheckIn(ctx, CheckInRequest{
		UserID:     userID,
		WaypointID: waypointID,
		Shape:      shape,
		UserLat:    at.Lat,
		UserLon:    at.Lon,
	})
	if err != nil {
		return err
	}
	if !resp.Verified {
		c.log.Warn("backend did not verify mirrored check-in",
			zap.String("user_id", userID),
			zap.String("shape", shape),
			zap.String("waypoint_id", waypointID),
			zap.String("message", resp.Message))
	}
	return nil
}

func (c *Client) StartRoute(ctx context.Context, userID, shape string) error {
	return c.do(ctx, fiber.Post(c.url("/api/v1/route/start")).JSON(sessionRequest{UserID: userID, Shape: shape}), nil)
}

func (c *Client) CompleteRoute(ctx context.Context, userID, shape string) error {
	return c.do(ctx, fiber.Post(c.url("/api/v1/route/complete")).JSON(sessionRequest{UserID: userID, Shape: shape}), nil)
}

func (c *Client) Progress(ctx context.Context, userID, shape string) (UserProgress, error) {
	a := fiber.Get(c.url("/api/v1/progress/" + url.PathEscape(userID)))
	if shape != "" {
		a.QueryString("shape=" + url.QueryEscape(strings.ToUpper(shape)))
	}
	var progress UserProgress
	if err := c.do(ctx, a, &progress); err != nil {
		return UserProgress{}, err
	}
	return progress, nil
}

// RequestCertificate returns the certificate image for the account.
func (c *Client) RequestCertificate(ctx context.Context, userID, shape string) ([]byte, error) {
	a := fiber.Get(c.url("/api/v1/certificate/" + url.PathEscape(userID) + "/" + url.PathEscape(strings.ToUpper(shape))))
	body, err := c.send(ctx, a)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

func (c *Client) do(ctx context.Context, a *fiber.Agent, out interface{}) error {
	body, err := c.send(ctx, a)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, a *fiber.Agent) ([]byte, error) {
	timeout, err := c.budget(ctx)
	if err != nil {
		fiber.ReleaseAgent(a)
		return nil, err
	}
	a.Timeout(timeout)
	uri := string(a.Request().URI().FullURI())
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return nil, err
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		c.log.Debug("backend request failed", zap.String("uri", uri), zap.Errors("errors", errs))
		return nil, errors.Join(errs...)
	}
	switch {
	case code == fiber.StatusNotFound:
		return nil, ErrNotFound
	case code < 200 || code >= 300:
		return nil, &StatusError{Code: code, Body: string(body)}
	}
	c.log.Debug("backend request ok", zap.String("uri", uri), zap.Int("status", code))
	return body, nil
}

// budget caps the request timeout by the context deadline.
func (c *Client) budget(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}
	return timeout, nil
}
