package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteClient calls the remote scoring service. Every call is bounded by the
// configured timeout so a hung service hands control to the local fallback
// instead of stalling the dashboard.
type RemoteClient struct {
	rest *resty.Client
	base string
}

// NewRemoteClient builds a client for the scoring service at the given base
// URL.
func NewRemoteClient(base string, timeout time.Duration) *RemoteClient {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &RemoteClient{rest: r, base: base}
}

type scoreRequest struct {
	ID int64 `json:"id"`
}

type scoreResponse struct {
	// CreditScore is a pointer so an absent field is distinguishable from a
	// legitimate zero score.
	CreditScore *float64 `json:"credit_score"`
	Advice      string   `json:"advice"`
}

// remoteOutcome is the explicit result of one remote attempt. The resolver
// inspects it as a value; remote failure is ordinary data, never a thrown
// control-flow signal.
type remoteOutcome struct {
	probability float64
	err         error
}

func (o remoteOutcome) timedOut() bool {
	return errors.Is(o.err, context.DeadlineExceeded)
}

// score performs a single POST {base}/predict attempt. Exactly one attempt:
// retries would delay the fallback decision without making the dashboard more
// correct.
func (c *RemoteClient) score(ctx context.Context, clientID int64) remoteOutcome {
	var parsed scoreResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(scoreRequest{ID: clientID}).
		SetResult(&parsed).
		Post(c.base + "/predict")
	if err != nil {
		return remoteOutcome{err: fmt.Errorf("remote scoring call: %w", err)}
	}
	if !resp.IsSuccess() {
		return remoteOutcome{err: fmt.Errorf("remote scoring status %d: %s", resp.StatusCode(), resp.String())}
	}
	if parsed.CreditScore == nil {
		return remoteOutcome{err: fmt.Errorf("remote scoring response missing credit_score field")}
	}

	p := *parsed.CreditScore
	if p != p || p < 0 || p > 1 {
		return remoteOutcome{err: fmt.Errorf("remote scoring returned probability out of range: %v", p)}
	}
	return remoteOutcome{probability: p}
}
