package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/stryde/internal/telemetry/tracing"
	"github.com/2beens/stryde/pkg"

	log "github.com/sirupsen/logrus"
)

// https://developers.strava.com/docs/authentication/#tokenexchange

// TokenExchange is the result of a successful authorization code exchange
type TokenExchange struct {
	AccessToken string
	Athlete     Athlete
}

// Exchanger trades a one-time authorization code for a bearer token and the
// remote athlete identity. It has no session side effects, the caller decides
// what to do with the result.
type Exchanger struct {
	tokenEndpoint string
	apiEndpoint   string
	clientID      string
	clientSecret  string
	httpClient    *http.Client
}

func NewExchanger(
	tokenEndpoint string,
	apiEndpoint string,
	clientID string,
	clientSecret string,
	httpClient *http.Client,
) *Exchanger {
	return &Exchanger{
		tokenEndpoint: tokenEndpoint,
		apiEndpoint:   apiEndpoint,
		clientID:      clientID,
		clientSecret:  clientSecret,
		httpClient:    httpClient,
	}
}

func (e *Exchanger) Exchange(ctx context.Context, code string) (_ *TokenExchange, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "strava.exchanger.exchange")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	form := url.Values{
		"client_id":     {e.clientID},
		"client_secret": {e.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("new token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint call: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// the code is single use, a retry would burn a second attempt
		// against an already consumed code
		return nil, &UpstreamAuthError{
			StatusCode: resp.StatusCode,
			Body:       pkg.BytesToString(respBytes),
		}
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(respBytes, &tokenResponse); err != nil {
		return nil, fmt.Errorf("unmarshal token response: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("token response without access token")
	}

	log.Debugf("strava token exchange ok, getting athlete profile ...")

	athlete, err := e.fetchAthlete(ctx, tokenResponse.AccessToken)
	if err != nil {
		return nil, err
	}

	return &TokenExchange{
		AccessToken: tokenResponse.AccessToken,
		Athlete:     *athlete,
	}, nil
}

func (e *Exchanger) fetchAthlete(ctx context.Context, accessToken string) (_ *Athlete, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "strava.exchanger.fetchAthlete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.apiEndpoint+"/athlete", nil)
	if err != nil {
		return nil, fmt.Errorf("new athlete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("athlete endpoint call: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read athlete response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamAuthError{
			StatusCode: resp.StatusCode,
			Body:       pkg.BytesToString(respBytes),
		}
	}

	athlete := &Athlete{}
	if err := json.Unmarshal(respBytes, athlete); err != nil {
		return nil, fmt.Errorf("unmarshal athlete response: %w", err)
	}

	return athlete, nil
}
