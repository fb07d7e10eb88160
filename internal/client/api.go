package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPAPI talks to the server's push endpoints. The cookie jar on the
// provided client carries the session.
type HTTPAPI struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPAPI(baseURL string, httpClient *http.Client) *HTTPAPI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPAPI{BaseURL: baseURL, Client: httpClient}
}

func (a *HTTPAPI) FetchPublicKey(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/api/push/key", nil)
	if err != nil {
		return "", err
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("key endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		PublicKey string `json:"publicKey"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.PublicKey, nil
}

func (a *HTTPAPI) Register(ctx context.Context, sub Subscription) error {
	return a.post(ctx, "/api/push/subscribe", sub)
}

func (a *HTTPAPI) Unregister(ctx context.Context, endpoint string) error {
	return a.post(ctx, "/api/push/unsubscribe", map[string]string{"endpoint": endpoint})
}

func (a *HTTPAPI) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}
	return nil
}
