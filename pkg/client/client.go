// Package client is a Go SDK for the rules-engine API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a Go SDK for rules-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new rules-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a structured error returned by the service.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// Action is one named ability with its rules text.
type Action struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// OriginRecord is one playable origin.
type OriginRecord struct {
	Name      string   `json:"name"`
	Utilities []Action `json:"utilities,omitempty"`
	Passives  []Action `json:"passives,omitempty"`
	Primary   Action   `json:"primary"`
	Secondary Action   `json:"secondary"`
	Special   Action   `json:"special"`
}

// ClassRecord is one playable class.
type ClassRecord struct {
	Name        string   `json:"name"`
	Level       *int     `json:"level,omitempty"`
	Utilities   []Action `json:"utilities,omitempty"`
	Passives    []Action `json:"passives,omitempty"`
	Primary     Action   `json:"primary"`
	Secondary   Action   `json:"secondary"`
	Special     Action   `json:"special"`
	Requirement string   `json:"requirement,omitempty"`
}

// CatalogInfo summarizes the currently served catalog.
type CatalogInfo struct {
	OriginCount  int       `json:"origin_count"`
	ClassCount   int       `json:"class_count"`
	LastModified time.Time `json:"last_modified"`
}

// RefreshResult reports the outcome of a forced refresh.
type RefreshResult struct {
	Refreshed    bool      `json:"refreshed"`
	OriginCount  int       `json:"origin_count"`
	ClassCount   int       `json:"class_count"`
	LastModified time.Time `json:"last_modified"`
}

// Character is the sheet-facing slice of a save.
type Character struct {
	Origin  string   `json:"origin,omitempty"`
	Classes []string `json:"classes,omitempty"`
}

// Save is one campaign save slot.
type Save struct {
	ID            string    `json:"id"`
	CampaignName  string    `json:"campaign_name"`
	BattleNumber  int       `json:"battle_number"`
	RoundNumber   int       `json:"round_number"`
	Character     Character `json:"character"`
	UsedSpecials  []string  `json:"used_specials,omitempty"`
	BattlePower   int       `json:"battle_power"`
	BattleDefense int       `json:"battle_defense"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateSaveRequest creates a new save slot.
type CreateSaveRequest struct {
	CampaignName string    `json:"campaign_name"`
	Character    Character `json:"character,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// UpdateSaveRequest updates a save; nil fields are left unchanged.
type UpdateSaveRequest struct {
	CampaignName  *string    `json:"campaign_name,omitempty"`
	BattleNumber  *int       `json:"battle_number,omitempty"`
	RoundNumber   *int       `json:"round_number,omitempty"`
	Character     *Character `json:"character,omitempty"`
	BattlePower   *int       `json:"battle_power,omitempty"`
	BattleDefense *int       `json:"battle_defense,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// Catalog returns summary information about the served catalog.
func (c *Client) Catalog(ctx context.Context) (*CatalogInfo, error) {
	var info CatalogInfo
	if err := c.call(ctx, "GET", "/api/v1/catalog", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RefreshCatalog asks the service to re-ingest the rules document now.
func (c *Client) RefreshCatalog(ctx context.Context) (*RefreshResult, error) {
	var result RefreshResult
	if err := c.call(ctx, "POST", "/api/v1/catalog/refresh", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Origins retrieves all origins
func (c *Client) Origins(ctx context.Context) ([]OriginRecord, error) {
	var data struct {
		Origins []OriginRecord `json:"origins"`
		Total   int            `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/v1/origins", nil, &data); err != nil {
		return nil, err
	}
	return data.Origins, nil
}

// Origin retrieves one origin by name
func (c *Client) Origin(ctx context.Context, name string) (*OriginRecord, error) {
	var origin OriginRecord
	if err := c.call(ctx, "GET", "/api/v1/origins/"+name, nil, &origin); err != nil {
		return nil, err
	}
	return &origin, nil
}

// Classes retrieves all classes
func (c *Client) Classes(ctx context.Context) ([]ClassRecord, error) {
	var data struct {
		Classes []ClassRecord `json:"classes"`
		Total   int           `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/v1/classes", nil, &data); err != nil {
		return nil, err
	}
	return data.Classes, nil
}

// Class retrieves one class by name
func (c *Client) Class(ctx context.Context, name string) (*ClassRecord, error) {
	var class ClassRecord
	if err := c.call(ctx, "GET", "/api/v1/classes/"+name, nil, &class); err != nil {
		return nil, err
	}
	return &class, nil
}

// ClassAvailable checks whether a character holding the given classes
// may acquire the named class.
func (c *Client) ClassAvailable(ctx context.Context, name string, held []string) (bool, error) {
	req := struct {
		Held []string `json:"held"`
	}{Held: held}

	var data struct {
		Class     string `json:"class"`
		Available bool   `json:"available"`
	}
	if err := c.call(ctx, "POST", "/api/v1/classes/"+name+"/availability", req, &data); err != nil {
		return false, err
	}
	return data.Available, nil
}

// CreateSave creates a new save slot
func (c *Client) CreateSave(ctx context.Context, req CreateSaveRequest) (*Save, error) {
	var save Save
	if err := c.call(ctx, "POST", "/api/v1/saves", req, &save); err != nil {
		return nil, err
	}
	return &save, nil
}

// GetSave retrieves a save by ID
func (c *Client) GetSave(ctx context.Context, id string) (*Save, error) {
	var save Save
	if err := c.call(ctx, "GET", "/api/v1/saves/"+id, nil, &save); err != nil {
		return nil, err
	}
	return &save, nil
}

// ListSaves retrieves saves, most recently updated first
func (c *Client) ListSaves(ctx context.Context, limit, offset int) ([]*Save, error) {
	path := "/api/v1/saves"
	if limit > 0 || offset > 0 {
		path += fmt.Sprintf("?limit=%d&offset=%d", limit, offset)
	}

	var data struct {
		Saves []*Save `json:"saves"`
		Total int     `json:"total"`
	}
	if err := c.call(ctx, "GET", path, nil, &data); err != nil {
		return nil, err
	}
	return data.Saves, nil
}

// UpdateSave updates fields of an existing save
func (c *Client) UpdateSave(ctx context.Context, id string, req UpdateSaveRequest) (*Save, error) {
	var save Save
	if err := c.call(ctx, "PUT", "/api/v1/saves/"+id, req, &save); err != nil {
		return nil, err
	}
	return &save, nil
}

// DeleteSave removes a save
func (c *Client) DeleteSave(ctx context.Context, id string) error {
	return c.call(ctx, "DELETE", "/api/v1/saves/"+id, nil, nil)
}

// UseSpecial marks a special action as spent on a save
func (c *Client) UseSpecial(ctx context.Context, id, name string) (*Save, error) {
	req := struct {
		Name string `json:"name"`
	}{Name: name}

	var save Save
	if err := c.call(ctx, "POST", "/api/v1/saves/"+id+"/special", req, &save); err != nil {
		return nil, err
	}
	return &save, nil
}

// RefreshSpecials makes all special actions usable again on a save
func (c *Client) RefreshSpecials(ctx context.Context, id string) (*Save, error) {
	var save Save
	if err := c.call(ctx, "POST", "/api/v1/saves/"+id+"/specials-refresh", nil, &save); err != nil {
		return nil, err
	}
	return &save, nil
}

// NextBattle advances a save to the next battle
func (c *Client) NextBattle(ctx context.Context, id string) (*Save, error) {
	var save Save
	if err := c.call(ctx, "POST", "/api/v1/saves/"+id+"/battle", nil, &save); err != nil {
		return nil, err
	}
	return &save, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, "GET", "/health", nil, nil)
}

// call performs a request and decodes the response envelope into out.
func (c *Client) call(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		if result.Error != nil {
			return result.Error
		}
		return fmt.Errorf("API error: request failed")
	}

	if out != nil && result.Data != nil {
		if err := json.Unmarshal(result.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}

	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Error responses still carry the envelope; let the caller decode
	// the structured error when possible.
	if resp.StatusCode >= 400 && len(respBody) == 0 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return respBody, nil
}
