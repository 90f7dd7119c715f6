// Package source fetches the exported rules document and its
// modification metadata. It owns transport and auth; the parsing
// pipeline in internal/rules never performs I/O.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/greedhall/rules-engine/internal/rules"
)

const (
	defaultDocsBaseURL  = "https://docs.googleapis.com/v1"
	defaultDriveBaseURL = "https://www.googleapis.com/drive/v3"
)

// Fetcher retrieves the rules document and the cheap freshness signal
// that lets ingestion skip re-parsing an unchanged revision.
type Fetcher interface {
	ModifiedTime(ctx context.Context) (time.Time, error)
	Fetch(ctx context.Context) (rules.Document, error)
}

// GoogleDocs fetches the rules document through the Google Docs and
// Drive v3 REST APIs. The API key is injected configuration, never a
// process-wide constant.
type GoogleDocs struct {
	docsBaseURL  string
	driveBaseURL string
	documentID   string
	apiKey       string
	httpClient   *http.Client
}

// Option configures the fetcher.
type Option func(*GoogleDocs)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *GoogleDocs) {
		g.httpClient = client
	}
}

// WithBaseURLs overrides the Docs and Drive endpoints.
func WithBaseURLs(docsBaseURL, driveBaseURL string) Option {
	return func(g *GoogleDocs) {
		if docsBaseURL != "" {
			g.docsBaseURL = docsBaseURL
		}
		if driveBaseURL != "" {
			g.driveBaseURL = driveBaseURL
		}
	}
}

// NewGoogleDocs creates a fetcher for one document.
func NewGoogleDocs(documentID, apiKey string, opts ...Option) *GoogleDocs {
	g := &GoogleDocs{
		docsBaseURL:  defaultDocsBaseURL,
		driveBaseURL: defaultDriveBaseURL,
		documentID:   documentID,
		apiKey:       apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ModifiedTime fetches the document's last-modified timestamp from the
// Drive metadata endpoint.
func (g *GoogleDocs) ModifiedTime(ctx context.Context) (time.Time, error) {
	endpoint := fmt.Sprintf("%s/files/%s?fields=modifiedTime&key=%s",
		g.driveBaseURL, url.PathEscape(g.documentID), url.QueryEscape(g.apiKey))

	body, err := g.get(ctx, endpoint)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetch document metadata: %w", err)
	}

	var meta struct {
		ModifiedTime time.Time `json:"modifiedTime"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return time.Time{}, fmt.Errorf("decode document metadata: %w", err)
	}
	if meta.ModifiedTime.IsZero() {
		return time.Time{}, fmt.Errorf("document metadata has no modifiedTime")
	}
	return meta.ModifiedTime, nil
}

// Fetch retrieves the document body and flattens it into paragraphs,
// keeping the bullet nesting the plain-text export would lose.
func (g *GoogleDocs) Fetch(ctx context.Context) (rules.Document, error) {
	endpoint := fmt.Sprintf("%s/documents/%s?key=%s",
		g.docsBaseURL, url.PathEscape(g.documentID), url.QueryEscape(g.apiKey))

	body, err := g.get(ctx, endpoint)
	if err != nil {
		return rules.Document{}, fmt.Errorf("fetch document: %w", err)
	}

	var doc apiDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return rules.Document{}, fmt.Errorf("decode document: %w", err)
	}

	paragraphs := make([]rules.Paragraph, 0, len(doc.Body.Content))
	for _, element := range doc.Body.Content {
		if element.Paragraph == nil {
			continue
		}
		text := ""
		for _, pe := range element.Paragraph.Elements {
			if pe.TextRun != nil {
				text += pe.TextRun.Content
			}
		}
		paragraph := rules.Paragraph{Text: text}
		if bullet := element.Paragraph.Bullet; bullet != nil {
			paragraph.Bullet = true
			paragraph.Nesting = bullet.NestingLevel
		}
		paragraphs = append(paragraphs, paragraph)
	}

	return rules.Document{Paragraphs: paragraphs}, nil
}

func (g *GoogleDocs) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

// The slice of the Docs API document schema this service reads.
type apiDocument struct {
	Body struct {
		Content []struct {
			Paragraph *struct {
				Elements []struct {
					TextRun *struct {
						Content string `json:"content"`
					} `json:"textRun"`
				} `json:"elements"`
				Bullet *struct {
					NestingLevel int `json:"nestingLevel"`
				} `json:"bullet"`
			} `json:"paragraph"`
		} `json:"content"`
	} `json:"body"`
}
