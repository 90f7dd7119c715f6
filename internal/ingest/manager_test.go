package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/greedhall/rules-engine/internal/rules"
)

type stubFetcher struct {
	modified time.Time
	doc      rules.Document
	modErr   error
	fetchErr error
	fetches  int
}

func (f *stubFetcher) ModifiedTime(ctx context.Context) (time.Time, error) {
	return f.modified, f.modErr
}

func (f *stubFetcher) Fetch(ctx context.Context) (rules.Document, error) {
	f.fetches++
	return f.doc, f.fetchErr
}

func validDocument() rules.Document {
	lines := []string{
		"Origins",
		"Dwarf",
		"Origin actions",
		"Stonecunning",
		"Passive abilities",
		"Hardy",
		"Primary",
		"Warhammer",
		"Swing.",
		"Secondary",
		"Shield Wall",
		"Brace.",
		"Special",
		"Avalanche",
		"Charge.",
		"",
		"Template for new origins",
		"Knight (I)",
		"Class actions",
		"Rally",
		"Passive abilities",
		"Armored",
		"Primary",
		"Longsword",
		"Strike.",
		"Secondary",
		"Parry",
		"Deflect.",
		"Special",
		"Banner Call",
		"Advance.",
		"Subclasses",
		"Idea Bank",
	}

	paragraphs := make([]rules.Paragraph, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, rules.Paragraph{Text: line})
	}
	return rules.Document{Paragraphs: paragraphs}
}

func TestRefreshInstallsNewCatalog(t *testing.T) {
	modified := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{modified: modified, doc: validDocument()}
	m := NewManager(fetcher, nil, nil)

	refreshed, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !refreshed {
		t.Fatal("Refresh reported no change for a new document")
	}

	catalog := m.Current()
	if len(catalog.Origins) != 1 || len(catalog.Classes) != 1 {
		t.Errorf("catalog has %d origins and %d classes, want 1 and 1",
			len(catalog.Origins), len(catalog.Classes))
	}
	if !catalog.LastModified.Equal(modified) {
		t.Errorf("last modified = %v, want %v", catalog.LastModified, modified)
	}
}

func TestRefreshSkipsUnchangedDocument(t *testing.T) {
	fetcher := &stubFetcher{modified: time.Now().UTC(), doc: validDocument()}
	m := NewManager(fetcher, nil, nil)

	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}

	refreshed, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}
	if refreshed {
		t.Error("Refresh must report false when the document is unchanged")
	}
	if fetcher.fetches != 1 {
		t.Errorf("fetch count = %d, want 1: an unchanged document must not be re-fetched", fetcher.fetches)
	}
}

func TestRefreshKeepsOldCatalogOnParseFailure(t *testing.T) {
	modified := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{modified: modified, doc: validDocument()}
	m := NewManager(fetcher, nil, nil)

	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}

	// The next revision has lost its sentinel structure.
	fetcher.modified = modified.Add(time.Hour)
	fetcher.doc = rules.Document{Paragraphs: []rules.Paragraph{{Text: "garbage"}}}

	if _, err := m.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh must fail on an unparseable document")
	}

	catalog := m.Current()
	if !catalog.LastModified.Equal(modified) {
		t.Error("failed refresh must leave the previous catalog in place")
	}
	if len(catalog.Classes) != 1 {
		t.Errorf("previous catalog lost: %d classes", len(catalog.Classes))
	}
}

func TestCurrentBeforeFirstIngestionIsEmpty(t *testing.T) {
	m := NewManager(&stubFetcher{}, nil, nil)

	catalog := m.Current()
	if catalog == nil {
		t.Fatal("Current must never return nil")
	}
	if len(catalog.Origins) != 0 || len(catalog.Classes) != 0 {
		t.Error("catalog must start empty")
	}
}

func TestSubscribeReceivesRefreshEvents(t *testing.T) {
	fetcher := &stubFetcher{modified: time.Now().UTC(), doc: validDocument()}
	m := NewManager(fetcher, nil, nil)

	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	select {
	case event := <-events:
		if event.OriginCount != 1 || event.ClassCount != 1 {
			t.Errorf("event = %+v, want 1 origin and 1 class", event)
		}
	case <-time.After(time.Second):
		t.Fatal("no refresh event received")
	}
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	fetcher := &stubFetcher{modified: time.Now().UTC(), doc: validDocument()}
	m := NewManager(fetcher, nil, nil)

	events, unsubscribe := m.Subscribe()
	unsubscribe()

	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if _, open := <-events; open {
		t.Error("channel must be closed after unsubscribe")
	}
}
