package ingest_test

import (
	"context"
	"os"
	"testing"

	"github.com/verdant-lab/pythia/pkg/service/ingest"
)

func TestNewNotionSource(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		dbID    string
		wantErr bool
	}{
		{
			name:    "valid token and database",
			token:   "test-token",
			dbID:    "test-db",
			wantErr: false,
		},
		{
			name:    "empty token",
			token:   "",
			dbID:    "test-db",
			wantErr: true,
		},
		{
			name:    "empty database ID",
			token:   "test-token",
			dbID:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ingest.NewNotionSource(tt.token, tt.dbID)
			if tt.wantErr {
				if err == nil {
					t.Error("NewNotionSource() expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("NewNotionSource() unexpected error: %v", err)
			}
			if src == nil {
				t.Error("NewNotionSource() returned nil source")
			}
		})
	}
}

func TestNotionSourceDocuments_Integration(t *testing.T) {
	token := os.Getenv("TEST_NOTION_API_TOKEN")
	if token == "" {
		t.Skip("TEST_NOTION_API_TOKEN environment variable not set")
	}

	dbID := os.Getenv("TEST_NOTION_DATABASE_ID")
	if dbID == "" {
		t.Skip("TEST_NOTION_DATABASE_ID environment variable not set")
	}

	src, err := ingest.NewNotionSource(token, dbID)
	if err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}

	ctx := context.Background()
	count := 0

	for doc, err := range src.Documents(ctx) {
		if err != nil {
			t.Fatalf("Iterator returned error: %v", err)
		}
		if doc == nil {
			t.Error("Iterator returned nil document")
			continue
		}

		if doc.Name == "" {
			t.Error("Document name is empty")
		}

		count++
		t.Logf("Document: name=%s, size=%d", doc.Name, len(doc.Text))

		meta := ingest.ExtractMetadata(doc.Text)
		t.Logf("  doc_type=%s subject=%q category=%q", meta.DocType, meta.Subject, meta.Category)
	}

	t.Logf("Retrieved %d document(s) from database %s", count, dbID)
}
