package ingest

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
	"github.com/verdant-lab/pythia/pkg/domain/model"
)

// NotionSource renders the pages of a Notion database into corpus documents.
// Each page becomes one document named after its title property, with block
// content flattened to markdown-style text so the header markers survive.
type NotionSource struct {
	api  *notionapi.Client
	dbID string
}

// NewNotionSource creates a source for a Notion database
func NewNotionSource(token, databaseID string) (*NotionSource, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required")
	}
	if databaseID == "" {
		return nil, goerr.New("Notion database ID is required")
	}

	return &NotionSource{
		api: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithRetry(3), // Retry on rate limit (HTTP 429)
		),
		dbID: databaseID,
	}, nil
}

func (s *NotionSource) Name() string {
	return "notion:" + s.dbID
}

// Documents yields one document per database page. Pages that fail to render
// are yielded as errors and the rest of the database is still processed.
func (s *NotionSource) Documents(ctx context.Context) iter.Seq2[*model.Document, error] {
	return func(yield func(*model.Document, error) bool) {
		var cursor notionapi.Cursor

		for {
			resp, err := s.api.Database.Query(ctx, notionapi.DatabaseID(s.dbID), &notionapi.DatabaseQueryRequest{
				StartCursor: cursor,
				PageSize:    100,
			})
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to query Notion database", goerr.V("dbID", s.dbID)))
				return
			}

			for i := range resp.Results {
				doc, err := s.renderPage(ctx, &resp.Results[i])
				if err != nil {
					if !yield(nil, err) {
						return
					}
					continue
				}

				if !yield(doc, nil) {
					return
				}
			}

			if !resp.HasMore {
				return
			}
			cursor = resp.NextCursor
		}
	}
}

func (s *NotionSource) renderPage(ctx context.Context, page *notionapi.Page) (*model.Document, error) {
	var sb strings.Builder
	if err := s.renderBlocks(ctx, &sb, page.ID.String(), 0); err != nil {
		return nil, err
	}

	name := pageTitle(page)
	if name == "" {
		name = page.ID.String()
	}
	// page titles can contain path separators, which would break chunk IDs
	name = strings.ReplaceAll(name, "/", "-")

	return &model.Document{Name: name + ".md", Text: sb.String()}, nil
}

func (s *NotionSource) renderBlocks(ctx context.Context, sb *strings.Builder, blockID string, depth int) error {
	indent := strings.Repeat("  ", depth)
	number := 0

	var cursor notionapi.Cursor
	for {
		resp, err := s.api.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return goerr.Wrap(err, "failed to get page blocks", goerr.V("blockID", blockID))
		}

		for _, block := range resp.Results {
			prefix, text := renderBlock(block, &number)
			if prefix != "" || text != "" {
				sb.WriteString(indent)
				sb.WriteString(prefix)
				sb.WriteString(text)
				sb.WriteString("\n")
			}

			if block.GetHasChildren() {
				if err := s.renderBlocks(ctx, sb, block.GetID().String(), depth+1); err != nil {
					return err
				}
			}
		}

		if !resp.HasMore {
			return nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

// renderBlock flattens one block to a line prefix and plain text. The counter
// numbers consecutive numbered list items and resets on any other block type.
func renderBlock(block notionapi.Block, number *int) (string, string) {
	if block.GetType() != notionapi.BlockTypeNumberedListItem {
		*number = 0
	}

	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return "", plainText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return "# ", plainText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return "## ", plainText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return "### ", plainText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return "- ", plainText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		*number++
		return fmt.Sprintf("%d. ", *number), plainText(b.NumberedListItem.RichText)
	case *notionapi.QuoteBlock:
		return "> ", plainText(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return "> ", plainText(b.Callout.RichText)
	case *notionapi.ToDoBlock:
		return "- ", plainText(b.ToDo.RichText)
	case *notionapi.CodeBlock:
		return "", plainText(b.Code.RichText)
	case *notionapi.ToggleBlock:
		return "", plainText(b.Toggle.RichText)
	default:
		return "", ""
	}
}

func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			return strings.TrimSpace(plainText(title.Title))
		}
	}
	return ""
}

func plainText(rts []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rts {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}
