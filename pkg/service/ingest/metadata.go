package ingest

import (
	"strings"

	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
)

const (
	productMarker   = "# PRODUCT:"
	knowledgeMarker = "# KENNIS:"
	categoryHeader  = "## Categorie"
)

// ExtractMetadata parses the structured header markers of a knowledge base
// document: a first line declaring the document type and subject, and an
// optional category section whose value sits on the next non-empty line.
// Documents without markers come back as DocTypeUnknown with empty fields.
// Extraction never fails; missing markers degrade to absent metadata.
func ExtractMetadata(text string) model.Metadata {
	meta := model.Metadata{DocType: types.DocTypeUnknown}

	lines := strings.Split(text, "\n")
	if len(lines) > 0 {
		first := strings.TrimSpace(lines[0])
		switch {
		case strings.HasPrefix(first, productMarker):
			meta.DocType = types.DocTypeProduct
			meta.Subject = strings.TrimSpace(strings.TrimPrefix(first, productMarker))
		case strings.HasPrefix(first, knowledgeMarker):
			meta.DocType = types.DocTypeKnowledge
			meta.Subject = strings.TrimSpace(strings.TrimPrefix(first, knowledgeMarker))
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) != categoryHeader {
			continue
		}
		for _, next := range lines[i+1:] {
			if v := strings.TrimSpace(next); v != "" {
				meta.Category = v
				break
			}
		}
		break
	}

	return meta
}
