package ingest_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/verdant-lab/pythia/pkg/domain/model"
	"github.com/verdant-lab/pythia/pkg/domain/types"
	"github.com/verdant-lab/pythia/pkg/service/ingest"
)

func TestExtractMetadata(t *testing.T) {
	cases := []struct {
		name string
		text string
		want model.Metadata
	}{
		{
			name: "product header",
			text: "# PRODUCT: Houtmulch\n\nHoutmulch is een natuurlijke bodembedekker.",
			want: model.Metadata{DocType: types.DocTypeProduct, Subject: "Houtmulch"},
		},
		{
			name: "knowledge header",
			text: "# KENNIS: Retourbeleid\n\nBestellingen kunnen binnen 30 dagen retour.",
			want: model.Metadata{DocType: types.DocTypeKnowledge, Subject: "Retourbeleid"},
		},
		{
			name: "product header with category section",
			text: "# PRODUCT: Boomschors\n\n## Categorie\nBodembedekking\n\n## Prijs\n4,95 per zak",
			want: model.Metadata{DocType: types.DocTypeProduct, Subject: "Boomschors", Category: "Bodembedekking"},
		},
		{
			name: "category value after blank line",
			text: "# KENNIS: Bezorging\n\n## Categorie\n\nVerzending\n",
			want: model.Metadata{DocType: types.DocTypeKnowledge, Subject: "Bezorging", Category: "Verzending"},
		},
		{
			name: "no markers",
			text: "Gewone tekst zonder markeringen.\nTweede regel.",
			want: model.Metadata{DocType: types.DocTypeUnknown},
		},
		{
			name: "marker not on first line is ignored",
			text: "Inleiding\n# PRODUCT: Houtmulch\n",
			want: model.Metadata{DocType: types.DocTypeUnknown},
		},
		{
			name: "first line surrounded by whitespace",
			text: "  # PRODUCT: Franse boomschors  \ninhoud",
			want: model.Metadata{DocType: types.DocTypeProduct, Subject: "Franse boomschors"},
		},
		{
			name: "category without doc type header",
			text: "Tekst\n\n## Categorie\nTuinhout\n",
			want: model.Metadata{DocType: types.DocTypeUnknown, Category: "Tuinhout"},
		},
		{
			name: "category header at end of document",
			text: "# PRODUCT: Houtsnippers\n\n## Categorie",
			want: model.Metadata{DocType: types.DocTypeProduct, Subject: "Houtsnippers"},
		},
		{
			name: "empty text",
			text: "",
			want: model.Metadata{DocType: types.DocTypeUnknown},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, ingest.ExtractMetadata(tc.text)).Equal(tc.want)
		})
	}
}
