package types

import "fmt"

// DocType classifies a knowledge base document by its header marker
type DocType string

const (
	DocTypeProduct   DocType = "product"
	DocTypeKnowledge DocType = "knowledge"
	DocTypeUnknown   DocType = "unknown"
)

// AllDocTypes returns all valid document types
func AllDocTypes() []DocType {
	return []DocType{
		DocTypeProduct,
		DocTypeKnowledge,
		DocTypeUnknown,
	}
}

// IsValid checks if the document type is valid
func (t DocType) IsValid() bool {
	switch t {
	case DocTypeProduct,
		DocTypeKnowledge,
		DocTypeUnknown:
		return true
	default:
		return false
	}
}

// Normalize returns the document type, treating empty as DocTypeUnknown
func (t DocType) Normalize() DocType {
	if t == "" {
		return DocTypeUnknown
	}
	return t
}

// String returns the string representation of the document type
func (t DocType) String() string {
	return string(t)
}

// ParseDocType parses a string into a DocType
func ParseDocType(s string) (DocType, error) {
	docType := DocType(s)
	if !docType.IsValid() {
		return "", fmt.Errorf("invalid document type: %s", s)
	}
	return docType, nil
}
