package render

import (
	"bytes"
	"fmt"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// Validate checks data structurally and returns its page count.
func Validate(data []byte) (int, error) {
	if err := pdfapi.Validate(bytes.NewReader(data), nil); err != nil {
		return 0, &ArtifactError{Op: "validate", Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
	}
	n, err := pdfapi.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, &ArtifactError{Op: "validate", Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
	}
	return n, nil
}
