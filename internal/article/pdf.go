package article

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	pdf "github.com/unidoc/unipdf/v3/model"
)

// SetPDFLicense applies a metered Unidoc key when one is configured. Without
// a key unipdf runs in its unlicensed mode, which is fine for development.
func SetPDFLicense(key string) error {
	if key == "" {
		return nil
	}
	return license.SetMeteredKey(key)
}

// ExtractText pulls the plain text out of an uploaded PDF, page by page.
func ExtractText(r io.ReadSeeker) (string, error) {
	reader, err := pdf.NewPdfReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return "", fmt.Errorf("failed to inspect pdf: %w", err)
	}
	if encrypted {
		return "", errors.New("encrypted pdfs are not supported")
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to count pages: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("failed to load page %d: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("failed to build extractor for page %d: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}
