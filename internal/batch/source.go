package batch

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadText returns the plain text of a source document. PDF files are reduced to the
// concatenated plain text of their pages; no layout is recovered.
func ReadText(src Source) (string, error) {
	switch src.Kind {
	case KindText:
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case KindPDF:
		return readPDF(src.Path)
	}
	return "", fmt.Errorf("unsupported source kind %q", src.Kind)
}

func readPDF(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat pdf: %w", err)
	}
	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("pdf has no extractable text")
	}
	return b.String(), nil
}
