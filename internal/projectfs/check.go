package projectfs

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"

	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

var (
	// ErrBinary rejects content that is not text
	ErrBinary = errors.New("binary content is not supported")
	// ErrEncoding rejects text that is not UTF-8
	ErrEncoding = errors.New("content is not UTF-8")
)

// CheckContent validates one incoming file
func CheckContent(path string, data []byte) error {
	if err := utils.ValidateFileContent(path, ""); err != nil {
		return err
	}
	if err := utils.ValidateSize(data, utils.MaxFileSize); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if !isText(mimetype.Detect(data)) {
		return fmt.Errorf("%w: %s (%s)", ErrBinary, path, mimetype.Detect(data).String())
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: %s looks like %s", ErrEncoding, path, DetectCharset(data))
	}
	return nil
}

// ContentType returns the MIME type to serve a file with
func ContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// DetectCharset names the most likely charset of data
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "unknown"
	}
	return strings.ToLower(result.Charset)
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
