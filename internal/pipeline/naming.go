package pipeline

import (
	"path/filepath"

	"subburn/internal/textutil"
)

// OutputFileName derives the captioned output name from the fetched video
// path: sanitized stem, suffix, original extension.
func OutputFileName(videoPath, suffix string) string {
	if suffix == "" {
		suffix = DefaultOutputSuffix
	}
	stem, ext := textutil.SplitExt(filepath.Base(videoPath))
	return textutil.SanitizeFileName(stem) + textutil.SanitizeFileName(suffix) + textutil.SanitizeFileName(ext)
}
