package main

import (
	"path/filepath"
	"strings"

	tartrans "github.com/polydawn/ustar/transmat/tar"
	"github.com/polydawn/ustar/transmat/util"
	ziptrans "github.com/polydawn/ustar/transmat/zip"
)

func extractorFor(format string) util.ExtractFunc {
	switch format {
	case "zip":
		return ziptrans.ExtractFile
	default:
		return tartrans.ExtractFile
	}
}

// Batch jobs pick their extractor from the file extension.
func formatOf(archivePath string) string {
	if strings.EqualFold(filepath.Ext(archivePath), ".zip") {
		return "zip"
	}
	return "tar"
}
