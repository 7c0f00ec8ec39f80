package main

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clop/internal/config"
	"clop/internal/fileutil"
	"clop/internal/request"
)

var phaseTitle = cases.Title(language.Und)

// titlePhase renders a progress phase label for display.
func titlePhase(phase string) string {
	return phaseTitle.String(strings.TrimSpace(phase))
}

// detectItemType maps a file onto the item type whose optimiser claims its
// extension.
func detectItemType(cfg *config.Config, path string) (request.ItemType, bool) {
	ext := fileutil.Ext(path)
	switch {
	case ext == "pdf":
		return request.ItemPDF, true
	case extIn(cfg.Image.SupportedExtensions, ext):
		return request.ItemImage, true
	case extIn(cfg.Video.SupportedExtensions, ext):
		return request.ItemVideo, true
	}
	return "", false
}

// shortID abbreviates a request identifier for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func extIn(values []string, ext string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), ext) {
			return true
		}
	}
	return false
}
