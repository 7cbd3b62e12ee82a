package utils

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"collaborax/models"
)

var (
	imageExt = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|svg)$`)
	pdfExt   = regexp.MustCompile(`(?i)\.pdf$`)
	videoExt = regexp.MustCompile(`(?i)\.(mp4|mov|avi)$`)
)

// DetectFileType classifies an uploaded locker item. The file name extension
// wins; a data: URI payload is sniffed when the name says nothing.
func DetectFileType(name, rawURL string) models.FileType {
	switch {
	case imageExt.MatchString(name):
		return models.FileTypeImage
	case pdfExt.MatchString(name):
		return models.FileTypePDF
	case videoExt.MatchString(name):
		return models.FileTypeVideo
	}

	if mediaType, ok := sniffDataURI(rawURL); ok {
		return fileTypeFromMIME(mediaType)
	}
	return models.FileTypeOther
}

// IsDataURI reports whether s is an embedded data: URI rather than a link.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "data:")
}

// IsExternalLink reports whether s is an absolute http(s) URL.
func IsExternalLink(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func sniffDataURI(s string) (string, bool) {
	if !IsDataURI(s) {
		return "", false
	}
	header, payload, found := strings.Cut(s[len("data:"):], ",")
	if !found {
		return "", false
	}

	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err == nil && len(data) > 0 {
			return mimetype.Detect(data).String(), true
		}
		header = strings.TrimSuffix(header, ";base64")
	}
	if header == "" {
		return "", false
	}
	mediaType, _, _ := strings.Cut(header, ";")
	return mediaType, true
}

func fileTypeFromMIME(mediaType string) models.FileType {
	mediaType = strings.ToLower(mediaType)
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return models.FileTypeImage
	case strings.HasPrefix(mediaType, "video/"):
		return models.FileTypeVideo
	case strings.HasPrefix(mediaType, "application/pdf"):
		return models.FileTypePDF
	}
	return models.FileTypeOther
}
