package scraper

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// allowedContentTypes are the media types worth converting to Markdown
var allowedContentTypes = map[string]bool{
	"text/html":             true,
	"text/plain":            true,
	"text/xml":              true,
	"application/xhtml+xml": true,
	"application/xml":       true,
	"application/json":      true,
}

// extensionContentTypes maps file extensions to media types. The table is
// fixed rather than taken from the OS mime database so that server-side
// script extensions (.php, .asp) never get classified as binary.
var extensionContentTypes = map[string]string{
	".html": "text/html", ".htm": "text/html", ".xhtml": "application/xhtml+xml",
	".txt": "text/plain", ".md": "text/plain", ".xml": "application/xml",
	".json": "application/json", ".rss": "application/xml", ".atom": "application/xml",

	".css": "text/css", ".js": "text/javascript", ".mjs": "text/javascript",
	".csv": "text/csv", ".ics": "text/calendar",

	".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png", ".gif": "image/gif",
	".webp": "image/webp", ".svg": "image/svg+xml", ".ico": "image/x-icon", ".bmp": "image/bmp",
	".tif": "image/tiff", ".tiff": "image/tiff", ".avif": "image/avif",

	".mp3": "audio/mpeg", ".wav": "audio/wav", ".ogg": "audio/ogg", ".m4a": "audio/mp4",
	".mp4": "video/mp4", ".webm": "video/webm", ".mov": "video/quicktime", ".avi": "video/x-msvideo",

	".pdf": "application/pdf", ".zip": "application/zip", ".gz": "application/gzip",
	".tgz": "application/gzip", ".tar": "application/x-tar", ".rar": "application/vnd.rar",
	".7z": "application/x-7z-compressed", ".exe": "application/octet-stream",
	".dmg": "application/octet-stream", ".iso": "application/octet-stream",
	".doc": "application/msword", ".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls": "application/vnd.ms-excel", ".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt": "application/vnd.ms-powerpoint", ".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",

	".woff": "font/woff", ".woff2": "font/woff2", ".ttf": "font/ttf", ".otf": "font/otf", ".eot": "application/vnd.ms-fontobject",
}

// ContentTypeForURL guesses the media type from the URL path extension.
// The second result is false when the extension is unknown or absent.
func ContentTypeForURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return "", false
	}

	ct, ok := extensionContentTypes[ext]
	return ct, ok
}

// IsAllowedContentType reports whether a Content-Type header value is text-ish
func IsAllowedContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return allowedContentTypes[strings.ToLower(mediaType)]
}
