package mime

import "strings"

type MIME = string

const (
	OctetStream MIME = "application/octet-stream"
	Plain       MIME = "text/plain"
	HTML        MIME = "text/html"
	CSS         MIME = "text/css; charset=utf-8"
	JavaScript  MIME = "application/javascript; charset=utf-8"
	JSON        MIME = "application/json"
	PNG         MIME = "image/png"
	JPEG        MIME = "image/jpeg"
	GIF         MIME = "image/gif"
	SVG         MIME = "image/svg+xml"
	ICO         MIME = "image/x-icon"
)

// Extension maps a file extension (with the leading dot, lower-case) to its MIME.
var Extension = map[string]MIME{
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  CSS,
	".js":   JavaScript,
	".json": JSON,
	".png":  PNG,
	".jpg":  JPEG,
	".jpeg": JPEG,
	".gif":  GIF,
	".svg":  SVG,
	".ico":  ICO,
	".txt":  "text/plain; charset=utf-8",
}

// ByExtension returns the MIME for the extension, falling back to OctetStream.
func ByExtension(ext string) MIME {
	if m, ok := Extension[strings.ToLower(ext)]; ok {
		return m
	}

	return OctetStream
}
