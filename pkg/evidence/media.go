package evidence

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// MediaKind is the closed set of media categories the pipeline dispatches on.
type MediaKind int

const (
	KindText MediaKind = iota
	KindImage
	KindAudio
	KindVideo
)

// String returns the lowercase kind name.
func (k MediaKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Visual reports whether the kind carries pixels.
func (k MediaKind) Visual() bool {
	switch k {
	case KindImage, KindVideo:
		return true
	case KindAudio, KindText:
		return false
	}
	return false
}

// Audible reports whether the kind carries an audio track.
func (k MediaKind) Audible() bool {
	switch k {
	case KindAudio, KindVideo:
		return true
	case KindImage, KindText:
		return false
	}
	return false
}

// KindFromMIME maps a MIME type to a media kind. Unknown and empty types are
// treated as text submissions.
func KindFromMIME(mimeType string) MediaKind {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	major, _, _ := strings.Cut(mediaType, "/")
	switch major {
	case "image":
		return KindImage
	case "audio":
		return KindAudio
	case "video":
		return KindVideo
	default:
		return KindText
	}
}

// DetectMIME returns the MIME type of a captured file. The extension wins
// when it is registered; otherwise the leading bytes are sniffed.
func DetectMIME(fileName string, data []byte) string {
	if ext := filepath.Ext(fileName); ext != "" {
		if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
			return t
		}
	}
	return http.DetectContentType(data)
}
