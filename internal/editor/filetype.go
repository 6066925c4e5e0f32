package editor

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extensionLister is the part of the format registry used for dispatch.
type extensionLister interface {
	Supports(path string) bool
}

// GuessType tells how to open name: audio or video from its MIME type,
// transcription when a reader handles its extension, else unknown.
// The content of existing files is sniffed; other names are judged by
// their extension.
func GuessType(name string, formats extensionLister) FileKind {
	switch top := mimeTop(name); top {
	case "audio":
		return FileAudio
	case "video":
		return FileVideo
	}
	if formats != nil && formats.Supports(name) {
		return FileTranscription
	}
	return FileUnknown
}

func mimeTop(name string) string {
	var typ string
	if st, err := os.Stat(name); err == nil && st.Mode().IsRegular() {
		if m, err := mimetype.DetectFile(name); err == nil {
			typ = m.String()
		}
	}
	// Sniffing reports text or octet-stream for headerless files; the
	// extension then decides.
	if typ == "" || strings.HasPrefix(typ, "text/") || strings.HasPrefix(typ, "application/octet-stream") {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
			typ = byExt
		}
	}
	top, _, _ := strings.Cut(typ, "/")
	return top
}
