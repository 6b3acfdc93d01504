package audio

import (
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of the file is handed to mimetype
const sniffLen = 3072

// FormatRegistry maps files to the StreamOpener able to read them
type FormatRegistry struct {
	openers []StreamOpener
}

// NewFormatRegistry creates a new empty registry
func NewFormatRegistry() *FormatRegistry {
	slog.Debug("creating new format registry")
	return &FormatRegistry{
		openers: make([]StreamOpener, 0),
	}
}

// NewDefaultFormatRegistry creates a registry with every supported container
func NewDefaultFormatRegistry() *FormatRegistry {
	registry := NewFormatRegistry()

	registry.Register(NewWavOpener())
	registry.Register(NewMp3Opener())
	registry.Register(NewAiffOpener())
	registry.Register(NewFlacOpener())
	registry.Register(NewVorbisOpener())

	slog.Debug("default format registry initialized",
		"supported_formats", registry.SupportedFormats())

	return registry
}

// Register adds an opener to the registry
func (r *FormatRegistry) Register(opener StreamOpener) {
	if opener == nil {
		slog.Warn("attempted to register nil stream opener")
		return
	}

	r.openers = append(r.openers, opener)
	slog.Debug("stream opener registered",
		"format", opener.FormatName(),
		"total_openers", len(r.openers))
}

// SupportedFormats returns a list of all supported format names
func (r *FormatRegistry) SupportedFormats() []string {
	formats := make([]string, 0, len(r.openers))
	for _, opener := range r.openers {
		formats = append(formats, opener.FormatName())
	}
	return formats
}

// DetectFormat picks an opener by filename extension only
func (r *FormatRegistry) DetectFormat(filename string) StreamOpener {
	if filename == "" {
		return nil
	}

	for _, opener := range r.openers {
		if opener.CanDecode(filename) {
			slog.Debug("format detected by extension",
				"filename", filename,
				"format", opener.FormatName())
			return opener
		}
	}

	slog.Debug("no opener found for filename", "filename", filename)
	return nil
}

// DetectFormatWithContent sniffs magic bytes first and falls back to the
// extension. The reader is rewound before returning.
func (r *FormatRegistry) DetectFormatWithContent(filename string, reader io.ReadSeeker) StreamOpener {
	header := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		slog.Debug("failed to read header for magic detection", "error", err)
		n = 0
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		slog.Debug("failed to rewind after sniffing", "error", err)
	}

	if n > 0 {
		mime := strings.ToLower(mimetype.Detect(header[:n]).String())
		slog.Debug("magic byte detection result",
			"filename", filename,
			"detected_mime", mime,
			"bytes_analyzed", n)

		for _, opener := range r.openers {
			if opener.MatchesMIME(mime) {
				slog.Debug("format detected by magic bytes",
					"filename", filename,
					"format", opener.FormatName(),
					"mime_type", mime)
				return opener
			}
		}
	}

	slog.Debug("magic detection failed, falling back to extension", "filename", filename)
	return r.DetectFormat(filename)
}

// hasExtension reports whether filename ends with one of exts
func hasExtension(filename string, exts ...string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// mimeContains reports whether mime contains one of the fragments
func mimeContains(mime string, fragments ...string) bool {
	for _, fragment := range fragments {
		if strings.Contains(mime, fragment) {
			return true
		}
	}
	return false
}
