package analyzers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log/slog"

	"mercator-hq/vesta/pkg/evidence"
)

// LocalMetadataExtractor reads capture metadata from the item and its payload.
// It never touches the network.
type LocalMetadataExtractor struct {
	logger *slog.Logger
}

// NewMetadataExtractor creates the local metadata extractor.
func NewMetadataExtractor() *LocalMetadataExtractor {
	return &LocalMetadataExtractor{
		logger: slog.Default().With("component", "analyzers.metadata"),
	}
}

// Name returns the analyzer name.
func (e *LocalMetadataExtractor) Name() string { return NameMetadata }

// Capability is always Configured; extraction is local.
func (e *LocalMetadataExtractor) Capability() Capability { return Configured }

// Analyze extracts metadata. An empty payload or one whose length disagrees
// with the declared size is treated as corrupted.
func (e *LocalMetadataExtractor) Analyze(ctx context.Context, item *evidence.EvidenceItem) (*evidence.ExtractedMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("nil evidence item")
	}
	if len(item.Payload) == 0 {
		return nil, fmt.Errorf("item %s has an empty payload", item.ID)
	}
	if item.Metadata.FileSize > 0 && item.Metadata.FileSize != int64(len(item.Payload)) {
		return nil, fmt.Errorf("item %s payload is %d bytes, declared %d",
			item.ID, len(item.Payload), item.Metadata.FileSize)
	}

	meta := &evidence.ExtractedMetadata{
		Device:   item.Metadata.Device,
		FileType: item.Metadata.FileType,
		FileSize: int64(len(item.Payload)),
		FileHash: HashContent(item.Payload),
	}
	if item.Metadata.Timestamp != nil {
		ts := item.Metadata.Timestamp.UTC()
		meta.Timestamp = &ts
	}
	if item.Metadata.Location != nil {
		loc := *item.Metadata.Location
		if loc.Source == "" {
			loc.Source = evidence.LocationManual
		}
		meta.Location = &loc
	}

	if item.Kind() == evidence.KindImage {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(item.Payload))
		if err != nil {
			// HEIC, WebP and similar formats are not decodable locally.
			e.logger.Debug("image dimensions unavailable",
				"item_id", item.ID,
				"file_type", item.Metadata.FileType,
				"error", err,
			)
		} else {
			meta.Width = cfg.Width
			meta.Height = cfg.Height
			meta.Resolution = fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)
			e.logger.Debug("image decoded", "item_id", item.ID, "format", format, "resolution", meta.Resolution)
		}
	}

	return meta, nil
}

// HashContent returns the hex-encoded SHA-256 of the full content, or an
// empty string for empty content.
func HashContent(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
