package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/cli"
	"mercator-hq/vesta/pkg/evidence"
)

var captureFlags struct {
	description    string
	mimeType       string
	device         string
	timestamp      string
	lat            float64
	lon            float64
	accuracy       float64
	locationSource string
}

var captureCmd = &cobra.Command{
	Use:   "capture FILE...",
	Short: "Queue evidence files for verification",
	Long: `Queue one or more files in the local evidence queue.

The files are stored durably on the device and verified on the next sync.
The MIME type is detected from the extension or the file content unless
--mime is given. A location applies to every file of the invocation.

Examples:
  # Queue a photo
  vesta capture photo.jpg

  # Queue a recording with a GPS fix
  vesta capture interview.m4a --lat 50.4501 --lon 30.5234 --accuracy 12

  # Queue a written statement with a description
  vesta capture statement.txt --description "witness account, market square"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	f := captureCmd.Flags()
	f.StringVarP(&captureFlags.description, "description", "d", "", "description of the capture")
	f.StringVar(&captureFlags.mimeType, "mime", "", "MIME type (detected when empty)")
	f.StringVar(&captureFlags.device, "device", "", "capture device")
	f.StringVar(&captureFlags.timestamp, "timestamp", "", "capture time (RFC 3339, defaults to the file modification time)")
	f.Float64Var(&captureFlags.lat, "lat", 0, "latitude")
	f.Float64Var(&captureFlags.lon, "lon", 0, "longitude")
	f.Float64Var(&captureFlags.accuracy, "accuracy", 0, "location accuracy in meters")
	f.StringVar(&captureFlags.locationSource, "location-source", string(evidence.LocationGPS), "location source: gps, network, manual")
	captureCmd.MarkFlagsRequiredTogether("lat", "lon")
}

func runCapture(cmd *cobra.Command, args []string) error {
	location, err := captureLocation(cmd)
	if err != nil {
		return err
	}

	var timestamp *time.Time
	if captureFlags.timestamp != "" {
		ts, err := time.Parse(time.RFC3339, captureFlags.timestamp)
		if err != nil {
			return fmt.Errorf("invalid --timestamp: %w", err)
		}
		timestamp = &ts
	}

	a := newApp(cfg)
	defer a.Close()

	q, err := a.Queue()
	if err != nil {
		return cli.NewCommandError("capture", err)
	}

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return cli.NewCommandError("capture", err)
		}
		if len(data) == 0 {
			return cli.NewCommandError("capture", fmt.Errorf("%s: %w", path, evidence.ErrEmptyPayload))
		}

		md := evidence.ItemMetadata{
			FileName:    filepath.Base(path),
			FileType:    captureFlags.mimeType,
			FileSize:    int64(len(data)),
			Timestamp:   timestamp,
			Location:    location,
			Description: captureFlags.description,
			Device:      captureFlags.device,
		}
		if md.FileType == "" {
			md.FileType = evidence.DetectMIME(md.FileName, data)
		}
		if md.Timestamp == nil {
			if info, err := os.Stat(path); err == nil {
				mod := info.ModTime().UTC()
				md.Timestamp = &mod
			}
		}

		id, err := q.Enqueue(cmd.Context(), data, md)
		if err != nil {
			return cli.NewCommandError("capture", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Queued %s (%s, %s) as %s\n",
			md.FileName, evidence.KindFromMIME(md.FileType), md.FileType, id)
	}
	return nil
}

func captureLocation(cmd *cobra.Command) (*evidence.Location, error) {
	if !cmd.Flags().Changed("lat") {
		return nil, nil
	}
	if captureFlags.lat < -90 || captureFlags.lat > 90 {
		return nil, fmt.Errorf("latitude %v outside -90..90", captureFlags.lat)
	}
	if captureFlags.lon < -180 || captureFlags.lon > 180 {
		return nil, fmt.Errorf("longitude %v outside -180..180", captureFlags.lon)
	}

	source := evidence.LocationSource(captureFlags.locationSource)
	switch source {
	case evidence.LocationGPS, evidence.LocationNetwork, evidence.LocationManual:
	default:
		return nil, fmt.Errorf("unknown location source %q", captureFlags.locationSource)
	}

	return &evidence.Location{
		Latitude:  captureFlags.lat,
		Longitude: captureFlags.lon,
		Accuracy:  captureFlags.accuracy,
		Source:    source,
	}, nil
}
