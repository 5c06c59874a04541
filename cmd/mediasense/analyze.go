package main

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	"github.com/elsanchez/mediasense/internal/media"
)

func runAnalyze(c *cli.Context) (err error) {
	mediaURL, err := media.NormalizeURL(c.Args().First())
	if err != nil {
		return errors.New("URL is required: mediasense analyze <url>")
	}

	a, err := newApp(c, false, false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	if c.Bool("check") {
		msg, err := a.client.Ping(c.Context)
		if err != nil {
			return fmt.Errorf("service %s unreachable: %w", a.cfg.APIURL, err)
		}
		fmt.Printf("✓ %s (%s)\n\n", msg, a.cfg.APIURL)
	}

	preview, err := a.client.Analyze(c.Context, mediaURL)
	if err != nil {
		return err
	}

	platform := preview.Platform
	if platform == "" {
		platform = media.DetectPlatform(mediaURL)
	}

	fmt.Printf("Title:    %s\n", preview.Title)
	fmt.Printf("Platform: %s\n", platform)
	if preview.Duration != "" {
		fmt.Printf("Duration: %s\n", preview.Duration)
	}

	if len(preview.Formats) == 0 {
		fmt.Println("\nNo formats available")
		return nil
	}

	fmt.Printf("\nFormats (%d):\n\n", len(preview.Formats))
	for _, f := range preview.Formats {
		kind := "video"
		if f.IsAudio() {
			kind = "audio"
		}
		fmt.Printf("  %-12s %-6s %s\n", f.FormatID, kind, f.Label())
	}
	fmt.Printf("\nDownload with: mediasense get %q <ID>\n", mediaURL)

	return nil
}
