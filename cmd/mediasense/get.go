package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/elsanchez/mediasense/internal/domain"
	"github.com/elsanchez/mediasense/internal/media"
	"github.com/elsanchez/mediasense/internal/session"
	"github.com/elsanchez/mediasense/pkg/client"
)

func runGet(c *cli.Context) (err error) {
	mediaURL, err := media.NormalizeURL(c.Args().First())
	if err != nil {
		return errors.New("URL is required: mediasense get <url> <format-id>")
	}

	// Los flags van antes del URL (urfave/cli deja de leerlos en el primer argumento)
	formatID := c.String("format")
	if formatID == "" {
		formatID = strings.TrimSpace(c.Args().Get(1))
	}
	if formatID == "" {
		return errors.New("format is required: mediasense get <url> <format-id> (see mediasense analyze <url>)")
	}

	a, err := newApp(c, false, true)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	logger := a.logger.Sugar()
	logger.Infof("Downloading from %s into %s", mediaURL, a.cfg.OutputDir)

	saver := client.NewFileSaver(a.client, a.cfg.OutputDir, func(total int64, filename string) io.Writer {
		return progressbar.DefaultBytes(total, "saving "+filename)
	})

	engine := a.newEngine(saver)
	stopEngine := runEngine(c.Context, engine)
	defer func() {
		if serr := stopEngine(); serr != nil {
			err = multierror.Append(err, serr).ErrorOrNil()
		}
	}()

	engine.Dispatch(session.URLChanged{Value: mediaURL})
	engine.Dispatch(session.Submitted{})

	var (
		selected bool
		bar      *progressbar.ProgressBar
	)

	for s := range engine.Updates() {
		if !s.Loading && s.Error != "" {
			return errors.New(s.Error)
		}

		if s.Preview != nil && !selected {
			if _, ok := s.Preview.FindFormat(formatID); !ok {
				return fmt.Errorf("format %q not available, choose one of: %s", formatID, formatIDs(s.Preview))
			}
			logger.Infof("Starting download: %s (format %s)", s.Preview.Title, formatID)
			engine.Dispatch(session.FormatSelected{FormatID: formatID})
			selected = true
			continue
		}

		switch s.Task.Status {
		case domain.TaskDownloading:
			if bar == nil {
				bar = progressbar.Default(100, "processing")
			}
			_ = bar.Set(int(s.Task.Progress))

		case domain.TaskError:
			return errors.New(s.Task.Error)

		case domain.TaskCompleted:
			if bar != nil {
				_ = bar.Finish()
				bar = nil
			}
			switch {
			case s.Task.FilePath != "":
				fmt.Printf("\n✓ Saved to %s\n", s.Task.FilePath)
				return nil
			case s.Task.RetrieveError != "":
				return fmt.Errorf("download finished but the file could not be saved: %s", s.Task.RetrieveError)
			}
		}
	}

	// Updates se cierra cuando el engine se detiene (Ctrl+C)
	return c.Context.Err()
}

func formatIDs(p *domain.MediaPreview) string {
	ids := make([]string, 0, len(p.Formats))
	for _, f := range p.Formats {
		ids = append(ids, f.FormatID)
	}
	return strings.Join(ids, ", ")
}
