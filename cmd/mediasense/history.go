package main

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	"github.com/elsanchez/mediasense/internal/domain"
)

func runHistory(c *cli.Context) (err error) {
	a, err := newApp(c, false, true)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	if a.db == nil {
		return errors.New("history is disabled")
	}

	limit := c.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("invalid limit: %d", limit)
	}

	entries, err := a.db.HistoryRepo.GetRecent(c.Context, limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No downloads found")
		return nil
	}

	fmt.Printf("Recent downloads (%d):\n\n", len(entries))

	for _, e := range entries {
		icon := "✓"
		if e.Status == domain.TaskError {
			icon = "✗"
		}

		fmt.Printf("%s %s  %s\n", icon, e.FinishedAt.Format("2006-01-02 15:04"), e.TaskID)
		if e.Title != "" {
			fmt.Printf("  Title: %s\n", e.Title)
		}
		fmt.Printf("  Platform: %s\n", e.Platform)
		fmt.Printf("  URL: %s\n", e.URL)
		fmt.Printf("  Format: %s\n", e.FormatID)

		if e.OutputPath != "" {
			fmt.Printf("  Output: %s\n", e.OutputPath)
		}
		if e.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", e.ErrorMessage)
		}
		fmt.Println()
	}

	return nil
}
