package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	"github.com/elsanchez/mediasense/internal/tui"
	"github.com/elsanchez/mediasense/pkg/client"
)

func runTUI(c *cli.Context) (err error) {
	a, err := newApp(c, true, true)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	a.logger.Sugar().Infof("mediasense v%s starting (service %s)", version, a.cfg.APIURL)

	engine := a.newEngine(client.NewFileSaver(a.client, a.cfg.OutputDir, nil))
	stopEngine := runEngine(c.Context, engine)

	model := tui.NewModel(engine, tui.Options{
		InitialURL: c.Args().First(),
		OutputDir:  a.cfg.OutputDir,
		APIURL:     a.cfg.APIURL,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(c.Context))
	_, runErr := p.Run()

	var result *multierror.Error
	if runErr != nil {
		result = multierror.Append(result, fmt.Errorf("run tui: %w", runErr))
	}
	if err := stopEngine(); err != nil {
		result = multierror.Append(result, fmt.Errorf("stop session: %w", err))
	}
	return result.ErrorOrNil()
}
