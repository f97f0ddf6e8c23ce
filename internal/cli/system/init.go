package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/ibadah/internal/cli"
	"github.com/julianstephens/ibadah/internal/logger"
)

type InitCmd struct {
	Force bool `help:"Delete the existing local journal before initializing."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		path := ctx.Store.GetConfigPath()
		if _, err := os.Stat(path); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing journal: %w", err)
			}
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to delete existing journal: %w", err)
			}
			fmt.Printf("Deleted existing journal at: %s\n", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing journal: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized ibadah storage at: %s\n", ctx.Store.GetConfigPath())
	fmt.Printf("Device id: %s\n", ctx.Journal().Session.DeviceID())
	if path := logger.Path(); path != "" {
		fmt.Printf("Logs: %s\n", path)
	}
	return nil
}
