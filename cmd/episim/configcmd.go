package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/episim/internal/config"
)

var forceWrite bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "write or check config files",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the resolved configuration to a file (default episim.yaml)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().BoolVarP(&forceWrite, "force", "f", false, "overwrite an existing file")

	checkCmd := &cobra.Command{
		Use:   "check [path]",
		Short: "load a config file and validate it",
		Args:  cobra.ExactArgs(1),
		RunE:  checkConfig,
	}

	cmd.AddCommand(initCmd, checkCmd)
	return cmd
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "episim.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if !forceWrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func checkConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	p := c.Params()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d agents, %d infected, %gs)\n",
		args[0], p.CommunitySize, p.InitialInfected, c.Run.Duration)
	return nil
}
