package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/aira"
	bt "github.com/fwojciec/aira/bubbletea"
	"github.com/fwojciec/aira/chroma"
	"github.com/fwojciec/aira/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newRootCmd builds the command tree. Each call gets its own viper instance.
func newRootCmd() *cobra.Command {
	v := config.New()
	var configPath string

	root := &cobra.Command{
		Use:               "aira",
		Short:             "Terminal client for a streaming chat backend",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	root.PersistentFlags().String("url", "", "Backend base URL")
	_ = v.BindPFlag("url", root.PersistentFlags().Lookup("url"))

	load := func() (*config.Config, error) {
		return config.Load(v, configPath)
	}

	root.AddCommand(
		newChatCmd(load),
		newAskCmd(load),
		newCSSCmd(v),
	)
	return root
}

func newChatCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger, closeLog, err := newLogger(cfg.LogFile, nil)
			if err != nil {
				return err
			}
			defer closeLog()

			ctrl, err := newController(cfg, logger)
			if err != nil {
				return err
			}
			m := bt.New(ctrl, aira.DefaultTheme())
			if err := bt.Run(cmd.Context(), m); err != nil {
				return fmt.Errorf("TUI: %w", err)
			}
			return nil
		},
	}
}

func newAskCmd(load func() (*config.Config, error)) *cobra.Command {
	var stream bool
	cmd := &cobra.Command{
		Use:   "ask MESSAGE",
		Short: "Send one message and print the rendered markup",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			// Without a log file, warnings go to stderr.
			logger, closeLog, err := newLogger(cfg.LogFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			ctrl, err := newController(cfg, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var onUpdate func(aira.Update)
			if stream {
				onUpdate = func(u aira.Update) {
					if !u.Output.IsFinal {
						fmt.Fprintln(out, u.Output.Markup)
					}
				}
			}
			turn, err := ctrl.Run(cmd.Context(), strings.Join(args, " "), onUpdate)
			if turn.Markup != "" {
				fmt.Fprintln(out, turn.Markup)
			}
			if errors.Is(err, aira.ErrCanceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&stream, "stream", false, "Print every intermediate render")
	return cmd
}

func newCSSCmd(v *viper.Viper) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "css",
		Short: "Print the stylesheet for highlighted code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if style == "" {
				style = v.GetString("highlight_style")
			}
			return chroma.New(chroma.WithStyle(style)).WriteCSS(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "Chroma style name")
	return cmd
}
