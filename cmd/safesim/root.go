package main

import (
	"fmt"
	"io"

	"github.com/safesim/safesim-client/internal/app"
	"github.com/safesim/safesim-client/internal/config"
	"github.com/safesim/safesim-client/internal/logger"
	"github.com/safesim/safesim-client/internal/payload"
	"github.com/safesim/safesim-client/pkg/safesim"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	baseURL string
	stdin   io.Reader
	stdout  io.Writer
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	opts := &rootOptions{stdin: stdin, stdout: stdout}

	cmd := &cobra.Command{
		Use:           "safesim",
		Short:         "Client for the SafeSim simulation backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "backend address (overrides BASE_URL)")

	cmd.AddCommand(
		newSimulateCmd(opts),
		newLogsCmd(opts),
		newSaveConfigCmd(opts),
		newRelayCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	return cfg, nil
}

func (o *rootOptions) client() (*safesim.RemoteClient, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.NewRemoteClient(cfg)
}

func (o *rootOptions) print(resp safesim.RemoteResponse) error {
	_, err := fmt.Fprintln(o.stdout, resp.String())
	return err
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <type>",
		Short: "Start a simulation of the given type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			resp, err := client.StartSimulation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res, err := safesim.DecodeSimulation(resp); err == nil && res.Status != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", res.Status, res.Message)
			}
			return opts.print(resp)
		},
	}
}

func newLogsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Fetch the backend's log records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			resp, err := client.FetchLogs(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(resp)
		},
	}
}

func newSaveConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save-config <file|->",
		Short: "Send a YAML or JSON configuration document to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := payload.Load(args[0], opts.stdin)
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			resp, err := client.SaveConfig(cmd.Context(), doc)
			if err != nil {
				return err
			}
			if res, err := safesim.DecodeConfigResult(resp); err == nil && res.Status != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "save-config: %s\n", res.Status)
			}
			return opts.print(resp)
		},
	}
}

func newRelayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Poll the backend's logs and forward new entries to configured publishers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			log, err := logger.Init(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Close()

			logger.InfoObj("relay starting", "config", cfg)

			r, err := app.NewRelay(cmd.Context(), cfg, log)
			if err != nil {
				logger.ErrorObj("failed to initialize relay", "error", err.Error())
				return err
			}
			if err := r.Run(cmd.Context()); err != nil {
				return fmt.Errorf("relay run: %w", err)
			}
			return nil
		},
	}
}
