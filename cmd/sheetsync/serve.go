package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/sheetsync/internal/config"
	"github.com/Veraticus/sheetsync/internal/drive"
	"github.com/Veraticus/sheetsync/internal/server"
	"github.com/Veraticus/sheetsync/internal/transfer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultAddr = ":8080"

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP transfer service",
		Long: `Serve POST /transfers until interrupted.

The listen address comes from --addr, server.addr in the config, or $PORT
when neither is set.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = defaultAddr
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		}
	}

	c, err := newClients(ctx, logger)
	if err != nil {
		return err
	}

	transferer := transfer.NewTransferer(c.drive, c.drive, c.sheets, logger,
		transfer.WithDownloadProgress(func(fileID string, total int64) io.Writer {
			return drive.NewProgressLogger(logger, fileID, total)
		}),
	)

	srv := server.New(transferer, logger, server.Config{
		Addr:     addr,
		Version:  version,
		Defaults: config.LoadTransferDefaults(),
	})

	return srv.ListenAndServe(ctx)
}
