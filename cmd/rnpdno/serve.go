package main

import (
	"github.com/loykin/rnpdno/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard catalogs over a read-only HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		doc, err := loadDoc()
		if err != nil {
			return err
		}
		if addr := viper.GetString("addr"); addr != "" {
			doc.Serve.Addr = addr
		}
		ctx := cmd.Context()
		s, err := openSession(ctx, doc)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		srv := server.NewServer(s)
		return server.Run(ctx, doc.Serve.Addr, srv.SetupRoutes())
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides serve.addr)")
	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
}
