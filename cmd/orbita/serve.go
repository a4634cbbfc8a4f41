package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/orbita/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, err := loadProfile()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), prof, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		s := server.NewServer(prof, a.conversation, a.metrics)
		return s.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "address of the HTTP API")
	serveCmd.Flags().Int("port", 8081, "port of the HTTP API")
	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}
