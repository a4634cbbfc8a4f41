package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lithammer/shortuuid/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/orbita/internal/chat"
	"github.com/hrygo/orbita/plugin/ai/manager"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with orbita in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	// Persistent so that a bare `orbita` accepts them too.
	flags := rootCmd.PersistentFlags()
	flags.String("thread", "", "thread id to resume (default: a new thread)")
	flags.String("user", "", "user id for long-term memory (default: the thread id)")
	_ = viper.BindPFlag("thread", flags.Lookup("thread"))
	_ = viper.BindPFlag("user", flags.Lookup("user"))
}

func runChat(ctx context.Context) error {
	prof, err := loadProfile()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, prof, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := manager.SessionConfig{
		ThreadID: viper.GetString("thread"),
		UserID:   viper.GetString("user"),
	}
	if cfg.ThreadID == "" {
		cfg.ThreadID = shortuuid.New()
	}

	fmt.Fprintf(os.Stdout, "Orbita %s (thread %s). Type \"exit\" or \"quit\" to leave.\n", prof.Version, cfg.ThreadID)
	return chat.NewLoop(a.conversation, cfg, os.Stdin, os.Stdout).Run(ctx)
}
