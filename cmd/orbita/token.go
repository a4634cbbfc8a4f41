package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/orbita/server/middleware"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user-id")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		prof, err := loadProfile()
		if err != nil {
			return err
		}
		if prof.JWTSecret == "" {
			return errors.New("ORBITA_JWT_SECRET is not set")
		}
		token, err := middleware.NewAccessToken(prof.JWTSecret, userID, ttl, time.Now())
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user-id", "", "user id the token authenticates")
	tokenCmd.Flags().Duration("ttl", 30*24*time.Hour, "token lifetime, 0 for no expiry")
}
