package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/hrygo/orbita/plugin/calendar"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Manage the calendar backend",
}

var calendarAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize orbita to use Google Calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, err := loadProfile()
		if err != nil {
			return err
		}
		cfg, err := calendar.LoadOAuthConfig(prof.GoogleClientSecretFile)
		if err != nil {
			return err
		}

		state := shortuuid.New()
		url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
		fmt.Printf("Open this URL in your browser and authorize orbita:\n\n%s\n\nPaste the authorization code: ", url)

		code, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return errors.Wrap(err, "failed to read authorization code")
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return errors.New("authorization code is empty")
		}

		tok, err := cfg.Exchange(cmd.Context(), code)
		if err != nil {
			return errors.Wrap(err, "failed to exchange authorization code")
		}
		if err := calendar.SaveToken(prof.GoogleTokenFile, tok); err != nil {
			return err
		}
		fmt.Printf("Token saved to %s. Set ORBITA_CALENDAR_BACKEND=google to use it.\n", prof.GoogleTokenFile)
		return nil
	},
}

func init() {
	calendarCmd.AddCommand(calendarAuthCmd)
}
