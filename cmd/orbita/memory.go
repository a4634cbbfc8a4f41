package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hrygo/orbita/plugin/ai/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect long-term memory",
}

var memoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print what orbita remembers about a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user-id")
		if userID == "" {
			return errors.New("--user-id is required")
		}
		prof, err := loadProfile()
		if err != nil {
			return err
		}
		s, err := openStore(cmd.Context(), prof)
		if err != nil {
			return err
		}
		defer s.Close()

		mc, err := memory.NewLoader(memory.NewPersistentStore(s, 0)).Load(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return writeMemoryYAML(os.Stdout, userID, mc)
	},
}

// memoryDump is the YAML shape of `orbita memory show`.
type memoryDump struct {
	UserID       string               `yaml:"user_id"`
	Profile      *memory.Profile      `yaml:"profile,omitempty"`
	Preferences  []memory.Preference  `yaml:"preferences,omitempty"`
	Instructions []memory.Instruction `yaml:"instructions,omitempty"`
}

func writeMemoryYAML(w io.Writer, userID string, mc *memory.Context) error {
	if mc.IsEmpty() {
		_, err := fmt.Fprintf(w, "# nothing remembered for %s\n", userID)
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(memoryDump{
		UserID:       userID,
		Profile:      mc.Profile,
		Preferences:  mc.Preferences,
		Instructions: mc.Instructions,
	}); err != nil {
		return errors.Wrap(err, "failed to encode memory")
	}
	return enc.Close()
}

func init() {
	memoryShowCmd.Flags().String("user-id", "", "user id whose memory to print")
	memoryCmd.AddCommand(memoryShowCmd)
}
