package command

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"deckd/internal/models"
)

// readRecording loads and validates a document; "-" reads stdin.
func readRecording(cmd *cobra.Command, path string) (*models.ClickRecording, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	rec, err := models.DecodeRecording(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// output opens the -o target, or stdout when it is empty.
func output(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
