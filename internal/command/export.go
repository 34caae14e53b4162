package command

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"deckd/internal/export"
	"deckd/internal/models"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <recording.json>",
		Short: "Write a recording as a Markdown guide, a YAML scenario or normalised JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecording(cmd, args[0])
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")

			w, closeFn, err := output(cmd)
			if err != nil {
				return err
			}
			if err := writeExport(w, format, rec); err != nil {
				_ = closeFn()
				return err
			}
			return closeFn()
		},
	}

	cmd.Flags().StringP("format", "f", "guide", "guide, scenario or json")
	cmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	return cmd
}

func writeExport(w io.Writer, format string, rec *models.ClickRecording) error {
	switch format {
	case "guide":
		md, err := export.Guide(rec)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	case "scenario":
		s, err := export.BuildScenario(rec)
		if err != nil {
			return err
		}
		return export.WriteScenario(w, s)
	case "json":
		data, err := models.EncodeRecording(rec)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}
	return fmt.Errorf("unknown export format %q", format)
}
