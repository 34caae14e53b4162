package command

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"deckd/internal/models"
)

type validateSummary struct {
	File    string                      `json:"file"`
	Version string                      `json:"version"`
	Slides  int                         `json:"slides"`
	Kinds   map[models.SnapshotKind]int `json:"kinds"`
	Zooms   int                         `json:"zooms"`
}

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <recording.json>",
		Short: "Check a ClickRecording document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecording(cmd, args[0])
			if err != nil {
				return err
			}

			summary := validateSummary{File: args[0], Version: rec.Version, Slides: len(rec.Snapshots), Kinds: map[models.SnapshotKind]int{}}
			for i := range rec.Snapshots {
				summary.Kinds[rec.Snapshots[i].Kind]++
				if _, ok := rec.Snapshots[i].ZoomPan(); ok {
					summary.Zooms++
				}
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d slides (%d clicks), %d zoom regions\n",
				summary.File, summary.Slides, summary.Kinds[models.KindClick], summary.Zooms)
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "output in JSON format")
	return cmd
}
