package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"deckd/internal/playback"
	"deckd/internal/providers"
	"deckd/internal/structures"
)

// NewThumbnailsCmd creates the thumbnails command.
func NewThumbnailsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thumbnails <recording.json>",
		Short: "Render every captured slide to PNG with a headless browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := readRecording(cmd, args[0])
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("out")
			scale, _ := cmd.Flags().GetFloat64("scale")
			level, _ := cmd.Flags().GetString("log-level")

			conf := &structures.Config{}
			conf.Renderer.Headless, _ = cmd.Flags().GetBool("headless")
			conf.Renderer.BrowserURL, _ = cmd.Flags().GetString("browser-url")
			conf.Renderer.Workers, _ = cmd.Flags().GetInt("workers")

			logger, err := providers.NewConsoleLogger(cmd.ErrOrStderr(), level)
			if err != nil {
				return err
			}
			defer logger.Close()

			r := playback.NewRasterizer(conf, logger)
			defer func() { _ = r.Close() }()

			pngs, err := playback.RenderAll(cmd.Context(), r, rec.Snapshots, scale)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			written := 0
			for i, png := range pngs {
				if png == nil {
					continue
				}
				name := filepath.Join(dir, fmt.Sprintf("slide-%02d.png", i+1))
				if err := os.WriteFile(name, png, 0o644); err != nil {
					return err
				}
				written++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d thumbnails to %s\n", written, dir)
			return nil
		},
	}

	cmd.Flags().String("out", "thumbnails", "output directory")
	cmd.Flags().Float64("scale", 0.25, "screenshot scale")
	cmd.Flags().Bool("headless", false, "launch a local headless browser")
	cmd.Flags().String("browser-url", "", "DevTools URL of a running browser")
	cmd.Flags().Int("workers", 2, "pages rendered in parallel")
	cmd.Flags().String("log-level", "warn", "console log level")
	return cmd
}
