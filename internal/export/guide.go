// Package export turns a recording into formats consumed outside the player:
// a Markdown walkthrough and a YAML camera scenario.
package export

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"deckd/internal/editor"
	"deckd/internal/models"
)

var markdown = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Guide renders the recording as a Markdown walkthrough: one section per
// slide with its label, its script and the page it was captured on.
func Guide(rec *models.ClickRecording) (string, error) {
	store, err := editor.NewStore(rec, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Walkthrough\n")
	for i := 0; i < store.Len(); i++ {
		snap, _ := store.Snapshot(i)
		fmt.Fprintf(&b, "\n## %d. %s\n", i+1, store.Label(i))

		if snap.Kind.IsBookend() {
			writeBookend(&b, snap)
			continue
		}

		if a := snap.Annotation; a != nil && strings.TrimSpace(a.Script) != "" {
			script, err := scriptMarkdown(a.Script, snap.URL)
			if err != nil {
				return "", fmt.Errorf("slide %d: %w", i+1, err)
			}
			if script != "" {
				fmt.Fprintf(&b, "\n%s\n", script)
			}
		}
		if snap.URL != "" {
			fmt.Fprintf(&b, "\nPage: <%s>\n", snap.URL)
		}
	}
	return b.String(), nil
}

func writeBookend(b *strings.Builder, snap models.ClickSnapshot) {
	if snap.Title != "" {
		fmt.Fprintf(b, "\n**%s**\n", snap.Title)
	}
	if snap.Description != "" {
		fmt.Fprintf(b, "\n%s\n", snap.Description)
	}
	if snap.CTALink != "" {
		fmt.Fprintf(b, "\n[%s](%s)\n", snap.CTALink, snap.CTALink)
	}
}

func scriptMarkdown(script, pageURL string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if pageURL != "" {
		opts = append(opts, converter.WithDomain(pageURL))
	}
	out, err := markdown.ConvertString(script, opts...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
