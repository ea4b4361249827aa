package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"cyberguard/models"
	"cyberguard/services"

	"github.com/spf13/cobra"
)

var renderKind string

var renderCmd = &cobra.Command{
	Use:   "render [FILE]",
	Short: "Render a saved backend payload without contacting the backend",
	Long: `Render reads a raw analysis payload (as printed by --raw, or exported from
the backend) from FILE or stdin and prints the result panel.

Examples:
  cyberguard text --raw "..." > payload.json
  cyberguard render --kind text payload.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := models.ParseKind(renderKind)
		if !ok {
			return fmt.Errorf("unknown kind %q (want text, image or video)", renderKind)
		}

		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		payload, err := io.ReadAll(in)
		if err != nil {
			return err
		}

		view, err := renderer.Render(kind, payload)
		if err != nil {
			return noticeError(cmd.Context(), err)
		}
		return writeView(cmd.OutOrStdout(), view)
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderKind, "kind", "k", "text", "payload kind: text, image, video")
	rootCmd.AddCommand(renderCmd)
}

const rule = "────────────────────────────────────────"

// printView writes the result panel as plain text. Server markup is stripped
// and line-break markers become indented lines.
func printView(w io.Writer, v *models.View) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  [%s]\n", v.Risk.DisplayLabel, v.Kind)
	fmt.Fprintf(&b, "%s %.1f%%\n", meter(v.Risk.Percent), v.Risk.Percent)
	for _, f := range v.Scores {
		fmt.Fprintf(&b, "%s: %s\n", f.Key, services.PlainText(f.Value))
	}

	for _, s := range v.Sections {
		fmt.Fprintf(&b, "\n%s %s\n%s\n", s.Icon, s.Title, rule)
		for _, f := range s.Fields {
			value := services.PlainText(f.Value)
			if f.Multiline || strings.Contains(value, "\n") {
				fmt.Fprintf(&b, "  %s:\n", f.Key)
				for _, line := range strings.Split(value, "\n") {
					fmt.Fprintf(&b, "    %s\n", line)
				}
				continue
			}
			fmt.Fprintf(&b, "  %s: %s\n", f.Key, value)
		}
	}

	b.WriteString("\nRecommendations\n" + rule + "\n")
	for _, r := range v.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", services.PlainText(r))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func meter(percent float64) string {
	n := int(percent/5 + 0.5)
	if n < 0 {
		n = 0
	}
	if n > 20 {
		n = 20
	}
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", 20-n) + "]"
}
