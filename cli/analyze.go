package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"cyberguard/models"
	"cyberguard/services"

	"github.com/spf13/cobra"
)

var rawOut bool

var textCmd = &cobra.Command{
	Use:   "text [TEXT]",
	Short: "Analyze text for misinformation",
	Long: `Submit text to the backend. The text is taken from the arguments, or
from stdin when no argument is given or the argument is "-".

Examples:
  cyberguard text "Scientists confirm the moon is made of cheese"
  pbcopy | cyberguard text -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 || text == "-" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			text = string(b)
		}
		return analyze(cmd, models.KindText, text, nil)
	},
}

var imageCmd = &cobra.Command{
	Use:   "image FILE",
	Short: "Analyze an image for deepfakes and manipulation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return analyzeFile(cmd, models.KindImage, args[0])
	},
}

var videoCmd = &cobra.Command{
	Use:   "video FILE",
	Short: "Analyze a video frame by frame",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return analyzeFile(cmd, models.KindVideo, args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{textCmd, imageCmd, videoCmd} {
		c.Flags().BoolVar(&rawOut, "raw", false, "print the backend payload instead of the rendered view")
		rootCmd.AddCommand(c)
	}
}

func analyzeFile(cmd *cobra.Command, kind models.Kind, path string) error {
	upload, err := services.NewFileUpload(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &services.ValidationError{Field: "file", Message: "File not found: " + path}
		}
		return err
	}
	defer upload.Close()
	return analyze(cmd, kind, "", upload)
}

func analyze(cmd *cobra.Command, kind models.Kind, text string, upload *services.Upload) error {
	stop := cancelOnInterrupt()
	defer stop()

	ctx, release := submitter.Begin(context.Background(), cliOwner, kind)
	defer release()

	raw, err := client.Analyze(ctx, kind, text, upload)
	if err != nil {
		return noticeError(ctx, err)
	}
	if rawOut {
		_, err := cmd.OutOrStdout().Write(append(raw, '\n'))
		return err
	}
	view, err := renderer.Render(kind, raw)
	if err != nil {
		return noticeError(ctx, err)
	}
	return writeView(cmd.OutOrStdout(), view)
}

// noticeError turns a submission error into the same message the viewer
// would show as a toast.
func noticeError(ctx context.Context, err error) error {
	if n, ok := services.NoticeFor(ctx, err); ok {
		return errors.New(n.Message)
	}
	return err
}

func writeView(w io.Writer, v *models.View) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return printView(w, v)
}
