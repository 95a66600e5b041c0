package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"savesense/internal/auth"
	"savesense/internal/headless"
	"savesense/internal/intake"
)

type shareFlags struct {
	text     string
	file     string
	mimeType string
	json     bool
}

func shareCommand() *cobra.Command {
	var f shareFlags
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Save one share without interaction",
		Long: `Save a link, a piece of text or a file for the configured session user.
The result is printed as a single notification line. With --json the raw
share payload is read from stdin.`,
		Example: `  savesense share --text "https://www.reddit.com/r/golang/comments/abc/title/"
  savesense share --file /tmp/scan.pdf --mime application/pdf
  echo '{"weburl":"https://example.com","meta":{"title":"Example"}}' | savesense share --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := f.rawIntent(cmd.InOrStdin())
			if err != nil {
				return err
			}
			intent, err := intake.ParseIntent(raw)
			if err != nil {
				return err
			}

			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			session, err := auth.NewStatic(a.cfg.SessionUserID, a.cfg.SessionEmail)
			if err != nil {
				return fmt.Errorf("invalid session configuration: %w", err)
			}

			runner := headless.NewRunner(a.pipeline, session, headless.WriterNotifier{W: cmd.OutOrStdout()}, a.cfg.HeadlessTimeout, a.log)
			_, err = runner.Run(cmd.Context(), intent)
			// The store is closed on return; an abandoned invocation may still be using it.
			runner.Wait()
			return err
		},
	}

	cmd.Flags().StringVar(&f.text, "text", "", "shared text or URL")
	cmd.Flags().StringVar(&f.file, "file", "", "path of a shared file")
	cmd.Flags().StringVar(&f.mimeType, "mime", "", "MIME type of --file")
	cmd.Flags().BoolVar(&f.json, "json", false, "read the raw share payload as JSON from stdin")
	cmd.MarkFlagsMutuallyExclusive("text", "file", "json")
	return cmd
}

func (f shareFlags) rawIntent(stdin io.Reader) (map[string]any, error) {
	switch {
	case f.json:
		var raw map[string]any
		if err := json.NewDecoder(stdin).Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode share payload: %w", err)
		}
		return raw, nil
	case f.file != "":
		if _, err := os.Stat(f.file); err != nil {
			return nil, fmt.Errorf("cannot share file: %w", err)
		}
		return map[string]any{"files": []any{
			map[string]any{"path": f.file, "mimeType": f.mimeType},
		}}, nil
	case f.text != "":
		return map[string]any{"text": f.text}, nil
	}
	return nil, errors.New("one of --text, --file or --json is required")
}
