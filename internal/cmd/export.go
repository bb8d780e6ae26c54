package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/baseline/internal/export"
	"github.com/harrison/baseline/internal/filelock"
)

// NewExportCommand creates the export command group.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions and goal reports to CSV and HTML",
	}
	cmd.AddCommand(newExportCSVCommand())
	cmd.AddCommand(newExportABCCommand())
	cmd.AddCommand(newExportReportCommand())
	cmd.AddCommand(newExportGoalReportCommand())
	return cmd
}

// exportPath resolves the destination file, defaulting into the configured
// export directory.
func exportPath(outFlag, exportDir, defaultName string) string {
	if outFlag != "" {
		return outFlag
	}
	return filepath.Join(exportDir, defaultName)
}

// shortID abbreviates an id for filenames. Restored records may carry ids
// shorter than the generated uuids, so the slice is guarded.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newExportCSVCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "csv <session-id>",
		Short: "Export a session's behavior data as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			sess, err := s.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			client, err := s.GetClient(cmd.Context(), sess.ClientID)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.WriteSessionCSV(&buf, client, sess); err != nil {
				return err
			}

			path := exportPath(out, cfg.ExportDir,
				fmt.Sprintf("session-%s-%s.csv", sess.StartTime.Format("20060102"), shortID(sess.ID)))
			if err := filelock.AtomicWrite(path, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output path (default: export dir)")
	return cmd
}

func newExportABCCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "abc <session-id>",
		Short: "Export a session's ABC observations as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			sess, err := s.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.WriteABCLogCSV(&buf, sess); err != nil {
				return err
			}

			path := exportPath(out, cfg.ExportDir,
				fmt.Sprintf("abc-%s-%s.csv", sess.StartTime.Format("20060102"), shortID(sess.ID)))
			if err := filelock.AtomicWrite(path, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output path (default: export dir)")
	return cmd
}

func newExportReportCommand() *cobra.Command {
	var out string
	var markdown bool

	cmd := &cobra.Command{
		Use:   "report <session-id>",
		Short: "Render a session report as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			sess, err := s.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			client, err := s.GetClient(cmd.Context(), sess.ClientID)
			if err != nil {
				return err
			}

			md := export.SessionReportMarkdown(client, sess)
			name := fmt.Sprintf("session-%s-%s", sess.StartTime.Format("20060102"), shortID(sess.ID))
			content := md
			ext := ".md"
			if !markdown {
				html, err := export.RenderHTML(fmt.Sprintf("Session Report: %s", client.Name), md)
				if err != nil {
					return err
				}
				content = html
				ext = ".html"
			}

			path := exportPath(out, cfg.ExportDir, name+ext)
			if err := filelock.AtomicWrite(path, []byte(content)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output path (default: export dir)")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "emit raw markdown instead of HTML")
	return cmd
}

func newExportGoalReportCommand() *cobra.Command {
	var out string
	var markdown bool

	cmd := &cobra.Command{
		Use:   "goal-report <goal-id>",
		Short: "Render a goal progress report as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			goal, err := s.GetGoal(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			md := export.GoalReportMarkdown(goal)
			name := fmt.Sprintf("goal-%s", goal.GoalID)
			content := md
			ext := ".md"
			if !markdown {
				html, err := export.RenderHTML(fmt.Sprintf("Goal %s", goal.GoalID), md)
				if err != nil {
					return err
				}
				content = html
				ext = ".html"
			}

			path := exportPath(out, cfg.ExportDir, name+ext)
			if err := filelock.AtomicWrite(path, []byte(content)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output path (default: export dir)")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "emit raw markdown instead of HTML")
	return cmd
}
