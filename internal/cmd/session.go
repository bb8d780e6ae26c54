package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/baseline/internal/filelock"
	"github.com/harrison/baseline/internal/logger"
	"github.com/harrison/baseline/internal/models"
	"github.com/harrison/baseline/internal/progress"
	"github.com/harrison/baseline/internal/session"
)

// NewSessionCommand creates the session command group.
func NewSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Record and review observation sessions",
	}
	cmd.AddCommand(newSessionRecordCommand())
	cmd.AddCommand(newSessionListCommand())
	cmd.AddCommand(newSessionShowCommand())
	cmd.AddCommand(newSessionDeleteCommand())
	return cmd
}

func newSessionRecordCommand() *cobra.Command {
	var focus, location, units, serviceType, participation string

	cmd := &cobra.Command{
		Use:   "record <client-id>",
		Short: "Start a live data-collection session",
		Long: `Starts a live session for the client's active behaviors and reads
data-collection commands from stdin:

  tap <behavior>          count one occurrence (frequency/deceleration)
  start <behavior>        start the behavior's timer
  stop <behavior>         stop the behavior's timer
  interval <behavior>     start the next interval countdown
  yes <behavior>          record interval response: behavior occurred
  no <behavior>           record interval response: behavior did not occur
  correct <behavior>      record a correct trial
  incorrect <behavior>    record an incorrect trial
  undo <behavior>         remove the last recorded trial
  abc <behavior> <antecedent> <consequence>   save an ABC record
  note <text>             set session notes
  status                  show live state for every behavior
  end                     finalize and save the session

Behaviors may be addressed by id or by unambiguous name prefix. The session
autosaves continuously; "end" performs the authoritative save.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			// One live session per data directory.
			lock := filelock.New(cfg.LockPath())
			acquired, err := lock.TryAcquire()
			if err != nil {
				return err
			}
			if !acquired {
				return fmt.Errorf("another baseline session is already running against %s", cfg.DataDir)
			}
			defer lock.Release()

			client, err := s.GetClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			active := client.ActiveBehaviors()
			if len(active) == 0 {
				return fmt.Errorf("client %s has no active behaviors; add one with: baseline client add-behavior", client.Name)
			}

			console := newConsoleLogger(cfg)
			fileLog, err := logger.NewFileLogger(cfg.LogDir(), cfg.LogLevel)
			if err != nil {
				return err
			}
			defer fileLog.Close()
			log := teeLogger{console, fileLog}

			rec := session.NewRecorder(s, log, client,
				session.WithAutosaveInterval(cfg.AutosaveInterval))
			rec.SetMeta(models.SessionNotes{
				Focus:         focus,
				Location:      location,
				Units:         units,
				ServiceType:   serviceType,
				Participation: participation,
			})
			rec.Start(cmd.Context())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s started for %s. Type 'end' to finish, 'status' for live state.\n",
				rec.SessionID(), client.Name)

			// Best-effort final save on abrupt termination.
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				<-sigCh
				rec.End(cmd.Context())
				lock.Release()
				os.Exit(1)
			}()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "end" {
					break
				}
				runSessionCommand(out, rec, client, line)
			}
			if err := scanner.Err(); err != nil {
				log.LogWarn(fmt.Sprintf("input error: %v", err))
			}

			final, err := rec.End(cmd.Context())
			if err != nil {
				// The end-of-session save is the authoritative record; the
				// practitioner must know it did not land.
				return fmt.Errorf("end-of-session save failed: %w", err)
			}
			fmt.Fprintf(out, "Session saved: %s (%s)\n", final.ID,
				progress.FormatSeconds(float64(final.DurationMs)/1000))
			return nil
		},
	}

	cmd.Flags().StringVar(&focus, "focus", "", "session focus")
	cmd.Flags().StringVar(&location, "location", "", "session location")
	cmd.Flags().StringVar(&units, "units", "", "billed units")
	cmd.Flags().StringVar(&serviceType, "service-type", "", "service type")
	cmd.Flags().StringVar(&participation, "participation", "", "client participation level")
	return cmd
}

// teeLogger fans recorder diagnostics to the console and the run log.
type teeLogger struct {
	console *logger.ConsoleLogger
	file    *logger.FileLogger
}

func (t teeLogger) LogDebug(message string) {
	t.console.LogDebug(message)
	t.file.LogDebug(message)
}

func (t teeLogger) LogWarn(message string) {
	t.console.LogWarn(message)
	t.file.LogWarn(message)
}

// runSessionCommand dispatches one line of the live-session loop. Unknown
// behaviors and malformed commands are reported and skipped; nothing here
// ends the session.
func runSessionCommand(out io.Writer, rec *session.Recorder, client *models.Client, line string) {
	fields := strings.Fields(line)
	verb := fields[0]
	args := fields[1:]

	if verb == "status" {
		printSessionStatus(out, rec, client)
		return
	}
	if verb == "note" {
		rec.SetNotes(strings.TrimSpace(strings.TrimPrefix(line, "note")))
		return
	}
	if len(args) == 0 {
		fmt.Fprintf(out, "usage: %s <behavior>\n", verb)
		return
	}

	behavior := resolveBehavior(client, args[0])
	if behavior == nil {
		fmt.Fprintf(out, "unknown behavior %q\n", args[0])
		return
	}
	id := behavior.ID

	switch verb {
	case "tap":
		rec.Tap(id)
	case "start":
		rec.StartTimer(id)
	case "stop":
		rec.StopTimer(id)
	case "interval":
		rec.StartInterval(id)
	case "yes":
		rec.RecordInterval(id, true)
	case "no":
		rec.RecordInterval(id, false)
	case "correct":
		rec.RecordTrial(id, true)
	case "incorrect":
		rec.RecordTrial(id, false)
	case "undo":
		rec.UndoLastTrial(id)
	case "abc":
		if len(args) < 3 {
			fmt.Fprintf(out, "usage: abc <behavior> <antecedent> <consequence>\n")
			return
		}
		err := rec.SaveABC(id, models.ABCRecord{
			Antecedent:  models.Antecedent(args[1]),
			Consequence: models.Consequence(args[2]),
		})
		if err != nil {
			fmt.Fprintf(out, "abc rejected: %v\n", err)
		}
	default:
		fmt.Fprintf(out, "unknown command %q\n", verb)
	}
}

// resolveBehavior finds an active behavior by exact id or unambiguous
// case-insensitive name prefix.
func resolveBehavior(client *models.Client, key string) *models.TargetBehavior {
	if b := client.Behavior(key); b != nil && b.IsActive {
		return b
	}

	var match *models.TargetBehavior
	lower := strings.ToLower(key)
	for i := range client.Behaviors {
		b := &client.Behaviors[i]
		if !b.IsActive || !strings.HasPrefix(strings.ToLower(b.Name), lower) {
			continue
		}
		if match != nil {
			return nil // ambiguous
		}
		match = b
	}
	return match
}

func printSessionStatus(out io.Writer, rec *session.Recorder, client *models.Client) {
	fmt.Fprintf(out, "Session elapsed: %s\n", progress.FormatSeconds(rec.SessionElapsed().Seconds()))
	snap := rec.BuildSnapshot(false)
	for _, data := range snap.Behaviors {
		behavior := client.Behavior(data.BehaviorID)
		line := fmt.Sprintf("  %-24s", data.BehaviorName)
		switch data.DataType {
		case models.DataTypeFrequency, models.DataTypeDeceleration:
			line += fmt.Sprintf(" count=%d", data.Count)
			if data.DataType == models.DataTypeDeceleration {
				line += fmt.Sprintf(" duration=%s abc=%d",
					progress.FormatSeconds(float64(data.TotalDurationMs)/1000), len(data.ABCRecords))
			}
		case models.DataTypeDuration:
			line += fmt.Sprintf(" duration=%s", progress.FormatSeconds(float64(data.TotalDurationMs)/1000))
		case models.DataTypeInterval:
			state := rec.State(data.BehaviorID)
			line += fmt.Sprintf(" intervals=%d", len(data.Intervals))
			if state != nil && state.IntervalRunning() {
				line += fmt.Sprintf(" (%ds left)", state.IntervalRemaining())
			} else if state != nil && state.AwaitingResponse() {
				line += " (awaiting yes/no)"
			}
		case models.DataTypeEvent:
			line += fmt.Sprintf(" trials=%d/%d", data.CorrectTrials, data.TotalTrials)
		}
		if behavior != nil && !behavior.IsActive {
			line += " [inactive]"
		}
		fmt.Fprintln(out, line)
	}
}

func newSessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <client-id>",
		Short: "List a client's sessions, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			sessions, err := s.SessionsByClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, sess := range sessions {
				status := "in progress"
				if sess.Finalized() {
					status = progress.FormatSeconds(float64(sess.DurationMs) / 1000)
				}
				fmt.Fprintf(out, "%s  %s  %s\n", sess.ID, sess.StartTime.Format("2006-01-02 15:04"), status)
			}
			return nil
		},
	}
}

func newSessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's recorded data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
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

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s for %s\n", sess.ID, client.Name)
			fmt.Fprintf(out, "Started: %s\n", sess.StartTime.Format("2006-01-02 15:04:05"))
			if sess.Finalized() {
				fmt.Fprintf(out, "Duration: %s\n", progress.FormatSeconds(float64(sess.DurationMs)/1000))
			}
			if sess.Meta.Focus != "" {
				fmt.Fprintf(out, "Focus: %s\n", sess.Meta.Focus)
			}
			if sess.Meta.Location != "" {
				fmt.Fprintf(out, "Location: %s\n", sess.Meta.Location)
			}
			for _, data := range sess.Behaviors {
				fmt.Fprintf(out, "  %-24s %s\n", data.BehaviorName, summarizeBehaviorData(data))
			}
			if sess.Notes != "" {
				fmt.Fprintf(out, "Notes: %s\n", sess.Notes)
			}
			return nil
		},
	}
}

func summarizeBehaviorData(data models.BehaviorData) string {
	switch data.DataType {
	case models.DataTypeFrequency:
		return fmt.Sprintf("count=%d", data.Count)
	case models.DataTypeDuration:
		return progress.FormatSeconds(float64(data.TotalDurationMs) / 1000)
	case models.DataTypeInterval:
		occurred := 0
		for _, hit := range data.Intervals {
			if hit {
				occurred++
			}
		}
		return fmt.Sprintf("intervals %d/%d occurred", occurred, len(data.Intervals))
	case models.DataTypeEvent:
		return fmt.Sprintf("trials %d/%d correct", data.CorrectTrials, data.TotalTrials)
	case models.DataTypeDeceleration:
		return fmt.Sprintf("count=%d duration=%s abc=%d", data.Count,
			progress.FormatSeconds(float64(data.TotalDurationMs)/1000), len(data.ABCRecords))
	default:
		return ""
	}
}

func newSessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := s.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		},
	}
}
