package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/baseline/internal/models"
	"github.com/harrison/baseline/internal/progress"
)

// NewGoalCommand creates the treatment-goal command group.
func NewGoalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage treatment goals and progress",
	}
	cmd.AddCommand(newGoalAddCommand())
	cmd.AddCommand(newGoalListCommand())
	cmd.AddCommand(newGoalShowCommand())
	cmd.AddCommand(newGoalProgressCommand())
	cmd.AddCommand(newGoalEvaluateCommand())
	cmd.AddCommand(newGoalDeleteCommand())
	return cmd
}

func newGoalDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <goal-id>",
		Short: "Delete a treatment goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := s.DeleteGoal(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %s\n", args[0])
			return nil
		},
	}
}

func newGoalAddCommand() *cobra.Command {
	var code, category, description, measurement, method string
	var baseline, mastery float64

	cmd := &cobra.Command{
		Use:   "add <client-id>",
		Short: "Add a treatment goal and generate its objective ladder",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			client, err := s.GetClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			now := time.Now()
			goal := &models.TreatmentGoal{
				ID:              uuid.NewString(),
				ClientID:        client.ID,
				GoalID:          code,
				Category:        category,
				Description:     description,
				MeasurementType: models.MeasurementType(measurement),
				Baseline:        baseline,
				MasteryCriteria: mastery,
				Status:          models.StatusNotStarted,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if method == "" {
				goal.ProgressionMethod = progress.SuggestProgressionMethod(goal.MeasurementType, mastery < baseline)
			} else {
				goal.ProgressionMethod = models.ProgressionMethod(method)
			}
			if err := goal.Validate(); err != nil {
				return err
			}

			// The ladder is generated once; targets are fixed afterwards.
			goal.ShortTermObjectives = progress.GenerateSTOs(goal)

			if err := s.PutGoal(cmd.Context(), goal); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created goal %s (%s) with %d objectives [%s]\n",
				goal.GoalID, goal.ID, len(goal.ShortTermObjectives), goal.ProgressionMethod)
			for _, sto := range goal.ShortTermObjectives {
				fmt.Fprintf(out, "  %d. %s\n", sto.STONumber, sto.Description)
			}
			return nil
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&code, "code", "", "practitioner-facing goal code, e.g. DEC-01 (required)")
	cmd.Flags().StringVar(&category, "category", "", "goal category")
	cmd.Flags().StringVar(&description, "description", "", "goal description")
	cmd.Flags().StringVar(&measurement, "measurement", "", "measurement type: count, percentage, duration, trials (required)")
	cmd.Flags().StringVar(&method, "method", "", "progression method: halving, standard_ladder, duration_progression, custom (default: suggested)")
	cmd.Flags().Float64Var(&baseline, "baseline", 0, "baseline value (required)")
	cmd.Flags().Float64Var(&mastery, "mastery", 0, "mastery criteria value (required)")
	cmd.MarkFlagRequired("code")
	cmd.MarkFlagRequired("measurement")
	cmd.MarkFlagRequired("baseline")
	cmd.MarkFlagRequired("mastery")
	return cmd
}

func newGoalListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <client-id>",
		Short: "List a client's treatment goals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			goals, err := s.GoalsByClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range goals {
				trend := progress.ClassifyTrend(g.ProgressData, g.MeasurementType)
				fmt.Fprintf(out, "%s  %-10s %-12s baseline=%g mastery=%g trend=%s\n",
					g.ID, g.GoalID, g.Status, g.Baseline, g.MasteryCriteria, trend)
			}
			return nil
		},
	}
}

func newGoalShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <goal-id>",
		Short: "Show a goal's objectives and computed progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			goal, err := s.GetGoal(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Goal %s: %s\n", goal.GoalID, goal.Description)
			fmt.Fprintf(out, "Baseline %g -> mastery %g (%s, %s)\n",
				goal.Baseline, goal.MasteryCriteria, goal.MeasurementType, goal.ProgressionMethod)

			var current *float64
			for i := len(goal.ProgressData) - 1; i >= 0; i-- {
				if goal.ProgressData[i].Value != nil {
					current = goal.ProgressData[i].Value
					break
				}
			}
			pct := progress.ProgressPercentage(goal.Baseline, current, goal.MasteryCriteria, goal.MeasurementType)
			trend := progress.ClassifyTrend(goal.ProgressData, goal.MeasurementType)
			fmt.Fprintf(out, "Progress: %.0f%%  Trend: %s\n", pct, trend)

			if cur := progress.CurrentSTO(goal); cur != nil {
				fmt.Fprintf(out, "Current objective: %d. %s\n", cur.STONumber, cur.Description)
			}
			for _, sto := range goal.ShortTermObjectives {
				fmt.Fprintf(out, "  %d. [%s] %s (target %g %s)\n",
					sto.STONumber, sto.Status, sto.Description, sto.Target, sto.Unit)
			}
			for _, sample := range goal.ProgressData {
				value := "-"
				if sample.Value != nil {
					value = strconv.FormatFloat(*sample.Value, 'g', -1, 64)
				}
				fmt.Fprintf(out, "  %s: %s\n", sample.Month, value)
			}
			return nil
		},
	}
}

func newGoalProgressCommand() *cobra.Command {
	var month string
	var value float64
	var noData bool

	cmd := &cobra.Command{
		Use:   "record <goal-id>",
		Short: "Record a monthly progress sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			goal, err := s.GetGoal(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if month == "" {
				month = time.Now().Format("2006-01")
			}
			var v *float64
			if !noData {
				v = &value
			}

			goal.RecordSample(month, v)
			if goal.Status == models.StatusNotStarted {
				goal.Status = models.StatusInProgress
			}
			goal.UpdatedAt = time.Now()

			if err := s.PutGoal(cmd.Context(), goal); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for goal %s\n", month, goal.GoalID)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "sample month YYYY-MM (default: current month)")
	cmd.Flags().Float64Var(&value, "value", 0, "sample value")
	cmd.Flags().BoolVar(&noData, "no-data", false, "record the month as having no usable data")
	return cmd
}

func newGoalEvaluateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <goal-id>",
		Short: "Evaluate objective mastery and apply status transitions",
		Long: `Checks the current short-term objective against the three most recent
monthly samples and marks it mastered when all three meet its target. The
engine only evaluates; this command applies the transition. Mastered status
is never reverted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			goal, err := s.GetGoal(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			changed := false
			for {
				cur := progress.CurrentSTO(goal)
				if cur == nil {
					break
				}
				if !progress.CheckSTOMastery(goal, cur) {
					fmt.Fprintf(out, "Objective %d not yet mastered\n", cur.STONumber)
					break
				}
				now := time.Now()
				cur.Status = models.StatusMastered
				cur.MasteryDate = &now
				changed = true
				fmt.Fprintf(out, "Objective %d mastered\n", cur.STONumber)
			}

			if progress.CheckMastery(goal.ProgressData, goal.MasteryCriteria, goal.Decreasing()) &&
				goal.Status != models.StatusMastered {
				goal.Status = models.StatusMastered
				changed = true
				fmt.Fprintf(out, "Goal %s mastered\n", goal.GoalID)
			}

			if changed {
				goal.UpdatedAt = time.Now()
				if err := s.PutGoal(cmd.Context(), goal); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
