package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/baseline/internal/models"
)

// NewClientCommand creates the client management command group.
func NewClientCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage clients and their target behaviors",
	}
	cmd.AddCommand(newClientAddCommand())
	cmd.AddCommand(newClientListCommand())
	cmd.AddCommand(newClientShowCommand())
	cmd.AddCommand(newClientDeleteCommand())
	cmd.AddCommand(newBehaviorAddCommand())
	cmd.AddCommand(newBehaviorToggleCommand())
	return cmd
}

func newClientAddCommand() *cobra.Command {
	var name, dob, notes string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new client",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			now := time.Now()
			client := &models.Client{
				ID:        uuid.NewString(),
				Name:      name,
				DOB:       dob,
				Notes:     notes,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.PutClient(cmd.Context(), client); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created client %s (%s)\n", client.Name, client.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "client name (required)")
	cmd.Flags().StringVar(&dob, "dob", "", "date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newClientListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			clients, err := s.ListClients(cmd.Context())
			if err != nil {
				return err
			}
			if len(clients) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clients yet. Add one with: baseline client add --name <name>")
				return nil
			}
			for _, c := range clients {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (%d behaviors)\n", c.ID, c.Name, len(c.Behaviors))
			}
			return nil
		},
	}
}

func newClientShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <client-id>",
		Short: "Show a client and their target behaviors",
		Args:  cobra.ExactArgs(1),
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

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Client: %s\n", client.Name)
			if client.DOB != "" {
				fmt.Fprintf(out, "DOB: %s\n", client.DOB)
			}
			if len(client.Behaviors) == 0 {
				fmt.Fprintln(out, "No target behaviors defined.")
				return nil
			}
			fmt.Fprintln(out, "\nTarget behaviors:")
			for _, b := range client.Behaviors {
				state := "active"
				if !b.IsActive {
					state = "inactive"
				}
				fmt.Fprintf(out, "  %s  %-24s %s/%s  %s\n", b.ID, b.Name, b.DataType, b.Category, state)
			}
			return nil
		},
	}
}

func newClientDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <client-id>",
		Short: "Delete a client record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, cleanup, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := s.DeleteClient(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted client %s\n", args[0])
			return nil
		},
	}
}

func newBehaviorAddCommand() *cobra.Command {
	var name, definition, dataType, category string
	var intervalLen int

	cmd := &cobra.Command{
		Use:   "add-behavior <client-id>",
		Short: "Add a target behavior to a client",
		Args:  cobra.ExactArgs(1),
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

			behavior := models.TargetBehavior{
				ID:                uuid.NewString(),
				ClientID:          client.ID,
				Name:              name,
				Definition:        definition,
				DataType:          models.DataType(dataType),
				Category:          models.BehaviorCategory(category),
				IntervalLengthSec: intervalLen,
				IsActive:          true,
				CreatedAt:         time.Now(),
			}
			if err := behavior.Validate(); err != nil {
				return err
			}

			client.Behaviors = append(client.Behaviors, behavior)
			client.UpdatedAt = time.Now()
			if err := s.PutClient(cmd.Context(), client); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added behavior %s (%s)\n", behavior.Name, behavior.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "behavior name (required)")
	cmd.Flags().StringVar(&definition, "definition", "", "operational definition")
	cmd.Flags().StringVar(&dataType, "type", "", "data type: frequency, duration, interval, event, deceleration (required)")
	cmd.Flags().StringVar(&category, "category", string(models.CategoryAcquisition), "category: acquisition or deceleration")
	cmd.Flags().IntVar(&intervalLen, "interval-length", 0, "interval length in seconds (interval type only)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("type")
	return cmd
}

func newBehaviorToggleCommand() *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:   "set-behavior <client-id> <behavior-id>",
		Short: "Activate or deactivate a target behavior",
		Args:  cobra.ExactArgs(2),
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
			behavior := client.Behavior(args[1])
			if behavior == nil {
				return fmt.Errorf("behavior %s not found on client %s", args[1], client.Name)
			}

			behavior.IsActive = active
			client.UpdatedAt = time.Now()
			if err := s.PutClient(cmd.Context(), client); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Behavior %s active=%t\n", behavior.Name, active)
			return nil
		},
	}

	cmd.Flags().BoolVar(&active, "active", true, "whether the behavior is tracked in new sessions")
	return cmd
}
