package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect saved tutoring sessions",
}

// openStore opens the database selected by --db and the config.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		user, _ := cmd.Flags().GetString("user")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		recs, err := s.SessionRepo().List(context.Background(), user, limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(recs) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		fmt.Printf("%-36s  %-12s  %-30s  %-22s  %-12s  %s\n",
			"ID", "User", "Title", "State", "Level", "Updated")
		fmt.Println(strings.Repeat("─", 136))
		for _, r := range recs {
			state := r.State
			if r.Paused {
				state += " (paused)"
			}
			fmt.Printf("%-36s  %-12s  %-30s  %-22s  %-12s  %s\n",
				r.ID,
				truncate(r.UserID, 12),
				truncate(r.Title, 30),
				truncate(state, 22),
				r.StudentLevel,
				r.UpdatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session and its event log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		rec, err := s.SessionRepo().Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if rec == nil {
			return fmt.Errorf("session %s not found", args[0])
		}

		fmt.Printf("ID:        %s\n", rec.ID)
		fmt.Printf("User:      %s\n", rec.UserID)
		fmt.Printf("Chapter:   %s / %s / %s\n", rec.Board, rec.Subject, rec.Chapter)
		fmt.Printf("Title:     %s\n", rec.Title)
		fmt.Printf("State:     %s\n", rec.State)
		fmt.Printf("Paused:    %v\n", rec.Paused)
		if rec.StudentLevel != "" {
			fmt.Printf("Level:     %s\n", rec.StudentLevel)
		}
		fmt.Printf("Created:   %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated:   %s\n", rec.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

		calls, err := s.EventRepo().QueryLLMEvents(ctx, store.QueryOpts{SessionID: rec.ID})
		if err != nil {
			return fmt.Errorf("query llm events: %w", err)
		}
		if len(calls) > 0 {
			_, byModel := aggregateUsage(calls)
			var in, out int
			var usd float64
			for _, u := range byModel {
				in += u.InputTokens
				out += u.OutputTokens
				if c := llm.LookupCost(u.Model); c != nil {
					usd += c.Cost(u.InputTokens, u.OutputTokens)
				}
			}
			fmt.Printf("Model:     %d calls, %d in / %d out tokens, about %s\n", len(calls), in, out, formatCost(usd))
		}

		events, err := s.EventRepo().QueryTutorEvents(ctx, rec.ID, store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if limit > 0 && len(events) > limit {
			events = events[len(events)-limit:]
		}

		fmt.Println()
		fmt.Println(strings.Repeat("─", 60))
		fmt.Printf("EVENTS (%d)\n", len(events))
		fmt.Println(strings.Repeat("─", 60))
		for _, e := range events {
			fmt.Printf("%s  %-20s  %-22s  %s\n",
				e.Timestamp.Local().Format("15:04:05"),
				e.Kind,
				e.State,
				truncate(oneLine(e.Content), 80),
			)
		}
		return nil
	},
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete saved sessions and their events",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		for _, id := range args {
			if err := s.SessionRepo().Delete(ctx, id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			fmt.Println("Deleted", id)
		}
		return nil
	},
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	sessionsListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	sessionsListCmd.Flags().StringP("user", "u", "", "Only show this learner's sessions")
	sessionsShowCmd.Flags().IntP("limit", "n", 50, "Show only the last n events")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsRmCmd)
}
