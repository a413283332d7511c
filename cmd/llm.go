package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect language model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.QueryOpts{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Purpose, _ = cmd.Flags().GetString("purpose")
		opts.SessionID, _ = cmd.Flags().GetString("session")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(context.Background(), opts)
		if err != nil {
			return fmt.Errorf("query llm events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No model calls recorded.")
			return nil
		}

		const row = "%-5v  %-19s  %-8s  %-26s  %-28s  %6v  %6v  %7v  %s\n"
		fmt.Printf(row, "ID", "Time", "Session", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 122))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Printf(row,
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.SessionID, 8),
				truncate(e.Purpose, 26),
				truncate(e.Model, 28),
				e.InputTokens, e.OutputTokens, e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and reply of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(context.Background(), id)
		if err != nil {
			return fmt.Errorf("get llm event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("llm event %d not found", id)
		}

		fmt.Printf("ID:        %d\n", e.ID)
		fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		if e.SessionID != "" {
			fmt.Printf("Session:   %s\n", e.SessionID)
		}
		fmt.Printf("Purpose:   %s\n", e.Purpose)
		fmt.Printf("Model:     %s (%s)\n", e.Model, e.Provider)
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		if c := llm.LookupCost(e.Model); c != nil {
			fmt.Printf("Cost:      %s\n", formatCost(c.Cost(e.InputTokens, e.OutputTokens)))
		}
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		if !e.Success {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}

		section("REQUEST", e.RequestBody)
		section("REPLY", prettyJSON(e.ResponseBody))
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		var (
			byPurpose []store.PurposeUsage
			byModel   []store.ModelUsage
		)
		ctx := context.Background()
		if sessionID != "" {
			events, err := s.EventRepo().QueryLLMEvents(ctx, store.QueryOpts{SessionID: sessionID})
			if err != nil {
				return fmt.Errorf("query llm events: %w", err)
			}
			byPurpose, byModel = aggregateUsage(events)
		} else {
			if byPurpose, err = s.EventRepo().LLMUsageByPurpose(ctx); err != nil {
				return fmt.Errorf("usage by purpose: %w", err)
			}
			if byModel, err = s.EventRepo().LLMUsageByModel(ctx); err != nil {
				return fmt.Errorf("usage by model: %w", err)
			}
		}
		if len(byPurpose) == 0 {
			fmt.Println("No model calls recorded.")
			return nil
		}

		printPurposeUsage(byPurpose)
		fmt.Println()
		printModelCost(byModel)
		return nil
	},
}

func printPurposeUsage(rows []store.PurposeUsage) {
	const row = "%-26s  %6v  %10v  %10v  %10v  %8v\n"
	fmt.Println("Usage by purpose")
	fmt.Println(strings.Repeat("─", 82))
	fmt.Printf(row, "Purpose", "Calls", "Input", "Output", "Total", "Avg ms")
	fmt.Println(strings.Repeat("─", 82))

	var calls, in, out int
	for _, u := range rows {
		fmt.Printf(row, truncate(u.Purpose, 26), u.Calls, u.InputTokens, u.OutputTokens,
			u.InputTokens+u.OutputTokens, u.AvgLatencyMs)
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
	}
	fmt.Println(strings.Repeat("─", 82))
	fmt.Printf(row, "TOTAL", calls, in, out, in+out, "")
}

func printModelCost(rows []store.ModelUsage) {
	const row = "%-32s  %6v  %10v  %10v  %10s\n"
	fmt.Println("Estimated cost (USD)")
	fmt.Println(strings.Repeat("─", 76))
	fmt.Printf(row, "Model", "Calls", "Input", "Output", "Cost")
	fmt.Println(strings.Repeat("─", 76))

	var total float64
	var unpriced []string
	for _, u := range rows {
		cost := "?"
		if c := llm.LookupCost(u.Model); c != nil {
			usd := c.Cost(u.InputTokens, u.OutputTokens)
			total += usd
			cost = formatCost(usd)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		fmt.Printf(row, truncate(u.Model, 32), u.Calls, u.InputTokens, u.OutputTokens, cost)
	}
	fmt.Println(strings.Repeat("─", 76))
	label := "TOTAL"
	if len(unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Printf(row, label, "", "", "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Printf("\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
	}
}

// aggregateUsage groups events the way LLMUsageByPurpose and
// LLMUsageByModel group the whole table.
func aggregateUsage(events []store.LLMRequestEvent) ([]store.PurposeUsage, []store.ModelUsage) {
	purposes := map[string]*store.PurposeUsage{}
	models := map[string]*store.ModelUsage{}
	latency := map[string]int64{}
	for _, e := range events {
		p := purposes[e.Purpose]
		if p == nil {
			p = &store.PurposeUsage{Purpose: e.Purpose}
			purposes[e.Purpose] = p
		}
		p.Calls++
		p.InputTokens += e.InputTokens
		p.OutputTokens += e.OutputTokens
		latency[e.Purpose] += e.LatencyMs

		m := models[e.Model]
		if m == nil {
			m = &store.ModelUsage{Model: e.Model}
			models[e.Model] = m
		}
		m.Calls++
		m.InputTokens += e.InputTokens
		m.OutputTokens += e.OutputTokens
	}

	byPurpose := make([]store.PurposeUsage, 0, len(purposes))
	for name, p := range purposes {
		p.AvgLatencyMs = latency[name] / int64(p.Calls)
		byPurpose = append(byPurpose, *p)
	}
	sort.Slice(byPurpose, func(i, j int) bool { return byPurpose[i].Purpose < byPurpose[j].Purpose })

	byModel := make([]store.ModelUsage, 0, len(models))
	for _, m := range models {
		byModel = append(byModel, *m)
	}
	sort.Slice(byModel, func(i, j int) bool { return byModel[i].Model < byModel[j].Model })
	return byPurpose, byModel
}

func section(title, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Println()
	fmt.Println(sep)
	fmt.Println(title)
	fmt.Println(sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Println(body)
}

// prettyJSON indents structured replies; anything else is returned as is.
func prettyJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s
	}
	return buf.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only this purpose or family (outline, tutor, tutor:assessment)")
	llmListCmd.Flags().StringP("session", "s", "", "Only calls made for this session")
	llmStatsCmd.Flags().StringP("session", "s", "", "Only calls made for this session")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
