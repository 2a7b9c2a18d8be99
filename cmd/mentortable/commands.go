package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/mentortable/internal/config"
	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/textutil"
)

// --- ask ---

type askRequest struct {
	Problem  string           `json:"problem"`
	Language string           `json:"language,omitempty"`
	Mentors  []mentor.Profile `json:"mentors"`
}

func newAskRequest(problem string, mentors []string, lang string) (askRequest, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return askRequest{}, errors.New("a problem is required")
	}
	if len(mentors) == 0 {
		return askRequest{}, errors.New("at least one --mentor is required")
	}
	req := askRequest{Problem: problem}
	if lang != "" {
		req.Language = string(textutil.ParseLanguage(lang))
	}
	for _, m := range mentors {
		if m = strings.TrimSpace(m); m != "" {
			req.Mentors = append(req.Mentors, mentor.Profile{ID: m})
		}
	}
	return req, nil
}

func ask(ctx context.Context, c *apiClient, req askRequest) (mentor.Response, string, error) {
	resp, err := c.post(ctx, "/api/mentor-table", req)
	if err != nil {
		return mentor.Response{}, "", err
	}
	id := resp.Header.Get("X-Consultation-ID")
	var out mentor.Response
	if err := decodeJSON(resp, &out); err != nil {
		return mentor.Response{}, "", err
	}
	return out, id, nil
}

var askCmd = &cobra.Command{
	Use:   "ask <problem>",
	Short: "Ask the mentor table about a problem",
	Long: `Ask the mentor table about a problem.

Examples:
  mentortable ask "I am afraid my startup will fail" --mentor bill_gates --mentor warren_buffett
  mentortable ask "我该不该换工作？" --mentor jack_ma --mentor "Grandma" --lang zh-CN`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mentors, _ := cmd.Flags().GetStringArray("mentor")
		lang, _ := cmd.Flags().GetString("lang")
		asJSON, _ := cmd.Flags().GetBool("json")

		req, err := newAskRequest(strings.Join(args, " "), mentors, lang)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, id, err := ask(cmd.Context(), client, req)
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		renderResponse(cmd.OutOrStdout(), resp)
		if id != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), colorize(colorDim, "consultation "+id))
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringArrayP("mentor", "m", nil, "mentor id or name (repeatable)")
	askCmd.Flags().String("lang", "", "reply language: en or zh-CN (detected from the problem when unset)")
	askCmd.Flags().Bool("json", false, "print the raw JSON response")
}

// --- mentors ---

var mentorsCmd = &cobra.Command{
	Use:   "mentors",
	Short: "List the built-in mentors",
	RunE: func(cmd *cobra.Command, args []string) error {
		listMentors(cmd.OutOrStdout(), mentor.DefaultCatalog().All())
		return nil
	},
}

func listMentors(w io.Writer, profiles []mentor.Profile) {
	for _, p := range profiles {
		fmt.Fprintf(w, "%s  %s\n", colorize(colorCyan, fmt.Sprintf("%-16s", p.ID)), p.DisplayName)
		if len(p.CoreValues) > 0 {
			fmt.Fprintf(w, "  %s\n", colorize(colorDim, strings.Join(p.CoreValues, ", ")))
		}
	}
}

// --- consultations ---

var consultationsCmd = &cobra.Command{
	Use:   "consultations",
	Short: "Browse the consultation log",
}

type consultationRow struct {
	ID        string   `json:"id"`
	CreatedAt string   `json:"createdAt"`
	Language  string   `json:"language"`
	Problem   string   `json:"problem"`
	MentorIDs []string `json:"mentorIds"`
	Provider  string   `json:"provider"`
}

var consultationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent consultations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/consultations?limit=%d", limit))
		if err != nil {
			return err
		}

		var rows []consultationRow
		if err := decodeJSON(resp, &rows); err != nil {
			return err
		}
		listConsultations(cmd.OutOrStdout(), rows)
		return nil
	},
}

func listConsultations(w io.Writer, rows []consultationRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No consultations found.")
		return
	}
	for _, c := range rows {
		id := c.ID
		if len(id) > 8 {
			id = id[:8]
		}
		problem := textutil.CollapseWhitespace(c.Problem)
		if short := textutil.Truncate(problem, 80); short != problem {
			problem = short + "..."
		}
		fmt.Fprintf(w, "%s  %s  [%s]  %s\n",
			colorize(colorCyan, id),
			c.CreatedAt,
			strings.Join(c.MentorIDs, ","),
			problem,
		)
	}
}

var consultationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored consultation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/consultations/"+args[0])
		if err != nil {
			return err
		}

		var detail struct {
			consultationRow
			Response *mentor.Response `json:"response"`
		}
		if err := decodeJSON(resp, &detail); err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON || detail.Response == nil {
			return printJSON(cmd.OutOrStdout(), detail)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n\n", colorize(colorBold, "Problem:"), detail.Problem)
		renderResponse(cmd.OutOrStdout(), *detail.Response)
		return nil
	},
}

var consultationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored consultation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/consultations/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Deleted consultation %s", args[0])
		return nil
	},
}

func init() {
	consultationsListCmd.Flags().Int("limit", 20, "maximum number of consultations to list")
	consultationsShowCmd.Flags().Bool("json", false, "print the raw JSON record")
	consultationsCmd.AddCommand(consultationsListCmd)
	consultationsCmd.AddCommand(consultationsShowCmd)
	consultationsCmd.AddCommand(consultationsDeleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", colorize(colorDim, "file:"), config.ConfigFilePath())
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value.\n\nValid keys:\n  " + strings.Join(config.ValidKeys(), "\n  "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
