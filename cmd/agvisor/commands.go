package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/griffinb3/agvisor/internal/config"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask a single advisor a question",
	Long: `Ask a single advisor a question.

Examples:
  agvisor ask "When should I plant winter wheat?"
  agvisor ask --advisor financial "Should I lease the new combine?"
  agvisor ask --session north-farm "How is my soil plan looking?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		advisorID, _ := cmd.Flags().GetString("advisor")
		session, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{"message": message}
		if advisorID != "" {
			req["advisor"] = advisorID
		}
		if session != "" {
			req["session_id"] = session
		}

		resp, err := client.post(cmd.Context(), "/api/chat", req)
		if err != nil {
			return err
		}

		var result struct {
			Response string `json:"response"`
			Advisor  struct {
				Name  string `json:"name"`
				Title string `json:"title"`
			} `json:"advisor"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Printf("%s\n\n%s\n",
			colorize(colorBold, fmt.Sprintf("%s, %s", result.Advisor.Name, result.Advisor.Title)),
			result.Response,
		)
		return nil
	},
}

func init() {
	askCmd.Flags().String("advisor", "", "advisor id (see `agvisor advisors`)")
	askCmd.Flags().String("session", "", "session id (default \"default\")")
}

// --- panel ---

var panelCmd = &cobra.Command{
	Use:   "panel <message>",
	Short: "Put a question to the whole advisory panel",
	Long: `Put a question to the whole advisory panel.

Every active advisor answers concurrently. A message addressed to a specific
advisor ("ask the financial advisor about...") is routed to them alone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		session, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{"message": message}
		if session != "" {
			req["session_id"] = session
		}

		resp, err := client.post(cmd.Context(), "/api/panel", req)
		if err != nil {
			return err
		}

		var result struct {
			Mode      string `json:"mode"`
			Responses []struct {
				Name   string `json:"name"`
				Title  string `json:"title"`
				Text   string `json:"response"`
				Failed bool   `json:"error"`
			} `json:"responses"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		for _, r := range result.Responses {
			header := fmt.Sprintf("%s, %s", r.Name, r.Title)
			if r.Failed {
				fmt.Printf("\n%s\n%s\n", colorize(colorRed, header), r.Text)
				continue
			}
			fmt.Printf("\n%s\n%s\n", colorize(colorBold, header), r.Text)
		}
		return nil
	},
}

func init() {
	panelCmd.Flags().String("session", "", "session id (default \"default\")")
}

// --- advisors ---

var advisorsCmd = &cobra.Command{
	Use:   "advisors",
	Short: "List the available advisors",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/advisors")
		if err != nil {
			return err
		}

		var advisors map[string]struct {
			Name      string `json:"name"`
			Title     string `json:"title"`
			Specialty string `json:"specialty"`
			Optional  bool   `json:"optional"`
		}
		if err := decodeJSON(resp, &advisors); err != nil {
			return err
		}

		ids := make([]string, 0, len(advisors))
		for id := range advisors {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			a := advisors[id]
			note := ""
			if a.Optional {
				note = colorize(colorYellow, " (optional)")
			}
			fmt.Printf("%s  %s, %s%s\n", colorize(colorCyan, fmt.Sprintf("%-15s", id)), a.Name, a.Title, note)
			fmt.Printf("%-15s  %s\n", "", a.Specialty)
		}
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the session business profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the session profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/api/profile"
		if session != "" {
			path += "?session_id=" + session
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var prof any
		if err := decodeJSON(resp, &prof); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(prof)
	},
}

// profileFields maps settable keys to their request field names.
var profileFields = map[string]string{
	"business_name":        "business_name",
	"state":                "state",
	"business_type":        "business_type",
	"business_description": "business_description",
	"optional_advisors":    "optional_advisors",
}

var profileSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a profile field",
	Long: `Set a profile field.

Keys: business_name, state, business_type, business_description,
optional_advisors (comma-separated advisor ids).

Examples:
  agvisor profile set business_name "Sunrise Orchard"
  agvisor profile set state Oregon
  agvisor profile set optional_advisors legal,insurance`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		session, _ := cmd.Flags().GetString("session")

		field, ok := profileFields[key]
		if !ok {
			return fmt.Errorf("unknown profile key %q", key)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		// The profile endpoint replaces all fields, so fetch first and merge.
		path := "/api/profile"
		if session != "" {
			path += "?session_id=" + session
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var current map[string]any
		if err := decodeJSON(resp, &current); err != nil {
			return err
		}

		req := map[string]any{
			"business_name":        current["business_name"],
			"state":                current["state"],
			"business_type":        current["business_type"],
			"business_description": current["description"],
			"optional_advisors":    current["optional_advisors"],
		}
		if session != "" {
			req["session_id"] = session
		}
		if field == "optional_advisors" {
			var ids []string
			for _, id := range strings.Split(value, ",") {
				if id = strings.TrimSpace(id); id != "" {
					ids = append(ids, id)
				}
			}
			req[field] = ids
		} else {
			req[field] = value
		}

		saveResp, err := client.post(cmd.Context(), "/api/profile", req)
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(saveResp, &result); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the session profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/api/profile"
		if session != "" {
			path += "?session_id=" + session
		}
		resp, err := client.delete(cmd.Context(), path)
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Profile deleted")
		return nil
	},
}

func init() {
	profileShowCmd.Flags().String("session", "", "session id (default \"default\")")
	profileSetCmd.Flags().String("session", "", "session id (default \"default\")")
	profileResetCmd.Flags().String("session", "", "session id (default \"default\")")
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileResetCmd)
}

// --- clear ---

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear conversation history",
	Long: `Clear conversation history.

Without flags the whole session is cleared. With --advisor only that
advisor's conversation is cleared.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		advisorID, _ := cmd.Flags().GetString("advisor")
		session, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{}
		if advisorID != "" {
			req["advisor"] = advisorID
		}
		if session != "" {
			req["session_id"] = session
		}

		resp, err := client.post(cmd.Context(), "/api/clear", req)
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if advisorID != "" {
			printSuccess("Cleared conversation with %s", advisorID)
		} else {
			printSuccess("Cleared session history")
		}
		return nil
	},
}

func init() {
	clearCmd.Flags().String("advisor", "", "clear only this advisor's conversation")
	clearCmd.Flags().String("session", "", "session id (default \"default\")")
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

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("usage: agvisor config set <key> <value>\nvalid keys: %s", strings.Join(config.ValidKeys(), ", "))
		}
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
