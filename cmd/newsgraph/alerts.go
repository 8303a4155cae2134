// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List and acknowledge alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts, newest first",
	RunE:  runAlertsList,
}

var alertsAckCmd = &cobra.Command{
	Use:   "ack ID",
	Short: "Acknowledge an alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsAck,
}

func init() {
	alertsListCmd.Flags().String("type", "", "filter by alert type: topic_surge, story_reactivation, new_actor")
	alertsListCmd.Flags().String("severity", "", "filter by severity: low, medium, high")
	alertsListCmd.Flags().String("since", "", "only alerts triggered on or after this date (YYYY-MM-DD)")
	alertsListCmd.Flags().Bool("unacked", false, "only unacknowledged alerts")
	alertsListCmd.Flags().Int("limit", 50, "maximum number of alerts")
	alertsListCmd.Flags().Bool("json", false, "output alerts as JSON")

	alertsCmd.AddCommand(alertsListCmd, alertsAckCmd)
	rootCmd.AddCommand(alertsCmd)
}

func runAlertsList(cmd *cobra.Command, args []string) error {
	typ, _ := cmd.Flags().GetString("type")
	severity, _ := cmd.Flags().GetString("severity")
	since, _ := cmd.Flags().GetString("since")
	unacked, _ := cmd.Flags().GetBool("unacked")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := store.AlertFilter{
		Type:     types.AlertType(typ),
		Severity: types.Severity(severity),
		Unacked:  unacked,
		Limit:    limit,
	}
	if since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			return fmt.Errorf("invalid --since (want YYYY-MM-DD): %w", err)
		}
		filter.Since = t
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	alerts, err := st.ListAlerts(context.Background(), filter)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(alerts)
	}

	if len(alerts) == 0 {
		fmt.Println("No alerts.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-19s  %-8s  %-4s  %s\n", "ID", "Type", "Severity", "Ack", "Description")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, a := range alerts {
		ack := ""
		if a.Acknowledged {
			ack = "yes"
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-19s  %-8s  %-4s  %s\n", a.ID, a.Type, a.Severity, ack, a.Description)
	}
	return nil
}

func runAlertsAck(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid alert id %q", args[0])
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.AcknowledgeAlert(context.Background(), id); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("no alert with id %d", id)
		}
		return err
	}
	fmt.Printf("Alert %d acknowledged.\n", id)
	return nil
}
