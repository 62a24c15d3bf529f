package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/statboard/internal/access"
	"github.com/foxzi/statboard/internal/dashboard"
	"github.com/foxzi/statboard/internal/stats"
)

var (
	statsFilters   []string
	statsColumns   []string
	statsLimit     int
	statsCampaigns []string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Statistics and KPI commands",
}

var statsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List statistics rows",
	Long: `List statistics rows from the backend.

Filters are case-insensitive substring matches on a column, for example:
  statboard stats list --filter country=us --filter creative=banner`,
	RunE: withSession(runStatsList),
}

var statsKPICmd = &cobra.Command{
	Use:   "kpi",
	Short: "Show campaign KPIs",
	RunE:  withSession(runStatsKPI),
}

var statsCampaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "List the campaign catalog",
	RunE:  withSession(runStatsCampaigns),
}

func init() {
	statsListCmd.Flags().StringArrayVar(&statsFilters, "filter", nil, "column filter as column=pattern (repeatable)")
	statsListCmd.Flags().StringSliceVar(&statsColumns, "columns",
		[]string{"date", "creative", "country", "impressions", "clicks", "clickRate"}, "columns to show")
	statsListCmd.Flags().IntVar(&statsLimit, "limit", 0, "maximum number of rows to show (0 = all)")
	statsKPICmd.Flags().StringSliceVar(&statsCampaigns, "campaign", nil, "campaign IDs to aggregate (default all)")

	statsCmd.AddCommand(statsListCmd, statsKPICmd, statsCampaignsCmd)
	rootCmd.AddCommand(statsCmd)
}

func loadCampaigns(e *cliEnv) (*stats.CampaignData, error) {
	return stats.LoadCampaignData(e.cfg.Campaigns.DataFile)
}

func runStatsList(ctx context.Context, e *cliEnv, args []string) error {
	if err := e.require(access.RequireUser); err != nil {
		return err
	}

	filters, err := stats.ParseColumnFilters(statsFilters)
	if err != nil {
		return err
	}
	columns, err := resolveColumns(statsColumns)
	if err != nil {
		return err
	}
	format, err := e.formatter()
	if err != nil {
		return err
	}

	view := dashboard.NewStatisticsView(e.client, nil, e.logger)
	defer view.Unmount()

	if err := view.Load(ctx); err != nil {
		return viewError(err)
	}

	rows := view.Filtered(filters)
	total := len(view.State().Rows)
	if len(rows) == 0 {
		if total == 0 {
			fmt.Println("No statistics data available")
		} else {
			fmt.Printf("No rows match the current filters (%d total)\n", total)
		}
		return nil
	}

	shown := rows
	if statsLimit > 0 && len(shown) > statsLimit {
		shown = shown[:statsLimit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	titles := make([]string, len(columns))
	for i, c := range columns {
		titles[i] = strings.ToUpper(c.Title)
	}
	fmt.Fprintln(w, strings.Join(titles, "\t"))
	for i := range shown {
		cells := make([]string, len(columns))
		for j, c := range columns {
			cells[j] = format.Cell(c, &shown[i]).Text
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	fmt.Printf("\nShowing %d of %d rows\n", len(shown), total)
	return nil
}

func resolveColumns(keys []string) ([]stats.Column, error) {
	columns := make([]stats.Column, 0, len(keys))
	for _, key := range keys {
		col, ok := stats.ColumnByKey(strings.TrimSpace(key))
		if !ok {
			return nil, fmt.Errorf("unknown column %q", key)
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func runStatsKPI(ctx context.Context, e *cliEnv, args []string) error {
	if err := e.require(access.RequireUser); err != nil {
		return err
	}

	campaigns, err := loadCampaigns(e)
	if err != nil {
		return err
	}
	format, err := e.formatter()
	if err != nil {
		return err
	}

	for _, id := range statsCampaigns {
		if _, ok := campaigns.Campaign(id); !ok {
			return fmt.Errorf("unknown campaign %q", id)
		}
	}

	kpis := stats.Aggregate(campaigns.Metrics, stats.NewSelection(statsCampaigns...))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, card := range format.KPICards(kpis) {
		fmt.Fprintf(w, "%s:\t%s\n", card.Label, card.Value)
	}
	w.Flush()
	return nil
}

func runStatsCampaigns(ctx context.Context, e *cliEnv, args []string) error {
	if err := e.require(access.RequireUser); err != nil {
		return err
	}

	campaigns, err := loadCampaigns(e)
	if err != nil {
		return err
	}
	if len(campaigns.Campaigns) == 0 {
		fmt.Println("No campaigns configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSTART\tEND")
	for _, c := range campaigns.Campaigns {
		end := c.EndDate
		if end == "" {
			end = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Status, c.StartDate, end)
	}
	w.Flush()
	return nil
}
