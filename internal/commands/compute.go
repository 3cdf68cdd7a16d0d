package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
)

var currentPeriod = func() (int, int) {
	now := time.Now()
	return now.Year(), int(now.Month())
}

func newComputeCommand() *cobra.Command {
	var (
		teacherID   string
		year, month int
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute a teacher's salary for a month without storing anything",
		Example: `  payrollctl compute --teacher 5f0c... --year 2024 --month 3
  payrollctl compute --teacher 5f0c... --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			y, m := resolvePeriod(year, month, currentPeriod)
			return withBackend(cmd, func(b *Backend) error {
				data, err := b.Salary.CalculateByID(cmd.Context(), teacherID, y, m)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(data)
				}
				return printReportData(cmd.OutOrStdout(), data)
			})
		},
	}
	cmd.Flags().StringVar(&teacherID, "teacher", "", "teacher id")
	_ = cmd.MarkFlagRequired("teacher")
	addPeriodFlags(cmd, &year, &month)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func printReportData(out io.Writer, data *models.ReportData) error {
	fmt.Fprintf(out, "%s - %s\n\n", data.TeacherName, data.Period)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tSESSIONS\tHOURS\tRATE\tTOTAL")
	for _, s := range data.TaskSummaries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", s.TaskName, s.SessionCount, s.Hours.StringFixed(2), s.Rate.StringFixed(2), s.Total.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal hours:  %s\n", data.TotalHours.StringFixed(2))
	fmt.Fprintf(out, "Total salary: %s\n", data.TotalSalary.StringFixed(2))
	for _, s := range data.Skipped {
		fmt.Fprintf(out, "skipped %s (%s): %s\n", s.SessionID, s.EntryType, s.Reason)
	}
	return nil
}
