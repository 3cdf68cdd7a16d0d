package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/service"
)

const verifyPageSize = 100

func newReportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Manage stored salary reports",
	}
	cmd.AddCommand(newReportsCreateCommand())
	cmd.AddCommand(newReportsVerifyCommand())
	return cmd
}

func newReportsCreateCommand() *cobra.Command {
	var (
		teacherID, userID, notes string
		year, month              int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate the salary report of a teacher for a month",
		Long: `Generate the salary report of a teacher for a month. An existing report for
the same teacher and month is replaced.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			y, m := resolvePeriod(year, month, currentPeriod)
			req := service.CreateSalaryReportRequest{TeacherID: teacherID, Year: y, Month: m}
			if notes != "" {
				req.Notes = &notes
			}
			return withBackend(cmd, func(b *Backend) error {
				view, err := b.Reports.Create(cmd.Context(), superuser(userID), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report %s created for %s: %s hours, %s\n",
					view.Report.ID, view.Data.Period, view.Report.TotalHours.StringFixed(2), view.Report.TotalAmount.StringFixed(2))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&teacherID, "teacher", "", "teacher id")
	cmd.Flags().StringVar(&userID, "as", "", "id of the superuser recorded as creator")
	cmd.Flags().StringVar(&notes, "notes", "", "optional notes")
	_ = cmd.MarkFlagRequired("teacher")
	_ = cmd.MarkFlagRequired("as")
	addPeriodFlags(cmd, &year, &month)
	return cmd
}

func newReportsVerifyCommand() *cobra.Command {
	var teacherID string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare stored report totals with the recorded work sessions",
		Long: `Recompute every stored salary report and compare it with the totals saved
when it was generated and with the amounts stored on the sessions. Exits
with an error when any report drifted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(b *Backend) error {
				ctx := cmd.Context()
				actor := superuser("")
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "REPORT\tTEACHER\tPERIOD\tSTORED\tCOMPUTED\tSESSION LINES\tSTATUS")

				checked, drifted := 0, 0
				for page := 1; ; page++ {
					reports, pagination, err := b.Reports.List(ctx, actor, models.SalaryReportFilter{TeacherID: teacherID, Page: page, PageSize: verifyPageSize})
					if err != nil {
						return err
					}
					for _, report := range reports {
						result, err := b.Reports.Reconcile(ctx, actor, report.ID)
						if err != nil {
							return fmt.Errorf("reconcile report %s: %w", report.ID, err)
						}
						status := "ok"
						if !result.Consistent {
							status = "DRIFT"
							drifted++
						}
						checked++
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", report.ID, report.TeacherName, result.Period,
							result.StoredAmount.StringFixed(2), result.ComputedAmount.StringFixed(2), result.SessionLinesAmount.StringFixed(2), status)
					}
					if len(reports) == 0 || pagination == nil || page*pagination.PageSize >= pagination.TotalCount {
						break
					}
				}
				if err := tw.Flush(); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "\n%d report(s) checked, %d drifted\n", checked, drifted)
				if drifted > 0 {
					return fmt.Errorf("%d salary report(s) no longer match recorded work", drifted)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&teacherID, "teacher", "", "only verify reports of this teacher")
	return cmd
}

func superuser(userID string) models.Actor {
	return models.Actor{UserID: userID, Role: models.RoleSuperuser}
}
