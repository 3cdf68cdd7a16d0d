package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-payroll-api/internal/app"
	"github.com/noah-isme/tutoring-payroll-api/internal/models"
	"github.com/noah-isme/tutoring-payroll-api/internal/service"
	"github.com/noah-isme/tutoring-payroll-api/pkg/config"
	"github.com/noah-isme/tutoring-payroll-api/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
)

type salaryComputer interface {
	CalculateByID(ctx context.Context, teacherID string, year, month int) (*models.ReportData, error)
}

type reportManager interface {
	Create(ctx context.Context, actor models.Actor, req service.CreateSalaryReportRequest) (*models.SalaryReportView, error)
	List(ctx context.Context, actor models.Actor, filter models.SalaryReportFilter) ([]models.SalaryReport, *models.Pagination, error)
	Reconcile(ctx context.Context, actor models.Actor, id string) (*models.ReportReconciliation, error)
}

// Backend is what the commands operate on.
type Backend struct {
	Salary  salaryComputer
	Reports reportManager
	Close   func() error
}

// openBackend connects to the configured database. Tests replace it.
var openBackend = func(ctx context.Context) (*Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Cache.Enabled = false
	cfg.Metrics.Enabled = false

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	container, err := app.Build(ctx, cfg, logr.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))
	if err != nil {
		return nil, err
	}
	return &Backend{Salary: container.Salary, Reports: container.Reports, Close: container.Close}, nil
}

// NewRootCommand assembles the payrollctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "payrollctl",
		Short: "Salary administration for the tutoring payroll service",
		Long: `payrollctl computes monthly teacher salaries, generates salary reports
and checks stored reports against the recorded work sessions.`,
		SilenceUsage: true,
		Version:      fmt.Sprintf("%s (%s)", version, commit),
	}
	root.AddCommand(newComputeCommand())
	root.AddCommand(newReportsCommand())
	return root
}

// SetVersion sets the version information.
func SetVersion(v, c string) {
	version = v
	commit = c
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func withBackend(cmd *cobra.Command, fn func(*Backend) error) error {
	backend, err := openBackend(cmd.Context())
	if err != nil {
		return err
	}
	if backend.Close != nil {
		defer backend.Close() //nolint:errcheck
	}
	return fn(backend)
}

func addPeriodFlags(cmd *cobra.Command, year, month *int) {
	cmd.Flags().IntVar(year, "year", 0, "calendar year (defaults to the current year)")
	cmd.Flags().IntVar(month, "month", 0, "calendar month 1-12 (defaults to the current month)")
}

func resolvePeriod(year, month int, now func() (int, int)) (int, int) {
	cy, cm := now()
	if year == 0 {
		year = cy
	}
	if month == 0 {
		month = cm
	}
	return year, month
}
