// cmd/agiletrack/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dangerclosesec/agiletrack/internal/auth"
	"github.com/dangerclosesec/agiletrack/internal/cache"
	"github.com/dangerclosesec/agiletrack/internal/config"
	"github.com/dangerclosesec/agiletrack/internal/database"
	"github.com/dangerclosesec/agiletrack/internal/export"
	"github.com/dangerclosesec/agiletrack/internal/metrics"
	"github.com/dangerclosesec/agiletrack/internal/repository"
	"github.com/dangerclosesec/agiletrack/internal/seed"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return database.Migrate(ctx, a.db, a.cfg.Database.SearchPath)
			})
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, organizations and projects from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				res, err := seed.Apply(ctx, a.db, fixtures, a.logger)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("seeded %d users, %d organizations, %d members, %d projects\n",
					res.Users, res.Organizations, res.Members, res.Projects)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "fixtures.yml", "fixtures file")
	return cmd
}

func tokenCmd() *cobra.Command {
	var userID, email, name string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		Long:  "Issue an access token. Without --user the id is looked up by --email.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			email = strings.ToLower(email)

			if userID != "" {
				id, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("loading configuration: %w", err)
				}
				return printToken(cfg, id, email, name)
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				user, err := repository.NewUserRepository(a.db).FindByEmail(ctx, email)
				if err != nil {
					return err
				}
				if name == "" {
					name = user.Name
				}
				return printToken(a.cfg, user.ID, user.Email, name)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func printToken(cfg *config.Config, id uuid.UUID, email, name string) error {
	token, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod).Generate(id, email, name)
	if err != nil {
		return err
	}
	if viper.GetBool("json") {
		return printJSON(map[string]string{"token": token, "userId": id.String()})
	}
	fmt.Println(token)
	return nil
}

func metricsCmd() *cobra.Command {
	var org, project, xlsx string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show a project's metrics report",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := uuid.Parse(project)
			if err != nil {
				return fmt.Errorf("invalid --project: %w", err)
			}
			as := viper.GetString("as")
			if as == "" {
				return fmt.Errorf("--as (or AGILETRACK_AS) is required")
			}

			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				user, err := repository.NewUserRepository(a.db).FindByEmail(ctx, strings.ToLower(as))
				if err != nil {
					return err
				}

				cacheService := service.NewCacheServiceWithStore(cache.NewInMemoryCache(a.cfg.Cache.TTL, 0), a.cfg.Cache.TTL)
				defer cacheService.Close()
				svc := service.NewServices(a.db, cacheService, service.NewLogNotifier(a.logger), a.logger)

				report, err := svc.Metrics.Project(ctx, user.ID, org, projectID)
				if err != nil {
					return err
				}

				if xlsx != "" {
					return writeXLSX(xlsx, report)
				}
				if viper.GetBool("json") {
					return printJSON(report)
				}
				renderReport(report)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization slug")
	cmd.Flags().StringVar(&project, "project", "", "project id")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "write the report to this .xlsx file instead")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func writeXLSX(path string, report *metrics.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.WriteMetricsXLSX(f, report); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func renderReport(r *metrics.Report) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle(r.ProjectName)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Health", r.Health},
		{"Tasks", fmt.Sprintf("%d (%d done, %d in progress, %d blocked)", r.TotalTasks, r.CompletedTasks, r.InProgressTasks, r.BlockedTasks)},
		{"Completion", fmt.Sprintf("%.2f%%", r.TaskCompletionRate)},
		{"Overdue", fmt.Sprintf("%d (%.2f%%)", r.OverdueTasks, r.OverdueRate)},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Budget allocated", fmt.Sprintf("%.2f", r.TotalBudget)},
		{"Budget spent", fmt.Sprintf("%.2f", r.SpentBudget)},
		{"Budget remaining", fmt.Sprintf("%.2f", r.RemainingBudget)},
		{"Utilization", fmt.Sprintf("%.2f%%", r.BudgetUtilization)},
		{"Schedule performance", fmt.Sprintf("%.2f%%", r.SchedulePerformance)},
	})
	tw.Render()

	if len(r.Phases) == 0 {
		return
	}
	pw := table.NewWriter()
	pw.SetOutputMirror(os.Stdout)
	pw.AppendHeader(table.Row{"#", "Phase", "Status", "Tasks", "Done", "Completion"})
	for _, p := range r.Phases {
		pw.AppendRow(table.Row{p.Order, p.Name, p.Status, p.TotalTasks, p.CompletedTasks, fmt.Sprintf("%.2f%%", p.CompletionRate)})
	}
	pw.Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
