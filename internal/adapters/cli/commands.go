package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"commandx/internal/app"
	"commandx/internal/core"
	"commandx/internal/db"
	"commandx/internal/logger"
)

func (r *runner) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := db.RunMigrations(r.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			log := logger.WithComponent("migrate")
			log.Info().Uint("version", st.Version).Bool("changed", st.Changed).Msg("migrations applied")
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d (dirty=%t)\n", st.Version, st.Dirty)
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := db.RollbackMigrations(r.cfg.DatabaseURL, steps)
			if err != nil {
				return err
			}
			log := logger.WithComponent("migrate")
			log.Warn().Int("steps", steps).Uint("version", st.Version).Msg("migrations rolled back")
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d (dirty=%t)\n", st.Version, st.Dirty)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func (r *runner) companiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "List companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := r.open(cmd.Context(), r.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			companies, err := svc.ListCompanies(cmd.Context())
			if err != nil {
				return err
			}
			if r.asJSON {
				return r.printJSON(cmd.OutOrStdout(), companies)
			}
			for _, c := range companies {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", c.CompanyCode, c.Name)
			}
			return nil
		},
	}
}

func (r *runner) complianceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compliance",
		Short: "Workforce compliance checks",
	}

	var asOf string
	scan := &cobra.Command{
		Use:   "scan",
		Short: "List workers who are out of compliance",
		Example: `  commandx compliance scan --company ACME
  commandx compliance scan --as-of 2025-07-01 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now()
			if asOf != "" {
				t, err := core.ParseDate(asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of date, use YYYY-MM-DD: %w", err)
				}
				when = t
			}
			return r.withService(cmd, func(ctx context.Context, svc app.ApplicationService, code string) error {
				result, err := svc.ScanCompliance(ctx, code, when)
				if err != nil {
					return err
				}
				if r.asJSON {
					return r.printJSON(cmd.OutOrStdout(), result)
				}
				printComplianceScan(cmd, result)
				return nil
			})
		},
	}
	scan.Flags().StringVar(&asOf, "as-of", "", "evaluate as of this date (YYYY-MM-DD, default: today)")

	cmd.AddCommand(scan)
	return cmd
}

func printComplianceScan(cmd *cobra.Command, result *app.ComplianceScanResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Compliance scan for %s as of %s\n", result.CompanyCode, result.AsOf.Format("2006-01-02"))
	if len(result.Personnel) == 0 {
		fmt.Fprintln(out, "All workers are compliant.")
		return
	}
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, pc := range result.Personnel {
		fmt.Fprintf(out, "%-8s %s (#%d)\n", strings.ToUpper(string(pc.Result.Severity)), pc.Personnel.FullName(), pc.Personnel.ID)
		for _, issue := range pc.Result.Issues {
			fmt.Fprintf(out, "         - %s\n", issue)
		}
	}
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "%d worker(s) out of compliance\n", len(result.Personnel))
}

func (r *runner) estimatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimates",
		Short: "Estimate maintenance",
	}

	var status string
	bulk := &cobra.Command{
		Use:     "bulk-status ID...",
		Short:   "Move several estimates to one status",
		Example: `  commandx estimates bulk-status --status sent 12 13 14`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return r.withService(cmd, func(ctx context.Context, svc app.ApplicationService, code string) error {
				result, err := svc.BulkUpdateEstimateStatus(ctx, app.BulkStatusRequest{
					CompanyCode: code,
					IDs:         ids,
					Status:      status,
				})
				if err != nil {
					return err
				}
				if r.asJSON {
					return r.printJSON(cmd.OutOrStdout(), result)
				}
				out := cmd.OutOrStdout()
				for _, item := range result.Items {
					if item.Success {
						fmt.Fprintf(out, "  ok    #%d\n", item.ID)
					} else {
						fmt.Fprintf(out, "  fail  #%d: %s\n", item.ID, item.Error)
					}
				}
				fmt.Fprintf(out, "%d succeeded, %d failed (target %s)\n", result.Succeeded, result.Failed, result.Target)
				if result.Failed > 0 {
					return fmt.Errorf("%d estimate(s) could not be updated", result.Failed)
				}
				return nil
			})
		},
	}
	bulk.Flags().StringVar(&status, "status", "", "target status")
	_ = bulk.MarkFlagRequired("status")

	cmd.AddCommand(bulk)
	return cmd
}

func (r *runner) numbersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "numbers",
		Short: "Document numbering",
	}
	next := &cobra.Command{
		Use:     "next PREFIX",
		Short:   "Show the next number for a prefix without reserving it",
		Example: `  commandx numbers next EST`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withService(cmd, func(ctx context.Context, svc app.ApplicationService, code string) error {
				preview, err := svc.PreviewNextNumber(ctx, code, args[0])
				if err != nil {
					return err
				}
				if r.asJSON {
					return r.printJSON(cmd.OutOrStdout(), preview)
				}
				fmt.Fprintln(cmd.OutOrStdout(), preview.Next)
				return nil
			})
		},
	}
	cmd.AddCommand(next)
	return cmd
}

func (r *runner) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Login management",
	}

	var req app.CreateUserRequest
	create := &cobra.Command{
		Use:     "create",
		Short:   "Create a login for a company",
		Example: `  commandx users create --company ACME --username alice --password 's3cret-pass' --role admin`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withService(cmd, func(ctx context.Context, svc app.ApplicationService, code string) error {
				req.CompanyCode = code
				user, err := svc.CreateUser(ctx, req)
				if err != nil {
					return err
				}
				if r.asJSON {
					return r.printJSON(cmd.OutOrStdout(), user)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %s (#%d, %s) for %s\n", user.Username, user.ID, user.Role, code)
				return nil
			})
		},
	}
	create.Flags().StringVar(&req.Username, "username", "", "login name")
	create.Flags().StringVar(&req.Email, "email", "", "email address")
	create.Flags().StringVar(&req.Password, "password", "", "initial password (min 8 characters)")
	create.Flags().StringVar(&req.Role, "role", core.RoleMember, "admin or member")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func (r *runner) translateCommand() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:     "translate TEXT",
		Short:   "Translate a field note",
		Example: `  commandx translate --to es "Pour the footings after inspection"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := r.open(cmd.Context(), r.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.Translate(cmd.Context(), app.TranslateRequest{Text: args[0], TargetLanguage: target})
			if err != nil {
				return err
			}
			if r.asJSON {
				return r.printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.TranslatedText)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "to", "es", "target language")
	return cmd
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
