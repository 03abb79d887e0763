// Package cli is the commandx operator command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"commandx/internal/app"
	"commandx/internal/config"
	"commandx/internal/logger"
)

var version = "0.1.0"

// Opener builds the application service for commands that need one. The
// returned func releases it.
type Opener func(ctx context.Context, cfg *config.Config) (app.ApplicationService, func(), error)

type runner struct {
	cfg     *config.Config
	open    Opener
	company string
	asJSON  bool
}

// NewRootCommand builds the command tree. Migration commands only need
// cfg; everything else goes through open.
func NewRootCommand(cfg *config.Config, open Opener) *cobra.Command {
	r := &runner{cfg: cfg, open: open}

	root := &cobra.Command{
		Use:   "commandx",
		Short: "Command X operator tools",
		Long: `Operator commands for a Command X installation: schema migrations,
compliance scans, bulk estimate changes, number previews and user setup.

Configuration is read from the environment and .env, the same as the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&r.company, "company", "c", cfg.DefaultCompanyCode, "company code (default: COMPANY_CODE, or the only company)")
	root.PersistentFlags().BoolVar(&r.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		r.migrateCommand(),
		r.companiesCommand(),
		r.complianceCommand(),
		r.estimatesCommand(),
		r.numbersCommand(),
		r.usersCommand(),
		r.translateCommand(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, cfg *config.Config, open Opener, args []string) int {
	log := logger.WithComponent("cli")

	root := NewRootCommand(cfg, open)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

// withService opens the service, resolves the company code and runs fn.
func (r *runner) withService(cmd *cobra.Command, fn func(ctx context.Context, svc app.ApplicationService, companyCode string) error) error {
	ctx := cmd.Context()
	svc, closeFn, err := r.open(ctx, r.cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	code := r.company
	if code == "" {
		company, err := svc.LoadDefaultCompany(ctx)
		if err != nil {
			return fmt.Errorf("resolve company: %w", err)
		}
		code = company.CompanyCode
	}
	return fn(ctx, svc, code)
}

func (r *runner) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
