package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hitoshi/salesdash/internal/guard"
	"github.com/hitoshi/salesdash/internal/model"
)

// errLoginRequired はコマンドの実行に必要なロールでログインしていないことを示す。
var errLoginRequired = errors.New("login required")

// cli はコマンド間で共有する出力先。
type cli struct {
	out  io.Writer
	logw io.Writer
}

// NewRootCmd はsalesdashのルートコマンドを生成する。コマンドの出力はwに書き込む。
func NewRootCmd(w io.Writer) *cobra.Command {
	c := &cli{out: w, logw: os.Stderr}

	cmd := &cobra.Command{
		Use:           "salesdash",
		Short:         "Role-based sales admin console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(c.serveCmd())
	cmd.AddCommand(c.migrateCmd())
	cmd.AddCommand(c.healthcheckCmd())
	cmd.AddCommand(c.loginCmd())
	cmd.AddCommand(c.logoutCmd())
	cmd.AddCommand(c.whoamiCmd())
	cmd.AddCommand(c.salesCmd())
	cmd.AddCommand(c.salespersonsCmd())
	cmd.AddCommand(c.teamLeadsCmd())
	cmd.AddCommand(c.adminsCmd())
	cmd.AddCommand(c.exportCmd())

	return cmd
}

// withSession は設定を読み込み、保存済みのセッションを復元してからfnを実行する。
func (c *cli) withSession(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	return c.withRuntime(cmd, true, fn)
}

// withRuntime は設定を読み込んでruntimeを構成し、fnを実行する。
// restoreがfalseの場合は保存済みのセッションを読まない。
func (c *cli) withRuntime(cmd *cobra.Command, restore bool, fn func(ctx context.Context, rt *runtime) error) error {
	cfg, err := Init(c.logw)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, slog.Default(), false)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if restore {
		if err := rt.restore(ctx); err != nil {
			return fmt.Errorf("%w (run `salesdash logout` to reset the stored session)", err)
		}
	}
	return fn(ctx, rt)
}

// requireRole はルートガードと同じ判定でコマンドの実行可否を決める。
func requireRole(rt *runtime, allowed ...model.Role) (model.Session, error) {
	var current *model.Session
	if sess, ok := rt.sessions.Current(); ok {
		current = &sess
	}

	if verdict := guard.Decide(current, allowed); !verdict.Allowed() {
		if current == nil {
			return model.Session{}, fmt.Errorf("%w: run `salesdash login` first", errLoginRequired)
		}
		return model.Session{}, fmt.Errorf("%w: role %s cannot run this command", errLoginRequired, current.Role)
	}
	return *current, nil
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the console server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(c.logw)
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}

			rt, err := newRuntime(cfg, slog.Default(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, rt)
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply token store database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Init(c.logw)
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			return runMigrate(cfg)
		},
	}
}

func (c *cli) healthcheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "healthcheck",
		Short: "Check that the console server is healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 軽量サブコマンドのため、フル初期化をスキップする
			port := os.Getenv("SERVER_PORT")
			if port == "" {
				port = "8080"
			}
			return runHealthcheck(port)
		},
	}
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password, role string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email, password and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SALESDASH_PASSWORD")
			}
			if password == "" {
				pw, err := promptPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = pw
			}
			// ログインは以前のセッションに依存しないため、復元しない
			return c.withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
				sess, err := rt.sessions.Login(ctx, email, password, model.Role(role))
				if err != nil {
					return err
				}
				printSession(c.out, sess)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or SALESDASH_PASSWORD, or prompt)")
	cmd.Flags().StringVar(&role, "role", "", "role: super_admin, admin or tl")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("role")

	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// 保存先が読めない状態でもログアウトで消去できるよう、復元しない
			return c.withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
				if err := rt.sessions.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Logged out. Next: %s\n", guard.LoginPath)
				return nil
			})
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, func(ctx context.Context, rt *runtime) error {
				sess, ok := rt.sessions.Current()
				if !ok {
					return fmt.Errorf("%w: not logged in", errLoginRequired)
				}
				printSession(c.out, sess)
				return nil
			})
		},
	}
}

// filterFlags は売上の絞り込み条件のフラグ。
type filterFlags struct {
	page, limit   int
	from, to      string
	teamLead      string
	salespersonID string
}

func (f *filterFlags) register(cmd *cobra.Command, paged bool) {
	if paged {
		cmd.Flags().IntVar(&f.page, "page", 1, "page number")
		cmd.Flags().IntVar(&f.limit, "limit", 10, "rows per page")
	}
	cmd.Flags().StringVar(&f.from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.teamLead, "team-lead", "", "team lead id (super_admin, admin)")
	cmd.Flags().StringVar(&f.salespersonID, "salesperson", "", "salesperson id (tl)")
}

func (f *filterFlags) filter() model.SalesFilter {
	return model.SalesFilter{
		Page:          f.page,
		Limit:         f.limit,
		From:          f.from,
		To:            f.to,
		TeamLeadID:    f.teamLead,
		SalespersonID: f.salespersonID,
	}
}

func (c *cli) salesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "List and manage sales",
	}

	var ff filterFlags
	var pending bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List sales visible to the current role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, func(ctx context.Context, rt *runtime) error {
				allowed := model.Roles()
				if pending {
					allowed = []model.Role{model.RoleAdmin}
				}
				sess, err := requireRole(rt, allowed...)
				if err != nil {
					return err
				}

				var page *model.SalesPage
				switch sess.Role {
				case model.RoleSuperAdmin:
					page, err = rt.dashboards.SuperAdmin.ListSales(ctx, ff.filter())
				case model.RoleAdmin:
					if pending {
						page, err = rt.dashboards.Admin.ListPendingSales(ctx, ff.filter())
					} else {
						page, err = rt.dashboards.Admin.ListSales(ctx, ff.filter())
					}
				case model.RoleTeamLead:
					page, err = rt.dashboards.TeamLead.ListSales(ctx, ff.filter())
				}
				if err != nil {
					return err
				}
				printSales(c.out, page)
				return nil
			})
		},
	}
	ff.register(list, true)
	list.Flags().BoolVar(&pending, "pending", false, "only sales awaiting approval (admin)")

	approve := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, func(ctx context.Context, rt *runtime) error {
				sess, err := requireRole(rt, model.RoleSuperAdmin, model.RoleAdmin)
				if err != nil {
					return err
				}
				if sess.Role == model.RoleSuperAdmin {
					err = rt.dashboards.SuperAdmin.ApproveSale(ctx, args[0])
				} else {
					err = rt.dashboards.Admin.ApproveSale(ctx, args[0])
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Approved sale %s\n", args[0])
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, func(ctx context.Context, rt *runtime) error {
				if _, err := requireRole(rt, model.RoleSuperAdmin); err != nil {
					return err
				}
				if err := rt.dashboards.SuperAdmin.DeleteSale(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Deleted sale %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, approve, del)
	return cmd
}

func (c *cli) salespersonsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "salespersons",
		Short: "Manage salespersons",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List salespersons visible to the current role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, func(ctx context.Context, rt *runtime) error {
				sess, err := requireRole(rt, model.Roles()...)
				if err != nil {
					return err
				}

				var list []model.Salesperson
				switch sess.Role {
				case model.RoleSuperAdmin:
					list, err = rt.dashboards.SuperAdmin.ListSalespersons(ctx)
				case model.RoleAdmin:
					list, err = rt.dashboards.Admin.ListSalespersons(ctx)
				case model.RoleTeamLead:
					list, err = rt.dashboards.TeamLead.ListSalespersons(ctx)
				}
				if err != nil {
					return err
				}
				printSalespersons(c.out, list)
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) teamLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team-leads",
		Short: "Manage team leads",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List team leads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, func(ctx context.Context, rt *runtime) error {
				sess, err := requireRole(rt, model.RoleSuperAdmin, model.RoleAdmin)
				if err != nil {
					return err
				}

				var list []model.Member
				if sess.Role == model.RoleSuperAdmin {
					list, err = rt.dashboards.SuperAdmin.ListTeamLeads(ctx)
				} else {
					list, err = rt.dashboards.Admin.ListTeamLeads(ctx)
				}
				if err != nil {
					return err
				}
				printMembers(c.out, list)
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) adminsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage admins",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, func(ctx context.Context, rt *runtime) error {
				if _, err := requireRole(rt, model.RoleSuperAdmin); err != nil {
					return err
				}
				list, err := rt.dashboards.SuperAdmin.ListAdmins(ctx)
				if err != nil {
					return err
				}
				printMembers(c.out, list)
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var ff filterFlags
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the sales report as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, func(ctx context.Context, rt *runtime) error {
				sess, err := requireRole(rt, model.Roles()...)
				if err != nil {
					return err
				}

				var export func(context.Context, model.SalesFilter, io.Writer) (int64, error)
				switch sess.Role {
				case model.RoleSuperAdmin:
					export = rt.dashboards.SuperAdmin.ExportReport
				case model.RoleAdmin:
					export = rt.dashboards.Admin.ExportReport
				case model.RoleTeamLead:
					export = rt.dashboards.TeamLead.ExportReport
				}

				if out == "-" {
					_, err := export(ctx, ff.filter(), c.out)
					return err
				}
				return exportToFile(out, func(w io.Writer) (int64, error) {
					return export(ctx, ff.filter(), w)
				}, c.out)
			})
		},
	}
	ff.register(cmd, false)
	cmd.Flags().StringVar(&out, "out", "sales-report.csv", "output file (- for stdout)")

	return cmd
}

// exportToFile は一時ファイルに書き出してから置き換える。失敗時は一時ファイルを削除する。
func exportToFile(path string, write func(io.Writer) (int64, error), msg io.Writer) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".salesdash-export-*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := write(tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	if err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(msg, "Wrote %d bytes to %s\n", n, path)
	return nil
}
