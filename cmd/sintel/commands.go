package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sintelhq/go-sintel/pkg/client"
)

// addPageFlags wires the pagination flags shared by all paginated commands.
func addPageFlags(cmd *cobra.Command, page, pages *int) {
	cmd.Flags().IntVar(page, "page", 1, "first page to fetch")
	cmd.Flags().IntVar(pages, "pages", 1, "number of pages to fetch (0 = all)")
}

func newUserCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "Show licence, credits and accessible endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			return opts.emit(c.User(cmd.Context()))
		},
	}
}

func newMyIPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "myip",
		Short: "Print the caller-visible IP address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			ip, err := c.MyIP(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Println(ip)
			return nil
		},
	}
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	var page, pages int
	cmd := &cobra.Command{
		Use:   "summary {ip|domain|hostname} <needle>",
		Short: "Latest results across all categories for a needle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			typ := client.SummaryType(args[0])
			return opts.emitPages(cmd.Context(), func(ctx context.Context, p int) client.ResultSeq {
				return c.Summary(ctx, typ, args[1], p)
			}, page, pages)
		},
	}
	addPageFlags(cmd, &page, &pages)
	return cmd
}

func newSimpleCmd(opts *rootOptions) *cobra.Command {
	var page, pages int
	cmd := &cobra.Command{
		Use:   "simple <category> <needle>",
		Short: "Single-category lookup with history of changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			cat := client.Category(args[0])
			return opts.emitPages(cmd.Context(), func(ctx context.Context, p int) client.ResultSeq {
				return c.Simple(ctx, cat, args[1], p)
			}, page, pages)
		},
	}
	addPageFlags(cmd, &page, &pages)
	return cmd
}

func newBestCmd(opts *rootOptions) *cobra.Command {
	var page, pages int
	cmd := &cobra.Command{
		Use:   "best <category> <ip>",
		Short: "Best matching record (smallest subnet) for an IP",
		Long:  "Best-match lookup, restricted to the whois, geoloc, inetnum and threatlist categories.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			cat := client.Category(args[0])
			return opts.emitPages(cmd.Context(), func(ctx context.Context, p int) client.ResultSeq {
				return c.SimpleBest(ctx, cat, args[1], p)
			}, page, pages)
		},
	}
	addPageFlags(cmd, &page, &pages)
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var page, pages int
	cmd := &cobra.Command{
		Use:   "search <oql>",
		Short: "Search the corpus with an OQL query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			return opts.emitPages(cmd.Context(), func(ctx context.Context, p int) client.ResultSeq {
				return c.Search(ctx, args[0], p)
			}, page, pages)
		},
	}
	addPageFlags(cmd, &page, &pages)
	return cmd
}

func newAlertCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage alerts",
	}

	var page, pages int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			return opts.emitPages(cmd.Context(), func(ctx context.Context, p int) client.ResultSeq {
				return c.AlertList(ctx, p)
			}, page, pages)
		},
	}
	addPageFlags(listCmd, &page, &pages)

	var name, email string
	addCmd := &cobra.Command{
		Use:   "add <oql>",
		Short: "Add an alert for an OQL query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			return opts.emit(c.AlertAdd(cmd.Context(), name, args[0], email))
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "alert name")
	addCmd.Flags().StringVar(&email, "email", "", "notification email address")
	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("email")

	delCmd := &cobra.Command{
		Use:   "del <id>",
		Short: "Delete an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			return opts.emit(c.AlertDel(cmd.Context(), args[0]))
		},
	}

	cmd.AddCommand(listCmd, addCmd, delCmd)
	return cmd
}

func newBulkCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Bulk lookups from a needle list file (use - for stdin)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "summary {ip|domain|hostname} <file>",
			Short: "Bulk summary lookup",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.newClient()
				if err != nil {
					return err
				}
				needles, err := readNeedles(args[1])
				if err != nil {
					return err
				}
				return opts.emit(c.BulkSummary(cmd.Context(), client.SummaryType(args[0]), needles))
			},
		},
		&cobra.Command{
			Use:   "simple <category> <file>",
			Short: "Bulk single-category lookup",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.newClient()
				if err != nil {
					return err
				}
				needles, err := readNeedles(args[1])
				if err != nil {
					return err
				}
				return opts.emit(c.BulkSimpleIP(cmd.Context(), client.Category(args[0]), needles))
			},
		},
		&cobra.Command{
			Use:   "best <category> <file>",
			Short: "Bulk best-match lookup",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.newClient()
				if err != nil {
					return err
				}
				needles, err := readNeedles(args[1])
				if err != nil {
					return err
				}
				return opts.emit(c.BulkSimpleBestIP(cmd.Context(), client.Category(args[0]), needles))
			},
		},
		&cobra.Command{
			Use:   "discovery <category> <file>",
			Short: "Bulk OQL search against discovery assets",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := opts.newClient()
				if err != nil {
					return err
				}
				needles, err := readNeedles(args[1])
				if err != nil {
					return err
				}
				return opts.emit(c.BulkDiscoveryAsset(cmd.Context(), client.Category(args[0]), needles))
			},
		},
	)
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <oql>",
		Short: "Stream every record matching an OQL query",
		Long: "Export auto-scrolls through all matching records as NDJSON. " +
			"The server serializes export streams; the client enforces the same " +
			"limit unless --no-gating is set.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient()
			if err != nil {
				return err
			}
			return opts.emit(c.Export(cmd.Context(), args[0]))
		},
	}
}
