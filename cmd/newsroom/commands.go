package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"Newsroom/internal/app"
	"Newsroom/internal/config"
	"Newsroom/internal/domain"
	"Newsroom/internal/logging"
)

type rootOptions struct {
	configPath string
	verbose    bool
	ownerID    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "newsroom",
		Short: "News ingestion and draft generation pipeline",
		Long: `newsroom pulls registered news sources into deduplicated feed items and
turns feed items, pautas or free prompts into draft articles.

Example usage:
  newsroom sync                         # Sync every source once
  newsroom serve                        # Sync on the configured interval
  newsroom draft prompt "texto..."      # Draft an article from a prompt
  newsroom draft pauta <id> [<id>...]   # Convert pautas into drafts
  newsroom category add "Economia"      # Register a category for drafts
  newsroom feed prune <id> [<id>...]    # Delete stored feed items

Records only persist across invocations when DATABASE_DSN (or database.dsn)
is set; without it every command runs against a fresh in-memory store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides NEWSROOM_CONFIG)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().StringVar(&opts.ownerID, "owner", "", "owner id (empty means every owner)")

	root.AddCommand(
		newSyncCmd(opts),
		newServeCmd(opts),
		newDraftCmd(opts),
		newSourceCmd(opts),
		newPautaCmd(opts),
		newCategoryCmd(opts),
		newFeedCmd(opts),
	)
	return root
}

func (o *rootOptions) open(ctx context.Context) (*app.Application, *slog.Logger, error) {
	if o.configPath != "" {
		if err := os.Setenv("NEWSROOM_CONFIG", o.configPath); err != nil {
			return nil, nil, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg := config.Load()
	if o.verbose {
		cfg.Logging.Level = "debug"
	}

	logger := logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronize sources once and print the counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			stats, err := application.Sync(cmd.Context(), opts.ownerID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"sources: %d ok, %d failed\nitems: %d found, %d new, %d duplicate, %d failed\n",
				stats.SourcesProcessed, stats.SourcesErrored,
				stats.ItemsFound, stats.ItemsNew, stats.ItemsDuplicate, stats.ItemsFailed)
			return nil
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the recurring sync until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, logger, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			logger.Info("newsroom serving")
			return application.Serve(cmd.Context())
		},
	}
}

func newDraftCmd(opts *rootOptions) *cobra.Command {
	draft := &cobra.Command{
		Use:   "draft",
		Short: "Generate draft articles",
	}

	draft.AddCommand(&cobra.Command{
		Use:   "feed <feed-item-id>",
		Short: "Draft an article from a stored feed item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			article, err := application.Drafts().ConvertFeedItem(cmd.Context(), opts.ownerID, args[0])
			if err != nil {
				return err
			}
			printArticle(cmd, article)
			return nil
		},
	})

	draft.AddCommand(&cobra.Command{
		Use:   "pauta <pauta-id> [<pauta-id>...]",
		Short: "Convert one or more pautas into drafts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			result := application.Drafts().ConvertPautas(cmd.Context(), args)
			for _, article := range result.Drafts {
				printArticle(cmd, article)
			}
			for id, convErr := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "pauta %s: %v\n", id, convErr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed: %d, errored: %d\n", result.Processed, result.Errored)
			if result.Processed == 0 && result.Errored > 0 {
				return fmt.Errorf("no pauta converted")
			}
			return nil
		},
	})

	draft.AddCommand(&cobra.Command{
		Use:   "prompt <text>",
		Short: "Draft an article from free text; URLs in the text are used as sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			article, err := application.Drafts().ConvertPrompt(cmd.Context(), opts.ownerID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printArticle(cmd, article)
			return nil
		},
	})

	return draft
}

func newSourceCmd(opts *rootOptions) *cobra.Command {
	source := &cobra.Command{
		Use:   "source",
		Short: "Manage registered sources",
	}

	source.AddCommand(&cobra.Command{
		Use:   "add <title> <url>",
		Short: "Register a source for the owner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			created, err := application.AddSource(cmd.Context(), opts.ownerID, args[0], args[1])
			if err != nil {
				return err
			}
			warnEphemeral(cmd, application)
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	})
	return source
}

func newPautaCmd(opts *rootOptions) *cobra.Command {
	var (
		summary string
		links   []string
	)

	pauta := &cobra.Command{
		Use:   "pauta",
		Short: "Manage pautas",
	}

	add := &cobra.Command{
		Use:   "add <subject>",
		Short: "Register a pauta with reference links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			refs := make([]domain.Reference, 0, len(links))
			for _, link := range links {
				name, u, found := strings.Cut(link, "=")
				if !found {
					name, u = "", link
				}
				refs = append(refs, domain.Reference{Name: name, URL: u})
			}

			created, err := application.AddPauta(cmd.Context(), domain.Pauta{
				OwnerID: opts.ownerID,
				Subject: args[0],
				Summary: summary,
				Sources: refs,
			})
			if err != nil {
				return err
			}
			warnEphemeral(cmd, application)
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	add.Flags().StringVar(&summary, "summary", "", "short summary of the pauta")
	add.Flags().StringArrayVar(&links, "link", nil, "reference as name=url or url (repeatable)")

	pauta.AddCommand(add)
	return pauta
}

func newCategoryCmd(opts *rootOptions) *cobra.Command {
	category := &cobra.Command{
		Use:   "category",
		Short: "Manage the categories drafts are classified into",
	}

	category.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Register a category for the owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			created, err := application.AddCategory(cmd.Context(), opts.ownerID, args[0])
			if err != nil {
				return err
			}
			warnEphemeral(cmd, application)
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", created.ID, created.Name)
			return nil
		},
	})
	return category
}

func newFeedCmd(opts *rootOptions) *cobra.Command {
	feed := &cobra.Command{
		Use:   "feed",
		Short: "Manage stored feed items",
	}

	feed.AddCommand(&cobra.Command{
		Use:   "prune <feed-item-id> [<feed-item-id>...]",
		Short: "Delete feed items by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			n, err := application.PruneFeedItems(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted: %d of %d\n", n, len(args))
			return nil
		},
	})
	return feed
}

// warnEphemeral tells the user a record written without a database is gone once the command exits.
func warnEphemeral(cmd *cobra.Command, application *app.Application) {
	if !application.Persistent() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no database configured (DATABASE_DSN); this record is kept in memory only")
	}
}

func printArticle(cmd *cobra.Command, article *domain.Article) {
	category := "-"
	if article.CategoryID != nil {
		category = fmt.Sprint(*article.CategoryID)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tcategory=%s tags=%v image=%s\n",
		article.ID, article.Slug, article.Title, category, article.TagIDs, article.Images[0])
}
