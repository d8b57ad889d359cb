package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/itemtranslate/internal"
	"codeberg.org/snonux/itemtranslate/internal/archive"
	"codeberg.org/snonux/itemtranslate/internal/batch"
	"codeberg.org/snonux/itemtranslate/internal/export"
	"codeberg.org/snonux/itemtranslate/internal/httpapi"
	"codeberg.org/snonux/itemtranslate/internal/languages"
	"codeberg.org/snonux/itemtranslate/internal/models"
	"codeberg.org/snonux/itemtranslate/internal/processor"
	"codeberg.org/snonux/itemtranslate/internal/translation"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "itemtranslate",
		Short: "LLM translation for invoice line items",
		Long: `itemtranslate translates invoice item descriptions with hosted LLM
providers (Groq, DeepSeek, OpenAI, Claude, Perplexity, Gemini) and falls
back to the next configured provider when one fails.

Examples:
  itemtranslate translate "Steel bolt M8"           # translate to Arabic with Groq
  itemtranslate translate -t fr -p auto "Washer"    # first configured provider
  itemtranslate bulk --file items.txt --invoice INV-1
  itemtranslate invoice export INV-1 -o inv1.csv
  itemtranslate serve --addr :8080`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newTranslateCommand(flags),
		newBulkCommand(flags),
		newProvidersCommand(flags),
		newLanguagesCommand(flags),
		newValidateKeyCommand(flags),
		newInvoiceCommand(flags),
		newStatsCommand(flags),
		newServeCommand(flags),
		newModelsCommand(flags),
		newArchiveCommand(flags),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.itemtranslate.yaml)")
	pf.StringVar(&flags.EnvFile, "env-file", flags.EnvFile, "dotenv file loaded before the configuration")
	pf.StringVarP(&flags.Provider, "provider", "p", flags.Provider, "Provider: groq, deepseek, openai, claude, perplexity, gemini or auto")
	pf.StringVarP(&flags.TargetLanguage, "target", "t", flags.TargetLanguage, "Target language code")
	pf.StringVarP(&flags.SourceLanguage, "source", "s", flags.SourceLanguage, "Source language code")
	pf.StringSliceVar(&flags.FallbackOrder, "fallback-order", flags.FallbackOrder, "Providers tried after the preferred one fails")
	pf.Float64Var(&flags.BulkRate, "rate", 0, "Bulk provider calls per second, 0 for unlimited")
	pf.StringVar(&flags.StorePath, "store", flags.StorePath, "SQLite record store path")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: console or json")
	pf.BoolVar(&flags.JSON, "json", false, "Print results as JSON")

	bindFlagsToViper(cmd)
}

// newApp builds the application for one command invocation
func newApp(cmd *cobra.Command, flags *Flags) (*App, error) {
	return NewApp(LoadSettings(flags), ConfigKeys{}, cmd.ErrOrStderr())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTranslateCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "translate TEXT...",
		Short: "Translate one text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			result := app.Dispatcher.Translate(cmd.Context(), translation.Request{
				Text:           strings.Join(args, " "),
				TargetLanguage: app.Settings.TargetLanguage,
				SourceLanguage: app.Settings.SourceLanguage,
				Provider:       app.Settings.Provider,
			})

			out := cmd.OutOrStdout()
			if flags.JSON {
				if err := printJSON(out, result); err != nil {
					return err
				}
			} else if result.Success {
				fmt.Fprintln(out, result.TranslatedText)
				fmt.Fprintf(cmd.ErrOrStderr(), "Provider: %s, model: %s, confidence: %.2f, time: %.2fs\n",
					result.ProviderUsed, result.ModelUsed, result.ConfidenceScore, result.ProcessingTime)
				if result.Truncated {
					fmt.Fprintf(cmd.ErrOrStderr(), "Note: text was truncated to %d characters\n", translation.MaxTextLength)
				}
				if result.Warning != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", result.Warning)
				}
			}

			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		},
	}
}

func newBulkCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Translate items from a file (CODE = description per line)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := batch.ReadItemsFile(flags.ItemsFile)
			if err != nil {
				return err
			}

			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			var bulk *translation.BulkResult
			if flags.Invoice != "" {
				proc, err := app.Processor(cmd.Context())
				if err != nil {
					return err
				}
				if _, err := proc.ImportItems(cmd.Context(), flags.Invoice, items); err != nil {
					return err
				}
				report, err := proc.TranslateInvoice(cmd.Context(), flags.Invoice,
					app.Settings.TargetLanguage, app.Settings.Provider, processor.InvoiceOptions{})
				if err != nil {
					return err
				}
				bulk = report.Bulk
			} else {
				bulk = app.Dispatcher.TranslateBulk(cmd.Context(), items, app.Settings.TargetLanguage, app.Settings.Provider)
			}

			return printBulk(cmd.OutOrStdout(), bulk, flags.JSON)
		},
	}

	cmd.Flags().StringVarP(&flags.ItemsFile, "file", "f", "", "Items file, one item per line")
	cmd.Flags().StringVar(&flags.Invoice, "invoice", "", "Store the items and translations under this invoice")
	cmd.MarkFlagRequired("file")
	return cmd
}

func printBulk(w io.Writer, bulk *translation.BulkResult, asJSON bool) error {
	if asJSON {
		return printJSON(w, bulk)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range bulk.Results {
		if r.Result.Success {
			fmt.Fprintf(tw, "%s\tok\t%s\t%s\n", r.ItemID, r.Result.ProviderUsed, r.Result.TranslatedText)
		} else {
			fmt.Fprintf(tw, "%s\tfailed\t\t%s\n", r.ItemID, r.Result.Error)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := bulk.Summary
	fmt.Fprintf(w, "\n=== Bulk Translation Summary ===\n")
	fmt.Fprintf(w, "Provider: %s, target: %s\n", bulk.Provider, bulk.TargetLanguage)
	fmt.Fprintf(w, "Total items: %d\n", s.TotalItems)
	fmt.Fprintf(w, "Translated: %d\n", s.SuccessfulTranslations)
	fmt.Fprintf(w, "Failed: %d\n", s.FailedTranslations)
	fmt.Fprintf(w, "Average time: %.2fs\n", s.AverageProcessingTime)
	return nil
}

func newProvidersCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers and whether they are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			infos := app.Registry.Describe(app.Keys)

			if flags.JSON {
				return printJSON(cmd.OutOrStdout(), infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tCONFIGURED\tMODEL\tSPEED\tQUALITY\tCOST\tKEY")
			for _, info := range infos {
				configured := "no"
				if info.Configured {
					configured = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					info.Name, configured, info.DefaultModel, info.Speed, info.Quality, info.Cost, info.EnvVar)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nFallback order: %s\n", strings.Join(app.Dispatcher.FallbackOrder(), ", "))
			return nil
		},
	}
}

func newLanguagesCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported target languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := languages.All()
			if flags.JSON {
				return printJSON(cmd.OutOrStdout(), all)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, lang := range all {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", lang.Code, lang.Name, lang.Native)
			}
			return tw.Flush()
		},
	}
}

func newValidateKeyCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-key PROVIDER [KEY]",
		Short: "Probe a provider with an API key (the configured key by default)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}

			key := app.Keys.APIKey(args[0])
			if len(args) == 2 {
				key = args[1]
			}

			validation := app.Registry.ValidateKey(cmd.Context(), args[0], key)
			if flags.JSON {
				if err := printJSON(cmd.OutOrStdout(), validation); err != nil {
					return err
				}
			} else if validation.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: API key is valid\n", validation.Provider)
			}

			if !validation.Valid {
				return fmt.Errorf("%s: invalid API key: %s", validation.Provider, validation.Error)
			}
			return nil
		},
	}
}

func newInvoiceCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Translate, export or reset stored invoice items",
	}

	translateCmd := &cobra.Command{
		Use:   "translate INVOICE",
		Short: "Translate all items of an invoice and store the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			proc, err := app.Processor(cmd.Context())
			if err != nil {
				return err
			}

			// Explicit flags override the invoice selectors, config defaults do not
			target, provider := "", ""
			if cmd.Flags().Changed("target") {
				target = flags.TargetLanguage
			}
			if cmd.Flags().Changed("provider") {
				provider = flags.Provider
			}

			report, err := proc.TranslateInvoice(cmd.Context(), args[0], target, provider,
				processor.InvoiceOptions{SkipTranslated: flags.SkipTranslated})
			if err != nil {
				return err
			}
			if flags.JSON {
				return printJSON(cmd.OutOrStdout(), report)
			}
			if err := printBulk(cmd.OutOrStdout(), report.Bulk, false); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored: %d, skipped: %d\n", report.Saved, report.Skipped)
			return nil
		},
	}
	translateCmd.Flags().BoolVar(&flags.SkipTranslated, "skip-translated", false, "Leave already translated items untouched")

	exportCmd := &cobra.Command{
		Use:   "export INVOICE",
		Short: "Export the items of an invoice as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}
			items, err := s.ListItems(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("invoice %s has no items", args[0])
			}

			opts := export.DefaultOptions()
			opts.OnlyTranslated = flags.OnlyTranslated

			if flags.OutputFile == "-" {
				_, err := export.WriteCSV(cmd.OutOrStdout(), items, opts)
				return err
			}

			path := flags.OutputFile
			if path == "" {
				path = export.FileName(args[0])
			}
			n, err := export.ExportFile(path, items, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d items to %s\n", n, path)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&flags.OutputFile, "output", "o", "", "Output CSV file, - for stdout (default INVOICE_translations.csv)")
	exportCmd.Flags().BoolVar(&flags.OnlyTranslated, "only-translated", false, "Export translated items only")

	clearCmd := &cobra.Command{
		Use:   "clear INVOICE",
		Short: "Remove stored translations of an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}
			n, err := s.ClearTranslations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d translations of %s\n", n, args[0])
			return nil
		},
	}

	cmd.AddCommand(translateCmd, exportCmd, clearCmd)
	return cmd
}

func newStatsCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show stored translation statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.Store(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if flags.JSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Invoices: %d\n", stats.Invoices)
			fmt.Fprintf(out, "Items: %d\n", stats.Items)
			fmt.Fprintf(out, "Translated: %d\n", stats.Translated)
			for provider, n := range stats.ByProvider {
				fmt.Fprintf(out, "  provider %s: %d\n", provider, n)
			}
			for lang, n := range stats.ByLanguage {
				fmt.Fprintf(out, "  language %s (%s): %d\n", lang, languages.Name(lang), n)
			}
			return nil
		},
	}
}

func newServeCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := app.Store(ctx)
			if err != nil {
				return err
			}
			proc, err := app.Processor(ctx)
			if err != nil {
				return err
			}

			server := httpapi.NewServer(httpapi.Deps{
				Dispatcher: app.Dispatcher,
				Registry:   app.Registry,
				Keys:       app.Keys,
				Store:      s,
				Processor:  proc,
				Gatherer:   app.Metrics,
				Logger:     app.Logger,
			})
			return server.Run(ctx, app.Settings.Addr)
		},
	}

	cmd.Flags().StringVar(&flags.Addr, "addr", flags.Addr, "Listen address")
	cmd.Flags().BoolVar(&flags.Breaker, "breaker", flags.Breaker, "Wrap providers in circuit breakers")
	viper.BindPFlag(KeyServerAddr, cmd.Flags().Lookup("addr"))
	viper.BindPFlag(KeyBreaker, cmd.Flags().Lookup("breaker"))
	return cmd
}

func newModelsCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "models PROVIDER",
		Short: "List the chat models a provider offers for the configured key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}

			provider, err := app.Registry.Provider(args[0])
			if err != nil {
				return err
			}
			profile := provider.Profile()

			lister := models.NewLister(profile, app.Keys.APIKey(profile.Name), nil)
			available, err := lister.List(cmd.Context())
			if err != nil {
				return err
			}
			if flags.JSON {
				return printJSON(cmd.OutOrStdout(), available)
			}
			lister.Write(cmd.OutOrStdout(), available)
			return nil
		},
	}
}

func newArchiveCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Move the record store to a timestamped archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := LoadSettings(flags)
			if settings.StorePath == ":memory:" {
				return errors.New("an in-memory store cannot be archived")
			}

			archivePath, err := archive.ArchiveStore(settings.StorePath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Record store archived to: %s\n", archivePath)
			return nil
		},
	}
}

// Execute runs the root command with ctx
func Execute(ctx context.Context, rootCmd *cobra.Command) error {
	return rootCmd.ExecuteContext(ctx)
}
