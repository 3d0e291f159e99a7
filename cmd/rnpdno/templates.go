package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/config"
	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/scraper"
	"github.com/loykin/rnpdno/internal/store"
	"github.com/loykin/rnpdno/internal/store/file"
	"github.com/loykin/rnpdno/internal/template"
	"github.com/loykin/rnpdno/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect and manage request templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the request templates of the configured store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		doc, err := loadDoc()
		if err != nil {
			return err
		}
		s := scraper.New(doc.ScraperOptions()...)
		defer func() { _ = s.Close() }()
		if err := s.LoadConfig(cmd.Context()); err != nil {
			return err
		}
		templates, err := s.Templates()
		if err != nil {
			return err
		}
		return printTemplates(cmd.OutOrStdout(), templates, viper.GetBool("json"))
	},
}

var templatesValidateCmd = &cobra.Command{
	Use:   "validate <file.yaml>",
	Short: "Check a templates file without touching the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadDoc(); err != nil {
			return err
		}
		records, err := readTemplatesFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		issues := validateRecords(records)
		printIssues(cmd.OutOrStdout(), issues)
		if len(issues) > 0 {
			return fmt.Errorf("%d template issue(s) in %s", len(issues), args[0])
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d templates ok\n", len(records))
		return nil
	},
}

var templatesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Replace the store's config_vars and request_templates with a file's content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDoc()
		if err != nil {
			return err
		}
		cfg, err := targetStoreConfig(doc)
		if err != nil {
			return err
		}
		n, err := importFile(cmd.Context(), args[0], cfg, viper.GetBool("force"))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents into %s store\n", n, cfg.Driver)
		return nil
	},
}

// templateIssue is a problem found in one templates file record.
type templateIssue struct {
	Index   int
	Key     string
	Problem string
}

// openTemplatesFile wraps an existing YAML templates file in a file store.
func openTemplatesFile(path string) (*file.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return file.NewStore(file.Config{Path: path}), nil
}

// readTemplatesFile loads the request_templates list of a YAML templates file.
func readTemplatesFile(ctx context.Context, path string) ([]store.Record, error) {
	fs, err := openTemplatesFile(path)
	if err != nil {
		return nil, err
	}
	return fs.Load(ctx, constants.RequestTemplatesCollection)
}

// validateRecords reports missing fields, undecodable documents, duplicate
// api/endpoint pairs and URL or payload values the template guard rejects.
func validateRecords(records []store.Record) []templateIssue {
	var issues []templateIssue
	guard := template.NewGuard()
	seen := map[string]int{}
	for i, r := range records {
		t, err := template.FromRecord(r)
		if err != nil {
			issues = append(issues, templateIssue{Index: i, Problem: err.Error()})
			continue
		}
		key := t.Key()
		if missing := t.Missing(); len(missing) > 0 {
			issues = append(issues, templateIssue{Index: i, Key: key, Problem: "missing " + strings.Join(missing, ", ")})
		}
		if first, dup := seen[key]; dup {
			issues = append(issues, templateIssue{Index: i, Key: key, Problem: fmt.Sprintf("duplicates record %d", first)})
		} else {
			seen[key] = i
		}
		if err := guard.Check(t.Host + t.URL); err != nil {
			issues = append(issues, templateIssue{Index: i, Key: key, Problem: "url: " + err.Error()})
		}
		for _, k := range util.SortedKeys(t.Payload) {
			if s, ok := t.Payload[k].(string); ok {
				if err := guard.Check(s); err != nil {
					issues = append(issues, templateIssue{Index: i, Key: key, Problem: fmt.Sprintf("payload %s: %v", k, err)})
				}
			}
		}
	}
	return issues
}

func printIssues(w io.Writer, issues []templateIssue) {
	if len(issues) == 0 {
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Template", "Problem"})
	for _, is := range issues {
		t.AppendRow(table.Row{is.Index, is.Key, is.Problem})
	}
	t.Render()
}

type templateRow struct {
	API      string   `json:"api"`
	Endpoint string   `json:"endpoint"`
	Method   string   `json:"method"`
	URL      string   `json:"url"`
	Payload  []string `json:"payload"`
	Missing  []string `json:"missing,omitempty"`
}

func printTemplates(w io.Writer, templates []*template.Template, asJSON bool) error {
	rows := make([]templateRow, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, templateRow{
			API:      t.API,
			Endpoint: t.Endpoint,
			Method:   strings.ToUpper(t.Method),
			URL:      t.Host + t.URL,
			Payload:  util.SortedKeys(t.Payload),
			Missing:  t.Missing(),
		})
	}
	if asJSON {
		return writeJSON(w, rows)
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"API", "Endpoint", "Method", "URL", "Payload", "Status"})
	for _, r := range rows {
		status := "ok"
		if len(r.Missing) > 0 {
			status = "missing " + strings.Join(r.Missing, ", ")
		}
		tw.AppendRow(table.Row{r.API, r.Endpoint, r.Method, r.URL, strings.Join(r.Payload, ", "), status})
	}
	tw.Render()
	return nil
}

// targetStoreConfig uses the store section of the config file and falls back
// to the SCRAPPER_* variables the scraper itself reads.
func targetStoreConfig(doc ConfigDoc) (store.Config, error) {
	if _, ok := util.TrimEmptyCheck(doc.Store.Driver); ok {
		return doc.Store, nil
	}
	r := config.NewReader()
	if err := r.LoadEnvVars(); err != nil {
		return store.Config{}, err
	}
	return r.StoreConfig(), nil
}

// importFile copies the non-empty collections of a templates file into the
// store described by cfg. Invalid templates abort the import unless force is set.
func importFile(ctx context.Context, path string, cfg store.Config, force bool) (int, error) {
	logger := common.GetLogger().WithComponent("import")
	src, err := openTemplatesFile(path)
	if err != nil {
		return 0, err
	}
	collections := map[string][]store.Record{}
	for _, name := range []string{constants.ConfigVarsCollection, constants.RequestTemplatesCollection} {
		records, err := src.Load(ctx, name)
		if err != nil {
			return 0, err
		}
		if len(records) > 0 {
			collections[name] = records
		}
	}
	if len(collections) == 0 {
		return 0, fmt.Errorf("%s holds no %s or %s documents", path, constants.ConfigVarsCollection, constants.RequestTemplatesCollection)
	}
	if issues := validateRecords(collections[constants.RequestTemplatesCollection]); len(issues) > 0 && !force {
		return 0, fmt.Errorf("%d template issue(s) in %s; run templates validate or pass --force", len(issues), path)
	}

	dst, err := store.Open(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer func() { _ = dst.Close() }()

	total := 0
	for _, name := range util.SortedKeys(collections) {
		records := collections[name]
		if err := dst.Replace(ctx, name, records); err != nil {
			return total, fmt.Errorf("import %s: %w", name, err)
		}
		logger.Info("collection imported", "collection", name, "documents", len(records), "store", dst.Driver())
		total += len(records)
	}
	return total, nil
}

func init() {
	templatesImportCmd.Flags().Bool("force", false, "import even when templates fail validation")
	_ = viper.BindPFlag("force", templatesImportCmd.Flags().Lookup("force"))

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesValidateCmd)
	templatesCmd.AddCommand(templatesImportCmd)
}
