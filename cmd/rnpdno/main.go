package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/loykin/rnpdno/internal/scraper"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "rnpdno",
	Short:         "Scrape the RNPDNO missing persons dashboard through stored request templates",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadDoc reads the configuration named by --config and installs logging and
// the env section. -v forces debug logging.
func loadDoc() (ConfigDoc, error) {
	v := viper.GetViper()
	doc, err := LoadConfigDoc(v, v.GetString("config"))
	if err != nil {
		return doc, err
	}
	if v.GetBool("v") {
		doc.Logging.Level = "debug"
	}
	if err := doc.SetupLogging(); err != nil {
		return doc, err
	}
	if err := doc.ApplyEnv(); err != nil {
		return doc, err
	}
	return doc, nil
}

// openSession loads the scraper configuration, creates a session and warms it up.
func openSession(ctx context.Context, doc ConfigDoc) (*scraper.Scraper, error) {
	s := scraper.New(doc.ScraperOptions()...)
	if err := s.LoadConfig(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.CreateSession(); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.WarmUp(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	v := viper.GetViper()
	v.SetDefault("config", "")
	v.SetDefault("v", false)
	v.SetDefault("json", false)

	// Environment variables support: RNPDNO_CONFIG, RNPDNO_LOGGING_LEVEL, ...
	v.SetEnvPrefix("RNPDNO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to a config yaml (like examples/config.yaml)")
	rootCmd.PersistentFlags().BoolP("v", "v", v.GetBool("v"), "verbose output")
	rootCmd.PersistentFlags().Bool("json", v.GetBool("json"), "print results as JSON")
	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("v", rootCmd.PersistentFlags().Lookup("v"))
	_ = v.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	rootCmd.AddCommand(statesCmd)
	rootCmd.AddCommand(municipalitiesCmd)
	rootCmd.AddCommand(neighborhoodsCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("error: %v", err)
		stop()
		os.Exit(1)
	}
}
