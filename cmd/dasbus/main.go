// Command dasbus is the CLI entry point for the distributed query bus
// client: one cobra root command wrapping a "query" subcommand, following
// pilot-agent's root-command-plus-persistent-flags structure.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/singnet/dasbus/internal/logging"
	"github.com/singnet/dasbus/pkg/dasclient"
)

const maxQueryAnswersDefault = 100

var (
	logLevel   string
	progress   bool
	configFile string
)

func main() {
	loadConfigFile()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "dasbus",
	Short:        "Distributed atom space query bus client",
	SilenceUsage: true,
	// Re-read the config file once flags are parsed, so --config takes effect.
	PersistentPreRun: func(*cobra.Command, []string) { loadConfigFile() },
}

var queryCmd = &cobra.Command{
	Use:   "query CLIENT_HOST:PORT SERVER_HOST:PORT UPDATE_ATTENTION_BROKER POSITIVE_IMPORTANCE [MAX_ANSWERS] QUERY_TOKEN...",
	Short: "Run a pattern-matching query against a known peer",
	Args:  cobra.MinimumNArgs(5),
	RunE:  runQuery,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error); bound to config, not applied to the loggers")
	rootCmd.PersistentFlags().Bool("mongodb-uri", false, "reserved, currently unused")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfigFile(), "config file (YAML, read via viper)")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindEnv("log_level", "DASBUS_LOG_LEVEL")
	viper.SetEnvPrefix("DASBUS")

	queryCmd.Flags().BoolVar(&progress, "progress", false, "render a progress bar while answers are collected")
	rootCmd.AddCommand(queryCmd)
}

// defaultConfigFile mirrors the CLI's ~/.dasbus.yaml convention: a
// per-user config file viper reads if present, falling back to the
// current directory when the home directory can't be resolved.
func defaultConfigFile() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".dasbus.yaml"
	}
	return home + "/.dasbus.yaml"
}

func loadConfigFile() {
	if configFile == "" {
		return
	}
	viper.SetConfigFile(configFile)
	_ = viper.ReadInConfig()
}

// ./dasbus query localhost:11234 localhost:35700 true true 100 $X (likes $X cats)
func runQuery(cmd *cobra.Command, args []string) error {
	log := logging.Scope("cli").With("session_id", uuid.New().String())

	clientID := args[0]
	serverID := args[1]
	updateAttentionBroker := isTruthy(args[2])
	positiveImportance := isTruthy(args[3])

	tokenStart := 4
	maxAnswers := uint64(maxQueryAnswersDefault)
	if len(args) > 4 {
		if v, err := strconv.ParseUint(args[4], 10, 64); err == nil {
			maxAnswers = v
			tokenStart = 5
		}
	}
	log.Infow("using max_query_answers", "value", maxAnswers)
	_ = updateAttentionBroker
	_ = positiveImportance

	queryText := strings.Join(args[tokenStart:], " ")

	clientHost, portLower, portUpper, err := dasclient.HostPort(clientID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	client, err := dasclient.Init(ctx, clientHost, serverID, portLower, portUpper, "")
	if err != nil {
		return fmt.Errorf("initializing service bus: %w", err)
	}

	var bar *pb.ProgressBar
	if progress {
		bar = pb.StartNew(int(maxAnswers))
		defer bar.Finish()
	}

	bindings, err := client.Query(ctx, queryText)
	if err != nil {
		return err
	}
	if uint64(len(bindings)) > maxAnswers {
		bindings = bindings[:maxAnswers]
	}
	if bar != nil {
		bar.SetCurrent(int64(len(bindings)))
	}

	color.Green("%d answers:", len(bindings))
	for _, b := range bindings {
		fmt.Println(formatBindings(b))
	}
	return nil
}

func formatBindings(b map[string]string) string {
	parts := make([]string, 0, len(b))
	for k, v := range b {
		parts = append(parts, fmt.Sprintf("$%s = %s", k, v))
	}
	return strings.Join(parts, ", ")
}

func isTruthy(s string) bool {
	return s == "true" || s == "1"
}
