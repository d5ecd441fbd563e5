// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the genelen CLI.
//
// genelen reads a spreadsheet with a "Gene ID" column, looks each ID up in
// the NCBI nucleotide database and writes <input>_output.<ext> with the
// accession, gene length and protein length of every row.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/genelen/internal/entrez"
	"github.com/pdiddy/genelen/internal/lookup"
	"github.com/pdiddy/genelen/internal/report"
	"github.com/pdiddy/genelen/internal/secrets"
	"github.com/pdiddy/genelen/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	appName    = "genelen"
	secretsDir = ".secrets/"

	// emailKey is the config key of the NCBI contact email.
	emailKey = "ncbi.email"
)

// eutilsBase is the E-utilities root. Declared as a var so tests can
// substitute an httptest server.
var eutilsBase = types.DefaultEUtilsBase

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

const emailHint = `NCBI requires a contact email on every request. Set it with one of:
  genelen config set ncbi.email you@example.org
  export GENELEN_NCBI_EMAIL=you@example.org
  echo you@example.org > .secrets/ncbi-email
`

// rootCmd looks up every gene in the input table.
var rootCmd = &cobra.Command{
	Use:   appName + " [input-file]",
	Short: "Add accession, gene length and protein length to a table of gene IDs",
	Long: `genelen reads the "Gene ID" column of an .xlsx, .csv or .tsv file, fetches
the GenBank record of every ID from NCBI E-utilities, and writes
<input>_output.<ext> with the columns Gene ID, Accession, Gene Length and
Protein Length. Rows whose lookup fails are kept with blank values.

Without an argument, genelen asks for the input path.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secretsDir, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
	RunE: runLookup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./genelen.yaml or ~/.config/genelen/genelen.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(appName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		if dir, err := userConfigDir(); err == nil {
			viper.AddConfigPath(dir)
		}
	}

	viper.SetEnvPrefix("GENELEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// userConfigDir returns ~/.config/genelen.
func userConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// resolveEmail returns the contact email from config or environment,
// falling back to .secrets/ncbi-email.
func resolveEmail() string {
	if v := strings.TrimSpace(viper.GetString(emailKey)); v != "" {
		return v
	}
	v, _ := loadedSecrets.Get(secrets.NCBIEmail)
	return v
}

func runLookup(cmd *cobra.Command, args []string) error {
	client, err := entrez.NewClient(types.NCBIConfig{
		Email:   resolveEmail(),
		BaseURL: eutilsBase,
	}, nil)
	if err != nil {
		if errors.Is(err, types.ErrConfiguration) {
			fmt.Fprint(cmd.ErrOrStderr(), emailHint)
		}
		return err
	}

	var input string
	if len(args) == 1 {
		input = args[0]
	} else {
		input, err = promptInputPath(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}

	logger := newLogger(cmd.ErrOrStderr())
	defer logger.Sync()

	svc := lookup.NewService(client)
	svc.SetLogger(logger)
	runner := report.NewRunner(svc, cmd.OutOrStdout())
	runner.SetLogger(logger)

	_, err = runner.Run(cmd.Context(), input)
	return err
}

// promptInputPath asks for the input file on out and reads one line from
// in. Surrounding quotes, as left by drag-and-drop in most terminals, are
// removed.
func promptInputPath(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter the path to the input Excel file: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: reading input path: %w", types.ErrInput, err)
	}
	path := strings.TrimSpace(line)
	if len(path) >= 2 && (path[0] == '"' || path[0] == '\'') && path[len(path)-1] == path[0] {
		path = path[1 : len(path)-1]
	}
	if path == "" {
		return "", fmt.Errorf("%w: no input file given", types.ErrInput)
	}
	return path, nil
}

// newLogger returns a console logger at info level writing to w.
func newLogger(w io.Writer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zapcore.InfoLevel)
	return zap.New(core)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
