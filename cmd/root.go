package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"forum-tenant-sync/internal/display"
	"forum-tenant-sync/internal/engine"
	"forum-tenant-sync/internal/logging"
	"forum-tenant-sync/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// CLI flag variables
var (
	// Database flags
	dbHost     string
	dbPort     int
	dbUsername string
	dbPassword string
	dbDatabase string

	// Bundle storage flags
	backupDir       string
	storageProvider string
	s3Bucket        string
	s3Region        string
	s3AccessKey     string
	s3SecretKey     string
	gcsBucket       string
	gcsCredentials  string
	azureAccount    string
	azureKey        string
	azureContainer  string

	// Bundle encoding flags
	compression       string
	encrypt           bool
	encryptPassphrase string

	// Operation flags
	verbose     bool
	quiet       bool
	autoApprove bool
	timeout     time.Duration
	logFile     string

	// Display flags
	noColor      bool
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "forum-tenant-sync",
	Short: "Backup, restore, migrate and clean multi-tenant forum data",
	Long: `Forum Tenant Sync is a data-integrity tool for multi-tenant forum
databases. It snapshots a tenant's full entity graph into a portable
bundle file, replays bundles into new or existing tenants with all
cross-references remapped, copies users, categories and content
between live tenants, and quarantines then removes rows whose owning
tenant no longer exists.

Examples:
  # Snapshot a tenant into the local backup directory
  forum-tenant-sync backup 2f1e... --db-host=localhost --db-user=root --db-name=forum

  # Replay a bundle into a fresh tenant
  forum-tenant-sync restore backups/backup_acme_1700000000000.json

  # Copy content and users between live tenants
  forum-tenant-sync migrate <source-tenant> <target-tenant> content,users

  # Quarantine and delete orphaned rows
  forum-tenant-sync clean --auto-approve

  # Compressed, encrypted backup to S3
  forum-tenant-sync backup <tenant> --compression=zstd --encrypt \
                    --storage=s3 --s3-bucket=forum-backups --s3-region=eu-west-1`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Configuration file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.forum-tenant-sync.yaml)")

	// Database flags
	rootCmd.PersistentFlags().StringVar(&dbHost, "db-host", "localhost", "database host")
	rootCmd.PersistentFlags().IntVar(&dbPort, "db-port", 3306, "database port")
	rootCmd.PersistentFlags().StringVar(&dbUsername, "db-user", "", "database username")
	rootCmd.PersistentFlags().StringVar(&dbPassword, "db-password", "", "database password")
	rootCmd.PersistentFlags().StringVar(&dbDatabase, "db-name", "", "database name")

	// Bundle storage flags
	rootCmd.PersistentFlags().StringVar(&backupDir, "backup-dir", engine.DefaultBackupDir, "local directory for bundle files")
	rootCmd.PersistentFlags().StringVar(&storageProvider, "storage", "local", "bundle storage provider (local, s3, gcs, azure)")
	rootCmd.PersistentFlags().StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket for bundle files")
	rootCmd.PersistentFlags().StringVar(&s3Region, "s3-region", "", "S3 region")
	rootCmd.PersistentFlags().StringVar(&s3AccessKey, "s3-access-key", "", "S3 access key (default credential chain when empty)")
	rootCmd.PersistentFlags().StringVar(&s3SecretKey, "s3-secret-key", "", "S3 secret key")
	rootCmd.PersistentFlags().StringVar(&gcsBucket, "gcs-bucket", "", "GCS bucket for bundle files")
	rootCmd.PersistentFlags().StringVar(&gcsCredentials, "gcs-credentials", "", "path to GCS credentials file")
	rootCmd.PersistentFlags().StringVar(&azureAccount, "azure-account", "", "Azure storage account name")
	rootCmd.PersistentFlags().StringVar(&azureKey, "azure-key", "", "Azure storage account key")
	rootCmd.PersistentFlags().StringVar(&azureContainer, "azure-container", "", "Azure blob container for bundle files")

	// Bundle encoding flags
	rootCmd.PersistentFlags().StringVar(&compression, "compression", "none", "bundle compression (none, gzip, zstd, lz4)")
	rootCmd.PersistentFlags().BoolVar(&encrypt, "encrypt", false, "encrypt bundle files with a passphrase")
	rootCmd.PersistentFlags().StringVar(&encryptPassphrase, "encryption-passphrase", "", "bundle passphrase (prompted when --encrypt is set and this is empty)")

	// Operation flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&autoApprove, "auto-approve", false, "skip confirmation prompts")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "database operation timeout")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file instead of stdout")

	// Display flags
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "report output format (table, json, yaml)")

	// Bind flags to viper
	viper.BindPFlag("database.host", rootCmd.PersistentFlags().Lookup("db-host"))
	viper.BindPFlag("database.port", rootCmd.PersistentFlags().Lookup("db-port"))
	viper.BindPFlag("database.username", rootCmd.PersistentFlags().Lookup("db-user"))
	viper.BindPFlag("database.password", rootCmd.PersistentFlags().Lookup("db-password"))
	viper.BindPFlag("database.database", rootCmd.PersistentFlags().Lookup("db-name"))

	viper.BindPFlag("storage.provider", rootCmd.PersistentFlags().Lookup("storage"))
	viper.BindPFlag("storage.local.directory", rootCmd.PersistentFlags().Lookup("backup-dir"))
	viper.BindPFlag("storage.s3.bucket", rootCmd.PersistentFlags().Lookup("s3-bucket"))
	viper.BindPFlag("storage.s3.region", rootCmd.PersistentFlags().Lookup("s3-region"))
	viper.BindPFlag("storage.s3.access_key", rootCmd.PersistentFlags().Lookup("s3-access-key"))
	viper.BindPFlag("storage.s3.secret_key", rootCmd.PersistentFlags().Lookup("s3-secret-key"))
	viper.BindPFlag("storage.gcs.bucket", rootCmd.PersistentFlags().Lookup("gcs-bucket"))
	viper.BindPFlag("storage.gcs.credentials_path", rootCmd.PersistentFlags().Lookup("gcs-credentials"))
	viper.BindPFlag("storage.azure.account_name", rootCmd.PersistentFlags().Lookup("azure-account"))
	viper.BindPFlag("storage.azure.account_key", rootCmd.PersistentFlags().Lookup("azure-key"))
	viper.BindPFlag("storage.azure.container_name", rootCmd.PersistentFlags().Lookup("azure-container"))

	viper.BindPFlag("compression", rootCmd.PersistentFlags().Lookup("compression"))
	viper.BindPFlag("encrypt", rootCmd.PersistentFlags().Lookup("encrypt"))
	viper.BindPFlag("encryption_passphrase", rootCmd.PersistentFlags().Lookup("encryption-passphrase"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("auto_approve", rootCmd.PersistentFlags().Lookup("auto-approve"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".forum-tenant-sync")
	}

	viper.SetEnvPrefix("FORUM_TENANT_SYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// runtime bundles everything an operation command needs
type runtime struct {
	engine  *engine.Engine
	store   *store.SQLStore
	logger  *logging.Logger
	printer *display.Printer
	colors  *display.ColorSystem
}

func (rt *runtime) close() {
	if rt.store != nil {
		rt.store.Close()
	}
}

// newRuntime validates flags, connects to the store and assembles the
// engine with the configured bundle storage and encoding
func newRuntime(ctx context.Context, needsStore bool) (*runtime, error) {
	if verbose && quiet {
		return nil, fmt.Errorf("--verbose and --quiet flags are mutually exclusive")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be greater than 0")
	}

	format, err := display.ParseOutputFormat(viper.GetString("format"))
	if err != nil {
		return nil, err
	}
	compressionType, err := engine.ParseCompressionType(viper.GetString("compression"))
	if err != nil {
		return nil, err
	}

	colors := display.NewColorSystem(noColor)

	logLevel := logging.LogLevelNormal
	switch {
	case quiet:
		logLevel = logging.LogLevelQuiet
	case verbose:
		logLevel = logging.LogLevelVerbose
	}
	logger, err := logging.NewLogger(logging.Config{
		Level:   logLevel,
		LogFile: viper.GetString("log_file"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt := &runtime{
		logger:  logger,
		colors:  colors,
		printer: display.NewPrinter(os.Stdout, colors, format),
	}

	var options engine.Options
	options.Compression = compressionType
	options.Passphrase = viper.GetString("encryption_passphrase")
	if viper.GetBool("encrypt") && options.Passphrase == "" {
		passphrase, err := display.ReadPassphrase(os.Stderr, "Bundle passphrase")
		if err != nil {
			return nil, err
		}
		options.Passphrase = passphrase
	}

	storageConfig := buildStorageConfig()
	bundles, err := engine.NewBundleStorage(ctx, storageConfig)
	if err != nil {
		return nil, err
	}

	var st store.Store
	if needsStore {
		dbConfig := buildStoreConfig()
		if err := dbConfig.Validate(); err != nil {
			return nil, err
		}
		sqlStore, err := store.Connect(*dbConfig, logger)
		if err != nil {
			return nil, err
		}
		rt.store = sqlStore
		st = sqlStore
	}

	rt.engine = engine.New(st, bundles, logger, options)
	return rt, nil
}

func buildStoreConfig() *store.Config {
	config := &store.Config{
		Host:     viper.GetString("database.host"),
		Port:     viper.GetInt("database.port"),
		Username: viper.GetString("database.username"),
		Password: viper.GetString("database.password"),
		Database: viper.GetString("database.database"),
		Timeout:  timeout,
	}
	config.SetDefaults()
	return config
}

func buildStorageConfig() engine.StorageConfig {
	return engine.StorageConfig{
		Provider: engine.StorageProviderType(viper.GetString("storage.provider")),
		Local: engine.LocalConfig{
			Directory: viper.GetString("storage.local.directory"),
		},
		S3: engine.S3Config{
			Bucket:    viper.GetString("storage.s3.bucket"),
			Region:    viper.GetString("storage.s3.region"),
			AccessKey: viper.GetString("storage.s3.access_key"),
			SecretKey: viper.GetString("storage.s3.secret_key"),
		},
		GCS: engine.GCSConfig{
			Bucket:          viper.GetString("storage.gcs.bucket"),
			CredentialsPath: viper.GetString("storage.gcs.credentials_path"),
		},
		Azure: engine.AzureConfig{
			AccountName:   viper.GetString("storage.azure.account_name"),
			AccountKey:    viper.GetString("storage.azure.account_key"),
			ContainerName: viper.GetString("storage.azure.container_name"),
		},
	}
}

// finishReport prints the report and converts a failed run into a
// non-zero exit without repeating the error cobra already saw
func finishReport(rt *runtime, report *engine.Report, err error) error {
	if report != nil {
		if printErr := rt.printer.PrintReport(report); printErr != nil {
			return printErr
		}
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", report.Operation, err)
	}
	return nil
}

// Version information (set by main package)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
	goVersion = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, bt, gc, gv string) {
	version = v
	buildTime = bt
	gitCommit = gc
	goVersion = gv
}

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("forum-tenant-sync version %s\n", version)
			fmt.Printf("Built: %s\n", buildTime)
			fmt.Printf("Commit: %s\n", gitCommit)
			fmt.Printf("Go version: %s\n", goVersion)
		},
	}
}

// createConfigCommand creates the config subcommand for generating sample config
func createConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Generate a sample configuration file",
		Long: `Generate a sample configuration file for use with the --config flag.

Examples:
  forum-tenant-sync config > config.yaml`,
		Run: func(cmd *cobra.Command, args []string) {
			sampleConfig := `# Forum Tenant Sync Configuration File

# Database connection
database:
  host: localhost         # Database hostname or IP
  port: 3306              # Database port
  username: root          # Database username
  password: ""            # Database password (use env var for security)
  database: forum         # Database name

# Bundle storage
storage:
  provider: local         # Storage provider: local, s3, gcs, azure
  local:
    directory: backups    # Local directory for bundle files
  s3:
    bucket: ""            # S3 bucket name
    region: ""            # S3 region
    access_key: ""        # Access key (default credential chain when empty)
    secret_key: ""        # Secret key
  gcs:
    bucket: ""            # GCS bucket name
    credentials_path: ""  # Service account file (default credentials when empty)
  azure:
    account_name: ""      # Storage account name
    account_key: ""       # Storage account key
    container_name: ""    # Blob container name

# Bundle encoding
compression: none         # Bundle compression: none, gzip, zstd, lz4
encrypt: false            # Prompt for a passphrase and encrypt bundles
encryption_passphrase: "" # Bundle passphrase (prefer the env var)

# Operation settings
verbose: false            # Enable verbose output
quiet: false              # Suppress non-error output
auto_approve: false       # Skip confirmation prompts
timeout: 30s              # Database operation timeout
log_file: ""              # Optional log file path (empty = stdout)
format: table             # Report output format: table, json, yaml

# Environment variable examples:
# FORUM_TENANT_SYNC_DATABASE_PASSWORD=secret
# FORUM_TENANT_SYNC_FORMAT=json
`
			fmt.Print(sampleConfig)
		},
	}
}

func init() {
	rootCmd.AddCommand(createVersionCommand())
	rootCmd.AddCommand(createConfigCommand())
}
