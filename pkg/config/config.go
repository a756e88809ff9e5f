package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the API server configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Signers   SignersConfig   `mapstructure:"signers"`
	FeeSplit  FeeSplitConfig  `mapstructure:"fee_split"`
	Convert   ConvertConfig   `mapstructure:"convert"`
	Apps      []AppConfig     `mapstructure:"apps"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ChainConfig contains chain client settings
type ChainConfig struct {
	LCDURL         string        `mapstructure:"lcd_url"`
	ChainID        string        `mapstructure:"chain_id"`
	NativeDenom    string        `mapstructure:"native_denom"`
	NativeDecimals int32         `mapstructure:"native_decimals"`
	TokenContract  string        `mapstructure:"token_contract"`
	TokenDecimals  int32         `mapstructure:"token_decimals"`
	NFTContract    string        `mapstructure:"nft_contract"`
	LockContract   string        `mapstructure:"lock_contract"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	GasAdjustment  float64       `mapstructure:"gas_adjustment"`
	SignerURL      string        `mapstructure:"signer_url"`
}

// SignersConfig names the service-owned accounts used to co-sign and
// administer system transactions. Each wallet name must be known to the
// signer daemon behind chain.signer_url.
type SignersConfig struct {
	Minter    SignerAccount `mapstructure:"minter"`
	LockOwner SignerAccount `mapstructure:"lock_owner"`
	Pool      SignerAccount `mapstructure:"pool"`
}

// SignerAccount identifies one service-owned chain account
type SignerAccount struct {
	Wallet  string `mapstructure:"wallet"`
	Address string `mapstructure:"address"`
}

// FeeSplitConfig is the percentage-based fee split table. Percentages are
// decimal strings and must sum to exactly 1.
type FeeSplitConfig struct {
	Payees []PayeeConfig `mapstructure:"payees"`
}

// PayeeConfig is one line of the fee split table
type PayeeConfig struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Percent string `mapstructure:"percent"`
}

// ConvertConfig contains game-currency exchange settings
type ConvertConfig struct {
	// Rate is the amount of game currency exchanged per one token,
	// as a decimal string.
	Rate string `mapstructure:"rate"`
}

// AppConfig contains per-app game server settings
type AppConfig struct {
	AppID         string `mapstructure:"app_id"`
	GameServerURL string `mapstructure:"game_server_url"`
	ServiceFee    string `mapstructure:"service_fee"`
	GameFee       string `mapstructure:"game_fee"`
}

// AssetsConfig contains metadata storage service settings
type AssetsConfig struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ReconcileConfig contains sequence reconciliation sweep settings
type ReconcileConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "wallet")

	// Chain defaults
	viper.SetDefault("chain.native_denom", "axpla")
	viper.SetDefault("chain.native_decimals", 18)
	viper.SetDefault("chain.token_decimals", 6)
	viper.SetDefault("chain.request_timeout", "30s")
	viper.SetDefault("chain.gas_adjustment", 1.3)

	// Convert defaults
	viper.SetDefault("convert.rate", "1")

	// Assets defaults
	viper.SetDefault("assets.request_timeout", "30s")

	// Reconcile defaults
	viper.SetDefault("reconcile.enabled", true)
	viper.SetDefault("reconcile.interval", "5m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Chain.LCDURL == "" {
		return fmt.Errorf("chain.lcd_url is required")
	}
	if config.Chain.ChainID == "" {
		return fmt.Errorf("chain.chain_id is required")
	}
	if config.Chain.NFTContract == "" {
		return fmt.Errorf("chain.nft_contract is required")
	}
	if config.Chain.TokenContract == "" {
		return fmt.Errorf("chain.token_contract is required")
	}
	if config.Signers.Minter.Address == "" {
		return fmt.Errorf("signers.minter.address is required")
	}
	if len(config.FeeSplit.Payees) == 0 {
		return fmt.Errorf("fee_split.payees is required")
	}
	for _, app := range config.Apps {
		if app.AppID == "" || app.GameServerURL == "" {
			return fmt.Errorf("apps entries require app_id and game_server_url")
		}
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
