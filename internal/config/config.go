package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"raffle-ledger/internal/ledger"
	"raffle-ledger/internal/raffle"
	"raffle-ledger/internal/storage"

	"github.com/joho/godotenv"
	"github.com/tonkeeper/tongo/ton"
)

type Config struct {
	// HTTP listen address of the instruction API and /metrics
	ListenAddr string

	// Storage backend: sqlite or postgres
	DatabaseType storage.Type
	// sqlite file path or postgres connection string
	DatabaseURL string

	LogLevel     string
	LogFile      string
	ErrorLogFile string
	LogConsole   bool

	ProgramID        ton.Bits256
	UpgradeAuthority ton.Bits256

	// Oracle key: a TON wallet mnemonic, or a 32-byte hex ed25519 seed
	OracleMnemonic     string
	OracleSeed         string
	OraclePollInterval time.Duration

	MinTicketPrice    uint64
	MaxRaffleDuration time.Duration
	RentPerByte       uint64
	SlotDuration      time.Duration
}

// Load reads the optional .env files (".env" when none are given) and then the
// process environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	c := &Config{
		ListenAddr:     env("LISTEN_ADDR", ":8080"),
		DatabaseType:   env("DATABASE_TYPE", storage.SqliteType),
		DatabaseURL:    env("DATABASE_URL", "persistent.db"),
		LogLevel:       env("LOG_LEVEL", "info"),
		LogFile:        os.Getenv("LOG_FILE"),
		ErrorLogFile:   os.Getenv("ERROR_LOG_FILE"),
		OracleMnemonic: os.Getenv("ORACLE_MNEMONIC"),
		OracleSeed:     os.Getenv("ORACLE_SEED"),
	}

	var err error
	if c.LogConsole, err = envBool("LOG_CONSOLE", true); err != nil {
		return nil, err
	}
	if c.ProgramID, err = envHash("PROGRAM_ID"); err != nil {
		return nil, err
	}
	if c.UpgradeAuthority, err = envHash("UPGRADE_AUTHORITY"); err != nil {
		return nil, err
	}
	if c.MinTicketPrice, err = envUint("MIN_TICKET_PRICE", raffle.MinTicketPrice); err != nil {
		return nil, err
	}
	if c.RentPerByte, err = envUint("RENT_PER_BYTE", ledger.DefaultRentPerByte); err != nil {
		return nil, err
	}

	pollMs, err := envUint("ORACLE_POLL_INTERVAL_MS", 2000)
	if err != nil {
		return nil, err
	}
	c.OraclePollInterval = time.Duration(pollMs) * time.Millisecond

	maxDurationSec, err := envUint("MAX_RAFFLE_DURATION_SEC", uint64(raffle.MaxRaffleDuration))
	if err != nil {
		return nil, err
	}
	c.MaxRaffleDuration = time.Duration(maxDurationSec) * time.Second

	slotMs, err := envUint("SLOT_DURATION_MS", uint64(ledger.DefaultSlotDuration/time.Millisecond))
	if err != nil {
		return nil, err
	}
	c.SlotDuration = time.Duration(slotMs) * time.Millisecond

	return c, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	if c.DatabaseType != storage.SqliteType && c.DatabaseType != storage.PostgresType {
		return fmt.Errorf("DATABASE_TYPE must be %q or %q", storage.SqliteType, storage.PostgresType)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ProgramID == (ton.Bits256{}) {
		return fmt.Errorf("PROGRAM_ID is required")
	}
	if c.UpgradeAuthority == (ton.Bits256{}) {
		return fmt.Errorf("UPGRADE_AUTHORITY is required")
	}
	if c.OracleMnemonic == "" && c.OracleSeed == "" {
		return fmt.Errorf("ORACLE_MNEMONIC or ORACLE_SEED is required")
	}
	if c.SlotDuration <= 0 {
		return fmt.Errorf("SLOT_DURATION_MS must be positive")
	}
	if c.MaxRaffleDuration < time.Second {
		return fmt.Errorf("MAX_RAFFLE_DURATION_SEC must be positive")
	}
	return nil
}

func (c *Config) Raffle(oracleIdentity ton.Bits256) raffle.Config {
	return raffle.Config{
		ProgramID:      c.ProgramID,
		OracleIdentity: oracleIdentity,
		MinTicketPrice: c.MinTicketPrice,
		MaxDuration:    int64(c.MaxRaffleDuration / time.Second),
	}
}

func (c *Config) Ledger() ledger.Config {
	return ledger.Config{
		SlotDuration: c.SlotDuration,
		RentPerByte:  c.RentPerByte,
	}
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func envHash(key string) (ton.Bits256, error) {
	v := os.Getenv(key)
	if v == "" {
		return ton.Bits256{}, nil
	}
	h, err := ton.ParseHash(v)
	if err != nil {
		return ton.Bits256{}, fmt.Errorf("config: %s: %w", key, err)
	}
	return h, nil
}
