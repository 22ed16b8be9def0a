package main

import (
	"flag"
	"os"

	"github.com/spf13/viper"

	"github.com/tealdb/tealdb/internal/auth"
	"github.com/tealdb/tealdb/internal/conn"
	"github.com/tealdb/tealdb/internal/db"
	"github.com/tealdb/tealdb/pkg"
)

type serverConfig struct {
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Snapshot string `mapstructure:"snapshot"`
	Debug    bool   `mapstructure:"debug"`
}

func loadConfig(path string) (*serverConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("port", 7205)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg serverConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	config_path := flag.String("config", "", "path to yaml config file")
	port := flag.Int("port", 0, "listening port (overrides config)")
	username := flag.String("user", "", "root user name (overrides config)")
	password := flag.String("pass", "", "root user password (overrides config)")
	snapshot := flag.String("snapshot", "", "snapshot file to load at startup")
	debug := flag.Bool("debug", false, "show debug logs")

	flag.Parse()

	cfg := &serverConfig{Port: 7205}
	if *config_path != "" {
		loaded, err := loadConfig(*config_path)
		if err != nil {
			pkg.FatalLog("failed to load config;", err)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *username != "" {
		cfg.Username = *username
	}
	if *password != "" {
		cfg.Password = *password
	}
	if *snapshot != "" {
		cfg.Snapshot = *snapshot
	}
	if *debug {
		cfg.Debug = true
	}
	if cfg.Username == "" {
		cfg.Username = os.Getenv("TEALDB_USER")
		cfg.Password = os.Getenv("TEALDB_PASS")
	}
	if cfg.Username == "" {
		pkg.FatalLog("no root user configured: set -user/-pass, config file, or TEALDB_USER/TEALDB_PASS")
	}

	if cfg.Debug {
		pkg.SetLogLevel(pkg.LogLevelDebug)
	}

	database := db.NewDatabase()
	if cfg.Snapshot != "" {
		if err := database.LoadFromFile(cfg.Snapshot); err != nil {
			pkg.FatalLog("failed to load snapshot;", err)
		}
		pkg.InfoLog("loaded snapshot from", cfg.Snapshot)
	}

	server := conn.NewServer(database)
	if _, err := server.AddUser(cfg.Username, cfg.Password, auth.PermAll); err != nil {
		pkg.FatalLog("failed to create root user;", err)
	}

	if err := server.Listen(cfg.Port); err != nil {
		pkg.FatalLog(err)
	}
}
