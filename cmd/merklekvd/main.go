package main

import (
	"flag"
	stdlog "log"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/merklekv/merklekv/internal/server"
	"github.com/merklekv/merklekv/internal/store"
	"github.com/merklekv/merklekv/pkg/log"
)

type config struct {
	SocketPath        string `yaml:"socket_path"`
	StorePath         string `yaml:"store_path"`
	IOWorkers         int    `yaml:"io_workers"`
	CommitConcurrency int    `yaml:"commit_concurrency"`
	HashtableBuckets  int    `yaml:"hashtable_buckets"`
	LogLevel          string `yaml:"log_level"`
}

func defaultConfig() config {
	return config{
		SocketPath:        "/tmp/merklekv.sock",
		StorePath:         "merklekv_db",
		IOWorkers:         4,
		CommitConcurrency: 1,
		HashtableBuckets:  64000,
		LogLevel:          "info",
	}
}

func main() {
	def := defaultConfig()

	configPath := flag.String("config", "", "path to a YAML config file")
	socketPath := flag.String("socket", def.SocketPath, "path to the unix socket")
	storePath := flag.String("path", def.StorePath, "path to the store")
	ioWorkers := flag.Int("io-workers", def.IOWorkers, "number of io workers")
	commitConcurrency := flag.Int("commit-concurrency", def.CommitConcurrency, "commit hashing concurrency")
	hashtableBuckets := flag.Int("hashtable-buckets", def.HashtableBuckets, "block cache size in KiB buckets")
	logLevel := flag.String("log-level", def.LogLevel, "minimum log level")
	flag.Parse()

	if flag.NArg() > 0 {
		stdlog.Fatalf("unexpected arguments: %v", flag.Args())
	}

	cfg := def
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			stdlog.Fatalf("failed to read config file: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			stdlog.Fatalf("failed to parse config file: %v", err)
		}
	}

	// Flags set explicitly on the command line override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "socket":
			cfg.SocketPath = *socketPath
		case "path":
			cfg.StorePath = *storePath
		case "io-workers":
			cfg.IOWorkers = *ioWorkers
		case "commit-concurrency":
			cfg.CommitConcurrency = *commitConcurrency
		case "hashtable-buckets":
			cfg.HashtableBuckets = *hashtableBuckets
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	level, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("invalid log level %q: %v", cfg.LogLevel, err)
	}
	log.Init(log.Options{LogLevel: level, Type: log.ConsoleLogger})

	st, err := store.Open(store.Options{
		Path:              cfg.StorePath,
		IOWorkers:         cfg.IOWorkers,
		CommitConcurrency: cfg.CommitConcurrency,
		HashtableBuckets:  cfg.HashtableBuckets,
	})
	if err != nil {
		log.Root.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Store.Error().Err(err).Msg("error closing store")
		}
	}()

	srv := server.New(cfg.SocketPath, st)
	if err := srv.Start(); err != nil {
		log.Root.Fatal().Err(err).Msg("server failed")
	}
}
