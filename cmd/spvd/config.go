package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/spvnet/spvd/chaincfg"
	"github.com/spvnet/spvd/infrastructure/logger"
	"github.com/spvnet/spvd/version"
)

const (
	defaultConfigFilename = "spvd.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "spvd.log"
	defaultErrLogFilename = "spvd_err.log"
	defaultDataDirname    = "data"
)

var (
	// Default configuration options
	defaultHomeDir    = btcutil.AppDataDir("spvd", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

type configFlags struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	NoPersist   bool   `long:"nopersist" description:"Do not store accepted headers on disk"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	SimNet      bool   `long:"simnet" description:"Use the simulation test network"`
	HeadersFile string `short:"f" long:"headersfile" description:"File containing hex-encoded 80-byte headers, one per line, imported as a single atomic batch"`
	Status      string `long:"status" description:"Block hash to look up after the import; reports acceptance, height and maturity"`
	CheckTx     string `long:"checktx" description:"Transaction id to check for inclusion; requires --block, --proof and --txindex"`
	Block       string `long:"block" description:"Block hash the inclusion proof anchors to"`
	Proof       string `long:"proof" description:"Comma-separated sibling hashes of the merkle inclusion proof, ordered bottom to top"`
	TxIndex     uint64 `long:"txindex" description:"Position of the transaction within its block"`
	RawTx       string `long:"rawtx" description:"Hex-encoded raw transaction to summarize"`
	OutputIndex uint64 `long:"outputindex" description:"Output to display for --rawtx"`
}

// netParams returns the chain parameters selected by the network flags.
func (cfg *configFlags) netParams() *chaincfg.Params {
	if cfg.SimNet {
		return &chaincfg.SimNetParams
	}
	return &chaincfg.MainNetParams
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
// 	1) Start with a default config with sane settings
// 	2) Pre-parse the command line to check for an alternative config file
// 	3) Load configuration file overwriting defaults with any specified options
// 	4) Parse CLI options and overwrite/add any specified options
func loadConfig() (*configFlags, error) {
	cfg := configFlags{
		ConfigFile: defaultConfigFile,
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file when one exists.
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := os.Stat(preCfg.ConfigFile); err == nil {
		err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); !ok || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	// The inclusion proof options travel together.
	if cfg.CheckTx != "" && (cfg.Block == "" || cfg.Proof == "") {
		return nil, errors.New("--checktx requires --block and --proof")
	}

	err = os.MkdirAll(defaultHomeDir, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create home directory")
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	initLog(filepath.Join(cfg.LogDir, defaultLogFilename),
		filepath.Join(cfg.LogDir, defaultErrLogFilename))
	err = logger.ParseAndSetDebugLevels(cfg.DebugLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	return &cfg, nil
}
