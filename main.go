package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stakeledger/api"
	"stakeledger/blockchain"
	"stakeledger/consensus"
	"stakeledger/mempool"
	"stakeledger/utils"
	"stakeledger/wallet"
)

// AppConfig holds all startup configurations
type AppConfig struct {
	Port            int
	Verbose         bool
	DataDir         string
	KeyDir          string
	KeyPassphrase   string
	ForgeInterval   time.Duration
	MempoolSize     int
	GenesisBalances map[string]float64
	GenesisStakes   map[string]float64
}

func getEnvInt(key string, defaultValue int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	valInt, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s: %s. Using default %d.", key, valStr, defaultValue)
		return defaultValue
	}
	return valInt
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s: %s. Using default %s.", key, valStr, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return defaultValue
	}
}

// parseAllocations reads "id:amount,id:amount" into a map. Repeated ids accumulate.
func parseAllocations(raw string) (map[string]float64, error) {
	allocations := make(map[string]float64)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		sep := strings.LastIndex(entry, ":")
		if sep <= 0 || sep == len(entry)-1 {
			return nil, fmt.Errorf("invalid allocation %q, expected id:amount", entry)
		}
		amount, err := strconv.ParseFloat(entry[sep+1:], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in allocation %q: %w", entry, err)
		}
		if amount < 0 {
			return nil, fmt.Errorf("negative amount in allocation %q", entry)
		}
		allocations[strings.TrimSpace(entry[:sep])] += amount
	}
	return allocations, nil
}

// loadConfig reads environment variables as defaults; command-line flags override them.
func loadConfig(args []string) (*AppConfig, error) {
	config := &AppConfig{}
	fs := flag.NewFlagSet("stakeledger", flag.ContinueOnError)

	var balances, stakes string
	fs.IntVar(&config.Port, "port", getEnvInt("API_PORT", 8080), "Port for the HTTP API")
	fs.BoolVar(&config.Verbose, "verbose", getEnvBool("VERBOSE", true), "Enable detailed logging")
	fs.StringVar(&config.DataDir, "datadir", os.Getenv("DATA_DIR"), "Directory for blockchain data")
	fs.StringVar(&config.KeyDir, "keydir", os.Getenv("KEY_DIR"), "Directory for the encrypted node key")
	fs.StringVar(&config.KeyPassphrase, "nodekeypass", os.Getenv("NODE_KEY_PASSPHRASE"), "Passphrase for the node's private key")
	fs.DurationVar(&config.ForgeInterval, "forge-interval", getEnvDuration("FORGE_INTERVAL", 5*time.Second), "Interval between forging rounds")
	fs.IntVar(&config.MempoolSize, "mempool-size", getEnvInt("MEMPOOL_SIZE", 10000), "Maximum pooled transactions (0 for unbounded)")
	fs.StringVar(&balances, "genesis-balances", os.Getenv("GENESIS_BALANCES"), "Genesis balances as id:amount,id:amount")
	fs.StringVar(&stakes, "genesis-stakes", os.Getenv("GENESIS_STAKES"), "Genesis stakes as id:amount,id:amount")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if config.DataDir == "" {
		config.DataDir = "data"
	}
	if config.KeyDir == "" {
		config.KeyDir = config.DataDir + "/keys"
	}
	if config.KeyPassphrase == "" {
		return nil, errors.New("node key passphrase not provided; set NODE_KEY_PASSPHRASE or use -nodekeypass")
	}
	if config.ForgeInterval <= 0 {
		return nil, fmt.Errorf("forge interval must be positive, got %s", config.ForgeInterval)
	}

	var err error
	if config.GenesisBalances, err = parseAllocations(balances); err != nil {
		return nil, fmt.Errorf("genesis balances: %w", err)
	}
	if config.GenesisStakes, err = parseAllocations(stakes); err != nil {
		return nil, fmt.Errorf("genesis stakes: %w", err)
	}
	return config, nil
}

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	config, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	utils.SetVerbose(config.Verbose)

	appCtx, cancelApp := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelApp()

	nodeWallet, err := wallet.LoadWallet(config.KeyDir, config.KeyPassphrase)
	if err != nil {
		log.Fatalf("Failed to load node wallet: %v", err)
	}

	chain, db, err := blockchain.InitializeBlockchain(config.DataDir, config.GenesisBalances, config.GenesisStakes)
	if err != nil {
		log.Fatalf("Failed to initialize blockchain: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			utils.LogError("Error closing blockchain database: %v", err)
		}
	}()

	pool := mempool.NewMempool(chain, config.MempoolSize)
	forger := consensus.NewForger(chain, pool, nodeWallet, config.ForgeInterval)
	go forger.Run(appCtx)

	server := api.NewServer(chain, pool, nodeWallet.Address(), config.Port)
	utils.PrintStartupMessage(nodeWallet.Address(), config.Port)

	if err := server.Start(appCtx); err != nil {
		utils.LogError("HTTP server error: %v", err)
	}
	cancelApp()
	utils.LogInfo("Node stopped at height %d", chain.GetLastBlock().Index)
}
