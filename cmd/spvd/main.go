package main

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/spvnet/spvd/blockchain"
	"github.com/spvnet/spvd/chaincfg"
	"github.com/spvnet/spvd/dbaccess"
	"github.com/spvnet/spvd/infrastructure/logger"
	"github.com/spvnet/spvd/util/chainhash"
	"github.com/spvnet/spvd/util/panics"
	"github.com/spvnet/spvd/version"
	"github.com/spvnet/spvd/wire"
)

func main() {
	defer panics.HandlePanic(log, nil)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	log.Infof("Version %s", version.Version())

	err = run(cfg)
	if err != nil {
		log.Errorf("%+v", err)
		logger.Close()
		os.Exit(1)
	}
}

func run(cfg *configFlags) error {
	params := cfg.netParams()
	log.Infof("Using network %s", params.Name)

	var db *dbaccess.DatabaseContext
	if !cfg.NoPersist {
		var err error
		db, err = dbaccess.New(cfg.DataDir)
		if err != nil {
			return errors.Wrapf(err, "failed to open database at %s", cfg.DataDir)
		}
		defer func() {
			err := db.Close()
			if err != nil {
				log.Errorf("Error closing the database: %s", err)
			}
		}()
	}

	chain, err := blockchain.New(&blockchain.Config{Params: params, DB: db})
	if err != nil {
		return errors.Wrap(err, "failed to initialize the header chain")
	}
	chain.Subscribe(logChainNotifications)

	// An empty chain on a network with a known genesis gets it seeded so
	// header files don't have to start from the very beginning.
	if chain.TipHash() == nil && params.GenesisHeader != nil {
		err := seedGenesis(chain, params)
		if err != nil {
			return err
		}
	}

	if cfg.HeadersFile != "" {
		err := importHeadersFile(chain, cfg.HeadersFile)
		if err != nil {
			return err
		}
	}

	if tipHash := chain.TipHash(); tipHash != nil {
		log.Infof("Chain tip is %s at height %d", tipHash, chain.TipHeight())
	} else {
		log.Infof("Chain is empty")
	}

	if cfg.Status != "" {
		err := reportStatus(chain, cfg.Status)
		if err != nil {
			return err
		}
	}

	if cfg.CheckTx != "" {
		err := checkInclusion(chain, cfg)
		if err != nil {
			return err
		}
	}

	if cfg.RawTx != "" {
		err := summarizeRawTx(cfg.RawTx, cfg.OutputIndex)
		if err != nil {
			return err
		}
	}

	return nil
}

func logChainNotifications(notification *blockchain.Notification) {
	switch notification.Type {
	case blockchain.NTHeaderAdded:
		header := notification.Data.(*wire.BlockHeader)
		log.Debugf("Accepted header %s", header.BlockHash())
		log.Tracef("Header details: %s", spew.Sdump(header))
	case blockchain.NTChainTipUpdated:
		tipHash := notification.Data.(*chainhash.Hash)
		log.Debugf("Chain tip is now %s", tipHash)
	}
}

func seedGenesis(chain *blockchain.Chain, params *chaincfg.Params) error {
	var buf bytes.Buffer
	err := params.GenesisHeader.Serialize(&buf)
	if err != nil {
		return errors.Wrap(err, "failed to serialize the genesis header")
	}
	err = chain.ProcessHeader(buf.Bytes())
	if err != nil {
		return errors.Wrap(err, "failed to accept the genesis header")
	}
	log.Infof("Seeded genesis header %s", params.GenesisHash)
	return nil
}

// importHeadersFile reads hex-encoded headers, one per line, and hands them to
// the chain as a single atomic batch. Empty lines and lines starting with '#'
// are skipped.
func importHeadersFile(chain *blockchain.Chain, path string) error {
	defer logger.LogAndMeasureExecutionTime(log, "importHeadersFile")()

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open headers file %s", path)
	}
	defer file.Close()

	var rawHeaders [][]byte
	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		headerBytes, err := hex.DecodeString(line)
		if err != nil {
			return errors.Wrapf(err, "line %d of %s is not valid hex",
				lineNumber, path)
		}
		rawHeaders = append(rawHeaders, headerBytes)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "failed reading headers file %s", path)
	}

	log.Infof("Importing %d headers from %s", len(rawHeaders), path)
	err = chain.ProcessHeaders(rawHeaders)
	if err != nil {
		return errors.Wrap(err, "header import failed")
	}
	log.Infof("Imported %d headers", len(rawHeaders))
	return nil
}

func reportStatus(chain *blockchain.Chain, hashStr string) error {
	hash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return errors.Wrapf(err, "invalid block hash %s", hashStr)
	}

	isCanonical, confirmations := chain.Status(hash)
	if !isCanonical {
		fmt.Printf("Block %s is not on the best chain\n", hash)
		return nil
	}
	height, err := chain.BlockHeight(hash)
	if err != nil {
		return err
	}
	fmt.Printf("Block %s at height %d has %d confirmations, mature: %t\n",
		hash, height, confirmations, chain.IsMature(hash))
	return nil
}

func checkInclusion(chain *blockchain.Chain, cfg *configFlags) error {
	blockHash, err := chainhash.NewHashFromStr(cfg.Block)
	if err != nil {
		return errors.Wrapf(err, "invalid block hash %s", cfg.Block)
	}
	txID, err := chainhash.NewHashFromStr(cfg.CheckTx)
	if err != nil {
		return errors.Wrapf(err, "invalid transaction id %s", cfg.CheckTx)
	}

	var siblings []chainhash.Hash
	for _, siblingStr := range strings.Split(cfg.Proof, ",") {
		sibling, err := chainhash.NewHashFromStr(strings.TrimSpace(siblingStr))
		if err != nil {
			return errors.Wrapf(err, "invalid proof hash %s", siblingStr)
		}
		siblings = append(siblings, *sibling)
	}

	included, err := chain.VerifyInclusion(blockHash, txID, siblings, cfg.TxIndex)
	if err != nil {
		return err
	}
	if included {
		fmt.Printf("Transaction %s is committed to by block %s at index %d\n",
			txID, blockHash, cfg.TxIndex)
	} else {
		fmt.Printf("Proof for transaction %s does not match block %s\n",
			txID, blockHash)
	}
	return nil
}

func summarizeRawTx(rawTxHex string, outputIndex uint64) error {
	rawTx, err := hex.DecodeString(rawTxHex)
	if err != nil {
		return errors.Wrap(err, "raw transaction is not valid hex")
	}

	txID, err := wire.TxID(rawTx)
	if err != nil {
		return errors.Wrap(err, "failed to compute the transaction id")
	}
	fmt.Printf("Transaction id: %s\n", txID)

	firstInput, err := wire.ExtractFirstInput(rawTx)
	if err != nil {
		return err
	}
	fmt.Printf("First input spends %s:%d\n",
		firstInput.TxID, firstInput.Index)

	output, err := wire.ExtractOutput(rawTx, outputIndex)
	if err != nil {
		return err
	}
	fmt.Printf("Output %d pays %s to a %d-byte script\n",
		outputIndex, btcutil.Amount(output.Value), len(output.PkScript))
	return nil
}
