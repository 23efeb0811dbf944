package blockchain

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"stakeledger/utils"
)

// Database keys prefixes for better organization
const (
	blockHashKeyPrefix  = "blockhash_"  // Prefix for accessing blocks by payload hash
	blockIndexKeyPrefix = "blockindex_" // Prefix for accessing blocks by index
	blockHeightKey      = "height"      // Key for the current blockchain height
)

// BlockchainDB handles the persistence layer of the blockchain
type BlockchainDB struct {
	db        *leveldb.DB
	batchLock sync.Mutex
	path      string
}

// NewBlockchainDB opens (or creates) the block store under dataDir.
func NewBlockchainDB(dataDir string) (*BlockchainDB, error) {
	dbPath := filepath.Join(dataDir, "blockchain")

	options := &opt.Options{
		BlockCacheCapacity:  8 * 1024 * 1024, // 8MB block cache
		WriteBuffer:         4 * 1024 * 1024, // 4MB write buffer
		CompactionTableSize: 2 * 1024 * 1024, // 2MB compaction table size
	}

	db, err := leveldb.OpenFile(dbPath, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open blockchain database: %w", err)
	}

	utils.LogInfo("Blockchain database initialized at: %s", dbPath)

	return &BlockchainDB{
		db:   db,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (bdb *BlockchainDB) Close() error {
	if bdb.db != nil {
		return bdb.db.Close()
	}
	return nil
}

// SaveBlock stores a block by index and by payload hash and advances the height.
func (bdb *BlockchainDB) SaveBlock(block *Block) error {
	blockData, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to marshal block: %w", err)
	}

	bdb.batchLock.Lock()
	defer bdb.batchLock.Unlock()

	batch := new(leveldb.Batch)
	batch.Put([]byte(blockIndexKeyPrefix+strconv.FormatUint(block.Index, 10)), blockData)
	batch.Put([]byte(blockHashKeyPrefix+block.Hash()), blockData)

	currentHeight, found, err := bdb.height()
	if err != nil {
		return err
	}
	if !found || block.Index > currentHeight {
		batch.Put([]byte(blockHeightKey), []byte(strconv.FormatUint(block.Index, 10)))
	}

	if err := bdb.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to save block to database: %w", err)
	}

	utils.LogDebug("Block %d saved to database", block.Index)
	return nil
}

// GetBlockByIndex retrieves a block by its index
func (bdb *BlockchainDB) GetBlockByIndex(index uint64) (*Block, error) {
	return bdb.getBlock(blockIndexKeyPrefix+strconv.FormatUint(index, 10), fmt.Sprintf("index %d", index))
}

// GetBlockByHash retrieves a block by the hash of its payload
func (bdb *BlockchainDB) GetBlockByHash(hash string) (*Block, error) {
	return bdb.getBlock(blockHashKeyPrefix+hash, "hash "+hash)
}

func (bdb *BlockchainDB) getBlock(key string, desc string) (*Block, error) {
	data, err := bdb.db.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, fmt.Errorf("block with %s not found", desc)
		}
		return nil, fmt.Errorf("failed to retrieve block: %w", err)
	}

	var block Block
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block: %w", err)
	}
	return &block, nil
}

// GetBlockchainHeight returns the index of the last stored block, and whether any block is stored.
func (bdb *BlockchainDB) GetBlockchainHeight() (uint64, bool, error) {
	return bdb.height()
}

func (bdb *BlockchainDB) height() (uint64, bool, error) {
	data, err := bdb.db.Get([]byte(blockHeightKey), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to retrieve blockchain height: %w", err)
	}
	height, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse blockchain height: %w", err)
	}
	return height, true, nil
}

// GetAllBlocks retrieves all stored blocks in index order
func (bdb *BlockchainDB) GetAllBlocks() ([]*Block, error) {
	blocks := make([]*Block, 0)

	height, found, err := bdb.height()
	if err != nil || !found {
		return blocks, err
	}

	for i := uint64(0); i <= height; i++ {
		block, err := bdb.GetBlockByIndex(i)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

/**
 * InitializeBlockchain opens the block store under dataDir, seeds the ledgers
 * with the genesis allocations and replays every stored block. Later appends
 * are persisted.
 *
 * Parameters:
 *   - dataDir: Directory holding the LevelDB store
 *   - balances: Genesis balances per identity
 *   - stakes: Genesis stakes per identity
 *
 * Returns:
 *   - *Blockchain: The restored chain
 *   - *BlockchainDB: The open store; the caller closes it
 */
func InitializeBlockchain(dataDir string, balances map[string]float64, stakes map[string]float64) (*Blockchain, *BlockchainDB, error) {
	db, err := NewBlockchainDB(dataDir)
	if err != nil {
		return nil, nil, err
	}

	bc := NewBlockchain()
	bc.ApplyGenesisAllocations(balances, stakes)

	stored, err := db.GetAllBlocks()
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to load stored blocks: %w", err)
	}

	if len(stored) == 0 {
		if err := db.SaveBlock(Genesis()); err != nil {
			db.Close()
			return nil, nil, err
		}
	} else {
		if stored[0].Hash() != Genesis().Hash() {
			db.Close()
			return nil, nil, fmt.Errorf("stored genesis block does not match")
		}
		if err := bc.replay(stored[1:]); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	bc.db = db
	ChainHeight.Set(float64(bc.GetLastBlock().Index))
	utils.LogInfo("Blockchain restored with %d blocks", bc.GetLength())
	return bc, db, nil
}

// replay re-executes stored blocks, checking index continuity and hash linkage.
func (bc *Blockchain) replay(blocks []*Block) error {
	bc.lockWriter()
	defer bc.releaseWriter()
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	for _, block := range blocks {
		if !bc.blockCountValid(block) || !bc.lastBlockHashValid(block) {
			return fmt.Errorf("stored block %d does not link to its predecessor", block.Index)
		}
		if err := bc.addBlockLocked(block); err != nil {
			return fmt.Errorf("failed to replay block %d: %w", block.Index, err)
		}
	}
	return nil
}
