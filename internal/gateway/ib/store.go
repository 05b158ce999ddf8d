package ib

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tradegate/internal/domain"
)

// contractRecord persists one resolved canonical contract.
type contractRecord struct {
	Key  string `gorm:"primaryKey"`
	Data []byte
}

// nativeContractRecord persists the venue descriptor alongside it, so
// snapshots and resubscriptions skip a fresh resolution round trip.
type nativeContractRecord struct {
	Key  string `gorm:"primaryKey"`
	Data []byte
}

// ContractStore is the on-disk contract cache. Saves replace the whole
// cache in one transaction; there is no incremental update.
type ContractStore struct {
	db *gorm.DB
}

// OpenContractStore opens or creates the cache database at path.
func OpenContractStore(path string) (*ContractStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open contract cache: %w", err)
	}

	if err := db.AutoMigrate(&contractRecord{}, &nativeContractRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate contract cache: %w", err)
	}

	return &ContractStore{db: db}, nil
}

// SaveAll overwrites the cache with the given maps.
func (s *ContractStore) SaveAll(contracts map[string]domain.Contract, natives map[string]ContractSpec) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&contractRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&nativeContractRecord{}).Error; err != nil {
			return err
		}

		for key, contract := range contracts {
			data, err := json.Marshal(contract)
			if err != nil {
				return err
			}
			if err := tx.Create(&contractRecord{Key: key, Data: data}).Error; err != nil {
				return err
			}
		}
		for key, spec := range natives {
			data, err := json.Marshal(spec)
			if err != nil {
				return err
			}
			if err := tx.Create(&nativeContractRecord{Key: key, Data: data}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAll returns the cached maps. An empty cache yields empty maps,
// not an error.
func (s *ContractStore) LoadAll() (map[string]domain.Contract, map[string]ContractSpec, error) {
	var contractRows []contractRecord
	if err := s.db.Find(&contractRows).Error; err != nil {
		return nil, nil, err
	}
	var nativeRows []nativeContractRecord
	if err := s.db.Find(&nativeRows).Error; err != nil {
		return nil, nil, err
	}

	contracts := make(map[string]domain.Contract, len(contractRows))
	for _, row := range contractRows {
		var contract domain.Contract
		if err := json.Unmarshal(row.Data, &contract); err != nil {
			return nil, nil, err
		}
		contracts[row.Key] = contract
	}

	natives := make(map[string]ContractSpec, len(nativeRows))
	for _, row := range nativeRows {
		var spec ContractSpec
		if err := json.Unmarshal(row.Data, &spec); err != nil {
			return nil, nil, err
		}
		natives[row.Key] = spec
	}

	return contracts, natives, nil
}

// Close releases the underlying database handle.
func (s *ContractStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
