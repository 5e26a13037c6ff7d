package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pe-scenario-lab/backend/internal/scenario"
)

// ErrNotFound is returned when a session or initiative does not exist.
var ErrNotFound = errors.New("record not found")

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path and seeds
// the reference tables when they are empty.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Session{}, &InitiativeRecord{}, &CompRecord{}, &FinancialRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	if err := applyIndexes(db); err != nil {
		return nil, fmt.Errorf("apply indexes: %w", err)
	}
	d := &Database{gorm: db}
	if err := d.seed(); err != nil {
		return nil, fmt.Errorf("seed reference data: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func applyIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_initiatives_session_position ON initiative_records(session_id, position)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_comps_dataset_company ON comp_records(dataset, company)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateSession inserts a new session seeded with the default initiatives.
func (d *Database) CreateSession() (*Session, []InitiativeRecord, error) {
	session := &Session{ID: uuid.NewString()}
	defaults := scenario.DefaultInitiatives()
	records := make([]InitiativeRecord, 0, len(defaults))
	for i, in := range defaults {
		records = append(records, newInitiativeRecord(session.ID, i, in))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	return session, records, nil
}

// GetSession loads a session by ID.
func (d *Database) GetSession(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	var session Session
	if err := d.gorm.First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListInitiatives returns a session's initiatives in list order.
func (d *Database) ListInitiatives(sessionID string) ([]InitiativeRecord, error) {
	if _, err := d.GetSession(sessionID); err != nil {
		return nil, err
	}
	var records []InitiativeRecord
	if err := d.gorm.Where("session_id = ?", sessionID).Order("position asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// AddInitiative appends in to the end of the session's list.
func (d *Database) AddInitiative(sessionID string, in scenario.Initiative) (*InitiativeRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := d.GetSession(sessionID); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var record InitiativeRecord
	err := d.gorm.Transaction(func(tx *gorm.DB) error {
		var last struct{ Max *int }
		if err := tx.Model(&InitiativeRecord{}).Select("MAX(position) AS max").Where("session_id = ?", sessionID).Scan(&last).Error; err != nil {
			return err
		}
		next := 0
		if last.Max != nil {
			next = *last.Max + 1
		}
		record = newInitiativeRecord(sessionID, next, in)
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("add initiative: %w", err)
	}
	return &record, nil
}

// SetInitiativeComplete toggles the completion flag of one initiative.
func (d *Database) SetInitiativeComplete(sessionID string, id uint, complete bool) (*InitiativeRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var record InitiativeRecord
	if err := d.gorm.Where("session_id = ? AND id = ?", sessionID, id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := d.gorm.Model(&record).Update("complete", complete).Error; err != nil {
		return nil, fmt.Errorf("update initiative: %w", err)
	}
	record.Complete = complete
	return &record, nil
}

func newInitiativeRecord(sessionID string, position int, in scenario.Initiative) InitiativeRecord {
	return InitiativeRecord{
		SessionID:     sessionID,
		Position:      position,
		Name:          strings.TrimSpace(in.Name),
		KPI:           in.KPI,
		Impact:        in.Impact,
		EffectiveDate: in.EffectiveDate.UTC(),
		Complete:      in.Complete,
	}
}

// Comps returns a reference dataset in insertion order.
func (d *Database) Comps(dataset string) ([]CompRecord, error) {
	var records []CompRecord
	if err := d.gorm.Where("dataset = ?", dataset).Order("position asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountComps returns the number of rows in a dataset.
func (d *Database) CountComps(dataset string) (int64, error) {
	var count int64
	if err := d.gorm.Model(&CompRecord{}).Where("dataset = ?", dataset).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceComps swaps a dataset's rows with the provided slice.
func (d *Database) ReplaceComps(dataset string, comps []CompRecord) error {
	rows := make([]CompRecord, len(comps))
	for i, c := range comps {
		c.ID = 0
		c.Dataset = dataset
		c.Position = i
		rows[i] = c
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dataset = ?", dataset).Delete(&CompRecord{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 250).Error
	})
}

// Financials returns the raw data pack in insertion order.
func (d *Database) Financials() ([]FinancialRecord, error) {
	var records []FinancialRecord
	if err := d.gorm.Order("position asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ReplaceFinancials swaps the data pack with the provided slice.
func (d *Database) ReplaceFinancials(rows []FinancialRecord) error {
	copied := make([]FinancialRecord, len(rows))
	for i, r := range rows {
		r.ID = 0
		r.Position = i
		copied[i] = r
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&FinancialRecord{}).Error; err != nil {
			return err
		}
		if len(copied) == 0 {
			return nil
		}
		return tx.CreateInBatches(copied, 250).Error
	})
}
