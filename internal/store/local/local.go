// Package local opens and migrates the SQLite cache that mirrors the cloud tables.
package local

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/frahmantamala/dealership-crm/internal"
	coreuser "github.com/frahmantamala/dealership-crm/internal/core/user"
	seller "github.com/frahmantamala/dealership-crm/internal/core/datamodel/seller"
	portal "github.com/frahmantamala/dealership-crm/internal/core/datamodel/portal"
	script "github.com/frahmantamala/dealership-crm/internal/core/datamodel/script"
	setting "github.com/frahmantamala/dealership-crm/internal/core/datamodel/setting"
	stock "github.com/frahmantamala/dealership-crm/internal/core/datamodel/stock"
	user "github.com/frahmantamala/dealership-crm/internal/core/datamodel/user"
	visit "github.com/frahmantamala/dealership-crm/internal/core/datamodel/visit"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table kept in the local cache.
func Models() []interface{} {
	return []interface{}{
		&user.Usuario{},
		&visit.Visita{},
		&stock.Estoque{},
		&seller.Vendedor{},
		&portal.Portal{},
		&script.Script{},
		&setting.Config{},
		&setting.CrmSetting{},
	}
}

// alterations are applied in order on every start, before AutoMigrate. Older
// installs lack these columns; on current or fresh schemas each statement
// fails with "duplicate column" or "no such table" and is skipped.
var alterations = []string{
	"ALTER TABLE usuarios ADD COLUMN permissions TEXT DEFAULT '[]'",
	"ALTER TABLE usuarios ADD COLUMN loja_id TEXT",
	"ALTER TABLE usuarios ADD COLUMN reset_password NUMERIC DEFAULT 0",
	"ALTER TABLE usuarios ADD COLUMN ativo NUMERIC DEFAULT 1",
	"ALTER TABLE visitas ADD COLUMN temperatura TEXT",
	"ALTER TABLE visitas ADD COLUMN data_agendamento DATETIME",
	"ALTER TABLE visitas ADD COLUMN loja_id TEXT",
	"ALTER TABLE estoque ADD COLUMN id TEXT",
	"ALTER TABLE estoque ADD COLUMN fotos TEXT DEFAULT '[]'",
	"ALTER TABLE estoque ADD COLUMN loja_id TEXT",
	"ALTER TABLE crm_settings ADD COLUMN category TEXT",
}

// Open opens the SQLite file, creating its directory if needed.
func Open(cfg internal.LocalConfig) (*gorm.DB, error) {
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), fs.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create local data directory: %w", err)
		}
	}

	gormLogger := logger.Discard
	if cfg.Debug {
		gormLogger = logger.Default
	}

	busy := cfg.BusyTimeout.Milliseconds()
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d", cfg.Path, busy)
	if cfg.Path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one writer keeps SQLite from returning SQLITE_BUSY under the pusher
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA temp_store = MEMORY;"); err != nil {
		return nil, fmt.Errorf("failed to set pragma: %w", err)
	}

	return db, nil
}

// Migrate upgrades legacy tables with the best-effort column additions,
// creates missing tables, folds usernames and backfills stock ids.
func Migrate(db *gorm.DB, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	applied := 0
	for _, stmt := range alterations {
		if err := db.Exec(stmt).Error; err != nil {
			log.Debug("local alteration skipped", "statement", stmt, "error", err)
			continue
		}
		applied++
	}
	if applied > 0 {
		log.Info("local schema altered", "applied", applied)
	}

	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("auto migrate %T: %w", model, err)
		}
	}

	folded, err := FoldUsernames(db)
	if err != nil {
		return err
	}
	if folded > 0 {
		log.Info("lower-cased legacy usernames", "rows", folded)
	}

	n, err := BackfillStockIDs(db)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info("generated ids for legacy stock rows", "count", n)
	}

	// legacy estoque tables gained id through ALTER, without a key constraint
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_estoque_id ON estoque(id)").Error; err != nil {
		return fmt.Errorf("failed to index stock ids: %w", err)
	}
	return nil
}

// FoldUsernames lower-cases usuarios.username. When several rows fold to the
// same name the most recently updated one is kept and the others are deleted.
// It returns the number of rows renamed or deleted.
func FoldUsernames(db *gorm.DB) (int, error) {
	var names []string
	err := db.Table("usuarios").
		Where("LOWER(username) IN (SELECT LOWER(username) FROM usuarios WHERE username <> LOWER(username))").
		Order("LOWER(username), updated_at IS NULL, updated_at DESC, username = LOWER(username) DESC").
		Pluck("username", &names).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list mixed-case usernames: %w", err)
	}
	if len(names) == 0 {
		return 0, nil
	}

	changed := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		kept := make(map[string]string)
		for _, name := range names {
			folded := coreuser.NormalizeUsername(name)
			if _, ok := kept[folded]; !ok {
				kept[folded] = name
				continue
			}
			if err := tx.Exec("DELETE FROM usuarios WHERE username = ?", name).Error; err != nil {
				return fmt.Errorf("failed to drop duplicate user %q: %w", name, err)
			}
			changed++
		}
		for folded, name := range kept {
			if name == folded {
				continue
			}
			if err := tx.Exec("UPDATE usuarios SET username = ? WHERE username = ?", folded, name).Error; err != nil {
				return fmt.Errorf("failed to fold username %q: %w", name, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// BackfillStockIDs assigns ids to estoque rows created when nome was the key.
func BackfillStockIDs(db *gorm.DB) (int, error) {
	var names []string
	err := db.Table("estoque").
		Where("id IS NULL OR id = ''").
		Pluck("nome", &names).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list stock rows without id: %w", err)
	}

	for _, name := range names {
		err := db.Exec("UPDATE estoque SET id = ? WHERE nome = ? AND (id IS NULL OR id = '')",
			uuid.NewString(), name).Error
		if err != nil {
			return 0, fmt.Errorf("failed to backfill id for %q: %w", name, err)
		}
	}
	return len(names), nil
}
