package cloudsync_test

import (
	"io"
	"log/slog"
	"testing"

	localstore "github.com/frahmantamala/dealership-crm/internal/store/local"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCloudSync(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cloud Sync Suite")
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// cloudSchema mirrors db/migrations in SQLite syntax so tests can stand a
// second in-memory database in for the cloud.
var cloudSchema = []string{
	`CREATE TABLE usuarios (username TEXT PRIMARY KEY, password_hash TEXT NOT NULL, nome TEXT, role TEXT,
		ativo BOOLEAN, permissions TEXT, loja_id TEXT, force_password_change BOOLEAN,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE visitas (id TEXT PRIMARY KEY, cliente TEXT, telefone TEXT, email TEXT, veiculo_interesse TEXT,
		status TEXT, data_agendamento DATETIME, vendedor TEXT, temperatura TEXT, origem TEXT, observacoes TEXT,
		loja_id TEXT, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE estoque (id TEXT PRIMARY KEY, nome TEXT, marca TEXT, modelo TEXT, ano INTEGER, preco REAL,
		km INTEGER, cor TEXT, fotos TEXT, status TEXT, loja_id TEXT, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE vendedores (id TEXT PRIMARY KEY, nome TEXT, telefone TEXT, email TEXT, ativo BOOLEAN,
		loja_id TEXT, updated_at DATETIME)`,
	`CREATE TABLE portais (id TEXT PRIMARY KEY, nome TEXT, url TEXT, ativo BOOLEAN, loja_id TEXT, updated_at DATETIME)`,
	`CREATE TABLE scripts (id TEXT PRIMARY KEY, titulo TEXT, conteudo TEXT, categoria TEXT, ordem INTEGER,
		loja_id TEXT, updated_at DATETIME)`,
	`CREATE TABLE config (chave TEXT PRIMARY KEY, valor TEXT, loja_id TEXT, updated_at DATETIME)`,
	`CREATE TABLE crm_settings (key TEXT PRIMARY KEY, value TEXT, category TEXT, updated_at DATETIME)`,
}

func openMemoryDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())

	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)
	return db
}

func openLocalDB() *gorm.DB {
	db := openMemoryDB()
	Expect(localstore.Migrate(db, quietLogger)).To(Succeed())
	return db
}

func openCloudDB() *gorm.DB {
	db := openMemoryDB()
	for _, stmt := range cloudSchema {
		Expect(db.Exec(stmt).Error).To(Succeed())
	}
	return db
}

func countRows(db *gorm.DB, table string) int64 {
	var n int64
	Expect(db.Table(table).Count(&n).Error).To(Succeed())
	return n
}
