package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"

	errors "github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/setting"
	settingSqlite "github.com/frahmantamala/dealership-crm/internal/setting/sqlite"
	"github.com/frahmantamala/dealership-crm/internal/store/local"
	"github.com/frahmantamala/dealership-crm/internal/user"
	userSqlite "github.com/frahmantamala/dealership-crm/internal/user/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	seedUsername string
	seedPassword string
	seedStoreID  string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the local cache with a first account and default settings",
	Long: `Seed the local cache so a fresh install can log in. The seeded developer
account must change its password on first login.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig(configDir)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		initLogger(cfg.Observability.Logging)

		db, err := local.Open(cfg.Local)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		if err := local.Migrate(db, nil); err != nil {
			log.Fatalf("failed to migrate db: %v", err)
		}

		if clearData {
			if err := clearLocal(db); err != nil {
				log.Fatalf("failed to clear local data: %v", err)
			}
			fmt.Println("Cleared local tables")
		}

		storeID := seedStoreID
		if storeID == "" {
			storeID = cfg.Sync.StoreID
		}

		users := user.NewService(userSqlite.NewUserRepository(db), nil, cfg.Security.BCryptCost, nil)
		_, err = users.Create(ctx, user.CreateUserDTO{
			Username:      seedUsername,
			Password:      seedPassword,
			Name:          "Desenvolvedor",
			Role:          "developer",
			StoreID:       storeID,
			ResetPassword: true,
		})
		switch {
		case err == nil:
			fmt.Println("Seeded user:", seedUsername)
		case stderrors.Is(err, errors.ErrUserExists):
			fmt.Println("user already exists:", seedUsername)
		default:
			log.Fatalf("failed to insert user %s: %v", seedUsername, err)
		}

		settings := setting.NewService(settingSqlite.NewSettingRepository(db), nil, nil)
		defaults := []setting.Setting{
			{Key: "ai_prompt_vendas", Value: "Voce e um assistente de vendas de uma concessionaria.", Category: "ai"},
			{Key: "ai_model", Value: "", Category: "ai"},
			{Key: "meta_phone_number_id", Value: "", Category: "meta"},
			{Key: "meta_access_token", Value: "", Category: "meta"},
		}
		for _, d := range defaults {
			if _, err := settings.Get(ctx, d.Key); err == nil {
				continue
			}
			if _, err := settings.Set(ctx, d.Key, setting.SetSettingDTO{Value: d.Value, Category: d.Category}); err != nil {
				log.Fatalf("failed to insert setting %s: %v", d.Key, err)
			}
		}
		fmt.Println("Seeded default settings")

		if storeID != "" {
			if _, err := settings.GetConfig(ctx, "loja_nome"); err != nil {
				if _, err := settings.SetConfig(ctx, "loja_nome", storeID, storeID); err != nil {
					log.Fatalf("failed to insert config: %v", err)
				}
			}
		}
	},
}

func clearLocal(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range local.Models() {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func init() {
	seedCmd.Flags().StringVar(&seedUsername, "username", "admin", "username of the seeded developer account")
	seedCmd.Flags().StringVar(&seedPassword, "password", "admin123", "initial password, to be changed on first login")
	seedCmd.Flags().StringVar(&seedStoreID, "loja", "", "store id (defaults to sync.store_id)")
}
