package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		dbConn, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer dbConn.Close()

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: dbConn.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{
				"user_permissions", "users", "tenant_channel_bindings", "link_tokens",
				"notifications", "payments", "invoices", "tenants", "rooms",
			} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		// Rooms and tenants.
		if err := db.Exec("INSERT INTO rooms (name, price, created_at, updated_at) VALUES ('A-101', 1500000, now(), now()), ('A-102', 1750000, now(), now()) ON CONFLICT (name) DO NOTHING").Error; err != nil {
			log.Fatalf("failed to seed rooms: %v", err)
		}

		var roomID int64
		if err := db.Raw("SELECT id FROM rooms WHERE name = 'A-101'").Row().Scan(&roomID); err != nil {
			log.Fatalf("failed to read room: %v", err)
		}

		var tenantID int64
		row := db.Raw("SELECT id FROM tenants WHERE name = 'Sari'").Row()
		if err := row.Scan(&tenantID); err != nil {
			if err := db.Exec("INSERT INTO tenants (name, room_id, active, moved_in_at, created_at, updated_at) VALUES ('Sari', ?, true, now(), now(), now())", roomID).Error; err != nil {
				log.Fatalf("failed to seed tenant: %v", err)
			}
			if err := db.Raw("SELECT id FROM tenants WHERE name = 'Sari'").Row().Scan(&tenantID); err != nil {
				log.Fatalf("failed to read tenant: %v", err)
			}
			fmt.Println("Seeded tenant Sari")
		}

		// Admin account.
		adminEmail := "admin@mail.com"
		var exists int
		if err := db.Raw("SELECT 1 FROM users WHERE email = ?", adminEmail).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at) VALUES (?, 'Admin', ?, true, now(), now())", adminEmail, string(hash)).Error; err != nil {
				log.Fatalf("failed to seed admin user: %v", err)
			}
			if err := db.Exec("INSERT INTO user_permissions (user_id, permission) SELECT id, 'admin' FROM users WHERE email = ?", adminEmail).Error; err != nil {
				log.Fatalf("failed to seed admin permission: %v", err)
			}
			fmt.Println("Seeded admin user:", adminEmail)
		}

		// Tenant account bound to the seeded tenant.
		tenantEmail := "sari@mail.com"
		if err := db.Raw("SELECT 1 FROM users WHERE email = ?", tenantEmail).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO users (email, name, password_hash, tenant_id, is_active, created_at, updated_at) VALUES (?, 'Sari', ?, ?, true, now(), now())", tenantEmail, string(hash), tenantID).Error; err != nil {
				log.Fatalf("failed to seed tenant user: %v", err)
			}
			fmt.Println("Seeded tenant user:", tenantEmail)
		}

		fmt.Println("Seeding complete")
	},
}
