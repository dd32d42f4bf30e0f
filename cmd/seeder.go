package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/gym-management/internal/auth"
	membershipmodel "github.com/frahmantamala/gym-management/internal/core/datamodel/membership"
	"github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"github.com/frahmantamala/gym-management/internal/core/identity"
)

const seedPassword = "password123"

// seedTables lists company data in delete order.
var seedTables = []string{
	"audit_logs",
	"payments",
	"membership_holds",
	"memberships",
	"plans",
	"members",
	"verification_codes",
	"sessions",
	"users",
	"role_permissions",
	"roles",
	"companies",
}

type seedRole struct {
	Name        string
	Protected   bool
	Permissions []string
}

var seedRoles = []seedRole{
	{Name: identity.AdminRoleName, Protected: true},
	{Name: "front_desk", Permissions: []string{
		auth.PermViewMembers, auth.PermCreateMembers, auth.PermEditMembers,
		auth.PermViewMemberships, auth.PermCreateMemberships,
		auth.PermHoldMemberships, auth.PermResumeMemberships,
		auth.PermViewPlans, auth.PermViewPayments, auth.PermCollectPayments,
	}},
	{Name: "trainer", Permissions: []string{
		auth.PermViewMembers, auth.PermViewMemberships, auth.PermViewPlans,
	}},
}

var seedUsers = []struct {
	Email string
	Name  string
	Role  string
}{
	{"owner@demo.gym", "Demo Owner", identity.AdminRoleName},
	{"desk@demo.gym", "Front Desk", "front_desk"},
	{"coach@demo.gym", "Coach", "trainer"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed a demo company with roles, staff, plans and a member for development and testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := clearSeedData(db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			return seed(tx, string(hash))
		}); err != nil {
			log.Fatalf("seed failed: %v", err)
		}

		fmt.Printf("Seeded demo company; staff log in with password %q\n", seedPassword)
	},
}

func clearSeedData(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range seedTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func seed(tx *gorm.DB, passwordHash string) error {
	company := user.Company{Name: "Demo Gym", IsActive: true}
	if err := firstOrCreate(tx, &company, "name = ?", company.Name); err != nil {
		return fmt.Errorf("company: %w", err)
	}

	roleIDs := make(map[string]int64, len(seedRoles))
	for _, sr := range seedRoles {
		role := user.Role{CompanyID: company.ID, Name: sr.Name, IsProtected: sr.Protected}
		if err := firstOrCreate(tx, &role, "company_id = ? AND name = ?", company.ID, sr.Name); err != nil {
			return fmt.Errorf("role %s: %w", sr.Name, err)
		}
		roleIDs[sr.Name] = role.ID

		for _, name := range sr.Permissions {
			var perm user.Permission
			if err := tx.Where("name = ?", name).First(&perm).Error; err != nil {
				return fmt.Errorf("permission %s: %w", name, err)
			}
			grant := user.RolePermission{CompanyID: company.ID, RoleID: role.ID, PermissionID: perm.ID}
			if err := firstOrCreate(tx, &grant, "role_id = ? AND permission_id = ?", role.ID, perm.ID); err != nil {
				return fmt.Errorf("grant %s to %s: %w", name, sr.Name, err)
			}
		}
		fmt.Printf("Seeded role %s with %d permissions\n", sr.Name, len(sr.Permissions))
	}

	for _, su := range seedUsers {
		staff := user.User{
			CompanyID:    company.ID,
			RoleID:       roleIDs[su.Role],
			Email:        su.Email,
			Name:         su.Name,
			PasswordHash: passwordHash,
			IsActive:     true,
		}
		if err := firstOrCreate(tx, &staff, "email = ?", su.Email); err != nil {
			return fmt.Errorf("user %s: %w", su.Email, err)
		}
		fmt.Println("Seeded user:", su.Email)
	}

	plans := []membershipmodel.Plan{
		{CompanyID: company.ID, Name: "Monthly", DurationMonths: 1, Price: decimal.NewFromInt(1000), IsActive: true},
		{CompanyID: company.ID, Name: "Quarterly", DurationMonths: 3, Price: decimal.NewFromInt(2700), IsActive: true},
		{CompanyID: company.ID, Name: "Annual", DurationMonths: 12, Price: decimal.NewFromInt(9600), IsActive: true},
	}
	for i := range plans {
		if err := firstOrCreate(tx, &plans[i], "company_id = ? AND name = ?", company.ID, plans[i].Name); err != nil {
			return fmt.Errorf("plan %s: %w", plans[i].Name, err)
		}
	}

	email := "member@demo.gym"
	sample := membershipmodel.Member{CompanyID: company.ID, Name: "Sample Member", Email: &email, IsActive: true}
	if err := firstOrCreate(tx, &sample, "company_id = ? AND email = ?", company.ID, email); err != nil {
		return fmt.Errorf("member: %w", err)
	}
	return nil
}

// firstOrCreate loads the row matching query into dst, inserting dst when
// none exists.
func firstOrCreate(tx *gorm.DB, dst interface{}, query string, args ...interface{}) error {
	err := tx.Where(query, args...).First(dst).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(dst).Error
}
