package database

import (
	"log"
	"time"

	"ssdf-compass/internal/config"
	"ssdf-compass/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	dsn := cfg.DBDSN
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Printf("trying to connect to DB (attempt %d/%d)...", i, maxAttempts)

		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			log.Println("connected to DB successfully")
			break
		}

		log.Printf("failed to connect to DB: %v", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatalf("failed to connect to db after %d attempts: %v", maxAttempts, err)
	}

	// миграции
	err = DB.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.SsdfGroup{},
		&models.SsdfPractice{},
		&models.SsdfTask{},
		&models.CisControl{},
		&models.CisSafeguard{},
		&models.SsdfCisMapping{},
		&models.Assessment{},
		&models.AssessmentTaskResult{},
		&models.AssessmentCisResult{},
		&models.AssessmentRelease{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	// справочники SSDF/CIS и дефолтные маппинги
	SeedReferenceData()

	// дефолтная организация, админ и пара тестовых пользователей
	org := seedDefaultOrganization()
	createDefaultAdmin(org.ID, cfg.AdminEmail, cfg.AdminPassword)
	seedDefaultUsers(org.ID)
}

func seedDefaultOrganization() models.Organization {
	var org models.Organization
	if err := DB.Where("slug = ?", "default").First(&org).Error; err == nil {
		return org
	}

	org = models.Organization{
		Name: "Default Organization",
		Slug: "default",
	}
	if err := DB.Create(&org).Error; err != nil {
		log.Fatalf("failed to create default organization: %v", err)
	}
	log.Printf("created default organization: %s", org.Name)
	return org
}

// админ только из конфига
func createDefaultAdmin(orgID uint, email, password string) {
	var count int64
	if err := DB.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		log.Printf("failed to check admin user: %v", err)
		return
	}
	if count > 0 {
		// админ уже есть — ничего не делаем
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash default admin password: %v", err)
		return
	}

	admin := models.User{
		OrganizationID: orgID,
		Email:          email,
		PasswordHash:   string(hash),
		Role:           models.RoleAdmin,
	}

	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("failed to create default admin: %v", err)
		return
	}

	log.Printf("created default admin user: %s (password: %s)", email, password)
}

// пара тестовых аккаунтов для демо (assessor и viewer)
func seedDefaultUsers(orgID uint) {
	type seedUser struct {
		Email    string
		Password string
		Role     models.UserRole
	}

	users := []seedUser{
		{
			Email:    "assessor@compass.local",
			Password: "Assessor123!",
			Role:     models.RoleAssessor,
		},
		{
			Email:    "viewer@compass.local",
			Password: "Viewer123!",
			Role:     models.RoleViewer,
		},
	}

	for _, u := range users {
		var count int64
		if err := DB.Model(&models.User{}).
			Where("email = ?", u.Email).
			Count(&count).Error; err != nil {
			log.Printf("failed to check seed user %s: %v", u.Email, err)
			continue
		}
		if count > 0 {
			// уже есть — пропускаем
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("failed to hash password for %s: %v", u.Email, err)
			continue
		}

		user := models.User{
			OrganizationID: orgID,
			Email:          u.Email,
			PasswordHash:   string(hash),
			Role:           u.Role,
		}

		if err := DB.Create(&user).Error; err != nil {
			log.Printf("failed to create seed user %s: %v", u.Email, err)
			continue
		}

		log.Printf("created seed user: %s (role=%s, password=%s)", u.Email, u.Role, u.Password)
	}
}
