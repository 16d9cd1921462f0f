package main

import (
	"context"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mowamiyya/leaveMangement/internal/models"
	"github.com/mowamiyya/leaveMangement/internal/repository"
	"github.com/mowamiyya/leaveMangement/pkg/config"
	"github.com/mowamiyya/leaveMangement/pkg/database"
	"github.com/mowamiyya/leaveMangement/pkg/logger"
)

// Seeds the leave status vocabulary and, when configured, a bootstrap
// administrator. Safe to run repeatedly.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statuses := repository.NewLeaveStatusRepository(db)
	for _, status := range []models.LeaveStatus{
		{Name: models.LeaveStatusDraft, Description: "Saved but not yet submitted"},
		{Name: models.LeaveStatusPending, Description: "Awaiting a decision from the class teacher"},
		{Name: models.LeaveStatusApproved, Description: "Approved by the class teacher"},
		{Name: models.LeaveStatusRejected, Description: "Rejected by the class teacher"},
	} {
		if err := statuses.Upsert(ctx, &status); err != nil {
			sugar.Fatalw("failed to seed leave status", "status", status.Name, "error", err)
		}
		sugar.Infow("leave status seeded", "status", status.Name)
	}

	if cfg.Seed.AdminEmail == "" || cfg.Seed.AdminPassword == "" {
		sugar.Infow("no admin credentials configured, skipping admin bootstrap")
		return
	}

	users := repository.NewUserRepository(db)
	exists, err := users.EmailExists(ctx, cfg.Seed.AdminEmail)
	if err != nil {
		sugar.Fatalw("failed to check admin email", "error", err)
	}
	if exists {
		sugar.Infow("admin account already present", "email", cfg.Seed.AdminEmail)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		sugar.Fatalw("failed to hash admin password", "error", err)
	}

	name := cfg.Seed.AdminName
	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{
		Email:        cfg.Seed.AdminEmail,
		PasswordHash: string(hash),
		FullName:     name,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := users.CreateAdmin(ctx, admin); err != nil {
		sugar.Fatalw("failed to create admin account", "error", err)
	}
	sugar.Infow("admin account created", "email", admin.Email, "id", admin.ID)
}
