package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/khairulanwar/clinic-api/internal/config"
	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository/postgres"
	"github.com/khairulanwar/clinic-api/pkg/logger"
	"github.com/khairulanwar/clinic-api/pkg/security"
)

// Provisions one login credential. There is no self-service
// registration; operators create accounts from the host.
func main() {
	var (
		username = flag.String("username", "", "login username")
		password = flag.String("password", "", "initial password")
		role     = flag.String("role", string(model.RoleDoctor), "account role: admin or doctor")
	)
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	accountRole := model.Role(*role)
	if accountRole != model.RoleAdmin && accountRole != model.RoleDoctor {
		log.Fatal().Str("role", *role).Msg("unknown role")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	hash, err := security.NewBcryptHasher(12).Hash(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash password")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user := &model.User{
		ID:           uuid.New(),
		Username:     *username,
		PasswordHash: hash,
		Role:         accountRole,
		CreatedAt:    time.Now(),
	}
	if err := postgres.NewUserRepository(db).Create(ctx, user); err != nil {
		log.Fatal().Err(err).Msg("failed to create user")
	}

	log.Info().Str("username", user.Username).Str("role", string(accountRole)).Msg("user created")
}
