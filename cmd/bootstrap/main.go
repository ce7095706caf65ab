package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"edu-lesson-ai-api/internal/config"
	"edu-lesson-ai-api/internal/infrastructure/persistence/postgres"
	"edu-lesson-ai-api/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	userID := flag.String("user", os.Getenv("BOOTSTRAP_USER_ID"), "user id embedded in the dev token")
	role := flag.String("role", "teacher", "role claim")
	skipToken := flag.Bool("skip-token", false, "only run migrations")
	flag.Parse()

	fmt.Println("Starting system bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 建表
	client, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer client.Close()

	if err := postgres.AutoMigrate(ctx, client); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	fmt.Printf("Migrated artifact tables (driver=%s).\n", cfg.Database.Driver)

	if *skipToken {
		fmt.Println("Bootstrap completed successfully.")
		return
	}

	// 3. 签发开发用令牌
	if *userID == "" {
		*userID = "dev-user"
	}
	if cfg.Security.JWT.Secret == "" {
		log.Fatalf("security.jwt.secret is required to mint a token")
	}
	jwtManager := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
	token, err := jwtManager.GenerateToken(*userID, *role, cfg.Security.JWT.Expiration)
	if err != nil {
		log.Fatalf("failed to mint token: %v", err)
	}
	fmt.Printf("Dev token for %s:\n%s\n", *userID, token)

	fmt.Println("Bootstrap completed successfully.")
}
