package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"taskdesk/internal/config"
	"taskdesk/internal/importer"
	"taskdesk/internal/pkg/logger"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/storage"
	"taskdesk/internal/service/user"
)

func main() {
	avatarDir := flag.String("avatars", "media/avatars", "directory holding <login id>.jpg avatars")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-avatars dir] users.csv\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := logger.Init(cfg.LogLevel, cfg.Debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, flag.Arg(0), *avatarDir); err != nil {
		logger.Error("import failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, path, avatarDir string) error {
	ctx := context.Background()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := config.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var store storage.ObjectStore
	if cfg.MinIOEndpoint != "" {
		var client *minio.Client
		client, err = config.NewMinIOClient(cfg)
		if err != nil {
			logger.Warn("minio unavailable, avatars will not be linked", zap.Error(err))
		} else {
			store = storage.NewMinIOStore(client, cfg.MinIOBucket)
		}
	}

	users := user.NewService(repository.NewRepositories(db), store)
	result, err := importer.NewUserImporter(users, avatarDir).Import(ctx, f)
	if err != nil {
		return err
	}

	fmt.Printf("created %d, skipped %d, failed %d, total %d\n", result.Created, result.Skipped, result.Failed, result.Total)
	return nil
}
