package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"

	"album/internal/blob"
	"album/internal/config"
	"album/internal/domain"
	models "album/internal/domain/models/album"
	albumSvc "album/internal/domain/services/album"
	"album/internal/repository/postgres"
	postgresAlbum "album/internal/repository/postgres/album"
	albumService "album/internal/service/album"

	"github.com/joho/godotenv"
)

// sampleFolders is created below the owner's root, parents first
var sampleFolders = []struct{ name, parent string }{
	{"Vacation", ""},
	{"Beach", "Vacation"},
	{"Mountains", "Vacation"},
	{"Family", ""},
}

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop the album tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up the schema, don't seed folders")
	photoDir := flag.String("photos", "", "Upload every image in this directory into Vacation")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: --drop-tables is not allowed in the prod environment")
	}
	if cfg.UseMemoryStore() {
		log.Fatalf("DATABASE_URL must be set to seed")
	}

	logger := config.NewLogger(cfg.Environment, os.Stdout)
	owner := cfg.DevOwnerID

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, postgres.DefaultPoolSettings)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping album tables...")
		if err := postgres.DropTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	folderRepo := postgresAlbum.NewFolderRepository(repoConfig)
	itemRepo := postgresAlbum.NewItemRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	blobs, err := blob.NewLocalCAS(cfg.BlobDir, cfg.PublicBaseURL, logger, nil)
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}

	cascade := albumService.NewCascadeDeleter(folderRepo, itemRepo, blobs, txManager, cfg.BlobDeleteConcurrency, nil, logger)
	folderService := albumService.NewFolderService(folderRepo, txManager, cascade, logger)
	itemService := albumService.NewItemService(itemRepo, folderRepo, blobs, txManager, nil, logger)

	root, err := folderService.EnsureRootFolder(ctx, owner)
	if err != nil {
		log.Fatalf("Failed to ensure root folder: %v", err)
	}

	ids := map[string]string{"": root.ID}
	for _, f := range sampleFolders {
		folder, err := ensureFolder(ctx, folderService, owner, f.name, ids[f.parent])
		if err != nil {
			log.Fatalf("Failed to create folder %q: %v", f.name, err)
		}
		ids[f.name] = folder.ID
		log.Printf("Folder %s (ID: %s)", f.name, folder.ID)
	}

	if *photoDir != "" {
		uploaded, err := uploadDir(ctx, itemService, owner, ids["Vacation"], *photoDir)
		if err != nil {
			log.Fatalf("Failed to upload photos: %v", err)
		}
		log.Printf("Uploaded %d photos", uploaded)
	}

	log.Printf("Seeding complete for owner %s", owner)
}

// ensureFolder creates name below parentID, reusing an existing sibling
func ensureFolder(ctx context.Context, folders albumSvc.FolderService, owner, name, parentID string) (*models.Folder, error) {
	folder, err := folders.CreateFolder(ctx, &albumSvc.CreateFolderRequest{
		OwnerID:  owner,
		Name:     name,
		ParentID: &parentID,
	})
	if err == nil {
		return folder, nil
	}

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || conflict.ResourceID == "" {
		return nil, err
	}
	return folders.GetFolder(ctx, owner, conflict.ResourceID)
}

func uploadDir(ctx context.Context, items albumSvc.ItemService, owner, folderID, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !config.IsAllowedImageExtension(filepath.Ext(entry.Name())) {
			continue
		}
		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return uploaded, err
		}
		_, err = items.UploadItem(ctx, &albumSvc.UploadItemRequest{
			OwnerID:  owner,
			FolderID: folderID,
			Title:    entry.Name()[:len(entry.Name())-len(filepath.Ext(entry.Name()))],
			FileName: entry.Name(),
			Content:  f,
		})
		f.Close()
		if err != nil {
			return uploaded, err
		}
		uploaded++
	}
	return uploaded, nil
}
