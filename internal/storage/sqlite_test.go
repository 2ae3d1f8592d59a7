package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/subhub/internal/models"
)

func setupTestDB(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	// Create temp directory for test database
	tmpDir, err := os.MkdirTemp("", "subhub-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")

	store := NewSQLiteStorage(dbPath)
	if err := store.Open(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open database: %v", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("migrate database: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func testUser(t *testing.T, store *SQLiteStorage) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hashed-password",
		Role:         models.RoleMember,
		Verified:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func testProject(t *testing.T, store *SQLiteStorage, name, addedBy string) *models.Project {
	t.Helper()
	project := &models.Project{
		ID:             uuid.New().String(),
		Name:           name,
		EnglishName:    "English",
		EpisodesNumber: 12,
		Genre:          "action",
		AddedBy:        addedBy,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := store.Projects().Create(context.Background(), project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func TestSQLiteStorage_OpenClose(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	// Verify storage is open
	if store.db == nil {
		t.Fatal("database should be open")
	}
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// Verify tables exist by querying them
	tables := []string{"users", "projects", "episodes", "refresh_tokens", "schema_migrations"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		if err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}
}

func TestUserRepository_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := testUser(t, store)

	// Get by ID
	got, err := store.Users().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user by id: %v", err)
	}
	if got == nil {
		t.Fatal("user should exist")
	}
	if got.Username != user.Username {
		t.Errorf("username = %v, want %v", got.Username, user.Username)
	}

	// Get by username
	got, err = store.Users().GetByUsername(ctx, user.Username)
	if err != nil {
		t.Fatalf("get user by username: %v", err)
	}
	if got == nil {
		t.Fatal("user should exist")
	}

	// Get by email
	got, err = store.Users().GetByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if got == nil {
		t.Fatal("user should exist")
	}

	// Update
	user.Username = "updated-user"
	user.UpdatedAt = time.Now()
	err = store.Users().Update(ctx, user)
	if err != nil {
		t.Fatalf("update user: %v", err)
	}

	got, _ = store.Users().GetByID(ctx, user.ID)
	if got.Username != "updated-user" {
		t.Errorf("username = %v, want updated-user", got.Username)
	}

	// List
	users, err := store.Users().List(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("users count = %d, want 1", len(users))
	}

	// Count
	count, err := store.Users().Count(ctx)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	// Delete
	err = store.Users().Delete(ctx, user.ID)
	if err != nil {
		t.Fatalf("delete user: %v", err)
	}

	got, _ = store.Users().GetByID(ctx, user.ID)
	if got != nil {
		t.Error("user should be deleted")
	}
}

func TestUserRepository_SetVerified(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := testUser(t, store)
	user.Verified = false
	store.Users().Update(ctx, user)

	err := store.Users().SetVerified(ctx, user.ID, true)
	if err != nil {
		t.Fatalf("set verified: %v", err)
	}

	got, _ := store.Users().GetByID(ctx, user.ID)
	if !got.Verified {
		t.Error("user should be verified")
	}

	// Unknown user is an error
	err = store.Users().SetVerified(ctx, "no-such-id", true)
	if err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := testUser(t, store)

	dup := &models.User{
		ID:           uuid.New().String(),
		Username:     user.Username,
		Email:        "other@example.com",
		PasswordHash: "hash",
		Role:         models.RoleMember,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	err := store.Users().Create(ctx, dup)
	if err != ErrDuplicateName {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}
}

func TestProjectRepository_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := testUser(t, store)
	project := testProject(t, store, "Attack on Titan", user.ID)

	// Get by ID
	got, err := store.Projects().GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("get project by id: %v", err)
	}
	if got == nil {
		t.Fatal("project should exist")
	}
	if got.Name != project.Name {
		t.Errorf("name = %v, want %v", got.Name, project.Name)
	}
	if got.CoverImageName != nil {
		t.Errorf("cover = %v, want nil", *got.CoverImageName)
	}

	// Get by name
	got, err = store.Projects().GetByName(ctx, project.Name)
	if err != nil {
		t.Fatalf("get project by name: %v", err)
	}
	if got == nil {
		t.Fatal("project should exist")
	}

	// Missing name returns nil, nil
	got, err = store.Projects().GetByName(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing project: %v", err)
	}
	if got != nil {
		t.Error("missing project should be nil")
	}

	// List
	projects, err := store.Projects().List(ctx)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 1 {
		t.Errorf("projects count = %d, want 1", len(projects))
	}
}

func TestProjectRepository_DuplicateName(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := testUser(t, store)
	testProject(t, store, "Attack on Titan", user.ID)

	dup := &models.Project{
		ID:        uuid.New().String(),
		Name:      "Attack on Titan",
		Genre:     "action",
		AddedBy:   user.ID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err := store.Projects().Create(ctx, dup)
	if err != ErrDuplicateName {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}
}

func TestProjectRepository_UpdateByName(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := testUser(t, store)
	project := testProject(t, store, "Attack on Titan", user.ID)

	cover := "abc123.png"
	got, err := store.Projects().UpdateByName(ctx, project.Name, &models.ProjectUpdate{
		Name:           "Attack on Titan",
		EnglishName:    "Attack on Titan",
		EpisodesNumber: 25,
		Genre:          "action",
		CoverImageName: &cover,
	})
	if err != nil {
		t.Fatalf("update project: %v", err)
	}
	if got == nil {
		t.Fatal("project should exist")
	}
	if got.EpisodesNumber != 25 {
		t.Errorf("episodesNumber = %d, want 25", got.EpisodesNumber)
	}
	if got.CoverImageName == nil || *got.CoverImageName != cover {
		t.Errorf("cover = %v, want %v", got.CoverImageName, cover)
	}

	// Nil cover leaves the stored value untouched
	got, err = store.Projects().UpdateByName(ctx, project.Name, &models.ProjectUpdate{
		Name:           "Attack on Titan",
		EpisodesNumber: 26,
		Genre:          "action",
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if got.CoverImageName == nil || *got.CoverImageName != cover {
		t.Errorf("cover after nil update = %v, want %v", got.CoverImageName, cover)
	}

	// Missing name returns nil, nil
	got, err = store.Projects().UpdateByName(ctx, "nope", &models.ProjectUpdate{Name: "nope", Genre: "action"})
	if err != nil {
		t.Fatalf("update missing project: %v", err)
	}
	if got != nil {
		t.Error("missing project should be nil")
	}
}

func TestProjectRepository_DeleteByName(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := testUser(t, store)
	project := testProject(t, store, "Attack on Titan", user.ID)

	got, err := store.Projects().DeleteByName(ctx, project.Name)
	if err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if got == nil {
		t.Fatal("deleted record should be returned")
	}
	if got.ID != project.ID {
		t.Errorf("id = %v, want %v", got.ID, project.ID)
	}

	// Second delete returns nil, nil
	got, err = store.Projects().DeleteByName(ctx, project.Name)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if got != nil {
		t.Error("second delete should return nil")
	}
}

func TestEpisodeRepository_CRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := testUser(t, store)
	project := testProject(t, store, "Attack on Titan", user.ID)

	episode := &models.Episode{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Number:    1,
		Title:     "To You, in 2000 Years",
		Status:    models.StatusTranslating,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := store.Episodes().Create(ctx, episode); err != nil {
		t.Fatalf("create episode: %v", err)
	}

	// Get by number
	got, err := store.Episodes().GetByNumber(ctx, project.ID, 1)
	if err != nil {
		t.Fatalf("get episode: %v", err)
	}
	if got == nil {
		t.Fatal("episode should exist")
	}
	if got.Title != episode.Title {
		t.Errorf("title = %v, want %v", got.Title, episode.Title)
	}

	// Duplicate number within project
	dup := &models.Episode{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Number:    1,
		Status:    models.StatusTranslating,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := store.Episodes().Create(ctx, dup); err != ErrDuplicateName {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}

	// Update by number
	got, err = store.Episodes().UpdateByNumber(ctx, project.ID, 1, &models.EpisodeUpdate{
		Title:  "To You, in 2000 Years",
		Status: models.StatusReleased,
		Link:   "https://example.com/ep1",
	})
	if err != nil {
		t.Fatalf("update episode: %v", err)
	}
	if got == nil {
		t.Fatal("episode should exist")
	}
	if got.Status != models.StatusReleased {
		t.Errorf("status = %v, want released", got.Status)
	}

	// List
	episodes, err := store.Episodes().ListByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("list episodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Errorf("episodes count = %d, want 1", len(episodes))
	}

	// Delete by number
	got, err = store.Episodes().DeleteByNumber(ctx, project.ID, 1)
	if err != nil {
		t.Fatalf("delete episode: %v", err)
	}
	if got == nil {
		t.Fatal("deleted record should be returned")
	}

	got, _ = store.Episodes().GetByNumber(ctx, project.ID, 1)
	if got != nil {
		t.Error("episode should be deleted")
	}
}

func TestEpisodeRepository_CascadeDelete(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := testUser(t, store)
	project := testProject(t, store, "Attack on Titan", user.ID)

	episode := &models.Episode{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Number:    1,
		Status:    models.StatusTranslating,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	store.Episodes().Create(ctx, episode)

	// Deleting the project removes its episodes
	if _, err := store.Projects().DeleteByName(ctx, project.Name); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	episodes, err := store.Episodes().ListByProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("list episodes: %v", err)
	}
	if len(episodes) != 0 {
		t.Errorf("episodes count = %d, want 0", len(episodes))
	}
}

func TestTokenRepository_Lifecycle(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := testUser(t, store)

	token, plain, err := models.NewRefreshToken(user.ID, time.Hour)
	if err != nil {
		t.Fatalf("new refresh token: %v", err)
	}
	token.ID = uuid.New().String()

	if err := store.Tokens().Create(ctx, token); err != nil {
		t.Fatalf("create token: %v", err)
	}

	// Lookup by hash of the plaintext
	got, err := store.Tokens().GetByTokenHash(ctx, models.HashToken(plain))
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if got == nil {
		t.Fatal("token should exist")
	}
	if !got.IsValid() {
		t.Error("token should be valid")
	}

	// Revoke
	if err := store.Tokens().RevokeByTokenHash(ctx, token.TokenHash); err != nil {
		t.Fatalf("revoke token: %v", err)
	}
	got, _ = store.Tokens().GetByTokenHash(ctx, token.TokenHash)
	if got.IsValid() {
		t.Error("revoked token should be invalid")
	}

	// Expired tokens are purged
	expired, _, _ := models.NewRefreshToken(user.ID, -time.Hour)
	expired.ID = uuid.New().String()
	store.Tokens().Create(ctx, expired)

	deleted, err := store.Tokens().DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestEnsureAdminUser(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// First call should create admin
	err := store.EnsureAdminUser()
	if err != nil {
		t.Fatalf("ensure admin user: %v", err)
	}

	// Verify admin exists
	admin, err := store.Users().GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if admin == nil {
		t.Fatal("admin user should exist")
	}
	if admin.Role != models.RoleAdmin {
		t.Errorf("admin role = %v, want admin", admin.Role)
	}
	if !admin.Verified {
		t.Error("admin should be verified")
	}

	// Second call should not create duplicate
	count1, _ := store.Users().Count(ctx)
	err = store.EnsureAdminUser()
	if err != nil {
		t.Fatalf("second ensure admin user: %v", err)
	}
	count2, _ := store.Users().Count(ctx)
	if count1 != count2 {
		t.Errorf("user count changed from %d to %d", count1, count2)
	}
}
