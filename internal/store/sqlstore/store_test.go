package sqlstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/recipeapp/recipe-server/internal/domain"
	"github.com/recipeapp/recipe-server/internal/id"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: dbPath}, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// makeTestUser inserts a user with the given email and returns it.
func makeTestUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		Entity:       domain.Entity{ID: id.NewUUID()},
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Test",
		IsActive:     true,
	}
	u.InitTimestamps()
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// makeTestRecipe builds an unsaved recipe owned by userID.
func makeTestRecipe(userID, title string) *domain.Recipe {
	r := &domain.Recipe{
		Entity:      domain.Entity{ID: id.MustGenerate("rcp")},
		UserID:      userID,
		Title:       title,
		TimeMinutes: 10,
		Price:       550,
	}
	r.InitTimestamps()
	return r
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Foreign keys must be on for every pooled connection, not just the first.
	conns := make([]int, 0, 3)
	for range 3 {
		var fk int
		if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("query foreign_keys: %v", err)
		}
		conns = append(conns, fk)
	}
	for i, fk := range conns {
		if fk != 1 {
			t.Errorf("conn %d: expected foreign_keys=1, got %d", i, fk)
		}
	}

	tables := []string{"users", "tags", "ingredients", "recipes", "recipe_tags", "recipe_ingredients"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "again.db")
	ctx := context.Background()

	for i := range 2 {
		s, err := Open(ctx, Config{Driver: DriverSQLite, DSN: dbPath}, nil)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		s.Close()
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestRebind(t *testing.T) {
	got := postgresDialect.rebind(`SELECT a FROM t WHERE x = ? AND y IN (?, ?)`)
	want := `SELECT a FROM t WHERE x = $1 AND y IN ($2, $3)`
	if got != want {
		t.Errorf("rebind: got %q, want %q", got, want)
	}

	if got := sqliteDialect.rebind(`x = ?`); got != `x = ?` {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
}

func TestSQLiteDSN(t *testing.T) {
	got := sqliteDialect.dsn("/data/app.db")
	if got != "/data/app.db?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Errorf("unexpected dsn: %s", got)
	}

	custom := "file:x.db?_pragma=foreign_keys(1)"
	if got := sqliteDialect.dsn(custom); got != custom {
		t.Errorf("custom pragmas should be kept as-is, got %s", got)
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("-- comment\nCREATE TABLE a (x INT);\n\n-- only comment;\nCREATE INDEX i ON a(x);\n")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}

	stmts = splitStatements("-- owners; cascades\nCREATE TABLE b (y INT);")
	if len(stmts) != 1 || stmts[0] != "CREATE TABLE b (y INT)" {
		t.Fatalf("semicolon in comment leaked into statements: %q", stmts)
	}
}

func TestSplitStatements_EmbeddedSchemas(t *testing.T) {
	for name, schema := range map[string]string{"sqlite": sqliteSchema, "postgres": postgresSchema} {
		stmts := splitStatements(schema)
		if len(stmts) == 0 {
			t.Fatalf("%s: no statements", name)
		}
		for _, stmt := range stmts {
			if !strings.HasPrefix(stmt, "CREATE ") {
				t.Errorf("%s: statement does not start with CREATE: %q", name, stmt)
			}
		}
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "recipes.db")
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: dbPath}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestFormatTime_SortsChronologically(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := formatTime(base)
	later := formatTime(base.Add(100 * time.Millisecond))
	if !(earlier < later) {
		t.Errorf("expected %q < %q", earlier, later)
	}

	parsed, err := parseTime(later)
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !parsed.Equal(base.Add(100 * time.Millisecond)) {
		t.Errorf("round trip: got %v", parsed)
	}
}
