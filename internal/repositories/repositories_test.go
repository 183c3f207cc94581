package repositories

import (
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/shared"
)

var _ credentials.Store = (*SettingsRepository)(nil)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func option(id, label string) models.VibeOption {
	return models.VibeOption{ID: id, Label: label}
}

func newVibe(dest, mood, title string) *models.Vibe {
	sel := models.CompleteSelection{
		Destination: option(dest, dest),
		View:        option("rooftop", "Rooftop"),
		Mood:        option(mood, mood),
		AspectRatio: models.AspectRatio("1:1"),
	}
	return models.NewVibe(sel, models.GeneratedResult{
		Titles:       []string{title, "Ticketless Jazz [Focus BGM]", "Midnight Session"},
		Colors:       []string{"#1e293b", "#3b82f6", "#f59e0b"},
		ThumbnailURL: "data:image/png;base64,iVBORw0KGgo=",
		PromptUsed:   "A high-quality, cinematic jazz playlist cover.",
	})
}

func TestVibeRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewVibeRepository(setupTestDB(t))
		vibe := newVibe("Paris", "Smooth Jazz", "Parisian Rooftop Nights")

		if err := repo.Create(vibe); err != nil {
			t.Fatalf("failed to create vibe: %v", err)
		}
		if vibe.ID() == "" {
			t.Error("vibe ID should be set after creation")
		}
		if vibe.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", vibe.Sequence())
		}
	})

	t.Run("Get Round Trip", func(t *testing.T) {
		repo := NewVibeRepository(setupTestDB(t))
		vibe := newVibe("Paris", "Smooth Jazz", "Parisian Rooftop Nights")
		if err := repo.Create(vibe); err != nil {
			t.Fatalf("failed to create vibe: %v", err)
		}

		got, err := repo.Get(vibe.ID())
		if err != nil {
			t.Fatalf("failed to get vibe: %v", err)
		}

		sel, res := got.Selection(), got.Result()
		if sel.Destination.Label != "Paris" || sel.View.ID != "rooftop" || sel.Mood.Label != "Smooth Jazz" {
			t.Errorf("selection mismatch: %+v", sel)
		}
		if sel.AspectRatio != "1:1" {
			t.Errorf("expected aspect 1:1, got %s", sel.AspectRatio)
		}
		if len(res.Titles) != 3 || res.Titles[0] != "Parisian Rooftop Nights" {
			t.Errorf("titles mismatch: %q", res.Titles)
		}
		if len(res.Colors) != 3 || res.Colors[2] != "#f59e0b" {
			t.Errorf("colors mismatch: %q", res.Colors)
		}
		if res.ThumbnailURL != vibe.Result().ThumbnailURL || res.PromptUsed != vibe.Result().PromptUsed {
			t.Error("thumbnail or prompt mismatch")
		}
		if got.SelectedTitle() != "Parisian Rooftop Nights" {
			t.Errorf("expected selected title to default to the first title, got %q", got.SelectedTitle())
		}
	})

	t.Run("Find", func(t *testing.T) {
		repo := NewVibeRepository(setupTestDB(t))
		first := newVibe("Paris", "Smooth Jazz", "One")
		second := newVibe("Tokyo", "Bebop", "Two")
		for _, v := range []*models.Vibe{first, second} {
			if err := repo.Create(v); err != nil {
				t.Fatalf("failed to create vibe: %v", err)
			}
		}

		for _, ref := range []string{"2", "#2", " #2 ", second.ID()} {
			got, err := repo.Find(ref)
			if err != nil {
				t.Fatalf("Find(%q) error: %v", ref, err)
			}
			if got.ID() != second.ID() {
				t.Errorf("Find(%q) = %s, want %s", ref, got.ID(), second.ID())
			}
		}

		if _, err := repo.Find("#9"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewVibeRepository(setupTestDB(t))
		vibe := newVibe("Paris", "Smooth Jazz", "One")
		if err := repo.Create(vibe); err != nil {
			t.Fatalf("failed to create vibe: %v", err)
		}

		vibe.SetSelectedTitle("My Own Title")
		vibe.SetExportPath("exports/EMusicVibe-my-own-title.jpg")
		if err := repo.Update(vibe); err != nil {
			t.Fatalf("failed to update vibe: %v", err)
		}

		got, err := repo.Get(vibe.ID())
		if err != nil {
			t.Fatalf("failed to get vibe: %v", err)
		}
		if got.SelectedTitle() != "My Own Title" || got.ExportPath() != "exports/EMusicVibe-my-own-title.jpg" {
			t.Errorf("update not persisted: %q %q", got.SelectedTitle(), got.ExportPath())
		}
	})

	t.Run("MarkExported", func(t *testing.T) {
		repo := NewVibeRepository(setupTestDB(t))
		vibe := newVibe("Paris", "Smooth Jazz", "One")
		if err := repo.Create(vibe); err != nil {
			t.Fatalf("failed to create vibe: %v", err)
		}

		if err := repo.MarkExported(vibe.ID(), "Other", "out/x.jpg"); err != nil {
			t.Fatalf("MarkExported failed: %v", err)
		}
		got, _ := repo.Get(vibe.ID())
		if got.SelectedTitle() != "Other" || got.ExportPath() != "out/x.jpg" {
			t.Errorf("export not recorded: %q %q", got.SelectedTitle(), got.ExportPath())
		}

		if err := repo.MarkExported("missing", "x", "y"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewVibeRepository(setupTestDB(t))
		vibe := newVibe("Paris", "Smooth Jazz", "One")
		if err := repo.Create(vibe); err != nil {
			t.Fatalf("failed to create vibe: %v", err)
		}

		if err := repo.Delete(vibe.ID()); err != nil {
			t.Fatalf("failed to delete vibe: %v", err)
		}
		if _, err := repo.Get(vibe.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete(vibe.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
		if n, _ := repo.Count(); n != 0 {
			t.Errorf("expected count 0, got %d", n)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewVibeRepository(setupTestDB(t))
		vibes := []*models.Vibe{
			newVibe("Paris", "Smooth Jazz", "Parisian Rooftop Nights"),
			newVibe("Tokyo", "Bebop", "Neon Bebop"),
			newVibe("Paris", "Bebop", "Left Bank Bebop"),
		}
		for _, v := range vibes {
			if err := repo.Create(v); err != nil {
				t.Fatalf("failed to create vibe: %v", err)
			}
		}
		if err := repo.Delete(vibes[0].ID()); err != nil {
			t.Fatalf("failed to delete vibe: %v", err)
		}

		tests := []struct {
			name     string
			criteria map[string]any
			want     []int
		}{
			{"All Newest First", map[string]any{}, []int{3, 2}},
			{"Oldest First", map[string]any{"order": "asc"}, []int{2, 3}},
			{"By Mood", map[string]any{"mood": "bebop"}, []int{3, 2}},
			{"By Destination", map[string]any{"destination": "Paris"}, []int{3}},
			{"Search Title", map[string]any{"search": "Neon"}, []int{2}},
			{"Limit", map[string]any{"limit": 1}, []int{3}},
			{"No Match", map[string]any{"mood": "Cool Jazz"}, nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list vibes: %v", err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("expected %d vibes, got %d", len(tt.want), len(got))
				}
				for i, v := range got {
					if v.Sequence() != tt.want[i] {
						t.Errorf("position %d: expected sequence %d, got %d", i, tt.want[i], v.Sequence())
					}
				}
			})
		}
	})

	t.Run("Concurrent Sequences", func(t *testing.T) {
		repo := NewVibeRepository(setupTestDB(t))

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- repo.Create(newVibe("Paris", "Smooth Jazz", "One"))
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("concurrent create failed: %v", err)
			}
		}

		all, err := repo.List(map[string]any{"order": "asc"})
		if err != nil {
			t.Fatalf("failed to list vibes: %v", err)
		}
		for i, v := range all {
			if v.Sequence() != i+1 {
				t.Errorf("expected sequence %d, got %d", i+1, v.Sequence())
			}
		}
	})
}

func TestVibeRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo := NewVibeRepository(setupTestDB(t))
			vibe := newVibe("Paris", "Smooth Jazz", "One")
			bad := models.NewVibe(vibe.Selection(), models.GeneratedResult{Titles: []string{"x"}})

			if err := repo.Create(bad); !errors.Is(err, shared.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput for missing thumbnail, got %v", err)
			}
		})

		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			if err := NewVibeRepository(db).Create(newVibe("Paris", "Smooth Jazz", "One")); err == nil {
				t.Fatal("expected error with closed database")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewVibeRepository(setupTestDB(t))
			if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			repo := NewVibeRepository(setupTestDB(t))
			vibe := newVibe("Paris", "Smooth Jazz", "One")
			vibe.SetID("nonexistent-id")

			if err := repo.Update(vibe); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			if _, err := NewVibeRepository(db).List(nil); err == nil {
				t.Fatal("expected error with closed database")
			}
		})
	})
}

func TestSettingsRepository(t *testing.T) {
	t.Run("Get Missing", func(t *testing.T) {
		repo := NewSettingsRepository(setupTestDB(t))
		if _, err := repo.Get(credentials.StoreKey); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Set Get Overwrite", func(t *testing.T) {
		repo := NewSettingsRepository(setupTestDB(t))

		if err := repo.Set(credentials.StoreKey, "first"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := repo.Set(credentials.StoreKey, "second"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		got, err := repo.Get(credentials.StoreKey)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "second" {
			t.Errorf("expected second, got %q", got)
		}

		all, err := repo.All()
		if err != nil {
			t.Fatalf("All failed: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected 1 setting, got %d", len(all))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSettingsRepository(setupTestDB(t))
		if err := repo.Set("k", "v"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := repo.Delete("k"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := repo.Delete("k"); err != nil {
			t.Errorf("deleting a missing key should succeed, got %v", err)
		}
		if _, err := repo.Get("k"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Empty Key", func(t *testing.T) {
		repo := NewSettingsRepository(setupTestDB(t))
		if err := repo.Set("", "v"); !errors.Is(err, shared.ErrEmptyInput) {
			t.Errorf("expected ErrEmptyInput, got %v", err)
		}
	})

	t.Run("Backs Credential Manager", func(t *testing.T) {
		repo := NewSettingsRepository(setupTestDB(t))
		mgr := credentials.NewManager(credentials.Options{Store: repo})

		if err := mgr.SaveKey("  AIza-test  "); err != nil {
			t.Fatalf("SaveKey failed: %v", err)
		}
		if mgr.Source() != "store" {
			t.Errorf("expected source store, got %s", mgr.Source())
		}
		if err := mgr.Clear(); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if mgr.Source() != "none" {
			t.Errorf("expected source none after clear, got %s", mgr.Source())
		}
	})
}
