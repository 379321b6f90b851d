package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("creating test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertCrate(t *testing.T) {
	db := testDB(t)

	c1, err := db.UpsertCrate("serde", "1.0.210")
	if err != nil {
		t.Fatal(err)
	}
	if c1.Name != "serde" || c1.Version != "1.0.210" {
		t.Errorf("got %s/%s", c1.Name, c1.Version)
	}

	t.Run("idempotent", func(t *testing.T) {
		c2, err := db.UpsertCrate("serde", "1.0.210")
		if err != nil {
			t.Fatal(err)
		}
		if c2.ID != c1.ID {
			t.Errorf("got id %d, want %d", c2.ID, c1.ID)
		}
	})

	t.Run("distinct_versions", func(t *testing.T) {
		c3, err := db.UpsertCrate("serde", "1.0.0")
		if err != nil {
			t.Fatal(err)
		}
		if c3.ID == c1.ID {
			t.Error("different versions should be different rows")
		}
	})

	t.Run("unindexed_until_marked", func(t *testing.T) {
		c, err := db.GetCrate("serde", "1.0.210")
		if err != nil {
			t.Fatal(err)
		}
		if c.IndexedAt != nil {
			t.Error("fresh crate should not be marked indexed")
		}

		if err := db.MarkCrateIndexed(c.ID, 3); err != nil {
			t.Fatal(err)
		}
		c, err = db.GetCrate("serde", "1.0.210")
		if err != nil {
			t.Fatal(err)
		}
		if c.IndexedAt == nil {
			t.Error("expected indexed_at after marking")
		}
		if c.Epoch != 3 {
			t.Errorf("got epoch %d, want 3", c.Epoch)
		}
	})
}

func TestGetCrateMissing(t *testing.T) {
	db := testDB(t)

	c, err := db.GetCrate("nonexistent", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("got %v, want nil", c)
	}
}

func TestGetLatestCrate(t *testing.T) {
	db := testDB(t)

	old, err := db.UpsertCrate("tokio", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.MarkCrateIndexed(old.ID, 3); err != nil {
		t.Fatal(err)
	}

	if _, err := db.UpsertCrate("tokio", "1.40.0"); err != nil {
		t.Fatal(err)
	}

	// Only indexed crates count.
	got, err := db.GetLatestCrate("tokio")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Version != "1.0.0" {
		t.Errorf("got %v, want version 1.0.0", got)
	}
}

func TestReplaceItems(t *testing.T) {
	db := testDB(t)

	crate, err := db.UpsertCrate("demo", "0.1.0")
	if err != nil {
		t.Fatal(err)
	}

	first := []Item{
		{Path: "demo::Foo", URL: "demo/struct.Foo.html", Kind: "struct", Name: "Foo", Description: "A struct"},
		{Path: "demo::bar", URL: "demo/fn.bar.html", Kind: "fn", Name: "bar"},
	}
	if err := db.ReplaceItems(crate.ID, first); err != nil {
		t.Fatal(err)
	}

	count, err := db.CountItems(crate.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("got %d items, want 2", count)
	}

	t.Run("lookup", func(t *testing.T) {
		it, err := db.GetItemByPath(crate.ID, "demo::Foo")
		if err != nil {
			t.Fatal(err)
		}
		if it == nil {
			t.Fatal("expected item")
		}
		if it.URL != "demo/struct.Foo.html" || it.Kind != "struct" {
			t.Errorf("got %+v", it)
		}
	})

	t.Run("miss", func(t *testing.T) {
		it, err := db.GetItemByPath(crate.ID, "demo::Missing")
		if err != nil {
			t.Fatal(err)
		}
		if it != nil {
			t.Errorf("got %+v, want nil", it)
		}
	})

	t.Run("replace_swaps_full_set", func(t *testing.T) {
		second := []Item{
			{Path: "demo::Baz", URL: "demo/struct.Baz.html", Kind: "struct", Name: "Baz"},
		}
		if err := db.ReplaceItems(crate.ID, second); err != nil {
			t.Fatal(err)
		}

		count, err := db.CountItems(crate.ID)
		if err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("got %d items, want 1", count)
		}
		if it, _ := db.GetItemByPath(crate.ID, "demo::Foo"); it != nil {
			t.Error("old item should be gone after replace")
		}
	})
}

func TestSearchItemsByPath(t *testing.T) {
	db := testDB(t)

	crate, err := db.UpsertCrate("demo", "0.1.0")
	if err != nil {
		t.Fatal(err)
	}
	items := []Item{
		{Path: "demo::vec::Vec", URL: "demo/vec/struct.Vec.html", Kind: "struct", Name: "Vec"},
		{Path: "demo::vec::IntoIter", URL: "demo/vec/struct.IntoIter.html", Kind: "struct", Name: "IntoIter"},
		{Path: "demo::map::Map", URL: "demo/map/struct.Map.html", Kind: "struct", Name: "Map"},
	}
	if err := db.ReplaceItems(crate.ID, items); err != nil {
		t.Fatal(err)
	}

	got, err := db.SearchItemsByPath(crate.ID, "vec", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	// Shortest path first.
	if got[0].Path != "demo::vec::Vec" {
		t.Errorf("got %q first", got[0].Path)
	}
}

func TestDeleteCrate(t *testing.T) {
	db := testDB(t)

	crate, err := db.UpsertCrate("demo", "0.1.0")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.ReplaceItems(crate.ID, []Item{{Path: "demo::Foo", URL: "u", Kind: "struct", Name: "Foo"}}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteCrate(crate.ID); err != nil {
		t.Fatal(err)
	}

	c, err := db.GetCrate("demo", "0.1.0")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Error("crate should be gone")
	}
	count, err := db.CountItems(crate.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("got %d items, want 0", count)
	}
}
