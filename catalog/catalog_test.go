// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/messvote/blob"
	"github.com/danielhkuo/messvote/clock"
	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/testutil"
)

// fakeStore records calls and can be told to fail deletes.
type fakeStore struct {
	deleted   []string
	deleteErr error
}

func (f *fakeStore) Put(ctx context.Context, prefix, name string, r io.Reader) (string, error) {
	return blob.URLPrefix + prefix + "/" + name, nil
}

func (f *fakeStore) PutImage(ctx context.Context, prefix, name string, r io.Reader) (string, error) {
	return blob.URLPrefix + prefix + "/" + name, nil
}

func (f *fakeStore) Delete(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return f.deleteErr
}

var testNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *sql.DB, *fakeStore) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	store := &fakeStore{}
	return NewService(conn, store, clock.Fixed(testNow)), conn, store
}

func TestCreate(t *testing.T) {
	svc, _, _ := setup(t)

	item, err := svc.Create(context.Background(), models.ItemRequest{
		Name:        "Masala <b>Dosa</b>",
		MealType:    models.MealBreakfast,
		Description: "crispy & hot",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if item.Name != "Masala &lt;b&gt;Dosa&lt;/b&gt;" || item.Description != "crispy &amp; hot" {
		t.Errorf("expected escaped fields, got %q / %q", item.Name, item.Description)
	}
	if !item.IsActive || item.VoteCount != 0 {
		t.Errorf("new item should be active with zero votes: %+v", item)
	}

	got, err := svc.Get(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != item.Name || got.MealType != models.MealBreakfast {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := setup(t)

	tests := []struct {
		name string
		req  models.ItemRequest
	}{
		{"empty name", models.ItemRequest{MealType: models.MealLunch}},
		{"whitespace name", models.ItemRequest{Name: "   ", MealType: models.MealLunch}},
		{"long name", models.ItemRequest{Name: strings.Repeat("x", 101), MealType: models.MealLunch}},
		{"bad meal", models.ItemRequest{Name: "Rice", MealType: "supper"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("Create() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestListAndDeactivate(t *testing.T) {
	svc, conn, _ := setup(t)
	ctx := context.Background()

	idli := testutil.CreateTestItem(t, conn, "Idli", models.MealBreakfast)
	testutil.CreateTestItem(t, conn, "Poha", models.MealBreakfast)
	testutil.CreateTestItem(t, conn, "Thali", models.MealLunch)

	if _, err := svc.Deactivate(ctx, idli); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	all, err := svc.List(ctx, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 items, got %d", len(all))
	}

	active, err := svc.ListActive(ctx, models.MealBreakfast)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Name != "Poha" {
		t.Errorf("expected only Poha active for breakfast, got %+v", active)
	}

	if _, err := svc.List(ctx, "brunch", false); err == nil {
		t.Error("expected validation error for unknown meal type")
	}
}

func TestUpdate_Partial(t *testing.T) {
	svc, conn, _ := setup(t)
	ctx := context.Background()
	id := testutil.CreateTestItem(t, conn, "Rajma", models.MealLunch)

	desc := "with rice"
	item, err := svc.Update(ctx, id, models.UpdateItemRequest{Description: &desc})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if item.Name != "Rajma" || item.Description != "with rice" {
		t.Errorf("unexpected item after partial update: %+v", item)
	}

	if _, err := svc.Update(ctx, "missing", models.UpdateItemRequest{Description: &desc}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Update() error = %v, want ErrItemNotFound", err)
	}
}

func TestUpdate_DoesNotRewritePlanSnapshots(t *testing.T) {
	svc, conn, _ := setup(t)
	ctx := context.Background()
	id := testutil.CreateTestItem(t, conn, "Rajma", models.MealLunch)
	testutil.CreateTestPlan(t, conn, "2025-06-10", map[string][]string{models.MealLunch: {id}})

	name := "Rajma Chawal"
	if _, err := svc.Update(ctx, id, models.UpdateItemRequest{Name: &name}); err != nil {
		t.Fatal(err)
	}

	var snap string
	if err := conn.QueryRow(`SELECT name FROM plan_entry WHERE item_id = $1`, id).Scan(&snap); err != nil {
		t.Fatal(err)
	}
	if snap != "Rajma" {
		t.Errorf("plan snapshot changed to %q", snap)
	}
}

func TestDelete(t *testing.T) {
	svc, conn, store := setup(t)
	ctx := context.Background()

	past := testutil.CreateTestItem(t, conn, "Old", models.MealDinner)
	future := testutil.CreateTestItem(t, conn, "Planned", models.MealDinner)
	testutil.CreateTestPlan(t, conn, "2025-06-01", map[string][]string{models.MealDinner: {past}})
	testutil.CreateTestPlan(t, conn, "2025-06-12", map[string][]string{models.MealDinner: {future}})

	// A past plan reference does not block deletion
	conn.Exec(`UPDATE menu_item SET image_url = '/uploads/menu/old.jpg' WHERE id = $1`, past)
	store.deleteErr = errors.New("disk gone")
	if err := svc.Delete(ctx, past); err != nil {
		t.Fatalf("Delete() error = %v (cleanup failures must not surface)", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "/uploads/menu/old.jpg" {
		t.Errorf("expected image cleanup attempt, got %v", store.deleted)
	}

	if err := svc.Delete(ctx, future); !errors.Is(err, ErrItemReferenced) {
		t.Errorf("Delete() error = %v, want ErrItemReferenced", err)
	}
	if err := svc.Delete(ctx, past); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Delete() error = %v, want ErrItemNotFound", err)
	}
}

func TestAttachImage_ReplacesPrevious(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(conn, store, clock.Fixed(testNow))
	ctx := context.Background()
	id := testutil.CreateTestItem(t, conn, "Paneer", models.MealDinner)

	var buf bytes.Buffer
	png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10)))
	raw := buf.Bytes()

	first, err := svc.AttachImage(ctx, id, "paneer.png", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("AttachImage() error = %v", err)
	}
	second, err := svc.AttachImage(ctx, id, "paneer2.png", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("AttachImage() error = %v", err)
	}
	if first.ImageURL == second.ImageURL {
		t.Error("expected a new url for the replacement image")
	}

	got, _ := svc.Get(ctx, id)
	if got.ImageURL != second.ImageURL {
		t.Errorf("stored url = %q, want %q", got.ImageURL, second.ImageURL)
	}
}

func TestRecountVotes(t *testing.T) {
	svc, conn, _ := setup(t)
	ctx := context.Background()

	a := testutil.CreateTestItem(t, conn, "A", models.MealLunch)
	b := testutil.CreateTestItem(t, conn, "B", models.MealLunch)
	conn.Exec(`UPDATE menu_item SET vote_count = 42`)

	testutil.CastTestVote(t, conn, "1", "2025-06-10", models.MealLunch, a)
	testutil.CastTestVote(t, conn, "2", "2025-06-10", models.MealLunch, a)
	testutil.CastTestVote(t, conn, "3", "2025-06-10", models.MealLunch, models.SkipItemID)

	n, err := svc.RecountVotes(ctx)
	if err != nil {
		t.Fatalf("RecountVotes() error = %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 items touched, got %d", n)
	}

	gotA, _ := svc.Get(ctx, a)
	gotB, _ := svc.Get(ctx, b)
	if gotA.VoteCount != 2 || gotB.VoteCount != 0 {
		t.Errorf("expected counts 2/0, got %d/%d", gotA.VoteCount, gotB.VoteCount)
	}
}
