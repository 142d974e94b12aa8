package store

import (
	"testing"

	"certstudio/internal/models"
)

func TestDatasetCreateAndFind(t *testing.T) {
	db := testDB(t)
	ds := NewDatasetStore(db)
	u := testUser(t, db)

	headers := []string{"name", "email", "course.name"}
	rows := []models.RecipientRow{
		{"name": "Ana", "email": "ana@x.y", "course.name": "Go 101"},
		{"name": "Bo", "email": "bo@x.y", "course.name": "Go 101"},
	}

	d, err := ds.Create(u.ID, "spring-cohort.csv", headers, rows)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { ds.Delete(d.ID) })

	if d.RowCount != 2 {
		t.Errorf("RowCount = %d", d.RowCount)
	}

	got, err := ds.FindByID(d.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID: %+v, %v", got, err)
	}
	if len(got.Headers) != 3 || got.Headers[2] != "course.name" {
		t.Errorf("headers = %v", got.Headers)
	}
	if len(got.Rows) != 2 || got.Rows[1]["name"] != "Bo" {
		t.Errorf("rows = %v", got.Rows)
	}
}

func TestDatasetListOmitsRows(t *testing.T) {
	db := testDB(t)
	ds := NewDatasetStore(db)
	u := testUser(t, db)

	d, err := ds.Create(u.ID, "list.csv", []string{"name"}, []models.RecipientRow{{"name": "Cy"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { ds.Delete(d.ID) })

	list, err := ds.ListByUser(u.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %d datasets", len(list))
	}
	if list[0].Rows != nil {
		t.Error("listing should not carry rows")
	}
	if list[0].RowCount != 1 || list[0].Headers[0] != "name" {
		t.Errorf("listing = %+v", list[0])
	}
}

func TestGenerationLogLifecycle(t *testing.T) {
	db := testDB(t)
	ts := NewTemplateStore(db)
	gs := NewGenerationStore(db)
	u := testUser(t, db)

	tmpl, err := ts.Create(u.ID, "For Log", "", models.DesignData{})
	if err != nil {
		t.Fatalf("Create template: %v", err)
	}
	t.Cleanup(func() { ts.Delete(tmpl.ID) })

	rec, err := gs.Create(tmpl.ID, u.ID, 25, "pdf", 10)
	if err != nil {
		t.Fatalf("Create record: %v", err)
	}
	if rec.Status != models.GenerationPending {
		t.Errorf("status = %q", rec.Status)
	}

	if err := gs.SetStatus(rec.ID, models.GenerationCompleted, nil); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, err := gs.FindByID(rec.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != models.GenerationCompleted || got.Error != nil {
		t.Errorf("record = %+v", got)
	}

	msg := "recipient 7 of 25: render exploded"
	if err := gs.SetStatus(rec.ID, models.GenerationFailed, &msg); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, _ = gs.FindByID(rec.ID)
	if got.Error == nil || *got.Error != msg {
		t.Errorf("error = %v", got.Error)
	}

	list, err := gs.ListByUser(u.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("list = %d records", len(list))
	}
}

func TestFieldStoreGrouping(t *testing.T) {
	db := testDB(t)
	fs := NewFieldStore(db)

	// Catalog entries use unique paths to avoid clashing with seeds.
	f1, err := fs.Create("testcat.zeta", "Zeta", "testcat")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { fs.Delete(f1.ID) })
	f2, err := fs.Create("testcat.alpha", "Alpha", "testcat")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { fs.Delete(f2.ID) })

	groups, err := fs.ListGrouped()
	if err != nil {
		t.Fatalf("ListGrouped: %v", err)
	}

	var found *models.FieldGroup
	for i := range groups {
		if groups[i].Category == "testcat" {
			found = &groups[i]
			break
		}
	}
	if found == nil {
		t.Fatal("testcat group missing")
	}
	if len(found.Fields) != 2 {
		t.Fatalf("group fields = %d", len(found.Fields))
	}
	// Fields come back sorted by display name within the category.
	if found.Fields[0].DisplayName != "Alpha" || found.Fields[1].DisplayName != "Zeta" {
		t.Errorf("order = %q, %q", found.Fields[0].DisplayName, found.Fields[1].DisplayName)
	}
}
