package store

import (
	"testing"

	"certstudio/internal/models"
)

func TestTemplateCreateDefaultsDesign(t *testing.T) {
	db := testDB(t)
	ts := NewTemplateStore(db)
	u := testUser(t, db)

	tmpl, err := ts.Create(u.ID, "Blank", "", models.DesignData{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { ts.Delete(tmpl.ID) })

	if tmpl.Design.Version != models.DesignSchemaVersion {
		t.Errorf("version = %d", tmpl.Design.Version)
	}
	if tmpl.Design.Properties.Size.Width != 210 || tmpl.Design.Properties.Orientation != models.Portrait {
		t.Errorf("properties = %+v", tmpl.Design.Properties)
	}
	if tmpl.Design.Elements == nil || len(tmpl.Design.Elements) != 0 {
		t.Errorf("elements = %+v", tmpl.Design.Elements)
	}
}

func TestTemplateDesignRoundTrip(t *testing.T) {
	db := testDB(t)
	ts := NewTemplateStore(db)
	u := testUser(t, db)

	design := models.NewDesignData()
	design.Elements = []models.Element{
		{ID: "a", Type: models.ElementText, Content: "First", Position: models.Position{X: 10, Y: 20},
			Style: map[string]string{"fontSize": "16px"}},
		{ID: "b", Type: models.ElementShape, Content: models.ShapeCircle},
		{ID: "c", Type: models.ElementPlaceholder, Content: "{{recipient.name}}"},
	}

	tmpl, err := ts.Create(u.ID, "Round Trip", "desc", design)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { ts.Delete(tmpl.ID) })

	got, err := ts.FindByID(tmpl.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID: %+v, %v", got, err)
	}
	if len(got.Design.Elements) != 3 {
		t.Fatalf("elements = %d", len(got.Design.Elements))
	}
	// Element order is part of the document: it must survive storage.
	for i, id := range []string{"a", "b", "c"} {
		if got.Design.Elements[i].ID != id {
			t.Fatalf("element %d = %q, want %q", i, got.Design.Elements[i].ID, id)
		}
	}
	if got.Design.Elements[0].Style["fontSize"] != "16px" {
		t.Errorf("style lost: %+v", got.Design.Elements[0].Style)
	}
}

func TestTemplateUpdate(t *testing.T) {
	db := testDB(t)
	ts := NewTemplateStore(db)
	u := testUser(t, db)

	tmpl, err := ts.Create(u.ID, "Before", "", models.DesignData{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { ts.Delete(tmpl.ID) })

	tmpl.Name = "After"
	tmpl.IsPublic = true
	tmpl.Design.Elements = append(tmpl.Design.Elements, models.Element{
		ID: "x", Type: models.ElementText, Content: "Hello",
	})

	updated, err := ts.Update(tmpl)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "After" || !updated.IsPublic || len(updated.Design.Elements) != 1 {
		t.Errorf("updated = %+v", updated)
	}
	if !updated.UpdatedAt.After(tmpl.CreatedAt) {
		t.Error("updated_at should advance")
	}
}

func TestTemplateDuplicate(t *testing.T) {
	db := testDB(t)
	ts := NewTemplateStore(db)
	owner := testUser(t, db)
	other := testUser(t, db)

	design := models.NewDesignData()
	design.Elements = []models.Element{{ID: "e", Type: models.ElementText, Content: "Keep"}}
	src, err := ts.Create(owner.ID, "Original", "", design)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { ts.Delete(src.ID) })

	// Owner duplicate with default name.
	copy1, err := ts.Duplicate(src.ID, owner.ID, "")
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	t.Cleanup(func() { ts.Delete(copy1.ID) })
	if copy1.Name != "Original (Copy)" || len(copy1.Design.Elements) != 1 {
		t.Errorf("copy = %+v", copy1)
	}
	if copy1.ID == src.ID {
		t.Error("duplicate must get a new ID")
	}

	// Private templates are not duplicable by other users.
	if _, err := ts.Duplicate(src.ID, other.ID, ""); err == nil {
		t.Error("expected error duplicating another user's private template")
	}

	// Public ones are.
	src.IsPublic = true
	if _, err := ts.Update(src); err != nil {
		t.Fatalf("Update: %v", err)
	}
	copy2, err := ts.Duplicate(src.ID, other.ID, "Borrowed")
	if err != nil {
		t.Fatalf("Duplicate public: %v", err)
	}
	t.Cleanup(func() { ts.Delete(copy2.ID) })
	if copy2.UserID != other.ID || copy2.Name != "Borrowed" {
		t.Errorf("public copy = %+v", copy2)
	}
}

func TestTemplateListByUser(t *testing.T) {
	db := testDB(t)
	ts := NewTemplateStore(db)
	u := testUser(t, db)

	for _, name := range []string{"One", "Two"} {
		tmpl, err := ts.Create(u.ID, name, "", models.DesignData{})
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		t.Cleanup(func() { ts.Delete(tmpl.ID) })
	}

	list, err := ts.ListByUser(u.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list = %d templates", len(list))
	}
}
