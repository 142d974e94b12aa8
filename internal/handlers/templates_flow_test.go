// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"certstudio/internal/models"
)

func TestTemplateCRUD(t *testing.T) {
	env := newTestEnv(t)
	u := env.testUser(t, models.RoleUser)
	sess := sessionFor(u)

	// Create.
	rr := httptest.NewRecorder()
	env.Templates.Create(rr, jsonRequest(http.MethodPost, "/api/templates", map[string]string{
		"name":        "Course Completion",
		"description": "Completion award",
	}, sess))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	var tmpl models.Template
	decodeEnvelope(t, rr, &tmpl)
	t.Cleanup(func() { env.TemplateStore.Delete(tmpl.ID) })

	if tmpl.Name != "Course Completion" {
		t.Errorf("name: got %q", tmpl.Name)
	}
	if tmpl.Design.Version != models.DesignSchemaVersion {
		t.Errorf("design version: got %d, want %d", tmpl.Design.Version, models.DesignSchemaVersion)
	}

	// Create without a name is rejected.
	rr = httptest.NewRecorder()
	env.Templates.Create(rr, jsonRequest(http.MethodPost, "/api/templates", map[string]string{"name": "  "}, sess))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty name: got %d, want 400", rr.Code)
	}

	// Get.
	rr = httptest.NewRecorder()
	req := withChiURLParam(jsonRequest(http.MethodGet, "/api/templates/x", nil, sess), "id", tmpl.ID.String())
	env.Templates.Get(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: got %d, want 200", rr.Code)
	}

	// A private template is hidden from other users.
	other := env.testUser(t, models.RoleUser)
	rr = httptest.NewRecorder()
	req = withChiURLParam(jsonRequest(http.MethodGet, "/api/templates/x", nil, sessionFor(other)), "id", tmpl.ID.String())
	env.Templates.Get(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("other user's get: got %d, want 403", rr.Code)
	}

	// Autosave update: rename and publish.
	rr = httptest.NewRecorder()
	req = withChiURLParam(jsonRequest(http.MethodPut, "/api/templates/x", map[string]any{
		"name":      "Course Completion v2",
		"is_public": true,
	}, sess), "id", tmpl.ID.String())
	env.Templates.Update(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	var updated models.Template
	decodeEnvelope(t, rr, &updated)
	if updated.Name != "Course Completion v2" || !updated.IsPublic {
		t.Errorf("update not applied: %+v", updated)
	}

	// Now public, the other user can read and duplicate it.
	rr = httptest.NewRecorder()
	req = withChiURLParam(jsonRequest(http.MethodGet, "/api/templates/x", nil, sessionFor(other)), "id", tmpl.ID.String())
	env.Templates.Get(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("public get: got %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = withChiURLParam(jsonRequest(http.MethodPost, "/api/templates/x/duplicate", map[string]string{}, sessionFor(other)), "id", tmpl.ID.String())
	env.Templates.Duplicate(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("duplicate: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	var dup models.Template
	decodeEnvelope(t, rr, &dup)
	t.Cleanup(func() { env.TemplateStore.Delete(dup.ID) })
	if dup.UserID != other.ID {
		t.Errorf("duplicate owner: got %s, want %s", dup.UserID, other.ID)
	}
	if dup.Name != "Course Completion v2 (Copy)" {
		t.Errorf("duplicate name: got %q", dup.Name)
	}

	// Delete is owner-only.
	rr = httptest.NewRecorder()
	req = withChiURLParam(jsonRequest(http.MethodDelete, "/api/templates/x", nil, sessionFor(other)), "id", tmpl.ID.String())
	env.Templates.Delete(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("other user's delete: got %d, want 403", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = withChiURLParam(jsonRequest(http.MethodDelete, "/api/templates/x", nil, sess), "id", tmpl.ID.String())
	env.Templates.Delete(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("delete: got %d, want 200", rr.Code)
	}
}

func TestTemplateDesignOperations(t *testing.T) {
	env := newTestEnv(t)
	u := env.testUser(t, models.RoleUser)
	sess := sessionFor(u)

	tmpl, err := env.TemplateStore.Create(u.ID, "Design Ops", "", models.DesignData{})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	t.Cleanup(func() { env.TemplateStore.Delete(tmpl.ID) })

	// Add a text element centered in a custom viewport.
	rr := httptest.NewRecorder()
	req := withChiURLParam(jsonRequest(http.MethodPost, "/api/templates/x/elements", map[string]any{
		"type":     "text",
		"viewport": map[string]float64{"width": 1000, "height": 700},
	}, sess), "id", tmpl.ID.String())
	env.Templates.AddElement(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add element: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	var el models.Element
	decodeEnvelope(t, rr, &el)
	if el.ID == "" {
		t.Fatal("element id missing")
	}
	if el.Position.X != 400 || el.Position.Y != 250 {
		t.Errorf("position: got (%v,%v), want viewport center minus offset", el.Position.X, el.Position.Y)
	}

	// Unknown element type is rejected.
	rr = httptest.NewRecorder()
	req = withChiURLParam(jsonRequest(http.MethodPost, "/api/templates/x/elements", map[string]any{"type": "video"}, sess), "id", tmpl.ID.String())
	env.Templates.AddElement(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown type: got %d, want 400", rr.Code)
	}

	// Patch the element's content and one style key.
	rr = httptest.NewRecorder()
	req = withChiURLParam(withChiURLParam(jsonRequest(http.MethodPatch, "/api/templates/x/elements/y", map[string]any{
		"content": "{{recipient.name}}",
		"style":   map[string]string{"fontSize": "32px"},
	}, sess), "id", tmpl.ID.String()), "elementID", el.ID)
	env.Templates.PatchElement(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch element: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	var patched models.Element
	decodeEnvelope(t, rr, &patched)
	if patched.Content != "{{recipient.name}}" {
		t.Errorf("content: got %q", patched.Content)
	}
	if patched.Style["fontSize"] != "32px" {
		t.Errorf("fontSize: got %q, want 32px", patched.Style["fontSize"])
	}
	if patched.Style["fontFamily"] != "Arial" {
		t.Errorf("untouched style keys must survive the merge, got %q", patched.Style["fontFamily"])
	}

	// Patching a vanished element is a silent no-op.
	rr = httptest.NewRecorder()
	req = withChiURLParam(withChiURLParam(jsonRequest(http.MethodPatch, "/api/templates/x/elements/y", map[string]any{
		"content": "late drag",
	}, sess), "id", tmpl.ID.String()), "elementID", "no-such-element")
	env.Templates.PatchElement(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("patch missing element: got %d, want 200", rr.Code)
	}

	// Toggle orientation: A4 portrait becomes landscape with swapped size.
	rr = httptest.NewRecorder()
	req = withChiURLParam(jsonRequest(http.MethodPost, "/api/templates/x/orientation", nil, sess), "id", tmpl.ID.String())
	env.Templates.ToggleOrientation(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("toggle orientation: got %d (%s)", rr.Code, rr.Body.String())
	}
	var props models.Properties
	decodeEnvelope(t, rr, &props)
	if props.Orientation != models.Landscape {
		t.Errorf("orientation: got %q, want landscape", props.Orientation)
	}
	if props.Size.Width != 297 || props.Size.Height != 210 {
		t.Errorf("size: got %vx%v, want 297x210", props.Size.Width, props.Size.Height)
	}

	// Replace properties wholesale.
	props.Background = models.Background{Type: "color", Value: "#fafafa"}
	rr = httptest.NewRecorder()
	req = withChiURLParam(jsonRequest(http.MethodPut, "/api/templates/x/properties", props, sess), "id", tmpl.ID.String())
	env.Templates.UpdateProperties(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("update properties: got %d (%s)", rr.Code, rr.Body.String())
	}
	var stored models.Properties
	decodeEnvelope(t, rr, &stored)
	if stored.Background.Value != "#fafafa" {
		t.Errorf("background: got %q", stored.Background.Value)
	}

	// Delete the element; the design ends up empty again.
	rr = httptest.NewRecorder()
	req = withChiURLParam(withChiURLParam(jsonRequest(http.MethodDelete, "/api/templates/x/elements/y", nil, sess), "id", tmpl.ID.String()), "elementID", el.ID)
	env.Templates.DeleteElement(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete element: got %d", rr.Code)
	}

	reloaded, err := env.TemplateStore.FindByID(tmpl.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload template: %v", err)
	}
	if len(reloaded.Design.Elements) != 0 {
		t.Errorf("elements after delete: got %d, want 0", len(reloaded.Design.Elements))
	}
}
