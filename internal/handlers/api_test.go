// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	respond(rr, http.StatusOK, map[string]string{"hello": "world"})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type: got %q", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"success":true`) {
		t.Errorf("body missing success flag: %s", body)
	}
	if !strings.Contains(body, `"hello":"world"`) {
		t.Errorf("body missing data: %s", body)
	}
}

func TestRespondErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	respondError(rr, http.StatusTeapot, "short and stout")

	if rr.Code != http.StatusTeapot {
		t.Errorf("status: got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"success":false`) || !strings.Contains(body, "short and stout") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestDecodeRejectsBadBodies(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"name":"a"}`, true},
		{"unknown field", `{"name":"a","extra":1}`, false},
		{"trailing garbage", `{"name":"a"}{"name":"b"}`, false},
		{"not json", `name=a`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			var dst payload
			err := decode(w, r, &dst)
			if tc.ok && err != nil {
				t.Errorf("decode: unexpected error %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("decode: expected an error")
			}
		})
	}
}
