// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/messvote/models"
	"github.com/danielhkuo/messvote/testutil"
)

func TestRegisterStudent(t *testing.T) {
	env := newTestEnv(t, openAt)
	handler := NewStudentHandler(env.students)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedField  string
	}{
		{"valid", models.RegisterStudentRequest{StudentID: "2021001", Name: "Asha Verma"}, http.StatusCreated, ""},
		{"duplicate id", models.RegisterStudentRequest{StudentID: "2021001", Name: "Someone"}, http.StatusConflict, ""},
		{"non numeric id", models.RegisterStudentRequest{StudentID: "A-12", Name: "Ravi"}, http.StatusBadRequest, "student_id"},
		{"id too long", models.RegisterStudentRequest{StudentID: "12345678901", Name: "Ravi"}, http.StatusBadRequest, "student_id"},
		{"missing name", models.RegisterStudentRequest{StudentID: "7"}, http.StatusBadRequest, "name"},
		{"invalid JSON", "x", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/admin/students", tt.body, nil)
			w := httptest.NewRecorder()

			handler.RegisterStudent(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedField != "" {
				var resp models.ErrorResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.Field != tt.expectedField {
					t.Errorf("Expected field %s, got %s", tt.expectedField, resp.Field)
				}
			}
		})
	}
}

func TestListAndDeleteStudents(t *testing.T) {
	env := newTestEnv(t, openAt)
	handler := NewStudentHandler(env.students)
	testutil.CreateTestStudent(t, env.db, "1", "Asha")
	testutil.CreateTestStudent(t, env.db, "2", "Ravi")

	list := func() []models.Student {
		w := httptest.NewRecorder()
		handler.ListStudents(w, httptest.NewRequest("GET", "/admin/students", nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		var out []models.Student
		testutil.AssertJSON(t, w, &out)
		return out
	}

	if got := list(); len(got) != 2 {
		t.Fatalf("Expected 2 students, got %d", len(got))
	}

	for _, want := range []int{http.StatusNoContent, http.StatusNotFound} {
		req := httptest.NewRequest("DELETE", "/admin/students/1", nil)
		req.SetPathValue("id", "1")
		w := httptest.NewRecorder()
		handler.DeleteStudent(w, req)
		testutil.AssertStatus(t, w, want)
	}

	got := list()
	if len(got) != 1 || got[0].StudentID != "2" {
		t.Errorf("Expected only student 2 left, got %+v", got)
	}
}
