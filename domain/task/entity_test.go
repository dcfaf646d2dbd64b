package task

import (
	"testing"
	"time"
)

func TestStatus_Valid(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, true},
		{StatusInProgress, true},
		{StatusCompleted, true},
		{"done", false},
		{"", false},
		{"Pending", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPatch_DropsEmptyValues(t *testing.T) {
	p := NewPatch("", "notes", "")

	if p.Title != nil {
		t.Errorf("Title = %q, want nil", *p.Title)
	}
	if p.Description == nil || *p.Description != "notes" {
		t.Errorf("Description = %v, want %q", p.Description, "notes")
	}
	if p.Status != nil {
		t.Errorf("Status = %q, want nil", *p.Status)
	}
	if got := p.String(); got != "{description}" {
		t.Errorf("String() = %q, want %q", got, "{description}")
	}
}

func TestPatch_Validate(t *testing.T) {
	if err := NewPatch("", "", "completed").Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := NewPatch("", "", "archived").Validate(); err != ErrInvalidStatus {
		t.Errorf("Validate() error = %v, want %v", err, ErrInvalidStatus)
	}
}

func TestPatch_Apply(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	tk := &Task{
		TaskID:      "t-1",
		UserID:      "u-1",
		Title:       "Buy milk",
		Description: "2 litres",
		Status:      StatusPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	NewPatch("", "", "completed").Apply(tk, updated)

	if tk.Title != "Buy milk" {
		t.Errorf("Title = %q, want unchanged", tk.Title)
	}
	if tk.Description != "2 litres" {
		t.Errorf("Description = %q, want unchanged", tk.Description)
	}
	if tk.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", tk.Status, StatusCompleted)
	}
	if !tk.UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt = %v, want %v", tk.UpdatedAt, updated)
	}
	if !tk.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed to %v", tk.CreatedAt)
	}
}

func TestTimestamp(t *testing.T) {
	in := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("X", 3600))
	got := Timestamp(in)

	if got.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", got.Location())
	}
	if got.Nanosecond() != 123000000 {
		t.Errorf("Nanosecond() = %d, want 123000000", got.Nanosecond())
	}
}
