package core

import (
	"testing"
	"time"
)

func TestProjectValidate(t *testing.T) {
	tests := []struct {
		name    string
		project Project
		wantErr error
	}{
		{
			name:    "valid",
			project: Project{Name: "Deck Build", HourlyRate: Decimal{Hundredths: 7500}, MileageRate: DefaultMileageRate},
			wantErr: nil,
		},
		{
			name:    "empty name",
			project: Project{Name: "   "},
			wantErr: ErrEmptyName,
		},
		{
			name:    "negative hourly rate",
			project: Project{Name: "x", HourlyRate: Decimal{Hundredths: -1}},
			wantErr: ErrNegativeRate,
		},
		{
			name:    "negative mileage rate",
			project: Project{Name: "x", MileageRate: Decimal{Hundredths: -1}},
			wantErr: ErrNegativeRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.project.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeEntryValidate(t *testing.T) {
	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	end := start.Add(9 * time.Hour)

	valid := TimeEntry{ProjectID: 1, Start: start, End: end, Hours: Decimal{Hundredths: 900}}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid entry: %v", err)
	}

	noProject := TimeEntry{Start: start, End: end}
	if err := noProject.Validate(); err != ErrInvalidProjectRef {
		t.Errorf("missing project = %v, want %v", err, ErrInvalidProjectRef)
	}

	zeroStart := TimeEntry{ProjectID: 1, End: end}
	if err := zeroStart.Validate(); err != ErrZeroTimestamp {
		t.Errorf("zero start = %v, want %v", err, ErrZeroTimestamp)
	}

	// End before Start is accepted: the stored hours figure wins.
	backwards := TimeEntry{ProjectID: 1, Start: end, End: start, Hours: Decimal{Hundredths: 100}}
	if err := backwards.Validate(); err != nil {
		t.Errorf("end before start should validate, got %v", err)
	}
}

func TestMileageEntryValidate(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	valid := MileageEntry{ProjectID: 1, Date: day, Miles: Decimal{Hundredths: 1250}}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid entry: %v", err)
	}

	negative := MileageEntry{ProjectID: 1, Date: day, Miles: Decimal{Hundredths: -1}}
	if err := negative.Validate(); err != ErrNegativeMiles {
		t.Errorf("negative miles = %v, want %v", err, ErrNegativeMiles)
	}

	zeroDate := MileageEntry{ProjectID: 1, Miles: Decimal{Hundredths: 100}}
	if err := zeroDate.Validate(); err != ErrZeroDate {
		t.Errorf("zero date = %v, want %v", err, ErrZeroDate)
	}
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2025, 3, 3, 17, 45, 12, 99, time.UTC)
	got := DateOnly(in)
	want := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOnly() = %v, want %v", got, want)
	}
}
