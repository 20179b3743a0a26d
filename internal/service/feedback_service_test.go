package service

import (
	"context"
	"errors"
	"testing"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/store"
)

func TestFeedback(t *testing.T) {
	ctx := context.Background()
	svc := NewFeedbackService(store.NewMemoryStore())

	t.Run("rejects out-of-range ratings", func(t *testing.T) {
		for _, rating := range []int{0, 6, -1} {
			_, err := svc.Create(ctx, models.Feedback{
				PatientID: "pat-1", DoctorID: "doc-1", Rating: rating,
			})
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("rating %d: expected ErrValidation, got %v", rating, err)
			}
		}
	})

	t.Run("averages a doctor's ratings", func(t *testing.T) {
		for _, rating := range []int{5, 4, 3} {
			if _, err := svc.Create(ctx, models.Feedback{
				PatientID: "pat-1", DoctorID: "doc-1", Rating: rating,
			}); err != nil {
				t.Fatal(err)
			}
		}
		// Another doctor's feedback must not leak in.
		if _, err := svc.Create(ctx, models.Feedback{
			PatientID: "pat-1", DoctorID: "doc-2", Rating: 1,
		}); err != nil {
			t.Fatal(err)
		}

		rating, err := svc.RatingForDoctor(ctx, "doc-1")
		if err != nil {
			t.Fatal(err)
		}
		if rating.TotalReviews != 3 {
			t.Fatalf("totalReviews %d, want 3", rating.TotalReviews)
		}
		if rating.AverageRating != 4 {
			t.Fatalf("averageRating %v, want 4", rating.AverageRating)
		}

		list, err := svc.ListForDoctor(ctx, "doc-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(list))
		}
	})

	t.Run("doctor with no feedback", func(t *testing.T) {
		rating, err := svc.RatingForDoctor(ctx, "doc-silent")
		if err != nil {
			t.Fatal(err)
		}
		if rating.TotalReviews != 0 || rating.AverageRating != 0 {
			t.Fatalf("unexpected rating %+v", rating)
		}
	})
}
