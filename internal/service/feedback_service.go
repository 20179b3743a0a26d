package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/store"
	"github.com/google/uuid"
)

type FeedbackService struct {
	store store.DocumentStore
}

func NewFeedbackService(st store.DocumentStore) *FeedbackService {
	return &FeedbackService{store: st}
}

// Create records a patient's rating for a consultation. Ratings run 1
// to 5.
func (s *FeedbackService) Create(ctx context.Context, fb models.Feedback) (*models.Feedback, error) {
	if fb.Rating < 1 || fb.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5, got %d", ErrValidation, fb.Rating)
	}
	if fb.DoctorID == "" || fb.PatientID == "" {
		return nil, fmt.Errorf("%w: doctorId and patientId are required", ErrValidation)
	}

	fb.ID = uuid.NewString()
	fb.CreatedAt = time.Now()
	fields, err := store.Fields(fb)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetDocument(ctx, models.CollectionFeedback, fb.ID, fields); err != nil {
		return nil, err
	}
	return &fb, nil
}

// ListForDoctor returns a doctor's feedback, newest first.
func (s *FeedbackService) ListForDoctor(ctx context.Context, doctorID string) ([]models.Feedback, error) {
	docs, err := s.store.QueryDocuments(ctx, models.CollectionFeedback, []store.Filter{
		store.Eq("doctorId", doctorID),
	}, "createdAt")
	if err != nil {
		return nil, err
	}
	out := make([]models.Feedback, 0, len(docs))
	for _, doc := range docs {
		var fb models.Feedback
		if err := store.Decode(doc, &fb); err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// RatingForDoctor averages a doctor's ratings. A doctor with no
// feedback has a zero average and zero reviews.
func (s *FeedbackService) RatingForDoctor(ctx context.Context, doctorID string) (*models.DoctorRating, error) {
	list, err := s.ListForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	rating := &models.DoctorRating{DoctorID: doctorID, TotalReviews: len(list)}
	if len(list) == 0 {
		return rating, nil
	}
	sum := 0
	for _, fb := range list {
		sum += fb.Rating
	}
	rating.AverageRating = float64(sum) / float64(len(list))
	return rating, nil
}
