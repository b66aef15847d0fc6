package service

import (
	"context"
	"fmt"
)

type IDemoService interface {
	Get(ctx context.Context, name string) (string, error)
}

// VisitRecorder is the part of the visit counter the service needs.
type VisitRecorder interface {
	Record(ctx context.Context, name string) (int64, error)
}

//mvc:service
//mvc:implements IDemoService
type DemoService struct {
	Visits VisitRecorder `autowired:"visitCounter,optional"`
}

func (s *DemoService) Get(ctx context.Context, name string) (string, error) {
	if s.Visits != nil {
		if _, err := s.Visits.Record(ctx, name); err != nil {
			return "", fmt.Errorf("record visit of %q: %w", name, err)
		}
	}
	return "My name is " + name, nil
}
