package service

import (
	"context"
	"fmt"

	"github.com/okian/clanboard/internal/domain/clantag"
	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/domain/types"
)

// LatestAssessment returns the newest complete run of the clan. A non-empty
// runType restricts the search to runs of that type.
func (s *Service) LatestAssessment(ctx context.Context, clanTag string, runType model.RunType) (types.AssessmentResponse, error) {
	tag, err := clantag.Parse(clanTag)
	if err != nil {
		return types.AssessmentResponse{}, fmt.Errorf("%w: %q", ErrInvalidClanTag, clanTag)
	}
	if runType == "" {
		run, members, err := s.store.QueryLatest(ctx, tag)
		if err != nil {
			return types.AssessmentResponse{}, err
		}
		return types.AssessmentResponse{Assessment: run, Results: members}, nil
	}
	if !runType.Valid() {
		return types.AssessmentResponse{}, fmt.Errorf("%w: %q", ErrInvalidRunType, runType)
	}
	run, err := s.store.LatestCompletedRun(ctx, tag, runType)
	if err != nil {
		return types.AssessmentResponse{}, err
	}
	return s.Assessment(ctx, run.ID)
}

// Assessment returns one stored run by id.
func (s *Service) Assessment(ctx context.Context, runID string) (types.AssessmentResponse, error) {
	run, members, err := s.store.QueryRun(ctx, runID)
	if err != nil {
		return types.AssessmentResponse{}, err
	}
	return types.AssessmentResponse{Assessment: run, Results: members}, nil
}
