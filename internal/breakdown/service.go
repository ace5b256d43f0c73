package breakdown

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/breakdown-backend/internal/observability"
	"github.com/yungbote/breakdown-backend/internal/platform/ctxutil"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

// MissingConceptMessage is the validation message for absent or blank input.
const MissingConceptMessage = "Missing 'concept' in request body"

// Recorder receives every successful result. History stores satisfy it
// through history.Recorder.
type Recorder interface {
	Record(ctx context.Context, concept string, result ConceptResult) error
}

// Service validates input, runs the configured explainer and records
// successful results.
type Service struct {
	explainer Explainer
	recorder  Recorder
	log       *logger.Logger
	group     singleflight.Group
}

func NewService(explainer Explainer, recorder Recorder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		explainer: explainer,
		recorder:  recorder,
		log:       log.With("service", "BreakdownService"),
	}
}

// Source names the pipeline in ErrorResult.errorSource.
func (s *Service) Source() string {
	return "breakdown." + s.explainer.Name()
}

// Explain returns the breakdown for concept. Blank input fails with a
// ValidationError before any model call. Concurrent calls for the same
// concept share one upstream request; a caller whose ctx ends stops waiting
// without cancelling the shared call.
func (s *Service) Explain(ctx context.Context, concept string) (res ConceptResult, err error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return ConceptResult{}, &ValidationError{Field: "concept", Message: MissingConceptMessage}
	}

	ctx, span := observability.StartSpan(ctx, "breakdown.Explain", "concept", concept, "explainer", s.explainer.Name())
	defer func() { observability.EndSpan(span, err) }()

	ch := s.group.DoChan(concept, func() (any, error) {
		callCtx := context.WithoutCancel(ctx)
		res, err := s.explainer.Explain(callCtx, concept)
		if err != nil {
			return nil, err
		}
		s.record(callCtx, concept, res)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return ConceptResult{}, &UpstreamError{Model: s.explainer.Name(), Err: ctx.Err()}
	case r := <-ch:
		if r.Err != nil {
			s.log.Warn("explain failed",
				"concept", concept,
				"kind", string(KindOf(r.Err)),
				"request_id", ctxutil.RequestID(ctx),
				"error", r.Err,
			)
			return ConceptResult{}, r.Err
		}
		return r.Val.(ConceptResult).Clone(), nil
	}
}

// ErrorResult wraps err in the error-shaped payload for concept.
func (s *Service) ErrorResult(concept string, err error) ErrorResult {
	return NewErrorResult(s.Source(), strings.TrimSpace(concept), err)
}

func (s *Service) record(ctx context.Context, concept string, res ConceptResult) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, concept, res); err != nil {
		s.log.Warn("history record failed", "concept", concept, "error", err)
	}
}
