package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.AnswerService = (*RAGService)(nil)

// RAGService classifies a query and composes its answer.
// It holds no per-query state.
type RAGService struct {
	classifier driving.IntentClassifier
	composer   driving.AnswerComposer
}

// NewRAGService creates a new answer service.
func NewRAGService(classifier driving.IntentClassifier, composer driving.AnswerComposer) *RAGService {
	return &RAGService{classifier: classifier, composer: composer}
}

// Answer runs classification then composition. Failures from either step
// are returned as-is; no substitute answer is produced.
func (s *RAGService) Answer(
	ctx context.Context, query string, index driving.SearchableIndex, fullText string,
) (domain.AnswerResult, error) {
	logger.Section("Answer")

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.AnswerResult{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	logger.Debug("Query: %q", query)

	intent, err := s.classifier.Classify(ctx, query)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	result, err := s.composer.Compose(ctx, query, intent, fullText, index)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	logger.Info("Answered %s query with %d sources", intent, len(result.Sources))
	return result, nil
}
