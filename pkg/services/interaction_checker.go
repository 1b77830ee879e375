package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/llm"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/prompts"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/repositories"
)

// maxDescriptionLength caps interaction descriptions before persistence.
const maxDescriptionLength = 200

// InteractionChecker runs the interaction classification pipeline: candidate
// filtering, one batched classifier call, and bidirectional persistence.
type InteractionChecker interface {
	// FilterAlreadyChecked returns the candidate medication ids that have no
	// stored interaction record with the given medication, in either
	// direction. Duplicates and the medication's own id are dropped.
	FilterAlreadyChecked(ctx context.Context, medicationID int64, candidateIDs []int64) ([]int64, error)

	// CheckInteractions classifies the medication against all candidates in a
	// single classifier call. An empty candidate list returns an empty result
	// without calling the classifier.
	CheckInteractions(ctx context.Context, medication *models.Medication, candidateIDs []int64) (*models.InteractionCheckResult, error)

	// PersistResults stores every result in both directions atomically.
	PersistResults(ctx context.Context, medicationID int64, results []models.InteractionResult) error
}

type interactionChecker struct {
	medicationRepo  repositories.MedicationRepository
	interactionRepo repositories.InteractionRepository
	llmClient       llm.ChatClient
	logger          *zap.Logger
}

func NewInteractionChecker(
	medicationRepo repositories.MedicationRepository,
	interactionRepo repositories.InteractionRepository,
	llmClient llm.ChatClient,
	logger *zap.Logger,
) InteractionChecker {
	return &interactionChecker{
		medicationRepo:  medicationRepo,
		interactionRepo: interactionRepo,
		llmClient:       llmClient,
		logger:          logger.Named("interaction_checker"),
	}
}

var _ InteractionChecker = (*interactionChecker)(nil)

// interactionCheckResponse is the JSON contract expected from the classifier.
type interactionCheckResponse struct {
	Interactions []interactionCheckItem `json:"interactions"`
}

type interactionCheckItem struct {
	MedicationID   int64  `json:"medication_id"`
	HasInteraction bool   `json:"has_interaction"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
}

func (s *interactionChecker) FilterAlreadyChecked(ctx context.Context, medicationID int64, candidateIDs []int64) ([]int64, error) {
	candidates := dedupIDs(candidateIDs, medicationID)
	if len(candidates) == 0 {
		return nil, nil
	}

	checked, err := s.interactionRepo.ListCheckedMedicationIDs(ctx, medicationID, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to load checked pairs: %w", err)
	}

	checkedSet := make(map[int64]struct{}, len(checked))
	for _, id := range checked {
		checkedSet[id] = struct{}{}
	}

	var unchecked []int64
	for _, id := range candidates {
		if _, ok := checkedSet[id]; !ok {
			unchecked = append(unchecked, id)
		}
	}

	return unchecked, nil
}

func (s *interactionChecker) CheckInteractions(ctx context.Context, medication *models.Medication, candidateIDs []int64) (*models.InteractionCheckResult, error) {
	candidates := dedupIDs(candidateIDs, medication.ID)
	result := &models.InteractionCheckResult{
		Model: s.llmClient.GetModel(),
	}
	if len(candidates) == 0 {
		return result, nil
	}

	medications, err := s.medicationRepo.GetByIDs(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate medications: %w", err)
	}

	byID := make(map[int64]*models.Medication, len(medications))
	promptCandidates := make([]prompts.CandidateMedication, 0, len(medications))
	for _, m := range medications {
		byID[m.ID] = m
		promptCandidates = append(promptCandidates, prompts.CandidateMedication{ID: m.ID, Name: m.Name})
	}
	if len(promptCandidates) < len(candidates) {
		s.logger.Warn("Some candidate medications no longer exist, checking the rest",
			zap.Int64("medication_id", medication.ID),
			zap.Int("requested", len(candidates)),
			zap.Int("found", len(promptCandidates)))
	}
	if len(promptCandidates) == 0 {
		return result, nil
	}

	prompt := prompts.BuildInteractionCheckPrompt(medication.Name, promptCandidates)
	systemMessage := prompts.BuildInteractionCheckSystemMessage()

	start := time.Now()
	generated, err := s.llmClient.GenerateJSON(ctx, prompt, systemMessage)
	if err != nil {
		return nil, fmt.Errorf("classifier call failed: %w", err)
	}
	result.Duration = time.Since(start)
	result.TokenUsage = models.TokenUsage{
		PromptTokens:     generated.PromptTokens,
		CompletionTokens: generated.CompletionTokens,
		TotalTokens:      generated.TotalTokens,
	}

	parsed, err := llm.ParseJSONResponse[interactionCheckResponse](generated.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse classifier response: %w", err)
	}

	checkedAt := time.Now()
	for _, item := range parsed.Interactions {
		candidate, ok := byID[item.MedicationID]
		if !ok {
			s.logger.Warn("Classifier returned unknown medication id, dropping entry",
				zap.Int64("medication_id", medication.ID),
				zap.Int64("returned_id", item.MedicationID))
			continue
		}

		severity, known := models.ParseSeverity(item.Severity)
		if !known {
			s.logger.Warn("Classifier returned unknown severity, treating as severe",
				zap.Int64("medication_id", medication.ID),
				zap.Int64("candidate_id", item.MedicationID),
				zap.String("severity", item.Severity))
		}

		description := truncateDescription(item.Description)

		result.Interactions = append(result.Interactions, models.InteractionResult{
			MedicationID:   candidate.ID,
			MedicationName: candidate.Name,
			HasInteraction: item.HasInteraction,
			Severity:       severity,
			Description:    description,
			CheckedAt:      checkedAt,
		})
	}

	if len(result.Interactions) < len(promptCandidates) {
		s.logger.Warn("Classifier response did not cover every candidate",
			zap.Int64("medication_id", medication.ID),
			zap.Int("candidates", len(promptCandidates)),
			zap.Int("answered", len(result.Interactions)))
	}

	return result, nil
}

func (s *interactionChecker) PersistResults(ctx context.Context, medicationID int64, results []models.InteractionResult) error {
	if err := s.interactionRepo.CreateBidirectional(ctx, medicationID, results); err != nil {
		return fmt.Errorf("failed to persist interaction results: %w", err)
	}
	return nil
}

// truncateDescription caps a description at maxDescriptionLength runes so a
// multibyte character is never split mid-sequence.
func truncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= maxDescriptionLength {
		return s
	}
	return string([]rune(s)[:maxDescriptionLength])
}

// dedupIDs removes duplicates and the subject's own id, preserving order.
func dedupIDs(ids []int64, exclude int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	var out []int64
	for _, id := range ids {
		if id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
