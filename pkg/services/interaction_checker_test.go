package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/llm"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
)

func med(id int64, name string) *models.Medication {
	return &models.Medication{ID: id, Name: name}
}

func newChecker(medRepo *mockMedicationRepo, intRepo *mockInteractionRepo, client llm.ChatClient) InteractionChecker {
	return NewInteractionChecker(medRepo, intRepo, client, zap.NewNop())
}

func TestFilterAlreadyChecked(t *testing.T) {
	intRepo := &mockInteractionRepo{
		ListCheckedMedicationIDsFunc: func(ctx context.Context, medicationID int64, candidateIDs []int64) ([]int64, error) {
			assert.Equal(t, int64(1), medicationID)
			return []int64{2, 4}, nil
		},
	}
	checker := newChecker(&mockMedicationRepo{}, intRepo, llm.NewMockChatClient())

	unchecked, err := checker.FilterAlreadyChecked(context.Background(), 1, []int64{2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, unchecked)
}

func TestFilterAlreadyCheckedDedupsInput(t *testing.T) {
	var queried []int64
	intRepo := &mockInteractionRepo{
		ListCheckedMedicationIDsFunc: func(ctx context.Context, medicationID int64, candidateIDs []int64) ([]int64, error) {
			queried = candidateIDs
			return nil, nil
		},
	}
	checker := newChecker(&mockMedicationRepo{}, intRepo, llm.NewMockChatClient())

	unchecked, err := checker.FilterAlreadyChecked(context.Background(), 1, []int64{2, 2, 3, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, queried)
	assert.Equal(t, []int64{2, 3}, unchecked)
}

func TestFilterAlreadyCheckedEmptyCandidates(t *testing.T) {
	called := false
	intRepo := &mockInteractionRepo{
		ListCheckedMedicationIDsFunc: func(ctx context.Context, medicationID int64, candidateIDs []int64) ([]int64, error) {
			called = true
			return nil, nil
		},
	}
	checker := newChecker(&mockMedicationRepo{}, intRepo, llm.NewMockChatClient())

	unchecked, err := checker.FilterAlreadyChecked(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, unchecked)
	assert.False(t, called)
}

func TestCheckInteractionsEmptyCandidatesSkipsClassifier(t *testing.T) {
	client := llm.NewMockChatClient()
	checker := newChecker(&mockMedicationRepo{}, &mockInteractionRepo{}, client)

	result, err := checker.CheckInteractions(context.Background(), med(1, "Warfarin"), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Interactions)
	assert.Equal(t, 0, client.GenerateJSONCalls)
}

func TestCheckInteractionsSingleBatchedCall(t *testing.T) {
	medRepo := &mockMedicationRepo{
		GetByIDsFunc: func(ctx context.Context, ids []int64) ([]*models.Medication, error) {
			return []*models.Medication{med(2, "Aspirin"), med(3, "Ibuprofen")}, nil
		},
	}

	client := llm.NewMockChatClient()
	client.GenerateJSONFunc = func(ctx context.Context, prompt string, systemMessage string) (*llm.GenerateResult, error) {
		return &llm.GenerateResult{
			Content: `{"interactions":[
				{"medication_id":2,"has_interaction":true,"severity":"severe","description":"Increased bleeding risk."},
				{"medication_id":3,"has_interaction":false,"severity":"none","description":"No clinically relevant interaction known."}
			]}`,
			PromptTokens:     100,
			CompletionTokens: 50,
			TotalTokens:      150,
		}, nil
	}

	checker := newChecker(medRepo, &mockInteractionRepo{}, client)

	result, err := checker.CheckInteractions(context.Background(), med(1, "Warfarin"), []int64{2, 3})
	require.NoError(t, err)

	// One call covers every candidate pair.
	assert.Equal(t, 1, client.GenerateJSONCalls)
	assert.Contains(t, client.LastPrompt, "Warfarin")
	assert.Contains(t, client.LastPrompt, "Aspirin")
	assert.Contains(t, client.LastPrompt, "Ibuprofen")

	require.Len(t, result.Interactions, 2)
	assert.Equal(t, int64(2), result.Interactions[0].MedicationID)
	assert.Equal(t, "Aspirin", result.Interactions[0].MedicationName)
	assert.True(t, result.Interactions[0].HasInteraction)
	assert.Equal(t, models.SeveritySevere, result.Interactions[0].Severity)
	assert.False(t, result.Interactions[1].HasInteraction)

	assert.Equal(t, 1, result.FoundCount())
	assert.Equal(t, 150, result.TokenUsage.TotalTokens)
	assert.Equal(t, "mock-model", result.Model)
}

func TestCheckInteractionsCoercesUnknownSeverity(t *testing.T) {
	medRepo := &mockMedicationRepo{
		GetByIDsFunc: func(ctx context.Context, ids []int64) ([]*models.Medication, error) {
			return []*models.Medication{med(2, "Aspirin")}, nil
		},
	}

	client := llm.NewMockChatClient()
	client.GenerateJSONFunc = func(ctx context.Context, prompt string, systemMessage string) (*llm.GenerateResult, error) {
		return &llm.GenerateResult{
			Content: `{"interactions":[{"medication_id":2,"has_interaction":true,"severity":"catastrophic","description":"Bad."}]}`,
		}, nil
	}

	checker := newChecker(medRepo, &mockInteractionRepo{}, client)

	result, err := checker.CheckInteractions(context.Background(), med(1, "Warfarin"), []int64{2})
	require.NoError(t, err)
	require.Len(t, result.Interactions, 1)
	assert.Equal(t, models.SeveritySevere, result.Interactions[0].Severity)
}

func TestCheckInteractionsDropsUnknownMedicationIDs(t *testing.T) {
	medRepo := &mockMedicationRepo{
		GetByIDsFunc: func(ctx context.Context, ids []int64) ([]*models.Medication, error) {
			return []*models.Medication{med(2, "Aspirin")}, nil
		},
	}

	client := llm.NewMockChatClient()
	client.GenerateJSONFunc = func(ctx context.Context, prompt string, systemMessage string) (*llm.GenerateResult, error) {
		return &llm.GenerateResult{
			Content: `{"interactions":[
				{"medication_id":99,"has_interaction":true,"severity":"severe","description":"Hallucinated."},
				{"medication_id":2,"has_interaction":false,"severity":"none","description":"Fine."}
			]}`,
		}, nil
	}

	checker := newChecker(medRepo, &mockInteractionRepo{}, client)

	result, err := checker.CheckInteractions(context.Background(), med(1, "Warfarin"), []int64{2})
	require.NoError(t, err)
	require.Len(t, result.Interactions, 1)
	assert.Equal(t, int64(2), result.Interactions[0].MedicationID)
}

func TestCheckInteractionsTruncatesLongDescriptions(t *testing.T) {
	medRepo := &mockMedicationRepo{
		GetByIDsFunc: func(ctx context.Context, ids []int64) ([]*models.Medication, error) {
			return []*models.Medication{med(2, "Aspirin")}, nil
		},
	}

	long := strings.Repeat("x", 500)
	client := llm.NewMockChatClient()
	client.GenerateJSONFunc = func(ctx context.Context, prompt string, systemMessage string) (*llm.GenerateResult, error) {
		return &llm.GenerateResult{
			Content: `{"interactions":[{"medication_id":2,"has_interaction":true,"severity":"moderate","description":"` + long + `"}]}`,
		}, nil
	}

	checker := newChecker(medRepo, &mockInteractionRepo{}, client)

	result, err := checker.CheckInteractions(context.Background(), med(1, "Warfarin"), []int64{2})
	require.NoError(t, err)
	require.Len(t, result.Interactions, 1)
	assert.Len(t, result.Interactions[0].Description, maxDescriptionLength)
}

func TestCheckInteractionsTruncationKeepsMultibyteRunesIntact(t *testing.T) {
	medRepo := &mockMedicationRepo{
		GetByIDsFunc: func(ctx context.Context, ids []int64) ([]*models.Medication, error) {
			return []*models.Medication{med(2, "Aspirin")}, nil
		},
	}

	// Three bytes per rune; a byte-indexed cut would land mid-sequence.
	long := strings.Repeat("出", 500)
	client := llm.NewMockChatClient()
	client.GenerateJSONFunc = func(ctx context.Context, prompt string, systemMessage string) (*llm.GenerateResult, error) {
		return &llm.GenerateResult{
			Content: `{"interactions":[{"medication_id":2,"has_interaction":true,"severity":"moderate","description":"` + long + `"}]}`,
		}, nil
	}

	checker := newChecker(medRepo, &mockInteractionRepo{}, client)

	result, err := checker.CheckInteractions(context.Background(), med(1, "Warfarin"), []int64{2})
	require.NoError(t, err)
	require.Len(t, result.Interactions, 1)

	got := result.Interactions[0].Description
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxDescriptionLength, utf8.RuneCountInString(got))
}

func TestCheckInteractionsMalformedResponseIsRetryable(t *testing.T) {
	medRepo := &mockMedicationRepo{
		GetByIDsFunc: func(ctx context.Context, ids []int64) ([]*models.Medication, error) {
			return []*models.Medication{med(2, "Aspirin")}, nil
		},
	}

	client := llm.NewMockChatClient()
	client.GenerateJSONFunc = func(ctx context.Context, prompt string, systemMessage string) (*llm.GenerateResult, error) {
		return &llm.GenerateResult{Content: "I cannot answer that."}, nil
	}

	checker := newChecker(medRepo, &mockInteractionRepo{}, client)

	_, err := checker.CheckInteractions(context.Background(), med(1, "Warfarin"), []int64{2})
	require.Error(t, err)
	assert.True(t, llm.IsRetryable(err))
}

func TestCheckInteractionsClassifierErrorPropagates(t *testing.T) {
	medRepo := &mockMedicationRepo{
		GetByIDsFunc: func(ctx context.Context, ids []int64) ([]*models.Medication, error) {
			return []*models.Medication{med(2, "Aspirin")}, nil
		},
	}

	client := llm.NewMockChatClient()
	client.GenerateJSONFunc = func(ctx context.Context, prompt string, systemMessage string) (*llm.GenerateResult, error) {
		return nil, llm.NewError(llm.ErrorTypeAuth, "invalid api key", false, nil)
	}

	checker := newChecker(medRepo, &mockInteractionRepo{}, client)

	_, err := checker.CheckInteractions(context.Background(), med(1, "Warfarin"), []int64{2})
	require.Error(t, err)
	assert.False(t, llm.IsRetryable(err))
}

func TestPersistResultsDelegates(t *testing.T) {
	var persistedID int64
	var persisted []models.InteractionResult
	intRepo := &mockInteractionRepo{
		CreateBidirectionalFunc: func(ctx context.Context, medicationID int64, results []models.InteractionResult) error {
			persistedID = medicationID
			persisted = results
			return nil
		},
	}
	checker := newChecker(&mockMedicationRepo{}, intRepo, llm.NewMockChatClient())

	results := []models.InteractionResult{{MedicationID: 2, HasInteraction: true, Severity: models.SeveritySevere}}
	require.NoError(t, checker.PersistResults(context.Background(), 1, results))
	assert.Equal(t, int64(1), persistedID)
	assert.Equal(t, results, persisted)
}
