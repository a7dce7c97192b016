package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizrank-api/internal/domain/entity"
	"github.com/yourusername/quizrank-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizrank-api/internal/pkg/errors"
)

// ============================================================================
// Mocks for ScoreboardService
// ============================================================================

// MockUserScoreRepo implements repository.UserScoreRepository
type MockUserScoreRepo struct {
	mock.Mock
}

func (m *MockUserScoreRepo) Upsert(score *entity.UserScore) error {
	args := m.Called(score)
	return args.Error(0)
}

func (m *MockUserScoreRepo) GetByUserID(userID string) (*entity.UserScore, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.UserScore), args.Error(1)
}

func (m *MockUserScoreRepo) CountUsers() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserScoreRepo) GetRankedPage(limit, offset int) ([]entity.RankedUserScore, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RankedUserScore), args.Error(1)
}

func (m *MockUserScoreRepo) GetAllRanked() ([]entity.RankedUserScore, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RankedUserScore), args.Error(1)
}

func (m *MockUserScoreRepo) GetUserRank(userID string) (*entity.RankedUserScore, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RankedUserScore), args.Error(1)
}

func (m *MockUserScoreRepo) GetTotals() (*repository.ScoreboardTotals, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ScoreboardTotals), args.Error(1)
}

// MockCacheRepo implements repository.CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepo) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// UpdateUserScore
// ============================================================================

func TestScoreboardService_UpdateUserScore_SumsBestPerQuiz(t *testing.T) {
	// Arrange: best scores 12 and 7 across two quizzes; other attempts on the
	// same quizzes never count
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	mockAttemptRepo.On("GetBestScoresByQuiz", "user-1").Return([]repository.QuizBestScore{
		{QuizID: "quiz-1", BestScore: 12},
		{QuizID: "quiz-2", BestScore: 7},
	}, nil)

	var upserted *entity.UserScore
	mockScoreRepo.On("Upsert", mock.Anything).
		Run(func(args mock.Arguments) {
			upserted = args.Get(0).(*entity.UserScore)
		}).
		Return(nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	// Act
	score, err := scoreboard.UpdateUserScore("user-1", "alice")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 19, score.TotalScore, "Total is the sum of best scores per quiz")
	assert.Equal(t, 2, score.QuizzesCompleted)
	require.NotNil(t, upserted)
	assert.Equal(t, "alice", upserted.DisplayName)
	mockScoreRepo.AssertExpectations(t)
}

func TestScoreboardService_UpdateUserScore_EmptyNameFallsBack(t *testing.T) {
	// Arrange
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	mockAttemptRepo.On("GetBestScoresByQuiz", "user-1").Return([]repository.QuizBestScore{}, nil)

	var upserted *entity.UserScore
	mockScoreRepo.On("Upsert", mock.Anything).
		Run(func(args mock.Arguments) {
			upserted = args.Get(0).(*entity.UserScore)
		}).
		Return(nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	// Act
	_, err := scoreboard.UpdateUserScore("user-1", "")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultDisplayName, upserted.DisplayName)
	assert.Equal(t, 0, upserted.TotalScore)
	assert.Equal(t, 0, upserted.QuizzesCompleted)
}

func TestScoreboardService_UpdateUserScore_InvalidatesStatsCache(t *testing.T) {
	// Arrange
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)
	mockCacheRepo := new(MockCacheRepo)

	mockAttemptRepo.On("GetBestScoresByQuiz", "user-1").Return([]repository.QuizBestScore{
		{QuizID: "quiz-1", BestScore: 5},
	}, nil)
	mockScoreRepo.On("Upsert", mock.Anything).Return(nil)
	mockCacheRepo.On("Delete", statsCacheKey).Return(nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, mockCacheRepo, time.Minute)

	// Act
	_, err := scoreboard.UpdateUserScore("user-1", "alice")

	// Assert: every recompute drops the cached stats payload
	require.NoError(t, err)
	mockCacheRepo.AssertCalled(t, "Delete", statsCacheKey)
}

// ============================================================================
// GetScoreboard
// ============================================================================

func TestScoreboardService_GetScoreboard_CompetitionRanking(t *testing.T) {
	// Arrange: two users tied at 20, next rank is 3
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	entries := []entity.RankedUserScore{
		{Rank: 1, UserID: "user-a", DisplayName: "alice", TotalScore: 20, QuizzesCompleted: 2},
		{Rank: 1, UserID: "user-b", DisplayName: "bob", TotalScore: 20, QuizzesCompleted: 3},
		{Rank: 3, UserID: "user-c", DisplayName: "carol", TotalScore: 15, QuizzesCompleted: 1},
	}
	mockScoreRepo.On("CountUsers").Return(int64(3), nil)
	mockScoreRepo.On("GetRankedPage", 50, 0).Return(entries, nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	// Act
	response, err := scoreboard.GetScoreboard(1, 50)

	// Assert
	require.NoError(t, err)
	require.Len(t, response.Entries, 3)
	assert.Equal(t, int64(1), response.Entries[1].Rank, "Ties share a rank")
	assert.Equal(t, int64(3), response.Entries[2].Rank, "The rank after a tie skips")
	assert.Equal(t, 1, response.Pagination.TotalPages)
	assert.False(t, response.Pagination.HasNext)
}

func TestScoreboardService_GetScoreboard_ClampsPageSize(t *testing.T) {
	// Arrange
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	// page_size=5 clamps to 10, page_size=500 would clamp to 100
	mockScoreRepo.On("CountUsers").Return(int64(25), nil)
	mockScoreRepo.On("GetRankedPage", 10, 0).Return([]entity.RankedUserScore{}, nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	// Act
	response, err := scoreboard.GetScoreboard(1, 5)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 10, response.Pagination.PageSize)
	assert.Equal(t, 3, response.Pagination.TotalPages)
	mockScoreRepo.AssertExpectations(t)
}

func TestScoreboardService_GetScoreboard_PagePastEndClampsToLast(t *testing.T) {
	// Arrange: 25 entries, page size 10 -> 3 pages; page 99 clamps to 3
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	mockScoreRepo.On("CountUsers").Return(int64(25), nil)
	mockScoreRepo.On("GetRankedPage", 10, 20).Return([]entity.RankedUserScore{
		{Rank: 21, UserID: "user-u", DisplayName: "uma", TotalScore: 1},
	}, nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	// Act
	response, err := scoreboard.GetScoreboard(99, 10)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, response.Pagination.Page, "Pages past the end clamp to the last page")
	assert.True(t, response.Pagination.HasPrev)
	assert.False(t, response.Pagination.HasNext)
}

func TestScoreboardService_GetScoreboard_EmptyBoard(t *testing.T) {
	// Arrange
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	mockScoreRepo.On("CountUsers").Return(int64(0), nil)
	mockScoreRepo.On("GetRankedPage", 50, 0).Return(nil, nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	// Act
	response, err := scoreboard.GetScoreboard(1, 50)

	// Assert: page 1 of 1, empty but non-nil entries
	require.NoError(t, err)
	assert.NotNil(t, response.Entries)
	assert.Empty(t, response.Entries)
	assert.Equal(t, 1, response.Pagination.Page)
	assert.Equal(t, 1, response.Pagination.TotalPages)
}

// ============================================================================
// GetUserRank
// ============================================================================

func TestScoreboardService_GetUserRank_ComputesPage(t *testing.T) {
	// Arrange: rank 51 with page size 50 falls on page 2
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	mockScoreRepo.On("GetUserRank", "user-1").Return(&entity.RankedUserScore{
		Rank: 51, UserID: "user-1", DisplayName: "alice", TotalScore: 40, QuizzesCompleted: 4,
	}, nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	// Act
	rank, err := scoreboard.GetUserRank("user-1", 50)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(51), rank.Rank)
	assert.Equal(t, 2, rank.Page)
}

func TestScoreboardService_GetUserRank_PageBoundary(t *testing.T) {
	// Arrange: rank 50 with page size 50 is still page 1
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	mockScoreRepo.On("GetUserRank", "user-1").Return(&entity.RankedUserScore{
		Rank: 50, UserID: "user-1", DisplayName: "alice", TotalScore: 40,
	}, nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	rank, err := scoreboard.GetUserRank("user-1", 50)

	require.NoError(t, err)
	assert.Equal(t, 1, rank.Page)
}

func TestScoreboardService_GetUserRank_UnrankedUser(t *testing.T) {
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	mockScoreRepo.On("GetUserRank", "user-x").Return(nil, apperrors.ErrNotFound)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	rank, err := scoreboard.GetUserRank("user-x", 50)

	assert.Nil(t, rank)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ============================================================================
// GetStats
// ============================================================================

func TestScoreboardService_GetStats_CacheMissReadsAndStores(t *testing.T) {
	// Arrange
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)
	mockCacheRepo := new(MockCacheRepo)

	mockCacheRepo.On("GetJSON", statsCacheKey, mock.Anything).Return(apperrors.ErrNotFound)
	mockScoreRepo.On("GetTotals").Return(&repository.ScoreboardTotals{
		TotalUsers:        10,
		TotalQuizzesTaken: 42,
		HighestScore:      95,
		AverageScore:      37.5,
	}, nil)
	mockCacheRepo.On("SetJSON", statsCacheKey, mock.Anything, time.Minute).Return(nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, mockCacheRepo, time.Minute)

	// Act
	stats, err := scoreboard.GetStats()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalUsers)
	assert.Equal(t, 37.5, stats.AverageScore)
	mockCacheRepo.AssertCalled(t, "SetJSON", statsCacheKey, mock.Anything, time.Minute)
}

func TestScoreboardService_GetStats_CacheHitSkipsDatabase(t *testing.T) {
	// Arrange
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)
	mockCacheRepo := new(MockCacheRepo)

	cached := ScoreboardStats{TotalUsers: 7, TotalQuizzesTaken: 20, HighestScore: 80, AverageScore: 33.0}
	mockCacheRepo.On("GetJSON", statsCacheKey, mock.Anything).
		Run(func(args mock.Arguments) {
			payload, _ := json.Marshal(cached)
			json.Unmarshal(payload, args.Get(1))
		}).
		Return(nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, mockCacheRepo, time.Minute)

	// Act
	stats, err := scoreboard.GetStats()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.TotalUsers)
	mockScoreRepo.AssertNotCalled(t, "GetTotals")
}

func TestScoreboardService_GetStats_NoCacheGoesToDatabase(t *testing.T) {
	// Arrange: nil cache repo disables caching entirely
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	mockScoreRepo.On("GetTotals").Return(&repository.ScoreboardTotals{}, nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	// Act
	stats, err := scoreboard.GetStats()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalUsers)
}

// ============================================================================
// GetFullScoreboard
// ============================================================================

func TestScoreboardService_GetFullScoreboard(t *testing.T) {
	mockScoreRepo := new(MockUserScoreRepo)
	mockAttemptRepo := new(MockAttemptRepo)

	entries := []entity.RankedUserScore{
		{Rank: 1, UserID: "user-a", DisplayName: "alice", TotalScore: 20},
		{Rank: 2, UserID: "user-b", DisplayName: "bob", TotalScore: 10},
	}
	mockScoreRepo.On("GetAllRanked").Return(entries, nil)

	scoreboard := NewScoreboardService(mockScoreRepo, mockAttemptRepo, nil, time.Minute)

	full, err := scoreboard.GetFullScoreboard()

	require.NoError(t, err)
	assert.Len(t, full, 2)
}
