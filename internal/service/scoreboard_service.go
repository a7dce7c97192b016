package service

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quizrank-api/internal/domain/entity"
	"github.com/yourusername/quizrank-api/internal/domain/repository"
)

const statsCacheKey = "scoreboard:stats"

// Pagination describes one page of the scoreboard.
type Pagination struct {
	Page         int   `json:"page"`
	PageSize     int   `json:"page_size"`
	TotalEntries int64 `json:"total_entries"`
	TotalPages   int   `json:"total_pages"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

// ScoreboardResponse is one page of the ranked scoreboard.
type ScoreboardResponse struct {
	Entries    []entity.RankedUserScore `json:"entries"`
	Pagination Pagination               `json:"pagination"`
}

// MyRankResponse locates one user on the scoreboard.
type MyRankResponse struct {
	UserID           string `json:"user_id"`
	Rank             int64  `json:"rank"`
	Page             int    `json:"page"`
	TotalScore       int    `json:"total_score"`
	QuizzesCompleted int    `json:"quizzes_completed"`
}

// ScoreboardStats are aggregate statistics over the whole scoreboard.
type ScoreboardStats struct {
	TotalUsers        int64   `json:"total_users"`
	TotalQuizzesTaken int64   `json:"total_quizzes_taken"`
	HighestScore      int     `json:"highest_score"`
	AverageScore      float64 `json:"average_score"`
}

// ScoreboardService owns the materialized per-user aggregate and the ranking
// queries over it.
type ScoreboardService struct {
	scoreRepo     repository.UserScoreRepository
	attemptRepo   repository.AttemptRepository
	cacheRepo     repository.CacheRepository
	statsCacheTTL time.Duration
}

// NewScoreboardService creates a new scoreboard service. cacheRepo may be
// nil, in which case the stats endpoint always hits the database.
func NewScoreboardService(
	scoreRepo repository.UserScoreRepository,
	attemptRepo repository.AttemptRepository,
	cacheRepo repository.CacheRepository,
	statsCacheTTL time.Duration,
) *ScoreboardService {
	return &ScoreboardService{
		scoreRepo:     scoreRepo,
		attemptRepo:   attemptRepo,
		cacheRepo:     cacheRepo,
		statsCacheTTL: statsCacheTTL,
	}
}

// UpdateUserScore recomputes the user's aggregate from scratch: the best
// submitted score per quiz, summed, and the count of distinct quizzes.
// Always a full recompute, never an incremental patch; the best-per-quiz
// win condition is not decomposable as an increment, and recompute is
// idempotent so it doubles as the administrative rebuild path.
func (s *ScoreboardService) UpdateUserScore(userID, displayName string) (*entity.UserScore, error) {
	if displayName == "" {
		displayName = entity.DefaultDisplayName
	}

	bestScores, err := s.attemptRepo.GetBestScoresByQuiz(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read best scores for user %s: %w", userID, err)
	}

	totalScore := 0
	for _, best := range bestScores {
		totalScore += best.BestScore
	}

	score := &entity.UserScore{
		UserID:           userID,
		DisplayName:      displayName,
		TotalScore:       totalScore,
		QuizzesCompleted: len(bestScores),
		LastUpdated:      time.Now().UTC(),
	}
	if err := s.scoreRepo.Upsert(score); err != nil {
		return nil, fmt.Errorf("failed to upsert score for user %s: %w", userID, err)
	}

	s.invalidateStatsCache()
	log.Printf("[ScoreboardService] Recomputed score for user %s: %d over %d quizzes", userID, totalScore, len(bestScores))
	return score, nil
}

// GetScoreboard returns one page of the globally ranked scoreboard. Pages
// past the end are clamped to the last page rather than erroring.
func (s *ScoreboardService) GetScoreboard(page, pageSize int) (*ScoreboardResponse, error) {
	pageSize = clampPageSize(pageSize)
	if page < 1 {
		page = 1
	}

	totalEntries, err := s.scoreRepo.CountUsers()
	if err != nil {
		return nil, err
	}

	totalPages := int((totalEntries + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	offset := (page - 1) * pageSize

	entries, err := s.scoreRepo.GetRankedPage(pageSize, offset)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []entity.RankedUserScore{}
	}

	return &ScoreboardResponse{
		Entries: entries,
		Pagination: Pagination{
			Page:         page,
			PageSize:     pageSize,
			TotalEntries: totalEntries,
			TotalPages:   totalPages,
			HasNext:      page < totalPages,
			HasPrev:      page > 1,
		},
	}, nil
}

// GetUserRank returns the user's global rank and the scoreboard page it
// falls on for the given page size. ErrNotFound when the user has no
// aggregate row yet.
func (s *ScoreboardService) GetUserRank(userID string, pageSize int) (*MyRankResponse, error) {
	pageSize = clampPageSize(pageSize)

	entry, err := s.scoreRepo.GetUserRank(userID)
	if err != nil {
		return nil, err
	}

	page := int((entry.Rank-1)/int64(pageSize)) + 1
	return &MyRankResponse{
		UserID:           entry.UserID,
		Rank:             entry.Rank,
		Page:             page,
		TotalScore:       entry.TotalScore,
		QuizzesCompleted: entry.QuizzesCompleted,
	}, nil
}

// GetStats returns aggregate scoreboard statistics, served from the cache
// when a fresh copy exists. Every recompute invalidates the cached copy, so
// a hit is never stale.
func (s *ScoreboardService) GetStats() (*ScoreboardStats, error) {
	if s.cacheRepo != nil {
		var cached ScoreboardStats
		if err := s.cacheRepo.GetJSON(statsCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	totals, err := s.scoreRepo.GetTotals()
	if err != nil {
		return nil, err
	}
	stats := &ScoreboardStats{
		TotalUsers:        totals.TotalUsers,
		TotalQuizzesTaken: totals.TotalQuizzesTaken,
		HighestScore:      totals.HighestScore,
		AverageScore:      totals.AverageScore,
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(statsCacheKey, stats, s.statsCacheTTL); err != nil {
			log.Printf("[ScoreboardService] WARNING: failed to cache stats: %v", err)
		}
	}
	return stats, nil
}

// GetFullScoreboard returns the entire ranked scoreboard, for export.
func (s *ScoreboardService) GetFullScoreboard() ([]entity.RankedUserScore, error) {
	return s.scoreRepo.GetAllRanked()
}

func (s *ScoreboardService) invalidateStatsCache() {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(statsCacheKey); err != nil {
		log.Printf("[ScoreboardService] WARNING: failed to invalidate stats cache: %v", err)
	}
}

func clampPageSize(pageSize int) int {
	if pageSize < 10 {
		return 10
	}
	if pageSize > 100 {
		return 100
	}
	return pageSize
}
