package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/quizrank-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizrank-api/internal/pkg/errors"
	"github.com/yourusername/quizrank-api/internal/service"
)

// ScoreboardHandler handles requests for the ranked scoreboard
type ScoreboardHandler struct {
	scoreboardService *service.ScoreboardService
}

// NewScoreboardHandler creates a new scoreboard handler
func NewScoreboardHandler(scoreboardService *service.ScoreboardService) *ScoreboardHandler {
	return &ScoreboardHandler{
		scoreboardService: scoreboardService,
	}
}

// GetScoreboard returns one page of the ranked scoreboard
func (h *ScoreboardHandler) GetScoreboard(c *gin.Context) {
	pageStr := c.DefaultQuery("page", "1")
	pageSizeStr := c.DefaultQuery("page_size", "50")

	page, err := strconv.Atoi(pageStr)
	if err != nil {
		page = 1
	}
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil {
		pageSize = 50
	}

	response, err := h.scoreboardService.GetScoreboard(page, pageSize)
	if err != nil {
		h.handleScoreboardError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetMyRank returns the caller's rank and the page it falls on
func (h *ScoreboardHandler) GetMyRank(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	pageSizeStr := c.DefaultQuery("page_size", "50")
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil {
		pageSize = 50
	}

	rank, err := h.scoreboardService.GetUserRank(userID, pageSize)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no submitted attempts yet"})
			return
		}
		h.handleScoreboardError(c, err)
		return
	}

	c.JSON(http.StatusOK, rank)
}

// GetStats returns aggregate scoreboard statistics
func (h *ScoreboardHandler) GetStats(c *gin.Context) {
	stats, err := h.scoreboardService.GetStats()
	if err != nil {
		h.handleScoreboardError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportScoreboard streams the full ranked scoreboard as CSV or XLSX
func (h *ScoreboardHandler) ExportScoreboard(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	entries, err := h.scoreboardService.GetFullScoreboard()
	if err != nil {
		h.handleScoreboardError(c, err)
		return
	}

	filename := fmt.Sprintf("scoreboard_%s", time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, entries, filename)
	default:
		h.exportCSV(c, entries, filename)
	}
}

// exportCSV writes the scoreboard as CSV with proper escaping
func (h *ScoreboardHandler) exportCSV(c *gin.Context, entries []entity.RankedUserScore, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM so Excel renders UTF-8 correctly
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Rank", "Player", "Total Score", "Quizzes Completed"})

	for _, e := range entries {
		writer.Write([]string{
			strconv.FormatInt(e.Rank, 10),
			sanitizeForExcel(e.DisplayName),
			strconv.Itoa(e.TotalScore),
			strconv.Itoa(e.QuizzesCompleted),
		})
	}
}

// exportXLSX writes the scoreboard as an Excel file using StreamWriter
func (h *ScoreboardHandler) exportXLSX(c *gin.Context, entries []entity.RankedUserScore, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Scoreboard"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ScoreboardHandler] Failed to create StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Rank", "Player", "Total Score", "Quizzes Completed"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[ScoreboardHandler] Failed to write headers: %v", err)
	}

	for i, e := range entries {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{e.Rank, sanitizeForExcel(e.DisplayName), e.TotalScore, e.QuizzesCompleted}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[ScoreboardHandler] Failed to write row %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ScoreboardHandler] Flush error: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ScoreboardHandler] Failed to write Excel to response: %v", err)
	}
}

// sanitizeForExcel guards exported cells against formula injection in Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Characters that start a formula in Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

func (h *ScoreboardHandler) handleScoreboardError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in ScoreboardHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
