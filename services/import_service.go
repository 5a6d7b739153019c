package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/repositories"
)

// ImportFailure describes one rejected row of a bulk result upload.
type ImportFailure struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportReport sums up a bulk upload: rows are processed in file order
// and a bad row never stops the rest.
type ImportReport struct {
	Imported int             `json:"imported"`
	Failed   []ImportFailure `json:"failed"`
}

type ImportService interface {
	ImportResults(ctx context.Context, tournamentID int, file io.Reader) (*ImportReport, error)
}

type importService struct {
	playerRepo  repositories.PlayerRepository
	fixtureRepo repositories.FixtureRepository
	results     ResultService
	logger      *slog.Logger
}

func NewImportService(
	playerRepo repositories.PlayerRepository,
	fixtureRepo repositories.FixtureRepository,
	results ResultService,
	logger *slog.Logger,
) ImportService {
	return &importService{
		playerRepo:  playerRepo,
		fixtureRepo: fixtureRepo,
		results:     results,
		logger:      logger,
	}
}

// ImportResults reads CSV rows of the form
// home_player,away_player,home_score,away_score and records each as a
// result against the matching unplayed fixture. Each row commits on its
// own; the report names every row that could not be recorded and why.
func (s *importService) ImportResults(ctx context.Context, tournamentID int, file io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	fixtures, err := s.fixtureRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures for tournament %d: %w", tournamentID, err)
	}

	report := &ImportReport{Failed: []ImportFailure{}}
	rowNum := 0
	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			var parseErr *csv.ParseError
			if errors.As(readErr, &parseErr) {
				rowNum++
				report.Failed = append(report.Failed, ImportFailure{Row: rowNum, Reason: "malformed row"})
				continue
			}
			return nil, fmt.Errorf("failed to read import file: %w", readErr)
		}
		rowNum++

		if rowNum == 1 && isHeaderRow(record) {
			rowNum = 0
			continue
		}

		if failure := s.importRow(ctx, tournamentID, fixtures, record); failure != "" {
			report.Failed = append(report.Failed, ImportFailure{Row: rowNum, Reason: failure})
			continue
		}
		report.Imported++
	}

	s.logger.InfoContext(ctx, "result import finished",
		slog.Int("tournament_id", tournamentID),
		slog.Int("imported", report.Imported),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}

// importRow records one row; a non-empty return is the failure reason.
func (s *importService) importRow(ctx context.Context, tournamentID int, fixtures []*models.Fixture, record []string) string {
	homeName := strings.TrimSpace(record[0])
	awayName := strings.TrimSpace(record[1])

	homeScore, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return fmt.Sprintf("invalid home score %q", record[2])
	}
	awayScore, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return fmt.Sprintf("invalid away score %q", record[3])
	}

	home, err := s.playerRepo.GetByName(ctx, homeName)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return fmt.Sprintf("player not found: %s", homeName)
		}
		return fmt.Sprintf("failed to look up player %s", homeName)
	}
	away, err := s.playerRepo.GetByName(ctx, awayName)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return fmt.Sprintf("player not found: %s", awayName)
		}
		return fmt.Sprintf("failed to look up player %s", awayName)
	}

	fixture := findFixtureForPair(fixtures, home.ID, away.ID)
	if fixture == nil {
		return fmt.Sprintf("no unplayed fixture between %s and %s", homeName, awayName)
	}

	// Scores follow the fixture's own home/away orientation.
	hs, as := homeScore, awayScore
	if fixture.HomeID != home.ID {
		hs, as = awayScore, homeScore
	}

	if _, err := s.results.RecordResult(ctx, fixture.ID, hs, as); err != nil {
		return err.Error()
	}
	fixture.Played = true
	return ""
}

func isHeaderRow(record []string) bool {
	if len(record) < 4 {
		return false
	}
	_, errA := strconv.Atoi(strings.TrimSpace(record[2]))
	_, errB := strconv.Atoi(strings.TrimSpace(record[3]))
	return errA != nil && errB != nil
}

func findFixtureForPair(fixtures []*models.Fixture, aID, bID int) *models.Fixture {
	for _, f := range fixtures {
		if f.Played {
			continue
		}
		if (f.HomeID == aID && f.AwayID == bID) || (f.HomeID == bID && f.AwayID == aID) {
			return f
		}
	}
	return nil
}
