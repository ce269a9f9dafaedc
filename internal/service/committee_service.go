package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/committee-api/internal/dto"
	"github.com/noah-isme/committee-api/internal/models"
	"github.com/noah-isme/committee-api/internal/repository"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
)

const (
	cacheKeyPreviousList   = "committee:previous:list"
	cacheKeyPreviousPrefix = "committee:previous:"
)

type committeeRepository interface {
	CurrentAssignments(ctx context.Context) ([]models.AssignmentDetail, error)
	FindAssignmentByID(ctx context.Context, id string) (*models.CommitteeAssignment, error)
	State(ctx context.Context) (*models.CommitteeState, error)
	NumberInUse(ctx context.Context, number string) (bool, error)
	DeriveRoster(ctx context.Context) ([]models.RosterEntry, error)
	Publish(ctx context.Context, number string, entries []models.RosterEntry, now time.Time) ([]models.CommitteeAssignment, error)
	AddMember(ctx context.Context, userID, designationID string, now time.Time) (*models.CommitteeAssignment, error)
	Reorder(ctx context.Context, orders map[string]int, now time.Time) error
	RemoveMember(ctx context.Context, id string) error
	EndTenure(ctx context.Context, newNumber string, now time.Time) (int, string, error)
}

type previousCommitteeRepository interface {
	ListSummaries(ctx context.Context) ([]models.PreviousCommittee, error)
	ListByNumber(ctx context.Context, number string) ([]models.PreviousCommitteeMember, error)
	CountCommittees(ctx context.Context) (int, error)
}

type committeeUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CommitteeConfig tunes lifecycle behaviour.
type CommitteeConfig struct {
	ConfirmationToken string
	ArchiveCacheTTL   time.Duration
}

// CommitteeService orchestrates the committee lifecycle: roster derivation,
// publishing, membership management and tenure transitions.
type CommitteeService struct {
	repo      committeeRepository
	previous  previousCommitteeRepository
	users     committeeUserRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       CommitteeConfig
}

// NewCommitteeService creates a committee service instance.
func NewCommitteeService(repo committeeRepository, previous previousCommitteeRepository, users committeeUserRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg CommitteeConfig) *CommitteeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConfirmationToken == "" {
		cfg.ConfirmationToken = "CONFIRM"
	}
	return &CommitteeService{repo: repo, previous: previous, users: users, cache: cache, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// DeriveRoster computes the live current committee from user and designation
// state. Nothing is persisted; two calls without intervening writes return
// identical rosters.
func (s *CommitteeService) DeriveRoster(ctx context.Context) ([]models.RosterEntry, error) {
	roster, err := s.repo.DeriveRoster(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive roster")
	}
	return roster, nil
}

// GetCurrent returns the published committee assignments with the committee
// number currently in effect.
func (s *CommitteeService) GetCurrent(ctx context.Context) ([]models.AssignmentDetail, string, error) {
	assignments, err := s.repo.CurrentAssignments(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current committee")
	}
	state, err := s.repo.State(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committee state")
	}
	return assignments, state.CurrentNumber, nil
}

// DefaultCommitteeNumber derives the academic-year default used when a
// publish request omits the number.
func DefaultCommitteeNumber(now time.Time) string {
	year := now.Year()
	return fmt.Sprintf("%d-%d", year, year+1)
}

// Publish snapshots the derived roster into current assignments under the
// given committee number. Fails when a committee is already published, the
// number was used before, or the derived roster is empty.
func (s *CommitteeService) Publish(ctx context.Context, req dto.PublishCommitteeRequest) ([]models.CommitteeAssignment, error) {
	now := time.Now().UTC()
	number := req.CommitteeNumber
	if number == "" {
		number = DefaultCommitteeNumber(now)
	}

	used, err := s.repo.NumberInUse(ctx, number)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check committee number")
	}
	if used {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("committee number %s has already been used", number))
	}

	roster, err := s.repo.DeriveRoster(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive roster")
	}
	if len(roster) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConsistency, "no eligible executives to publish")
	}

	assignments, err := s.repo.Publish(ctx, number, roster, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyPublished):
			return nil, appErrors.Clone(appErrors.ErrConflict, "a committee is already published; end its tenure first")
		case errors.Is(err, repository.ErrDuplicateMember):
			return nil, appErrors.Clone(appErrors.ErrConflict, "a member appears more than once in the roster")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish committee")
		}
	}

	s.metrics.RecordPublish()
	s.logger.Info("committee published",
		zap.String("committee_number", number),
		zap.Int("members", len(assignments)))
	return assignments, nil
}

// AddMember appends an eligible executive to the published committee.
func (s *CommitteeService) AddMember(ctx context.Context, req dto.AddMemberRequest) (*models.CommitteeAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid add member payload")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.IsCommitteeEligible() {
		return nil, appErrors.Clone(appErrors.ErrConsistency, "user is not an active executive with a designation")
	}

	assignment, err := s.repo.AddMember(ctx, req.UserID, req.DesignationID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoCurrentCommittee):
			return nil, appErrors.Clone(appErrors.ErrConflict, "no committee is currently published")
		case errors.Is(err, repository.ErrDuplicateMember):
			return nil, appErrors.Clone(appErrors.ErrConflict, "user already sits on the current committee")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add member")
		}
	}
	return assignment, nil
}

// Reorder applies a complete member order permutation to the current
// committee. The request must cover every current assignment exactly once
// with orders forming a dense 1..N sequence.
func (s *CommitteeService) Reorder(ctx context.Context, req dto.ReorderRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reorder payload")
	}

	current, err := s.repo.CurrentAssignments(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current committee")
	}
	if len(current) == 0 {
		return appErrors.Clone(appErrors.ErrConflict, "no committee is currently published")
	}

	orders, err := buildPermutation(current, req.Assignments)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrConsistency.Code, appErrors.ErrConsistency.Status, err.Error())
	}

	if err := s.repo.Reorder(ctx, orders, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found in current committee")
		case errors.Is(err, repository.ErrRosterChanged):
			return appErrors.Clone(appErrors.ErrConflict, "committee membership changed, reload and retry")
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder committee")
		}
	}
	return nil
}

// buildPermutation validates that the submitted entries cover the current
// assignment ids exactly once, with orders forming a dense 1..N sequence.
func buildPermutation(current []models.AssignmentDetail, entries []dto.ReorderEntry) (map[string]int, error) {
	if len(entries) != len(current) {
		return nil, fmt.Errorf("reorder must cover all %d current members, got %d", len(current), len(entries))
	}

	currentIDs := make(map[string]bool, len(current))
	for _, assignment := range current {
		currentIDs[assignment.ID] = true
	}

	orders := make(map[string]int, len(entries))
	seenOrders := make(map[int]bool, len(entries))
	for _, entry := range entries {
		if !currentIDs[entry.ID] {
			return nil, fmt.Errorf("assignment %s is not part of the current committee", entry.ID)
		}
		if _, dup := orders[entry.ID]; dup {
			return nil, fmt.Errorf("assignment %s appears more than once", entry.ID)
		}
		if entry.Order < 1 || entry.Order > len(entries) {
			return nil, fmt.Errorf("order %d is outside 1..%d", entry.Order, len(entries))
		}
		if seenOrders[entry.Order] {
			return nil, fmt.Errorf("order %d is assigned more than once", entry.Order)
		}
		orders[entry.ID] = entry.Order
		seenOrders[entry.Order] = true
	}
	return orders, nil
}

// UpdateMemberOrder moves one member to a new position, shifting the others
// to keep the order dense.
func (s *CommitteeService) UpdateMemberOrder(ctx context.Context, assignmentID string, req dto.UpdateMemberOrderRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member order payload")
	}

	current, err := s.repo.CurrentAssignments(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current committee")
	}

	index := -1
	for i, assignment := range current {
		if assignment.ID == assignmentID {
			index = i
			break
		}
	}
	if index == -1 {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found in current committee")
	}
	if req.Order > len(current) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("order %d is outside 1..%d", req.Order, len(current)))
	}

	moved := current[index]
	rest := append(append([]models.AssignmentDetail{}, current[:index]...), current[index+1:]...)
	orders := make(map[string]int, len(current))
	position := 1
	for _, assignment := range rest {
		if position == req.Order {
			position++
		}
		orders[assignment.ID] = position
		position++
	}
	orders[moved.ID] = req.Order

	if err := s.repo.Reorder(ctx, orders, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found in current committee")
		case errors.Is(err, repository.ErrRosterChanged):
			return appErrors.Clone(appErrors.ErrConflict, "committee membership changed, reload and retry")
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move member")
		}
	}
	return nil
}

// RemoveMember deletes one assignment from the published committee, keeping
// the remaining member order dense.
func (s *CommitteeService) RemoveMember(ctx context.Context, assignmentID string) error {
	assignment, err := s.repo.FindAssignmentByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found in current committee")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment.Status != models.AssignmentStatusCurrent {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found in current committee")
	}

	if err := s.repo.RemoveMember(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found in current committee")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove member")
	}
	return nil
}

// EndTenure archives the current committee into the immutable ledger and
// records the next committee number. The confirmation sentinel is checked
// before any write happens.
func (s *CommitteeService) EndTenure(ctx context.Context, req dto.EndTenureRequest) (*dto.EndTenureResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end tenure payload")
	}
	if req.Confirmation != s.cfg.ConfirmationToken {
		return nil, appErrors.Clone(appErrors.ErrValidation, "confirmation token does not match")
	}

	used, err := s.repo.NumberInUse(ctx, req.NewCommitteeNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check committee number")
	}
	if used {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("committee number %s has already been used", req.NewCommitteeNumber))
	}

	archived, closedNumber, err := s.repo.EndTenure(ctx, req.NewCommitteeNumber, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNothingToArchive) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to archive: no current committee")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end tenure")
	}

	if err := s.cache.Invalidate(ctx, cacheKeyPreviousPrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate archive cache", zap.Error(err))
	}

	s.metrics.RecordTenureTransition()
	s.logger.Info("committee tenure ended",
		zap.String("closed_committee", closedNumber),
		zap.String("next_committee", req.NewCommitteeNumber),
		zap.Int("archived_members", archived))

	return &dto.EndTenureResponse{
		ArchivedCount:      archived,
		CommitteeNumber:    closedNumber,
		NewCommitteeNumber: req.NewCommitteeNumber,
	}, nil
}

// ListPrevious returns archived committees, latest first. The archive is
// immutable, so results are cached until the next tenure transition. The
// second return value reports whether the cache served the response.
func (s *CommitteeService) ListPrevious(ctx context.Context) ([]models.PreviousCommittee, bool, error) {
	var cached []models.PreviousCommittee
	if hit, _ := s.cache.Get(ctx, cacheKeyPreviousList, &cached); hit {
		return cached, true, nil
	}

	summaries, err := s.previous.ListSummaries(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list previous committees")
	}

	if err := s.cache.Set(ctx, cacheKeyPreviousList, summaries, s.cfg.ArchiveCacheTTL); err != nil {
		s.logger.Warn("failed to cache previous committee list", zap.Error(err))
	}
	return summaries, false, nil
}

// GetPrevious returns one archived committee roster in member order.
func (s *CommitteeService) GetPrevious(ctx context.Context, number string) (*models.PreviousCommittee, bool, error) {
	key := cacheKeyPreviousPrefix + number
	var cached models.PreviousCommittee
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	members, err := s.previous.ListByNumber(ctx, number)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous committee")
	}
	if len(members) == 0 {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no archived committee %s", number))
	}

	committee := &models.PreviousCommittee{
		CommitteeNumber: number,
		MemberCount:     len(members),
		Members:         members,
	}
	if err := s.cache.Set(ctx, key, committee, s.cfg.ArchiveCacheTTL); err != nil {
		s.logger.Warn("failed to cache previous committee", zap.Error(err))
	}
	return committee, false, nil
}

// Stats summarises committee lifecycle state for dashboards.
func (s *CommitteeService) Stats(ctx context.Context) (*models.CommitteeStats, error) {
	assignments, err := s.repo.CurrentAssignments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current committee")
	}
	archived, err := s.previous.CountCommittees(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count previous committees")
	}
	state, err := s.repo.State(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committee state")
	}

	return &models.CommitteeStats{
		CurrentMemberCount:     len(assignments),
		ArchivedCommitteeCount: archived,
		CurrentCommitteeNumber: state.CurrentNumber,
		HasCurrentCommittee:    len(assignments) > 0,
	}, nil
}
