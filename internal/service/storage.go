package service

import (
	"context"
	"sync"
	"time"

	"knitmes/internal/domainerr"
	"knitmes/internal/dto"
	"knitmes/internal/model"
	"knitmes/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// StorageService assigns warehouse locations to confirmed rolls and records
// the resulting captures. Assignment keeps one lot together: every roll of a
// lot goes to the lot's first location while any slot remains known for it.
type StorageService interface {
	// AssignLocation resolves the location code for the next roll of a lot.
	// Returns "" when no location is available; the caller records the
	// capture anyway and flags it for manual assignment.
	AssignLocation(ctx context.Context, lotNo string) (string, error)
	CreateCapture(ctx context.Context, req dto.CreateCaptureRequest) (*dto.CaptureResponse, error)
	// ResetCache drops the session-scoped lot → location cache. Called when
	// a storage operator finishes a session or locations are edited.
	ResetCache()
	ListLocations(ctx context.Context) ([]dto.LocationResponse, error)
	SearchCaptures(ctx context.Context, filter dto.CaptureFilter) ([]dto.CaptureResponse, error)
}

type storageService struct {
	locations repository.LocationRepository
	captures  repository.CaptureRepository

	mu    sync.Mutex
	cache map[string]string // lot no → location code, session-scoped
}

func NewStorageService(locations repository.LocationRepository, captures repository.CaptureRepository) StorageService {
	return &storageService{
		locations: locations,
		captures:  captures,
		cache:     make(map[string]string),
	}
}

func (s *storageService) AssignLocation(ctx context.Context, lotNo string) (string, error) {
	if lotNo == "" {
		return "", domainerr.New(domainerr.KindValidation, "lot no is required")
	}

	s.mu.Lock()
	if code, ok := s.cache[lotNo]; ok {
		s.mu.Unlock()
		return code, nil
	}
	s.mu.Unlock()

	var (
		lotCaptures []model.StorageCapture
		locations   []model.Location
		active      []model.StorageCapture
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		lotCaptures, err = s.captures.FindByLot(gctx, lotNo)
		return err
	})
	g.Go(func() (err error) {
		locations, err = s.locations.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		active, err = s.captures.ListActive(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", domainerr.Wrap(domainerr.KindNetwork, err, "loading storage state for lot %s", lotNo)
	}

	// A lot already in the warehouse stays where it is, dispatched or not:
	// partially shipped lots keep filling the same slot.
	for _, c := range lotCaptures {
		if c.LocationCode != "" {
			s.remember(lotNo, c.LocationCode)
			return c.LocationCode, nil
		}
	}

	occupied := make(map[string]bool, len(active))
	for _, c := range active {
		if c.LocationCode != "" {
			occupied[c.LocationCode] = true
		}
	}
	for _, loc := range locations {
		if !occupied[loc.LocationCode] {
			s.remember(lotNo, loc.LocationCode)
			return loc.LocationCode, nil
		}
	}

	log.Warn().Str("lot_no", lotNo).Msg("storage: no free location, capture will need manual assignment")
	return "", nil
}

func (s *storageService) remember(lotNo, code string) {
	s.mu.Lock()
	s.cache[lotNo] = code
	s.mu.Unlock()
}

func (s *storageService) CreateCapture(ctx context.Context, req dto.CreateCaptureRequest) (*dto.CaptureResponse, error) {
	code, err := s.AssignLocation(ctx, req.LotNo)
	if err != nil {
		return nil, err
	}

	capture := &model.StorageCapture{
		LotNo:            req.LotNo,
		FGRollNo:         req.FGRollNo,
		LocationCode:     code,
		ManualAssignment: code == "",
	}
	if err := s.captures.Create(ctx, capture); err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err,
			"recording capture for roll %s of lot %s", req.FGRollNo, req.LotNo)
	}

	resp := captureToResponse(capture)
	return &resp, nil
}

func (s *storageService) ResetCache() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
	log.Info().Msg("storage: lot-location cache reset")
}

func (s *storageService) ListLocations(ctx context.Context) ([]dto.LocationResponse, error) {
	var (
		locations []model.Location
		active    []model.StorageCapture
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		locations, err = s.locations.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		active, err = s.captures.ListActive(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "loading locations")
	}

	occupiedBy := make(map[string]string, len(active))
	for _, c := range active {
		if c.LocationCode != "" && occupiedBy[c.LocationCode] == "" {
			occupiedBy[c.LocationCode] = c.LotNo
		}
	}

	out := make([]dto.LocationResponse, 0, len(locations))
	for _, loc := range locations {
		out = append(out, dto.LocationResponse{
			ID:           loc.ID.String(),
			LocationCode: loc.LocationCode,
			Occupied:     occupiedBy[loc.LocationCode] != "",
			OccupiedBy:   occupiedBy[loc.LocationCode],
		})
	}
	return out, nil
}

func (s *storageService) SearchCaptures(ctx context.Context, filter dto.CaptureFilter) ([]dto.CaptureResponse, error) {
	captures, err := s.captures.Search(ctx, filter.LotNo, filter.FGRollNo)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.KindNetwork, err, "searching captures")
	}
	out := make([]dto.CaptureResponse, 0, len(captures))
	for i := range captures {
		out = append(out, captureToResponse(&captures[i]))
	}
	return out, nil
}

func captureToResponse(c *model.StorageCapture) dto.CaptureResponse {
	return dto.CaptureResponse{
		ID:               c.ID.String(),
		LotNo:            c.LotNo,
		FGRollNo:         c.FGRollNo,
		LocationCode:     c.LocationCode,
		Dispatched:       c.Dispatched,
		ManualAssignment: c.ManualAssignment,
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
	}
}
