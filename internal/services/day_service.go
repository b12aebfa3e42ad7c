package services

import (
	"errors"
	"fmt"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"
)

var (
	ErrDayNotFound      = errors.New("sales day not found")
	ErrDayAlreadyOpen   = errors.New("day is already open")
	ErrDayExists        = errors.New("day already exists for today")
	ErrNoOpenDay        = errors.New("no open day")
	ErrDayNotOpen       = errors.New("day is not open")
	ErrDayHasOpenCredit = errors.New("day has uncleared credits")
	ErrDayHasSales      = errors.New("day has sales")
)

// DayService opens and closes the sales day that gates recording sales.
type DayService interface {
	OpenDay(actor Actor) (*models.SalesDay, error)
	CloseDay(actor Actor) (*models.SalesDay, error)
	// CurrentDay returns the open day or ErrNoOpenDay.
	CurrentDay() (*models.SalesDay, error)
	GetDays(page, pageSize int) ([]models.SalesDay, int, error)
	GetDayByID(id int64) (*models.SalesDay, error)
	DeleteDay(actor Actor, id int64) error
	Today() string
}

type dayService struct {
	dayRepo repositories.DayRepository
	db      TxRunner
	clock   BusinessClock
}

// NewDayService creates a new instance of DayService.
func NewDayService(dayRepo repositories.DayRepository, db TxRunner, clock BusinessClock) DayService {
	return &dayService{dayRepo: dayRepo, db: db, clock: clock}
}

func (s *dayService) Today() string {
	return s.clock.Today()
}

func (s *dayService) OpenDay(actor Actor) (*models.SalesDay, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	today := s.clock.Today()
	day := &models.SalesDay{
		Date:       today,
		IsOpen:     true,
		OpenedByID: &actor.ID,
		OpenedAt:   s.clock.now().UTC(),
	}

	err := s.db.InTx(func(exec repositories.SQLExecutor) error {
		if _, err := s.dayRepo.GetOpenDay(exec); err == nil {
			return ErrDayAlreadyOpen
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		if _, err := s.dayRepo.GetDayByDate(exec, today); err == nil {
			return fmt.Errorf("%w: %s", ErrDayExists, today)
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		_, err := s.dayRepo.CreateDay(exec, day)
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return ErrDayAlreadyOpen
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetDayByID(day.ID)
}

func (s *dayService) CloseDay(actor Actor) (*models.SalesDay, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	var dayID int64
	err := s.db.InTx(func(exec repositories.SQLExecutor) error {
		day, err := s.dayRepo.GetOpenDay(exec)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrNoOpenDay
			}
			return err
		}
		dayID = day.ID

		openCredits, err := s.dayRepo.CountOpenCredits(exec, day.ID)
		if err != nil {
			return err
		}
		if openCredits > 0 {
			return fmt.Errorf("%w: %d credits still open", ErrDayHasOpenCredit, openCredits)
		}

		err = s.dayRepo.CloseDay(exec, day.ID, actor.ID, s.clock.now().UTC())
		if errors.Is(err, repositories.ErrConflict) {
			return ErrNoOpenDay
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetDayByID(dayID)
}

func (s *dayService) CurrentDay() (*models.SalesDay, error) {
	open, err := s.dayRepo.GetOpenDay(nil)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoOpenDay
		}
		return nil, fmt.Errorf("failed to get the open day: %w", err)
	}
	return s.GetDayByID(open.ID)
}

func (s *dayService) GetDays(page, pageSize int) ([]models.SalesDay, int, error) {
	days, total, err := s.dayRepo.GetDays(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sales days: %w", err)
	}
	return days, total, nil
}

func (s *dayService) GetDayByID(id int64) (*models.SalesDay, error) {
	day, err := s.dayRepo.GetDayByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDayNotFound
		}
		return nil, fmt.Errorf("failed to get sales day %d: %w", id, err)
	}
	return day, nil
}

func (s *dayService) DeleteDay(actor Actor, id int64) error {
	if actor.Role != models.RoleEmployer {
		return fmt.Errorf("%w: only the employer can delete a sales day", ErrForbidden)
	}
	return s.db.InTx(func(exec repositories.SQLExecutor) error {
		if _, err := s.dayRepo.GetDayByIDWith(exec, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrDayNotFound
			}
			return err
		}
		count, err := s.dayRepo.CountSales(exec, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %d sales recorded", ErrDayHasSales, count)
		}
		err = s.dayRepo.DeleteDay(exec, id)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return ErrDayNotFound
		case errors.Is(err, repositories.ErrForeignKey):
			return ErrDayHasSales
		}
		return err
	})
}
