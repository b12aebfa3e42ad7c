package services

import (
	"errors"
	"testing"
	"time"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"
)

type fakeTx struct{}

func (fakeTx) InTx(fn func(exec repositories.SQLExecutor) error) error { return fn(nil) }

type fakeDayRepo struct {
	days        map[int64]*models.SalesDay
	nextID      int64
	sales       map[int64]int
	openCredits map[int64]int
}

func newFakeDayRepo() *fakeDayRepo {
	return &fakeDayRepo{days: map[int64]*models.SalesDay{}, sales: map[int64]int{}, openCredits: map[int64]int{}}
}

func (r *fakeDayRepo) CreateDay(_ repositories.SQLExecutor, day *models.SalesDay) (*models.SalesDay, error) {
	r.nextID++
	day.ID = r.nextID
	stored := *day
	r.days[day.ID] = &stored
	return day, nil
}

func (r *fakeDayRepo) GetDayByID(id int64) (*models.SalesDay, error) {
	return r.GetDayByIDWith(nil, id)
}

func (r *fakeDayRepo) GetDayByIDWith(_ repositories.SQLExecutor, id int64) (*models.SalesDay, error) {
	day, ok := r.days[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *day
	return &copied, nil
}

func (r *fakeDayRepo) GetDayByDate(_ repositories.SQLExecutor, date string) (*models.SalesDay, error) {
	for _, day := range r.days {
		if day.Date == date {
			copied := *day
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeDayRepo) GetOpenDay(_ repositories.SQLExecutor) (*models.SalesDay, error) {
	for _, day := range r.days {
		if day.IsOpen {
			copied := *day
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeDayRepo) GetDays(page, pageSize int) ([]models.SalesDay, int, error) {
	var out []models.SalesDay
	for _, day := range r.days {
		out = append(out, *day)
	}
	return out, len(out), nil
}

func (r *fakeDayRepo) CloseDay(_ repositories.SQLExecutor, id int64, closedByID int64, closedAt time.Time) error {
	day, ok := r.days[id]
	if !ok || !day.IsOpen {
		return repositories.ErrConflict
	}
	day.IsOpen = false
	day.ClosedByID = &closedByID
	day.ClosedAt = &closedAt
	return nil
}

func (r *fakeDayRepo) DeleteDay(_ repositories.SQLExecutor, id int64) error {
	if _, ok := r.days[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.days, id)
	return nil
}

func (r *fakeDayRepo) CountSales(_ repositories.SQLExecutor, dayID int64) (int, error) {
	return r.sales[dayID], nil
}

func (r *fakeDayRepo) CountOpenCredits(_ repositories.SQLExecutor, dayID int64) (int, error) {
	return r.openCredits[dayID], nil
}

func fixedClock(date string) BusinessClock {
	t, _ := time.Parse(dateLayout, date)
	return BusinessClock{Location: time.UTC, Now: func() time.Time { return t.Add(9 * time.Hour) }}
}

var (
	employer = Actor{ID: 1, Role: models.RoleEmployer}
	manager  = Actor{ID: 2, Role: models.RoleManager}
	cashier  = Actor{ID: 3, Role: models.RoleEmployee}
)

func TestOpenDay(t *testing.T) {
	repo := newFakeDayRepo()
	svc := NewDayService(repo, fakeTx{}, fixedClock("2024-03-01"))

	if _, err := svc.OpenDay(cashier); !errors.Is(err, ErrForbidden) {
		t.Fatalf("employee opening day: got %v, want ErrForbidden", err)
	}

	day, err := svc.OpenDay(manager)
	if err != nil {
		t.Fatalf("open day: %v", err)
	}
	if !day.IsOpen || day.Date != "2024-03-01" || day.OpenedByID == nil || *day.OpenedByID != manager.ID {
		t.Fatalf("unexpected day: %+v", day)
	}

	if _, err := svc.OpenDay(employer); !errors.Is(err, ErrDayAlreadyOpen) {
		t.Fatalf("second open: got %v, want ErrDayAlreadyOpen", err)
	}

	if _, err := svc.CloseDay(employer); err != nil {
		t.Fatalf("close day: %v", err)
	}
	if _, err := svc.OpenDay(employer); !errors.Is(err, ErrDayExists) {
		t.Fatalf("reopen closed day: got %v, want ErrDayExists", err)
	}
}

func TestCloseDay(t *testing.T) {
	repo := newFakeDayRepo()
	svc := NewDayService(repo, fakeTx{}, fixedClock("2024-03-01"))

	if _, err := svc.CloseDay(employer); !errors.Is(err, ErrNoOpenDay) {
		t.Fatalf("close without open day: got %v, want ErrNoOpenDay", err)
	}

	day, err := svc.OpenDay(employer)
	if err != nil {
		t.Fatalf("open day: %v", err)
	}
	repo.openCredits[day.ID] = 2
	if _, err := svc.CloseDay(employer); !errors.Is(err, ErrDayHasOpenCredit) {
		t.Fatalf("close with open credits: got %v, want ErrDayHasOpenCredit", err)
	}

	repo.openCredits[day.ID] = 0
	closed, err := svc.CloseDay(manager)
	if err != nil {
		t.Fatalf("close day: %v", err)
	}
	if closed.IsOpen || closed.ClosedByID == nil || *closed.ClosedByID != manager.ID {
		t.Fatalf("unexpected closed day: %+v", closed)
	}
}

func TestCurrentDay(t *testing.T) {
	repo := newFakeDayRepo()
	svc := NewDayService(repo, fakeTx{}, fixedClock("2024-03-01"))

	if _, err := svc.CurrentDay(); !errors.Is(err, ErrNoOpenDay) {
		t.Fatalf("got %v, want ErrNoOpenDay", err)
	}
	if _, err := svc.OpenDay(employer); err != nil {
		t.Fatalf("open day: %v", err)
	}
	day, err := svc.CurrentDay()
	if err != nil {
		t.Fatalf("current day: %v", err)
	}
	if day.Date != svc.Today() {
		t.Fatalf("current day date = %s, want %s", day.Date, svc.Today())
	}
}

func TestDeleteDay(t *testing.T) {
	repo := newFakeDayRepo()
	svc := NewDayService(repo, fakeTx{}, fixedClock("2024-03-01"))
	day, err := svc.OpenDay(employer)
	if err != nil {
		t.Fatalf("open day: %v", err)
	}

	tests := []struct {
		name  string
		actor Actor
		id    int64
		sales int
		want  error
	}{
		{"manager cannot delete", manager, day.ID, 0, ErrForbidden},
		{"unknown day", employer, 99, 0, ErrDayNotFound},
		{"day with sales", employer, day.ID, 3, ErrDayHasSales},
		{"empty day", employer, day.ID, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.sales[day.ID] = tt.sales
			err := svc.DeleteDay(tt.actor, tt.id)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := svc.GetDayByID(day.ID); !errors.Is(err, ErrDayNotFound) {
		t.Fatalf("deleted day still found: %v", err)
	}
}

func TestBusinessClockToday(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	clock := BusinessClock{
		Location: nairobi,
		Now:      func() time.Time { return time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC) },
	}
	if got := clock.Today(); got != "2024-03-02" {
		t.Fatalf("Today() = %s, want 2024-03-02", got)
	}
}
