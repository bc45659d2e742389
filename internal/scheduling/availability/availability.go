package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// DayWindows открытые окна специалиста на конкретную дату
type DayWindows struct {
	Date    time.Time
	Windows []domain.TimeWindow
}

// IsClosed возвращает true, если на эту дату нет ни одного окна
func (d DayWindows) IsClosed() bool {
	return len(d.Windows) == 0
}

// Model вычисляет открытые окна специалиста по недельному расписанию
// и исключениям на конкретные даты
type Model struct {
	scheduleRepo ScheduleRepository
	logger       Logger
}

// NewModel создает модель доступности
func NewModel(scheduleRepo ScheduleRepository, logger Logger) *Model {
	return &Model{
		scheduleRepo: scheduleRepo,
		logger:       logger,
	}
}

// OpenWindows возвращает открытые окна специалиста на каждую дату
// диапазона [from, to] (границы включительно, сравнение по дате).
//
// Исключение на дату полностью заменяет недельное расписание этой даты,
// включая пустой список окон ("закрыто"). Окна отсортированы по началу;
// пересекающиеся и смежные окна одного дня объединяются.
func (m *Model) OpenWindows(ctx context.Context, businessID, practitionerID int64, from, to time.Time) ([]DayWindows, error) {
	from = dateOnly(from)
	to = dateOnly(to)

	if to.Before(from) {
		return nil, fmt.Errorf("%w: from=%s after to=%s",
			ErrInvalidRange, from.Format(domain.DateFormat), to.Format(domain.DateFormat))
	}

	schedule, err := m.scheduleRepo.LoadSchedule(ctx, businessID, practitionerID)
	if err != nil {
		m.logger.Error("OpenWindows: failed to load schedule for practitioner=%d: %v", practitionerID, err)
		return nil, fmt.Errorf("%w: load schedule: %v", ErrInternal, err)
	}

	exceptions, err := m.scheduleRepo.LoadExceptions(ctx, businessID, practitionerID, from, to)
	if err != nil {
		m.logger.Error("OpenWindows: failed to load exceptions for practitioner=%d: %v", practitionerID, err)
		return nil, fmt.Errorf("%w: load exceptions: %v", ErrInternal, err)
	}

	// Индексируем исключения по дате
	byDate := make(map[string]*domain.AvailabilityException, len(exceptions))
	for _, exc := range exceptions {
		byDate[exc.Date.Format(domain.DateFormat)] = exc
	}

	var result []DayWindows
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		var windows []domain.TimeWindow

		if exc, ok := byDate[date.Format(domain.DateFormat)]; ok {
			// Исключение заменяет недельное расписание целиком
			windows = exc.Windows
		} else {
			windows = schedule[date.Weekday()]
		}

		result = append(result, DayWindows{
			Date:    date,
			Windows: MergeWindows(windows),
		})
	}

	return result, nil
}

// MergeWindows сортирует окна по началу и объединяет пересекающиеся
// и смежные окна в одно
func MergeWindows(windows []domain.TimeWindow) []domain.TimeWindow {
	valid := make([]domain.TimeWindow, 0, len(windows))
	for _, w := range windows {
		if w.IsValid() {
			valid = append(valid, w)
		}
	}
	if len(valid) == 0 {
		return []domain.TimeWindow{}
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.IsBefore(valid[j].Start)
	})

	merged := []domain.TimeWindow{valid[0]}
	for _, w := range valid[1:] {
		last := &merged[len(merged)-1]
		// Смежные (last.End == w.Start) тоже объединяем
		if !w.Start.IsAfter(last.End) {
			if w.End.IsAfter(last.End) {
				last.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}

	return merged
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
