package slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// CandidateStarts перечисляет стартовые времена внутри окна [windowStart, windowEnd).
// Сетка начинается с windowStart и идет с шагом increment; последний допустимый
// старт t удовлетворяет t + duration <= windowEnd.
//
// Буферы НЕ сдвигают сетку стартов - они учитываются только при проверке
// конфликтов через занятый интервал (OccupiedInterval).
//
// Если duration больше длины окна, возвращается пустой срез (не ошибка).
func CandidateStarts(windowStart, windowEnd time.Time, duration, increment time.Duration) []time.Time {
	if duration <= 0 || increment <= 0 {
		return []time.Time{}
	}
	if !windowEnd.After(windowStart) {
		return []time.Time{}
	}

	starts := make([]time.Time, 0)
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(increment) {
		starts = append(starts, t)
	}
	return starts
}

// OccupiedInterval возвращает занятый интервал бронирования с учетом буферов:
// [start - bufferBefore, end + bufferAfter)
func OccupiedInterval(start, end time.Time, bufferBeforeMinutes, bufferAfterMinutes int) domain.Interval {
	return domain.Interval{
		Start: start.Add(-time.Duration(bufferBeforeMinutes) * time.Minute),
		End:   end.Add(time.Duration(bufferAfterMinutes) * time.Minute),
	}
}

// ServiceInterval возвращает интервал бронирования услуги, начинающегося в start:
// [start, start + duration)
func ServiceInterval(start time.Time, durationMinutes int) domain.Interval {
	return domain.Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}
