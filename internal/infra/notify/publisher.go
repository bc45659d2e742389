package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
)

const (
	publishBuffer  = 256
	writeTimeout   = 5 * time.Second
	flushOnClose   = 10 * time.Second
)

// Envelope обертка события для канала уведомлений
type Envelope struct {
	Type       string          `json:"type"`
	BusinessID int64           `json:"business_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Publisher отправляет события планировщика в Kafka
// Отправка fire-and-forget: ошибки публикации логируются и не влияют
// на результат операции
type Publisher struct {
	writer  *kafka.Writer
	logger  Logger
	metrics *metrics.Metrics

	events chan kafka.Message
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewPublisher создает издателя событий
// При пустом списке брокеров возвращается no-op издатель
func NewPublisher(brokers []string, topic string, logger Logger, m *metrics.Metrics) *Publisher {
	p := &Publisher{
		logger:  logger,
		metrics: m,
		events:  make(chan kafka.Message, publishBuffer),
		done:    make(chan struct{}),
	}

	if len(brokers) == 0 {
		logger.Warn("notify: брокеры Kafka не заданы, события не публикуются")
		return p
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	p.wg.Add(1)
	go p.run()

	return p
}

// Publish ставит событие в очередь на отправку
// При переполненной очереди событие отбрасывается
func (p *Publisher) Publish(eventType string, businessID int64, payload interface{}) {
	if p.writer == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("notify: ошибка сериализации события %s: %v", eventType, err)
		return
	}

	envelope, err := json.Marshal(Envelope{
		Type:       eventType,
		BusinessID: businessID,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	})
	if err != nil {
		p.logger.Error("notify: ошибка сериализации конверта %s: %v", eventType, err)
		return
	}

	msg := kafka.Message{
		// Ключ по бизнесу сохраняет порядок событий внутри тенанта
		Key:   []byte(strconv.FormatInt(businessID, 10)),
		Value: envelope,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}

	select {
	case p.events <- msg:
	default:
		p.metrics.EventsDroppedTotal.WithLabelValues(eventType).Inc()
		p.logger.Warn("notify: очередь событий переполнена, событие %s отброшено", eventType)
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()

	for {
		select {
		case msg := <-p.events:
			p.write(msg)
		case <-p.done:
			// Дослать накопленное перед выходом
			for {
				select {
				case msg := <-p.events:
					p.write(msg)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) write(msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.EventsDroppedTotal.WithLabelValues(messageEventType(msg)).Inc()
		p.logger.Error("notify: ошибка записи в Kafka: %v", err)
		return
	}

	p.metrics.EventsPublishedTotal.WithLabelValues(messageEventType(msg)).Inc()
}

func messageEventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event-type" {
			return string(h.Value)
		}
	}
	return "unknown"
}

// Close останавливает фоновую отправку и закрывает writer
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}

	close(p.done)

	waited := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(flushOnClose):
		p.logger.Warn("notify: таймаут ожидания отправки событий при остановке")
	}

	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("notify: close writer: %w", err)
	}
	return nil
}
