package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueState — результат проверки существующей очереди.
type QueueState int

const (
	// QueueAbsent — очереди нет.
	QueueAbsent QueueState = iota

	// QueueDrifted — очередь есть, но dead-letter аргументы отличаются.
	QueueDrifted

	// QueueInSync — очередь есть и совпадает с ожидаемой конфигурацией.
	QueueInSync
)

func (s QueueState) String() string {
	switch s {
	case QueueAbsent:
		return "absent"
	case QueueDrifted:
		return "drifted"
	case QueueInSync:
		return "in_sync"
	default:
		return fmt.Sprintf("QueueState(%d)", int(s))
	}
}

// QueueInspector определяет состояние очереди относительно QueueSpec.
type QueueInspector interface {
	Inspect(ctx context.Context, spec QueueSpec) (QueueState, error)
}

// --- ProbeInspector ---

// ProbeInspector проверяет очередь средствами AMQP.
//
// AMQP не возвращает аргументы существующей очереди, поэтому:
//   - passive declare: 404 NOT_FOUND — очереди нет
//   - declare с ожидаемыми аргументами: 406 PRECONDITION_FAILED — аргументы расходятся,
//     успех — совпадают (повторный declare с теми же аргументами брокер игнорирует)
type ProbeInspector struct {
	opener ChannelOpener
}

// NewProbeInspector создаёт ProbeInspector.
func NewProbeInspector(opener ChannelOpener) *ProbeInspector {
	return &ProbeInspector{opener: opener}
}

// Inspect реализует QueueInspector.
func (p *ProbeInspector) Inspect(ctx context.Context, spec QueueSpec) (QueueState, error) {
	if err := ctx.Err(); err != nil {
		return QueueAbsent, err
	}

	err := withChannel(p.opener, func(ch Channel) error {
		_, err := ch.QueueDeclarePassive(spec.Name, spec.Durable, false, false, false, nil)
		return err
	})
	if isAMQPCode(err, amqp.NotFound) {
		return QueueAbsent, nil
	}
	if err != nil {
		return QueueAbsent, fmt.Errorf("passive declare %s: %w", spec.Name, err)
	}

	err = withChannel(p.opener, func(ch Channel) error {
		_, err := ch.QueueDeclare(spec.Name, spec.Durable, false, false, false, spec.Arguments)
		return err
	})
	if isAMQPCode(err, amqp.PreconditionFailed) {
		return QueueDrifted, nil
	}
	if err != nil {
		return QueueAbsent, fmt.Errorf("probe declare %s: %w", spec.Name, err)
	}

	return QueueInSync, nil
}

// --- ManagementInspector ---

// ManagementInspector читает аргументы очереди через RabbitMQ management API
// (GET /api/queues/{vhost}/{name}).
type ManagementInspector struct {
	baseURL    string
	vhost      string
	username   string
	password   string
	httpClient *http.Client
}

// NewManagementInspector создаёт инспектор. Учётные данные и vhost
// берутся из AMQP URL, если vhost не задан явно.
func NewManagementInspector(baseURL, amqpURL, vhost string) (*ManagementInspector, error) {
	uri, err := amqp.ParseURI(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("parse amqp url: %w", err)
	}

	if vhost == "" {
		vhost = uri.Vhost
	}

	return &ManagementInspector{
		baseURL:  strings.TrimRight(baseURL, "/"),
		vhost:    vhost,
		username: uri.Username,
		password: uri.Password,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// managementQueue — часть ответа management API, которая нужна для сверки.
type managementQueue struct {
	Name      string         `json:"name"`
	Durable   bool           `json:"durable"`
	Arguments map[string]any `json:"arguments"`
}

// Inspect реализует QueueInspector.
func (m *ManagementInspector) Inspect(ctx context.Context, spec QueueSpec) (QueueState, error) {
	endpoint := fmt.Sprintf("%s/api/queues/%s/%s",
		m.baseURL, url.PathEscape(m.vhost), url.PathEscape(spec.Name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return QueueAbsent, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(m.username, m.password)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return QueueAbsent, fmt.Errorf("query management api: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return QueueAbsent, nil
	case resp.StatusCode >= 400:
		return QueueAbsent, fmt.Errorf("management api: HTTP %d", resp.StatusCode)
	}

	var q managementQueue
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return QueueAbsent, fmt.Errorf("decode queue: %w", err)
	}

	if q.Durable != spec.Durable || !argumentsMatch(q.Arguments, spec.Arguments) {
		return QueueDrifted, nil
	}
	return QueueInSync, nil
}
