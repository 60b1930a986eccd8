// Package ros writes simulated sensor output as ROS messages. Messages are recorded one per
// line as JSON envelopes naming their topic, so a recording can be replayed or inspected
// without a ROS master.
package ros

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/game-of-drones/rotors-simulator/components/forcetorque"
	"github.com/game-of-drones/rotors-simulator/logging"
	"github.com/game-of-drones/rotors-simulator/referenceframe"
)

// TFTopic is the topic transforms are broadcast on.
const TFTopic = "/tf"

// ErrPublisherClosed is returned when publishing after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Envelope is one line of a recording.
type Envelope struct {
	Topic string          `json:"topic"`
	Msg   json.RawMessage `json:"msg"`
}

// Topics names where a Publisher writes wrenches.
type Topics struct {
	Namespace   string
	Wrench      string
	WrenchTruth string
}

// TopicsFromConfig returns the topics a sensor with the given config publishes on.
func TopicsFromConfig(conf *forcetorque.Config) Topics {
	noisy, truth := conf.Topics()
	return Topics{Namespace: conf.Namespace, Wrench: noisy, WrenchTruth: truth}
}

// ResolveTopic qualifies topic with namespace the way a namespaced ROS node handle does.
// Topics that are already absolute are returned unchanged.
func ResolveTopic(namespace, topic string) string {
	if strings.HasPrefix(topic, "/") {
		return topic
	}
	namespace = strings.Trim(namespace, "/")
	if namespace == "" {
		return "/" + topic
	}
	return "/" + namespace + "/" + topic
}

// Publisher implements forcetorque.Publisher by writing envelopes to an io.Writer.
type Publisher struct {
	logger      logging.Logger
	wrenchTopic string
	truthTopic  string

	mu     sync.Mutex
	dest   io.Writer
	tfSeq  uint32
	counts map[string]int
	closed bool
}

// NewPublisher returns a publisher writing to w. Each envelope line reaches w in a single
// Write, so size-rotating writers never split a line across files. If w is an io.Closer it is
// closed with the publisher.
func NewPublisher(w io.Writer, topics Topics, logger logging.Logger) *Publisher {
	return &Publisher{
		logger:      logger,
		wrenchTopic: ResolveTopic(topics.Namespace, topics.Wrench),
		truthTopic:  ResolveTopic(topics.Namespace, topics.WrenchTruth),
		dest:        w,
		counts:      map[string]int{},
	}
}

// TopicFor returns the resolved topic a wrench role is published on.
func (p *Publisher) TopicFor(role forcetorque.Role) string {
	if role == forcetorque.RoleTrue {
		return p.truthTopic
	}
	return p.wrenchTopic
}

// PublishWrench implements forcetorque.Publisher.
func (p *Publisher) PublishWrench(ctx context.Context, role forcetorque.Role, sample forcetorque.WrenchSample) error {
	return p.write(p.TopicFor(role), NewWrenchStamped(sample))
}

// PublishTransform implements forcetorque.Publisher.
func (p *Publisher) PublishTransform(ctx context.Context, tf referenceframe.Transform) error {
	p.mu.Lock()
	seq := p.tfSeq
	p.tfSeq++
	p.mu.Unlock()
	return p.write(TFTopic, TFMessage{Transforms: []TransformStamped{NewTransformStamped(tf, seq)}})
}

func (p *Publisher) write(topic string, msg interface{}) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrapf(err, "encoding message for %s", topic)
	}
	line, err := json.Marshal(Envelope{Topic: topic, Msg: raw})
	if err != nil {
		return errors.Wrapf(err, "encoding envelope for %s", topic)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if _, err := p.dest.Write(append(line, '\n')); err != nil {
		return errors.Wrapf(err, "writing to %s", topic)
	}
	p.counts[topic]++
	return nil
}

// Counts returns how many messages were written per topic.
func (p *Publisher) Counts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.counts))
	for topic, n := range p.counts {
		out[topic] = n
	}
	return out
}

// Close closes the destination if it is closable.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	if closer, ok := p.dest.(io.Closer); ok {
		err = errors.Wrap(closer.Close(), "closing recording")
	}
	if p.logger != nil {
		p.logger.Debugw("publisher closed", "counts", p.counts)
	}
	return err
}
