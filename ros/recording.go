package ros

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ReadRecording reads every envelope of a recording file whose topic passes topicFilter. A nil
// filter keeps everything.
func ReadRecording(filename string, topicFilter func(string) bool) ([]Envelope, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open recording")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return ReadEnvelopes(f, topicFilter)
}

// ReadEnvelopes reads a recording from r.
func ReadEnvelopes(r io.Reader, topicFilter func(string) bool) ([]Envelope, error) {
	if topicFilter == nil {
		topicFilter = func(string) bool { return true }
	}

	in := bufio.NewReader(r)
	all := []Envelope{}
	for line := 1; ; line++ {
		data, err := in.ReadBytes('\n')
		if len(data) > 0 {
			var env Envelope
			if jsonErr := json.Unmarshal(data, &env); jsonErr != nil {
				return nil, errors.Wrapf(jsonErr, "line %d", line)
			}
			if topicFilter(env.Topic) {
				all = append(all, env)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return all, nil
			}
			return nil, err
		}
	}
}

// AllMessagesForTopic decodes every message on topic into values of type T.
func AllMessagesForTopic[T any](r io.Reader, topic string) ([]T, error) {
	envs, err := ReadEnvelopes(r, func(t string) bool { return t == topic })
	if err != nil {
		return nil, err
	}
	if len(envs) == 0 {
		return nil, errors.Errorf("no messages for topic %s", topic)
	}

	msgs := make([]T, 0, len(envs))
	for _, env := range envs {
		var msg T
		if err := json.Unmarshal(env.Msg, &msg); err != nil {
			return nil, errors.Wrapf(err, "decoding message on %s", topic)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
