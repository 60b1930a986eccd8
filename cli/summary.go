package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"

	"github.com/game-of-drones/rotors-simulator/components/forcetorque"
)

var axisNames = [6]string{"force.x", "force.y", "force.z", "torque.x", "torque.y", "torque.z"}

// noiseSummary passes everything through to a publisher and keeps, per axis, the difference
// between each noisy wrench and the true wrench released with it.
type noiseSummary struct {
	forcetorque.Publisher

	mu       sync.Mutex
	truth    map[uint32]forcetorque.Wrench
	residual [6][]float64
}

func newNoiseSummary(pub forcetorque.Publisher) *noiseSummary {
	return &noiseSummary{Publisher: pub, truth: map[uint32]forcetorque.Wrench{}}
}

func (s *noiseSummary) PublishWrench(ctx context.Context, role forcetorque.Role, sample forcetorque.WrenchSample) error {
	s.mu.Lock()
	switch role {
	case forcetorque.RoleTrue:
		s.truth[sample.Seq] = sample.Wrench
	case forcetorque.RoleNoisy:
		if truth, ok := s.truth[sample.Seq]; ok {
			delete(s.truth, sample.Seq)
			f := sample.Wrench.Force.Sub(truth.Force)
			tq := sample.Wrench.Torque.Sub(truth.Torque)
			for i, v := range [6]float64{f.X, f.Y, f.Z, tq.X, tq.Y, tq.Z} {
				s.residual[i] = append(s.residual[i], v)
			}
		}
	}
	s.mu.Unlock()
	return s.Publisher.PublishWrench(ctx, role, sample)
}

type axisStats struct {
	mean, stddev, min, max float64
}

func (s *noiseSummary) stats() ([6]axisStats, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [6]axisStats
	n := len(s.residual[0])
	if n == 0 {
		return out, 0
	}
	for i, data := range s.residual {
		// errors only arise for empty input
		mean, _ := stats.Mean(data)
		stddev, _ := stats.StandardDeviationPopulation(data)
		lo, _ := stats.Min(data)
		hi, _ := stats.Max(data)
		out[i] = axisStats{mean: mean, stddev: stddev, min: lo, max: hi}
	}
	return out, n
}

func (s *noiseSummary) write(w io.Writer, counts map[string]int) {
	axes, n := s.stats()
	fmt.Fprintf(w, "released samples: %d\n", n)

	topics := make([]string, 0, len(counts))
	for topic := range counts {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Topic", "Messages"})
	for _, topic := range topics {
		t.AppendRow(table.Row{topic, counts[topic]})
	}
	fmt.Fprintln(w, t.Render())

	if n == 0 {
		return
	}
	t = table.NewWriter()
	t.AppendHeader(table.Row{"Noise", "Mean", "Stddev", "Min", "Max"})
	for i, a := range axes {
		t.AppendRow(table.Row{
			axisNames[i],
			fmt.Sprintf("%.6f", a.mean),
			fmt.Sprintf("%.6f", a.stddev),
			fmt.Sprintf("%.6f", a.min),
			fmt.Sprintf("%.6f", a.max),
		})
	}
	fmt.Fprintln(w, t.Render())
}
