package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/game-of-drones/rotors-simulator/ros"
)

const simConfig = `
[sensor]
robot_namespace = "firefly"
link_name = "ft_link"
parent_frame_id = "base_link"
measurement_delay = 2
noise_normal_force = [0.5, 0.5, 0.5]
random_seed = 7

[[world.links]]
name = "base_link"
linear_velocity = [0, 0, 1]

[[world.links]]
name = "ft_link"
position = [0, 0, 0.1]
force = [0, 0, -9.81]

[simulation]
step_size = "1ms"
ticks = 20
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.toml")
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestValidate(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, simConfig)
	err := NewApp(&out, &errOut).Run([]string{"wrenchsim", "validate", "--config", path})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "is valid")
	test.That(t, out.String(), test.ShouldContainSubstring, "sensor_in_parent")
	test.That(t, out.String(), test.ShouldContainSubstring, "/firefly/force_sensor_truth")

	bad := writeConfig(t, strings.Replace(simConfig, `link_name = "ft_link"`, `link_name = "nope"`, 1))
	err = NewApp(&out, &errOut).Run([]string{"wrenchsim", "validate", "-c", bad})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "nope")
}

func TestRunAndEcho(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, simConfig)
	recording := filepath.Join(t.TempDir(), "out.jsonl")

	err := NewApp(&out, &errOut).Run([]string{"wrenchsim", "run", "-c", path, "-o", recording, "--ticks", "10"})
	test.That(t, err, test.ShouldBeNil)
	summary := out.String()
	test.That(t, summary, test.ShouldContainSubstring, "released samples: 8")
	test.That(t, summary, test.ShouldContainSubstring, "force.z")
	test.That(t, summary, test.ShouldContainSubstring, "/tf")

	f, err := os.Open(recording)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	truth, err := ros.AllMessagesForTopic[ros.WrenchStamped](f, "/firefly/force_sensor_truth")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, truth, test.ShouldHaveLength, 8)
	for i, msg := range truth {
		test.That(t, msg.Header.Seq, test.ShouldEqual, uint32(i))
		test.That(t, msg.Header.FrameID, test.ShouldEqual, "base_link")
		test.That(t, msg.Wrench.Force.Z, test.ShouldEqual, -9.81)
	}

	out.Reset()
	err = NewApp(&out, &errOut).Run([]string{"wrenchsim", "echo", "--topic", "/tf", recording})
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	test.That(t, lines, test.ShouldHaveLength, 8)
	test.That(t, lines[0], test.ShouldStartWith, "/tf")
	test.That(t, lines[0], test.ShouldContainSubstring, `"child_frame_id":"firefly"`)

	err = NewApp(&out, &errOut).Run([]string{"wrenchsim", "echo"})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRunToStdout(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, simConfig)

	err := NewApp(&out, &errOut).Run([]string{"wrenchsim", "--debug", "run", "-c", path})
	test.That(t, err, test.ShouldBeNil)
	envs, err := ros.ReadEnvelopes(&out, nil)
	test.That(t, err, test.ShouldBeNil)
	// 18 releases from 20 ticks, each a true and noisy wrench plus one transform
	test.That(t, envs, test.ShouldHaveLength, 54)
	test.That(t, errOut.String(), test.ShouldContainSubstring, "released samples: 18")
	test.That(t, errOut.String(), test.ShouldContainSubstring, "running simulation")
}

func TestRunRotatesWholeLines(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, simConfig)
	dir := t.TempDir()
	recording := filepath.Join(dir, "rec.jsonl")

	err := NewApp(&out, &errOut).Run([]string{
		"wrenchsim", "run", "-c", path, "-o", recording,
		"--ticks", "6000", "--max-size", "1", "--max-backups", "10",
	})
	test.That(t, err, test.ShouldBeNil)

	files, err := filepath.Glob(filepath.Join(dir, "rec*.jsonl"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(files), test.ShouldBeGreaterThanOrEqualTo, 2)
	total := 0
	for _, file := range files {
		f, err := os.Open(file)
		test.That(t, err, test.ShouldBeNil)
		truth, err := ros.AllMessagesForTopic[ros.WrenchStamped](f, "/firefly/force_sensor_truth")
		test.That(t, f.Close(), test.ShouldBeNil)
		test.That(t, err, test.ShouldBeNil)
		for i := 1; i < len(truth); i++ {
			test.That(t, truth[i].Header.Seq, test.ShouldEqual, truth[i-1].Header.Seq+1)
		}
		total += len(truth)
	}
	test.That(t, out.String(), test.ShouldContainSubstring, "released samples: "+strconv.Itoa(total))
}

func TestRunTruncatesEarlierRecording(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, simConfig)
	recording := filepath.Join(t.TempDir(), "out.jsonl")

	for i := 0; i < 2; i++ {
		err := NewApp(&out, &errOut).Run([]string{"wrenchsim", "run", "-c", path, "-o", recording, "--ticks", "5"})
		test.That(t, err, test.ShouldBeNil)
	}

	f, err := os.Open(recording)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	truth, err := ros.AllMessagesForTopic[ros.WrenchStamped](f, "/firefly/force_sensor_truth")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, truth, test.ShouldHaveLength, 3)
	test.That(t, truth[0].Header.Seq, test.ShouldEqual, uint32(0))
}

func TestRunTrace(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, simConfig)

	err := NewApp(&out, &errOut).Run([]string{"wrenchsim", "run", "-c", path, "--ticks", "5"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut.String(), test.ShouldNotContainSubstring, "running simulation")

	errOut.Reset()
	err = NewApp(&out, &errOut).Run([]string{"wrenchsim", "run", "-c", path, "--ticks", "5", "--trace"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut.String(), test.ShouldContainSubstring, "running simulation")
	test.That(t, errOut.String(), test.ShouldContainSubstring, "force/torque sensor initialized")
}
