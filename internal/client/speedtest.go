package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"reflect"
)

const (
	// DefaultSpeedtestBinary is the Ookla speedtest CLI
	DefaultSpeedtestBinary = "speedtest"
	// DefaultSpeedtestServer is the pinned Hyperoptic server
	DefaultSpeedtestServer = "14679"

	maxLineSize = 1 << 20
)

// Speedtester runs one bandwidth test. A nil result with a nil error means
// the test finished without reporting a result.
type Speedtester interface {
	RunSpeedtest(ctx context.Context) (*SpeedtestResult, error)
}

// SpeedtestCLI runs the speedtest binary and streams its JSON output
type SpeedtestCLI struct {
	binary   string
	serverID string
}

// NewSpeedtestCLI creates a runner for the given binary and server ID
func NewSpeedtestCLI(binary, serverID string) *SpeedtestCLI {
	return &SpeedtestCLI{
		binary:   binary,
		serverID: serverID,
	}
}

// RunSpeedtest spawns `speedtest -s <server> -f json` and returns the first result record.
// The process is killed and reaped before returning, whether or not a result was seen.
func (s *SpeedtestCLI) RunSpeedtest(ctx context.Context) (*SpeedtestResult, error) {
	cmd := exec.CommandContext(ctx, s.binary, "-s", s.serverID, "-f", "json")
	// stderr left nil: discarded to the null device

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrProcess, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrProcess, s.binary, err)
	}
	defer func() {
		// Already-exited processes return an error here, which is fine
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	return ReadResult(stdout)
}

// ReadResult consumes line-delimited JSON records until one has type "result".
// Reading stops at that line; anything after it is left unread.
func ReadResult(r io.Reader) (*SpeedtestResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()

		var record struct {
			Type *string `json:"type"`
		}
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLine, err)
		}
		if record.Type == nil {
			return nil, fmt.Errorf("%w: record has no type field", ErrLine)
		}
		if *record.Type != "result" {
			continue
		}

		return parseResult(line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read speedtest output: %v", ErrTransport, err)
	}
	return nil, nil
}

func parseResult(line []byte) (*SpeedtestResult, error) {
	if err := requireFields(line, reflect.TypeOf(SpeedtestResult{}), "result record"); err != nil {
		return nil, err
	}

	var result SpeedtestResult
	if err := json.Unmarshal(line, &result); err != nil {
		return nil, fmt.Errorf("%w: result record: %v", ErrParse, err)
	}
	return &result, nil
}
