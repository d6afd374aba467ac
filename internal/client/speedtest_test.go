package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const resultLine = `{"type":"result","timestamp":"2024-05-01T10:00:00Z",` +
	`"ping":{"jitter":0.8,"latency":9.5,"low":8.9,"high":11.2},` +
	`"download":{"bandwidth":175000000,"bytes":1500000000,"elapsed":8000,"latency":{"iqm":20.1,"low":10.0,"high":40.2,"jitter":3.1}},` +
	`"upload":{"bandwidth":35000000,"bytes":300000000,"elapsed":9000,"latency":{"iqm":15.0,"low":9.0,"high":30.0,"jitter":2.0}},` +
	`"packetLoss":0.5,"isp":"Hyperoptic","server":{"id":14679}}`

const progressLine = `{"type":"download","timestamp":"2024-05-01T09:59:55Z","download":{"bandwidth":1000,"bytes":100,"elapsed":100,"progress":0.1}}`

func TestReadResult_SkipsProgress(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"testStart","timestamp":"2024-05-01T09:59:50Z"}`,
		`{"type":"ping","timestamp":"2024-05-01T09:59:51Z","ping":{"jitter":0.1,"latency":9.0,"progress":1}}`,
		progressLine,
		resultLine,
	}, "\n")

	result, err := ReadResult(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadResult failed: %v", err)
	}
	if result == nil {
		t.Fatal("Expected a result")
	}
	if result.Download.Bandwidth != 175000000 {
		t.Errorf("Expected download bandwidth 175000000, got %d", result.Download.Bandwidth)
	}
	if result.Upload.Latency.IQM != 15.0 {
		t.Errorf("Expected upload IQM 15.0, got %f", result.Upload.Latency.IQM)
	}
	if result.Ping.Latency != 9.5 || result.Ping.High != 11.2 {
		t.Errorf("Unexpected ping %+v", result.Ping)
	}
	if result.PacketLoss != 0.5 {
		t.Errorf("Expected packet loss 0.5, got %f", result.PacketLoss)
	}
}

func TestReadResult_StopsAtFirstResult(t *testing.T) {
	// Anything after the result line must not be parsed
	input := resultLine + "\nthis is not json\n"

	result, err := ReadResult(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected reading to stop at result, got %v", err)
	}
	if result == nil {
		t.Fatal("Expected a result")
	}
}

func TestReadResult_DefaultPacketLoss(t *testing.T) {
	line := strings.Replace(resultLine, `"packetLoss":0.5,`, "", 1)
	if strings.Contains(line, "packetLoss") {
		t.Fatal("fixture still contains packetLoss")
	}

	result, err := ReadResult(strings.NewReader(line))
	if err != nil {
		t.Fatalf("ReadResult failed: %v", err)
	}
	if result.PacketLoss != 0.0 {
		t.Errorf("Expected default packet loss 0.0, got %f", result.PacketLoss)
	}
}

func TestReadResult_NoResult(t *testing.T) {
	result, err := ReadResult(strings.NewReader(progressLine + "\n" + progressLine + "\n"))
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result, got %+v", result)
	}
}

func TestReadResult_LineErrors(t *testing.T) {
	cases := map[string]string{
		"invalid json":    `{"type":`,
		"missing type":    `{"progress":0.5}`,
		"non-string type": `{"type":7}`,
		"array":           `["result"]`,
		"null":            `null`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadResult(strings.NewReader(input))
			if !errors.Is(err, ErrLine) {
				t.Errorf("Expected ErrLine, got %v", err)
			}
		})
	}
}

func TestReadResult_MalformedResult(t *testing.T) {
	cases := map[string]string{
		"mistyped field":        strings.Replace(resultLine, `"latency":9.5`, `"latency":"fast"`, 1),
		"missing objects":       `{"type":"result","packetLoss":0}`,
		"empty objects":         `{"type":"result","download":{},"upload":{},"ping":{}}`,
		"null object":           strings.Replace(resultLine, `"ping":{"jitter":0.8,"latency":9.5,"low":8.9,"high":11.2}`, `"ping":null`, 1),
		"missing ping field":    strings.Replace(resultLine, `"jitter":0.8,`, "", 1),
		"null bandwidth":        strings.Replace(resultLine, `"bandwidth":175000000`, `"bandwidth":null`, 1),
		"missing bytes":         strings.Replace(resultLine, `"bytes":300000000,`, "", 1),
		"missing latency":       strings.Replace(resultLine, `,"latency":{"iqm":15.0,"low":9.0,"high":30.0,"jitter":2.0}`, "", 1),
		"missing iqm":           strings.Replace(resultLine, `"iqm":20.1,`, "", 1),
		"latency not an object": strings.Replace(resultLine, `"latency":{"iqm":15.0,"low":9.0,"high":30.0,"jitter":2.0}`, `"latency":12`, 1),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if input == resultLine {
				t.Fatal("fixture was not modified")
			}
			result, err := ReadResult(strings.NewReader(input))
			if !errors.Is(err, ErrParse) {
				t.Errorf("Expected ErrParse, got %v", err)
			}
			if result != nil {
				t.Errorf("Expected no result, got %+v", result)
			}
		})
	}
}

func TestSpeedtestCLI_MissingBinary(t *testing.T) {
	cli := NewSpeedtestCLI(filepath.Join(t.TempDir(), "does-not-exist"), DefaultSpeedtestServer)
	_, err := cli.RunSpeedtest(context.Background())
	if !errors.Is(err, ErrProcess) {
		t.Errorf("Expected ErrProcess, got %v", err)
	}
}

func TestSpeedtestCLI_RunsScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture requires a POSIX shell")
	}

	// The fake binary prints a progress record and the result, then hangs
	// to make sure the runner kills it instead of waiting for exit.
	script := "#!/bin/sh\n" +
		"echo '" + progressLine + "'\n" +
		"echo '" + resultLine + "'\n" +
		"exec sleep 60\n"
	path := filepath.Join(t.TempDir(), "speedtest")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	result, err := NewSpeedtestCLI(path, DefaultSpeedtestServer).RunSpeedtest(context.Background())
	if err != nil {
		t.Fatalf("RunSpeedtest failed: %v", err)
	}
	if result == nil || result.Download.Bandwidth != 175000000 {
		t.Errorf("Unexpected result %+v", result)
	}
}
