package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

// Compares two running deployments of the leave API, typically a release
// candidate against the environment it is about to replace, and exits
// non-zero when a critical endpoint diverges.

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target            target
	ReferenceStatus   int
	CandidateStatus   int
	StatusMatch       bool
	BodyMatch         bool
	Error             error
	DurationCandidate time.Duration
	DurationReference time.Duration
}

var defaultTargets = []target{
	{Method: "GET", Path: "/health", Critical: true},
	{Method: "GET", Path: "/ready", Critical: true},
	{Method: "GET", Path: "/api/public/leave-statuses", Critical: true},
	{Method: "GET", Path: "/metrics", Critical: false},
}

func main() {
	var (
		candidateBase string
		referenceBase string
		targetsPath   string
		timeout       time.Duration
	)

	flag.StringVar(&candidateBase, "candidate", "http://localhost:8080", "Candidate deployment base URL")
	flag.StringVar(&referenceBase, "reference", "http://localhost:8081", "Reference deployment base URL")
	flag.StringVar(&targetsPath, "targets", "", "Optional JSON targets file, defaults to the built-in public endpoints")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			log.Fatalf("failed to load targets: %v", err)
		}
		targets = loaded
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range targets {
		comp := compareTarget(client, candidateBase, referenceBase, t)
		if comp.Error != nil {
			if t.Critical {
				breaking++
			}
		} else {
			if !comp.StatusMatch || !comp.BodyMatch {
				if t.Critical {
					breaking++
				} else {
					optionalDiff++
				}
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, candidateBase, referenceBase string, tgt target) comparison {
	comp := comparison{Target: tgt}
	candResp, candDur, candErr := performRequest(client, candidateBase, tgt)
	refResp, refDur, refErr := performRequest(client, referenceBase, tgt)
	comp.DurationCandidate = candDur
	comp.DurationReference = refDur

	if candErr != nil {
		comp.Error = fmt.Errorf("candidate request failed: %w", candErr)
		return comp
	}
	if refErr != nil {
		comp.Error = fmt.Errorf("reference request failed: %w", refErr)
		return comp
	}

	comp.CandidateStatus = candResp.StatusCode
	comp.ReferenceStatus = refResp.StatusCode
	comp.StatusMatch = comp.CandidateStatus == comp.ReferenceStatus

	defer candResp.Body.Close()
	defer refResp.Body.Close()

	candBody, err := io.ReadAll(candResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read candidate body: %w", err)
		return comp
	}
	refBody, err := io.ReadAll(refResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read reference body: %w", err)
		return comp
	}

	comp.BodyMatch = bodiesEqual(candBody, refBody)

	return comp
}

func performRequest(client *http.Client, base string, tgt target) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []comparison) {
	fmt.Println("Environment Parity Report")
	fmt.Println("=========================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Printf("  Candidate: %d (%s)\n", res.CandidateStatus, res.DurationCandidate)
		fmt.Printf("  Reference: %d (%s)\n", res.ReferenceStatus, res.DurationReference)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else {
			fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
