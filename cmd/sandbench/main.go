// sandbench measures allocation latency against a running sandpool
// daemon. It requests a batch of workloads, records the time to first
// sandbox, and tears everything down afterwards. The first requests
// drain the warm pool; the rest exercise the cold path, so the report
// shows both distributions.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"sort"
	"time"
)

type workloadResponse struct {
	WorkloadID string `json:"workload_id"`
	SandboxID  string `json:"sandbox_id"`
}

type poolStatus struct {
	Active    int `json:"active"`
	Capacity  int `json:"capacity"`
	Available int `json:"available"`
	WarmSize  int `json:"warm_size"`
}

type run struct {
	WorkloadID string  `json:"workload_id"`
	SandboxID  string  `json:"sandbox_id"`
	LatencyMs  float64 `json:"latency_ms"`
	WarmBefore int     `json:"warm_before"`
}

type summary struct {
	Count int     `json:"count"`
	MinMs float64 `json:"min_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	MaxMs float64 `json:"max_ms"`
}

type report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Host        string    `json:"host"`
	Runs        []run     `json:"runs"`
	Warm        summary   `json:"warm_summary"`
	Cold        summary   `json:"cold_summary"`
}

type client struct {
	base   string
	apiKey string
	http   *http.Client
}

func main() {
	host := flag.String("host", "http://127.0.0.1:8080", "sandpool daemon base URL")
	apiKey := flag.String("api-key", os.Getenv("SANDPOOL_API_KEY"), "API key (default: SANDPOOL_API_KEY env)")
	count := flag.Int("count", 8, "number of workloads to allocate")
	out := flag.String("out", "", "write the JSON report to a file instead of stdout")
	flag.Parse()

	c := &client{
		base:   *host,
		apiKey: *apiKey,
		http:   &http.Client{Timeout: 2 * time.Minute},
	}

	rep := report{GeneratedAt: time.Now().UTC(), Host: *host}

	for i := 0; i < *count; i++ {
		st, err := c.status()
		if err != nil {
			fatalf("status: %v", err)
		}
		if st.Available == 0 {
			fmt.Fprintf(os.Stderr, "pool full at %d workloads, stopping early\n", i)
			break
		}

		workloadID := fmt.Sprintf("bench-%d-%d", time.Now().Unix(), i)
		begin := time.Now()
		resp, err := c.request(workloadID)
		if err != nil {
			fatalf("request %s: %v", workloadID, err)
		}
		rep.Runs = append(rep.Runs, run{
			WorkloadID: resp.WorkloadID,
			SandboxID:  resp.SandboxID,
			LatencyMs:  float64(time.Since(begin).Microseconds()) / 1000.0,
			WarmBefore: st.WarmSize,
		})
	}

	defer func() {
		for _, r := range rep.Runs {
			if err := c.remove(r.WorkloadID); err != nil {
				fmt.Fprintf(os.Stderr, "cleanup %s: %v\n", r.WorkloadID, err)
			}
		}
	}()

	var warmMs, coldMs []float64
	for _, r := range rep.Runs {
		if r.WarmBefore > 0 {
			warmMs = append(warmMs, r.LatencyMs)
		} else {
			coldMs = append(coldMs, r.LatencyMs)
		}
	}
	rep.Warm = summarize(warmMs)
	rep.Cold = summarize(coldMs)

	enc, _ := json.MarshalIndent(rep, "", "  ")
	if *out != "" {
		if err := os.WriteFile(*out, enc, 0644); err != nil {
			fatalf("write report: %v", err)
		}
		fmt.Printf("report written to %s\n", *out)
		return
	}
	fmt.Println(string(enc))
}

func (c *client) request(workloadID string) (*workloadResponse, error) {
	body, _ := json.Marshal(map[string]any{"workload_id": workloadID})
	req, err := http.NewRequest("POST", c.base+"/v1/workloads", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var wr workloadResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, err
	}
	return &wr, nil
}

func (c *client) remove(workloadID string) error {
	req, err := http.NewRequest("DELETE", c.base+"/v1/workloads/"+workloadID, nil)
	if err != nil {
		return err
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *client) status() (*poolStatus, error) {
	req, err := http.NewRequest("GET", c.base+"/v1/status", nil)
	if err != nil {
		return nil, err
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var st poolStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *client) auth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func summarize(ms []float64) summary {
	if len(ms) == 0 {
		return summary{}
	}
	sort.Float64s(ms)
	return summary{
		Count: len(ms),
		MinMs: ms[0],
		P50Ms: percentile(ms, 50),
		P95Ms: percentile(ms, 95),
		MaxMs: ms[len(ms)-1],
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100.0 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
