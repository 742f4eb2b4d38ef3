package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// APIBenchmark 对CAD接口做并发压测
type APIBenchmark struct {
	BaseURL     string
	Concurrency int
	Requests    int
	AuthToken   string
	Client      *http.Client
}

// BenchmarkResult 压测结果
type BenchmarkResult struct {
	URL            string        `json:"url"`
	Method         string        `json:"method"`
	Concurrency    int           `json:"concurrency"`
	TotalRequests  int           `json:"total_requests"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
	MinTime        time.Duration `json:"min_time"`
	MaxTime        time.Duration `json:"max_time"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	StatusCodes    map[int]int   `json:"status_codes"`
	Errors         []string      `json:"errors"`
}

type requestResult struct {
	duration   time.Duration
	statusCode int
	err        error
}

// NewAPIBenchmark 创建压测实例
func NewAPIBenchmark(baseURL string, concurrency, requests int, authToken string) *APIBenchmark {
	if concurrency < 1 {
		concurrency = 1
	}
	return &APIBenchmark{
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Requests:    requests,
		AuthToken:   authToken,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RunGET 压测GET接口
func (b *APIBenchmark) RunGET(path string) *BenchmarkResult {
	return b.run(http.MethodGet, b.BaseURL+path, nil)
}

// RunPOST 压测POST接口
func (b *APIBenchmark) RunPOST(path string, payload interface{}) *BenchmarkResult {
	return b.runJSON(http.MethodPost, path, payload)
}

// RunPUT 压测PUT接口
func (b *APIBenchmark) RunPUT(path string, payload interface{}) *BenchmarkResult {
	return b.runJSON(http.MethodPut, path, payload)
}

func (b *APIBenchmark) runJSON(method, path string, payload interface{}) *BenchmarkResult {
	url := b.BaseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return &BenchmarkResult{
			URL:    url,
			Method: method,
			Errors: []string{fmt.Sprintf("JSON编码错误: %v", err)},
		}
	}
	return b.run(method, url, body)
}

func (b *APIBenchmark) do(method, url string, payload []byte) requestResult {
	start := time.Now()
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return requestResult{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if b.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.AuthToken)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return requestResult{err: err}
	}
	resp.Body.Close()
	return requestResult{duration: time.Since(start), statusCode: resp.StatusCode}
}

// run 以 Concurrency 个并发发出 Requests 个请求并汇总
func (b *APIBenchmark) run(method, url string, payload []byte) *BenchmarkResult {
	res := &BenchmarkResult{
		URL:           url,
		Method:        method,
		Concurrency:   b.Concurrency,
		TotalRequests: b.Requests,
		MinTime:       1<<63 - 1,
		StatusCodes:   make(map[int]int),
	}

	var (
		mu    sync.Mutex
		total time.Duration
		g     errgroup.Group
	)
	g.SetLimit(b.Concurrency)

	startTime := time.Now()
	for i := 0; i < b.Requests; i++ {
		g.Go(func() error {
			r := b.do(method, url, payload)

			mu.Lock()
			defer mu.Unlock()
			if r.err != nil {
				res.FailureCount++
				res.Errors = append(res.Errors, r.err.Error())
				return nil
			}
			total += r.duration
			if r.duration < res.MinTime {
				res.MinTime = r.duration
			}
			if r.duration > res.MaxTime {
				res.MaxTime = r.duration
			}
			res.StatusCodes[r.statusCode]++
			if r.statusCode >= 200 && r.statusCode < 300 {
				res.SuccessCount++
			} else {
				res.FailureCount++
			}
			return nil
		})
	}
	_ = g.Wait()

	res.TotalTime = time.Since(startTime)
	if res.TotalTime > 0 {
		res.RequestsPerSec = float64(b.Requests) / res.TotalTime.Seconds()
	}
	if n := len(res.StatusCodes); n > 0 {
		answered := 0
		for _, c := range res.StatusCodes {
			answered += c
		}
		res.AverageTime = total / time.Duration(answered)
	}
	if res.MaxTime == 0 {
		res.MinTime = 0
	}
	return res
}

// PrintResult 打印压测结果
func (r *BenchmarkResult) PrintResult() {
	fmt.Printf("基准测试结果:\n")
	fmt.Printf("URL: %s %s\n", r.Method, r.URL)
	fmt.Printf("并发数: %d, 总请求数: %d\n", r.Concurrency, r.TotalRequests)
	fmt.Printf("成功: %d, 失败: %d\n", r.SuccessCount, r.FailureCount)
	fmt.Printf("总耗时: %s, 平均: %s, 最小: %s, 最大: %s\n", r.TotalTime, r.AverageTime, r.MinTime, r.MaxTime)
	fmt.Printf("每秒请求数: %.2f\n", r.RequestsPerSec)
	for status, count := range r.StatusCodes {
		fmt.Printf("  %d: %d\n", status, count)
	}
	for i, err := range r.Errors {
		if i >= 5 {
			fmt.Printf("  ... 还有 %d 个错误\n", len(r.Errors)-5)
			break
		}
		fmt.Printf("  %s\n", err)
	}
}
