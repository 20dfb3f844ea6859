package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/punchamoorthee/globalpay/internal/domain"
	"github.com/punchamoorthee/globalpay/internal/logger"
	"golang.org/x/sync/errgroup"
)

var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
	idsFile     string
	replayKeys  int
)

// Response counters, one per transfer outcome.
var (
	totalRequests uint64
	created201    uint64
	processing409 uint64
	rejected400   uint64
	failed503     uint64
	mismatch422   uint64
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot | replay")
	flag.StringVar(&idsFile, "accounts", "accounts.txt", "Account ids written by the seeder")
	flag.IntVar(&replayKeys, "replay-keys", 50, "Distinct idempotency keys used by the replay workload")
}

func main() {
	flag.Parse()
	log := logger.New(os.Getenv("LOG_LEVEL"), true)

	accounts, err := loadAccounts(idsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load account ids")
	}
	if len(accounts) < 2 {
		log.Fatal().Int("accounts", len(accounts)).Msg("need at least two accounts")
	}
	log.Info().Str("workload", workload).Int("workers", concurrency).Dur("duration", duration).Msg("starting benchmark")

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))
		g.Go(func() error {
			worker(ctx, i, rnd, accounts)
			return nil
		})
	}
	g.Wait()

	if err := printResults(time.Since(start)); err != nil {
		log.Error().Err(err).Msg("writing results failed")
	}
}

func worker(ctx context.Context, id int, rnd *rand.Rand, accounts []string) {
	client := &http.Client{Timeout: 5 * time.Second}
	currencies := domain.SupportedCurrencies()

	for seq := 0; ctx.Err() == nil; seq++ {
		from, to := pickAccounts(rnd, accounts)
		key := fmt.Sprintf("bench-%d-%d-%d", id, seq, time.Now().UnixNano())
		currency := currencies[rnd.Intn(len(currencies))]

		if workload == "replay" {
			// Keys and payloads are derived from the key index so every
			// retry of a key carries the same request.
			k := rnd.Intn(replayKeys)
			key = fmt.Sprintf("replay-%d", k)
			from, to = accounts[k%len(accounts)], accounts[(k+1)%len(accounts)]
			currency = currencies[k%len(currencies)]
		}

		body, _ := json.Marshal(map[string]string{
			"from_account_id": from,
			"to_account_id":   to,
			"amount":          "1.00",
			"currency":        string(currency),
		})

		req, _ := http.NewRequestWithContext(ctx, http.MethodPost, targetURL+"/api/v1/transfers", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", key)

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() == nil {
				atomic.AddUint64(&failOther, 1)
			}
			continue
		}
		resp.Body.Close()

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case http.StatusCreated:
			atomic.AddUint64(&created201, 1)
		case http.StatusConflict:
			atomic.AddUint64(&processing409, 1)
		case http.StatusBadRequest:
			atomic.AddUint64(&rejected400, 1)
		case http.StatusServiceUnavailable:
			atomic.AddUint64(&failed503, 1)
		case http.StatusUnprocessableEntity:
			atomic.AddUint64(&mismatch422, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
	}
}

func pickAccounts(rnd *rand.Rand, accounts []string) (string, string) {
	if workload == "hotspot" && rnd.Float32() < 0.90 {
		// Hotspot: 90% of traffic goes back and forth between the first two accounts.
		if rnd.Float32() < 0.5 {
			return accounts[0], accounts[1]
		}
		return accounts[1], accounts[0]
	}

	a := rnd.Intn(len(accounts))
	b := rnd.Intn(len(accounts))
	for a == b {
		b = rnd.Intn(len(accounts))
	}
	return accounts[a], accounts[b]
}

func loadAccounts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			ids = append(ids, line)
		}
	}
	return ids, sc.Err()
}

func printResults(d time.Duration) error {
	total := atomic.LoadUint64(&totalRequests)
	results := map[string]interface{}{
		"workload":         workload,
		"duration_sec":     d.Seconds(),
		"total_requests":   total,
		"throughput_tps":   float64(total) / d.Seconds(),
		"completed_201":    atomic.LoadUint64(&created201),
		"processing_409":   atomic.LoadUint64(&processing409),
		"bad_request_400":  atomic.LoadUint64(&rejected400),
		"failed_503":       atomic.LoadUint64(&failed503),
		"key_mismatch_422": atomic.LoadUint64(&mismatch422),
		"errors":           atomic.LoadUint64(&failOther),
	}

	// JSON on stdout for the plotting scripts
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}

	file, err := os.Create(fmt.Sprintf("results_%s.json", workload))
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewEncoder(file).Encode(results)
}

