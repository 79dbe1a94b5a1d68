package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/circulation-engine-go/circulation"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

const (
	scenarioBorrow = "borrow"
	scenarioReturn = "return"
	scenarioCancel = "cancel"

	loadOperationTimeout = 5 * time.Second
	loadStatsInterval    = 10 * time.Second
)

var errBadWeights = errors.New("invalid scenario weights")

type loadGeneratorConfig struct {
	Rate       int
	Items      int
	Users      int
	CopiesEach int
	Weights    []int // borrow, return, cancel
}

// loadGenerator drives random borrows, returns and cancellations against a coordinator at a fixed rate.
type loadGenerator struct {
	coordinator *circulation.Coordinator
	config      loadGeneratorConfig
	logger      eventstore.ContextualLogger

	wg sync.WaitGroup

	mu           sync.Mutex
	openLoans    []string
	openQueueIDs map[string]string // reservation id -> user id

	requests  atomic.Int64
	rejected  atomic.Int64
	conflicts atomic.Int64
	failures  atomic.Int64
	startTime time.Time
}

func newLoadGenerator(coordinator *circulation.Coordinator, config loadGeneratorConfig, logger eventstore.ContextualLogger) *loadGenerator {
	return &loadGenerator{
		coordinator:  coordinator,
		config:       config,
		logger:       logger,
		openQueueIDs: make(map[string]string),
	}
}

func (lg *loadGenerator) itemID(n int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("item-%d", n))).String()
}

func (lg *loadGenerator) userID(n int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("user-%d", n))).String()
}

// seed registers every item with its copies.
func (lg *loadGenerator) seed(ctx context.Context) error {
	for n := 1; n <= lg.config.Items; n++ {
		if _, err := lg.coordinator.OnCatalogCopyCountChanged(ctx, lg.itemID(n), lg.config.CopiesEach); err != nil {
			return err
		}
	}

	return nil
}

// run generates load until ctx is done, then waits for in-flight scenarios.
func (lg *loadGenerator) run(ctx context.Context) error {
	if err := lg.seed(ctx); err != nil {
		return err
	}

	lg.startTime = time.Now()
	ticker := time.NewTicker(time.Second / time.Duration(lg.config.Rate))
	defer ticker.Stop()

	stats := time.NewTicker(loadStatsInterval)
	defer stats.Stop()

	lg.logger.InfoContext(ctx, "load generator started",
		"rate", lg.config.Rate,
		"items", lg.config.Items,
		"users", lg.config.Users,
		"goroutines", runtime.NumGoroutine())

	for {
		select {
		case <-ctx.Done():
			lg.wg.Wait()
			lg.logStats(context.WithoutCancel(ctx), "load generator finished")

			return nil

		case <-stats.C:
			lg.logStats(ctx, "load generator stats")

		case <-ticker.C:
			lg.wg.Add(1)
			go lg.executeScenario(ctx)
		}
	}
}

func (lg *loadGenerator) executeScenario(ctx context.Context) {
	defer lg.wg.Done()

	opCtx, cancel := context.WithTimeout(ctx, loadOperationTimeout)
	defer cancel()

	scenario := lg.selectScenario()

	var err error
	switch scenario {
	case scenarioReturn:
		err = lg.runReturn(opCtx)
	case scenarioCancel:
		err = lg.runCancel(opCtx)
	default:
		err = lg.runBorrow(opCtx)
	}

	lg.requests.Add(1)

	switch {
	case err == nil:
	case shell.IsBusinessError(err):
		lg.rejected.Add(1)
	case shell.IsRetryableError(err):
		lg.conflicts.Add(1)
	case ctx.Err() != nil:
	default:
		lg.failures.Add(1)
		lg.logger.WarnContext(ctx, "load scenario failed", "scenario", scenario, "error", err.Error())
	}
}

func (lg *loadGenerator) selectScenario() string {
	r := rand.Intn(100) //nolint:gosec // load generation, weak random is fine

	switch {
	case r < lg.config.Weights[0]:
		return scenarioBorrow
	case r < lg.config.Weights[0]+lg.config.Weights[1]:
		return scenarioReturn
	default:
		return scenarioCancel
	}
}

func (lg *loadGenerator) runBorrow(ctx context.Context) error {
	itemID := lg.itemID(rand.Intn(lg.config.Items) + 1) //nolint:gosec // load generation
	userID := lg.userID(rand.Intn(lg.config.Users) + 1) //nolint:gosec // load generation

	result, err := lg.coordinator.BorrowItem(ctx, itemID, userID)
	if err != nil {
		return err
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()

	if result.Loan != nil {
		lg.openLoans = append(lg.openLoans, result.Loan.LoanID)
	}
	if result.Reservation != nil {
		lg.openQueueIDs[result.Reservation.ReservationID] = userID
	}

	return nil
}

func (lg *loadGenerator) runReturn(ctx context.Context) error {
	lg.mu.Lock()
	if len(lg.openLoans) == 0 {
		lg.mu.Unlock()
		return lg.runBorrow(ctx)
	}

	i := rand.Intn(len(lg.openLoans)) //nolint:gosec // load generation
	loanID := lg.openLoans[i]
	lg.openLoans = append(lg.openLoans[:i], lg.openLoans[i+1:]...)
	lg.mu.Unlock()

	_, err := lg.coordinator.ReturnItem(ctx, loanID)

	return err
}

func (lg *loadGenerator) runCancel(ctx context.Context) error {
	lg.mu.Lock()
	var reservationID, userID string
	for reservationID, userID = range lg.openQueueIDs {
		break
	}
	delete(lg.openQueueIDs, reservationID)
	lg.mu.Unlock()

	if reservationID == "" {
		return lg.runBorrow(ctx)
	}

	_, err := lg.coordinator.CancelReservation(ctx, reservationID, userID)

	return err
}

func (lg *loadGenerator) logStats(ctx context.Context, msg string) {
	duration := time.Since(lg.startTime)
	requests := lg.requests.Load()

	rps := 0.0
	if duration > 0 {
		rps = float64(requests) / duration.Seconds()
	}

	lg.logger.InfoContext(ctx, msg,
		"requests", requests,
		"rejected", lg.rejected.Load(),
		"conflicts", lg.conflicts.Load(),
		"failures", lg.failures.Load(),
		"requests_per_second", strconv.FormatFloat(rps, 'f', 1, 64),
		"duration", duration.Truncate(time.Second).String(),
		"goroutines", runtime.NumGoroutine())
}

func parseScenarioWeights(weights string) ([]int, error) {
	parts := strings.Split(weights, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 weights, got %d", errBadWeights, len(parts))
	}

	parsed := make([]int, 3)
	total := 0
	for i, part := range parts {
		weight, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", errBadWeights, part, err)
		}
		if weight < 0 || weight > 100 {
			return nil, fmt.Errorf("%w: %d out of range [0, 100]", errBadWeights, weight)
		}

		parsed[i] = weight
		total += weight
	}

	if total != 100 {
		return nil, fmt.Errorf("%w: must sum to 100, got %d", errBadWeights, total)
	}

	return parsed, nil
}

func newLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Generate random borrow, return and cancel traffic against the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()

			rate, _ := flags.GetInt("rate")
			duration, _ := flags.GetDuration("duration")
			items, _ := flags.GetInt("items")
			users, _ := flags.GetInt("users")
			copies, _ := flags.GetInt("copies")
			rawWeights, _ := flags.GetString("weights")

			weights, err := parseScenarioWeights(rawWeights)
			if err != nil {
				return err
			}

			if rate <= 0 || items <= 0 || users <= 0 || copies < 0 {
				return errors.New("rate, items and users must be positive, copies must not be negative")
			}

			config := loadGeneratorConfig{Rate: rate, Items: items, Users: users, CopiesEach: copies, Weights: weights}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				if duration > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, duration)
					defer cancel()
				}

				return newLoadGenerator(a.coordinator, config, a.telemetry.logger).run(ctx)
			})
		},
	}

	cmd.Flags().Int("rate", 30, "scenarios per second")
	cmd.Flags().Duration("duration", 0, "stop after this long, 0 runs until interrupted")
	cmd.Flags().Int("items", 100, "number of items")
	cmd.Flags().Int("users", 500, "number of users")
	cmd.Flags().Int("copies", 2, "copies per item")
	cmd.Flags().String("weights", "60,30,10", "percent weights of borrow,return,cancel scenarios")

	return cmd
}
